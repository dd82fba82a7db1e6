package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kdf is the key derivation function protecting a password-encrypted key.
type Kdf string

const (
	KdfNone   Kdf = "none"
	KdfScrypt Kdf = "scrypt"
	KdfPBKDF2 Kdf = "pbkdf2"
)

// ParseKdf accepts the lowercase names used by the server. An empty string
// maps to scrypt, the server default.
func ParseKdf(s string) (Kdf, error) {
	switch k := Kdf(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KdfScrypt, nil
	case KdfNone, KdfScrypt, KdfPBKDF2:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kdf %q", s)
	}
}

// KeyRecord describes one encryption key known to the server. Only Hint and
// Fingerprint are guaranteed; the rest is informational.
type KeyRecord struct {
	Hint        string `json:"hint" yaml:"hint"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Kdf         Kdf    `json:"kdf,omitempty" yaml:"kdf,omitempty"`
	Created     int64  `json:"created,omitempty" yaml:"created,omitempty"`
	Modified    int64  `json:"modified,omitempty" yaml:"modified,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Lister is the key-listing endpoint consumed by the catalog.
type Lister interface {
	ListKeys(ctx context.Context) ([]KeyRecord, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context) ([]KeyRecord, error)

func (f ListerFunc) ListKeys(ctx context.Context) ([]KeyRecord, error) { return f(ctx) }

var (
	// ErrCatalogLoadFailed wraps every failed catalog load.
	ErrCatalogLoadFailed = errors.New("key catalog load failed")
	// ErrUnknownKey is returned when selecting a fingerprint not in the catalog.
	ErrUnknownKey = errors.New("unknown encryption key")
	// ErrAmbiguousHint is returned when a hint matches more than one key.
	ErrAmbiguousHint = errors.New("ambiguous key hint")
	// ErrSelectionRequired is returned by a required selector with nothing selected.
	ErrSelectionRequired = errors.New("an encryption key must be selected")
)
