// Package fingerprint derives content-addressed identifiers for encryption keys.
//
// A fingerprint is the SHA-256 digest of the raw key material rendered as 64
// lowercase hex characters. The colon-separated form ("aa:bb:...") accepted by
// the backup server API is supported for display and input.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Size is the length of a canonical fingerprint in characters.
const Size = sha256.Size * 2

// ErrHashInput is returned when key material cannot be read for hashing.
var ErrHashInput = errors.New("fingerprint: invalid hash input")

// Compute returns the canonical fingerprint of b. A nil or empty slice yields
// the digest of the empty message.
func Compute(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FromReader hashes everything read from r.
func FromReader(r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: nil reader", ErrHashInput)
	}
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashInput, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File hashes the contents of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashInput, err)
	}
	defer f.Close()
	return FromReader(f)
}

// Valid reports whether s is a canonical fingerprint.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// Normalize accepts a fingerprint in canonical or colon-separated form, in any
// letter case, and returns the canonical form.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != sha256.Size {
			return "", fmt.Errorf("invalid fingerprint %q: want %d colon-separated bytes", s, sha256.Size)
		}
		for _, p := range parts {
			if len(p) != 2 {
				return "", fmt.Errorf("invalid fingerprint %q: malformed byte %q", s, p)
			}
		}
		s = strings.Join(parts, "")
	}
	s = strings.ToLower(s)
	if !Valid(s) {
		return "", fmt.Errorf("invalid fingerprint %q", s)
	}
	return s, nil
}

// Pretty renders a canonical fingerprint as colon-separated byte pairs.
// Input that is not a canonical fingerprint is returned unchanged.
func Pretty(fp string) string {
	if !Valid(fp) {
		return fp
	}
	var b strings.Builder
	b.Grow(Size + sha256.Size - 1)
	for i := 0; i < len(fp); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(fp[i : i+2])
	}
	return b.String()
}
