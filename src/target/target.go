package target

import (
	"fmt"
	"net/url"
	"strings"
)

// Target represents a parsed remote URI naming the server the console talks to.
// Examples:
//
//	api:https://backup.example:8007
//	incus:default
type Target struct {
	// Raw is the original input string.
	Raw string
	// Scheme is the backend scheme ("api" or "incus").
	Scheme string
	// Value is the scheme-specific value.
	Value string

	// URL is set when Scheme == "api".
	URL *url.URL
	// Project is set when Scheme == "incus"; defaults to "default".
	Project string
}

// SupportedSchemes lists the schemes the parser accepts.
var SupportedSchemes = map[string]struct{}{
	"api":   {},
	"incus": {},
}

// Parse parses a remote URI like "api:https://host:8007" into a Target.
func Parse(raw string) (Target, error) {
	t := Target{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return t, fmt.Errorf("remote must not be empty; expected 'api:<url>' or 'incus:<project>'")
	}
	i := strings.Index(s, ":")
	if i <= 0 {
		return t, fmt.Errorf("invalid remote %q; expected format '<scheme>:<value>'", raw)
	}
	scheme := strings.ToLower(strings.TrimSpace(s[:i]))
	val := strings.TrimSpace(s[i+1:])
	if _, ok := SupportedSchemes[scheme]; !ok {
		return t, fmt.Errorf("unsupported remote scheme %q", scheme)
	}
	t.Scheme = scheme
	t.Value = val

	switch scheme {
	case "api":
		if val == "" {
			return t, fmt.Errorf("api remote needs a server URL")
		}
		u, err := url.Parse(val)
		if err != nil {
			return t, fmt.Errorf("invalid api remote %q: %w", val, err)
		}
		if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return t, fmt.Errorf("api remote must be an http(s) URL with a host: %q", val)
		}
		t.URL = u
		t.Value = strings.TrimRight(u.String(), "/")
	case "incus":
		if val == "" {
			val = "default"
		}
		if strings.ContainsAny(val, "/ ") {
			return t, fmt.Errorf("invalid incus project name %q", val)
		}
		t.Project = val
		t.Value = val
	}
	return t, nil
}

// IsSupported returns true if the scheme is recognized.
func IsSupported(scheme string) bool {
	_, ok := SupportedSchemes[strings.ToLower(scheme)]
	return ok
}

// String returns a canonical string form of the target.
func (t Target) String() string {
	if t.Scheme != "" {
		return fmt.Sprintf("%s:%s", t.Scheme, t.Value)
	}
	return t.Raw
}
