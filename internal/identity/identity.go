// Package identity canonicalizes the profile URL that keys every contact.
package identity

import (
	"errors"
	"strings"
)

var ErrMissingProfileURL = errors.New("missing profile URL")

// Key holds both lookup forms of a profile URL. Stripped is the canonical stored value.
type Key struct {
	Original string
	Stripped string
}

// Normalize trims surrounding whitespace and strips one trailing "/".
func Normalize(raw string) (Key, error) {
	original := strings.TrimSpace(raw)
	if original == "" {
		return Key{}, ErrMissingProfileURL
	}
	stripped := strings.TrimSuffix(original, "/")
	if stripped == "" {
		return Key{}, ErrMissingProfileURL
	}
	return Key{Original: original, Stripped: stripped}, nil
}

// Canonical is the value written to the store.
func (k Key) Canonical() string {
	return k.Stripped
}

// Forms returns the distinct lookup values, canonical first.
func (k Key) Forms() []string {
	if k.Original == k.Stripped {
		return []string{k.Stripped, k.Stripped + "/"}
	}
	return []string{k.Stripped, k.Original}
}
