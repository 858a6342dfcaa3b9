// Package ident generates record identifiers and resolves short id prefixes.
package ident

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// ShortLen is the number of hex characters shown to users as a record reference.
const ShortLen = 8

// New returns a 32 character lowercase hex token backed by a random (v4) UUID.
// No counter or coordination is involved.
func New() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Short returns the display form of id.
func Short(id string) string {
	if len(id) <= ShortLen {
		return id
	}
	return id[:ShortLen]
}

// HasPrefix reports whether prefix references id. An empty prefix references nothing.
func HasPrefix(id, prefix string) bool {
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(id, prefix)
}

// NormalizePrefix trims user input and lowercases it so "ABCD" finds "abcd...".
func NormalizePrefix(prefix string) string {
	return strings.ToLower(strings.TrimSpace(prefix))
}
