// Package capi builds and delivers server-side conversion events to the
// advertising platform's Conversions API (Graph API "events" edge).
//
// Contact fields never leave the process in plaintext: each one is trimmed,
// lowercased, and SHA-256 hashed before it is placed into user_data. The
// normalization order is fixed because the platform applies the same steps
// to its own records; a digest computed any other way simply fails to match.
package capi

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize trims surrounding whitespace and applies full Unicode lowercase
// mapping, in that order.
func Normalize(s string) string {
	s = strings.TrimFunc(s, isTrimmable)
	// A Caser keeps per-use state, so one is built per call.
	return cases.Lower(language.Und).String(s)
}

// HashValue returns the lowercase hex SHA-256 digest of the normalized value.
// ok is false when nothing is left to hash after normalization.
func HashValue(s string) (digest string, ok bool) {
	n := Normalize(s)
	if n == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(n))
	return hex.EncodeToString(sum[:]), true
}

// Hash is the pointer form used for optional fields. Absent input, empty
// input, and whitespace-only input all yield nil, never the digest of "".
//
// Phone numbers go through the same path unchanged: no E.164 formatting is
// applied, so the digest is of whatever the visitor typed.
func Hash(v *string) *string {
	if v == nil {
		return nil
	}
	d, ok := HashValue(*v)
	if !ok {
		return nil
	}
	return &d
}

// isTrimmable matches the set String.prototype.trim strips: the ECMAScript
// WhiteSpace and LineTerminator code points. Unlike unicode.IsSpace it keeps
// NEL (U+0085).
func isTrimmable(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
