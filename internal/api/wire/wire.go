// Package wire converts between Go-style field names and the flat
// snake_case keys used by the backend JSON payloads. The backend and the
// web client disagree historically on naming; the bot pins snake_case as
// the canonical convention and derives every payload key through this
// package so the mapping stays in one place.
package wire

import (
	"strings"
	"unicode"
)

// initialisms are name segments that are fully capitalized on the Go side.
var initialisms = map[string]string{
	"id":  "ID",
	"url": "URL",
	"api": "API",
}

// Encode converts a Go-style field name (CamelCase, acronyms uppercased)
// into its canonical wire key. Encode("NextPaymentDate") yields
// "next_payment_date", Encode("UserID") yields "user_id".
func Encode(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Word boundary: previous rune is lowercase, or this rune starts
			// a new word after an acronym run ("ID" in "UserIDValue").
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Decode converts a canonical wire key back into its Go-style field name.
// It is the inverse of Encode over every field name declared by the
// payload schemas: Decode(Encode(x)) == x.
func Decode(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.Split(key, "_")
	var b strings.Builder
	b.Grow(len(key))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if up, ok := initialisms[part]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
