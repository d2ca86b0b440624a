// Package textutil normaliza texto para búsquedas.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold pasa a minúsculas y elimina tildes: "Inalámbrico" → "inalambrico".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Contains indica si needle aparece en alguno de los campos, sin distinguir tildes ni mayúsculas.
// Un needle vacío coincide siempre.
func Contains(needle string, fields ...string) bool {
	n := Fold(strings.TrimSpace(needle))
	if n == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(f), n) {
			return true
		}
	}
	return false
}
