package schema

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// HeaderOptions tunes NormalizeHeader.
type HeaderOptions struct {
	// FoldAccents strips combining marks before the identifier check, so
	// "Café" is kept as "Cafe" instead of becoming a placeholder.
	FoldAccents bool
}

// NormalizeHeader turns a raw header record into the column set.
//
// Each field is trimmed. Empty fields are dropped. A field made only of
// ASCII letters, digits and underscores is kept verbatim; anything else is
// renamed col<N>, where N is the field's 1-based position in raw. Because N
// is counted before dropping, placeholder numbers can skip.
func NormalizeHeader(raw []string, opt HeaderOptions) Columns {
	cols := make(Columns, 0, len(raw))
	for i, field := range raw {
		name := strings.TrimSpace(field)
		if name == "" {
			continue
		}
		if opt.FoldAccents {
			name = FoldAccents(name)
		}
		if !IsIdentifier(name) {
			name = "col" + strconv.Itoa(i+1)
		}
		cols = append(cols, Column{Original: field, Name: name, Position: i + 1})
	}
	return cols
}

// IsIdentifier reports whether s is non-empty and matches [A-Za-z0-9_]+.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// FoldAccents removes nonspacing marks: NFD, drop Mn, NFC.
func FoldAccents(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
