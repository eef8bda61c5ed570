package dialect

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IdentifierKind selects the prefix and suffix used when sanitizing.
type IdentifierKind int

const (
	KindTable IdentifierKind = iota
	KindField
	KindIndex
)

func (k IdentifierKind) prefix() string {
	switch k {
	case KindTable:
		return "t_"
	case KindIndex:
		return "idx_"
	default:
		return "f_"
	}
}

func (k IdentifierKind) suffix() string {
	switch k {
	case KindTable:
		return "_tbl"
	case KindIndex:
		return "_idx"
	default:
		return "_col"
	}
}

// QuoteIdentifier delimits a name with the dialect's quote characters,
// doubling any embedded closing delimiter.
func (d *Dialect) QuoteIdentifier(name string) string {
	return d.QuoteOpen + strings.ReplaceAll(name, d.QuoteClose, d.QuoteClose+d.QuoteClose) + d.QuoteClose
}

// QuoteString renders a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IsReserved reports whether name collides with a reserved word.
func (d *Dialect) IsReserved(name string) bool {
	_, ok := d.reserved[strings.ToLower(name)]
	return ok
}

// SanitizeIdentifier turns an arbitrary name into a safe identifier:
// accents are stripped, characters outside [A-Za-z0-9_] become
// underscores, the result starts with a letter, fits the dialect's length
// limit, and does not collide with a reserved word.
func (d *Dialect) SanitizeIdentifier(name string, kind IdentifierKind) string {
	s := stripAccents(name)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = strings.Trim(kind.prefix(), "_")
	}
	if c := out[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		out = kind.prefix() + out
	}

	out = d.Truncate(out)
	if d.IsReserved(out) {
		suffix := kind.suffix()
		if limit := d.MaxIdentifierLength; limit > 0 && len(out)+len(suffix) > limit {
			out = out[:limit-len(suffix)]
		}
		out += suffix
	}
	return out
}

// Truncate shortens a name to the dialect's maximum identifier length.
func (d *Dialect) Truncate(name string) string {
	if d.MaxIdentifierLength > 0 && len(name) > d.MaxIdentifierLength {
		return name[:d.MaxIdentifierLength]
	}
	return name
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
