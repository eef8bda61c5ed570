package validation

import (
	"regexp"
	"unicode"

	"github.com/go-openapi/inflect"

	"github.com/reloquent/schemaforge/internal/dialect"
)

var snakeCase = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// IsSnakeCase reports whether name is lower_snake_case starting with a
// letter.
func IsSnakeCase(name string) bool {
	return snakeCase.MatchString(name)
}

// SnakeCase converts names such as "UserID", "createdAt" or "Order Items"
// to lower snake case. Characters other than letters, digits and
// separators are left for SanitizeIdentifier to clean up.
func SnakeCase(name string) string {
	return inflect.Underscore(collapseAcronyms(name))
}

// SuggestName returns the conforming identifier the corrector would use
// for name in the given dialect.
func SuggestName(d *dialect.Dialect, name string, kind dialect.IdentifierKind) string {
	return d.SanitizeIdentifier(SnakeCase(name), kind)
}

// collapseAcronyms lower-cases the tail of each run of capitals so that
// "HTMLParser" splits as Html+Parser and "UserID" as User+Id.
func collapseAcronyms(s string) string {
	rs := []rune(s)
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = r
		if i == 0 || !unicode.IsUpper(r) || !unicode.IsUpper(rs[i-1]) {
			continue
		}
		if i+1 < len(rs) && unicode.IsLower(rs[i+1]) {
			continue
		}
		out[i] = unicode.ToLower(r)
	}
	return string(out)
}
