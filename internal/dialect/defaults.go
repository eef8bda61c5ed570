package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reloquent/schemaforge/internal/schema"
)

var nowKeywords = map[string]bool{
	"CURRENT_TIMESTAMP":   true,
	"CURRENT_TIMESTAMP()": true,
	"NOW":                 true,
	"NOW()":               true,
	"GETDATE()":           true,
	"SYSDATE":             true,
	"SYSTIMESTAMP":        true,
	"LOCALTIMESTAMP":      true,
}

// IsNowKeyword reports whether a default names the current timestamp.
func IsNowKeyword(v any) bool {
	s, ok := v.(string)
	return ok && nowKeywords[strings.ToUpper(strings.TrimSpace(s))]
}

// FormatDefault renders a field's default value as a SQL literal. It
// returns false when the field has no default.
func (d *Dialect) FormatDefault(f schema.Field) (string, bool) {
	switch v := f.Default.(type) {
	case nil:
		return "", false
	case bool:
		return d.boolLiteral(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case string:
		return d.formatStringDefault(f.Type, v), true
	default:
		return QuoteString(fmt.Sprint(v)), true
	}
}

func (d *Dialect) formatStringDefault(t schema.FieldType, s string) string {
	trimmed := strings.TrimSpace(s)
	upper := strings.ToUpper(trimmed)

	if nowKeywords[upper] {
		return d.NowExpression
	}
	if upper == "NULL" {
		return "NULL"
	}

	canonical, _ := ParseType(t)
	if canonical == schema.TypeBoolean {
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return d.boolLiteral(true)
		case "false", "0", "no":
			return d.boolLiteral(false)
		}
	}
	if canonical.IsNumeric() {
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return trimmed
		}
	}
	return QuoteString(s)
}

func (d *Dialect) boolLiteral(v bool) string {
	if v {
		return d.TrueLiteral
	}
	return d.FalseLiteral
}

// ReferentialAction normalizes an ON DELETE / ON UPDATE policy such as
// "set_null" and reports whether the dialect accepts it. An empty policy
// yields "" and true.
func (d *Dialect) ReferentialAction(policy string, onUpdate bool) (string, bool) {
	p := strings.ToUpper(strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(policy)))
	p = strings.Join(strings.Fields(p), " ")
	if p == "" {
		return "", true
	}
	allowed := d.DeleteActions
	if onUpdate {
		allowed = d.UpdateActions
	}
	for _, a := range allowed {
		if a == p {
			return p, true
		}
	}
	return p, false
}
