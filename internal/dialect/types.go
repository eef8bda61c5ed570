package dialect

import (
	"fmt"
	"strings"

	"github.com/reloquent/schemaforge/internal/schema"
)

// ParamKind says which size parameters a native type takes.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamLength
	ParamPrecision
)

// TypeSpec is the native rendering of one abstract type.
type TypeSpec struct {
	Native           string
	Params           ParamKind
	DefaultLength    int
	DefaultPrecision int
	DefaultScale     int
	// EnumCheck marks an ENUM that is stored as text and guarded by a CHECK
	// constraint.
	EnumCheck bool
	// NativeEnum marks an ENUM rendered with its value list inline.
	NativeEnum bool
}

// Mapping is the result of resolving an abstract type for a dialect.
type Mapping struct {
	Requested schema.FieldType
	Type      schema.FieldType // effective abstract type after degradation
	Spec      TypeSpec
	Length    int // forced length, e.g. CHAR(36) for a degraded UUID
	Degraded  bool
	Unknown   bool
}

// fallbacks lists the next-closest abstract type for each tag a dialect may
// lack. Chains end at TEXT, which every dialect maps.
var fallbacks = map[schema.FieldType]schema.FieldType{
	schema.TypeTinyInt:   schema.TypeSmallInt,
	schema.TypeSmallInt:  schema.TypeInt,
	schema.TypeBigInt:    schema.TypeInt,
	schema.TypeDouble:    schema.TypeFloat,
	schema.TypeFloat:     schema.TypeDecimal,
	schema.TypeLongText:  schema.TypeText,
	schema.TypeJSON:      schema.TypeLongText,
	schema.TypeArray:     schema.TypeJSON,
	schema.TypeUUID:      schema.TypeChar,
	schema.TypeBoolean:   schema.TypeTinyInt,
	schema.TypeDateTime:  schema.TypeTimestamp,
	schema.TypeTimestamp: schema.TypeDateTime,
	schema.TypeTime:      schema.TypeVarchar,
	schema.TypeEnum:      schema.TypeVarchar,
	schema.TypeChar:      schema.TypeVarchar,
	schema.TypeVarchar:   schema.TypeText,
	schema.TypeBlob:      schema.TypeText,
}

// forcedLength pins the length of a degraded type.
var forcedLength = map[schema.FieldType]int{
	schema.TypeUUID: 36,
	schema.TypeTime: 16,
}

// aliases maps common vendor spellings onto abstract tags.
var aliases = map[string]schema.FieldType{
	"INTEGER":                     schema.TypeInt,
	"INT4":                        schema.TypeInt,
	"MEDIUMINT":                   schema.TypeInt,
	"SERIAL":                      schema.TypeInt,
	"INT8":                        schema.TypeBigInt,
	"BIGSERIAL":                   schema.TypeBigInt,
	"INT2":                        schema.TypeSmallInt,
	"SMALLSERIAL":                 schema.TypeSmallInt,
	"STRING":                      schema.TypeVarchar,
	"CHARACTER VARYING":           schema.TypeVarchar,
	"NVARCHAR":                    schema.TypeVarchar,
	"VARCHAR2":                    schema.TypeVarchar,
	"NVARCHAR2":                   schema.TypeVarchar,
	"CHARACTER":                   schema.TypeChar,
	"NCHAR":                       schema.TypeChar,
	"BPCHAR":                      schema.TypeChar,
	"BOOL":                        schema.TypeBoolean,
	"BIT":                         schema.TypeBoolean,
	"NUMERIC":                     schema.TypeDecimal,
	"NUMBER":                      schema.TypeDecimal,
	"MONEY":                       schema.TypeDecimal,
	"REAL":                        schema.TypeFloat,
	"FLOAT4":                      schema.TypeFloat,
	"BINARY_FLOAT":                schema.TypeFloat,
	"FLOAT8":                      schema.TypeDouble,
	"DOUBLE PRECISION":            schema.TypeDouble,
	"BINARY_DOUBLE":               schema.TypeDouble,
	"TINYTEXT":                    schema.TypeText,
	"MEDIUMTEXT":                  schema.TypeLongText,
	"CLOB":                        schema.TypeLongText,
	"NCLOB":                       schema.TypeLongText,
	"JSONB":                       schema.TypeJSON,
	"UNIQUEIDENTIFIER":            schema.TypeUUID,
	"GUID":                        schema.TypeUUID,
	"BYTEA":                       schema.TypeBlob,
	"BINARY":                      schema.TypeBlob,
	"VARBINARY":                   schema.TypeBlob,
	"LONGBLOB":                    schema.TypeBlob,
	"RAW":                         schema.TypeBlob,
	"TIMESTAMPTZ":                 schema.TypeTimestamp,
	"TIMESTAMP WITH TIME ZONE":    schema.TypeTimestamp,
	"TIMESTAMP WITHOUT TIME ZONE": schema.TypeTimestamp,
	"DATETIME2":                   schema.TypeDateTime,
	"SMALLDATETIME":               schema.TypeDateTime,
	"TIME WITHOUT TIME ZONE":      schema.TypeTime,
	"TIME WITH TIME ZONE":         schema.TypeTime,
}

// ParseType canonicalizes a type tag. It reports false when the tag is
// neither a canonical tag nor a known alias.
func ParseType(tag schema.FieldType) (schema.FieldType, bool) {
	n := tag.Normalize()
	if n.Known() {
		return n, true
	}
	if t, ok := aliases[string(n)]; ok {
		return t, true
	}
	return n, false
}

// Supports reports whether the dialect maps the canonical type without
// degradation.
func (d *Dialect) Supports(t schema.FieldType) bool {
	_, ok := d.types[t.Normalize()]
	return ok
}

// ValidTypes returns the canonical types the dialect maps natively.
func (d *Dialect) ValidTypes() []schema.FieldType {
	var out []schema.FieldType
	for _, t := range schema.AllTypes {
		if _, ok := d.types[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// MapType resolves an abstract type to the dialect's native type. Types the
// dialect lacks degrade along the fallback chain; unknown tags degrade to
// TEXT. Neither case fails.
func (d *Dialect) MapType(t schema.FieldType) Mapping {
	requested := t.Normalize()
	canonical, known := ParseType(requested)

	m := Mapping{Requested: requested, Type: canonical, Unknown: !known}
	if !known {
		canonical = schema.TypeText
		m.Degraded = true
	}

	cur := canonical
	for i := 0; i <= len(fallbacks); i++ {
		if spec, ok := d.types[cur]; ok {
			m.Type = cur
			m.Spec = spec
			if cur != canonical {
				m.Degraded = true
				if l, ok := forcedLength[canonical]; ok {
					m.Length = l
				}
			}
			return m
		}
		next, ok := fallbacks[cur]
		if !ok {
			break
		}
		cur = next
	}

	m.Type = schema.TypeText
	m.Spec = d.types[schema.TypeText]
	m.Degraded = true
	return m
}

// DegradedType returns the canonical type a field should be rewritten to
// for this dialect.
func (d *Dialect) DegradedType(t schema.FieldType) schema.FieldType {
	return d.MapType(t).Type
}

// ColumnType renders the full native type of a field, including size
// parameters and inline enum values.
func (d *Dialect) ColumnType(table string, f schema.Field) (string, []Warning) {
	var warnings []Warning
	m := d.MapType(f.Type)

	switch {
	case m.Unknown:
		warnings = append(warnings, Warning{Table: table, Field: f.Name,
			Message: fmt.Sprintf("unknown type %q rendered as %s", f.Type, m.Spec.Native)})
	case m.Degraded:
		warnings = append(warnings, Warning{Table: table, Field: f.Name,
			Message: fmt.Sprintf("%s has no %s type, using %s", d.DisplayName, m.Requested, m.Spec.Native)})
	}

	spec := m.Spec
	if spec.NativeEnum {
		if len(f.EnumValues) == 0 {
			warnings = append(warnings, Warning{Table: table, Field: f.Name,
				Message: "enumeration has no values, rendered as VARCHAR(255)"})
			return d.renderVarchar(255), warnings
		}
		quoted := make([]string, len(f.EnumValues))
		for i, v := range f.EnumValues {
			quoted[i] = QuoteString(v)
		}
		return spec.Native + "(" + strings.Join(quoted, ",") + ")", warnings
	}
	if spec.EnumCheck {
		if len(f.EnumValues) == 0 {
			warnings = append(warnings, Warning{Table: table, Field: f.Name,
				Message: "enumeration has no values, rendered as VARCHAR(255)"})
		}
		return d.renderVarchar(enumLength(f)), warnings
	}

	length := f.Length
	if m.Length > 0 {
		length = m.Length
	}
	return renderSpec(spec, length, f.Precision, f.Scale), warnings
}

func (d *Dialect) renderVarchar(length int) string {
	return renderSpec(d.types[schema.TypeVarchar], length, 0, 0)
}

func renderSpec(spec TypeSpec, length, precision, scale int) string {
	switch spec.Params {
	case ParamLength:
		if length <= 0 {
			length = spec.DefaultLength
		}
		if length <= 0 {
			return spec.Native
		}
		return fmt.Sprintf("%s(%d)", spec.Native, length)
	case ParamPrecision:
		if precision <= 0 {
			precision = spec.DefaultPrecision
			if scale <= 0 {
				scale = spec.DefaultScale
			}
		}
		if precision <= 0 {
			return spec.Native
		}
		return fmt.Sprintf("%s(%d,%d)", spec.Native, precision, scale)
	default:
		return spec.Native
	}
}

// enumLength sizes the text column that stores an emulated enumeration.
func enumLength(f schema.Field) int {
	if f.Length > 0 {
		return f.Length
	}
	n := 0
	for _, v := range f.EnumValues {
		if len(v) > n {
			n = len(v)
		}
	}
	if n == 0 {
		return 255
	}
	return n
}
