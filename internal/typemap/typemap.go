// Package typemap converts native column types reported by a source
// database into abstract schema types.
package typemap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reloquent/schemaforge/internal/schema"
)

// Column is the native description of a discovered column.
type Column struct {
	DataType  string
	Length    int
	Precision int
	Scale     int
}

// TypeMap holds the mapping from native source types to abstract types.
type TypeMap struct {
	Mappings  map[string]schema.FieldType `yaml:"mappings"`
	Overrides map[string]schema.FieldType `yaml:"overrides,omitempty"`
	defaults  map[string]schema.FieldType // not serialized; populated by ForDatabase
	oracle    bool
}

// DefaultPostgres returns the default type mapping for PostgreSQL, keyed by
// information_schema data_type.
func DefaultPostgres() *TypeMap {
	m := map[string]schema.FieldType{
		"integer":                     schema.TypeInt,
		"bigint":                      schema.TypeBigInt,
		"smallint":                    schema.TypeSmallInt,
		"numeric":                     schema.TypeDecimal,
		"real":                        schema.TypeFloat,
		"double precision":            schema.TypeDouble,
		"character varying":           schema.TypeVarchar,
		"character":                   schema.TypeChar,
		"text":                        schema.TypeText,
		"boolean":                     schema.TypeBoolean,
		"date":                        schema.TypeDate,
		"time without time zone":      schema.TypeTime,
		"time with time zone":         schema.TypeTime,
		"timestamp without time zone": schema.TypeTimestamp,
		"timestamp with time zone":    schema.TypeTimestamp,
		"bytea":                       schema.TypeBlob,
		"uuid":                        schema.TypeUUID,
		"json":                        schema.TypeJSON,
		"jsonb":                       schema.TypeJSON,
		"ARRAY":                       schema.TypeArray,
		"USER-DEFINED":                schema.TypeText,
	}
	return &TypeMap{Mappings: m}
}

// DefaultOracle returns the default type mapping for Oracle, keyed by
// ALL_TAB_COLUMNS.DATA_TYPE. NUMBER is refined by precision and scale.
func DefaultOracle() *TypeMap {
	m := map[string]schema.FieldType{
		"NUMBER":        schema.TypeDecimal,
		"FLOAT":         schema.TypeDouble,
		"BINARY_FLOAT":  schema.TypeFloat,
		"BINARY_DOUBLE": schema.TypeDouble,
		"VARCHAR2":      schema.TypeVarchar,
		"NVARCHAR2":     schema.TypeVarchar,
		"CHAR":          schema.TypeChar,
		"NCHAR":         schema.TypeChar,
		"CLOB":          schema.TypeLongText,
		"NCLOB":         schema.TypeLongText,
		"DATE":          schema.TypeDateTime,
		"TIMESTAMP":     schema.TypeTimestamp,
		"BLOB":          schema.TypeBlob,
		"RAW":           schema.TypeBlob,
		"JSON":          schema.TypeJSON,
	}
	return &TypeMap{Mappings: m, oracle: true}
}

// ForDatabase returns a TypeMap with defaults for the given database type.
func ForDatabase(dbType string) *TypeMap {
	var tm *TypeMap
	switch dbType {
	case "oracle":
		tm = DefaultOracle()
	default:
		tm = DefaultPostgres()
	}
	tm.defaults = make(map[string]schema.FieldType, len(tm.Mappings))
	for k, v := range tm.Mappings {
		tm.defaults[k] = v
	}
	if tm.Overrides == nil {
		tm.Overrides = make(map[string]schema.FieldType)
	}
	return tm
}

// Resolve returns the abstract type for a native type name. Oracle
// TIMESTAMP variants such as "TIMESTAMP(6) WITH TIME ZONE" resolve through
// their base name. Unknown types fall back to TEXT.
func (tm *TypeMap) Resolve(sourceType string) schema.FieldType {
	if t, ok := tm.lookup(sourceType); ok {
		return t
	}
	return schema.TypeText
}

func (tm *TypeMap) lookup(sourceType string) (schema.FieldType, bool) {
	if t, ok := tm.Mappings[sourceType]; ok {
		return t, true
	}
	base := sourceType
	if i := strings.IndexAny(base, "( "); i > 0 {
		base = base[:i]
	}
	t, ok := tm.Mappings[base]
	return t, ok
}

// Field converts a native column into an abstract field type with its size
// parameters. Explicit overrides win over the precision refinement of
// Oracle NUMBER.
func (tm *TypeMap) Field(c Column) schema.Field {
	f := schema.Field{Type: tm.Resolve(c.DataType)}
	if tm.oracle && strings.EqualFold(c.DataType, "NUMBER") && !tm.IsOverridden("NUMBER") {
		f.Type = oracleNumber(c.Precision, c.Scale)
	}
	switch f.Type {
	case schema.TypeVarchar, schema.TypeChar:
		f.Length = c.Length
	case schema.TypeDecimal:
		f.Precision = c.Precision
		f.Scale = c.Scale
	}
	return f
}

// oracleNumber picks the narrowest abstract type for NUMBER(p,s).
func oracleNumber(precision, scale int) schema.FieldType {
	switch {
	case scale > 0 || precision == 0:
		return schema.TypeDecimal
	case precision == 1:
		return schema.TypeBoolean
	case precision <= 4:
		return schema.TypeSmallInt
	case precision <= 9:
		return schema.TypeInt
	case precision <= 18:
		return schema.TypeBigInt
	default:
		return schema.TypeDecimal
	}
}

// Override applies a user override for a source type.
func (tm *TypeMap) Override(sourceType string, t schema.FieldType) {
	tm.Mappings[sourceType] = t
	if tm.Overrides == nil {
		tm.Overrides = make(map[string]schema.FieldType)
	}
	if tm.defaults != nil {
		if def, ok := tm.defaults[sourceType]; ok && def == t {
			delete(tm.Overrides, sourceType)
			return
		}
	}
	tm.Overrides[sourceType] = t
}

// RestoreDefault restores the default mapping for a source type.
func (tm *TypeMap) RestoreDefault(sourceType string) {
	if tm.defaults != nil {
		if def, ok := tm.defaults[sourceType]; ok {
			tm.Mappings[sourceType] = def
			delete(tm.Overrides, sourceType)
		}
	}
}

// IsOverridden returns true if the source type has been overridden from its default.
func (tm *TypeMap) IsOverridden(sourceType string) bool {
	_, ok := tm.Overrides[sourceType]
	return ok
}

// SortedTypes returns the source type names sorted alphabetically.
func (tm *TypeMap) SortedTypes() []string {
	types := make([]string, 0, len(tm.Mappings))
	for k := range tm.Mappings {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// WriteYAML writes the type mapping to a YAML file.
func (tm *TypeMap) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(tm)
	if err != nil {
		return fmt.Errorf("marshaling type map: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// ApplyFile loads overrides from a YAML file written by WriteYAML or
// edited by hand. Only the overrides section is applied, and each entry
// must name a canonical abstract type.
func (tm *TypeMap) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading type map file: %w", err)
	}
	var file TypeMap
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing type map: %w", err)
	}
	for _, src := range sortedKeys(file.Overrides) {
		t := file.Overrides[src].Normalize()
		if !t.Known() {
			return fmt.Errorf("type map override %s: unknown type %q", src, string(file.Overrides[src]))
		}
		tm.Override(src, t)
	}
	return nil
}

func sortedKeys(m map[string]schema.FieldType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
