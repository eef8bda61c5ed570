package schema

import (
	"fmt"
	"strings"
)

// FieldType is a dialect-neutral column type tag.
type FieldType string

const (
	TypeInt       FieldType = "INT"
	TypeBigInt    FieldType = "BIGINT"
	TypeSmallInt  FieldType = "SMALLINT"
	TypeTinyInt   FieldType = "TINYINT"
	TypeDecimal   FieldType = "DECIMAL"
	TypeFloat     FieldType = "FLOAT"
	TypeDouble    FieldType = "DOUBLE"
	TypeChar      FieldType = "CHAR"
	TypeVarchar   FieldType = "VARCHAR"
	TypeText      FieldType = "TEXT"
	TypeLongText  FieldType = "LONGTEXT"
	TypeBoolean   FieldType = "BOOLEAN"
	TypeDate      FieldType = "DATE"
	TypeTime      FieldType = "TIME"
	TypeDateTime  FieldType = "DATETIME"
	TypeTimestamp FieldType = "TIMESTAMP"
	TypeJSON      FieldType = "JSON"
	TypeUUID      FieldType = "UUID"
	TypeBlob      FieldType = "BLOB"
	TypeEnum      FieldType = "ENUM"
	TypeArray     FieldType = "ARRAY"
)

// AllTypes lists every abstract type tag in a stable order.
var AllTypes = []FieldType{
	TypeInt, TypeBigInt, TypeSmallInt, TypeTinyInt,
	TypeDecimal, TypeFloat, TypeDouble,
	TypeChar, TypeVarchar, TypeText, TypeLongText,
	TypeBoolean,
	TypeDate, TypeTime, TypeDateTime, TypeTimestamp,
	TypeJSON, TypeUUID, TypeBlob, TypeEnum, TypeArray,
}

// Normalize upper-cases and trims a type tag.
func (t FieldType) Normalize() FieldType {
	return FieldType(strings.ToUpper(strings.TrimSpace(string(t))))
}

// IsInteger reports whether the tag is one of the integer types.
func (t FieldType) IsInteger() bool {
	switch t.Normalize() {
	case TypeInt, TypeBigInt, TypeSmallInt, TypeTinyInt:
		return true
	}
	return false
}

// IsNumeric reports whether defaults of this type are numeric literals.
func (t FieldType) IsNumeric() bool {
	switch t.Normalize() {
	case TypeDecimal, TypeFloat, TypeDouble:
		return true
	}
	return t.IsInteger()
}

// Known reports whether the tag is a canonical abstract type.
func (t FieldType) Known() bool {
	n := t.Normalize()
	for _, k := range AllTypes {
		if k == n {
			return true
		}
	}
	return false
}

// IndexKind distinguishes plain, unique and fulltext indexes.
type IndexKind string

const (
	IndexPlain    IndexKind = "plain"
	IndexUnique   IndexKind = "unique"
	IndexFulltext IndexKind = "fulltext"
)

// Model is the dialect-neutral description of one schema version.
type Model struct {
	Name          string         `yaml:"name"`
	Version       string         `yaml:"version,omitempty"`
	Tables        []Table        `yaml:"tables"`
	Relationships []Relationship `yaml:"relationships,omitempty"`
}

// Table represents a table in the model.
type Table struct {
	Name        string            `yaml:"name"`
	DisplayName string            `yaml:"display_name,omitempty"`
	Comment     string            `yaml:"comment,omitempty"`
	Fields      []Field           `yaml:"fields"`
	Indexes     []Index           `yaml:"indexes,omitempty"`
	Options     map[string]string `yaml:"options,omitempty"` // engine, charset, collate, tablespace
}

// Field represents a column.
type Field struct {
	Name          string     `yaml:"name"`
	Type          FieldType  `yaml:"type"`
	Length        int        `yaml:"length,omitempty"`
	Precision     int        `yaml:"precision,omitempty"`
	Scale         int        `yaml:"scale,omitempty"`
	Nullable      bool       `yaml:"nullable,omitempty"`
	Default       any        `yaml:"default,omitempty"`
	PrimaryKey    bool       `yaml:"primary_key,omitempty"`
	AutoIncrement bool       `yaml:"auto_increment,omitempty"`
	Unique        bool       `yaml:"unique,omitempty"`
	Indexed       bool       `yaml:"indexed,omitempty"`
	EnumValues    []string   `yaml:"enum_values,omitempty"`
	References    *Reference `yaml:"references,omitempty"`
	Comment       string     `yaml:"comment,omitempty"`
}

// Reference points a field at a column of another table.
type Reference struct {
	Table string `yaml:"table"`
	Field string `yaml:"field,omitempty"` // defaults to "id"
}

// Index represents an explicit index declaration.
type Index struct {
	Name   string    `yaml:"name,omitempty"`
	Kind   IndexKind `yaml:"kind,omitempty"`
	Fields []string  `yaml:"fields"`
	Unique bool      `yaml:"unique,omitempty"`
}

// IsUnique reports whether the index enforces uniqueness.
func (i Index) IsUnique() bool {
	return i.Unique || i.Kind == IndexUnique
}

// Relationship describes a foreign-key relationship between two tables.
type Relationship struct {
	FromTable string `yaml:"from_table"`
	FromField string `yaml:"from_field"`
	ToTable   string `yaml:"to_table"`
	ToField   string `yaml:"to_field"`
	OnUpdate  string `yaml:"on_update,omitempty"`
	OnDelete  string `yaml:"on_delete,omitempty"`
}

// ReferencedField returns the referenced column, defaulting to "id".
func (r *Reference) ReferencedField() string {
	if r == nil || r.Field == "" {
		return "id"
	}
	return r.Field
}

// HasDefault reports whether the field carries a default value.
func (f Field) HasDefault() bool {
	return f.Default != nil
}

// DefaultString renders the default for comparison and display.
func (f Field) DefaultString() string {
	if f.Default == nil {
		return ""
	}
	return fmt.Sprint(f.Default)
}

// Table returns the table with the given name, or nil.
func (m *Model) Table(name string) *Table {
	for i := range m.Tables {
		if m.Tables[i].Name == name {
			return &m.Tables[i]
		}
	}
	return nil
}

// TableNames returns the table names in model order.
func (m *Model) TableNames() []string {
	names := make([]string, len(m.Tables))
	for i, t := range m.Tables {
		names[i] = t.Name
	}
	return names
}

// RelationshipFor returns the relationship declared for a foreign-key field.
func (m *Model) RelationshipFor(table, field string) *Relationship {
	for i := range m.Relationships {
		r := &m.Relationships[i]
		if r.FromTable == table && r.FromField == field {
			return r
		}
	}
	return nil
}

// Field returns the field with the given name, or nil.
func (t *Table) Field(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// PrimaryKeyFields returns the names of the primary-key fields in order.
func (t *Table) PrimaryKeyFields() []string {
	var pk []string
	for _, f := range t.Fields {
		if f.PrimaryKey {
			pk = append(pk, f.Name)
		}
	}
	return pk
}

// ForeignKeyFields returns the fields that reference another table.
func (t *Table) ForeignKeyFields() []Field {
	var fks []Field
	for _, f := range t.Fields {
		if f.References != nil && f.References.Table != "" {
			fks = append(fks, f)
		}
	}
	return fks
}

// StructuralError reports malformed input that indicates a caller bug.
type StructuralError struct {
	Path    string
	Message string
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return "malformed schema model: " + e.Message
	}
	return fmt.Sprintf("malformed schema model at %s: %s", e.Path, e.Message)
}

// Check verifies the structural contract of the model. Data-quality
// problems such as duplicate names or dangling references are left to the
// validator.
func (m *Model) Check() error {
	if m == nil {
		return &StructuralError{Message: "model is nil"}
	}
	for i, t := range m.Tables {
		path := fmt.Sprintf("tables[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			return &StructuralError{Path: path, Message: "table has no name"}
		}
		if t.Fields == nil {
			return &StructuralError{Path: path, Message: fmt.Sprintf("table %q has no field list", t.Name)}
		}
		for j, f := range t.Fields {
			if strings.TrimSpace(f.Name) == "" {
				return &StructuralError{
					Path:    fmt.Sprintf("%s.fields[%d]", path, j),
					Message: fmt.Sprintf("field in table %q has no name", t.Name),
				}
			}
		}
		for j, idx := range t.Indexes {
			if len(idx.Fields) == 0 {
				return &StructuralError{
					Path:    fmt.Sprintf("%s.indexes[%d]", path, j),
					Message: fmt.Sprintf("index on table %q lists no fields", t.Name),
				}
			}
		}
	}
	for i, r := range m.Relationships {
		if r.FromTable == "" || r.ToTable == "" {
			return &StructuralError{
				Path:    fmt.Sprintf("relationships[%d]", i),
				Message: "relationship must name both tables",
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	c := &Model{
		Name:    m.Name,
		Version: m.Version,
	}
	if m.Tables != nil {
		c.Tables = make([]Table, len(m.Tables))
		for i, t := range m.Tables {
			c.Tables[i] = t.Clone()
		}
	}
	if m.Relationships != nil {
		c.Relationships = append([]Relationship(nil), m.Relationships...)
	}
	return c
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	c := t
	if t.Fields != nil {
		c.Fields = make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			c.Fields[i] = f.Clone()
		}
	}
	if t.Indexes != nil {
		c.Indexes = make([]Index, len(t.Indexes))
		for i, idx := range t.Indexes {
			idx.Fields = append([]string(nil), idx.Fields...)
			c.Indexes[i] = idx
		}
	}
	if t.Options != nil {
		c.Options = make(map[string]string, len(t.Options))
		for k, v := range t.Options {
			c.Options[k] = v
		}
	}
	return c
}

// Clone returns a deep copy of the field. Defaults are scalars and are
// shared as values.
func (f Field) Clone() Field {
	c := f
	if f.EnumValues != nil {
		c.EnumValues = append([]string(nil), f.EnumValues...)
	}
	if f.References != nil {
		ref := *f.References
		c.References = &ref
	}
	return c
}
