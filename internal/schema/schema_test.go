package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testModel() *Model {
	return &Model{
		Name:    "shop",
		Version: "1.0.0",
		Tables: []Table{
			{
				Name:    "users",
				Comment: "registered users",
				Fields: []Field{
					{Name: "id", Type: TypeInt, PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: TypeVarchar, Length: 255, Unique: true},
					{Name: "active", Type: TypeBoolean, Default: true},
				},
				Options: map[string]string{"engine": "InnoDB"},
			},
			{
				Name: "orders",
				Fields: []Field{
					{Name: "id", Type: TypeInt, PrimaryKey: true},
					{Name: "user_id", Type: TypeInt, References: &Reference{Table: "users", Field: "id"}},
					{Name: "status", Type: TypeEnum, EnumValues: []string{"new", "paid"}},
				},
				Indexes: []Index{{Name: "idx_orders_status", Fields: []string{"status"}}},
			},
		},
		Relationships: []Relationship{
			{FromTable: "orders", FromField: "user_id", ToTable: "users", ToField: "id", OnDelete: "CASCADE"},
		},
	}
}

func TestWriteAndLoadYAML(t *testing.T) {
	m := testModel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "model.yaml")

	if err := m.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("model file not created: %v", err)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}

	if loaded.Name != "shop" || loaded.Version != "1.0.0" {
		t.Errorf("name/version = %q/%q", loaded.Name, loaded.Version)
	}
	if len(loaded.Tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(loaded.Tables))
	}

	users := loaded.Table("users")
	if users == nil {
		t.Fatal("users table missing after round trip")
	}
	if !users.Fields[0].PrimaryKey || !users.Fields[0].AutoIncrement {
		t.Error("expected users.id to stay an autoincrement primary key")
	}
	if users.Field("active").Default != true {
		t.Errorf("expected boolean default to survive, got %#v", users.Field("active").Default)
	}
	if users.Options["engine"] != "InnoDB" {
		t.Errorf("expected engine option, got %v", users.Options)
	}

	orders := loaded.Table("orders")
	ref := orders.Field("user_id").References
	if ref == nil || ref.Table != "users" || ref.ReferencedField() != "id" {
		t.Errorf("unexpected reference: %+v", ref)
	}
	if len(loaded.Relationships) != 1 || loaded.Relationships[0].OnDelete != "CASCADE" {
		t.Errorf("unexpected relationships: %+v", loaded.Relationships)
	}
}

func TestParseYAML_Defaults(t *testing.T) {
	data := []byte(`
name: blog
tables:
  - name: posts
    fields:
      - name: id
        type: int
        primary_key: true
      - name: views
        type: INT
        default: 0
      - name: title
        type: VARCHAR
        length: 120
        default: "untitled"
`)
	m, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	posts := m.Table("posts")
	if posts.Fields[0].Type.Normalize() != TypeInt {
		t.Errorf("expected lower-case tag to normalize to INT, got %s", posts.Fields[0].Type)
	}
	if posts.Field("views").Default != 0 {
		t.Errorf("expected integer default 0, got %#v", posts.Field("views").Default)
	}
	if posts.Field("title").DefaultString() != "untitled" {
		t.Errorf("expected string default, got %q", posts.Field("title").DefaultString())
	}
}

func TestLoadYAML_MissingFile(t *testing.T) {
	_, err := LoadYAML("/nonexistent/path/model.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		model   *Model
		wantErr string
	}{
		{name: "valid", model: testModel()},
		{name: "nil model", model: nil, wantErr: "model is nil"},
		{
			name:    "table without name",
			model:   &Model{Tables: []Table{{Fields: []Field{}}}},
			wantErr: "table has no name",
		},
		{
			name:    "table without field list",
			model:   &Model{Tables: []Table{{Name: "t"}}},
			wantErr: `table "t" has no field list`,
		},
		{
			name:    "field without name",
			model:   &Model{Tables: []Table{{Name: "t", Fields: []Field{{Type: TypeInt}}}}},
			wantErr: "has no name",
		},
		{
			name: "empty index",
			model: &Model{Tables: []Table{{
				Name:    "t",
				Fields:  []Field{{Name: "a", Type: TypeInt}},
				Indexes: []Index{{Name: "idx"}},
			}}},
			wantErr: "lists no fields",
		},
		{
			name:    "relationship without tables",
			model:   &Model{Tables: []Table{}, Relationships: []Relationship{{FromField: "x"}}},
			wantErr: "must name both tables",
		},
		{
			name:  "empty field list is allowed",
			model: &Model{Tables: []Table{{Name: "t", Fields: []Field{}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Check()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StructuralError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	m := testModel()
	c := m.Clone()

	c.Tables[0].Name = "people"
	c.Tables[0].Fields[1].Length = 10
	c.Tables[0].Options["engine"] = "MyISAM"
	c.Tables[1].Fields[1].References.Table = "people"
	c.Tables[1].Fields[2].EnumValues[0] = "draft"
	c.Tables[1].Indexes[0].Fields[0] = "user_id"
	c.Relationships[0].ToTable = "people"

	if m.Tables[0].Name != "users" {
		t.Error("table name leaked into original")
	}
	if m.Tables[0].Fields[1].Length != 255 {
		t.Error("field length leaked into original")
	}
	if m.Tables[0].Options["engine"] != "InnoDB" {
		t.Error("options map shared with clone")
	}
	if m.Tables[1].Fields[1].References.Table != "users" {
		t.Error("reference shared with clone")
	}
	if m.Tables[1].Fields[2].EnumValues[0] != "new" {
		t.Error("enum values shared with clone")
	}
	if m.Tables[1].Indexes[0].Fields[0] != "status" {
		t.Error("index fields shared with clone")
	}
	if m.Relationships[0].ToTable != "users" {
		t.Error("relationships shared with clone")
	}
}

func TestLookups(t *testing.T) {
	m := testModel()

	if m.Table("missing") != nil {
		t.Error("expected nil for unknown table")
	}
	if got := m.TableNames(); strings.Join(got, ",") != "users,orders" {
		t.Errorf("TableNames = %v", got)
	}
	if r := m.RelationshipFor("orders", "user_id"); r == nil || r.OnDelete != "CASCADE" {
		t.Errorf("RelationshipFor = %+v", r)
	}

	orders := m.Table("orders")
	if pk := orders.PrimaryKeyFields(); len(pk) != 1 || pk[0] != "id" {
		t.Errorf("PrimaryKeyFields = %v", pk)
	}
	if fks := orders.ForeignKeyFields(); len(fks) != 1 || fks[0].Name != "user_id" {
		t.Errorf("ForeignKeyFields = %v", fks)
	}
}

func TestFieldType(t *testing.T) {
	if !FieldType(" varchar ").Known() {
		t.Error("expected padded lower-case varchar to be known")
	}
	if FieldType("STRING").Known() {
		t.Error("STRING is an alias, not a canonical tag")
	}
	if !TypeBigInt.IsInteger() || TypeDecimal.IsInteger() {
		t.Error("IsInteger misclassified")
	}
	if !TypeDecimal.IsNumeric() || TypeVarchar.IsNumeric() {
		t.Error("IsNumeric misclassified")
	}
}

func TestSummary(t *testing.T) {
	s := testModel().Summary()
	want := "Model shop (version 1.0.0): 2 tables, 6 fields, 1 references, 1 indexes, 1 relationships"
	if s != want {
		t.Errorf("Summary = %q, want %q", s, want)
	}
}
