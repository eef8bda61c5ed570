package selection

import (
	"reflect"
	"testing"

	"github.com/reloquent/schemaforge/internal/schema"
)

func ref(table string) *schema.Reference {
	return &schema.Reference{Table: table, Field: "id"}
}

func testModel() *schema.Model {
	id := schema.Field{Name: "id", Type: schema.TypeInt, PrimaryKey: true}
	return &schema.Model{
		Name: "shop",
		Tables: []schema.Table{
			{Name: "customers", Fields: []schema.Field{id}},
			{Name: "orders", Fields: []schema.Field{id, {Name: "customer_id", Type: schema.TypeInt, References: ref("customers")}}},
			{Name: "order_items", Fields: []schema.Field{
				id,
				{Name: "order_id", Type: schema.TypeInt, References: ref("orders")},
				{Name: "product_id", Type: schema.TypeInt, References: ref("products")},
			}},
			{Name: "products", Fields: []schema.Field{id}},
			{Name: "audit_log", Fields: []schema.Field{id}},
		},
		Relationships: []schema.Relationship{
			{FromTable: "orders", FromField: "customer_id", ToTable: "customers", ToField: "id"},
			{FromTable: "order_items", FromField: "order_id", ToTable: "orders", ToField: "id", OnDelete: "CASCADE"},
		},
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     bool
	}{
		{"orders", []string{"*"}, true},
		{"order_items", []string{"order_*"}, true},
		{"orders", []string{"order_*"}, false},
		{"audit_log", []string{"*_log"}, true},
		{"products", []string{"customers", "products"}, true},
		{"products", []string{"[bad"}, false},
		{"[bad", []string{"[bad"}, true},
	}
	for _, tt := range tests {
		if got := Match(tt.name, tt.patterns); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.name, tt.patterns, got, tt.want)
		}
	}
}

func TestParsePatterns(t *testing.T) {
	got := ParsePatterns(" orders, order_* ,,")
	if !reflect.DeepEqual(got, []string{"orders", "order_*"}) {
		t.Errorf("unexpected patterns: %v", got)
	}
}

func TestSelectWithDeps(t *testing.T) {
	m := testModel()
	out, orphans := Select(m, []string{"order_items"}, true)

	want := []string{"customers", "orders", "order_items", "products"}
	if got := out.TableNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(orphans) != 0 {
		t.Errorf("expected no orphans, got %+v", orphans)
	}
	if len(out.Relationships) != 2 {
		t.Errorf("expected both relationships kept, got %+v", out.Relationships)
	}
}

func TestSelectWithoutDeps(t *testing.T) {
	m := testModel()
	out, orphans := Select(m, []string{"order*"}, false)

	if got := out.TableNames(); !reflect.DeepEqual(got, []string{"orders", "order_items"}) {
		t.Errorf("unexpected tables: %v", got)
	}
	want := []OrphanedRef{
		{Table: "orders", Field: "customer_id", ReferencedTable: "customers"},
		{Table: "order_items", Field: "product_id", ReferencedTable: "products"},
	}
	if !reflect.DeepEqual(orphans, want) {
		t.Errorf("orphans = %+v, want %+v", orphans, want)
	}
	if out.Table("orders").Field("customer_id").References != nil {
		t.Error("expected the reference to customers removed")
	}
	if out.Table("order_items").Field("order_id").References == nil {
		t.Error("expected the reference to orders kept")
	}
	if len(out.Relationships) != 1 || out.Relationships[0].FromTable != "order_items" {
		t.Errorf("unexpected relationships: %+v", out.Relationships)
	}

	if m.Table("orders").Field("customer_id").References == nil {
		t.Error("input model must not be modified")
	}
	if len(m.Tables) != 5 || len(m.Relationships) != 2 {
		t.Error("input model must not be modified")
	}
}

func TestSelectNothing(t *testing.T) {
	out, _ := Select(testModel(), []string{"missing"}, true)
	if len(out.Tables) != 0 {
		t.Errorf("expected no tables, got %v", out.TableNames())
	}
	if err := out.Check(); err != nil {
		t.Errorf("empty selection should still be a valid model: %v", err)
	}
}
