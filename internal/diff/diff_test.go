package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloquent/schemaforge/internal/schema"
)

func tbl(name string, fields ...string) schema.Table {
	t := schema.Table{Name: name, Fields: []schema.Field{}}
	for _, f := range fields {
		t.Fields = append(t.Fields, schema.Field{Name: f, Type: schema.TypeVarchar, Length: 100})
	}
	return t
}

func model(tables ...schema.Table) *schema.Model {
	return &schema.Model{Name: "m", Tables: tables}
}

func TestCompare_IdenticalIsEmpty(t *testing.T) {
	m := model(tbl("users", "id", "email"), tbl("orders", "id"))
	res := Compare(m, m.Clone())
	assert.True(t, res.IsEmpty())
	assert.Equal(t, "No structural changes.", res.Summary())
}

func TestCompare_ColumnAdded(t *testing.T) {
	res := Compare(model(tbl("t", "a")), model(tbl("t", "a", "b")))
	require.Len(t, res.TablesModified, 1)
	tc := res.TablesModified[0]
	assert.Equal(t, "t", tc.Name)
	require.Len(t, tc.ColumnsAdded, 1)
	assert.Equal(t, "b", tc.ColumnsAdded[0].Name)
	assert.Empty(t, tc.ColumnsRemoved)
	assert.Empty(t, tc.ColumnsModified)
	assert.Empty(t, res.TablesAdded)
	assert.Empty(t, res.TablesRemoved)
}

func TestCompare_TablesAddedAndRemoved(t *testing.T) {
	res := Compare(model(tbl("a", "id"), tbl("b", "id")), model(tbl("a", "id"), tbl("c", "id")))
	added, removed, modified := res.TableNames()
	assert.Equal(t, []string{"c"}, added)
	assert.Equal(t, []string{"b"}, removed)
	assert.Empty(t, modified)
}

func TestCompare_NilModels(t *testing.T) {
	res := Compare(nil, model(tbl("a", "id")))
	require.Len(t, res.TablesAdded, 1)

	res = Compare(model(tbl("a", "id")), nil)
	require.Len(t, res.TablesRemoved, 1)

	assert.True(t, Compare(nil, nil).IsEmpty())
}

func TestCompare_ColumnRemovedAndRenamed(t *testing.T) {
	res := Compare(model(tbl("t", "a", "b")), model(tbl("t", "a", "c")))
	require.Len(t, res.TablesModified, 1)
	tc := res.TablesModified[0]
	assert.Equal(t, "c", tc.ColumnsAdded[0].Name)
	assert.Equal(t, "b", tc.ColumnsRemoved[0].Name)
}

func TestFieldChanges(t *testing.T) {
	base := schema.Field{Name: "f", Type: schema.TypeVarchar, Length: 50}

	tests := []struct {
		name   string
		mutate func(f *schema.Field)
		want   []string
	}{
		{"same", func(f *schema.Field) {}, nil},
		{"type case only", func(f *schema.Field) { f.Type = "varchar" }, nil},
		{"type", func(f *schema.Field) { f.Type = schema.TypeText }, []string{"type VARCHAR -> TEXT"}},
		{"nullable", func(f *schema.Field) { f.Nullable = true }, []string{"nullable false -> true"}},
		{"primary key", func(f *schema.Field) { f.PrimaryKey = true }, []string{"primary key false -> true"}},
		{"autoincrement", func(f *schema.Field) { f.AutoIncrement = true }, []string{"autoincrement false -> true"}},
		{"default added", func(f *schema.Field) { f.Default = "x" }, []string{"default none -> x"}},
		{"length", func(f *schema.Field) { f.Length = 80 }, []string{"length 50 -> 80"}},
		{"precision and scale", func(f *schema.Field) { f.Precision = 10; f.Scale = 2 },
			[]string{"precision 0 -> 10", "scale 0 -> 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := base
			tt.mutate(&after)
			assert.Equal(t, tt.want, FieldChanges(base, after))
		})
	}
}

func TestCompare_IgnoresUntrackedAttributes(t *testing.T) {
	before := model(tbl("t", "a"))
	after := before.Clone()
	after.Tables[0].Fields[0].Comment = "now documented"
	after.Tables[0].Comment = "table comment"
	assert.True(t, Compare(before, after).IsEmpty())
}

func TestCompare_Indexes(t *testing.T) {
	before := model(tbl("t", "a", "b"))
	before.Tables[0].Indexes = []schema.Index{{Name: "ix_a", Fields: []string{"a"}}}

	after := before.Clone()
	after.Tables[0].Indexes = []schema.Index{
		{Name: "ix_a", Fields: []string{"a"}},
		{Name: "ix_ab", Fields: []string{"a", "b"}, Unique: true},
	}
	res := Compare(before, after)
	require.Len(t, res.TablesModified, 1)
	assert.Equal(t, []schema.Index{{Name: "ix_ab", Fields: []string{"a", "b"}, Unique: true}}, res.TablesModified[0].IndexesAdded)
	assert.Empty(t, res.TablesModified[0].IndexesRemoved)

	res = Compare(after, before)
	require.Len(t, res.TablesModified, 1)
	assert.Len(t, res.TablesModified[0].IndexesRemoved, 1)
}

func TestCompare_ModifiedKeepsOldAndNew(t *testing.T) {
	before := model(tbl("t", "a"))
	after := before.Clone()
	after.Tables[0].Fields[0].Length = 255

	res := Compare(before, after)
	require.Len(t, res.TablesModified, 1)
	cc := res.TablesModified[0].ColumnsModified
	require.Len(t, cc, 1)
	assert.Equal(t, 100, cc[0].Old.Length)
	assert.Equal(t, 255, cc[0].New.Length)
	assert.Equal(t, []string{"length 100 -> 255"}, cc[0].Changes)

	// the result holds copies
	after.Tables[0].Fields[0].Length = 1
	assert.Equal(t, 255, res.TablesModified[0].New.Fields[0].Length)
}

func TestSummary(t *testing.T) {
	before := model(tbl("keep", "a"), tbl("gone", "id"))
	after := model(tbl("keep", "a", "b"), tbl("fresh", "id", "name"))
	after.Tables[0].Fields[0].Nullable = true

	assert.Equal(t,
		"+ table fresh (2 fields)\n"+
			"- table gone\n"+
			"~ table keep\n"+
			"    + b VARCHAR\n"+
			"    ~ a: nullable false -> true\n",
		Compare(before, after).Summary())
}
