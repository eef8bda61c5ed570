// Package diff computes the structural difference between two schema
// versions. Tables and fields are matched by name.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reloquent/schemaforge/internal/schema"
)

// Result is the difference between an old and a new model.
type Result struct {
	TablesAdded    []schema.Table `json:"tables_added,omitempty" yaml:"tables_added,omitempty"`
	TablesRemoved  []schema.Table `json:"tables_removed,omitempty" yaml:"tables_removed,omitempty"`
	TablesModified []TableChange  `json:"tables_modified,omitempty" yaml:"tables_modified,omitempty"`
}

// TableChange describes a table present in both versions that changed.
type TableChange struct {
	Name            string         `json:"name" yaml:"name"`
	Old             schema.Table   `json:"-" yaml:"-"`
	New             schema.Table   `json:"-" yaml:"-"`
	ColumnsAdded    []schema.Field `json:"columns_added,omitempty" yaml:"columns_added,omitempty"`
	ColumnsRemoved  []schema.Field `json:"columns_removed,omitempty" yaml:"columns_removed,omitempty"`
	ColumnsModified []ColumnChange `json:"columns_modified,omitempty" yaml:"columns_modified,omitempty"`
	IndexesAdded    []schema.Index `json:"indexes_added,omitempty" yaml:"indexes_added,omitempty"`
	IndexesRemoved  []schema.Index `json:"indexes_removed,omitempty" yaml:"indexes_removed,omitempty"`
}

// ColumnChange is a field whose definition changed.
type ColumnChange struct {
	Name    string       `json:"name" yaml:"name"`
	Old     schema.Field `json:"old" yaml:"old"`
	New     schema.Field `json:"new" yaml:"new"`
	Changes []string     `json:"changes" yaml:"changes"`
}

// IsEmpty reports whether the two models are structurally identical.
func (r *Result) IsEmpty() bool {
	return len(r.TablesAdded) == 0 && len(r.TablesRemoved) == 0 && len(r.TablesModified) == 0
}

// TableNames returns the names of added, removed and modified tables.
func (r *Result) TableNames() (added, removed, modified []string) {
	for _, t := range r.TablesAdded {
		added = append(added, t.Name)
	}
	for _, t := range r.TablesRemoved {
		removed = append(removed, t.Name)
	}
	for _, t := range r.TablesModified {
		modified = append(modified, t.Name)
	}
	return added, removed, modified
}

// Compare diffs two models. A nil model is treated as empty. Added and
// modified tables follow the new model's order; removed tables follow the
// old model's order.
func Compare(before, after *schema.Model) *Result {
	if before == nil {
		before = &schema.Model{}
	}
	if after == nil {
		after = &schema.Model{}
	}

	res := &Result{}
	for _, nt := range after.Tables {
		ot := before.Table(nt.Name)
		if ot == nil {
			res.TablesAdded = append(res.TablesAdded, nt.Clone())
			continue
		}
		if tc, changed := CompareTables(*ot, nt); changed {
			res.TablesModified = append(res.TablesModified, tc)
		}
	}
	for _, ot := range before.Tables {
		if after.Table(ot.Name) == nil {
			res.TablesRemoved = append(res.TablesRemoved, ot.Clone())
		}
	}
	return res
}

// CompareTables diffs two versions of one table. It reports false when the
// table is unchanged.
func CompareTables(before, after schema.Table) (TableChange, bool) {
	tc := TableChange{Name: after.Name, Old: before.Clone(), New: after.Clone()}

	for _, nf := range after.Fields {
		of := before.Field(nf.Name)
		if of == nil {
			tc.ColumnsAdded = append(tc.ColumnsAdded, nf.Clone())
			continue
		}
		if changes := FieldChanges(*of, nf); len(changes) > 0 {
			tc.ColumnsModified = append(tc.ColumnsModified, ColumnChange{
				Name:    nf.Name,
				Old:     of.Clone(),
				New:     nf.Clone(),
				Changes: changes,
			})
		}
	}
	for _, of := range before.Fields {
		if after.Field(of.Name) == nil {
			tc.ColumnsRemoved = append(tc.ColumnsRemoved, of.Clone())
		}
	}

	oldIdx := indexSet(before.Indexes)
	newIdx := indexSet(after.Indexes)
	for _, ix := range after.Indexes {
		if _, ok := oldIdx[indexKey(ix)]; !ok {
			tc.IndexesAdded = append(tc.IndexesAdded, ix)
		}
	}
	for _, ix := range before.Indexes {
		if _, ok := newIdx[indexKey(ix)]; !ok {
			tc.IndexesRemoved = append(tc.IndexesRemoved, ix)
		}
	}

	changed := len(before.Fields) != len(after.Fields) ||
		len(tc.ColumnsAdded) > 0 || len(tc.ColumnsRemoved) > 0 || len(tc.ColumnsModified) > 0 ||
		len(tc.IndexesAdded) > 0 || len(tc.IndexesRemoved) > 0
	return tc, changed
}

// FieldChanges lists the attributes that differ between two versions of a
// field: type, nullable, primary key, autoincrement, default, length,
// precision and scale.
func FieldChanges(before, after schema.Field) []string {
	var changes []string
	if before.Type.Normalize() != after.Type.Normalize() {
		changes = append(changes, fmt.Sprintf("type %s -> %s", before.Type.Normalize(), after.Type.Normalize()))
	}
	if before.Nullable != after.Nullable {
		changes = append(changes, fmt.Sprintf("nullable %t -> %t", before.Nullable, after.Nullable))
	}
	if before.PrimaryKey != after.PrimaryKey {
		changes = append(changes, fmt.Sprintf("primary key %t -> %t", before.PrimaryKey, after.PrimaryKey))
	}
	if before.AutoIncrement != after.AutoIncrement {
		changes = append(changes, fmt.Sprintf("autoincrement %t -> %t", before.AutoIncrement, after.AutoIncrement))
	}
	if before.HasDefault() != after.HasDefault() || before.DefaultString() != after.DefaultString() {
		changes = append(changes, fmt.Sprintf("default %s -> %s", defaultLabel(before), defaultLabel(after)))
	}
	if before.Length != after.Length {
		changes = append(changes, fmt.Sprintf("length %d -> %d", before.Length, after.Length))
	}
	if before.Precision != after.Precision {
		changes = append(changes, fmt.Sprintf("precision %d -> %d", before.Precision, after.Precision))
	}
	if before.Scale != after.Scale {
		changes = append(changes, fmt.Sprintf("scale %d -> %d", before.Scale, after.Scale))
	}
	return changes
}

func defaultLabel(f schema.Field) string {
	if !f.HasDefault() {
		return "none"
	}
	return f.DefaultString()
}

// indexKey identifies an explicit index by name and field set.
func indexKey(ix schema.Index) string {
	fields := append([]string(nil), ix.Fields...)
	sort.Strings(fields)
	return fmt.Sprintf("%s|%s|%t|%s", ix.Name, strings.Join(fields, ","), ix.IsUnique(), ix.Kind)
}

func indexSet(idx []schema.Index) map[string]struct{} {
	out := make(map[string]struct{}, len(idx))
	for _, ix := range idx {
		out[indexKey(ix)] = struct{}{}
	}
	return out
}

// Summary renders a short human-readable description of the diff.
func (r *Result) Summary() string {
	if r.IsEmpty() {
		return "No structural changes."
	}
	var b strings.Builder
	for _, t := range r.TablesAdded {
		fmt.Fprintf(&b, "+ table %s (%d fields)\n", t.Name, len(t.Fields))
	}
	for _, t := range r.TablesRemoved {
		fmt.Fprintf(&b, "- table %s\n", t.Name)
	}
	for _, tc := range r.TablesModified {
		fmt.Fprintf(&b, "~ table %s\n", tc.Name)
		for _, f := range tc.ColumnsAdded {
			fmt.Fprintf(&b, "    + %s %s\n", f.Name, f.Type)
		}
		for _, f := range tc.ColumnsRemoved {
			fmt.Fprintf(&b, "    - %s\n", f.Name)
		}
		for _, c := range tc.ColumnsModified {
			fmt.Fprintf(&b, "    ~ %s: %s\n", c.Name, strings.Join(c.Changes, ", "))
		}
		for _, ix := range tc.IndexesAdded {
			fmt.Fprintf(&b, "    + index %s\n", indexLabel(ix))
		}
		for _, ix := range tc.IndexesRemoved {
			fmt.Fprintf(&b, "    - index %s\n", indexLabel(ix))
		}
	}
	return b.String()
}

func indexLabel(ix schema.Index) string {
	label := "(" + strings.Join(ix.Fields, ", ") + ")"
	if ix.Name != "" {
		label = ix.Name + " " + label
	}
	return label
}
