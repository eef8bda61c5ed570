// Package selection narrows a model to a subset of its tables.
package selection

import (
	"path"
	"sort"
	"strings"

	"github.com/reloquent/schemaforge/internal/schema"
)

// OrphanedRef is a foreign key pointing at a table outside the selection.
type OrphanedRef struct {
	Table           string
	Field           string
	ReferencedTable string
}

// Match reports whether a table name matches any of the glob patterns
// (path.Match syntax, e.g. "order_*"). A malformed pattern matches only
// its literal text.
func Match(name string, patterns []string) bool {
	for _, p := range patterns {
		ok, err := path.Match(p, name)
		if err != nil {
			ok = p == name
		}
		if ok {
			return true
		}
	}
	return false
}

// ParsePatterns splits a comma-separated pattern list.
func ParsePatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Select returns a copy of m holding the tables that match the patterns,
// in model order. With withDeps, tables referenced by selected tables are
// added transitively. Otherwise references leaving the selection are
// removed from the copy and reported.
func Select(m *schema.Model, patterns []string, withDeps bool) (*schema.Model, []OrphanedRef) {
	selected := make(map[string]bool)
	for _, t := range m.Tables {
		if Match(t.Name, patterns) {
			selected[t.Name] = true
		}
	}

	if withDeps {
		queue := make([]string, 0, len(selected))
		for name := range selected {
			queue = append(queue, name)
		}
		sort.Strings(queue)
		for len(queue) > 0 {
			name := queue[0]
			queue = queue[1:]
			t := m.Table(name)
			if t == nil {
				continue
			}
			for _, f := range t.ForeignKeyFields() {
				ref := f.References.Table
				if !selected[ref] && m.Table(ref) != nil {
					selected[ref] = true
					queue = append(queue, ref)
				}
			}
		}
	}

	out := m.Clone()
	out.Tables = out.Tables[:0]
	for _, t := range m.Tables {
		if selected[t.Name] {
			out.Tables = append(out.Tables, t.Clone())
		}
	}

	var orphans []OrphanedRef
	for i := range out.Tables {
		t := &out.Tables[i]
		for j := range t.Fields {
			f := &t.Fields[j]
			if f.References != nil && f.References.Table != "" && !selected[f.References.Table] {
				orphans = append(orphans, OrphanedRef{Table: t.Name, Field: f.Name, ReferencedTable: f.References.Table})
				f.References = nil
			}
		}
	}

	rels := out.Relationships[:0]
	for _, r := range out.Relationships {
		if selected[r.FromTable] && selected[r.ToTable] {
			rels = append(rels, r)
		}
	}
	out.Relationships = rels
	return out, orphans
}
