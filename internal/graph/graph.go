// Package graph orders tables by their foreign-key dependencies.
package graph

import (
	"fmt"
	"strings"

	"github.com/reloquent/schemaforge/internal/schema"
)

// Edge is a foreign-key dependency: Child references Parent.
type Edge struct {
	Child       string
	ChildField  string
	Parent      string
	ParentField string
}

// Graph holds the tables of a model as an arena indexed by model position,
// with dependency adjacency stored as indices.
type Graph struct {
	names []string
	index map[string]int
	edges []Edge
	// deps[i] lists the tables table i references, in first-seen order.
	deps [][]int
	// dependents[i] lists the tables that reference table i.
	dependents [][]int
}

// New builds the dependency graph of a model from field references and
// declared relationships. References to tables outside the model are
// ignored here; the validator reports them.
func New(m *schema.Model) *Graph {
	n := len(m.Tables)
	g := &Graph{
		names:      make([]string, n),
		index:      make(map[string]int, n),
		deps:       make([][]int, n),
		dependents: make([][]int, n),
	}
	for i, t := range m.Tables {
		g.names[i] = t.Name
		if _, dup := g.index[t.Name]; !dup {
			g.index[t.Name] = i
		}
	}

	seen := make(map[[2]int]bool)
	add := func(child int, e Edge) {
		parent, ok := g.index[e.Parent]
		if !ok {
			return
		}
		g.edges = append(g.edges, e)
		if child == parent {
			return
		}
		key := [2]int{child, parent}
		if seen[key] {
			return
		}
		seen[key] = true
		g.deps[child] = append(g.deps[child], parent)
		g.dependents[parent] = append(g.dependents[parent], child)
	}

	for i, t := range m.Tables {
		for _, f := range t.Fields {
			if f.References == nil || f.References.Table == "" {
				continue
			}
			add(i, Edge{
				Child:       t.Name,
				ChildField:  f.Name,
				Parent:      f.References.Table,
				ParentField: f.References.ReferencedField(),
			})
		}
	}
	for _, r := range m.Relationships {
		child, ok := g.index[r.FromTable]
		if !ok {
			continue
		}
		if f := m.Tables[child].Field(r.FromField); f != nil && f.References != nil && f.References.Table == r.ToTable {
			continue // already recorded from the field
		}
		add(child, Edge{Child: r.FromTable, ChildField: r.FromField, Parent: r.ToTable, ParentField: r.ToField})
	}

	return g
}

// Edges returns all dependency edges whose parent is in the model.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// SelfReferences returns the edges where a table references itself.
func (g *Graph) SelfReferences() []Edge {
	var result []Edge
	for _, e := range g.edges {
		if e.Child == e.Parent {
			result = append(result, e)
		}
	}
	return result
}

// Dependencies returns the tables the named table references.
func (g *Graph) Dependencies(table string) []string {
	i, ok := g.index[table]
	if !ok {
		return nil
	}
	return g.namesOf(g.deps[i])
}

// Dependents returns the tables that reference the named table.
func (g *Graph) Dependents(table string) []string {
	i, ok := g.index[table]
	if !ok {
		return nil
	}
	return g.namesOf(g.dependents[i])
}

// Isolated reports whether a table neither references nor is referenced by
// another table. Self-references do not count.
func (g *Graph) Isolated(table string) bool {
	i, ok := g.index[table]
	if !ok {
		return true
	}
	return len(g.deps[i]) == 0 && len(g.dependents[i]) == 0
}

func (g *Graph) namesOf(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = g.names[i]
	}
	return out
}

// Sort returns every table so that referenced tables precede the tables
// referencing them. Each round places, in model order, all tables whose
// dependencies were placed in earlier rounds. When a round places nothing
// the remaining tables are appended in model order and a *CycleError is
// returned alongside the complete order.
func (g *Graph) Sort() ([]string, error) {
	n := len(g.names)
	placed := make([]bool, n)
	order := make([]string, 0, n)

	for len(order) < n {
		var round []int
		for i := 0; i < n; i++ {
			if placed[i] {
				continue
			}
			ready := true
			for _, d := range g.deps[i] {
				if !placed[d] {
					ready = false
					break
				}
			}
			if ready {
				round = append(round, i)
			}
		}

		if len(round) == 0 {
			var rest []string
			for i := 0; i < n; i++ {
				if !placed[i] {
					rest = append(rest, g.names[i])
				}
			}
			order = append(order, rest...)
			return order, &CycleError{Tables: rest}
		}

		for _, i := range round {
			placed[i] = true
			order = append(order, g.names[i])
		}
	}

	return order, nil
}

// DetectCycles finds cycles using DFS over tables in model order.
// Returns each cycle as the list of table names forming it.
func (g *Graph) DetectCycles() [][]string {
	var cycles [][]string
	n := len(g.names)
	visited := make([]bool, n)
	inStack := make([]bool, n)

	var path []int
	var dfs func(node int)
	dfs = func(node int) {
		visited[node] = true
		inStack[node] = true
		path = append(path, node)

		for _, next := range g.deps[node] {
			if !visited[next] {
				dfs(next)
			} else if inStack[next] {
				for k, p := range path {
					if p == next {
						cycles = append(cycles, g.namesOf(path[k:]))
						break
					}
				}
			}
		}

		path = path[:len(path)-1]
		inStack[node] = false
	}

	for i := 0; i < n; i++ {
		if !visited[i] {
			dfs(i)
		}
	}

	return cycles
}

// CycleError reports tables whose dependencies form a cycle. The order
// returned with it is still complete and usable.
type CycleError struct {
	Tables []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("foreign-key cycle among tables: %s", strings.Join(e.Tables, ", "))
}
