package ddl

import (
	"fmt"
	"strings"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
)

// ForeignKey is a resolved foreign-key constraint of one table.
type ForeignKey struct {
	Name        string
	Table       string
	Field       string
	ParentTable string
	ParentField string
	OnDelete    string
	OnUpdate    string
}

// foreignKeys collects the constraints declared by field references and by
// relationships without a matching field reference. Targets missing from
// the model are skipped with a warning.
func (c *Compiler) foreignKeys(t *schema.Table) []ForeignKey {
	var out []ForeignKey
	seen := make(map[string]bool)

	add := func(field, parent, parentField string, rel *schema.Relationship) {
		if seen[field] {
			return
		}
		seen[field] = true
		pt := c.model.Table(parent)
		if pt == nil {
			c.warn(dialect.Warning{Table: t.Name, Field: field,
				Message: fmt.Sprintf("referenced table %s not found, foreign key skipped", parent)})
			return
		}
		if pt.Field(parentField) == nil {
			c.warn(dialect.Warning{Table: t.Name, Field: field,
				Message: fmt.Sprintf("referenced field %s.%s not found, foreign key skipped", parent, parentField)})
			return
		}
		fk := ForeignKey{
			Name:        c.ConstraintName("fk", t.Name, field),
			Table:       t.Name,
			Field:       field,
			ParentTable: parent,
			ParentField: parentField,
		}
		if rel != nil {
			fk.OnDelete = c.action(t.Name, field, rel.OnDelete, false)
			fk.OnUpdate = c.action(t.Name, field, rel.OnUpdate, true)
		}
		out = append(out, fk)
	}

	for _, f := range t.Fields {
		if f.References == nil || f.References.Table == "" {
			continue
		}
		add(f.Name, f.References.Table, f.References.ReferencedField(), c.model.RelationshipFor(t.Name, f.Name))
	}
	for i := range c.model.Relationships {
		r := &c.model.Relationships[i]
		if r.FromTable != t.Name || r.ToTable == "" {
			continue
		}
		if t.Field(r.FromField) == nil {
			c.warn(dialect.Warning{Table: t.Name, Field: r.FromField,
				Message: "relationship names a field that does not exist, foreign key skipped"})
			continue
		}
		parentField := r.ToField
		if parentField == "" {
			parentField = "id"
		}
		add(r.FromField, r.ToTable, parentField, r)
	}
	return out
}

func (c *Compiler) action(table, field, policy string, onUpdate bool) string {
	a, ok := c.d.ReferentialAction(policy, onUpdate)
	if ok {
		return a
	}
	clause := "ON DELETE"
	if onUpdate {
		clause = "ON UPDATE"
	}
	c.warn(dialect.Warning{Table: table, Field: field,
		Message: fmt.Sprintf("%s does not support %s %s, clause omitted", c.d.DisplayName, clause, a)})
	return ""
}

func (c *Compiler) foreignKeyClause(fk ForeignKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		c.Quote(fk.Name), c.Quote(fk.Field), c.TableName(fk.ParentTable), c.Quote(fk.ParentField))
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + fk.OnUpdate)
	}
	return b.String()
}

// ForeignKeys renders one ALTER TABLE ADD CONSTRAINT statement per foreign
// key of the table. Dialects that cannot add constraints afterwards get
// them inline in CREATE TABLE, so nothing is returned for them.
func (c *Compiler) ForeignKeys(t *schema.Table) []Statement {
	if !c.opts.Constraints || !c.d.Features.AlterAddConstraint {
		return nil
	}
	var stmts []Statement
	for _, fk := range c.foreignKeys(t) {
		stmts = append(stmts, c.foreignKeyStatement(fk))
	}
	return stmts
}

func (c *Compiler) foreignKeyStatement(fk ForeignKey) Statement {
	return Statement{
		Kind:         KindAddForeignKey,
		Table:        c.PrefixedName(fk.Table),
		Name:         fk.Name,
		SQL:          fmt.Sprintf("ALTER TABLE %s ADD %s;", c.TableName(fk.Table), c.foreignKeyClause(fk)),
		Dependencies: []string{c.PrefixedName(fk.Table), c.PrefixedName(fk.ParentTable)},
		Description:  describe("Foreign key %s.%s -> %s.%s", c.PrefixedName(fk.Table), fk.Field, c.PrefixedName(fk.ParentTable), fk.ParentField),
	}
}

// DropConstraint renders the statement removing a named constraint. It
// returns false when the dialect cannot drop constraints in place.
func (c *Compiler) DropConstraint(table, name string) (string, bool) {
	if c.d.Formats.DropConstraint == "" {
		return "", false
	}
	return dialect.Format(c.d.Formats.DropConstraint, map[string]string{
		"table":      c.TableName(table),
		"constraint": c.Quote(name),
	}) + ";", true
}

// DropForeignKey is DropConstraint for dialects that drop foreign keys
// with their own statement.
func (c *Compiler) DropForeignKey(table, name string) (string, bool) {
	if c.d.Formats.DropForeignKey == "" {
		return c.DropConstraint(table, name)
	}
	return dialect.Format(c.d.Formats.DropForeignKey, map[string]string{
		"table":      c.TableName(table),
		"constraint": c.Quote(name),
	}) + ";", true
}
