package ddl

import (
	"fmt"
	"strings"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
)

const indent = "  "

// CreateTable renders the CREATE TABLE statement for a table, preceded by
// any sequences its autoincrement fields need.
func (c *Compiler) CreateTable(t *schema.Table) []Statement {
	var stmts []Statement
	stmts = append(stmts, c.Sequences(t)...)

	inlinePK := c.inlinePrimaryKey(t)

	var lines []string
	for _, f := range t.Fields {
		lines = append(lines, indent+c.columnDefinition(t.Name, f, f.Name == inlinePK))
	}

	if pk := t.PrimaryKeyFields(); len(pk) > 0 && inlinePK == "" {
		lines = append(lines, indent+"PRIMARY KEY ("+c.quoteList(pk)+")")
	}
	lines = append(lines, c.uniqueConstraints(t)...)
	lines = append(lines, c.checkConstraints(t)...)
	if c.opts.Constraints && !c.d.Features.AlterAddConstraint {
		for _, fk := range c.foreignKeys(t) {
			lines = append(lines, indent+c.foreignKeyClause(fk))
		}
	}
	if c.inlineIndexes() {
		for _, ix := range c.plannedIndexes(t) {
			lines = append(lines, indent+c.inlineIndexClause(ix))
		}
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if c.opts.IfNotExists {
		if c.d.Features.TableIfNotExists {
			b.WriteString("IF NOT EXISTS ")
		} else {
			c.warnOnce("table-if-not-exists", fmt.Sprintf("%s has no CREATE TABLE IF NOT EXISTS, guard omitted", c.d.DisplayName))
		}
	}
	b.WriteString(c.TableName(t.Name))
	b.WriteString(" (\n")
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	if opts := c.tableOptions(t); opts != "" {
		b.WriteString(" ")
		b.WriteString(opts)
	}
	b.WriteString(";")

	deps := c.graph.Dependencies(t.Name)
	for i, d := range deps {
		deps[i] = c.PrefixedName(d)
	}

	stmts = append(stmts, Statement{
		Kind:         KindCreateTable,
		Table:        c.PrefixedName(t.Name),
		Name:         c.PrefixedName(t.Name),
		SQL:          b.String(),
		Dependencies: deps,
		Description:  describe("Create table %s (%d fields)", c.PrefixedName(t.Name), len(t.Fields)),
	})
	return stmts
}

// Sequences renders the CREATE SEQUENCE statements backing autoincrement
// fields on sequence-based dialects.
func (c *Compiler) Sequences(t *schema.Table) []Statement {
	if c.d.AutoIncrement != dialect.AutoIncrementSequence {
		return nil
	}
	var stmts []Statement
	for _, f := range t.Fields {
		if !f.AutoIncrement || !c.autoIncrementType(f) {
			continue
		}
		seq := c.SequenceName(t.Name, f.Name)
		stmts = append(stmts, Statement{
			Kind:        KindCreateSequence,
			Table:       c.PrefixedName(t.Name),
			Name:        seq,
			SQL:         dialect.Format(c.d.Formats.CreateSequence, map[string]string{"sequence": c.Quote(seq)}) + ";",
			Description: describe("Create sequence %s for %s.%s", seq, c.PrefixedName(t.Name), f.Name),
		})
	}
	return stmts
}

// DropSequences renders the inverse of Sequences.
func (c *Compiler) DropSequences(t *schema.Table) []string {
	if c.d.AutoIncrement != dialect.AutoIncrementSequence || c.d.Formats.DropSequence == "" {
		return nil
	}
	var out []string
	for _, f := range t.Fields {
		if f.AutoIncrement && c.autoIncrementType(f) {
			seq := c.Quote(c.SequenceName(t.Name, f.Name))
			out = append(out, dialect.Format(c.d.Formats.DropSequence, map[string]string{"sequence": seq})+";")
		}
	}
	return out
}

// ColumnDefinition renders a single column definition for use in ALTER
// TABLE statements.
func (c *Compiler) ColumnDefinition(table string, f schema.Field) string {
	return c.columnDefinition(table, f, false)
}

// ColumnType renders the native type of a field and records any warning.
func (c *Compiler) ColumnType(table string, f schema.Field) string {
	typ, warnings := c.d.ColumnType(table, f)
	c.warn(warnings...)
	return typ
}

func (c *Compiler) columnDefinition(table string, f schema.Field, inlinePK bool) string {
	parts := []string{c.Quote(f.Name), c.ColumnType(table, f)}

	autoInc := f.AutoIncrement && c.autoIncrementAllowed(table, f, inlinePK)

	if f.HasDefault() {
		if f.AutoIncrement {
			c.warn(dialect.Warning{Table: table, Field: f.Name, Message: "default ignored on autoincrement field"})
		} else if lit, ok := c.d.FormatDefault(f); ok {
			parts = append(parts, "DEFAULT "+lit)
		}
	}
	if autoInc && c.d.AutoIncrement == dialect.AutoIncrementSequence {
		seq := c.Quote(c.SequenceName(table, f.Name))
		parts = append(parts, "DEFAULT "+dialect.Format(c.d.Formats.NextValue, map[string]string{"sequence": seq}))
	}

	if !f.Nullable || f.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}

	if inlinePK {
		parts = append(parts, "PRIMARY KEY")
	}
	if autoInc && c.d.AutoIncrementKeyword != "" {
		parts = append(parts, c.d.AutoIncrementKeyword)
	}

	if f.Comment != "" && c.opts.Comments && c.d.Comments == dialect.CommentInline {
		parts = append(parts, "COMMENT "+dialect.QuoteString(f.Comment))
	}
	return strings.Join(parts, " ")
}

func (c *Compiler) autoIncrementType(f schema.Field) bool {
	t, _ := dialect.ParseType(f.Type)
	return t.IsInteger()
}

// autoIncrementAllowed reports whether the autoincrement clause can be
// rendered for the field, warning when it cannot.
func (c *Compiler) autoIncrementAllowed(table string, f schema.Field, inlinePK bool) bool {
	if !c.autoIncrementType(f) {
		c.warn(dialect.Warning{Table: table, Field: f.Name,
			Message: fmt.Sprintf("autoincrement needs an integer type, not %s; ignored", f.Type)})
		return false
	}
	switch c.d.AutoIncrement {
	case dialect.AutoIncrementNone:
		c.warn(dialect.Warning{Table: table, Field: f.Name,
			Message: fmt.Sprintf("%s has no autoincrement, values must be supplied", c.d.DisplayName)})
		return false
	case dialect.AutoIncrementInline:
		if c.d.InlinePrimaryKey && !inlinePK {
			c.warn(dialect.Warning{Table: table, Field: f.Name,
				Message: fmt.Sprintf("%s only allows %s on a single-column primary key; ignored", c.d.DisplayName, c.d.AutoIncrementKeyword)})
			return false
		}
	}
	return true
}

// inlinePrimaryKey returns the field that carries its own PRIMARY KEY
// clause: the single autoincrement primary key on dialects that require it.
func (c *Compiler) inlinePrimaryKey(t *schema.Table) string {
	if !c.d.InlinePrimaryKey {
		return ""
	}
	pk := t.PrimaryKeyFields()
	if len(pk) != 1 {
		return ""
	}
	f := t.Field(pk[0])
	if f == nil || !f.AutoIncrement || !c.autoIncrementType(*f) {
		return ""
	}
	return f.Name
}

func (c *Compiler) uniqueConstraints(t *schema.Table) []string {
	var lines []string
	for _, f := range t.Fields {
		if clause, ok := c.uniqueClause(t, f); ok {
			lines = append(lines, indent+clause)
		}
	}
	return lines
}

// checkConstraints emulates enumerations on dialects without a native enum
// type.
func (c *Compiler) checkConstraints(t *schema.Table) []string {
	var lines []string
	for _, f := range t.Fields {
		if clause, ok := c.checkClause(t, f); ok {
			lines = append(lines, indent+clause)
		}
	}
	return lines
}

// uniqueClause renders the UNIQUE constraint of a field. A single-column
// primary key is unique already.
func (c *Compiler) uniqueClause(t *schema.Table, f schema.Field) (string, bool) {
	if !f.Unique {
		return "", false
	}
	if pk := t.PrimaryKeyFields(); len(pk) == 1 && pk[0] == f.Name {
		return "", false
	}
	name := c.ConstraintName("uq", t.Name, f.Name)
	return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", c.Quote(name), c.Quote(f.Name)), true
}

func (c *Compiler) checkClause(t *schema.Table, f schema.Field) (string, bool) {
	if len(f.EnumValues) == 0 || !c.d.MapType(f.Type).Spec.EnumCheck || !c.opts.Constraints {
		return "", false
	}
	if !c.d.Features.CheckConstraints {
		c.warn(dialect.Warning{Table: t.Name, Field: f.Name,
			Message: fmt.Sprintf("%s has no CHECK constraints, enumeration values not enforced", c.d.DisplayName)})
		return "", false
	}
	values := make([]string, len(f.EnumValues))
	for i, v := range f.EnumValues {
		values[i] = dialect.QuoteString(v)
	}
	name := c.ConstraintName("chk", t.Name, f.Name)
	return fmt.Sprintf("CONSTRAINT %s CHECK (%s IN (%s))",
		c.Quote(name), c.Quote(f.Name), strings.Join(values, ", ")), true
}

// FieldConstraints renders the UNIQUE and CHECK constraints a field
// declares as ALTER TABLE statements, for a field added to an existing
// table. It reports false when the field has constraints but the dialect
// cannot add them to an existing table.
func (c *Compiler) FieldConstraints(t *schema.Table, field string) ([]Statement, bool) {
	f := t.Field(field)
	if f == nil {
		return nil, true
	}
	type constraint struct{ name, clause string }
	var list []constraint
	if clause, ok := c.uniqueClause(t, *f); ok {
		list = append(list, constraint{c.ConstraintName("uq", t.Name, f.Name), clause})
	}
	if clause, ok := c.checkClause(t, *f); ok {
		list = append(list, constraint{c.ConstraintName("chk", t.Name, f.Name), clause})
	}
	if len(list) == 0 {
		return nil, true
	}
	if !c.d.Features.AlterAddConstraint {
		return nil, false
	}
	stmts := make([]Statement, len(list))
	for i, con := range list {
		stmts[i] = Statement{
			Kind:         KindAddConstraint,
			Table:        c.PrefixedName(t.Name),
			Name:         con.name,
			SQL:          fmt.Sprintf("ALTER TABLE %s ADD %s;", c.TableName(t.Name), con.clause),
			Dependencies: []string{c.PrefixedName(t.Name)},
			Description:  describe("Constraint %s on %s.%s", con.name, c.PrefixedName(t.Name), f.Name),
		}
	}
	return stmts, true
}

func (c *Compiler) tableOptions(t *schema.Table) string {
	var parts []string
	for _, o := range c.d.TableOptions {
		v := t.Options[o.Key]
		if v == "" {
			v = o.Default
		}
		if v == "" {
			continue
		}
		parts = append(parts, dialect.Format(o.Format, map[string]string{"value": v}))
	}
	if t.Comment != "" && c.opts.Comments && c.d.Comments == dialect.CommentInline {
		parts = append(parts, "COMMENT="+dialect.QuoteString(t.Comment))
	}
	return strings.Join(parts, " ")
}

// DropTable renders the DROP TABLE statement followed by any sequences the
// table owned.
func (c *Compiler) DropTable(t *schema.Table) []string {
	out := []string{dialect.Format(c.d.Formats.DropTable, map[string]string{"table": c.TableName(t.Name)}) + ";"}
	return append(out, c.DropSequences(t)...)
}
