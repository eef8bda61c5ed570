package ddl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
)

// PlannedIndex is an index the compiler decided to create.
type PlannedIndex struct {
	Name     string
	Table    string
	Fields   []string
	Unique   bool
	Fulltext bool
	Reason   string
}

// plannedIndexes decides the indexes of a table in priority order: fields
// flagged as indexed, unindexed foreign-key fields, then explicit indexes.
// Field sets already covered by the primary key, a unique field or an
// earlier index are skipped.
func (c *Compiler) plannedIndexes(t *schema.Table) []PlannedIndex {
	if !c.opts.Indexes {
		return nil
	}
	covered := make(map[string]bool)
	if pk := t.PrimaryKeyFields(); len(pk) > 0 {
		covered[fieldSetKey(pk)] = true
	}
	for _, f := range t.Fields {
		if f.Unique {
			covered[fieldSetKey([]string{f.Name})] = true
		}
	}

	var out []PlannedIndex
	add := func(ix PlannedIndex) {
		key := fieldSetKey(ix.Fields)
		if covered[key] {
			return
		}
		covered[key] = true
		if ix.Name == "" {
			ix.Name = c.ConstraintName("idx", t.Name, ix.Fields...)
		}
		out = append(out, ix)
	}

	for _, f := range t.Fields {
		if f.Indexed && !f.PrimaryKey && !f.Unique {
			add(PlannedIndex{Table: t.Name, Fields: []string{f.Name}, Reason: "indexed field"})
		}
	}
	for _, fk := range c.foreignKeyFieldNames(t) {
		add(PlannedIndex{Table: t.Name, Fields: []string{fk}, Reason: "foreign key"})
	}
	for _, ix := range t.Indexes {
		if missing := missingFields(t, ix.Fields); len(missing) > 0 {
			c.warn(dialect.Warning{Table: t.Name,
				Message: fmt.Sprintf("index %s names unknown fields %s, skipped", indexLabel(ix), strings.Join(missing, ", "))})
			continue
		}
		p := PlannedIndex{
			Name:   ix.Name,
			Table:  t.Name,
			Fields: append([]string(nil), ix.Fields...),
			Unique: ix.IsUnique(),
			Reason: "explicit index",
		}
		if ix.Kind == schema.IndexFulltext {
			if c.d.Features.FulltextIndexes {
				p.Fulltext = true
			} else {
				c.warn(dialect.Warning{Table: t.Name,
					Message: fmt.Sprintf("%s has no fulltext indexes, %s created as a plain index", c.d.DisplayName, indexLabel(ix))})
			}
		}
		add(p)
	}
	return out
}

// foreignKeyFieldNames lists the referencing fields of a table, including
// fields named only by relationships.
func (c *Compiler) foreignKeyFieldNames(t *schema.Table) []string {
	var names []string
	seen := make(map[string]bool)
	for _, f := range t.ForeignKeyFields() {
		if !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	for _, r := range c.model.Relationships {
		if r.FromTable == t.Name && !seen[r.FromField] && t.Field(r.FromField) != nil {
			seen[r.FromField] = true
			names = append(names, r.FromField)
		}
	}
	return names
}

func (c *Compiler) inlineIndexes() bool {
	return c.opts.InlineIndexes && c.d.Features.InlineIndexes
}

// Indexes renders CREATE INDEX statements for a table. Nothing is returned
// when indexes are declared inline.
func (c *Compiler) Indexes(t *schema.Table) []Statement {
	if c.inlineIndexes() {
		return nil
	}
	var stmts []Statement
	for _, ix := range c.plannedIndexes(t) {
		stmts = append(stmts, c.indexStatement(ix))
	}
	return stmts
}

// PlannedIndexes returns every index the compiler creates for a table,
// whether it is declared inline or as a separate statement.
func (c *Compiler) PlannedIndexes(t *schema.Table) []PlannedIndex {
	return c.plannedIndexes(t)
}

// PlannedIndexStatement renders a planned index as a CREATE INDEX
// statement, used when a migration indexes an existing table.
func (c *Compiler) PlannedIndexStatement(ix PlannedIndex) Statement {
	return c.indexStatement(ix)
}

// Key identifies a planned index by name, field list and kind.
func (ix PlannedIndex) Key() string {
	return fmt.Sprintf("%s|%s|%t|%t", ix.Name, strings.Join(ix.Fields, ","), ix.Unique, ix.Fulltext)
}

func (c *Compiler) indexStatement(ix PlannedIndex) Statement {
	var b strings.Builder
	b.WriteString("CREATE ")
	switch {
	case ix.Fulltext:
		b.WriteString("FULLTEXT ")
	case ix.Unique:
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if c.opts.IfNotExists {
		if c.d.Features.IndexIfNotExists {
			b.WriteString("IF NOT EXISTS ")
		} else {
			c.warnOnce("index-if-not-exists", fmt.Sprintf("%s has no CREATE INDEX IF NOT EXISTS, guard omitted", c.d.DisplayName))
		}
	}
	fmt.Fprintf(&b, "%s ON %s (%s);", c.Quote(ix.Name), c.TableName(ix.Table), c.quoteList(ix.Fields))

	return Statement{
		Kind:         KindCreateIndex,
		Table:        c.PrefixedName(ix.Table),
		Name:         ix.Name,
		SQL:          b.String(),
		Dependencies: []string{c.PrefixedName(ix.Table)},
		Description:  describe("Index %s on %s(%s), %s", ix.Name, c.PrefixedName(ix.Table), strings.Join(ix.Fields, ", "), ix.Reason),
	}
}

func (c *Compiler) inlineIndexClause(ix PlannedIndex) string {
	cols := c.quoteList(ix.Fields)
	switch {
	case ix.Unique:
		return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", c.Quote(ix.Name), cols)
	case ix.Fulltext:
		return fmt.Sprintf("FULLTEXT INDEX %s (%s)", c.Quote(ix.Name), cols)
	default:
		return fmt.Sprintf("INDEX %s (%s)", c.Quote(ix.Name), cols)
	}
}

// DropIndex renders the statement removing a named index of a table.
func (c *Compiler) DropIndex(table, name string) string {
	return dialect.Format(c.d.Formats.DropIndex, map[string]string{
		"table": c.TableName(table),
		"index": c.Quote(name),
	}) + ";"
}

// Comments renders table and column comments for dialects that take them as
// separate statements. Dialects without comment support get one warning per
// table that carries comments.
func (c *Compiler) Comments(t *schema.Table) []Statement {
	if !c.opts.Comments {
		return nil
	}
	switch c.d.Comments {
	case dialect.CommentInline:
		return nil
	case dialect.CommentNone:
		if hasComments(t) {
			c.warn(dialect.Warning{Table: t.Name,
				Message: fmt.Sprintf("%s has no comment syntax, comments omitted", c.d.DisplayName)})
		}
		return nil
	}

	var stmts []Statement
	if t.Comment != "" {
		stmts = append(stmts, Statement{
			Kind:         KindComment,
			Table:        c.PrefixedName(t.Name),
			SQL:          fmt.Sprintf("COMMENT ON TABLE %s IS %s;", c.TableName(t.Name), dialect.QuoteString(t.Comment)),
			Dependencies: []string{c.PrefixedName(t.Name)},
			Description:  describe("Comment on table %s", c.PrefixedName(t.Name)),
		})
	}
	for _, f := range t.Fields {
		if f.Comment == "" {
			continue
		}
		stmts = append(stmts, Statement{
			Kind:         KindComment,
			Table:        c.PrefixedName(t.Name),
			Name:         f.Name,
			SQL:          fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;", c.TableName(t.Name), c.Quote(f.Name), dialect.QuoteString(f.Comment)),
			Dependencies: []string{c.PrefixedName(t.Name)},
			Description:  describe("Comment on column %s.%s", c.PrefixedName(t.Name), f.Name),
		})
	}
	return stmts
}

func hasComments(t *schema.Table) bool {
	if t.Comment != "" {
		return true
	}
	for _, f := range t.Fields {
		if f.Comment != "" {
			return true
		}
	}
	return false
}

func fieldSetKey(fields []string) string {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func missingFields(t *schema.Table, fields []string) []string {
	var missing []string
	for _, f := range fields {
		if t.Field(f) == nil {
			missing = append(missing, f)
		}
	}
	return missing
}

func indexLabel(ix schema.Index) string {
	if ix.Name != "" {
		return ix.Name
	}
	return "(" + strings.Join(ix.Fields, ", ") + ")"
}
