package migration

import (
	"fmt"
	"strings"

	"github.com/reloquent/schemaforge/internal/ddl"
	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/diff"
	"github.com/reloquent/schemaforge/internal/schema"
)

// GenerateCreate builds an initial migration that creates the whole model.
// It touches no existing object, so its risk score is zero and its level
// LOW.
func GenerateCreate(m *schema.Model, name dialect.Name, opts Options) (*Script, error) {
	c, err := ddl.New(m, name, opts.DDL)
	if err != nil {
		return nil, err
	}
	ops := createOperations(c, c.Tables())

	version := opts.Version
	if version == "" {
		version = m.Version
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Create schema %s", m.Name)
	}
	s := newScript(c.Dialect().Name, version, ops, opts, c.Warnings())
	s.Metadata.RiskScore = 0
	s.Metadata.RiskLevel = RiskLow
	return s, nil
}

// GenerateDiff builds the migration from before to after. Removed tables are
// dropped, added tables created and modified tables altered column by
// column. The down queries are a best-effort inverse that cannot restore
// dropped data.
func GenerateDiff(before, after *schema.Model, name dialect.Name, opts Options) (*Script, error) {
	if before == nil {
		before = &schema.Model{}
	}
	if after == nil {
		after = &schema.Model{}
	}
	from, err := ddl.New(before, name, opts.DDL)
	if err != nil {
		return nil, fmt.Errorf("old model: %w", err)
	}
	to, err := ddl.New(after, name, opts.DDL)
	if err != nil {
		return nil, fmt.Errorf("new model: %w", err)
	}

	g := &generator{from: from, to: to, opts: opts, d: to.Dialect()}
	d := diff.Compare(before, after)

	common := g.commonTables()
	modified := make(map[string]diff.TableChange, len(d.TablesModified))
	for _, tc := range d.TablesModified {
		modified[tc.Name] = tc
	}

	// Foreign keys, indexes and columns leave existing tables before any
	// table is dropped, so nothing still references a dropped table. The
	// reversed down path then recreates tables before re-adding them.
	var ops []Operation
	for _, p := range common {
		ops = append(ops, g.dropForeignKeys(p)...)
	}
	for _, p := range common {
		ops = append(ops, g.dropIndexes(p)...)
		if tc, ok := modified[p.name]; ok {
			ops = append(ops, g.dropColumns(tc)...)
		}
	}
	ops = append(ops, g.dropTables(d.TablesRemoved)...)

	added := make([]string, len(d.TablesAdded))
	for i, t := range d.TablesAdded {
		added[i] = t.Name
	}
	ops = append(ops, createOperations(to, selectTables(to, added))...)

	for _, p := range common {
		if tc, ok := modified[p.name]; ok {
			ops = append(ops, g.addColumns(tc)...)
			for _, cc := range tc.ColumnsModified {
				ops = append(ops, g.modifyColumn(tc.Name, cc))
			}
		}
	}
	for _, p := range common {
		ops = append(ops, g.addIndexes(p)...)
	}
	for _, p := range common {
		ops = append(ops, g.addForeignKeys(p)...)
	}

	version := opts.Version
	if version == "" {
		version = after.Version
	}
	if opts.Description == "" {
		opts.Description = describeDiff(before, after, d)
	}
	return newScript(g.d.Name, version, ops, opts, g.warnings()), nil
}

// createOperations renders tables as CREATE_TABLE operations followed by
// their foreign keys and indexes. Sequences and comments travel with the
// table they belong to.
func createOperations(c *ddl.Compiler, tables []*schema.Table) []Operation {
	var creates, fks, indexes []Operation
	for _, t := range tables {
		var up []string
		for _, st := range c.CreateTable(t) {
			up = append(up, st.SQL)
		}
		for _, st := range c.Comments(t) {
			up = append(up, st.SQL)
		}
		creates = append(creates, Operation{
			Type:        OpCreateTable,
			Table:       t.Name,
			Name:        t.Name,
			Description: fmt.Sprintf("Create table %s", t.Name),
			Up:          up,
			Down:        c.DropTable(t),
		})

		for _, st := range c.ForeignKeys(t) {
			op := Operation{
				Type:        OpAddConstraint,
				Table:       t.Name,
				Name:        st.Name,
				Description: st.Description,
				Up:          []string{st.SQL},
			}
			if drop, ok := c.DropForeignKey(t.Name, st.Name); ok {
				op.Down = []string{drop}
			}
			fks = append(fks, op)
		}
		for _, st := range c.Indexes(t) {
			indexes = append(indexes, Operation{
				Type:        OpAddIndex,
				Table:       t.Name,
				Name:        st.Name,
				Description: st.Description,
				Up:          []string{st.SQL},
				Down:        []string{c.DropIndex(t.Name, st.Name)},
			})
		}
	}
	out := append(creates, fks...)
	return append(out, indexes...)
}

func selectTables(c *ddl.Compiler, names []string) []*schema.Table {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []*schema.Table
	for _, t := range c.Tables() {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

type generator struct {
	from *ddl.Compiler
	to   *ddl.Compiler
	d    *dialect.Dialect
	opts Options
	own  []dialect.Warning
}

func (g *generator) warn(table, field, msg string) {
	g.own = append(g.own, dialect.Warning{Table: table, Field: field, Message: msg})
}

// warnings merges compiler and generator warnings without duplicates.
func (g *generator) warnings() []dialect.Warning {
	seen := make(map[string]bool)
	var out []dialect.Warning
	for _, list := range [][]dialect.Warning{g.to.Warnings(), g.from.Warnings(), g.own} {
		for _, w := range list {
			if !seen[w.String()] {
				seen[w.String()] = true
				out = append(out, w)
			}
		}
	}
	return out
}

func (g *generator) format(format string, values map[string]string) string {
	return dialect.Format(format, values) + ";"
}

// dropTables drops removed tables, dependents first.
func (g *generator) dropTables(removed []schema.Table) []Operation {
	if len(removed) == 0 {
		return nil
	}
	names := make([]string, len(removed))
	for i, t := range removed {
		names[i] = t.Name
	}
	ordered := selectTables(g.from, names)

	var ops []Operation
	for i := len(ordered) - 1; i >= 0; i-- {
		t := ordered[i]
		up := g.from.DropTable(t)
		if g.opts.SafeMode {
			for k, q := range up {
				up[k] = "-- " + q
			}
			up = append([]string{fmt.Sprintf("-- safe mode: drop of table %s disabled", t.Name)}, up...)
		}

		var down []string
		for _, st := range g.from.CreateTable(t) {
			down = append(down, st.SQL)
		}
		for _, st := range g.from.ForeignKeys(t) {
			down = append(down, st.SQL)
		}
		for _, st := range g.from.Indexes(t) {
			down = append(down, st.SQL)
		}

		ops = append(ops, Operation{
			Type:        OpDropTable,
			Table:       t.Name,
			Name:        t.Name,
			Description: fmt.Sprintf("Drop table %s", t.Name),
			Up:          up,
			Down:        down,
		})
	}
	return ops
}

// tablePair is a table present in both models.
type tablePair struct {
	name     string
	old, new *schema.Table
}

// commonTables pairs the tables of both models, in the new model's
// dependency order.
func (g *generator) commonTables() []tablePair {
	old := make(map[string]*schema.Table)
	for _, t := range g.from.Tables() {
		if _, dup := old[t.Name]; !dup {
			old[t.Name] = t
		}
	}
	var out []tablePair
	for _, t := range g.to.Tables() {
		if o, ok := old[t.Name]; ok {
			out = append(out, tablePair{name: t.Name, old: o, new: t})
			delete(old, t.Name)
		}
	}
	return out
}

// fkIndex keys the foreign-key statements of a table by name and SQL.
func fkIndex(stmts []ddl.Statement) map[string]bool {
	out := make(map[string]bool, len(stmts))
	for _, st := range stmts {
		out[st.Name+"|"+st.SQL] = true
	}
	return out
}

// dropForeignKeys drops the constraints of the old table that the new
// table no longer declares in the same form.
func (g *generator) dropForeignKeys(p tablePair) []Operation {
	keep := fkIndex(g.to.ForeignKeys(p.new))
	var ops []Operation
	for _, st := range g.from.ForeignKeys(p.old) {
		if keep[st.Name+"|"+st.SQL] {
			continue
		}
		drop, ok := g.from.DropForeignKey(p.name, st.Name)
		if !ok {
			g.warn(p.name, "", fmt.Sprintf("%s cannot drop constraint %s; rebuild the table", g.d.DisplayName, st.Name))
			continue
		}
		ops = append(ops, Operation{
			Type:        OpDropConstraint,
			Table:       p.name,
			Name:        st.Name,
			Description: fmt.Sprintf("Drop foreign key %s", st.Name),
			Up:          []string{drop},
			Down:        []string{st.SQL},
		})
	}
	return ops
}

// addForeignKeys adds the constraints the new table declares that the old
// one did not.
func (g *generator) addForeignKeys(p tablePair) []Operation {
	have := fkIndex(g.from.ForeignKeys(p.old))
	var ops []Operation
	for _, st := range g.to.ForeignKeys(p.new) {
		if have[st.Name+"|"+st.SQL] {
			continue
		}
		op := Operation{
			Type:        OpAddConstraint,
			Table:       p.name,
			Name:        st.Name,
			Description: st.Description,
			Up:          []string{st.SQL},
		}
		if drop, ok := g.to.DropForeignKey(p.name, st.Name); ok {
			op.Down = []string{drop}
		}
		ops = append(ops, op)
	}
	return ops
}

func plannedKeys(list []ddl.PlannedIndex) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, ix := range list {
		out[ix.Key()] = true
	}
	return out
}

// dropIndexes drops the indexes planned for the old table that the new
// table no longer plans: explicit indexes, indexed fields and foreign-key
// indexes alike.
func (g *generator) dropIndexes(p tablePair) []Operation {
	keep := plannedKeys(g.to.PlannedIndexes(p.new))
	var ops []Operation
	for _, ix := range g.from.PlannedIndexes(p.old) {
		if keep[ix.Key()] {
			continue
		}
		ops = append(ops, Operation{
			Type:        OpDropIndex,
			Table:       p.name,
			Name:        ix.Name,
			Description: fmt.Sprintf("Drop index %s on %s", ix.Name, p.name),
			Up:          []string{g.from.DropIndex(p.name, ix.Name)},
			Down:        []string{g.from.PlannedIndexStatement(ix).SQL},
		})
	}
	return ops
}

// addIndexes creates the indexes the new table plans that the old table
// did not.
func (g *generator) addIndexes(p tablePair) []Operation {
	have := plannedKeys(g.from.PlannedIndexes(p.old))
	var ops []Operation
	for _, ix := range g.to.PlannedIndexes(p.new) {
		if have[ix.Key()] {
			continue
		}
		st := g.to.PlannedIndexStatement(ix)
		ops = append(ops, Operation{
			Type:        OpAddIndex,
			Table:       p.name,
			Name:        st.Name,
			Description: st.Description,
			Up:          []string{st.SQL},
			Down:        []string{g.to.DropIndex(p.name, st.Name)},
		})
	}
	return ops
}

// dropColumns removes columns. The inverse re-adds each column with its
// UNIQUE and CHECK constraints; the data is not restored.
func (g *generator) dropColumns(tc diff.TableChange) []Operation {
	var ops []Operation
	table := g.from.TableName(tc.Name)
	for _, f := range tc.ColumnsRemoved {
		down := g.addColumnSQL(g.from, tc.Name, f)
		if cons, ok := g.from.FieldConstraints(&tc.Old, f.Name); ok {
			for _, st := range cons {
				down = append(down, st.SQL)
			}
		}
		ops = append(ops, Operation{
			Type:        OpDropColumn,
			Table:       tc.Name,
			Name:        f.Name,
			Description: fmt.Sprintf("Drop column %s.%s", tc.Name, f.Name),
			Up:          []string{g.format(g.d.Formats.DropColumn, map[string]string{"table": table, "column": g.from.Quote(f.Name)})},
			Down:        down,
		})
	}
	return ops
}

// addColumns adds columns followed by the UNIQUE and CHECK constraints
// they declare. Indexes and foreign keys follow in later steps.
func (g *generator) addColumns(tc diff.TableChange) []Operation {
	var ops []Operation
	newT := &tc.New
	table := g.to.TableName(tc.Name)
	for _, f := range tc.ColumnsAdded {
		op := Operation{
			Type:        OpAddColumn,
			Table:       tc.Name,
			Name:        f.Name,
			Description: fmt.Sprintf("Add column %s.%s", tc.Name, f.Name),
			Up:          g.addColumnSQL(g.to, tc.Name, f),
			Down:        []string{g.format(g.d.Formats.DropColumn, map[string]string{"table": table, "column": g.to.Quote(f.Name)})},
		}
		if !f.Nullable && !f.PrimaryKey && !f.HasDefault() && !f.AutoIncrement {
			g.warn(tc.Name, f.Name, "NOT NULL column added without a default fails on tables that already hold rows")
		}

		cons, ok := g.to.FieldConstraints(newT, f.Name)
		if !ok {
			g.warn(tc.Name, f.Name, fmt.Sprintf("%s cannot add constraints to an existing table; rebuild the table to enforce them", g.d.DisplayName))
			op.Up = append(op.Up, fmt.Sprintf("-- Table %s must be rebuilt to enforce the constraints of column %s", tc.Name, f.Name))
		}
		ops = append(ops, op)
		for _, st := range cons {
			c := Operation{
				Type:        OpAddConstraint,
				Table:       tc.Name,
				Name:        st.Name,
				Description: st.Description,
				Up:          []string{st.SQL},
			}
			if drop, ok := g.to.DropConstraint(tc.Name, st.Name); ok {
				c.Down = []string{drop}
			}
			ops = append(ops, c)
		}

		hasRef := f.References != nil || g.to.Model().RelationshipFor(tc.Name, f.Name) != nil
		if hasRef && g.opts.DDL.Constraints && !g.d.Features.AlterAddConstraint {
			g.warn(tc.Name, f.Name, fmt.Sprintf("%s cannot add a foreign key to an existing table; rebuild the table to enforce it", g.d.DisplayName))
		}
	}
	return ops
}

func (g *generator) addColumnSQL(c *ddl.Compiler, table string, f schema.Field) []string {
	var out []string
	for _, st := range c.Sequences(&schema.Table{Name: table, Fields: []schema.Field{f}}) {
		out = append(out, st.SQL)
	}
	return append(out, g.format(g.d.Formats.AddColumn, map[string]string{
		"table":      c.TableName(table),
		"definition": c.ColumnDefinition(table, f),
	}))
}

// modifyColumn alters a column in place where the dialect allows it and
// otherwise emits a note that the table must be rebuilt.
func (g *generator) modifyColumn(table string, cc diff.ColumnChange) Operation {
	op := Operation{
		Type:        OpModifyColumn,
		Table:       table,
		Name:        cc.Name,
		Description: fmt.Sprintf("Modify column %s.%s (%s)", table, cc.Name, strings.Join(cc.Changes, ", ")),
	}
	if cc.Old.PrimaryKey != cc.New.PrimaryKey || cc.Old.AutoIncrement != cc.New.AutoIncrement {
		g.warn(table, cc.Name, "primary key or autoincrement change is not migrated automatically")
	}

	if g.d.Formats.ModifyColumn == "" {
		g.warn(table, cc.Name, fmt.Sprintf("%s cannot alter a column in place; table %s must be rebuilt", g.d.DisplayName, table))
		op.Up = []string{fmt.Sprintf("-- Table %s must be rebuilt to change column %s: %s", table, cc.Name, strings.Join(cc.Changes, ", "))}
		op.Down = []string{fmt.Sprintf("-- Column %s.%s has no automatic inverse on %s", table, cc.Name, g.d.DisplayName)}
		return op
	}

	op.Up = g.alterColumn(g.to, table, cc.Old, cc.New)
	op.Down = g.alterColumn(g.from, table, cc.New, cc.Old)
	return op
}

// alterColumn renders the statements changing a column from one definition
// to another. Dialects with separate nullability and default clauses get
// one statement per changed attribute. Oracle rejects a MODIFY that
// restates the current nullability, so its format only carries changed
// clauses.
func (g *generator) alterColumn(c *ddl.Compiler, table string, from, to schema.Field) []string {
	values := map[string]string{
		"table":      c.TableName(table),
		"column":     c.Quote(to.Name),
		"definition": c.ColumnDefinition(table, to),
		"type":       c.ColumnType(table, to),
		"null":       nullClause(to),
	}
	nullChanged := from.Nullable != to.Nullable || from.PrimaryKey != to.PrimaryKey
	defaultChanged := from.HasDefault() != to.HasDefault() || from.DefaultString() != to.DefaultString()
	lit, hasLit := c.Dialect().FormatDefault(to)
	values["null_change"], values["default_change"] = "", ""
	if nullChanged {
		values["null_change"] = nullClause(to)
	}
	if defaultChanged {
		if hasLit {
			values["default_change"] = " DEFAULT " + lit
		} else {
			values["default_change"] = " DEFAULT NULL"
		}
	}

	f := g.d.Formats
	if f.SetNotNull == "" {
		return []string{g.format(f.ModifyColumn, values)}
	}

	var out []string
	if typeChanged(from, to) {
		out = append(out, g.format(f.ModifyColumn, values))
	}
	if nullChanged {
		if to.Nullable && !to.PrimaryKey {
			out = append(out, g.format(f.DropNotNull, values))
		} else {
			out = append(out, g.format(f.SetNotNull, values))
		}
	}
	if defaultChanged {
		if hasLit {
			values["default"] = lit
			out = append(out, g.format(f.SetDefault, values))
		} else {
			out = append(out, g.format(f.DropDefault, values))
		}
	}
	if len(out) == 0 {
		out = append(out, g.format(f.ModifyColumn, values))
	}
	return out
}

func typeChanged(a, b schema.Field) bool {
	return a.Type.Normalize() != b.Type.Normalize() || a.Length != b.Length ||
		a.Precision != b.Precision || a.Scale != b.Scale
}

func nullClause(f schema.Field) string {
	if f.Nullable && !f.PrimaryKey {
		return " NULL"
	}
	return " NOT NULL"
}

func describeDiff(before, after *schema.Model, d *diff.Result) string {
	added, removed, modified := d.TableNames()
	from, to := before.Version, after.Version
	if from == "" {
		from = "empty"
	}
	if to == "" {
		to = "current"
	}
	return fmt.Sprintf("Migrate %s from %s to %s: %d added, %d removed, %d modified tables",
		after.Name, from, to, len(added), len(removed), len(modified))
}
