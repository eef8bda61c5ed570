// Package ddl compiles a schema model into dependency-ordered DDL for one
// dialect.
package ddl

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/graph"
	"github.com/reloquent/schemaforge/internal/schema"
)

// StatementKind classifies a generated statement.
type StatementKind string

const (
	KindCreateSequence StatementKind = "CREATE_SEQUENCE"
	KindCreateTable    StatementKind = "CREATE_TABLE"
	KindAddForeignKey  StatementKind = "ADD_CONSTRAINT"
	KindAddConstraint  StatementKind = "ADD_CONSTRAINT"
	KindCreateIndex    StatementKind = "CREATE_INDEX"
	KindComment        StatementKind = "COMMENT"
)

// Statement is one generated SQL statement.
type Statement struct {
	Kind         StatementKind `json:"kind" yaml:"kind"`
	Table        string        `json:"table" yaml:"table"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	SQL          string        `json:"sql" yaml:"sql"`
	Dependencies []string      `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Description  string        `json:"description" yaml:"description"`
}

// Options toggles optional parts of the output.
type Options struct {
	Comments    bool   `yaml:"comments"`
	Indexes     bool   `yaml:"indexes"`
	Constraints bool   `yaml:"constraints"` // foreign keys and enum CHECKs
	IfNotExists bool   `yaml:"if_not_exists"`
	TablePrefix string `yaml:"table_prefix,omitempty"`
	// InlineIndexes declares indexes inside CREATE TABLE where the dialect
	// allows it.
	InlineIndexes bool `yaml:"inline_indexes"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Comments: true, Indexes: true, Constraints: true}
}

// Result is the compiled DDL for one model.
type Result struct {
	GeneratedAt     time.Time         `json:"generated_at" yaml:"generated_at"`
	Dialect         dialect.Name      `json:"dialect" yaml:"dialect"`
	Statements      []Statement       `json:"statements" yaml:"statements"`
	Warnings        []dialect.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	EstimatedSize   int               `json:"estimated_size" yaml:"estimated_size"`
	DeploymentOrder []string          `json:"deployment_order" yaml:"deployment_order"`
}

// SQL returns the statement texts in order.
func (r *Result) SQL() []string {
	out := make([]string, len(r.Statements))
	for i, s := range r.Statements {
		out[i] = s.SQL
	}
	return out
}

// Script joins all statements into a single SQL script.
func (r *Result) Script() string {
	if len(r.Statements) == 0 {
		return ""
	}
	return strings.Join(r.SQL(), "\n\n") + "\n"
}

// Compile renders the model for the named dialect. Only a structurally
// malformed model produces an error; everything else degrades with a
// warning.
func Compile(m *schema.Model, name dialect.Name, opts Options) (*Result, error) {
	c, err := New(m, name, opts)
	if err != nil {
		return nil, err
	}
	return c.Compile(), nil
}

// Compiler renders statements for the tables of one model. Besides full
// compilation it exposes per-object renderers for the migration compiler.
type Compiler struct {
	model    *schema.Model
	d        *dialect.Dialect
	opts     Options
	graph    *graph.Graph
	warnings []dialect.Warning
	seen     map[string]bool
	once     map[string]bool
}

// New prepares a compiler. The model is read, never modified.
func New(m *schema.Model, name dialect.Name, opts Options) (*Compiler, error) {
	if err := m.Check(); err != nil {
		return nil, err
	}
	d, warnings := dialect.Resolve(name)
	c := &Compiler{
		model: m,
		d:     d,
		opts:  opts,
		graph: graph.New(m),
		seen:  make(map[string]bool),
		once:  make(map[string]bool),
	}
	c.warn(warnings...)
	return c, nil
}

// Dialect returns the resolved dialect.
func (c *Compiler) Dialect() *dialect.Dialect {
	return c.d
}

// Model returns the model being compiled.
func (c *Compiler) Model() *schema.Model {
	return c.model
}

// Warnings returns the warnings collected so far, without duplicates.
func (c *Compiler) Warnings() []dialect.Warning {
	return append([]dialect.Warning(nil), c.warnings...)
}

func (c *Compiler) warn(ws ...dialect.Warning) {
	for _, w := range ws {
		key := w.String()
		if c.seen[key] {
			continue
		}
		c.seen[key] = true
		c.warnings = append(c.warnings, w)
	}
}

// warnOnce records a dialect-level warning a single time per compiler.
func (c *Compiler) warnOnce(key, msg string) {
	if c.once[key] {
		return
	}
	c.once[key] = true
	c.warn(dialect.Warning{Message: msg})
}

// Order returns the table names in dependency order. A cycle produces a
// warning and keeps model order for the tables involved.
func (c *Compiler) Order() []string {
	order, err := c.graph.Sort()
	var ce *graph.CycleError
	if errors.As(err, &ce) {
		c.warn(dialect.Warning{Message: ce.Error() + "; tables created in model order and constraints added afterwards"})
	}
	return order
}

// Compile renders every table: CREATE TABLE statements in dependency order,
// then foreign keys, then indexes, then comments.
func (c *Compiler) Compile() *Result {
	order := c.Order()
	tables := c.tablesInOrder(order)

	var creates, fks, indexes, comments []Statement
	for _, t := range tables {
		creates = append(creates, c.CreateTable(t)...)
	}
	for _, t := range tables {
		fks = append(fks, c.ForeignKeys(t)...)
	}
	for _, t := range tables {
		indexes = append(indexes, c.Indexes(t)...)
	}
	for _, t := range tables {
		comments = append(comments, c.Comments(t)...)
	}

	stmts := make([]Statement, 0, len(creates)+len(fks)+len(indexes)+len(comments))
	stmts = append(stmts, creates...)
	stmts = append(stmts, fks...)
	stmts = append(stmts, indexes...)
	stmts = append(stmts, comments...)

	size := 0
	for _, s := range stmts {
		size += len(s.SQL)
	}

	deployment := make([]string, len(order))
	for i, n := range order {
		deployment[i] = c.PrefixedName(n)
	}

	return &Result{
		GeneratedAt:     time.Now().UTC(),
		Dialect:         c.d.Name,
		Statements:      stmts,
		Warnings:        c.Warnings(),
		EstimatedSize:   size,
		DeploymentOrder: deployment,
	}
}

// Tables returns the model's tables in dependency order.
func (c *Compiler) Tables() []*schema.Table {
	return c.tablesInOrder(c.Order())
}

// CompileTables renders only the named tables, in dependency order, with
// the rest of the model available for reference lookups.
func (c *Compiler) CompileTables(names []string) []Statement {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var selected []*schema.Table
	for _, t := range c.tablesInOrder(c.Order()) {
		if want[t.Name] {
			selected = append(selected, t)
		}
	}

	var creates, fks, indexes, comments []Statement
	for _, t := range selected {
		creates = append(creates, c.CreateTable(t)...)
		fks = append(fks, c.ForeignKeys(t)...)
		indexes = append(indexes, c.Indexes(t)...)
		comments = append(comments, c.Comments(t)...)
	}
	out := append(creates, fks...)
	out = append(out, indexes...)
	return append(out, comments...)
}

// tablesInOrder maps sorted names back to tables. Duplicate names are
// consumed in model order so each table is rendered once.
func (c *Compiler) tablesInOrder(order []string) []*schema.Table {
	byName := make(map[string][]int)
	for i, t := range c.model.Tables {
		byName[t.Name] = append(byName[t.Name], i)
	}
	out := make([]*schema.Table, 0, len(order))
	for _, n := range order {
		idx := byName[n]
		if len(idx) == 0 {
			continue
		}
		out = append(out, &c.model.Tables[idx[0]])
		byName[n] = idx[1:]
	}
	return out
}

// PrefixedName applies the configured table prefix.
func (c *Compiler) PrefixedName(table string) string {
	return c.opts.TablePrefix + table
}

// TableName returns the quoted, prefixed table name.
func (c *Compiler) TableName(table string) string {
	return c.d.QuoteIdentifier(c.PrefixedName(table))
}

// Quote quotes an identifier for the dialect.
func (c *Compiler) Quote(name string) string {
	return c.d.QuoteIdentifier(name)
}

func (c *Compiler) quoteList(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = c.d.QuoteIdentifier(n)
	}
	return strings.Join(q, ", ")
}

// ConstraintName builds a constraint or index name such as
// fk_orders_user_id, truncated to the dialect's identifier limit.
func (c *Compiler) ConstraintName(prefix, table string, fields ...string) string {
	parts := append([]string{prefix, c.PrefixedName(table)}, fields...)
	return c.d.Truncate(strings.Join(parts, "_"))
}

// SequenceName names the sequence backing an autoincrement field.
func (c *Compiler) SequenceName(table, field string) string {
	return c.d.Truncate(fmt.Sprintf("%s_%s_seq", c.PrefixedName(table), field))
}

func describe(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
