// Package dialect describes the SQL dialects the compiler can target.
//
// Every difference between dialects is data in a Dialect record: quoting,
// type maps, reserved words, autoincrement strategy, feature flags and
// statement formats. The catalog is built once at package initialization
// and must not be modified by callers.
package dialect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reloquent/schemaforge/internal/schema"
)

// Name is a dialect tag.
type Name string

const (
	MySQL      Name = "mysql"
	PostgreSQL Name = "postgresql"
	SQLServer  Name = "sqlserver"
	Oracle     Name = "oracle"
	SQLite     Name = "sqlite"
	ANSI       Name = "ansi"
)

// AutoIncrementStrategy describes how a dialect generates surrogate keys.
type AutoIncrementStrategy int

const (
	AutoIncrementNone AutoIncrementStrategy = iota
	AutoIncrementInline
	AutoIncrementIdentity
	AutoIncrementSequence
)

func (s AutoIncrementStrategy) String() string {
	switch s {
	case AutoIncrementInline:
		return "inline"
	case AutoIncrementIdentity:
		return "identity"
	case AutoIncrementSequence:
		return "sequence"
	default:
		return "none"
	}
}

// CommentStyle describes where table and column comments are emitted.
type CommentStyle int

const (
	CommentNone CommentStyle = iota
	CommentInline
	CommentStatement
)

// Features holds the capability flags of a dialect.
type Features struct {
	JSON               bool
	UUID               bool
	Arrays             bool
	PartialIndexes     bool
	CheckConstraints   bool
	GeneratedColumns   bool
	CTEs               bool
	NativeEnum         bool
	FulltextIndexes    bool
	AlterColumnType    bool
	AlterAddConstraint bool
	TableIfNotExists   bool
	IndexIfNotExists   bool
	InlineIndexes      bool
}

// TableOption renders one table-level option such as a storage engine.
type TableOption struct {
	Key     string
	Format  string // {value}
	Default string
}

// Statement formats use {table}, {column}, {definition}, {type}, {null},
// {default}, {index}, {constraint} and {sequence} placeholders. In a
// ModifyColumn format {null_change} and {default_change} render the clause
// only when that attribute changes, and are empty otherwise.
type Formats struct {
	AddColumn      string
	DropColumn     string
	ModifyColumn   string // empty when the type cannot change in place
	SetNotNull     string
	DropNotNull    string
	SetDefault     string
	DropDefault    string
	DropTable      string
	DropIndex      string
	DropConstraint string // empty when constraints cannot be dropped
	DropForeignKey string // empty when DropConstraint also drops foreign keys
	CreateSequence string
	DropSequence   string
	NextValue      string
	Begin          string
	Commit         string
}

// Dialect is the static description of one SQL dialect.
type Dialect struct {
	Name        Name
	DisplayName string

	QuoteOpen           string
	QuoteClose          string
	MaxIdentifierLength int

	AutoIncrement        AutoIncrementStrategy
	AutoIncrementKeyword string
	// InlinePrimaryKey means autoincrement is only valid on a column that
	// carries its own PRIMARY KEY clause.
	InlinePrimaryKey bool

	Features      Features
	NowExpression string
	TrueLiteral   string
	FalseLiteral  string
	Comments      CommentStyle
	TableOptions  []TableOption
	Formats       Formats

	// Referential actions accepted after ON DELETE / ON UPDATE.
	DeleteActions []string
	UpdateActions []string

	types    map[schema.FieldType]TypeSpec
	reserved map[string]struct{}
}

// Warning is a non-fatal diagnostic naming the table and field it concerns.
type Warning struct {
	Table   string `json:"table,omitempty" yaml:"table,omitempty"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	switch {
	case w.Table != "" && w.Field != "":
		return fmt.Sprintf("%s.%s: %s", w.Table, w.Field, w.Message)
	case w.Table != "":
		return fmt.Sprintf("%s: %s", w.Table, w.Message)
	default:
		return w.Message
	}
}

var catalog = buildCatalog()

func buildCatalog() map[Name]*Dialect {
	all := []*Dialect{mysql(), postgres(), sqlserver(), oracle(), sqlite(), ansi()}
	m := make(map[Name]*Dialect, len(all))
	for _, d := range all {
		d.reserved = reservedSet(d.Name)
		m[d.Name] = d
	}
	return m
}

// Lookup returns the dialect registered under the given tag. Tags are
// case-insensitive and accept a few common aliases.
func Lookup(name Name) (*Dialect, bool) {
	d, ok := catalog[canonicalName(name)]
	return d, ok
}

// MustLookup returns the dialect or panics. Intended for the built-in tags.
func MustLookup(name Name) *Dialect {
	d, ok := Lookup(name)
	if !ok {
		panic("dialect: unknown dialect " + string(name))
	}
	return d
}

// Resolve returns the dialect for a tag. Unknown tags fall back to ANSI SQL
// with a warning so that callers still get output.
func Resolve(name Name) (*Dialect, []Warning) {
	if d, ok := Lookup(name); ok {
		return d, nil
	}
	return catalog[ANSI], []Warning{{
		Message: fmt.Sprintf("unknown dialect %q, rendering ANSI SQL", name),
	}}
}

// Names returns all dialect tags sorted alphabetically.
func Names() []Name {
	names := make([]Name, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// All returns every dialect sorted by tag.
func All() []*Dialect {
	names := Names()
	out := make([]*Dialect, len(names))
	for i, n := range names {
		out[i] = catalog[n]
	}
	return out
}

func canonicalName(name Name) Name {
	switch strings.ToLower(strings.TrimSpace(string(name))) {
	case "mysql", "mariadb":
		return MySQL
	case "postgresql", "postgres", "pg":
		return PostgreSQL
	case "sqlserver", "mssql", "tsql":
		return SQLServer
	case "oracle":
		return Oracle
	case "sqlite", "sqlite3":
		return SQLite
	case "ansi", "sql":
		return ANSI
	}
	return Name(strings.ToLower(string(name)))
}

// Format fills a statement format with the given placeholder values.
func Format(format string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", values[k])
	}
	return strings.NewReplacer(pairs...).Replace(format)
}
