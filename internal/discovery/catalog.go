package discovery

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/reloquent/schemaforge/internal/schema"
	"github.com/reloquent/schemaforge/internal/typemap"
)

// Catalog rows as returned by the per-database queries. Each query fills
// its own slice so they can run concurrently; build merges them.

type tableRow struct {
	name    string
	comment string
}

type columnRow struct {
	table    string
	name     string
	native   typemap.Column
	udt      string // user-defined type name, used for PostgreSQL enums
	nullable bool
	def      *string
	identity bool
	comment  string
}

type keyRow struct {
	table  string
	column string
}

type fkRow struct {
	table, constraint  string
	column             string
	refTable, refField string
	onDelete, onUpdate string
}

type indexRow struct {
	table, index string
	unique       bool
	column       string
}

type checkRow struct {
	table, constraint string
	clause            string
}

type catalog struct {
	name       string
	tables     []tableRow
	columns    []columnRow
	primary    []keyRow
	identities []keyRow
	foreign    []fkRow
	indexes    []indexRow
	checks     []checkRow
	enums      map[string][]string // user-defined enum type -> labels
}

// build converts catalog rows into a schema model. Tables are sorted by
// name and fields keep their ordinal order.
func build(cat *catalog, tm *typemap.TypeMap) *Result {
	res := &Result{Model: &schema.Model{Name: cat.name, Tables: []schema.Table{}}}
	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	sort.SliceStable(cat.tables, func(i, j int) bool { return cat.tables[i].name < cat.tables[j].name })
	tableMap := make(map[string]*schema.Table, len(cat.tables))
	res.Model.Tables = make([]schema.Table, len(cat.tables))
	for i, tr := range cat.tables {
		res.Model.Tables[i] = schema.Table{Name: tr.name, Comment: tr.comment, Fields: []schema.Field{}}
		tableMap[tr.name] = &res.Model.Tables[i]
	}

	for _, c := range cat.columns {
		t, ok := tableMap[c.table]
		if !ok {
			continue
		}
		f := tm.Field(c.native)
		f.Name = c.name
		f.Nullable = c.nullable
		f.Comment = c.comment
		if labels, ok := cat.enums[c.udt]; ok && c.udt != "" {
			f.Type = schema.TypeEnum
			f.EnumValues = append([]string(nil), labels...)
		}
		if c.identity {
			f.AutoIncrement = true
		} else if c.def != nil {
			v, ok := parseDefault(*c.def)
			if !ok {
				warn("%s.%s: default expression %q kept as a literal", c.table, c.name, strings.TrimSpace(*c.def))
			}
			f.Default = v
		}
		t.Fields = append(t.Fields, f)
	}

	for _, k := range cat.identities {
		if t, ok := tableMap[k.table]; ok {
			if f := t.Field(k.column); f != nil {
				f.AutoIncrement = true
				f.Default = nil
			}
		}
	}

	pks := make(map[string][]string)
	for _, k := range cat.primary {
		pks[k.table] = append(pks[k.table], k.column)
	}
	for name, cols := range pks {
		t, ok := tableMap[name]
		if !ok {
			continue
		}
		for _, col := range cols {
			if f := t.Field(col); f != nil {
				f.PrimaryKey = true
				f.Nullable = false
			}
		}
	}

	applyIndexes(tableMap, cat.indexes, pks)
	applyChecks(tableMap, cat.checks)
	res.Model.Relationships = applyForeignKeys(tableMap, cat.foreign, warn)

	return res
}

func applyIndexes(tableMap map[string]*schema.Table, rows []indexRow, pks map[string][]string) {
	type idxKey struct{ table, index string }
	grouped := make(map[idxKey]*schema.Index)
	var order []idxKey
	for _, r := range rows {
		k := idxKey{r.table, r.index}
		ix, exists := grouped[k]
		if !exists {
			ix = &schema.Index{Name: r.index, Unique: r.unique}
			grouped[k] = ix
			order = append(order, k)
		}
		ix.Fields = append(ix.Fields, r.column)
	}

	for _, k := range order {
		t, ok := tableMap[k.table]
		if !ok {
			continue
		}
		ix := grouped[k]
		if sameFields(ix.Fields, pks[k.table]) {
			continue
		}
		// Single-column unique indexes become field flags so that
		// compiled DDL does not declare them twice.
		if ix.Unique && len(ix.Fields) == 1 {
			if f := t.Field(ix.Fields[0]); f != nil {
				f.Unique = true
				continue
			}
		}
		t.Indexes = append(t.Indexes, *ix)
	}
}

func applyForeignKeys(tableMap map[string]*schema.Table, rows []fkRow, warn func(string, ...any)) []schema.Relationship {
	type fkKey struct{ table, constraint string }
	grouped := make(map[fkKey][]fkRow)
	var order []fkKey
	for _, r := range rows {
		k := fkKey{r.table, r.constraint}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], r)
	}

	var rels []schema.Relationship
	for _, k := range order {
		cols := grouped[k]
		t, ok := tableMap[k.table]
		if !ok {
			continue
		}
		if len(cols) > 1 {
			warn("%s: composite foreign key %s skipped", k.table, k.constraint)
			continue
		}
		r := cols[0]
		f := t.Field(r.column)
		if f == nil {
			continue
		}
		f.References = &schema.Reference{Table: r.refTable, Field: r.refField}
		rels = append(rels, schema.Relationship{
			FromTable: r.table,
			FromField: r.column,
			ToTable:   r.refTable,
			ToField:   r.refField,
			OnDelete:  referentialRule(r.onDelete),
			OnUpdate:  referentialRule(r.onUpdate),
		})
	}
	return rels
}

// referentialRule drops the catalog's default action.
func referentialRule(rule string) string {
	switch strings.ToUpper(strings.TrimSpace(rule)) {
	case "", "NO ACTION":
		return ""
	default:
		return strings.ToUpper(strings.TrimSpace(rule))
	}
}

func applyChecks(tableMap map[string]*schema.Table, rows []checkRow) {
	for _, r := range rows {
		t, ok := tableMap[r.table]
		if !ok {
			continue
		}
		col, values, ok := enumFromCheck(r.clause)
		if !ok {
			continue
		}
		f := t.Field(col)
		if f == nil || len(f.EnumValues) > 0 {
			continue
		}
		switch f.Type {
		case schema.TypeVarchar, schema.TypeChar, schema.TypeText:
			f.Type = schema.TypeEnum
			f.EnumValues = values
			f.Length = 0
		}
	}
}

var (
	// col IN ('a', 'b') in either catalog's spelling.
	inListCheck = regexp.MustCompile(`(?is)^\(*\s*"?(\w+)"?\s+IN\s*\((.*)\)\s*\)*$`)
	// PostgreSQL rewrites IN lists as ((col)::text = ANY ((ARRAY['a'::character varying, ...])::text[])).
	anyArrayCheck = regexp.MustCompile(`(?is)^\(*\s*"?(\w+)"?\)?(?:::\w+(?: \w+)?)?\s*=\s*ANY\s*\(+\s*ARRAY\[(.*?)\]`)
	quoted        = regexp.MustCompile(`'((?:[^']|'')*)'`)
)

// enumFromCheck recognizes CHECK clauses that restrict one column to a
// list of string literals.
func enumFromCheck(clause string) (string, []string, bool) {
	clause = strings.TrimSpace(clause)
	var col, list string
	if m := anyArrayCheck.FindStringSubmatch(clause); m != nil {
		col, list = m[1], m[2]
	} else if m := inListCheck.FindStringSubmatch(clause); m != nil {
		col, list = m[1], m[2]
	} else {
		return "", nil, false
	}
	var values []string
	for _, q := range quoted.FindAllStringSubmatch(list, -1) {
		values = append(values, strings.ReplaceAll(q[1], "''", "'"))
	}
	if len(values) == 0 {
		return "", nil, false
	}
	return col, values, true
}

var castSuffix = regexp.MustCompile(`::[\w\s]+(\[\])?$`)

// parseDefault converts a catalog default expression into a model default.
// It reports false when the expression is not a literal the model can
// represent; the trimmed expression is then returned as a string.
func parseDefault(expr string) (any, bool) {
	s := strings.TrimSpace(expr)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = castSuffix.ReplaceAllString(s, "")

	upper := strings.ToUpper(s)
	switch upper {
	case "NULL":
		return nil, true
	case "TRUE":
		return true, true
	case "FALSE":
		return false, true
	case "NOW()", "CURRENT_TIMESTAMP", "SYSDATE", "SYSTIMESTAMP", "LOCALTIMESTAMP", "CURRENT_TIMESTAMP(6)":
		return "CURRENT_TIMESTAMP", true
	}
	if strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2 {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s, true
	}
	return s, false
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
