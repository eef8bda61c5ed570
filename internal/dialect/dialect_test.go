package dialect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloquent/schemaforge/internal/schema"
)

func TestCatalog_Coverage(t *testing.T) {
	names := Names()
	require.Len(t, names, 6)
	assert.Equal(t, []Name{ANSI, MySQL, Oracle, PostgreSQL, SQLite, SQLServer}, names)

	quotes := map[string]bool{}
	strategies := map[AutoIncrementStrategy]bool{}
	noAlter := false
	for _, d := range All() {
		quotes[d.QuoteOpen] = true
		strategies[d.AutoIncrement] = true
		if !d.Features.AlterColumnType {
			noAlter = true
			assert.Empty(t, d.Formats.ModifyColumn, "%s cannot alter types but has a format", d.Name)
		}
		assert.True(t, d.Supports(schema.TypeText), "%s must map TEXT", d.Name)
		assert.True(t, d.Supports(schema.TypeVarchar), "%s must map VARCHAR", d.Name)
		assert.True(t, d.Supports(schema.TypeEnum), "%s must map ENUM", d.Name)
		assert.NotEmpty(t, d.Formats.Begin)
		assert.NotEmpty(t, d.Formats.Commit)
	}

	assert.Len(t, quotes, 3, "backtick, double quote and bracket")
	assert.Len(t, strategies, 4, "inline, identity, sequence and none")
	assert.True(t, noAlter, "at least one dialect lacks in-place ALTER of column types")
}

func TestLookup(t *testing.T) {
	tests := []struct {
		in   Name
		want Name
		ok   bool
	}{
		{"mysql", MySQL, true},
		{"MariaDB", MySQL, true},
		{"postgres", PostgreSQL, true},
		{" PG ", PostgreSQL, true},
		{"mssql", SQLServer, true},
		{"sqlite3", SQLite, true},
		{"oracle", Oracle, true},
		{"db2", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			d, ok := Lookup(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, d.Name)
			}
		})
	}
}

func TestResolve_UnknownFallsBackToANSI(t *testing.T) {
	d, warnings := Resolve("db2")
	assert.Equal(t, ANSI, d.Name)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, `unknown dialect "db2"`)

	d, warnings = Resolve(PostgreSQL)
	assert.Equal(t, PostgreSQL, d.Name)
	assert.Empty(t, warnings)
}

func TestMustLookup_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLookup("nope") })
	assert.NotPanics(t, func() { MustLookup(SQLServer) })
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		dialect Name
		in      string
		want    string
	}{
		{MySQL, "users", "`users`"},
		{MySQL, "we`ird", "`we``ird`"},
		{PostgreSQL, "users", `"users"`},
		{PostgreSQL, `a"b`, `"a""b"`},
		{SQLServer, "users", "[users]"},
		{SQLServer, "a]b", "[a]]b]"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect)+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MustLookup(tt.dialect).QuoteIdentifier(tt.in))
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	pg := MustLookup(PostgreSQL)

	tests := []struct {
		name string
		in   string
		kind IdentifierKind
		want string
	}{
		{"clean", "user_accounts", KindTable, "user_accounts"},
		{"accents stripped", "café_crème", KindTable, "cafe_creme"},
		{"invalid characters", "order-items (v2)", KindTable, "order_items_v2"},
		{"leading digit", "2fa_codes", KindTable, "t_2fa_codes"},
		{"leading digit field", "1st_name", KindField, "f_1st_name"},
		{"reserved table", "order", KindTable, "order_tbl"},
		{"reserved field", "user", KindField, "user_col"},
		{"reserved case-insensitive", "Select", KindField, "Select_col"},
		{"nothing left", "!!!", KindField, "f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pg.SanitizeIdentifier(tt.in, tt.kind))
		})
	}
}

func TestSanitizeIdentifier_Truncates(t *testing.T) {
	my := MustLookup(MySQL)
	long := strings.Repeat("a", 100)
	got := my.SanitizeIdentifier(long, KindTable)
	assert.Len(t, got, 64)
}

func TestIsReserved_PerDialect(t *testing.T) {
	assert.True(t, MustLookup(PostgreSQL).IsReserved("user"))
	assert.False(t, MustLookup(MySQL).IsReserved("user"))
	assert.True(t, MustLookup(MySQL).IsReserved("KEY"))
	assert.True(t, MustLookup(SQLite).IsReserved("order"), "core words are reserved everywhere")
	assert.False(t, MustLookup(MySQL).IsReserved("users"))
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in    schema.FieldType
		want  schema.FieldType
		known bool
	}{
		{"varchar", schema.TypeVarchar, true},
		{"STRING", schema.TypeVarchar, true},
		{"integer", schema.TypeInt, true},
		{"jsonb", schema.TypeJSON, true},
		{"timestamp with time zone", schema.TypeTimestamp, true},
		{"geometry", "GEOMETRY", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, known := ParseType(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestMapType_Degrades(t *testing.T) {
	ss := MustLookup(SQLServer)

	m := ss.MapType(schema.TypeJSON)
	assert.True(t, m.Degraded)
	assert.Equal(t, schema.TypeText, m.Type)
	assert.Equal(t, "NVARCHAR(MAX)", m.Spec.Native)

	m = ss.MapType(schema.TypeUUID)
	assert.False(t, m.Degraded)
	assert.Equal(t, "UNIQUEIDENTIFIER", m.Spec.Native)

	m = MustLookup(MySQL).MapType(schema.TypeUUID)
	assert.True(t, m.Degraded)
	assert.Equal(t, schema.TypeChar, m.Type)
	assert.Equal(t, 36, m.Length)

	m = MustLookup(PostgreSQL).MapType("GEOMETRY")
	assert.True(t, m.Unknown)
	assert.Equal(t, schema.TypeText, m.Type)
	assert.Equal(t, "TEXT", m.Spec.Native)

	m = MustLookup(Oracle).MapType(schema.TypeArray)
	assert.True(t, m.Degraded)
	assert.Equal(t, "CLOB", m.Spec.Native)
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Name
		field    schema.Field
		want     string
		warnings int
	}{
		{"mysql varchar", MySQL, schema.Field{Name: "f", Type: schema.TypeVarchar, Length: 50}, "VARCHAR(50)", 0},
		{"mysql varchar default length", MySQL, schema.Field{Name: "f", Type: schema.TypeVarchar}, "VARCHAR(255)", 0},
		{"pg decimal", PostgreSQL, schema.Field{Name: "f", Type: schema.TypeDecimal, Precision: 12, Scale: 4}, "NUMERIC(12,4)", 0},
		{"pg decimal default", PostgreSQL, schema.Field{Name: "f", Type: schema.TypeDecimal}, "NUMERIC(10,2)", 0},
		{"mysql uuid", MySQL, schema.Field{Name: "f", Type: schema.TypeUUID}, "CHAR(36)", 1},
		{"mysql enum", MySQL, schema.Field{Name: "f", Type: schema.TypeEnum, EnumValues: []string{"a", "it's"}}, "ENUM('a','it''s')", 0},
		{"pg enum emulated", PostgreSQL, schema.Field{Name: "f", Type: schema.TypeEnum, EnumValues: []string{"new", "shipped"}}, "VARCHAR(7)", 0},
		{"sqlserver enum no values", SQLServer, schema.Field{Name: "f", Type: schema.TypeEnum}, "NVARCHAR(255)", 1},
		{"oracle int", Oracle, schema.Field{Name: "f", Type: "integer"}, "NUMBER(10)", 0},
		{"sqlite varchar", SQLite, schema.Field{Name: "f", Type: schema.TypeVarchar, Length: 20}, "TEXT", 0},
		{"unknown type", ANSI, schema.Field{Name: "f", Type: "POINT"}, "CLOB", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := MustLookup(tt.dialect).ColumnType("t", tt.field)
			assert.Equal(t, tt.want, got)
			assert.Len(t, warnings, tt.warnings)
			for _, w := range warnings {
				assert.Equal(t, "t", w.Table)
				assert.Equal(t, "f", w.Field)
			}
		})
	}
}

func TestFormatDefault(t *testing.T) {
	tests := []struct {
		name    string
		dialect Name
		field   schema.Field
		want    string
		ok      bool
	}{
		{"no default", MySQL, schema.Field{Type: schema.TypeInt}, "", false},
		{"now mysql", MySQL, schema.Field{Type: schema.TypeTimestamp, Default: "now()"}, "CURRENT_TIMESTAMP", true},
		{"now sqlserver", SQLServer, schema.Field{Type: schema.TypeDateTime, Default: "CURRENT_TIMESTAMP"}, "GETDATE()", true},
		{"now oracle", Oracle, schema.Field{Type: schema.TypeTimestamp, Default: "NOW"}, "SYSTIMESTAMP", true},
		{"string escaped", PostgreSQL, schema.Field{Type: schema.TypeVarchar, Default: "it's"}, "'it''s'", true},
		{"numeric int", PostgreSQL, schema.Field{Type: schema.TypeInt, Default: 42}, "42", true},
		{"numeric float", PostgreSQL, schema.Field{Type: schema.TypeDecimal, Default: 9.5}, "9.5", true},
		{"numeric string", PostgreSQL, schema.Field{Type: schema.TypeInt, Default: "7"}, "7", true},
		{"numeric-looking text stays quoted", PostgreSQL, schema.Field{Type: schema.TypeVarchar, Default: "7"}, "'7'", true},
		{"bool pg", PostgreSQL, schema.Field{Type: schema.TypeBoolean, Default: true}, "TRUE", true},
		{"bool mysql", MySQL, schema.Field{Type: schema.TypeBoolean, Default: false}, "0", true},
		{"bool string", SQLServer, schema.Field{Type: schema.TypeBoolean, Default: "true"}, "1", true},
		{"null", MySQL, schema.Field{Type: schema.TypeVarchar, Default: "null"}, "NULL", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MustLookup(tt.dialect).FormatDefault(tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	got := Format(MustLookup(MySQL).Formats.DropIndex, map[string]string{
		"index": "`idx_a`",
		"table": "`t`",
	})
	assert.Equal(t, "DROP INDEX `idx_a` ON `t`", got)
}

func TestWarningString(t *testing.T) {
	assert.Equal(t, "t.f: msg", Warning{Table: "t", Field: "f", Message: "msg"}.String())
	assert.Equal(t, "t: msg", Warning{Table: "t", Message: "msg"}.String())
	assert.Equal(t, "msg", Warning{Message: "msg"}.String())
}
