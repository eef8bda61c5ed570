package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reloquent/schemaforge/internal/dialect"
)

// dialectInfo is the JSON shape of one catalog entry.
type dialectInfo struct {
	Name                string   `json:"name"`
	DisplayName         string   `json:"display_name"`
	AutoIncrement       string   `json:"auto_increment"`
	MaxIdentifierLength int      `json:"max_identifier_length"`
	Features            []string `json:"features"`
}

// Dialects renders the dialect catalog with its feature flags.
func Dialects(w io.Writer, all []*dialect.Dialect, format Format) error {
	if format == FormatJSON {
		out := make([]dialectInfo, 0, len(all))
		for _, d := range all {
			out = append(out, dialectInfo{
				Name:                string(d.Name),
				DisplayName:         d.DisplayName,
				AutoIncrement:       d.AutoIncrement.String(),
				MaxIdentifierLength: d.MaxIdentifierLength,
				Features:            featureNames(d.Features),
			})
		}
		return writeJSON(w, out)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Dialect", "Name", "Auto increment", "Max ident", "JSON", "UUID", "Arrays", "Enum", "Check", "Alter type", "Add constraint"})
	for _, d := range all {
		f := d.Features
		t.AppendRow(table.Row{
			d.Name, d.DisplayName, d.AutoIncrement, d.MaxIdentifierLength,
			mark(f.JSON), mark(f.UUID), mark(f.Arrays), mark(f.NativeEnum),
			mark(f.CheckConstraints), mark(f.AlterColumnType), mark(f.AlterAddConstraint),
		})
	}
	t.Render()
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d dialects", len(all))))
	return nil
}

func mark(b bool) string {
	if b {
		return successStyle.Render("✓")
	}
	return dimStyle.Render("-")
}

func featureNames(f dialect.Features) []string {
	flags := []struct {
		name string
		on   bool
	}{
		{"json", f.JSON},
		{"uuid", f.UUID},
		{"arrays", f.Arrays},
		{"partial_indexes", f.PartialIndexes},
		{"check_constraints", f.CheckConstraints},
		{"generated_columns", f.GeneratedColumns},
		{"ctes", f.CTEs},
		{"native_enum", f.NativeEnum},
		{"fulltext_indexes", f.FulltextIndexes},
		{"alter_column_type", f.AlterColumnType},
		{"alter_add_constraint", f.AlterAddConstraint},
		{"table_if_not_exists", f.TableIfNotExists},
		{"index_if_not_exists", f.IndexIfNotExists},
		{"inline_indexes", f.InlineIndexes},
	}
	out := []string{}
	for _, fl := range flags {
		if fl.on {
			out = append(out, fl.name)
		}
	}
	return out
}
