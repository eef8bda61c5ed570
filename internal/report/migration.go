package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reloquent/schemaforge/internal/ddl"
	"github.com/reloquent/schemaforge/internal/diff"
	"github.com/reloquent/schemaforge/internal/migration"
)

// Compile renders a DDL result. Text output is the SQL itself, one
// statement per paragraph, followed by warnings as comments.
func Compile(w io.Writer, res *ddl.Result, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, res)
	}
	for _, st := range res.Statements {
		fmt.Fprintf(w, "%s\n\n", st.SQL)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "-- WARNING: %s\n", warn)
	}
	return nil
}

// Diff renders a structural diff.
func Diff(w io.Writer, d *diff.Result, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, d)
	}
	added, removed, modified := d.TableNames()
	fmt.Fprintln(w, titleStyle.Render("Schema diff"))
	fmt.Fprintf(w, "Tables: %s added, %s removed, %d modified\n\n",
		successStyle.Render(fmt.Sprint(len(added))), errStyle.Render(fmt.Sprint(len(removed))), len(modified))
	fmt.Fprint(w, d.Summary())
	return nil
}

// Script renders the summary of a generated migration script.
func Script(w io.Writer, s *migration.Script, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Migration %s (%s)", s.Version, s.Dialect)))
	if s.Metadata.Description != "" {
		fmt.Fprintln(w, s.Metadata.Description)
	}
	fmt.Fprintf(w, "Risk: %s (score %d)  Data loss: %s  Estimated time: %s\n\n",
		risk(s.Metadata.RiskLevel), s.Metadata.RiskScore, dataLoss(s.Metadata.DataLoss),
		time.Duration(s.Metadata.EstimatedTime)*time.Second)

	counts := s.CountByType()
	types := make([]string, 0, len(counts))
	for typ := range counts {
		types = append(types, string(typ))
	}
	sort.Strings(types)

	t := newTable(w)
	t.AppendHeader(table.Row{"Operation", "Count"})
	for _, typ := range types {
		t.AppendRow(table.Row{typ, counts[migration.OperationType(typ)]})
	}
	t.AppendFooter(table.Row{"Total", len(s.Operations)})
	t.Render()

	for _, warn := range s.Metadata.Warnings {
		fmt.Fprintln(w, warnStyle.Render("WARNING: "+warn.String()))
	}
	return nil
}

// Plan renders an aggregated migration plan.
func Plan(w io.Writer, p *migration.Plan, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, p)
	}
	fmt.Fprintln(w, titleStyle.Render("Migration plan"))
	if len(p.Scripts) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No migration scripts."))
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Version", "Dialect", "Operations", "Risk", "Data loss", "Est. time", "Created"})
	for _, s := range p.Scripts {
		t.AppendRow(table.Row{
			s.Version,
			s.Dialect,
			len(s.Operations),
			risk(s.Metadata.RiskLevel),
			yesNo(s.Metadata.DataLoss),
			time.Duration(s.Metadata.EstimatedTime) * time.Second,
			s.Metadata.CreatedAt.Format(time.DateTime),
		})
	}
	t.Render()

	fmt.Fprintf(w, "\n%d operations, estimated %s, overall risk %s, %d data-loss operations\n",
		p.TotalOperations, time.Duration(p.EstimatedTime)*time.Second, risk(p.RiskLevel), p.DataLossOperations)
	return nil
}

func risk(r migration.RiskLevel) string {
	switch r {
	case migration.RiskHigh:
		return errStyle.Render(string(r))
	case migration.RiskMedium:
		return warnStyle.Render(string(r))
	default:
		return successStyle.Render(string(r))
	}
}

func dataLoss(b bool) string {
	if b {
		return errStyle.Render("yes")
	}
	return "no"
}
