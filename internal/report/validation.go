package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reloquent/schemaforge/internal/validation"
)

// Validation renders a validation result.
func Validation(w io.Writer, res *validation.Result, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, res)
	}

	status := successStyle.Render("VALID")
	if !res.IsValid {
		status = errStyle.Render("INVALID")
	}
	fmt.Fprintln(w, titleStyle.Render("Validation ("+res.Dialect+")"))
	fmt.Fprintf(w, "Status: %s  Score: %d/100\n", status, res.Score)
	fmt.Fprintf(w, "Issues: %d errors, %d warnings, %d info\n\n",
		res.Summary.Errors, res.Summary.Warnings, res.Summary.Infos)

	if len(res.Issues) > 0 {
		writeIssues(w, res.Issues)
		fmt.Fprintln(w)
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, headingStyle.Render("Suggestions"))
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	return nil
}

func writeIssues(w io.Writer, issues []validation.Issue) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Severity", "Rule", "Target", "Message", "Fix"})
	for _, is := range issues {
		fix := ""
		if is.AutoFixable {
			fix = "auto"
		}
		t.AppendRow(table.Row{Severity(is.Severity), is.RuleID, is.Target.String(), is.Message, fix})
	}
	t.Render()
}

// Severity renders a severity label in its color.
func Severity(s validation.Severity) string {
	switch s {
	case validation.SeverityError:
		return errStyle.Render(string(s))
	case validation.SeverityWarning:
		return warnStyle.Render(string(s))
	default:
		return infoStyle.Render(string(s))
	}
}
