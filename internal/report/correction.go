package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reloquent/schemaforge/internal/correction"
)

// Correction renders the fixes applied by the Corrector and the issues
// left over.
func Correction(w io.Writer, res *correction.Result, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, res)
	}

	s := res.Summary
	fmt.Fprintln(w, titleStyle.Render("Corrections"))
	fmt.Fprintf(w, "%d issues: %d fixed, %d resolved by other fixes, %d remaining",
		s.TotalIssues, s.Fixed, s.Resolved, s.Remaining)
	if s.ErrorsRemaining > 0 {
		fmt.Fprintf(w, " (%s)", errStyle.Render(fmt.Sprintf("%d errors", s.ErrorsRemaining)))
	}
	fmt.Fprint(w, "\n\n")

	if len(res.AppliedFixes) > 0 {
		writeFixes(w, res.AppliedFixes)
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, dimStyle.Render("No fixes applied."))
	}

	if len(res.RemainingIssues) > 0 {
		fmt.Fprintln(w, headingStyle.Render("Remaining issues"))
		writeIssues(w, res.RemainingIssues)
	}
	return nil
}

func writeFixes(w io.Writer, fixes []correction.Fix) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Type", "Target", "Change", "Impact"})
	for i, f := range fixes {
		t.AppendRow(table.Row{i + 1, f.Type, f.Target.String(), f.Description, f.Impact})
	}
	t.Render()
}
