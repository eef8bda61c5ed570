package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the migration scripts recorded in the project state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := state.Load(cfg.StateFile)
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(st.Migrations) == 0 {
			fmt.Fprintf(out, "No migrations recorded in %s\n", cfg.StateFile)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Version", "Dialect", "Status", "Risk", "Data loss", "Created", "Script"})
		for _, e := range st.Migrations {
			loss := ""
			if e.DataLoss {
				loss = "yes"
			}
			t.AppendRow(table.Row{e.Version, e.Dialect, e.Status, e.RiskLevel, loss, e.CreatedAt.Local().Format(time.DateTime), e.ScriptPath})
		}
		t.Render()
		fmt.Fprintf(out, "%d active of %d recorded\n", len(st.Active()), len(st.Migrations))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
