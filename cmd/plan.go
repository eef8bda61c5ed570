package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/migration"
	"github.com/reloquent/schemaforge/internal/report"
	"github.com/reloquent/schemaforge/internal/state"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan [script.yaml...]",
	Short: "Aggregate migration scripts into a plan",
	Long: `Order migration scripts by creation time and sum their operations,
estimated time and risk. Without arguments the scripts recorded in the
project state are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(planFormat)
		if err != nil {
			return err
		}

		var scripts []*migration.Script
		if len(args) > 0 {
			for _, path := range args {
				s, err := migration.LoadScript(path)
				if err != nil {
					return err
				}
				scripts = append(scripts, s)
			}
		} else {
			st, err := state.Load(cfg.StateFile)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			var missing []string
			scripts, missing, err = st.LoadScripts()
			if err != nil {
				return err
			}
			for _, path := range missing {
				logger.Warn("recorded migration script not found", "path", path)
			}
		}

		return report.Plan(cmd.OutOrStdout(), migration.GeneratePlan(scripts), format)
	},
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "text", "output format: text, json")
	rootCmd.AddCommand(planCmd)
}
