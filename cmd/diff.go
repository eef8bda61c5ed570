package cmd

import (
	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/diff"
	"github.com/reloquent/schemaforge/internal/report"
)

var diffFormat string

var diffCmd = &cobra.Command{
	Use:   "diff <old.yaml> <new.yaml>",
	Short: "Show the structural difference between two models",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(diffFormat)
		if err != nil {
			return err
		}
		before, err := loadModel(args[0])
		if err != nil {
			return err
		}
		after, err := loadModel(args[1])
		if err != nil {
			return err
		}
		return report.Diff(cmd.OutOrStdout(), diff.Compare(before, after), format)
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffFormat, "format", "text", "output format: text, json")
	rootCmd.AddCommand(diffCmd)
}
