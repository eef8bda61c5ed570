package cmd

import (
	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/report"
)

var dialectsFormat string

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List the supported SQL dialects and their features",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(dialectsFormat)
		if err != nil {
			return err
		}
		return report.Dialects(cmd.OutOrStdout(), dialect.All(), format)
	},
}

func init() {
	dialectsCmd.Flags().StringVar(&dialectsFormat, "format", "text", "output format: text, json")
	rootCmd.AddCommand(dialectsCmd)
}
