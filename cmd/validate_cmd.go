package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/report"
	"github.com/reloquent/schemaforge/internal/validation"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate <model.yaml>",
	Short: "Check a model for structural, naming and type problems",
	Long: `Run the validation rules against a model for the configured dialect and
print the issues with a quality score. Exits non-zero when the model has
errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(validateFormat)
		if err != nil {
			return err
		}
		m, err := loadModel(args[0])
		if err != nil {
			return err
		}

		res := validation.Validate(m, cfg.Validation)
		logger.Info("validated", "model", m.Name, "dialect", res.Dialect, "score", res.Score, "issues", res.Summary.Total)

		if err := report.Validation(cmd.OutOrStdout(), res, format); err != nil {
			return err
		}
		if !res.IsValid {
			return fmt.Errorf("model %s is invalid: %d errors", args[0], res.Summary.Errors)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "output format: text, json")
	rootCmd.AddCommand(validateCmd)
}
