package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/correction"
	"github.com/reloquent/schemaforge/internal/report"
	"github.com/reloquent/schemaforge/internal/review"
	"github.com/reloquent/schemaforge/internal/validation"
)

var (
	fixOut         string
	fixInteractive bool
	fixTimestamps  bool
	fixFormat      string
)

var fixCmd = &cobra.Command{
	Use:   "fix <model.yaml>",
	Short: "Apply safe automatic corrections to a model",
	Long: `Validate a model, apply the enabled categories of fixes and write the
corrected model. With --interactive each proposed fix is shown for review
before it is applied. The input file is never modified unless --out names it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(fixFormat)
		if err != nil {
			return err
		}
		m, err := loadModel(args[0])
		if err != nil {
			return err
		}

		opts := cfg.Correction
		if cmd.Flags().Changed("timestamps") {
			opts.AddTimestamps = fixTimestamps
		}
		vopts := cfg.Validation
		vopts.Dialect = opts.Dialect
		issues := validation.Validate(m, vopts).Issues

		var res *correction.Result
		if fixInteractive {
			res, err = review.Correct(m, issues, opts, review.Terminal(os.Stdin, cmd.OutOrStdout()))
		} else {
			res, err = correction.Correct(m, issues, opts)
		}
		if err != nil {
			return fmt.Errorf("correcting model: %w", err)
		}
		logger.Info("corrected", "model", m.Name, "fixed", res.Summary.Fixed, "remaining", res.Summary.Remaining)

		out := fixOut
		if out == "" {
			ext := filepath.Ext(args[0])
			out = strings.TrimSuffix(args[0], ext) + ".fixed" + ext
		}
		if err := res.Model.WriteYAML(out); err != nil {
			return fmt.Errorf("writing corrected model: %w", err)
		}

		if err := report.Correction(cmd.OutOrStdout(), res, format); err != nil {
			return err
		}
		if format == report.FormatText {
			fmt.Fprintf(cmd.OutOrStdout(), "\nCorrected model written to %s\n", out)
		}
		return nil
	},
}

func init() {
	fixCmd.Flags().StringVarP(&fixOut, "out", "o", "", "output path (default: <model>.fixed.yaml)")
	fixCmd.Flags().BoolVarP(&fixInteractive, "interactive", "i", false, "review each fix before it is applied")
	fixCmd.Flags().BoolVar(&fixTimestamps, "timestamps", false, "add created_at/updated_at to every table")
	fixCmd.Flags().StringVar(&fixFormat, "format", "text", "output format: text, json")
	rootCmd.AddCommand(fixCmd)
}
