package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reloquent/schemaforge/internal/ddl"
	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/report"
	"github.com/reloquent/schemaforge/internal/selection"
)

var (
	compileAll           bool
	compileOut           string
	compileFormat        string
	compileNoComments    bool
	compileNoIndexes     bool
	compileNoConstraints bool
	compileIfNotExists   bool
	compilePrefix        string
	compileInlineIndexes bool
	compileTables        string
	compileWithDeps      bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <model.yaml>",
	Short: "Compile a model into CREATE statements",
	Long: `Compile a schema model into CREATE TABLE, CREATE INDEX and foreign key
statements for the configured dialect, or for every dialect with --all.
With --all and --out, --out names a directory receiving one file per dialect.
--tables limits output to tables matching comma-separated glob patterns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(compileFormat)
		if err != nil {
			return err
		}
		m, err := loadModel(args[0])
		if err != nil {
			return err
		}
		if patterns := selection.ParsePatterns(compileTables); len(patterns) > 0 {
			sub, orphans := selection.Select(m, patterns, compileWithDeps)
			if len(sub.Tables) == 0 {
				return fmt.Errorf("no tables match %q", compileTables)
			}
			for _, o := range orphans {
				logger.Warn("foreign key dropped, referenced table not selected",
					"table", o.Table, "field", o.Field, "references", o.ReferencedTable)
			}
			m = sub
		}
		opts := compileOptions(cmd)

		names := []dialect.Name{cfg.Dialect}
		if compileAll {
			names = dialect.Names()
		}

		results := make([]*ddl.Result, len(names))
		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				res, err := ddl.Compile(m, name, opts)
				if err != nil {
					return fmt.Errorf("compiling for %s: %w", name, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, res := range results {
			logger.Info("compiled", "dialect", res.Dialect, "statements", len(res.Statements), "warnings", len(res.Warnings))
		}
		return writeCompiled(cmd, args[0], results, format)
	},
}

// compileOptions starts from the configured options and applies the flags
// the user set.
func compileOptions(cmd *cobra.Command) ddl.Options {
	opts := cfg.Compile
	flags := cmd.Flags()
	if flags.Changed("no-comments") {
		opts.Comments = !compileNoComments
	}
	if flags.Changed("no-indexes") {
		opts.Indexes = !compileNoIndexes
	}
	if flags.Changed("no-constraints") {
		opts.Constraints = !compileNoConstraints
	}
	if flags.Changed("if-not-exists") {
		opts.IfNotExists = compileIfNotExists
	}
	if flags.Changed("prefix") {
		opts.TablePrefix = compilePrefix
	}
	if flags.Changed("inline-indexes") {
		opts.InlineIndexes = compileInlineIndexes
	}
	return opts
}

func writeCompiled(cmd *cobra.Command, modelPath string, results []*ddl.Result, format report.Format) error {
	ext := ".sql"
	if format == report.FormatJSON {
		ext = ".json"
	}

	if compileOut != "" && len(results) > 1 {
		base := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
		for _, res := range results {
			var buf bytes.Buffer
			if err := report.Compile(&buf, res, format); err != nil {
				return err
			}
			path := filepath.Join(compileOut, fmt.Sprintf("%s.%s%s", base, res.Dialect, ext))
			if err := writeFile(path, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		}
		return nil
	}

	var buf bytes.Buffer
	for _, res := range results {
		if len(results) > 1 && format == report.FormatText {
			fmt.Fprintf(&buf, "-- ===== %s =====\n\n", res.Dialect)
		}
		if err := report.Compile(&buf, res, format); err != nil {
			return err
		}
	}
	if compileOut == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := writeFile(compileOut, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", compileOut)
	return nil
}

func init() {
	f := compileCmd.Flags()
	f.BoolVar(&compileAll, "all", false, "compile for every dialect")
	f.StringVarP(&compileOut, "out", "o", "", "output file (directory with --all)")
	f.StringVar(&compileFormat, "format", "text", "output format: text, json")
	f.BoolVar(&compileNoComments, "no-comments", false, "omit table and column comments")
	f.BoolVar(&compileNoIndexes, "no-indexes", false, "omit CREATE INDEX statements")
	f.BoolVar(&compileNoConstraints, "no-constraints", false, "omit foreign keys and enum checks")
	f.BoolVar(&compileIfNotExists, "if-not-exists", false, "add IF NOT EXISTS where the dialect supports it")
	f.StringVar(&compilePrefix, "prefix", "", "prefix for every table name")
	f.BoolVar(&compileInlineIndexes, "inline-indexes", false, "declare indexes inside CREATE TABLE where supported")
	f.StringVar(&compileTables, "tables", "", "only compile tables matching these glob patterns")
	f.BoolVar(&compileWithDeps, "with-deps", false, "include tables referenced by the selected tables")
	rootCmd.AddCommand(compileCmd)
}
