package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/migration"
	"github.com/reloquent/schemaforge/internal/report"
	"github.com/reloquent/schemaforge/internal/state"
)

var (
	migrateVersion     string
	migrateDescription string
	migrateSafe        bool
	migrateDown        bool
	migrateOut         string
	migrateNoRecord    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <old.yaml> <new.yaml>",
	Short: "Generate a migration script between two models",
	Long: `Diff two versions of a model and write a migration script for the
configured dialect: a YAML file with the operations, up and down queries
and risk estimate, plus the rendered SQL. The script is recorded in the
project state so that ` + "`schemaforge plan`" + ` can aggregate it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, err := loadModel(args[0])
		if err != nil {
			return err
		}
		after, err := loadModel(args[1])
		if err != nil {
			return err
		}
		s, err := migration.GenerateDiff(before, after, cfg.Dialect, migrationOptions(cmd))
		if err != nil {
			return fmt.Errorf("generating migration: %w", err)
		}
		return emitMigration(cmd, s)
	},
}

var migrateCreateCmd = &cobra.Command{
	Use:   "create <model.yaml>",
	Short: "Generate the initial migration that creates a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel(args[0])
		if err != nil {
			return err
		}
		s, err := migration.GenerateCreate(m, cfg.Dialect, migrationOptions(cmd))
		if err != nil {
			return fmt.Errorf("generating migration: %w", err)
		}
		return emitMigration(cmd, s)
	},
}

func migrationOptions(cmd *cobra.Command) migration.Options {
	opts := migration.Options{
		DDL:          cfg.Compile,
		Version:      migrateVersion,
		Description:  migrateDescription,
		SafeMode:     cfg.Migration.SafeMode,
		GenerateDown: cfg.Migration.GenerateDown,
	}
	if cmd.Flags().Changed("safe") {
		opts.SafeMode = migrateSafe
	}
	if cmd.Flags().Changed("down") {
		opts.GenerateDown = migrateDown
	}
	return opts
}

// emitMigration writes the script files and records them in the state.
func emitMigration(cmd *cobra.Command, s *migration.Script) error {
	dir := migrateOut
	if dir == "" {
		dir = cfg.OutputDir
	}
	scriptPath := filepath.Join(dir, s.FileName()+".yaml")
	sqlPath := filepath.Join(dir, s.FileName()+".sql")

	if err := s.WriteScript(scriptPath); err != nil {
		return fmt.Errorf("writing migration script: %w", err)
	}
	if err := s.WriteSQL(sqlPath); err != nil {
		return fmt.Errorf("writing migration SQL: %w", err)
	}
	logger.Info("migration written", "version", s.Version, "dialect", s.Dialect,
		"operations", len(s.Operations), "risk", s.Metadata.RiskLevel)

	if !migrateNoRecord {
		release, err := state.Lock(cfg.StateFile)
		if err != nil {
			return err
		}
		defer release()
		st, err := state.Load(cfg.StateFile)
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}
		st.Record(s, absPath(scriptPath), absPath(sqlPath))
		if err := st.Save(cfg.StateFile); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if err := report.Script(out, s, report.FormatText); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nScript written to %s\nSQL written to %s\n", scriptPath, sqlPath)
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func init() {
	pf := migrateCmd.PersistentFlags()
	pf.StringVar(&migrateVersion, "version", "", "script version (default: model version or a timestamp)")
	pf.StringVar(&migrateDescription, "description", "", "script description")
	pf.BoolVar(&migrateSafe, "safe", false, "comment out DROP TABLE statements")
	pf.BoolVar(&migrateDown, "down", true, "generate down queries")
	pf.StringVarP(&migrateOut, "out", "o", "", "output directory (default: output_dir from config)")
	pf.BoolVar(&migrateNoRecord, "no-record", false, "do not record the script in the project state")
	migrateCmd.AddCommand(migrateCreateCmd)
	rootCmd.AddCommand(migrateCmd)
}
