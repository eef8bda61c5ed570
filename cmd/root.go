package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/config"
	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/logging"
)

var (
	cfgFile     string
	logLevel    string
	dialectFlag string
	version     = "dev"
	commit      = "none"
	date        = "unknown"

	cfg     *config.Config
	logger  = slog.New(slog.DiscardHandler)
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "schemaforge",
	Short: "schemaforge compiles schema models into dialect-specific SQL",
	Long: `schemaforge turns a dialect-neutral schema model (YAML) into CREATE
statements and migration scripts for MySQL, PostgreSQL, SQL Server,
Oracle, SQLite and ANSI SQL. It also validates models, applies safe
corrections and discovers models from live PostgreSQL or Oracle databases.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
			logFile = nil
		}
	},
}

// setup loads the configuration, applies global flags and starts logging.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if dialectFlag != "" {
		d, ok := dialect.Lookup(dialect.Name(dialectFlag))
		if !ok {
			return fmt.Errorf("unknown dialect %q (see `schemaforge dialects`)", dialectFlag)
		}
		c.Dialect = d.Name
		c.Validation.Dialect = d.Name
		c.Correction.Dialect = d.Name
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	cfg = c

	l, f, err := logging.Setup(c.Logging.Level, c.Logging.Directory, c.Logging.RetentionDays)
	if err != nil {
		l = logging.New(os.Stderr, c.Logging.Level)
		l.Warn("log file unavailable", "error", err)
	}
	logger, logFile = l, f
	logger.Debug("configuration loaded", "dialect", c.Dialect, "config", cfgFile)
	return nil
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.schemaforge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&dialectFlag, "dialect", "d", "", "target dialect (overrides the config)")
}
