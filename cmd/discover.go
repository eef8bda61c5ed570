package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/discovery"
	"github.com/reloquent/schemaforge/internal/typemap"
)

var (
	discoverOutput  string
	discoverTypeMap string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover a model from the source database",
	Long: `Connect to the source database from the config and read tables, columns,
keys, indexes, check constraints and comments into a schema model. Only
catalog queries are issued. The model can be used as the old side of
` + "`schemaforge diff`" + ` and ` + "`schemaforge migrate`" + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if cfg.Source.Type == "" {
			return fmt.Errorf("no source configured; set source.type in %s", cfgPath())
		}

		tm := typemap.ForDatabase(cfg.Source.Type)
		if discoverTypeMap != "" {
			if err := tm.ApplyFile(discoverTypeMap); err != nil {
				return fmt.Errorf("loading type map: %w", err)
			}
		}

		d, err := discovery.New(&cfg.Source, tm)
		if err != nil {
			return fmt.Errorf("initializing discoverer: %w", err)
		}
		defer d.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Connecting to %s at %s:%d/%s...\n",
			cfg.Source.Type, cfg.Source.Host, cfg.Source.Port, cfg.Source.Database)
		if err := d.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to source: %w", err)
		}

		fmt.Fprintln(out, "Discovering schema...")
		res, err := d.Discover(ctx)
		if err != nil {
			return fmt.Errorf("discovering schema: %w", err)
		}
		for _, w := range res.Warnings {
			logger.Warn("discovery", "detail", w)
		}

		fmt.Fprintln(out, res.Model.Summary())

		if err := res.Model.WriteYAML(discoverOutput); err != nil {
			return fmt.Errorf("writing model: %w", err)
		}
		fmt.Fprintf(out, "\nModel written to %s (%d warnings)\n", discoverOutput, len(res.Warnings))
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverOutput, "out", "o", "model.yaml", "output path for the model YAML")
	discoverCmd.Flags().StringVar(&discoverTypeMap, "type-map", "", "YAML file with source type overrides")
	rootCmd.AddCommand(discoverCmd)
}
