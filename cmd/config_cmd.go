package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reloquent/schemaforge/internal/config"
	"github.com/reloquent/schemaforge/internal/typemap"
)

var (
	configInitForce bool
	typeMapSource   string
	typeMapOut      string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View, validate and create the schemaforge configuration and type maps.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg.Masked())
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", cfgPath(), data)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Validation errors:")
			for _, line := range splitJoined(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", line)
			}
			return fmt.Errorf("config %s is invalid", cfgPath())
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath()
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

var configTypeMapCmd = &cobra.Command{
	Use:   "type-map",
	Short: "Write the default discovery type map for editing",
	Long: `Write the source-type to model-type mapping used by discover. Edit the
overrides section and pass the file to ` + "`schemaforge discover --type-map`" + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src := typeMapSource
		if src == "" {
			src = cfg.Source.Type
		}
		tm := typemap.ForDatabase(src)
		if err := tm.WriteYAML(typeMapOut); err != nil {
			return fmt.Errorf("writing type map: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Type map (%d source types) written to %s\n", len(tm.SortedTypes()), typeMapOut)
		return nil
	},
}

func cfgPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ExpandHome(config.DefaultPath)
}

// splitJoined flattens an errors.Join result into its messages.
func splitJoined(err error) []string {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range j.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config")
	configTypeMapCmd.Flags().StringVar(&typeMapSource, "source", "", "source database type (default: source.type from config)")
	configTypeMapCmd.Flags().StringVarP(&typeMapOut, "out", "o", "type-map.yaml", "output path")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTypeMapCmd)
	rootCmd.AddCommand(configCmd)
}
