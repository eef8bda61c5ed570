package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reloquent/schemaforge/internal/migration"
	"github.com/reloquent/schemaforge/internal/state"
)

var (
	rollbackTo   string
	rollbackOut  string
	rollbackMark bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <script.yaml> --to <version>",
	Short: "Print the rollback SQL for a migration script",
	Long: `Render the down queries of a migration script inside the dialect's
transaction statements. Nothing is executed. Dropped tables and columns
come back empty when the rollback is run.

With --mark the script is flagged as rolled back in the project state and
no longer counted by ` + "`schemaforge plan`" + `.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := migration.LoadScript(args[0])
		if err != nil {
			return err
		}
		if len(s.DownQueries) == 0 {
			logger.Warn("script has no down queries", "version", s.Version)
		}

		text := migration.RollbackScript(s, rollbackTo)
		if rollbackOut == "" {
			fmt.Fprint(cmd.OutOrStdout(), text)
		} else {
			if err := writeFile(rollbackOut, []byte(text)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rollback written to %s\n", rollbackOut)
		}

		if rollbackMark {
			release, err := state.Lock(cfg.StateFile)
			if err != nil {
				return err
			}
			defer release()
			st, err := state.Load(cfg.StateFile)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			if !st.MarkRolledBack(s.ID) {
				return fmt.Errorf("migration %s (%s) is not recorded in %s", s.Version, s.ID, cfg.StateFile)
			}
			if err := st.Save(cfg.StateFile); err != nil {
				return fmt.Errorf("saving state: %w", err)
			}
			logger.Info("migration marked as rolled back", "version", s.Version, "id", s.ID)
		}
		return nil
	},
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackTo, "to", "", "version the rollback returns to")
	rollbackCmd.Flags().StringVarP(&rollbackOut, "out", "o", "", "write the rollback SQL to a file")
	rollbackCmd.Flags().BoolVar(&rollbackMark, "mark", false, "flag the script as rolled back in the project state")
	rollbackCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(rollbackCmd)
}
