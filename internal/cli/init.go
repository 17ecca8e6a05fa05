package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phpcrmigrate/internal/repository"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and the target tables",
		Long: "Write a default config.yaml if none exists and create the content tables\n" +
			"in the target database. Existing tables are left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeTarget, err := a.openTarget()
			if err != nil {
				return err
			}
			defer closeTarget()

			if err := repository.CreateSchema(cmd.Context(), repo); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
			conn, _ := a.cfg.TargetConnection()
			fmt.Fprintf(cmd.OutOrStdout(), "Target schema ready (%s: %s)\n", conn.Driver, conn.DSN)
			return nil
		},
	}
}
