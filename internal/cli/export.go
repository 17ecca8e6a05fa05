package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phpcrmigrate/internal/source"
)

func newExportCmd(a *app) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the source workspaces to JSONL files",
		Long: "Read every node of the default and live workspace and write them to\n" +
			"<dir>/<workspace>.jsonl. The files can be migrated later with a\n" +
			"jsonl://<dir>?workspace=<name> dsn.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, d, err := a.openSource(dsn)
			if err != nil {
				return err
			}
			defer src.Close()

			for _, ws := range d.Workspaces() {
				nodes, err := src.Nodes(cmd.Context(), ws, "")
				if err != nil {
					return fmt.Errorf("reading workspace %s: %w", ws, err)
				}
				if err := source.WriteJSONL(args[0], ws, nodes); err != nil {
					return err
				}
				a.log.Info().Str("workspace", ws).Int("nodes", len(nodes)).Msg("workspace exported")
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d nodes\n", source.WorkspaceFile(args[0], ws), len(nodes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "source dsn (default from config)")
	return cmd
}
