package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phpcrmigrate/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		dsn      string
		failFast bool
	)
	cmd := &cobra.Command{
		Use:   "migrate [types]",
		Short: "Migrate documents from the source into the target tables",
		Long: "Migrate the given document types, a comma-separated list such as \"article\",\n" +
			"from the default and then the live workspace. Without an argument the\n" +
			"document_types of the configuration are migrated.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docTypes := a.cfg.DocumentTypes
			if len(args) == 1 {
				docTypes = splitTypes(args[0])
			}

			repo, closeTarget, err := a.openTarget()
			if err != nil {
				return err
			}
			defer closeTarget()

			src, d, err := a.openSource(dsn)
			if err != nil {
				return err
			}
			defer src.Close()

			m := migrate.New(src, repo, d,
				migrate.WithLogger(a.log),
				migrate.WithFailFast(failFast))
			summary, err := m.Run(cmd.Context(), docTypes)
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "source dsn (default from config)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first document that fails")
	return cmd
}

func printSummary(w io.Writer, s *migrate.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tWORKSPACE\tNODES\tMIGRATED\tFAILED\tROUTE FAILURES")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", r.Type, r.Workspace, r.Nodes, r.Migrated, r.Failed, r.RouteFailures)
	}
	tw.Flush()
	fmt.Fprintf(w, "run %s\n", s.RunID)
}
