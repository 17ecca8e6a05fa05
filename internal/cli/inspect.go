package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/phpcrmigrate/internal/parser"
	"github.com/mesh-intelligence/phpcrmigrate/internal/persister"
	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Inspect output formats.
const (
	formatYAML = "yaml"
	formatJSON = "json"
	formatGo   = "go"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		dsn       string
		workspace string
		format    string
		limit     int
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [type]",
		Short: "Print decoded documents without writing them",
		Long: "Read the nodes of a document type (default \"article\") from the source,\n" +
			"decode them, and print the resulting documents. Nothing is written.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := persister.ArticleTypeName
			if len(args) == 1 {
				typ = args[0]
			}
			mixin := ""
			if !all {
				dt, ok := persister.DocumentTypes()[typ]
				if !ok {
					return &types.PersisterNotFoundError{Type: typ}
				}
				mixin = dt.Mixin
			}

			src, d, err := a.openSource(dsn)
			if err != nil {
				return err
			}
			defer src.Close()
			if workspace == "" {
				workspace = d.Workspace
			}

			nodes, err := src.Nodes(cmd.Context(), workspace, mixin)
			if err != nil {
				return err
			}
			if limit > 0 && len(nodes) > limit {
				nodes = nodes[:limit]
			}
			docs := make([]map[string]any, 0, len(nodes))
			for _, n := range nodes {
				docs = append(docs, parser.Parse(n).Tree())
			}
			return dumpDocuments(cmd.OutOrStdout(), format, docs)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "source dsn (default from config)")
	cmd.Flags().StringVar(&workspace, "workspace", "", "workspace to read (default: the dsn workspace)")
	cmd.Flags().StringVar(&format, "format", formatYAML, "output format: yaml, json, or go")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many documents (0 means all)")
	cmd.Flags().BoolVar(&all, "all", false, "print every node regardless of its type")
	return cmd
}

func dumpDocuments(w io.Writer, format string, docs []map[string]any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, doc := range docs {
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encoding yaml: %w", err)
			}
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		for _, doc := range docs {
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encoding json: %w", err)
			}
		}
		return nil
	case formatGo:
		for _, doc := range docs {
			dumpConfig.Fdump(w, doc)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q: want %s, %s or %s", format, formatYAML, formatJSON, formatGo)
	}
}
