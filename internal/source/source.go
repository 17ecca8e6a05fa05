// Package source reads PHPCR nodes from the repositories the migration
// starts from: Jackalope DBAL tables in a SQL database, or JSONL exports.
package source

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/phpcrmigrate/internal/config"
	"github.com/mesh-intelligence/phpcrmigrate/internal/repository"
	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Source yields the nodes of a workspace.
type Source interface {
	// Nodes returns the nodes of workspace whose jcr:mixinTypes contain
	// mixin, in repository order. An empty mixin selects every node.
	Nodes(ctx context.Context, workspace, mixin string) ([]types.Node, error)
	Close() error
}

// Open returns the source addressed by dsn. Connections and relative
// directories are resolved through cfg.
func Open(dsn *config.DSN, cfg *config.Config) (Source, error) {
	switch dsn.Scheme {
	case config.SchemeDBAL:
		conn, err := cfg.Connection(dsn.Connection)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		db, dialect, err := repository.Open(conn)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		return NewDBAL(db, dialect), nil
	case config.SchemeJSONL:
		return NewJSONL(cfg.SourceDir(dsn)), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedSource, dsn.Scheme)
	}
}

// hasMixin reports whether props carry mixin in jcr:mixinTypes.
func hasMixin(props map[string]any, mixin string) bool {
	if mixin == "" {
		return true
	}
	for _, m := range types.ToStrings(props[propMixinTypes]) {
		if m == mixin {
			return true
		}
	}
	return false
}

const (
	propUUID       = "jcr:uuid"
	propMixinTypes = "jcr:mixinTypes"
)

// withIdentifier sets jcr:uuid from the node identifier when the properties
// do not carry one.
func withIdentifier(props map[string]any, identifier string) {
	if _, ok := props[propUUID]; !ok && identifier != "" {
		props[propUUID] = identifier
	}
}
