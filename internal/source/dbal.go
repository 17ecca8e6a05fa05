package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/phpcrmigrate/internal/repository"
	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// NodesTable is the Jackalope DBAL node table.
const NodesTable = "phpcr_nodes"

// DBAL reads nodes from the tables of the Jackalope Doctrine DBAL
// transport.
type DBAL struct {
	db      *sql.DB
	dialect repository.Dialect
}

// NewDBAL returns a source reading from db. The source owns db and closes
// it in Close.
func NewDBAL(db *sql.DB, dialect repository.Dialect) *DBAL {
	return &DBAL{db: db, dialect: dialect}
}

// Nodes reads every node of workspace and decodes its properties. All rows
// are read before the result is returned, so the caller may write to the
// same database afterwards.
func (s *DBAL) Nodes(ctx context.Context, workspace, mixin string) ([]types.Node, error) {
	query := fmt.Sprintf("SELECT path, identifier, props FROM %s WHERE workspace_name = %s ORDER BY id",
		NodesTable, s.dialect.Placeholder(1))
	rows, err := s.db.QueryContext(ctx, query, workspace)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", NodesTable, err)
	}
	defer rows.Close()

	var nodes []types.Node
	for rows.Next() {
		var (
			path       string
			identifier sql.NullString
			raw        []byte
		)
		if err := rows.Scan(&path, &identifier, &raw); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", NodesTable, err)
		}
		props, err := decodeSysView(raw)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", path, err)
		}
		withIdentifier(props, identifier.String)
		if !hasMixin(props, mixin) {
			continue
		}
		nodes = append(nodes, types.NewNode(path, props))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", NodesTable, err)
	}
	return nodes, nil
}

// Close closes the database handle.
func (s *DBAL) Close() error { return s.db.Close() }
