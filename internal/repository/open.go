package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Open validates conn, opens the database, and checks that it is reachable.
// The caller must Close the returned handle.
func Open(conn types.Connection) (*sql.DB, Dialect, error) {
	if err := conn.Validate(); err != nil {
		return nil, Dialect{}, err
	}
	dialect, err := DialectFor(conn.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(conn.Driver, conn.DSN)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("opening %s database: %w", conn.Driver, err)
	}
	if conn.Driver == types.DriverSQLite {
		// One writer; keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("connecting to %s database: %w", conn.Driver, err)
	}
	return db, dialect, nil
}
