package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Dialect holds the SQL differences between the supported target databases.
type Dialect struct {
	Name string

	// numbered placeholders ($1, $2, ...) instead of "?".
	numbered bool

	// A failed statement aborts the enclosing transaction until it is rolled
	// back to a savepoint.
	FailedStatementAbortsTx bool

	ddl *strings.Replacer
}

// Supported dialects.
var (
	SQLite = Dialect{
		Name: types.DriverSQLite,
		ddl: strings.NewReplacer(
			"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{datetime}}", "DATETIME",
			"{{json}}", "TEXT",
			"{{bool}}", "BOOLEAN",
		),
	}
	Postgres = Dialect{
		Name:                    types.DriverPostgres,
		numbered:                true,
		FailedStatementAbortsTx: true,
		ddl: strings.NewReplacer(
			"{{id}}", "SERIAL PRIMARY KEY",
			"{{datetime}}", "TIMESTAMP(0)",
			"{{json}}", "JSON",
			"{{bool}}", "BOOLEAN",
		),
	}
)

// DialectFor returns the dialect of a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case types.DriverSQLite:
		return SQLite, nil
	case types.DriverPostgres:
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", types.ErrDriverUnknown, driver)
	}
}

// Placeholder returns the n-th (1-based) parameter placeholder.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an identifier. Column names such as ghostLocale are case
// sensitive in the target schema.
func (d Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// render expands the type tokens of a DDL template.
func (d Dialect) render(ddl string) string {
	return d.ddl.Replace(ddl)
}
