// Package repository provides table-agnostic upsert, lookup, and delete
// operations keyed by column-value maps, on top of database/sql.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// querier is the subset of *sql.DB and *sql.Tx used by the repository.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// EntityRepository runs statements against the database, or inside the
// transaction opened by BeginTransaction until Commit or Rollback.
// It is not safe for concurrent use. Existence checks and writes are not
// protected against concurrent writers beyond the enclosing transaction.
type EntityRepository struct {
	db        *sql.DB
	dialect   Dialect
	tx        *sql.Tx
	savepoint int
}

// New returns a repository over db.
func New(db *sql.DB, dialect Dialect) *EntityRepository {
	return &EntityRepository{db: db, dialect: dialect}
}

func (r *EntityRepository) q() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// BeginTransaction opens a transaction used by all following operations.
func (r *EntityRepository) BeginTransaction(ctx context.Context) error {
	if r.tx != nil {
		return types.ErrTransactionActive
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	r.tx = tx
	return nil
}

// Commit commits the active transaction.
func (r *EntityRepository) Commit() error {
	if r.tx == nil {
		return types.ErrNoActiveTransaction
	}
	tx := r.tx
	r.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback aborts the active transaction. Without one it does nothing.
func (r *EntityRepository) Rollback() error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

// Isolate runs fn so that a failing statement inside it leaves the active
// transaction usable. On dialects where a failed statement aborts the
// transaction, fn runs inside a savepoint that is rolled back on error.
func (r *EntityRepository) Isolate(ctx context.Context, fn func() error) error {
	if r.tx == nil || !r.dialect.FailedStatementAbortsTx {
		return fn()
	}
	r.savepoint++
	name := fmt.Sprintf("isolate_%d", r.savepoint)
	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("creating savepoint: %w", err)
	}
	if err := fn(); err != nil {
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back to savepoint: %w", rbErr))
		}
		return err
	}
	if _, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("releasing savepoint: %w", err)
	}
	return nil
}

// InsertOrUpdate updates the rows matching where when where is non-empty and
// such a row exists, and inserts data otherwise. Values in data and where
// are converted according to columnTypes.
func (r *EntityRepository) InsertOrUpdate(ctx context.Context, table string, data types.Row, columnTypes types.ColumnTypes, where types.Row) error {
	converted, err := convertRow(where, columnTypes)
	if err != nil {
		return fmt.Errorf("matching %s: %w", table, err)
	}
	exists := false
	if len(converted) > 0 {
		exists, err = r.Exists(ctx, table, converted)
		if err != nil {
			return err
		}
	}
	if exists {
		return r.update(ctx, table, data, columnTypes, converted)
	}
	return r.insert(ctx, table, data, columnTypes)
}

// FindBy returns the first row matching where, or nil when none matches.
func (r *EntityRepository) FindBy(ctx context.Context, table string, where types.Row) (types.Row, error) {
	cond, args := r.whereClause(where, 0)
	rows, err := r.q().QueryContext(ctx, "SELECT * FROM "+r.dialect.Quote(table)+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying %s: %w", table, err)
		}
		return nil, nil
	}
	row, err := scanRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", table, err)
	}
	return row, nil
}

// Exists reports whether a row matches where.
func (r *EntityRepository) Exists(ctx context.Context, table string, where types.Row) (bool, error) {
	cond, args := r.whereClause(where, 0)
	rows, err := r.q().QueryContext(ctx, "SELECT 1 FROM "+r.dialect.Quote(table)+cond, args...)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", table, err)
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

// RemoveBy deletes the rows matching where and returns how many were deleted.
func (r *EntityRepository) RemoveBy(ctx context.Context, table string, where types.Row) (int64, error) {
	cond, args := r.whereClause(where, 0)
	res, err := r.q().ExecContext(ctx, "DELETE FROM "+r.dialect.Quote(table)+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted rows in %s: %w", table, err)
	}
	return n, nil
}

func (r *EntityRepository) insert(ctx context.Context, table string, data types.Row, columnTypes types.ColumnTypes) error {
	cols := sortedColumns(data)
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		v, err := convertValue(col, data[col], columnTypes[col])
		if err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
		names[i] = r.dialect.Quote(col)
		marks[i] = r.dialect.Placeholder(i + 1)
		args[i] = v
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.dialect.Quote(table), strings.Join(names, ", "), strings.Join(marks, ", "))
	if _, err := r.q().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	return nil
}

func (r *EntityRepository) update(ctx context.Context, table string, data types.Row, columnTypes types.ColumnTypes, where types.Row) error {
	cols := sortedColumns(data)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(where))
	for i, col := range cols {
		v, err := convertValue(col, data[col], columnTypes[col])
		if err != nil {
			return fmt.Errorf("updating %s: %w", table, err)
		}
		sets[i] = r.dialect.Quote(col) + " = " + r.dialect.Placeholder(i+1)
		args = append(args, v)
	}

	cond, whereArgs := r.whereClause(where, len(args))
	args = append(args, whereArgs...)

	query := "UPDATE " + r.dialect.Quote(table) + " SET " + strings.Join(sets, ", ") + cond
	if _, err := r.q().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating %s: %w", table, err)
	}
	return nil
}

// whereClause builds an equality-only WHERE clause. Nil values become IS NULL
// conditions because NULL cannot be matched through a bound parameter.
// offset is the number of parameters already used by the statement.
func (r *EntityRepository) whereClause(where types.Row, offset int) (string, []any) {
	if len(where) == 0 {
		return "", nil
	}
	cols := sortedColumns(where)
	conds := make([]string, len(cols))
	var args []any
	for i, col := range cols {
		v := where[col]
		if v == nil {
			conds[i] = r.dialect.Quote(col) + " IS NULL"
			continue
		}
		args = append(args, v)
		conds[i] = r.dialect.Quote(col) + " = " + r.dialect.Placeholder(offset+len(args))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanRow reads the current row into a column map. Byte slices are returned
// as strings.
func scanRow(rows *sql.Rows) (types.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(types.Row, len(cols))
	for i, col := range cols {
		if b, ok := vals[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = vals[i]
	}
	return row, nil
}

func sortedColumns(row types.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
