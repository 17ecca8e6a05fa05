package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// envTestPostgresDSN points the PostgreSQL tests at a server. They are
// skipped when it is unset; see "mage test:postgres".
const envTestPostgresDSN = "PHPCR_MIGRATE_TEST_POSTGRES_DSN"

// setupPostgres opens a repository on a fresh schema of the test server.
func setupPostgres(t *testing.T) *EntityRepository {
	t.Helper()
	base := os.Getenv(envTestPostgresDSN)
	if base == "" {
		t.Skipf("%s not set", envTestPostgresDSN)
	}

	admin, _, err := Open(types.Connection{Driver: types.DriverPostgres, DSN: base})
	require.NoError(t, err)
	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec("CREATE SCHEMA " + schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		admin.Close()
	})

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	db, dialect, err := Open(types.Connection{Driver: types.DriverPostgres, DSN: base + sep + "search_path=" + schema})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := New(db, dialect)
	require.NoError(t, CreateSchema(context.Background(), r))
	return r
}

func TestPostgres_InsertOrUpdate(t *testing.T) {
	r := setupPostgres(t)
	ctx := context.Background()
	colTypes := types.ColumnTypes{
		"article_uuid":     types.ColumnString,
		"locale":           types.ColumnString,
		"stage":            types.ColumnString,
		"title":            types.ColumnString,
		"seoNoIndex":       types.ColumnBoolean,
		"availableLocales": types.ColumnJSON,
		"templateData":     types.ColumnJSON,
	}
	require.NoError(t, r.InsertOrUpdate(ctx, "ar_articles",
		types.Row{"uuid": "a-1"}, nil, types.Row{"uuid": "a-1"}))
	where := types.Row{"article_uuid": "a-1", "locale": nil, "stage": types.StageDraft}

	for _, title := range []string{"first", "second"} {
		row := types.Row{
			"article_uuid":     "a-1",
			"locale":           nil,
			"stage":            types.StageDraft,
			"title":            title,
			"seoNoIndex":       false,
			"availableLocales": []string{"de"},
			"templateData":     map[string]any{},
		}
		require.NoError(t, r.InsertOrUpdate(ctx, "ar_article_dimension_contents", row, colTypes, where))
	}

	row, err := r.FindBy(ctx, "ar_article_dimension_contents", where)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "second", row["title"])
	assert.Nil(t, row["locale"])

	n, err := r.RemoveBy(ctx, "ar_article_dimension_contents", where)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPostgres_IsolateKeepsTransactionUsable(t *testing.T) {
	r := setupPostgres(t)
	ctx := context.Background()
	routeTypes := types.ColumnTypes{
		"entity_class": types.ColumnString,
		"entity_id":    types.ColumnString,
		"locale":       types.ColumnString,
		"path":         types.ColumnString,
		"history":      types.ColumnBoolean,
		"created":      types.ColumnDatetime,
		"changed":      types.ColumnDatetime,
	}
	route := func(id string) types.Row {
		return types.Row{
			"entity_class": "x",
			"entity_id":    id,
			"locale":       "de",
			"path":         "/same",
			"history":      false,
			"created":      "2024-01-01 00:00:00",
			"changed":      "2024-01-01 00:00:00",
		}
	}

	require.NoError(t, r.BeginTransaction(ctx))
	require.NoError(t, r.InsertOrUpdate(ctx, "ro_routes", route("a-1"), routeTypes, nil))

	// Same path and locale violates the unique index.
	err := r.Isolate(ctx, func() error {
		return r.InsertOrUpdate(ctx, "ro_routes", route("a-2"), routeTypes, nil)
	})
	require.Error(t, err)

	exists, err := r.Exists(ctx, "ro_routes", types.Row{"entity_id": "a-1"})
	require.NoError(t, err, "transaction survives the failed statement")
	assert.True(t, exists)
	require.NoError(t, r.Commit())

	assert.Equal(t, 1, countRows(t, r, "ro_routes"))
}

func TestPostgres_IsolatePassesThroughSuccess(t *testing.T) {
	r := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, r.BeginTransaction(ctx))
	sentinel := errors.New("boom")
	assert.ErrorIs(t, r.Isolate(ctx, func() error { return sentinel }), sentinel)
	assert.NoError(t, r.Isolate(ctx, func() error { return nil }))
	require.NoError(t, r.Rollback())
}
