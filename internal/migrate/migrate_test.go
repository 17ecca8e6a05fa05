package migrate

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phpcrmigrate/internal/config"
	"github.com/mesh-intelligence/phpcrmigrate/internal/repository"
	"github.com/mesh-intelligence/phpcrmigrate/internal/source"
	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// staticSource serves fixed nodes per workspace, filtered by mixin.
type staticSource map[string][]types.Node

func (s staticSource) Nodes(_ context.Context, workspace, mixin string) ([]types.Node, error) {
	var out []types.Node
	for _, n := range s[workspace] {
		for _, p := range n.Properties() {
			if p.Name != "jcr:mixinTypes" {
				continue
			}
			for _, m := range types.ToStrings(p.Value) {
				if m == mixin {
					out = append(out, n)
				}
			}
		}
	}
	return out, nil
}

func (s staticSource) Close() error { return nil }

func article(uuid, title string) types.Node {
	return types.NewNode("/cmf/articles/"+title, map[string]any{
		"jcr:uuid":              uuid,
		"jcr:mixinTypes":        []any{"sulu:article"},
		"i18n:de-title":         title,
		"i18n:de-state":         int64(2),
		"i18n:de-routePath":     "/" + title,
		"i18n:de-routePathName": "i18n:de-routePath",
	})
}

func page(uuid string) types.Node {
	return types.NewNode("/cmf/pages/p", map[string]any{
		"jcr:uuid":       uuid,
		"jcr:mixinTypes": []any{"sulu:page"},
	})
}

type fixture struct {
	db   *sql.DB
	repo *repository.EntityRepository
	dsn  *config.DSN
	log  *bytes.Buffer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, dialect, err := repository.Open(types.Connection{
		Driver: types.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "content.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db, dialect)
	require.NoError(t, repository.CreateSchema(context.Background(), repo))

	dsn, err := config.ParseDSN("jsonl://export?workspace=default")
	require.NoError(t, err)
	return &fixture{db: db, repo: repo, dsn: dsn, log: &bytes.Buffer{}}
}

func (f *fixture) migrator(src source.Source, opts ...Option) *Migrator {
	opts = append([]Option{
		WithLogger(zerolog.New(f.log)),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)
	return New(src, f.repo, f.dsn, opts...)
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestRun_DefaultAndLiveWorkspaces(t *testing.T) {
	f := setup(t)
	src := staticSource{
		"default":      {article("a-1", "eins"), article("a-2", "zwei"), page("p-1")},
		"default_live": {article("a-1", "eins")},
	}

	summary, err := f.migrator(src).Run(context.Background(), []string{"article"})
	require.NoError(t, err)

	_, err = uuid.Parse(summary.RunID)
	assert.NoError(t, err)
	assert.Equal(t, []Result{
		{Type: "article", Workspace: "default", Nodes: 2, Migrated: 2},
		{Type: "article", Workspace: "default_live", Live: true, Nodes: 1, Migrated: 1},
	}, summary.Results)

	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM ar_articles"))
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM ar_article_dimension_contents WHERE stage = ? AND locale = ?", types.StageDraft, "de"))
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM ar_article_dimension_contents WHERE stage = ? AND locale = ?", types.StageLive, "de"))
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM ar_article_dimension_contents WHERE stage = ?", types.StageLive))
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM ro_routes"))
	assert.Contains(t, f.log.String(), summary.RunID)
	assert.Contains(t, f.log.String(), "migration finished")
}

func TestRun_Idempotent(t *testing.T) {
	f := setup(t)
	src := staticSource{
		"default":      {article("a-1", "eins")},
		"default_live": {article("a-1", "eins")},
	}
	m := f.migrator(src)

	_, err := m.Run(context.Background(), []string{"article"})
	require.NoError(t, err)
	_, err = m.Run(context.Background(), []string{"article"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM ar_articles"))
	assert.Equal(t, 4, f.count(t, "SELECT COUNT(*) FROM ar_article_dimension_contents"))
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM ro_routes"))
}

func TestRun_FailedDocumentsAreCounted(t *testing.T) {
	f := setup(t)
	broken := types.NewNode("/cmf/articles/broken", map[string]any{
		"jcr:mixinTypes":    []any{"sulu:article"},
		"i18n:de-routePath": "/broken",
	})
	src := staticSource{"default": {broken, article("a-1", "eins")}}

	summary, err := f.migrator(src).Run(context.Background(), []string{"article"})
	require.ErrorIs(t, err, ErrDocumentsFailed)

	assert.Equal(t, Result{Nodes: 2, Migrated: 1, Failed: 1}, summary.Totals())
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM ar_articles"))
	assert.Contains(t, f.log.String(), "document not migrated")
	assert.Contains(t, f.log.String(), "/cmf/articles/broken")
}

func TestRun_FailFast(t *testing.T) {
	f := setup(t)
	broken := types.NewNode("/cmf/articles/broken", map[string]any{
		"jcr:mixinTypes": []any{"sulu:article"},
	})
	src := staticSource{"default": {broken, article("a-1", "eins")}}

	summary, err := f.migrator(src, WithFailFast(true)).Run(context.Background(), []string{"article"})
	require.ErrorIs(t, err, types.ErrMissingUUID)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, 1, summary.Results[0].Failed)
	assert.Equal(t, 0, summary.Results[0].Migrated)
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM ar_articles"))
}

func TestRun_UnknownType(t *testing.T) {
	f := setup(t)
	src := staticSource{"default": {article("a-1", "eins")}}

	_, err := f.migrator(src).Run(context.Background(), []string{"article", "snippet"})
	require.ErrorIs(t, err, types.ErrPersisterNotFound)
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM ar_articles"), "types are resolved before any write")
}

func TestRun_Cancelled(t *testing.T) {
	f := setup(t)
	src := staticSource{"default": {article("a-1", "eins")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.migrator(src).Run(ctx, []string{"article"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM ar_articles"))
}

func TestRun_JSONLSource(t *testing.T) {
	f := setup(t)
	dir := t.TempDir()
	id := "0f9b2c64-59c4-4e43-9bd0-0e1c5b8f3a10"
	require.NoError(t, source.WriteJSONL(dir, "default", []types.Node{article(id, "eins")}))

	summary, err := f.migrator(source.NewJSONL(dir)).Run(context.Background(), []string{"article"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals().Migrated)
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM ar_articles WHERE uuid = ?", id))
}
