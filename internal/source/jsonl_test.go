package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

const (
	uuidArticle = "0f9b2c64-59c4-4e43-9bd0-0e1c5b8f3a10"
	uuidPage    = "7d1e4a0c-3c5e-4d8e-8b0a-3f7f1f3e9b21"
)

func writeExport(t *testing.T, dir, workspace string, lines ...string) {
	t.Helper()
	data := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, workspace+".jsonl"), []byte(data), 0o644))
}

func props(n types.Node) map[string]any {
	out := map[string]any{}
	for _, p := range n.Properties() {
		out[p.Name] = p.Value
	}
	return out
}

func TestJSONL_Nodes(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "default",
		`{"path":"/cmf/articles/a","identifier":"`+uuidArticle+`","properties":{"jcr:mixinTypes":["sulu:article"],"i18n:de-state":2,"i18n:de-excerpt-categories":[1,2],"i18n:de-title":"Hallo"}}`,
		``,
		`not json`,
		`{"path":"/cmf/pages/p","identifier":"`+uuidPage+`","properties":{"jcr:mixinTypes":["sulu:page"]}}`,
	)
	src := NewJSONL(dir)
	ctx := context.Background()

	nodes, err := src.Nodes(ctx, "default", "sulu:article")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "/cmf/articles/a", nodes[0].Path())
	assert.Equal(t, map[string]any{
		"jcr:uuid":                   uuidArticle,
		"jcr:mixinTypes":             []any{"sulu:article"},
		"i18n:de-state":              int64(2),
		"i18n:de-excerpt-categories": []any{int64(1), int64(2)},
		"i18n:de-title":              "Hallo",
	}, props(nodes[0]))

	all, err := src.Nodes(ctx, "default", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestJSONL_MissingWorkspace(t *testing.T) {
	nodes, err := NewJSONL(t.TempDir()).Nodes(context.Background(), "default_live", "sulu:article")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestJSONL_InvalidIdentifier(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "default", `{"path":"/a","identifier":"not-a-uuid","properties":{}}`)

	_, err := NewJSONL(dir).Nodes(context.Background(), "default", "")
	assert.ErrorContains(t, err, "invalid identifier")
}

func TestJSONL_PropertyUUIDWins(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "default",
		`{"path":"/a","identifier":"`+uuidPage+`","properties":{"jcr:uuid":"`+uuidArticle+`"}}`)

	nodes, err := NewJSONL(dir).Nodes(context.Background(), "default", "")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, uuidArticle, props(nodes[0])["jcr:uuid"])
}

func TestWriteJSONL_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")
	in := []types.Node{
		types.NewNode("/cmf/articles/a", map[string]any{
			"jcr:uuid":       uuidArticle,
			"jcr:mixinTypes": []any{"sulu:article"},
			"i18n:de-state":  int64(2),
		}),
	}
	require.NoError(t, WriteJSONL(dir, "default", in))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file is renamed away")
	assert.Equal(t, "default.jsonl", entries[0].Name())

	out, err := NewJSONL(dir).Nodes(context.Background(), "default", "sulu:article")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, props(in[0]), props(out[0]))
}

func TestJSONL_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "default", `{"path":"/a","properties":{}}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJSONL(dir).Nodes(ctx, "default", "")
	assert.ErrorIs(t, err, context.Canceled)
}
