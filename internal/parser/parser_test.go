package parser

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

func node(props map[string]any) *types.NodeData {
	return types.NewNode("/cmf/articles/a", props)
}

func TestParse_LocalePrefixes(t *testing.T) {
	doc := Parse(node(map[string]any{
		"i18n:de-title": "Hallo",
		"title":         "unlocalized",
	}))

	assert.Equal(t, "Hallo", doc.Localizations["de"].Value(types.P("title")))
	assert.Equal(t, "unlocalized", doc.Localizations[types.Unlocalized].Value(types.P("title")))
}

func TestParse_AlwaysHasUnlocalizedLocale(t *testing.T) {
	doc := Parse(node(map[string]any{"jcr:uuid": "u-1"}))

	fields, ok := doc.Localizations[types.Unlocalized]
	require.True(t, ok)
	assert.Empty(t, fields)
	assert.Equal(t, "u-1", doc.UUID())
}

func TestParse_FamilyPrefixes(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := Parse(node(map[string]any{
		"jcr:uuid":              "u-1",
		"jcr:mixinTypes":        []any{"sulu:article"},
		"sulu:created":          created,
		"seo-title":             "SEO",
		"excerpt-tags":          []any{int64(1), int64(2)},
		"i18n:de-seo-title":     "SEO de",
		"i18n:de-excerpt-title": "Excerpt de",
		"phpcr:class":           "Sulu\\Article",
	}))

	assert.Equal(t, "u-1", doc.JCR["uuid"])
	assert.Equal(t, []string{"sulu:article"}, doc.MixinTypes())
	assert.Equal(t, created, doc.Sulu["created"])
	assert.Equal(t, "Sulu\\Article", doc.Extra["phpcr:class"])

	null := doc.Localizations[types.Unlocalized]
	assert.Equal(t, "SEO", null.Value(types.P("seo", "title")))
	assert.Equal(t, []any{int64(1), int64(2)}, null.Value(types.P("excerpt", "tags")))

	de := doc.Localizations["de"]
	assert.Equal(t, "SEO de", de.Value(types.P("seo", "title")))
	assert.Equal(t, "Excerpt de", de.Value(types.P("excerpt", "title")))
}

func TestParse_BlockIndexing(t *testing.T) {
	doc := Parse(node(map[string]any{
		"blocks-text#2":          "two",
		"blocks-type#2":          "text",
		"blocks-text#0":          "zero",
		"i18n:en-blocks-title#1": "one",
		"i18n:en-blocks-length":  int64(2),
	}))

	null := doc.Localizations[types.Unlocalized]
	blocks, ok := null["blocks"].(types.BlockCollection)
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, blocks.Indexes())
	assert.Equal(t, "two", null.Value(types.P("blocks", "2", "text")))
	assert.Equal(t, "text", null.Value(types.P("blocks", "2", "type")))
	assert.Equal(t, "zero", null.Value(types.P("blocks", "0", "text")))

	en := doc.Localizations["en"]
	assert.Equal(t, "one", en.Value(types.P("blocks", "1", "title")))
	assert.Equal(t, int64(2), en["blocks-length"])
}

func TestParse_MalformedBlockSuffixFallsThrough(t *testing.T) {
	doc := Parse(node(map[string]any{
		"nodash#3":       "a",
		"blocks-text#x":  "b",
		"-text#1":        "c",
		"blocks-sub-a#1": "d",
	}))

	null := doc.Localizations[types.Unlocalized]
	assert.Equal(t, "a", null["nodash#3"])
	assert.Equal(t, "b", null["blocks-text#x"])
	assert.Equal(t, "c", null["-text#1"])
	assert.Equal(t, "d", null.Value(types.P("blocks", "1", "sub-a")))
}

func TestParse_JSONValues(t *testing.T) {
	doc := Parse(node(map[string]any{
		"i18n:de-excerpt-images": `{"ids":[5,6]}`,
		"i18n:de-state":          "2",
		"i18n:de-ratio":          "1.5",
		"i18n:de-empty":          "",
		"i18n:de-zero":           "0",
		"i18n:de-text":           "plain text",
		"i18n:de-flag":           "true",
	}))

	de := doc.Localizations["de"]
	assert.Equal(t, map[string]any{"ids": []any{int64(5), int64(6)}}, de.Value(types.P("excerpt", "images")))
	assert.Equal(t, int64(5), de.Value(types.P("excerpt", "images", "ids", "0")))
	assert.Equal(t, int64(2), de["state"])
	assert.Equal(t, 1.5, de["ratio"])
	assert.Equal(t, "", de["empty"])
	assert.Equal(t, "0", de["zero"])
	assert.Equal(t, "plain text", de["text"])
	assert.Equal(t, true, de["flag"])
}

func TestParse_OrderIndependent(t *testing.T) {
	props := []types.Property{
		{Name: "jcr:uuid", Value: "u-1"},
		{Name: "jcr:mixinTypes", Value: []any{"sulu:article"}},
		{Name: "i18n:de-title", Value: "Titel"},
		{Name: "i18n:de-seo-title", Value: "SEO"},
		{Name: "i18n:de-seo-description", Value: "Desc"},
		{Name: "i18n:de-blocks-type#0", Value: "text"},
		{Name: "i18n:de-blocks-text#0", Value: "a"},
		{Name: "i18n:de-blocks-type#1", Value: "image"},
		{Name: "i18n:en-title", Value: "Title"},
		{Name: "template", Value: "default"},
	}
	want := Parse(&types.NodeData{Props: props})

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.Property(nil), props...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Parse(&types.NodeData{Props: shuffled})
		assert.Equal(t, want, got)
	}
}

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name string
		want target
	}{
		{"i18n:de-title", target{localized: true, locale: "de", field: "title"}},
		{"title", target{localized: true, field: "title"}},
		{"jcr:uuid", target{family: FamilyJCR, field: "uuid"}},
		{"sulu:created", target{family: FamilySulu, field: "created"}},
		{"seo-title", target{localized: true, family: FamilySEO, field: "title"}},
		{"excerpt-tags", target{localized: true, family: FamilyExcerpt, field: "tags"}},
		{"i18n:de-excerpt-icon", target{localized: true, locale: "de", family: FamilyExcerpt, field: "icon"}},
		{"blocks-text#2", target{localized: true, field: "blocks-text#2", block: &blockSlot{key: "blocks", index: 2, typ: "text"}}},
		{"phpcr:class", target{field: "phpcr:class"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeName(tt.name))
		})
	}
}
