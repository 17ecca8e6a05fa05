package persister

import (
	"strings"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Article document type constants.
const (
	ArticleTypeName    = "article"
	ArticleMixin       = "sulu:article"
	ArticleEntityClass = `Sulu\Article\Domain\Model\ArticleInterface`

	// ArticleTitleMaxLength is the maximum title length in characters.
	ArticleTitleMaxLength = 64

	articleForeignKey = "article_uuid"
	workflowPublished = 2
)

// Target tables shared by all document types.
const (
	RouteTable = "ro_routes"
)

// Workflow places of a dimension content row.
const (
	WorkflowPlaceDraft     = "draft"
	WorkflowPlacePublished = "published"
)

var routeColumnTypes = types.ColumnTypes{
	"entity_class": types.ColumnString,
	"entity_id":    types.ColumnString,
	"locale":       types.ColumnString,
	"path":         types.ColumnString,
	"history":      types.ColumnBoolean,
	"created":      types.ColumnDatetime,
	"changed":      types.ColumnDatetime,
}

// ArticleType returns the mapping of sulu:article nodes onto the ar_*
// tables.
func ArticleType() DocumentType {
	return DocumentType{
		Name:        ArticleTypeName,
		Mixin:       ArticleMixin,
		EntityClass: ArticleEntityClass,

		EntityTable: "ar_articles",
		EntityKey:   "uuid",
		EntityColumnTypes: types.ColumnTypes{
			"uuid":    types.ColumnString,
			"created": types.ColumnDatetime,
			"changed": types.ColumnDatetime,
		},
		EntityMapping: []ColumnMapping{
			{Column: "uuid", Source: types.P("jcr", "uuid")},
			{Column: "created", Source: types.P("sulu", "created")},
			{Column: "changed", Source: types.P("sulu", "changed")},
		},

		DimensionTable: "ar_article_dimension_contents",
		DimensionColumnTypes: types.ColumnTypes{
			articleForeignKey:    types.ColumnString,
			"author_id":          types.ColumnInteger,
			"authored":           types.ColumnDatetime,
			"title":              types.ColumnString,
			"locale":             types.ColumnString,
			"ghostLocale":        types.ColumnString,
			"availableLocales":   types.ColumnJSON,
			"templateKey":        types.ColumnString,
			"stage":              types.ColumnString,
			"workflowPlace":      types.ColumnString,
			"workflowPublished":  types.ColumnDatetime,
			"seoTitle":           types.ColumnString,
			"seoDescription":     types.ColumnString,
			"seoKeywords":        types.ColumnString,
			"seoCanonicalUrl":    types.ColumnString,
			"seoNoIndex":         types.ColumnBoolean,
			"seoNoFollow":        types.ColumnBoolean,
			"seoHideInSitemap":   types.ColumnBoolean,
			"excerptTitle":       types.ColumnString,
			"excerptMore":        types.ColumnString,
			"excerptDescription": types.ColumnString,
			"excerptImageId":     types.ColumnInteger,
			"excerptIconId":      types.ColumnInteger,
			"templateData":       types.ColumnJSON,
		},
		DimensionMapping: []ColumnMapping{
			{Column: "author_id", Source: types.P("author")},
			{Column: "authored", Source: types.P("authored")},
			{Column: "title", Source: types.P("title")},
			{Column: "ghostLocale", Source: types.P("ghostLocale")},
			{Column: "availableLocales", Source: types.P("availableLocales")},
			{Column: "templateKey", Source: types.P("template")},
			{Column: "workflowPlace", Source: types.P("state")},
			{Column: "workflowPublished", Source: types.P("published")},
			{Column: "seoTitle", Source: types.P("seo", "title")},
			{Column: "seoDescription", Source: types.P("seo", "description")},
			{Column: "seoKeywords", Source: types.P("seo", "keywords")},
			{Column: "seoCanonicalUrl", Source: types.P("seo", "canonicalUrl")},
			{Column: "seoNoIndex", Source: types.P("seo", "noIndex")},
			{Column: "seoNoFollow", Source: types.P("seo", "noFollow")},
			{Column: "seoHideInSitemap", Source: types.P("seo", "hideInSitemap")},
			{Column: "excerptTitle", Source: types.P("excerpt", "title")},
			{Column: "excerptMore", Source: types.P("excerpt", "more")},
			{Column: "excerptDescription", Source: types.P("excerpt", "description")},
			{Column: "excerptImageId", Source: types.P("excerpt", "images")},
			{Column: "excerptIconId", Source: types.P("excerpt", "icon")},
		},
		DimensionDefaults: types.Row{
			"seoNoIndex":       false,
			"seoNoFollow":      false,
			"seoHideInSitemap": false,
		},
		ForeignKey:   articleForeignKey,
		MediaColumns: []string{"excerptImageId", "excerptIconId"},

		Relations: []Relation{
			{
				Table:       "ar_article_dimension_content_excerpt_categories",
				OwnerColumn: "dimension_content_id",
				Column:      "category_id",
				Source:      types.P("excerpt", "categories"),
			},
			{
				Table:       "ar_article_dimension_content_excerpt_tags",
				OwnerColumn: "dimension_content_id",
				Column:      "tag_id",
				Source:      types.P("excerpt", "tags"),
			},
		},

		RouteTable:       RouteTable,
		RouteColumnTypes: routeColumnTypes,

		NonTemplateKeys: []string{"seo", "excerpt", keyRoutePath, keyRoutePathName, "stage", keyState},

		MapDimension:      mapArticleDimension,
		TemplateOverrides: articleTemplateOverrides,
		Path:              articlePath,
	}
}

func mapArticleDimension(doc *types.Document, locale types.Locale, row types.Row, isLive bool) types.Row {
	row[articleForeignKey] = doc.UUID()
	row["locale"] = locale.SQLValue()
	row["stage"] = types.StageFor(isLive)
	if title, ok := row["title"].(string); ok {
		row["title"] = truncate(title, ArticleTitleMaxLength)
	}
	row["workflowPlace"] = workflowPlace(row["workflowPlace"])
	return row
}

// articleTemplateOverrides puts the stored title and the route path into the
// template data.
func articleTemplateOverrides(row types.Row, localized types.Fields) types.Fields {
	out := types.Fields{}
	if row["title"] != nil {
		out["title"] = row["title"]
	}
	if path, err := articlePath(localized); err == nil {
		out["url"] = path
	}
	return out
}

// articlePath returns the field named by routePathName, falling back to
// routePath.
func articlePath(fields types.Fields) (string, error) {
	name, _ := fields[keyRoutePathName].(string)
	if attr := stripLocalePrefix(name); attr != "" {
		if path, ok := fields[attr].(string); ok && path != "" {
			return path, nil
		}
	}
	if path, ok := fields[keyRoutePath].(string); ok && path != "" {
		return path, nil
	}
	return "", &types.InvalidPathError{Attribute: name}
}

// stripLocalePrefix turns "i18n:de-routePath" into "routePath".
func stripLocalePrefix(name string) string {
	rest, ok := strings.CutPrefix(name, "i18n:")
	if !ok {
		return name
	}
	if _, field, found := strings.Cut(rest, "-"); found {
		return field
	}
	return rest
}

func workflowPlace(state any) string {
	if s, ok := types.ToInt(state); ok && s == workflowPublished {
		return WorkflowPlacePublished
	}
	return WorkflowPlaceDraft
}

// truncate keeps the first max characters of s.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
