package persister

import (
	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// ColumnMapping projects the value at Source into Column.
type ColumnMapping struct {
	Column string
	Source types.Path
}

// Relation describes a many-to-many table filled from a list of ids in the
// localized data, owned by a dimension content row.
type Relation struct {
	Table       string
	OwnerColumn string // Column referencing the dimension content id.
	Column      string // Column holding the related id.
	Source      types.Path
}

// DocumentType describes how one document type maps onto the relational
// schema. Persist drives the same steps for every type; the fields and hooks
// below supply everything type specific.
type DocumentType struct {
	// Name is the registry tag, e.g. "article".
	Name string
	// Mixin is the jcr:mixinTypes entry a supported document carries.
	Mixin string
	// EntityClass is written to the route table to identify the entity.
	EntityClass string

	EntityTable       string
	EntityKey         string // Natural key column of the entity table.
	EntityColumnTypes types.ColumnTypes
	EntityMapping     []ColumnMapping

	DimensionTable       string
	DimensionColumnTypes types.ColumnTypes
	DimensionMapping     []ColumnMapping
	DimensionDefaults    types.Row
	// ForeignKey is the dimension content column referencing EntityKey.
	ForeignKey string

	// MediaColumns hold {ids: [...]} values reduced to their first id.
	MediaColumns []string

	Relations []Relation

	RouteTable       string
	RouteColumnTypes types.ColumnTypes

	// NonTemplateKeys are removed from the localized data before the rest is
	// stored as template data.
	NonTemplateKeys []string

	// MapDimension post-processes a projected dimension content row. It
	// must set ForeignKey, "locale", and "stage".
	MapDimension func(doc *types.Document, locale types.Locale, row types.Row, isLive bool) types.Row

	// TemplateOverrides returns template data entries that take precedence
	// over the leftover localized data. It receives the projected row and the
	// unstripped localized data. Optional.
	TemplateOverrides func(row types.Row, localized types.Fields) types.Fields

	// Path resolves the route path of a localization.
	Path func(fields types.Fields) (string, error)
}

// supports reports whether doc carries the type's mixin.
func (t *DocumentType) supports(doc *types.Document) bool {
	for _, m := range doc.MixinTypes() {
		if m == t.Mixin {
			return true
		}
	}
	return false
}
