// Package parser decodes the flat property set of a PHPCR node into a nested,
// localized document tree.
//
// Property names follow a prefix grammar: an optional "i18n:<locale>-" prefix
// selects the localization, then "jcr:", "sulu:", "seo-" and "excerpt-"
// select a field family, and a "<key>-<type>#<index>" suffix addresses a slot
// in a block collection. Anything else is a plain field.
package parser

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Name prefixes of the property grammar.
const (
	prefixI18n    = "i18n:"
	prefixJCR     = "jcr:"
	prefixSulu    = "sulu:"
	prefixSEO     = "seo-"
	prefixExcerpt = "excerpt-"
)

// Field family keys in the document tree.
const (
	FamilyJCR     = "jcr"
	FamilySulu    = "sulu"
	FamilySEO     = "seo"
	FamilyExcerpt = "excerpt"
)

var blockSuffix = regexp.MustCompile(`^(.+)#(\d+)$`)

// Parse decodes all properties of node into a new document. It has no side
// effects and does not depend on property order.
func Parse(node types.Node) *types.Document {
	doc := types.NewDocument()
	for _, prop := range node.Properties() {
		apply(doc, decodeName(prop.Name), resolveValue(prop.Value))
	}
	return doc
}

// blockSlot addresses one field of a block collection entry.
type blockSlot struct {
	key   string
	index int
	typ   string
}

// target is the decoded location of a property in the document tree.
type target struct {
	localized bool
	locale    types.Locale
	family    string // "", or one of the Family constants.
	field     string
	block     *blockSlot
}

// decodeName applies the property grammar to name.
func decodeName(name string) target {
	var t target
	if rest, ok := strings.CutPrefix(name, prefixI18n); ok {
		if locale, field, found := strings.Cut(rest, "-"); found {
			t.localized = true
			t.locale = types.Locale(locale)
			name = field
		}
	} else if !strings.Contains(name, ":") {
		t.localized = true
		t.locale = types.Unlocalized
	}

	switch {
	case strings.HasPrefix(name, prefixJCR):
		t.family, t.field = FamilyJCR, name[len(prefixJCR):]
	case strings.HasPrefix(name, prefixSulu):
		t.family, t.field = FamilySulu, name[len(prefixSulu):]
	case strings.HasPrefix(name, prefixSEO):
		t.family, t.field = FamilySEO, name[len(prefixSEO):]
	case strings.HasPrefix(name, prefixExcerpt):
		t.family, t.field = FamilyExcerpt, name[len(prefixExcerpt):]
	default:
		t.field = name
		t.block = decodeBlock(name)
	}
	return t
}

// decodeBlock parses "<key>-<type>#<index>". It returns nil for names
// without an index suffix or without a dash before it.
func decodeBlock(name string) *blockSlot {
	m := blockSuffix.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	key, typ, ok := strings.Cut(m[1], "-")
	if !ok || key == "" || typ == "" {
		return nil
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	return &blockSlot{key: key, index: index, typ: typ}
}

// apply writes value at the location described by t.
func apply(doc *types.Document, t target, value any) {
	var fields types.Fields
	switch {
	case t.localized:
		fields = doc.Localization(t.locale)
	case t.family == FamilyJCR:
		doc.JCR[t.field] = value
		return
	case t.family == FamilySulu:
		doc.Sulu[t.field] = value
		return
	default:
		fields = doc.Extra
	}

	switch {
	case t.block != nil:
		fields.Blocks(t.block.key).Slot(t.block.index)[t.block.typ] = value
	case t.family != "":
		fields.Set(types.P(t.family, t.field), value)
	default:
		fields.Set(types.P(t.field), value)
	}
}

// resolveValue decodes string values holding JSON. The empty string and "0"
// are kept as strings.
func resolveValue(v any) any {
	s, ok := v.(string)
	if !ok || s == "" || s == "0" || !json.Valid([]byte(s)) {
		return v
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return v
	}
	return types.NormalizeJSON(out)
}
