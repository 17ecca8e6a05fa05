package types

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Locale identifies a localization of a document. The zero value is the
// unlocalized locale, which holds data without an i18n prefix.
type Locale string

// Unlocalized is the locale of properties without an i18n prefix.
const Unlocalized Locale = ""

// unlocalizedKey is how the unlocalized locale is rendered in dumps and logs.
const unlocalizedKey = "null"

// IsUnlocalized reports whether l is the unlocalized locale.
func (l Locale) IsUnlocalized() bool { return l == Unlocalized }

// String returns the locale code, or "null" for the unlocalized locale.
func (l Locale) String() string {
	if l.IsUnlocalized() {
		return unlocalizedKey
	}
	return string(l)
}

// SQLValue returns the value stored in a locale column: nil for the
// unlocalized locale, the locale code otherwise.
func (l Locale) SQLValue() any {
	if l.IsUnlocalized() {
		return nil
	}
	return string(l)
}

// Path addresses a value inside a Fields tree, one segment per level.
// Block collection levels are addressed by the decimal index.
type Path []string

// P builds a Path from its segments.
func P(segments ...string) Path { return Path(segments) }

// Fields is one level of the document tree.
type Fields map[string]any

// BlockCollection is an index-addressed group of block records, decoded from
// property names with a "#<index>" suffix.
type BlockCollection map[int]Fields

// Document is the decoded form of one source node.
type Document struct {
	JCR           Fields            // jcr:* properties (uuid, mixinTypes, ...).
	Sulu          Fields            // sulu:* bookkeeping properties.
	Extra         Fields            // Other namespaced root properties (e.g. phpcr:class).
	Localizations map[Locale]Fields // Localized data; always contains Unlocalized.
}

// NewDocument returns an empty document whose localizations already contain
// the unlocalized locale, so that its dimension is always processed.
func NewDocument() *Document {
	return &Document{
		JCR:   Fields{},
		Sulu:  Fields{},
		Extra: Fields{},
		Localizations: map[Locale]Fields{
			Unlocalized: {},
		},
	}
}

// Localization returns the fields of locale, creating them when missing.
func (d *Document) Localization(locale Locale) Fields {
	f, ok := d.Localizations[locale]
	if !ok {
		f = Fields{}
		d.Localizations[locale] = f
	}
	return f
}

// Locales returns all locale keys sorted, the unlocalized locale first.
func (d *Document) Locales() []Locale {
	locales := make([]Locale, 0, len(d.Localizations))
	for l := range d.Localizations {
		locales = append(locales, l)
	}
	sort.Slice(locales, func(i, j int) bool { return locales[i] < locales[j] })
	return locales
}

// AvailableLocales returns the localized locale codes, sorted.
func (d *Document) AvailableLocales() []string {
	var codes []string
	for _, l := range d.Locales() {
		if !l.IsUnlocalized() {
			codes = append(codes, string(l))
		}
	}
	if codes == nil {
		codes = []string{}
	}
	return codes
}

// UUID returns jcr.uuid, or "" when it is missing or not a string.
func (d *Document) UUID() string {
	s, _ := d.JCR["uuid"].(string)
	return s
}

// MixinTypes returns jcr.mixinTypes as strings. A single-valued property is
// treated as a one-element list.
func (d *Document) MixinTypes() []string {
	return ToStrings(d.JCR["mixinTypes"])
}

// Tree returns the document as nested generic maps, with the unlocalized
// locale keyed "null". Used for dumps.
func (d *Document) Tree() map[string]any {
	locs := make(map[string]any, len(d.Localizations))
	for l, f := range d.Localizations {
		locs[l.String()] = f.Tree()
	}
	tree := map[string]any{
		"jcr":           d.JCR.Tree(),
		"sulu":          d.Sulu.Tree(),
		"localizations": locs,
	}
	for k, v := range d.Extra.Tree() {
		tree[k] = v
	}
	return tree
}

// Get returns the value at path.
func (f Fields) Get(path Path) (any, bool) {
	var cur any = f
	for _, seg := range path {
		switch c := cur.(type) {
		case Fields:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case BlockCollection:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, false
			}
			v, ok := c[idx]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Value returns the value at path, or nil.
func (f Fields) Value(path Path) any {
	v, _ := f.Get(path)
	return v
}

// Set writes v at path, creating intermediate Fields. Non-map values found
// on the way are replaced.
func (f Fields) Set(path Path, v any) {
	if len(path) == 0 {
		return
	}
	cur := f
	for _, seg := range path[:len(path)-1] {
		cur = cur.Family(seg)
	}
	cur[path[len(path)-1]] = v
}

// Delete removes the value at path, if present.
func (f Fields) Delete(path Path) {
	if len(path) == 0 {
		return
	}
	parent, ok := f.Get(path[:len(path)-1])
	if !ok {
		return
	}
	switch p := parent.(type) {
	case Fields:
		delete(p, path[len(path)-1])
	case map[string]any:
		delete(p, path[len(path)-1])
	}
}

// Family returns the nested Fields stored under key, creating it when the key
// is missing or holds something else.
func (f Fields) Family(key string) Fields {
	switch v := f[key].(type) {
	case Fields:
		return v
	case map[string]any:
		fam := Fields(v)
		f[key] = fam
		return fam
	}
	fam := Fields{}
	f[key] = fam
	return fam
}

// Blocks returns the block collection stored under key, creating it when
// the key is missing or holds something else.
func (f Fields) Blocks(key string) BlockCollection {
	if b, ok := f[key].(BlockCollection); ok {
		return b
	}
	b := BlockCollection{}
	f[key] = b
	return b
}

// Slot returns the block record at index, creating it when missing.
func (b BlockCollection) Slot(index int) Fields {
	s, ok := b[index]
	if !ok {
		s = Fields{}
		b[index] = s
	}
	return s
}

// Indexes returns the block indexes in ascending order.
func (b BlockCollection) Indexes() []int {
	idx := make([]int, 0, len(b))
	for i := range b {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// sequential reports whether the indexes are exactly 0..len-1.
func (b BlockCollection) sequential() bool {
	for i, idx := range b.Indexes() {
		if i != idx {
			return false
		}
	}
	return true
}

// MarshalJSON encodes a collection with indexes 0..n-1 as a JSON array and
// any other collection as an object keyed by index.
func (b BlockCollection) MarshalJSON() ([]byte, error) {
	if b.sequential() {
		list := make([]Fields, 0, len(b))
		for _, i := range b.Indexes() {
			list = append(list, b[i])
		}
		return json.Marshal(list)
	}
	obj := make(map[string]Fields, len(b))
	for i, s := range b {
		obj[strconv.Itoa(i)] = s
	}
	return json.Marshal(obj)
}

// Clone returns a deep copy of f. Lists are copied shallowly per element.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch c := v.(type) {
	case Fields:
		return c.Clone()
	case map[string]any:
		return Fields(c).Clone()
	case BlockCollection:
		out := make(BlockCollection, len(c))
		for i, s := range c {
			out[i] = s.Clone()
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Tree returns f as plain nested maps; block collections become maps keyed
// by index.
func (f Fields) Tree() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = treeValue(v)
	}
	return out
}

func treeValue(v any) any {
	switch c := v.(type) {
	case Fields:
		return c.Tree()
	case map[string]any:
		return Fields(c).Tree()
	case BlockCollection:
		out := make(map[int]any, len(c))
		for i, s := range c {
			out[i] = s.Tree()
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = treeValue(e)
		}
		return out
	default:
		return v
	}
}
