// Package persister maps decoded documents onto the relational content
// schema: the entity row, one dimension content row per locale and stage,
// excerpt relation rows, and routes.
package persister

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// Localized keys read by every document type.
const (
	keyRoutePath     = "routePath"
	keyRoutePathName = "routePathName"
	keyState         = "state"
	keyLengthSuffix  = "-length"
)

// stateUnpublished is the workflow state of a localization that was never
// published. Such localizations get no route.
const stateUnpublished = 1

// Repository is the storage used by a Persister.
type Repository interface {
	BeginTransaction(ctx context.Context) error
	Commit() error
	Rollback() error
	Isolate(ctx context.Context, fn func() error) error
	InsertOrUpdate(ctx context.Context, table string, data types.Row, columnTypes types.ColumnTypes, where types.Row) error
	FindBy(ctx context.Context, table string, where types.Row) (types.Row, error)
	RemoveBy(ctx context.Context, table string, where types.Row) (int64, error)
}

// Report summarizes the rows written by one Persist call.
type Report struct {
	UUID              string
	DimensionContents int
	Relations         int
	Routes            int
	// RouteFailures holds the route writes that failed. They did not abort
	// the persist call.
	RouteFailures []RouteFailure
}

// RouteFailure is a route write that failed for one locale.
type RouteFailure struct {
	Locale types.Locale
	Err    error
}

// Persister writes documents of one DocumentType.
type Persister struct {
	repo Repository
	typ  DocumentType
	log  zerolog.Logger
	now  func() time.Time
}

// Option configures a Persister.
type Option func(*Persister)

// WithLogger sets the logger that reports swallowed route failures.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Persister) { p.log = log }
}

// WithClock sets the clock used for route timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Persister) { p.now = now }
}

// New returns a Persister writing documents of typ through repo.
func New(repo Repository, typ DocumentType, opts ...Option) *Persister {
	p := &Persister{
		repo: repo,
		typ:  typ,
		log:  zerolog.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Type returns the registry tag of the persister's document type.
func (p *Persister) Type() string { return p.typ.Name }

// Mixin returns the jcr:mixinTypes entry selecting the persister's nodes.
func (p *Persister) Mixin() string { return p.typ.Mixin }

// Supports reports whether doc is of the persister's document type.
func (p *Persister) Supports(doc *types.Document) bool { return p.typ.supports(doc) }

// Persist writes doc for the draft or live stage. Precondition failures
// return before anything is written. Entity, dimension content, and relation
// writes share one transaction and any failure rolls it back. Route writes
// run in the same transaction but a failing route is reported in the Report
// and logged instead of aborting the call.
func (p *Persister) Persist(ctx context.Context, doc *types.Document, isLive bool) (report *Report, err error) {
	if err := p.validate(doc); err != nil {
		return nil, err
	}
	report = &Report{UUID: doc.UUID()}

	if err := p.repo.BeginTransaction(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, p.repo.Rollback())
			report = nil
		}
	}()

	if err := p.insertEntity(ctx, doc); err != nil {
		return nil, err
	}

	for _, locale := range doc.Locales() {
		id, err := p.insertDimensionContent(ctx, doc, locale, isLive)
		if err != nil {
			return nil, err
		}
		report.DimensionContents++
		if locale.IsUnlocalized() {
			continue
		}
		n, err := p.replaceRelations(ctx, doc.Localizations[locale], id)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", locale, err)
		}
		report.Relations += n
	}

	for _, locale := range doc.Locales() {
		fields := doc.Localizations[locale]
		if locale.IsUnlocalized() || !isPublished(fields) {
			continue
		}
		err := p.repo.Isolate(ctx, func() error {
			return p.upsertRoute(ctx, doc, locale, fields)
		})
		if err != nil {
			p.log.Warn().Err(err).
				Str("uuid", report.UUID).
				Str("locale", locale.String()).
				Msg("route not migrated")
			report.RouteFailures = append(report.RouteFailures, RouteFailure{Locale: locale, Err: err})
			continue
		}
		report.Routes++
	}

	if err := p.repo.Commit(); err != nil {
		return nil, err
	}
	return report, nil
}

// validate checks the preconditions of Persist.
func (p *Persister) validate(doc *types.Document) error {
	if !p.typ.supports(doc) {
		return &types.UnsupportedDocumentTypeError{Types: doc.MixinTypes()}
	}
	uuid := doc.UUID()
	if uuid == "" {
		return types.ErrMissingUUID
	}
	for _, locale := range doc.Locales() {
		fields := doc.Localizations[locale]
		if len(fields) == 0 {
			continue
		}
		if fields[keyRoutePath] != nil && fields[keyRoutePathName] == nil {
			return &types.MissingRouteNameError{UUID: uuid, Locale: locale}
		}
	}
	return nil
}

func (p *Persister) insertEntity(ctx context.Context, doc *types.Document) error {
	source := types.Fields{
		"jcr":  doc.JCR,
		"sulu": doc.Sulu,
	}
	row := types.Row{}
	for _, m := range p.typ.EntityMapping {
		if v := source.Value(m.Source); v != nil {
			row[m.Column] = v
		}
	}
	where := types.Row{p.typ.EntityKey: doc.UUID()}
	if err := p.repo.InsertOrUpdate(ctx, p.typ.EntityTable, row, p.typ.EntityColumnTypes, where); err != nil {
		return fmt.Errorf("persisting entity: %w", err)
	}
	return nil
}

// insertDimensionContent upserts the dimension content row of locale and
// returns its id.
func (p *Persister) insertDimensionContent(ctx context.Context, doc *types.Document, locale types.Locale, isLive bool) (any, error) {
	fields := doc.Localizations[locale].Clone()

	row := types.Row{}
	for k, v := range p.typ.DimensionDefaults {
		row[k] = v
	}
	for _, m := range p.typ.DimensionMapping {
		if v := fields.Value(m.Source); v != nil || row[m.Column] == nil {
			row[m.Column] = v
		}
	}
	if _, ok := p.typ.DimensionColumnTypes["availableLocales"]; ok {
		row["availableLocales"] = doc.AvailableLocales()
	}
	for _, col := range p.typ.MediaColumns {
		row[col] = firstMediaID(row[col])
	}
	row = p.typ.MapDimension(doc, locale, row, isLive)
	row["templateData"] = p.templateData(row, doc.Localizations[locale], fields)

	where := types.Row{
		p.typ.ForeignKey: row[p.typ.ForeignKey],
		"locale":         row["locale"],
		"stage":          row["stage"],
	}
	if err := p.repo.InsertOrUpdate(ctx, p.typ.DimensionTable, row, p.typ.DimensionColumnTypes, where); err != nil {
		return nil, fmt.Errorf("persisting dimension content %s/%v: %w", locale, row["stage"], err)
	}

	stored, err := p.repo.FindBy(ctx, p.typ.DimensionTable, where)
	if err != nil {
		return nil, fmt.Errorf("reading dimension content %s/%v: %w", locale, row["stage"], err)
	}
	if stored == nil || stored["id"] == nil {
		return nil, fmt.Errorf("dimension content %s/%v not found after write", locale, row["stage"])
	}
	return stored["id"], nil
}

// templateData strips fields, a copy of the localized data, down to what no
// column consumed and applies the type's overrides on top.
func (p *Persister) templateData(row types.Row, localized, fields types.Fields) types.Fields {
	for _, m := range p.typ.DimensionMapping {
		fields.Delete(m.Source)
	}
	for _, key := range p.typ.NonTemplateKeys {
		delete(fields, key)
	}
	for key, v := range fields {
		if _, ok := v.(types.BlockCollection); ok {
			delete(fields, key+keyLengthSuffix)
		}
	}
	for key, v := range fields {
		if v == nil {
			delete(fields, key)
		}
	}
	if p.typ.TemplateOverrides != nil {
		for k, v := range p.typ.TemplateOverrides(row, localized) {
			fields[k] = v
		}
	}
	return fields
}

// replaceRelations deletes the relation rows of a dimension content and
// inserts the ids listed in the localized data.
func (p *Persister) replaceRelations(ctx context.Context, fields types.Fields, dimensionID any) (int, error) {
	written := 0
	for _, rel := range p.typ.Relations {
		if _, err := p.repo.RemoveBy(ctx, rel.Table, types.Row{rel.OwnerColumn: dimensionID}); err != nil {
			return written, fmt.Errorf("clearing %s: %w", rel.Table, err)
		}
		seen := map[int64]bool{}
		for _, raw := range types.ToList(fields.Value(rel.Source)) {
			id, ok := types.ToInt(raw)
			if !ok {
				return written, fmt.Errorf("%s: %w: %v", rel.Table, types.ErrInvalidRelatedID, raw)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			row := types.Row{rel.OwnerColumn: dimensionID, rel.Column: id}
			colTypes := types.ColumnTypes{rel.OwnerColumn: types.ColumnInteger, rel.Column: types.ColumnInteger}
			if err := p.repo.InsertOrUpdate(ctx, rel.Table, row, colTypes, nil); err != nil {
				return written, fmt.Errorf("inserting into %s: %w", rel.Table, err)
			}
			written++
		}
	}
	return written, nil
}

// upsertRoute writes the route of one published locale. An existing route of
// the entity and locale keeps its path, history flag, and creation time.
func (p *Persister) upsertRoute(ctx context.Context, doc *types.Document, locale types.Locale, fields types.Fields) error {
	path, err := p.typ.Path(fields)
	if err != nil {
		return err
	}
	uuid := doc.UUID()
	now := p.now()

	existing, err := p.repo.FindBy(ctx, p.typ.RouteTable, types.Row{
		"entity_id": uuid,
		"locale":    string(locale),
	})
	if err != nil {
		return fmt.Errorf("reading route: %w", err)
	}

	row := types.Row{
		"entity_class": p.typ.EntityClass,
		"entity_id":    uuid,
		"locale":       string(locale),
		"path":         path,
		"history":      false,
		"created":      now,
		"changed":      now,
	}
	if existing != nil {
		row["path"] = existing["path"]
		row["history"] = existing["history"]
		row["created"] = existing["created"]
	}

	where := types.Row{
		"entity_id": uuid,
		"path":      row["path"],
		"locale":    string(locale),
	}
	if err := p.repo.InsertOrUpdate(ctx, p.typ.RouteTable, row, p.typ.RouteColumnTypes, where); err != nil {
		return fmt.Errorf("persisting route: %w", err)
	}
	return nil
}

// isPublished reports whether a localization is not marked unpublished.
func isPublished(fields types.Fields) bool {
	state, ok := types.ToInt(fields[keyState])
	return !ok || state != stateUnpublished
}

// firstMediaID reduces a {ids: [...]} media selection to its first id.
// Scalars are returned unchanged.
func firstMediaID(v any) any {
	var ids any
	switch m := v.(type) {
	case map[string]any:
		ids = m["ids"]
	case types.Fields:
		ids = m["ids"]
	default:
		return v
	}
	list := types.ToList(ids)
	if len(list) == 0 {
		return nil
	}
	return list[0]
}
