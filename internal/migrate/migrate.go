// Package migrate drives a migration run: for every document type and
// workspace it reads the matching nodes from the source, decodes them, and
// persists them into the target schema.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/phpcrmigrate/internal/config"
	"github.com/mesh-intelligence/phpcrmigrate/internal/parser"
	"github.com/mesh-intelligence/phpcrmigrate/internal/persister"
	"github.com/mesh-intelligence/phpcrmigrate/internal/source"
)

// ErrDocumentsFailed is returned by Run when at least one document could
// not be migrated.
var ErrDocumentsFailed = errors.New("documents failed to migrate")

// Result counts the documents of one type in one workspace.
type Result struct {
	Type          string
	Workspace     string
	Live          bool
	Nodes         int
	Migrated      int
	Failed        int
	RouteFailures int
}

// Summary describes a finished run.
type Summary struct {
	RunID   string
	Results []Result
}

// Totals sums the results of all types and workspaces.
func (s *Summary) Totals() Result {
	var t Result
	for _, r := range s.Results {
		t.Nodes += r.Nodes
		t.Migrated += r.Migrated
		t.Failed += r.Failed
		t.RouteFailures += r.RouteFailures
	}
	return t
}

// Migrator runs migrations from one source into one target repository.
type Migrator struct {
	src        source.Source
	repo       persister.Repository
	workspaces []string
	log        zerolog.Logger
	now        func() time.Time
	failFast   bool
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the run logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Migrator) { m.log = log }
}

// WithClock sets the clock passed to the persisters.
func WithClock(now func() time.Time) Option {
	return func(m *Migrator) { m.now = now }
}

// WithFailFast stops the run at the first document that fails.
func WithFailFast(failFast bool) Option {
	return func(m *Migrator) { m.failFast = failFast }
}

// New returns a Migrator reading the workspaces of dsn from src and writing
// through repo.
func New(src source.Source, repo persister.Repository, dsn *config.DSN, opts ...Option) *Migrator {
	m := &Migrator{
		src:        src,
		repo:       repo,
		workspaces: dsn.Workspaces(),
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run migrates the given document types, each from the default and then the
// live workspace. Documents that fail are logged and counted; the run goes
// on unless fail-fast is set. The returned error wraps ErrDocumentsFailed
// when any document failed. Source errors and cancellation end the run.
func (m *Migrator) Run(ctx context.Context, docTypes []string) (*Summary, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	summary := &Summary{RunID: runID.String()}
	log := m.log.With().Str("run_id", summary.RunID).Logger()

	pool := persister.NewDefaultPool(m.repo, persister.WithLogger(log), persister.WithClock(m.now))
	persisters := make([]*persister.Persister, 0, len(docTypes))
	for _, typ := range docTypes {
		p, err := pool.Get(typ)
		if err != nil {
			return summary, err
		}
		persisters = append(persisters, p)
	}

	for _, p := range persisters {
		for _, ws := range m.workspaces {
			res, err := m.migrateWorkspace(ctx, log, p, ws)
			summary.Results = append(summary.Results, res)
			if err != nil {
				return summary, err
			}
		}
	}

	totals := summary.Totals()
	log.Info().
		Int("nodes", totals.Nodes).
		Int("migrated", totals.Migrated).
		Int("failed", totals.Failed).
		Int("route_failures", totals.RouteFailures).
		Msg("migration finished")
	if totals.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrDocumentsFailed, totals.Failed, totals.Nodes)
	}
	return summary, nil
}

func (m *Migrator) migrateWorkspace(ctx context.Context, log zerolog.Logger, p *persister.Persister, workspace string) (Result, error) {
	res := Result{
		Type:      p.Type(),
		Workspace: workspace,
		Live:      config.IsLiveWorkspace(workspace),
	}
	log = log.With().Str("type", res.Type).Str("workspace", workspace).Logger()

	nodes, err := m.src.Nodes(ctx, workspace, p.Mixin())
	if err != nil {
		return res, fmt.Errorf("reading workspace %s: %w", workspace, err)
	}
	res.Nodes = len(nodes)
	log.Info().Int("nodes", res.Nodes).Msg("migrating workspace")

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		doc := parser.Parse(node)
		report, err := p.Persist(ctx, doc, res.Live)
		if err != nil {
			res.Failed++
			log.Error().Err(err).Str("path", node.Path()).Str("uuid", doc.UUID()).Msg("document not migrated")
			if m.failFast {
				return res, fmt.Errorf("%s: %w", node.Path(), err)
			}
			continue
		}
		res.Migrated++
		res.RouteFailures += len(report.RouteFailures)
		log.Debug().Str("uuid", report.UUID).Int("dimension_contents", report.DimensionContents).Msg("document migrated")
	}
	return res, nil
}
