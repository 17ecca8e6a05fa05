package persister

import (
	"sort"

	"github.com/mesh-intelligence/phpcrmigrate/pkg/types"
)

// DocumentTypes returns the built-in document types keyed by name.
func DocumentTypes() map[string]DocumentType {
	article := ArticleType()
	return map[string]DocumentType{
		article.Name: article,
	}
}

// Pool resolves document type names to persisters.
type Pool struct {
	persisters map[string]*Persister
}

// NewPool registers the given persisters under their type names. A later
// persister replaces an earlier one of the same type.
func NewPool(persisters ...*Persister) *Pool {
	p := &Pool{persisters: make(map[string]*Persister, len(persisters))}
	for _, ps := range persisters {
		p.persisters[ps.Type()] = ps
	}
	return p
}

// NewDefaultPool returns a pool with a persister for every built-in
// document type, all writing through repo.
func NewDefaultPool(repo Repository, opts ...Option) *Pool {
	var ps []*Persister
	for _, typ := range DocumentTypes() {
		ps = append(ps, New(repo, typ, opts...))
	}
	return NewPool(ps...)
}

// Get returns the persister of a document type. It returns a
// PersisterNotFoundError for unregistered types.
func (p *Pool) Get(typ string) (*Persister, error) {
	ps, ok := p.persisters[typ]
	if !ok {
		return nil, &types.PersisterNotFoundError{Type: typ}
	}
	return ps, nil
}

// Types returns the registered type names, sorted.
func (p *Pool) Types() []string {
	names := make([]string, 0, len(p.persisters))
	for name := range p.persisters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
