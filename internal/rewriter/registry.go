package rewriter

import (
	"sync"

	"github.com/cockroachdb/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Registry is a lookup table of dialects keyed by name.
// Registration order is preserved and decides Dispatch precedence.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Rewriter
	order  []string
}

// NewRegistry creates a registry holding the given rewriters.
func NewRegistry(rewriters ...Rewriter) (*Registry, error) {
	registry := &Registry{byName: make(map[string]Rewriter)}

	for _, rw := range rewriters {
		if err := registry.Register(rw); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register adds a rewriter. Nil rewriters, empty names and duplicates are rejected.
//
//nolint:wrapcheck // errors.New/Newf create new errors
func (r *Registry) Register(rw Rewriter) error {
	if rw == nil {
		return errors.New("cannot register nil rewriter")
	}

	name := rw.Name()
	if name == "" {
		return errors.New("cannot register rewriter with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byName == nil {
		r.byName = make(map[string]Rewriter)
	}

	if _, exists := r.byName[name]; exists {
		return errors.Newf("rewriter %q already registered", name)
	}

	r.byName[name] = rw
	r.order = append(r.order, name)

	return nil
}

// Get returns the rewriter registered under name.
func (r *Registry) Get(name string) (Rewriter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rw, ok := r.byName[name]

	return rw, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}

// Dispatch returns the first registered rewriter that matches obj.
func (r *Registry) Dispatch(obj *unstructured.Unstructured, rctx *Context) (Rewriter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		rw := r.byName[name]
		if rw.Match(obj, rctx) {
			return rw, true
		}
	}

	return nil, false
}
