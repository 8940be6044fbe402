package plugin

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/tomoflow/errors"
)

// Factory returns a fresh, unbound stage.
type Factory func() Stage

// Registry maps stage IDs to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under id.
func (r *Registry) Register(id string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; ok {
		return errors.AlreadyExists("stage", id)
	}
	r.factories[id] = f
	return nil
}

// MustRegister is Register for package init code.
func (r *Registry) MustRegister(id string, f Factory) {
	if err := r.Register(id, f); err != nil {
		panic(err)
	}
}

// New instantiates the stage registered under id.
func (r *Registry) New(id string) (Stage, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.StageLoad(id, errors.NotFound("stage", id))
	}
	s := f()
	if s.ID() != id {
		return nil, errors.StageLoad(id, fmt.Errorf("factory built stage %q", s.ID()))
	}
	return s, nil
}

// IDs lists the registered stage IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
