package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a fresh variant for one game.
type Factory func() Variant

// Registry maps variant names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a variant under the name it reports.
func (r *Registry) Register(f Factory) error {
	if f == nil {
		return fmt.Errorf("register: nil factory")
	}
	name := normalize(f().Name())
	if name == "" {
		return fmt.Errorf("register: variant has no name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrVariantRegistered, name)
	}
	r.factories[name] = f
	return nil
}

// Lookup returns a fresh variant by name.
func (r *Registry) Lookup(name string) (Variant, error) {
	r.mu.RLock()
	f, ok := r.factories[normalize(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, name)
	}
	return f(), nil
}

// Names lists registered variants, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ForPlayers lists variants that support n players, sorted.
func (r *Registry) ForPlayers(n int) []string {
	var out []string
	for _, name := range r.Names() {
		v, err := r.Lookup(name)
		if err != nil {
			continue
		}
		if lo, hi := v.Players(); n >= lo && n <= hi {
			out = append(out, name)
		}
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
