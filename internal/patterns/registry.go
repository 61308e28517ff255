package patterns

import "sync"

// Registry is the in-memory pattern database, keyed by bot identifier.
// Iteration order during matching is insertion order: patterns inserted
// earlier win ties, and upserting an existing name keeps its position.
//
// All methods are safe for concurrent use; reads take an RLock, so detection
// can run concurrently with Upsert/Remove. Stored BotPatterns are immutable —
// replacing one swaps the pointer.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*BotPattern
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*BotPattern)}
}

// NewWithDefaults returns a private registry pre-populated with the built-in
// pattern set. This is the facade's default starting point.
func NewWithDefaults() *Registry {
	r := New()
	for _, def := range DefaultDefinitions() {
		r.Upsert(def.Name, Compile(def.Name, def))
	}
	return r
}

var (
	sharedOnce sync.Once
	shared     *Registry
)

// Shared returns the process-wide default registry, built lazily with the
// built-in pattern set. Mutating it affects every caller that relies on the
// shared instance — a documented hazard. Prefer NewWithDefaults for
// per-instance state.
func Shared() *Registry {
	sharedOnce.Do(func() { shared = NewWithDefaults() })
	return shared
}

// Get returns the pattern for the given bot name.
func (r *Registry) Get(name string) (*BotPattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// All returns a copy of the full name→pattern mapping. The copy does not
// observe later registry mutations.
func (r *Registry) All() map[string]*BotPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*BotPattern, len(r.byName))
	for name, p := range r.byName {
		out[name] = p
	}
	return out
}

// Snapshot returns the patterns in insertion order. The engine takes one
// snapshot per detection call so a single call always sees consistent state.
func (r *Registry) Snapshot() []*BotPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*BotPattern, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Upsert inserts or replaces the pattern under the given name.
// A replaced pattern keeps its original iteration position.
func (r *Registry) Upsert(name string, p *BotPattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = p
}

// Remove deletes the pattern under the given name, reporting whether an
// entry existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; !exists {
		return false
	}
	delete(r.byName, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// UserAgents returns every user-agent matcher text (literal or regex source)
// across all patterns, in registry order.
func (r *Registry) UserAgents() []string {
	var out []string
	for _, p := range r.Snapshot() {
		for _, m := range p.Matchers {
			out = append(out, m.String())
		}
	}
	return out
}

// IPRanges returns every CIDR string across all patterns, in registry order.
func (r *Registry) IPRanges() []string {
	var out []string
	for _, p := range r.Snapshot() {
		for _, rng := range p.IPRanges {
			out = append(out, rng.Raw)
		}
	}
	return out
}
