// Package registry implements the generic entity store every class of
// deduplicated object (numeric types, components, TRCs, spaces, models,
// pixel formats) is interned through: lookup by name, lookup by id, an
// idempotent insert, and deterministic-order iteration.
package registry

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Entity is the minimum an object must expose to live in a Registry.
type Entity interface {
	EntityID() uint32
	EntityName() string
}

const bucketCount = 128

// AbortFunc is called on a fatal programming error (an id collision
// across different names). Tests override it to capture the failure
// instead of killing the process.
type AbortFunc func(msg string, fields ...zap.Field)

var defaultAbort AbortFunc = func(msg string, fields ...zap.Field) {
	logger, _ := zap.NewProduction()
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Fatal(msg, fields...)
}

// Registry interns entities of a single class: per-name open chaining
// over a fixed bucket count, each
// chain scanned linearly (names are expected to collide rarely and
// entity counts stay in the low thousands). The id index is a small
// secondary map, since ids are a dense, caller-assigned identifier space
// rather than a second hash domain.
type Registry[E Entity] struct {
	mu      sync.Mutex
	buckets [bucketCount][]int // name hash bucket -> indices into order
	byID    map[uint32]int     // id -> index into order (id != 0 only)
	order   []E
	abort   AbortFunc
	log     *zap.Logger
}

// New constructs an empty Registry. log may be nil, in which case a
// no-op logger is used.
func New[E Entity](log *zap.Logger) *Registry[E] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry[E]{
		byID:  make(map[uint32]int),
		abort: defaultAbort,
		log:   log,
	}
}

// SetAbort overrides the fatal-error hook (for hermetic tests).
func (r *Registry[E]) SetAbort(f AbortFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abort = f
}

func bucketOf(name string) int {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*31 + uint32(name[i])
	}
	return int(h % bucketCount)
}

// Lookup finds an entity by name: hash to a bucket, then scan its chain
// linearly.
func (r *Registry[E]) Lookup(name string) (E, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, idx := range r.buckets[bucketOf(name)] {
		if r.order[idx].EntityName() == name {
			return r.order[idx], true
		}
	}
	var zero E
	return zero, false
}

// LookupByID finds an entity by its non-zero id. Entities with id 0 are
// only reachable via Lookup (spec invariant: id 0 is "unassigned").
func (r *Registry[E]) LookupByID(id uint32) (E, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 {
		var zero E
		return zero, false
	}
	idx, ok := r.byID[id]
	if !ok {
		var zero E
		return zero, false
	}
	return r.order[idx], true
}

// Insert interns e: if an entity with the same name (or the same
// non-zero id) is already registered, the existing entity is returned
// and e is discarded. Otherwise e is assigned its bucket and appended to
// insertion order. Two entities sharing a non-zero id but different
// names is a fatal programming error (spec invariant).
func (r *Registry[E]) Insert(e E) E {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := e.EntityName()
	b := bucketOf(name)
	for _, idx := range r.buckets[b] {
		if r.order[idx].EntityName() == name {
			return r.order[idx]
		}
	}
	if id := e.EntityID(); id != 0 {
		if idx, ok := r.byID[id]; ok {
			existing := r.order[idx]
			if existing.EntityName() != name {
				r.abort("registry: id collision across distinct names",
					zap.Uint32("id", id),
					zap.String("existing", existing.EntityName()),
					zap.String("incoming", name))
				return existing
			}
			return existing
		}
	}

	idx := len(r.order)
	r.order = append(r.order, e)
	r.buckets[b] = append(r.buckets[b], idx)
	if id := e.EntityID(); id != 0 {
		r.byID[id] = idx
	}
	r.log.Debug("registry insert", zap.String("name", name), zap.Uint32("id", e.EntityID()))
	return e
}

// Iterate calls fn for every entity in deterministic insertion order,
// stopping early if fn returns false.
func (r *Registry[E]) Iterate(fn func(E) bool) {
	r.mu.Lock()
	snapshot := make([]E, len(r.order))
	copy(snapshot, r.order)
	r.mu.Unlock()

	for _, e := range snapshot {
		if !fn(e) {
			return
		}
	}
}

// Len reports the number of interned entities.
func (r *Registry[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// MustLookup is a convenience wrapper for call sites that treat a
// missing well-known entity as a programming error.
func (r *Registry[E]) MustLookup(name string) E {
	e, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("registry: missing required entity %q", name))
	}
	return e
}
