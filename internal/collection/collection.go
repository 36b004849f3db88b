// Package collection implements the ordered, deduplicated local replica of one
// entity kind.
package collection

import (
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/biasdo/syncclient/internal/model"
)

const defaultDegree = 16

// Patch is a partial entity that knows its key and how to merge into, or
// materialize, a V.
type Patch[V any] interface {
	Key() string
	Apply(v *V)
	Full() (V, error)
}

type entry[V any] struct {
	key   string
	value V
}

// Option configures a Collection.
type Option func(*options)

type options struct {
	logger *slog.Logger
	strict bool
	degree int
}

// WithLogger sets the logger used for shape mismatch warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStrict makes shape mismatches panic instead of logging. Meant for
// development builds and tests.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithDegree sets the B-tree degree.
func WithDegree(degree int) Option {
	return func(o *options) {
		o.degree = degree
	}
}

// Collection is a sorted map from identifier to entity, ordered by
// model.CompareIDs regardless of arrival order. Safe for concurrent use.
type Collection[V any] struct {
	name   string
	logger *slog.Logger
	strict bool

	mu   sync.RWMutex
	tree *btree.BTreeG[entry[V]]

	// rev increments on every mutation; derived views use it to skip
	// recomputation.
	rev atomic.Uint64
}

// New creates an empty collection. name is used in log output.
func New[V any](name string, opts ...Option) *Collection[V] {
	o := options{logger: slog.Default(), degree: defaultDegree}
	for _, opt := range opts {
		opt(&o)
	}

	return &Collection[V]{
		name:   name,
		logger: o.logger.With("collection", name),
		strict: o.strict,
		tree: btree.NewG(o.degree, func(a, b entry[V]) bool {
			return model.CompareIDs(a.key, b.key) < 0
		}),
	}
}

// Name returns the collection name.
func (c *Collection[V]) Name() string {
	return c.name
}

// Upsert merges p onto the entity with the same key. If none exists and
// insertOnMissing is set, p is inserted as a full entity; otherwise it is a
// no-op. Reports whether the collection changed.
func (c *Collection[V]) Upsert(p Patch[V], insertOnMissing bool) bool {
	key := p.Key()
	if key == "" {
		c.mismatch(p, model.ErrShapeMismatch)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.tree.Get(entry[V]{key: key}); ok {
		v := existing.value
		p.Apply(&v)
		c.tree.ReplaceOrInsert(entry[V]{key: key, value: v})
		c.rev.Add(1)
		return true
	}

	if !insertOnMissing {
		return false
	}

	v, err := p.Full()
	if err != nil {
		c.mismatch(p, err)
		return false
	}

	c.tree.ReplaceOrInsert(entry[V]{key: key, value: v})
	c.rev.Add(1)
	return true
}

// Remove deletes id if present. Deleting a missing id is expected (duplicate
// or out-of-order deletes) and is a no-op.
func (c *Collection[V]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tree.Delete(entry[V]{key: id}); !ok {
		return false
	}
	c.rev.Add(1)
	return true
}

// Get returns the entity stored under id.
func (c *Collection[V]) Get(id string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.tree.Get(entry[V]{key: id})
	return e.value, ok
}

// Len returns the number of entities.
func (c *Collection[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Len()
}

// Clear removes every entity.
func (c *Collection[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tree.Clear(false)
	c.rev.Add(1)
}

// Revision returns a counter that changes whenever the collection does.
func (c *Collection[V]) Revision() uint64 {
	return c.rev.Load()
}

// All yields entities in key order. Each call iterates a snapshot taken when
// iteration starts, so the sequence is restartable and unaffected by
// concurrent writes.
func (c *Collection[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		snap := c.snapshot()
		snap.Ascend(func(e entry[V]) bool {
			return yield(e.key, e.value)
		})
	}
}

// Values returns all entities in key order.
func (c *Collection[V]) Values() []V {
	return c.Filter(nil)
}

// Filter returns the entities matching keep, in key order. A nil keep
// matches everything.
func (c *Collection[V]) Filter(keep func(V) bool) []V {
	snap := c.snapshot()

	result := make([]V, 0, snap.Len())
	snap.Ascend(func(e entry[V]) bool {
		if keep == nil || keep(e.value) {
			result = append(result, e.value)
		}
		return true
	})
	return result
}

// snapshot returns a lazy copy-on-write clone of the tree. Clone mutates
// bookkeeping on the source tree, hence the write lock.
func (c *Collection[V]) snapshot() *btree.BTreeG[entry[V]] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Clone()
}

func (c *Collection[V]) mismatch(p Patch[V], err error) {
	if c.strict {
		panic(fmt.Sprintf("collection %s: %v: %#v", c.name, err, p))
	}
	c.logger.Warn("dropping patch", "key", p.Key(), "error", err)
}
