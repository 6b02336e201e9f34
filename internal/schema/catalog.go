package schema

import (
	"sync"
	"sync/atomic"
)

// Catalog owns the lazily built schema graph for one universe. Construction
// is guarded by a mutex with a double-checked fast path: the first caller
// runs discovery, every later caller returns the same immutable graph (or
// the same error) without blocking. There is no invalidation; a new graph
// means a new Catalog.
type Catalog struct {
	universe *Universe

	built  atomic.Bool
	initMu sync.Mutex
	graph  *Graph
	err    error
}

// NewCatalog wraps a universe without discovering anything yet
func NewCatalog(u *Universe) *Catalog {
	return &Catalog{universe: u}
}

// Graph returns the schema graph, running discovery on first access
func (c *Catalog) Graph() (*Graph, error) {
	if c.built.Load() {
		return c.graph, c.err
	}

	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.built.Load() {
		return c.graph, c.err
	}

	c.graph, c.err = Discover(c.universe)
	c.built.Store(true)
	return c.graph, c.err
}
