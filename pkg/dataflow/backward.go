// Package dataflow provides a generic backward fixed-point analysis over a
// call graph. It uses a worklist algorithm: information discovered at a
// callee flows to its callers, and a vertex is revisited whenever any of the
// vertices it depends on changes. Termination is the client's contract: the
// transfer function must be monotone with a finite range.
package dataflow

import (
	"container/list"

	"github.com/l3aro/go-sdg/pkg/callgraph"
)

// Transfer supplies the analysis-specific behavior of a backward pass.
type Transfer[D any] interface {
	// Bottom is the least value, used to seed every vertex.
	Bottom() D

	// InitialValue computes the vertex's local contribution from its own
	// control-flow graph, independent of any other vertex.
	InitialValue(v *callgraph.Vertex) D

	// Compute produces the vertex's next value from its previous one and its
	// dependencies (its callees, in a backward analysis). Implementations may
	// expose partial results as a side effect of each step; the returned flag
	// reports whether such a side effect changed the inputs of the vertices
	// depending on this one, so the engine revisits them even when the value
	// itself did not grow.
	Compute(v *callgraph.Vertex, deps []*callgraph.Vertex) (D, bool, error)

	// Changed reports whether the new value strictly grew with respect to the
	// old one; the worklist only revisits dependents on growth.
	Changed(old, next D) bool
}

// Backward runs a transfer function over a call graph until a fixed point.
type Backward[D any] struct {
	graph    *callgraph.Graph
	transfer Transfer[D]
	values   map[*callgraph.Vertex]D
	built    bool
}

// NewBackward creates an analysis over the given call graph. The transfer
// function is attached separately so a client embedding the engine can pass
// itself.
func NewBackward[D any](g *callgraph.Graph) *Backward[D] {
	return &Backward[D]{graph: g, values: make(map[*callgraph.Vertex]D)}
}

// SetTransfer attaches the transfer function. Must be called before Analyze.
func (b *Backward[D]) SetTransfer(t Transfer[D]) {
	b.transfer = t
}

// Built reports whether the fixed point has been computed.
func (b *Backward[D]) Built() bool {
	return b.built
}

// Value returns the current value at a vertex. Before Analyze it is the
// bottom value; during and after Analyze it is the vertex's latest computed
// value, the fixed-point result once Analyze returns.
func (b *Backward[D]) Value(v *callgraph.Vertex) D {
	if d, ok := b.values[v]; ok {
		return d
	}
	return b.transfer.Bottom()
}

// Analyze iterates to the least fixed point. Idempotent: a second call is a
// no-op. A fatal error from the transfer function aborts the iteration and is
// returned unmodified.
func (b *Backward[D]) Analyze() error {
	if b.built {
		return nil
	}
	for _, v := range b.graph.Vertices() {
		b.values[v] = b.transfer.InitialValue(v)
	}

	worklist := list.New()
	queued := make(map[*callgraph.Vertex]bool)
	for _, v := range b.graph.Vertices() {
		worklist.PushBack(v)
		queued[v] = true
	}

	for worklist.Len() > 0 {
		v := worklist.Remove(worklist.Front()).(*callgraph.Vertex)
		queued[v] = false

		old := b.values[v]
		next, published, err := b.transfer.Compute(v, b.dependencies(v))
		if err != nil {
			return err
		}
		b.values[v] = next

		if b.transfer.Changed(old, next) || published {
			// The vertex grew or altered its callers' inputs: revisit them.
			for _, e := range b.graph.Incoming(v) {
				if !queued[e.Caller] {
					worklist.PushBack(e.Caller)
					queued[e.Caller] = true
				}
			}
		}
	}
	b.built = true
	return nil
}

// dependencies returns the vertices this one draws information from: its
// callees.
func (b *Backward[D]) dependencies(v *callgraph.Vertex) []*callgraph.Vertex {
	edges := b.graph.Outgoing(v)
	deps := make([]*callgraph.Vertex, 0, len(edges))
	for _, e := range edges {
		deps = append(deps, e.Callee)
	}
	return deps
}
