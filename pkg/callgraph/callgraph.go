// Package callgraph models the call graph of the analyzed program: vertices
// are callable units with a resolvable declaration, edges are call sites. The
// graph is an external input to the analysis; this package only stores it and
// indexes incoming/outgoing edges.
package callgraph

import (
	"fmt"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/ir"
)

// Vertex is a callable unit of the analyzed program.
type Vertex struct {
	Callable *ir.Callable
}

// Edge is a call site linking a caller to a callee. Site is the handle of the
// caller's graph node that performs the call.
type Edge struct {
	Call   *ir.CallExpr
	Caller *Vertex
	Callee *Vertex
	Site   action.NodeID
}

// Graph is a call graph. Vertex and edge iteration follows insertion order,
// so analyses over the graph are deterministic.
type Graph struct {
	vertices   []*Vertex
	edges      []*Edge
	byCallable map[*ir.Callable]*Vertex
	incoming   map[*Vertex][]*Edge
	outgoing   map[*Vertex][]*Edge
}

// New creates an empty call graph.
func New() *Graph {
	return &Graph{
		byCallable: make(map[*ir.Callable]*Vertex),
		incoming:   make(map[*Vertex][]*Edge),
		outgoing:   make(map[*Vertex][]*Edge),
	}
}

// AddVertex inserts a vertex for the callable, returning the existing vertex
// when the callable is already present.
func (g *Graph) AddVertex(c *ir.Callable) *Vertex {
	if v, ok := g.byCallable[c]; ok {
		return v
	}
	v := &Vertex{Callable: c}
	g.vertices = append(g.vertices, v)
	g.byCallable[c] = v
	return v
}

// AddEdge inserts a call-site edge. Both endpoints must already be vertices.
func (g *Graph) AddEdge(caller, callee *ir.Callable, call *ir.CallExpr, site action.NodeID) (*Edge, error) {
	from, ok := g.byCallable[caller]
	if !ok {
		return nil, fmt.Errorf("callgraph: unknown caller %s", caller.Signature)
	}
	to, ok := g.byCallable[callee]
	if !ok {
		return nil, fmt.Errorf("callgraph: unknown callee %s", callee.Signature)
	}
	e := &Edge{Call: call, Caller: from, Callee: to, Site: site}
	g.edges = append(g.edges, e)
	g.incoming[to] = append(g.incoming[to], e)
	g.outgoing[from] = append(g.outgoing[from], e)
	return e, nil
}

// VertexFor returns the vertex of a callable, nil when absent.
func (g *Graph) VertexFor(c *ir.Callable) *Vertex {
	return g.byCallable[c]
}

// Vertices returns every vertex in insertion order.
func (g *Graph) Vertices() []*Vertex {
	return g.vertices
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Incoming returns the call edges targeting the vertex, i.e. the call sites
// that invoke it.
func (g *Graph) Incoming(v *Vertex) []*Edge {
	return g.incoming[v]
}

// Outgoing returns the call edges leaving the vertex.
func (g *Graph) Outgoing(v *Vertex) []*Edge {
	return g.outgoing[v]
}
