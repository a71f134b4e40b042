// Package graph implements the dependence graph the finders materialize nodes
// into. Nodes live in an arena addressed by stable handles; data-dependency
// edges carry the variable actions at both ends. Relocating a movable action
// (allocate the new node, copy the edges, drop the placeholder) is a graph
// operation, so no other owner ever mutates the arena.
package graph

import (
	"fmt"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/ir"
)

// NodeKind classifies the nodes of the dependence graph.
type NodeKind string

const (
	NodeStatement NodeKind = "statement"  // ordinary statement of a procedure
	NodeEntry     NodeKind = "entry"      // synthetic procedure entry
	NodeExit      NodeKind = "exit"       // synthetic procedure exit
	NodeFormalIn  NodeKind = "formal-in"  // value received by a procedure
	NodeFormalOut NodeKind = "formal-out" // value exposed by a procedure at exit
	NodeActualIn  NodeKind = "actual-in"  // value passed at a call site
	NodeActualOut NodeKind = "actual-out" // value redefined at a call site
)

// Node is a vertex of the dependence graph. It owns an ordered list of the
// variable actions performed at this point of the program.
type Node struct {
	ID      action.NodeID    `json:"id"`
	Kind    NodeKind         `json:"kind"`
	Label   string           `json:"label"`
	Actions []*action.Action `json:"-"`
}

// AppendAction adds an action at the end of the node's sequence.
func (n *Node) AppendAction(a *action.Action) {
	n.Actions = append(n.Actions, a)
}

// InsertActionAt inserts an action at position i, shifting later actions
// right. An index past the end appends.
func (n *Node) InsertActionAt(i int, a *action.Action) {
	if i < 0 {
		i = 0
	}
	if i >= len(n.Actions) {
		n.Actions = append(n.Actions, a)
		return
	}
	n.Actions = append(n.Actions, nil)
	copy(n.Actions[i+1:], n.Actions[i:])
	n.Actions[i] = a
}

// RemoveAction deletes the action (by identity) from the node's sequence.
func (n *Node) RemoveAction(a *action.Action) bool {
	for i, x := range n.Actions {
		if x == a {
			n.Actions = append(n.Actions[:i], n.Actions[i+1:]...)
			return true
		}
	}
	return false
}

// CallIndex returns the insertion position for actions belonging to the given
// call: just after the call's enter marker, or the front of the sequence when
// the node carries no markers for it.
func (n *Node) CallIndex(call *ir.CallExpr) int {
	for i, a := range n.Actions {
		if a.Kind() == action.KindCallMarker && a.Enter() && a.Call() == call {
			return i + 1
		}
	}
	return 0
}

// Edge is a data dependency between two actions. Direction runs from the
// action providing a value to the action consuming it.
type Edge struct {
	From   action.NodeID  `json:"from"`
	To     action.NodeID  `json:"to"`
	Source *action.Action `json:"-"`
	Target *action.Action `json:"-"`
}

// Graph is the arena of dependence-graph nodes and edges. Detached nodes are
// allocated in the arena but not yet part of the graph proper; relocation
// activates them.
type Graph struct {
	nodes  []*Node
	active map[action.NodeID]bool
	edges  []*Edge
}

// New creates an empty dependence graph.
func New() *Graph {
	return &Graph{active: make(map[action.NodeID]bool)}
}

func (g *Graph) alloc(kind NodeKind, label string) *Node {
	n := &Node{ID: action.NodeID(len(g.nodes)), Kind: kind, Label: label}
	g.nodes = append(g.nodes, n)
	return n
}

// NewNode allocates a node and inserts it into the graph.
func (g *Graph) NewNode(kind NodeKind, label string) *Node {
	n := g.alloc(kind, label)
	g.active[n.ID] = true
	return n
}

// NewDetachedNode allocates a node without inserting it into the graph; it is
// the target of a movable action until relocation activates it.
func (g *Graph) NewDetachedNode(kind NodeKind, label string) *Node {
	return g.alloc(kind, label)
}

// Node returns the node for a handle, nil for an unknown handle.
func (g *Graph) Node(id action.NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Contains reports whether the node is part of the graph proper.
func (g *Graph) Contains(id action.NodeID) bool {
	return g.active[id]
}

// Nodes returns the graph's nodes in handle order, detached nodes excluded.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if g.active[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// AddEdge inserts a data dependency from the source action to the target
// action. Endpoints are the nodes currently holding the actions.
func (g *Graph) AddEdge(src, tgt *action.Action) *Edge {
	e := &Edge{From: src.Node(), To: tgt.Node(), Source: src, Target: tgt}
	g.edges = append(g.edges, e)
	return e
}

// RemoveEdge deletes the edge (by identity).
func (g *Graph) RemoveEdge(e *Edge) bool {
	for i, x := range g.edges {
		if x == e {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return true
		}
	}
	return false
}

// Edges returns every edge of the graph.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// EdgesOf returns the edges incident to the given node.
func (g *Graph) EdgesOf(id action.NodeID) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.From == id || e.To == id {
			out = append(out, e)
		}
	}
	return out
}

// EdgesOfAction returns the edges in which the action is either endpoint.
func (g *Graph) EdgesOfAction(a *action.Action) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == a || e.Target == a {
			out = append(out, e)
		}
	}
	return out
}

// Relocate moves a movable action to its target node: the target is inserted
// into the graph, a concrete copy of the inner action is created there, the
// placeholder is removed from its original node, and every dependency edge
// that referenced the placeholder is rebound to the new action with its
// direction preserved. Returns the new concrete action.
func (g *Graph) Relocate(m *action.Action) (*action.Action, error) {
	if m.Kind() != action.KindMovable {
		return nil, fmt.Errorf("graph: cannot relocate a %s action", m.Kind())
	}
	inner := m.Inner()
	target := g.Node(m.Target())
	if target == nil {
		return nil, fmt.Errorf("graph: movable %s has no target node", m)
	}

	var moved *action.Action
	switch inner.Kind() {
	case action.KindDeclaration:
		moved = action.NewDeclaration(inner.Expr(), inner.Name(), target.ID)
	case action.KindDefinition:
		moved = action.NewDefinition(inner.Expr(), inner.Name(), target.ID, inner.Assigned())
	case action.KindUsage:
		moved = action.NewUsage(inner.Expr(), inner.Name(), target.ID)
	default:
		return nil, fmt.Errorf("graph: cannot relocate a %s action", inner.Kind())
	}
	moved.Tree().AddAll(inner.Tree())

	g.active[target.ID] = true
	if holder := g.Node(m.Node()); holder != nil {
		holder.RemoveAction(m)
	}
	target.AppendAction(moved)

	// Rebind edges over a snapshot; rebinding mutates the edge list.
	for _, e := range append([]*Edge(nil), g.EdgesOfAction(m)...) {
		if e.Source == m {
			g.AddEdge(moved, e.Target)
		} else {
			g.AddEdge(e.Source, moved)
		}
		g.RemoveEdge(e)
	}
	return moved, nil
}

// RelocateMovables relocates every movable action still held by the graph's
// nodes. Each relocation may activate a target node that itself holds no
// movables, so a single pass over a snapshot suffices.
func (g *Graph) RelocateMovables() error {
	var movables []*action.Action
	for _, n := range g.Nodes() {
		for _, a := range n.Actions {
			if a.Kind() == action.KindMovable {
				movables = append(movables, a)
			}
		}
	}
	for _, m := range movables {
		if _, err := g.Relocate(m); err != nil {
			return err
		}
	}
	return nil
}
