// Package cfg defines the per-callable control-flow view consumed by the
// interprocedural finders. A CFG references nodes of the shared dependence
// graph arena; each node carries the ordered intraprocedural variable actions
// extracted by the front end.
package cfg

import (
	"github.com/l3aro/go-sdg/pkg/graph"
	"github.com/l3aro/go-sdg/pkg/ir"
)

// CFG is the control-flow graph of a single callable unit. Entry and Exit are
// synthetic; Blocks holds every node in program order, entry first and exit
// last. Branch structure is irrelevant to the action finders, which only ever
// flatten the per-node action lists.
type CFG struct {
	Callable *ir.Callable
	Entry    *graph.Node
	Exit     *graph.Node
	Blocks   []*graph.Node
}

// New creates a CFG with fresh entry and exit nodes allocated in the arena.
func New(g *graph.Graph, c *ir.Callable) *CFG {
	entry := g.NewNode(graph.NodeEntry, "entry "+c.Signature)
	exit := g.NewNode(graph.NodeExit, "exit "+c.Signature)
	return &CFG{
		Callable: c,
		Entry:    entry,
		Exit:     exit,
		Blocks:   []*graph.Node{entry, exit},
	}
}

// AddBlock allocates a statement node in the arena and threads it into the
// block sequence just before the exit node.
func (c *CFG) AddBlock(g *graph.Graph, label string) *graph.Node {
	n := g.NewNode(graph.NodeStatement, label)
	last := len(c.Blocks) - 1
	c.Blocks = append(c.Blocks[:last], n, c.Blocks[last])
	return n
}
