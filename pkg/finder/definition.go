package finder

import (
	"github.com/l3aro/go-sdg/internal/log"
	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/callgraph"
	"github.com/l3aro/go-sdg/pkg/cfg"
	"github.com/l3aro/go-sdg/pkg/graph"
	"github.com/l3aro/go-sdg/pkg/ir"
)

// NewDefinitionFinder creates the finder that resolves interprocedural
// definitions: for every variable a procedure may write in a way its callers
// can observe it materializes a formal-out node at the procedure and an
// actual-out node per call site.
func NewDefinitionFinder(cg *callgraph.Graph, cfgs map[*ir.Callable]*cfg.CFG, g *graph.Graph, logger log.Logger) *Finder {
	f := newFinder(cg, cfgs, g, logger)
	f.hooks = &definitionHooks{f: f}
	return f
}

type definitionHooks struct {
	f *Finder
}

// Filter keeps definitions that may escape the procedure: writes to fields
// and parameters, and writes the resolver cannot classify. Definitions of
// locals stay invisible to callers.
func (h *definitionHooks) Filter(actions []*action.Action, c *cfg.CFG) []*action.Action {
	var kept []*action.Action
	for _, a := range actions {
		if !a.IsDefinition() {
			continue
		}
		if d, err := a.ResolvedDecl(); err == nil && d.Kind == ir.ValueLocal {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// Formal materializes the formal-out node: the value the procedure leaves
// behind is read at exit, so the node carries a usage of the variable.
//
// Placement of formal outputs under exceptional control flow is an open
// question upstream; the node is generated regardless of which exits the
// definition reaches.
func (h *definitionHooks) Formal(v *callgraph.Vertex, t *TrackedAction) error {
	n := h.f.g.NewNode(graph.NodeFormalOut, "formal-out "+t.Action.Name()+" @ "+v.Callable.Signature)
	use := action.NewUsage(t.Action.Expr(), t.Action.Name(), n.ID)
	use.Tree().AddAll(t.Tree)
	n.AppendAction(use)
	return nil
}

// Actual materializes the actual-out node at a call site: a movable
// definition in the call-site node, targeted at a detached actual-out node.
// A primitive-typed parameter yields no node at all: its argument cannot be
// redefined through an alias.
func (h *definitionHooks) Actual(e *callgraph.Edge, t *TrackedAction) error {
	d, err := t.Action.ResolvedDecl()
	if err != nil {
		return err
	}

	var (
		name string
		expr *ir.Expr
	)
	switch d.Kind {
	case ir.ValueParameter:
		arg, err := ExtractArgument(d, e, false)
		if err != nil {
			return err
		}
		if arg == nil {
			return nil // primitives do not have actual-out
		}
		expr = arg
		name = arg.Text
	default:
		name, err = AliasedName(t.Action, e)
		if err != nil {
			return err
		}
		expr, err = Scope(e.Call)
		if err != nil {
			return err
		}
	}

	site := h.f.g.Node(e.Site)
	target := h.f.g.NewDetachedNode(graph.NodeActualOut, "actual-out "+name+" @ "+e.Call.Callee)
	inner, err := projected(action.KindDefinition, expr, name, e.Site, t.Tree)
	if err != nil {
		return err
	}
	site.InsertActionAt(site.CallIndex(e.Call), action.NewMovable(inner, target.ID))
	return nil
}
