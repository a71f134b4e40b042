package finder

import (
	"github.com/l3aro/go-sdg/internal/log"
	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/callgraph"
	"github.com/l3aro/go-sdg/pkg/cfg"
	"github.com/l3aro/go-sdg/pkg/graph"
	"github.com/l3aro/go-sdg/pkg/ir"
)

// NewUsageFinder creates the finder that resolves interprocedural usages: for
// every variable a procedure may read from its caller's frame it materializes
// a formal-in node at the procedure and an actual-in node per call site.
func NewUsageFinder(cg *callgraph.Graph, cfgs map[*ir.Callable]*cfg.CFG, g *graph.Graph, logger log.Logger) *Finder {
	f := newFinder(cg, cfgs, g, logger)
	f.hooks = &usageHooks{f: f}
	return f
}

type usageHooks struct {
	f *Finder
}

// Filter keeps usages of variables that can carry a value across the call
// boundary: parameters, fields and anything the resolver cannot classify yet.
// Usages of locals never escape the procedure.
func (h *usageHooks) Filter(actions []*action.Action, c *cfg.CFG) []*action.Action {
	var kept []*action.Action
	for _, a := range actions {
		if !a.IsUsage() {
			continue
		}
		if d, err := a.ResolvedDecl(); err == nil && d.Kind == ir.ValueLocal {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// Formal materializes the formal-in node: the procedure receives the value on
// entry, so the node carries a definition of the variable.
func (h *usageHooks) Formal(v *callgraph.Vertex, t *TrackedAction) error {
	n := h.f.g.NewNode(graph.NodeFormalIn, "formal-in "+t.Action.Name()+" @ "+v.Callable.Signature)
	def := action.NewDefinition(t.Action.Expr(), t.Action.Name(), n.ID, nil)
	def.Tree().AddAll(t.Tree)
	n.AppendAction(def)
	return nil
}

// Actual materializes the actual-in node at a call site: a movable usage in
// the call-site node, whose final location is a detached actual-in node. A
// parameter projects its matching argument expression; a field projects its
// aliased name through the call's receiver.
func (h *usageHooks) Actual(e *callgraph.Edge, t *TrackedAction) error {
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
		arg, err := ExtractArgument(d, e, true)
		if err != nil {
			return err
		}
		expr = arg
		name = arg.Text
	default:
		// Fields, including the invented field declarations of expression-less
		// actions.
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
	target := h.f.g.NewDetachedNode(graph.NodeActualIn, "actual-in "+name+" @ "+e.Call.Callee)
	inner, err := projected(action.KindUsage, expr, name, e.Site, t.Tree)
	if err != nil {
		return err
	}
	site.InsertActionAt(site.CallIndex(e.Call), action.NewMovable(inner, target.ID))
	return nil
}
