// Package finder implements the interprocedural variable-action resolution
// engine: a backward fixed-point analysis over the call graph that discovers
// which callable units read, write or declare which variables, including
// variables reachable only through another procedure's parameters or receiver,
// and materializes formal and actual nodes for them in the dependence graph.
package finder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/l3aro/go-sdg/internal/log"
	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/callgraph"
	"github.com/l3aro/go-sdg/pkg/cfg"
	"github.com/l3aro/go-sdg/pkg/dataflow"
	"github.com/l3aro/go-sdg/pkg/graph"
	"github.com/l3aro/go-sdg/pkg/ir"
)

// TrackedAction pairs a discovered action with the object tree merged from
// every place the action was found. The action's own tree is never mutated by
// the engine; the merged copy lives here.
type TrackedAction struct {
	Action *action.Action
	Tree   *action.ObjectTree
}

// ActionSet is the per-vertex result of the fixed point: the actions visible
// at a procedure, keyed by stable action identity.
type ActionSet map[action.Key]*TrackedAction

// Hooks is the extension point deciding which actions a finder tracks and
// what formal/actual nodes it generates for them.
type Hooks interface {
	// Filter keeps the actions this finder cares about. The input holds
	// non-synthetic root actions only.
	Filter(actions []*action.Action, c *cfg.CFG) []*action.Action

	// Formal generates the formal node(s) for an action at its declaring
	// procedure. Called exactly once per (vertex, action).
	Formal(v *callgraph.Vertex, t *TrackedAction) error

	// Actual generates the actual node(s) for an action at a call site.
	// Called exactly once per (action, call edge).
	Actual(e *callgraph.Edge, t *TrackedAction) error
}

// storedAction keeps track of which nodes have been materialized for one
// (vertex, action) pair, so repeated saves never duplicate a node.
type storedAction struct {
	formal bool
	actual map[*callgraph.Edge]bool
}

func newStoredAction() *storedAction {
	return &storedAction{actual: make(map[*callgraph.Edge]bool)}
}

// Finder is the interprocedural action finder. Concrete finders differ only
// in their Hooks; see NewUsageFinder and NewDefinitionFinder.
type Finder struct {
	cg     *callgraph.Graph
	cfgs   map[*ir.Callable]*cfg.CFG
	g      *graph.Graph
	hooks  Hooks
	flow   *dataflow.Backward[ActionSet]
	stored map[*callgraph.Vertex]map[action.Key]*storedAction
	logger log.Logger
}

func newFinder(cg *callgraph.Graph, cfgs map[*ir.Callable]*cfg.CFG, g *graph.Graph, logger log.Logger) *Finder {
	if logger == nil {
		logger = log.Default()
	}
	f := &Finder{
		cg:     cg,
		cfgs:   cfgs,
		g:      g,
		flow:   dataflow.NewBackward[ActionSet](cg),
		stored: make(map[*callgraph.Vertex]map[action.Key]*storedAction),
		logger: logger,
	}
	f.flow.SetTransfer(f)
	return f
}

// Graph returns the dependence graph the finder materializes into.
func (f *Finder) Graph() *graph.Graph { return f.g }

// Save is the entry point. It computes the fixed point if not yet computed,
// then walks every call-graph vertex and materializes its formal and actual
// nodes. Safe to call multiple times; re-invocation only materializes newly
// discovered actions.
func (f *Finder) Save() error {
	if !f.flow.Built() {
		if err := f.flow.Analyze(); err != nil {
			return err
		}
	}
	for _, v := range f.cg.Vertices() {
		if err := f.saveVertex(v); err != nil {
			return err
		}
	}
	return nil
}

// Actions returns the actions discovered for a vertex, in deterministic
// order. Meaningful after Save.
func (f *Finder) Actions(v *callgraph.Vertex) []*TrackedAction {
	return sortedTracked(f.flow.Value(v))
}

// saveVertex materializes the nodes for the actions currently known at the
// vertex.
func (f *Finder) saveVertex(v *callgraph.Vertex) error {
	_, err := f.materialize(v, f.flow.Value(v))
	return err
}

// materialize generates the nodes for the given action set at the vertex: the
// formal node first, then the actual nodes per incoming call edge.
// Already-stored pairs are skipped. It reports whether any actual node was
// generated, which inserts a movable into a caller's control-flow graph and
// therefore changes what that caller's next scan will see.
func (f *Finder) materialize(v *callgraph.Vertex, set ActionSet) (bool, error) {
	sv := f.stored[v]
	if sv == nil {
		sv = make(map[action.Key]*storedAction)
		f.stored[v] = sv
	}
	for k := range set {
		if sv[k] == nil {
			sv[k] = newStoredAction()
		}
	}

	// FORMAL: one per (vertex, action).
	for _, t := range sortedTracked(set) {
		sa := sv[t.Action.Key()]
		if sa.formal {
			continue
		}
		if _, err := f.sandboxed(t, func() error { return f.hooks.Formal(v, t) }); err != nil {
			return false, err
		}
		sa.formal = true
	}

	// ACTUAL: one per (action, call edge).
	published := false
	for _, e := range f.cg.Incoming(v) {
		ordered, err := f.sortForCall(set, e)
		if err != nil {
			return false, err
		}
		for _, t := range ordered {
			sa := sv[t.Action.Key()]
			if sa.actual[e] {
				continue
			}
			edge := e
			applied, err := f.sandboxed(t, func() error { return f.hooks.Actual(edge, t) })
			if err != nil {
				return false, err
			}
			sa.actual[e] = true
			if applied {
				published = true
			}
		}
	}
	return published, nil
}

// sandboxed runs a handler, converting an unresolved-symbol failure into a
// skip with a diagnostic. Variables that name a type for static access are
// the usual culprits. Any other error is fatal and propagates. The returned
// flag reports whether the handler actually ran to completion.
func (f *Finder) sandboxed(t *TrackedAction, handler func() error) (bool, error) {
	err := handler()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ir.ErrUnresolved) {
		f.logger.Warn("skipping a symbol, cannot be resolved", "variable", t.Action.Name())
		return false, nil
	}
	return false, err
}

// sortForCall orders the vertex's actions for actual-node generation at one
// call edge: field-rooted actions first (mutually unordered), then
// parameter-rooted actions by descending parameter index. Each generated node
// is inserted at the front of the call site's sequence, so the observed order
// ends up ascending-parameter-first. An action resolving to neither a field
// nor a parameter is a fatal ordering error; an unresolvable action sorts
// after any resolvable one.
func (f *Finder) sortForCall(set ActionSet, e *callgraph.Edge) ([]*TrackedAction, error) {
	type ranked struct {
		t        *TrackedAction
		resolved bool
		field    bool
		index    int
	}
	items := make([]ranked, 0, len(set))
	for _, t := range sortedTracked(set) {
		r := ranked{t: t}
		d, err := t.Action.ResolvedDecl()
		switch {
		case err != nil && errors.Is(err, ir.ErrUnresolved):
			// leave unresolved; sorts last
		case err != nil:
			return nil, err
		case d.Kind == ir.ValueField:
			r.resolved, r.field = true, true
		case d.Kind == ir.ValueParameter:
			idx, err := e.Callee.Callable.ParamIndex(d)
			if err != nil {
				return nil, err
			}
			r.resolved, r.index = true, idx
		default:
			return nil, fmt.Errorf("action %q resolves to neither a field nor a parameter", t.Action.Name())
		}
		items = append(items, r)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.resolved != b.resolved:
			return a.resolved // unresolved actions sort last
		case !a.resolved:
			return false
		case a.field != b.field:
			return a.field // fields generate first
		case a.field:
			return false // fields are mutually unordered
		default:
			return a.index > b.index // parameters by descending index
		}
	})

	out := make([]*TrackedAction, len(items))
	for i, r := range items {
		out[i] = r.t
	}
	return out, nil
}

// sortedTracked flattens an action set in deterministic order: by name, then
// variant, then originating expression text.
func sortedTracked(set ActionSet) []*TrackedAction {
	out := make([]*TrackedAction, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Action.Key(), out[j].Action.Key()
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.InnerKind != b.InnerKind {
			return a.InnerKind < b.InnerKind
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return exprSortText(a.Expr) < exprSortText(b.Expr)
	})
	return out
}

func exprSortText(e *ir.Expr) string {
	if e == nil {
		return ""
	}
	return e.Text
}

// Bottom implements dataflow.Transfer.
func (f *Finder) Bottom() ActionSet { return ActionSet{} }

// InitialValue scans the vertex's control-flow graph: every node except the
// synthetic entry contributes its variable actions; synthetic and non-root
// actions are discarded (a field access is tracked via the root action's
// object tree, not separately); the finder's filter decides what is kept; and
// duplicates fold by unioning their object trees.
func (f *Finder) InitialValue(v *callgraph.Vertex) ActionSet {
	c := f.cfgs[v.Callable]
	if c == nil {
		return ActionSet{}
	}
	var flat []*action.Action
	for _, n := range c.Blocks {
		if n == c.Entry {
			// The entry node is the landing spot for interprocedural actions;
			// scanning it would feed the analysis its own output.
			continue
		}
		for _, a := range n.Actions {
			if a.IsSynthetic() || !a.IsRootAction() {
				continue
			}
			flat = append(flat, a)
		}
	}
	out := ActionSet{}
	for _, a := range f.hooks.Filter(flat, c) {
		k := a.Key()
		if t, ok := out[k]; ok {
			t.Tree.AddAll(a.Tree())
		} else {
			out[k] = &TrackedAction{Action: a, Tree: a.Tree().Clone()}
		}
	}
	return out
}

// Compute implements dataflow.Transfer: it unions the previous value with a
// fresh scan of the vertex's control-flow graph, then materializes the result
// immediately. Materializing inside each step is what lets a callee's actual
// nodes surface in its callers' control-flow graphs while the fixed point is
// still running; the published flag tells the engine to rescan those callers,
// which is how an action propagates call level by call level until stable.
func (f *Finder) Compute(v *callgraph.Vertex, deps []*callgraph.Vertex) (ActionSet, bool, error) {
	next := ActionSet{}
	for k, t := range f.flow.Value(v) {
		next[k] = &TrackedAction{Action: t.Action, Tree: t.Tree.Clone()}
	}
	for k, t := range f.InitialValue(v) {
		if ex, ok := next[k]; ok {
			ex.Tree.AddAll(t.Tree)
		} else {
			next[k] = t
		}
	}
	published, err := f.materialize(v, next)
	if err != nil {
		return nil, false, err
	}
	return next, published, nil
}

// Changed implements dataflow.Transfer: growth means a new action appeared or
// an object tree gained a field. Both are monotone over a finite universe, so
// the fixed point terminates even on cyclic call graphs.
func (f *Finder) Changed(old, next ActionSet) bool {
	if len(next) != len(old) {
		return true
	}
	for k, nt := range next {
		ot, ok := old[k]
		if !ok {
			return true
		}
		if nt.Tree.Size() > ot.Tree.Size() {
			return true
		}
	}
	return false
}
