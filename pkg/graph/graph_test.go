package graph

import (
	"testing"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/ir"
)

func TestNodesExcludeDetached(t *testing.T) {
	g := New()
	a := g.NewNode(NodeStatement, "a")
	d := g.NewDetachedNode(NodeActualIn, "detached")

	if !g.Contains(a.ID) {
		t.Error("active node should be contained")
	}
	if g.Contains(d.ID) {
		t.Error("detached node should not be contained")
	}
	if n := len(g.Nodes()); n != 1 {
		t.Errorf("node count = %d, want 1", n)
	}
	if g.Node(d.ID) == nil {
		t.Error("detached node must stay addressable by handle")
	}
}

func TestCallIndex(t *testing.T) {
	g := New()
	n := g.NewNode(NodeStatement, "call site")
	call := &ir.CallExpr{Kind: ir.CallOrdinary, Callee: "Foo.m()"}
	other := &ir.CallExpr{Kind: ir.CallOrdinary, Callee: "Foo.n()"}

	n.AppendAction(action.NewUsage(nil, "x", n.ID))
	n.AppendAction(action.NewCallMarker(call, n.ID, true))
	n.AppendAction(action.NewCallMarker(call, n.ID, false))

	if got := n.CallIndex(call); got != 2 {
		t.Errorf("CallIndex = %d, want 2 (after the enter marker)", got)
	}
	if got := n.CallIndex(other); got != 0 {
		t.Errorf("CallIndex for unmarked call = %d, want 0", got)
	}
}

func TestInsertActionAt(t *testing.T) {
	g := New()
	n := g.NewNode(NodeStatement, "n")
	a := action.NewUsage(nil, "a", n.ID)
	b := action.NewUsage(nil, "b", n.ID)
	c := action.NewUsage(nil, "c", n.ID)

	n.AppendAction(a)
	n.AppendAction(c)
	n.InsertActionAt(1, b)

	want := []*action.Action{a, b, c}
	for i, x := range want {
		if n.Actions[i] != x {
			t.Fatalf("actions[%d] = %s, want %s", i, n.Actions[i], x)
		}
	}
}

func TestRelocatePreservesEdges(t *testing.T) {
	g := New()
	site := g.NewNode(NodeStatement, "call site")
	target := g.NewDetachedNode(NodeActualIn, "actual-in x")
	producer := g.NewNode(NodeStatement, "producer")

	inner := action.NewUsage(nil, "x", site.ID)
	inner.AddObjectField("f")
	m := action.NewMovable(inner, target.ID)
	site.AppendAction(m)

	def := action.NewDefinition(nil, "x", producer.ID, nil)
	producer.AppendAction(def)
	g.AddEdge(def, m)

	moved, err := g.Relocate(m)
	if err != nil {
		t.Fatalf("Relocate: %v", err)
	}

	if !g.Contains(target.ID) {
		t.Error("relocation must activate the target node")
	}
	if moved.Node() != target.ID {
		t.Errorf("moved action node = %d, want %d", moved.Node(), target.ID)
	}
	if moved.Kind() != action.KindUsage {
		t.Errorf("moved kind = %s, want usage", moved.Kind())
	}
	if !moved.Tree().Has("f") {
		t.Error("relocation must carry the object tree")
	}
	for _, a := range site.Actions {
		if a == m {
			t.Error("placeholder should be removed from the call site")
		}
	}

	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(edges))
	}
	e := edges[0]
	if e.Source != def || e.Target != moved {
		t.Error("edge must be rebound to the moved action, direction preserved")
	}
	if e.From != producer.ID || e.To != target.ID {
		t.Errorf("edge endpoints = %d->%d, want %d->%d", e.From, e.To, producer.ID, target.ID)
	}
}

func TestRelocateMovables(t *testing.T) {
	g := New()
	site := g.NewNode(NodeStatement, "site")
	t1 := g.NewDetachedNode(NodeActualIn, "t1")
	t2 := g.NewDetachedNode(NodeActualOut, "t2")
	site.AppendAction(action.NewMovable(action.NewUsage(nil, "a", site.ID), t1.ID))
	site.AppendAction(action.NewMovable(action.NewDefinition(nil, "b", site.ID, nil), t2.ID))

	if err := g.RelocateMovables(); err != nil {
		t.Fatalf("RelocateMovables: %v", err)
	}
	if len(site.Actions) != 0 {
		t.Errorf("site still holds %d actions", len(site.Actions))
	}
	if len(g.Nodes()) != 3 {
		t.Errorf("active nodes = %d, want 3", len(g.Nodes()))
	}
	for _, n := range g.Nodes() {
		for _, a := range n.Actions {
			if a.Kind() == action.KindMovable {
				t.Errorf("movable %s left in the graph", a)
			}
		}
	}
}

func TestRelocateRejectsConcrete(t *testing.T) {
	g := New()
	n := g.NewNode(NodeStatement, "n")
	a := action.NewUsage(nil, "x", n.ID)
	if _, err := g.Relocate(a); err == nil {
		t.Fatal("expected an error relocating a concrete action")
	}
}
