package callgraph

import (
	"testing"

	"github.com/l3aro/go-sdg/pkg/ir"
)

func TestAddVertexDeduplicates(t *testing.T) {
	g := New()
	c := &ir.Callable{Signature: "Foo.m()"}
	v1 := g.AddVertex(c)
	v2 := g.AddVertex(c)
	if v1 != v2 {
		t.Error("the same callable must map to one vertex")
	}
	if len(g.Vertices()) != 1 {
		t.Errorf("vertex count = %d, want 1", len(g.Vertices()))
	}
}

func TestEdgesIndexBothDirections(t *testing.T) {
	g := New()
	caller := &ir.Callable{Signature: "Foo.caller()"}
	callee := &ir.Callable{Signature: "Foo.callee()"}
	g.AddVertex(caller)
	g.AddVertex(callee)

	call := &ir.CallExpr{Kind: ir.CallOrdinary, Callee: callee.Signature}
	e, err := g.AddEdge(caller, callee, call, 5)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if e.Site != 5 {
		t.Errorf("site = %d, want 5", e.Site)
	}

	in := g.Incoming(g.VertexFor(callee))
	out := g.Outgoing(g.VertexFor(caller))
	if len(in) != 1 || in[0] != e {
		t.Error("incoming index should hold the edge at the callee")
	}
	if len(out) != 1 || out[0] != e {
		t.Error("outgoing index should hold the edge at the caller")
	}
	if len(g.Incoming(g.VertexFor(caller))) != 0 {
		t.Error("caller has no incoming edges")
	}
}

func TestAddEdgeRequiresVertices(t *testing.T) {
	g := New()
	caller := &ir.Callable{Signature: "Foo.caller()"}
	callee := &ir.Callable{Signature: "Foo.callee()"}
	g.AddVertex(caller)

	call := &ir.CallExpr{Kind: ir.CallOrdinary, Callee: callee.Signature}
	if _, err := g.AddEdge(caller, callee, call, 0); err == nil {
		t.Fatal("expected an error for an unknown callee")
	}
}
