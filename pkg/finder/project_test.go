package finder

import (
	"testing"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/callgraph"
	"github.com/l3aro/go-sdg/pkg/ir"
)

func TestAliasedName(t *testing.T) {
	tests := []struct {
		name      string
		varName   string
		scope     string
		enclosing string
		want      string
	}{
		{name: "no receiver keeps the name", varName: "this.x", scope: "", enclosing: "Foo", want: "this.x"},
		{name: "field through receiver", varName: "this.x", scope: "a", enclosing: "Bar", want: "a.x"},
		{name: "bare this becomes the receiver", varName: "this", scope: "a", enclosing: "Bar", want: "a"},
		{name: "this receiver gets qualified", varName: "this.x", scope: "this", enclosing: "Foo", want: "Foo.this.x"},
		{name: "super receiver becomes this", varName: "this.x", scope: "super", enclosing: "Foo", want: "Foo.this.x"},
		{name: "qualified super receiver", varName: "this.x", scope: "a.super", enclosing: "Foo", want: "a.this.x"},
		{name: "nested field path survives", varName: "this.x.y", scope: "a", enclosing: "Bar", want: "a.x.y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aliasedName(tt.varName, tt.scope, tt.enclosing); got != tt.want {
				t.Errorf("aliasedName(%q, %q, %q) = %q, want %q", tt.varName, tt.scope, tt.enclosing, got, tt.want)
			}
		})
	}
}

func TestCollapseThisChain(t *testing.T) {
	if got := collapseThisChain("a.this.this.x"); got != "a.this.x" {
		t.Errorf("collapseThisChain = %q, want a.this.x", got)
	}
	if got := collapseThisChain("a.this.x"); got != "a.this.x" {
		t.Errorf("collapseThisChain must not alter %q, got %q", "a.this.x", got)
	}
}

func TestScope(t *testing.T) {
	recv := &ir.Expr{Text: "a"}
	ordinary := &ir.CallExpr{Kind: ir.CallOrdinary, Receiver: recv}
	if e, err := Scope(ordinary); err != nil || e != recv {
		t.Errorf("Scope(ordinary) = %v, %v; want the receiver", e, err)
	}

	forwarding := &ir.CallExpr{Kind: ir.CallForwardingConstructor}
	e, err := Scope(forwarding)
	if err != nil || e == nil || e.Text != "this" {
		t.Errorf("Scope(forwarding) = %v, %v; want a synthetic this", e, err)
	}

	if _, err := Scope(&ir.CallExpr{Kind: ir.CallKind("other")}); err == nil {
		t.Error("expected an error for an unclassified call")
	}
}

func TestExtractArgument(t *testing.T) {
	objParam := &ir.ValueDecl{Name: "o", Kind: ir.ValueParameter, Type: ir.TypeRef{Name: "Obj"}}
	intParam := &ir.ValueDecl{Name: "n", Kind: ir.ValueParameter, Type: ir.TypeRef{Name: "int", Primitive: true}}
	callee := &ir.Callable{Signature: "T.m(Obj,int)", Params: []*ir.ValueDecl{objParam, intParam}}

	argO := &ir.Expr{Text: "x"}
	argN := &ir.Expr{Text: "1"}
	e := &callgraph.Edge{
		Call:   &ir.CallExpr{Kind: ir.CallOrdinary, Callee: callee.Signature, Args: []*ir.Expr{argO, argN}},
		Callee: &callgraph.Vertex{Callable: callee},
	}

	got, err := ExtractArgument(objParam, e, true)
	if err != nil || got != argO {
		t.Errorf("ExtractArgument(obj, input) = %v, %v; want the first argument", got, err)
	}

	// A primitive parameter has no actual-out projection.
	got, err = ExtractArgument(intParam, e, false)
	if err != nil || got != nil {
		t.Errorf("ExtractArgument(int, output) = %v, %v; want nil, nil", got, err)
	}

	// But it still has an actual-in projection.
	got, err = ExtractArgument(intParam, e, true)
	if err != nil || got != argN {
		t.Errorf("ExtractArgument(int, input) = %v, %v; want the second argument", got, err)
	}

	// A missing argument is surfaced, not guessed.
	short := &callgraph.Edge{
		Call:   &ir.CallExpr{Kind: ir.CallOrdinary, Callee: callee.Signature, Args: []*ir.Expr{argO}},
		Callee: &callgraph.Vertex{Callable: callee},
	}
	if _, err := ExtractArgument(intParam, short, true); err == nil {
		t.Error("expected an error for a parameter without a matching argument")
	}
}

func TestProjectedRootsTheName(t *testing.T) {
	tree := action.NewObjectTree()
	tree.AddField("b")

	a, err := projected(action.KindUsage, nil, "a.x", 4, tree)
	if err != nil {
		t.Fatalf("projected: %v", err)
	}
	if a.Name() != "a" {
		t.Errorf("name = %q, want the root a", a.Name())
	}
	if a.Node() != 4 {
		t.Errorf("node = %d, want 4", a.Node())
	}
	// The residual path is grafted in front of the callee-side tree.
	for _, path := range []string{"x", "x.b"} {
		if !a.Tree().Has(path) {
			t.Errorf("tree missing %q, got %v", path, a.Tree().Fields())
		}
	}

	// A name that is already a root keeps its tree as is.
	d, err := projected(action.KindDefinition, nil, "y", 1, tree)
	if err != nil {
		t.Fatalf("projected: %v", err)
	}
	if d.Name() != "y" || !d.Tree().Has("b") || d.Tree().Has("x") {
		t.Errorf("projected root = %s tree %v", d, d.Tree().Fields())
	}
	if !d.IsDefinition() {
		t.Error("projected definition should stay a definition")
	}
}
