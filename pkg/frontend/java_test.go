package frontend

import (
	"testing"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/ir"
	"github.com/l3aro/go-sdg/pkg/program"
)

const fooSource = `
package com.ex;

class Foo {
    int x;

    void set(int v) {
        x = v;
    }

    void run() {
        int tmp = 1;
        set(tmp);
    }

    void touch(Foo o) {
        this.x = o.x;
    }
}
`

func extract(t *testing.T, src string) *program.Program {
	t.Helper()
	p, err := ExtractJava(map[string][]byte{"Test.java": []byte(src)})
	if err != nil {
		t.Fatalf("ExtractJava: %v", err)
	}
	return p
}

func callableNamed(t *testing.T, p *program.Program, name string) *ir.Callable {
	t.Helper()
	for _, c := range p.Callables {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no callable named %s", name)
	return nil
}

func TestExtractJavaIndexesCallables(t *testing.T) {
	p := extract(t, fooSource)

	if len(p.Callables) != 3 {
		t.Fatalf("callables = %d, want 3", len(p.Callables))
	}

	set := callableNamed(t, p, "set")
	if set.Signature != "com.ex.Foo.set(int)" {
		t.Errorf("signature = %q, want com.ex.Foo.set(int)", set.Signature)
	}
	if set.EnclosingType != "com.ex.Foo" {
		t.Errorf("enclosing type = %q, want com.ex.Foo", set.EnclosingType)
	}
	if len(set.Params) != 1 || !set.Params[0].Type.Primitive {
		t.Errorf("set should have one primitive parameter, got %v", set.Params)
	}

	touch := callableNamed(t, p, "touch")
	if touch.Signature != "com.ex.Foo.touch(Foo)" {
		t.Errorf("signature = %q, want com.ex.Foo.touch(Foo)", touch.Signature)
	}
	if touch.Params[0].Type.Primitive {
		t.Error("a Foo parameter is not primitive")
	}
}

func TestExtractJavaStatementActions(t *testing.T) {
	p := extract(t, fooSource)
	set := callableNamed(t, p, "set")

	fg := p.CFGs[set]
	if fg == nil || len(fg.Blocks) != 3 {
		t.Fatalf("set CFG should have entry, one statement and exit, got %v", fg)
	}
	body := fg.Blocks[1]
	if len(body.Actions) != 2 {
		t.Fatalf("body actions = %v, want [USE{v} DEF{x}]", body.Actions)
	}
	use, def := body.Actions[0], body.Actions[1]
	if !use.IsUsage() || use.Name() != "v" {
		t.Errorf("first action = %s, want USE{v}", use)
	}
	if d, err := use.ResolvedDecl(); err != nil || d.Kind != ir.ValueParameter {
		t.Errorf("v should resolve to the parameter, got %v, %v", d, err)
	}
	if !def.IsDefinition() || def.Name() != "x" {
		t.Errorf("second action = %s, want DEF{x}", def)
	}
	if d, err := def.ResolvedDecl(); err != nil || d.Kind != ir.ValueField {
		t.Errorf("x should resolve to the field, got %v, %v", d, err)
	}
}

func TestExtractJavaFieldAccessChains(t *testing.T) {
	p := extract(t, fooSource)
	touch := callableNamed(t, p, "touch")

	body := p.CFGs[touch].Blocks[1]
	if len(body.Actions) != 2 {
		t.Fatalf("body actions = %v, want [USE{o} DEF{this}]", body.Actions)
	}

	// o.x reads root o with field x in the object tree.
	use := body.Actions[0]
	if !use.IsUsage() || use.Name() != "o" {
		t.Fatalf("first action = %s, want USE{o}", use)
	}
	if !use.Tree().Has("x") {
		t.Errorf("usage of o should record field x, tree = %v", use.Tree().Fields())
	}

	// this.x writes root this with field x in the object tree.
	def := body.Actions[1]
	if !def.IsDefinition() || def.Name() != "this" {
		t.Fatalf("second action = %s, want DEF{this}", def)
	}
	if !def.Tree().Has("x") {
		t.Errorf("definition of this should record field x, tree = %v", def.Tree().Fields())
	}
	if d, err := def.ResolvedDecl(); err != nil || d.Kind != ir.ValueField {
		t.Errorf("this should resolve as a field of the current object, got %v, %v", d, err)
	}
}

func TestExtractJavaCallSites(t *testing.T) {
	p := extract(t, fooSource)
	run := callableNamed(t, p, "run")
	set := callableNamed(t, p, "set")

	fg := p.CFGs[run]
	if len(fg.Blocks) != 4 {
		t.Fatalf("run CFG blocks = %d, want 4", len(fg.Blocks))
	}

	decl := fg.Blocks[1]
	if len(decl.Actions) != 2 || !decl.Actions[0].IsDeclaration() || !decl.Actions[1].IsDefinition() {
		t.Errorf("declaration statement actions = %v, want [DEC{tmp} DEF{tmp}]", decl.Actions)
	}

	site := fg.Blocks[2]
	var markers, uses int
	for _, a := range site.Actions {
		switch {
		case a.Kind() == action.KindCallMarker:
			markers++
		case a.IsUsage() && a.Name() == "tmp":
			uses++
		}
	}
	if markers != 2 {
		t.Errorf("call markers = %d, want enter and return", markers)
	}
	if uses != 1 {
		t.Errorf("usages of tmp at the call site = %d, want 1", uses)
	}

	if len(p.CallGraph.Edges()) != 1 {
		t.Fatalf("edges = %d, want 1", len(p.CallGraph.Edges()))
	}
	e := p.CallGraph.Edges()[0]
	if e.Caller.Callable != run || e.Callee.Callable != set {
		t.Errorf("edge = %s -> %s, want run -> set", e.Caller.Callable.Name, e.Callee.Callable.Name)
	}
	if e.Site != site.ID {
		t.Errorf("edge site = %d, want %d", e.Site, site.ID)
	}
	if len(e.Call.Args) != 1 || e.Call.Args[0].Text != "tmp" {
		t.Fatalf("call args = %v, want [tmp]", e.Call.Args)
	}
	if d, err := e.Call.Args[0].Resolve(); err != nil || d.Kind != ir.ValueLocal {
		t.Errorf("argument should resolve to the local, got %v, %v", d, err)
	}
}

func TestExtractJavaQualifiedCall(t *testing.T) {
	p := extract(t, `
class Foo {
    int x;
    void set(int v) { x = v; }
}

class Caller {
    void go(Foo f) {
        f.set(3);
    }
}
`)
	if len(p.CallGraph.Edges()) != 1 {
		t.Fatalf("edges = %d, want 1", len(p.CallGraph.Edges()))
	}
	e := p.CallGraph.Edges()[0]
	if e.Call.Kind != ir.CallOrdinary {
		t.Errorf("call kind = %s, want ordinary", e.Call.Kind)
	}
	if e.Call.ReceiverText() != "f" {
		t.Errorf("receiver = %q, want f", e.Call.ReceiverText())
	}
	if d, err := e.Call.Receiver.Resolve(); err != nil || d.Kind != ir.ValueParameter {
		t.Errorf("receiver should resolve to the parameter, got %v, %v", d, err)
	}
	if e.Call.EnclosingType != "Caller" {
		t.Errorf("enclosing type = %q, want Caller", e.Call.EnclosingType)
	}
}

func TestExtractJavaForwardingConstructor(t *testing.T) {
	p := extract(t, `
class Bar {
    int n;

    Bar() {
        this(1);
    }

    Bar(int a) {
        n = a;
    }
}
`)
	if len(p.CallGraph.Edges()) != 1 {
		t.Fatalf("edges = %d, want 1", len(p.CallGraph.Edges()))
	}
	e := p.CallGraph.Edges()[0]
	if e.Call.Kind != ir.CallForwardingConstructor {
		t.Errorf("call kind = %s, want forwarding-constructor", e.Call.Kind)
	}
	if e.Caller.Callable.Signature != "Bar.Bar()" || e.Callee.Callable.Signature != "Bar.Bar(int)" {
		t.Errorf("edge = %s -> %s, want Bar.Bar() -> Bar.Bar(int)", e.Caller.Callable.Signature, e.Callee.Callable.Signature)
	}
	if len(e.Call.Args) != 1 {
		t.Errorf("call args = %v, want one literal", e.Call.Args)
	}
}

func TestExtractJavaSkipsExternalCalls(t *testing.T) {
	p := extract(t, `
class Foo {
    void go() {
        System.out.println("hi");
    }
}
`)
	if len(p.CallGraph.Edges()) != 0 {
		t.Errorf("edges = %d, calls into unindexed code should not produce edges", len(p.CallGraph.Edges()))
	}
}

func TestExtractJavaUpdateExpression(t *testing.T) {
	p := extract(t, `
class Foo {
    int x;
    void bump() {
        x++;
    }
}
`)
	bump := callableNamed(t, p, "bump")
	body := p.CFGs[bump].Blocks[1]
	if len(body.Actions) != 2 || !body.Actions[0].IsUsage() || !body.Actions[1].IsDefinition() {
		t.Fatalf("x++ actions = %v, want [USE{x} DEF{x}]", body.Actions)
	}
}
