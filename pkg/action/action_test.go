package action

import (
	"testing"

	"github.com/l3aro/go-sdg/pkg/ir"
)

func TestRootOf(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple identifier", input: "x", want: "x"},
		{name: "field chain", input: "x.y", want: "x"},
		{name: "this rooted", input: "this.x.y", want: "this"},
		{name: "qualified this", input: "com.pkg.Foo.this.x", want: "com.pkg.Foo.this"},
		{name: "bare this", input: "this", want: "this"},
		{name: "underscore name", input: "_tmp.f", want: "_tmp"},
		{name: "synthetic name", input: "-output-", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RootOf(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("RootOf(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("RootOf(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("RootOf(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsRootAction(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "root identifier", input: "x", want: true},
		{name: "field access", input: "x.y", want: false},
		{name: "bare this", input: "this", want: true},
		{name: "this field", input: "this.x", want: false},
		{name: "qualified this", input: "com.pkg.Foo.this", want: true},
		{name: "qualified this field", input: "com.pkg.Foo.this.x", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewUsage(nil, tt.input, NoNode)
			if got := a.IsRootAction(); got != tt.want {
				t.Errorf("IsRootAction(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsSynthetic(t *testing.T) {
	if NewUsage(nil, "this.x", NoNode).IsSynthetic() {
		t.Error("this.x should not be synthetic")
	}
	if !NewUsage(nil, "-output-", NoNode).IsSynthetic() {
		t.Error("-output- should be synthetic")
	}
	// Synthetic names are trivially root actions.
	if !NewUsage(nil, "-output-", NoNode).IsRootAction() {
		t.Error("a synthetic action should count as a root action")
	}
}

func TestRootAction(t *testing.T) {
	base := &ir.Expr{Text: "x", Decl: &ir.ValueDecl{Name: "x", Kind: ir.ValueLocal}}
	expr := &ir.Expr{Text: "x.y", Base: base}

	a := NewUsage(expr, "x.y", 3)
	a.AddObjectField("y")
	root, err := a.RootAction()
	if err != nil {
		t.Fatalf("RootAction: %v", err)
	}
	if root.Name() != "x" {
		t.Errorf("root name = %q, want %q", root.Name(), "x")
	}
	if root.Expr() != base {
		t.Errorf("root expr = %v, want base sub-expression", root.Expr())
	}
	if root.Node() != 3 {
		t.Errorf("root node = %d, want 3", root.Node())
	}
	if !root.IsUsage() {
		t.Error("root action should stay a usage")
	}
}

func TestRootActionOfDeclarationFails(t *testing.T) {
	a := NewDeclaration(nil, "x.y", NoNode)
	if _, err := a.RootAction(); err == nil {
		t.Fatal("expected an error deriving the root of a declaration")
	}
}

func TestRootActionThroughMovable(t *testing.T) {
	inner := NewDefinition(nil, "this.x", 2, nil)
	m := NewMovable(inner, 7)
	root, err := m.RootAction()
	if err != nil {
		t.Fatalf("RootAction: %v", err)
	}
	if root.Kind() != KindMovable {
		t.Fatalf("kind = %s, want movable", root.Kind())
	}
	if root.Target() != 7 {
		t.Errorf("target = %d, want 7", root.Target())
	}
	if root.Name() != "this" {
		t.Errorf("name = %q, want this", root.Name())
	}
	if !root.IsDefinition() {
		t.Error("rewrapped movable should stay a definition")
	}
}

func TestMovableCannotWrapMovable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic wrapping a movable in a movable")
		}
	}()
	m := NewMovable(NewUsage(nil, "x", NoNode), 1)
	NewMovable(m, 2)
}

func TestMatches(t *testing.T) {
	use := NewUsage(nil, "this.x", NoNode)
	def := NewDefinition(nil, "this.x", NoNode, nil)
	other := NewUsage(nil, "this.y", NoNode)

	if !use.Matches(def) {
		t.Error("actions on the same variable should match")
	}
	if use.Matches(other) {
		t.Error("actions on different variables should not match")
	}
	if TypeMatches(use, def) {
		t.Error("a usage and a definition should not type-match")
	}
	if !TypeMatches(def, NewMovable(NewDefinition(nil, "z", NoNode, nil), 1)) {
		t.Error("type matching should look through movable wrappers")
	}
	if !RootMatches(use, other) {
		t.Error("this.x and this.y share the root this")
	}
}

func TestKeyStableUnderTreeGrowth(t *testing.T) {
	a := NewUsage(nil, "x", NoNode)
	before := a.Key()
	a.AddObjectField("f.g")
	if a.Key() != before {
		t.Error("the identity key must not depend on the object tree")
	}
}

func TestEffectiveKind(t *testing.T) {
	inner := NewUsage(nil, "x", NoNode)
	m := NewMovable(inner, 4)
	if m.Kind() != KindMovable {
		t.Errorf("outer kind = %s, want movable", m.Kind())
	}
	if m.EffectiveKind() != KindUsage {
		t.Errorf("effective kind = %s, want usage", m.EffectiveKind())
	}
	if !m.IsUsage() {
		t.Error("movable over usage should report IsUsage")
	}
}

func TestResolvedDeclInventsFields(t *testing.T) {
	a := NewUsage(nil, "this.x", NoNode)
	d, err := a.ResolvedDecl()
	if err != nil {
		t.Fatalf("ResolvedDecl: %v", err)
	}
	if d.Kind != ir.ValueField {
		t.Errorf("kind = %s, want field", d.Kind)
	}

	unresolved := NewUsage(&ir.Expr{Text: "Type"}, "Type", NoNode)
	if _, err := unresolved.ResolvedDecl(); err == nil {
		t.Fatal("expected ErrUnresolved for an unbound expression")
	}
}
