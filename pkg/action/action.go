// Package action models actions performed upon variables of the analyzed
// program: declarations, definitions and usages, plus the synthetic call
// markers that bracket calls and the movable placeholders used while a node's
// final graph location is still undecided. Actions are the currency of the
// interprocedural finders; graph nodes own ordered lists of them.
package action

import (
	"fmt"
	"regexp"

	"github.com/l3aro/go-sdg/pkg/ir"
)

// NodeID is a stable handle of a node in the dependence-graph arena.
type NodeID int

// NoNode is the zero handle for actions that are not attached anywhere.
const NoNode NodeID = -1

// Kind discriminates the action variants.
type Kind string

const (
	KindDeclaration Kind = "declaration"
	KindDefinition  Kind = "definition"
	KindUsage       Kind = "usage"
	KindCallMarker  Kind = "call-marker"
	KindMovable     Kind = "movable"
)

const variablePattern = `([A-Za-z][A-Za-z0-9_]*|_[A-Za-z0-9_]+)`

var (
	// fieldRe accepts canonical variable names: root(.field)*. Names that
	// fail it are synthetic, invented by the analysis itself (e.g. the
	// returned value or the active exception).
	fieldRe = regexp.MustCompile(`^` + variablePattern + `(\.` + variablePattern + `)*$`)
	// rootRe extracts the root of a name: either a `Qualifier.this` chain or
	// a simple identifier.
	rootRe = regexp.MustCompile(`^(([_0-9A-Za-z]+\.)*this|[_0-9A-Za-z]+)`)
)

// Action is a tagged variant describing a single action upon a variable at a
// point of a procedure. Identity is (kind, originating expression, real name);
// the object tree is deliberately excluded so the same logical action keeps
// its map key while the tree grows across fixed-point iterations.
type Action struct {
	kind Kind
	expr *ir.Expr // originating expression, nil for purely synthetic actions
	name string   // canonical real name, never empty
	node NodeID   // graph node performing this action
	tree *ObjectTree

	assigned *ir.Expr // definitions: the expression assigned, if known

	call  *ir.CallExpr // call markers
	enter bool         // call markers: start (true) or end (false)

	inner  *Action // movables
	target NodeID  // movables: final location, a detached node
}

func newAction(kind Kind, expr *ir.Expr, name string, node NodeID) *Action {
	if name == "" {
		panic("action: empty real name")
	}
	return &Action{kind: kind, expr: expr, name: name, node: node, tree: NewObjectTree()}
}

// NewDeclaration creates a declaration action.
func NewDeclaration(expr *ir.Expr, name string, node NodeID) *Action {
	return newAction(KindDeclaration, expr, name, node)
}

// NewDefinition creates a definition action. assigned is the expression the
// variable is defined to, nil when unknown.
func NewDefinition(expr *ir.Expr, name string, node NodeID, assigned *ir.Expr) *Action {
	a := newAction(KindDefinition, expr, name, node)
	a.assigned = assigned
	return a
}

// NewUsage creates a usage action.
func NewUsage(expr *ir.Expr, name string, node NodeID) *Action {
	return newAction(KindUsage, expr, name, node)
}

// NewCallMarker creates the synthetic action that locates the start or end of
// a call inside a node's action sequence.
func NewCallMarker(call *ir.CallExpr, node NodeID, enter bool) *Action {
	word := "return"
	if enter {
		word = "call"
	}
	a := newAction(KindCallMarker, nil, fmt.Sprintf("-%s-%s-", word, call.Callee), node)
	a.call = call
	a.enter = enter
	return a
}

// NewMovable wraps a concrete action whose final graph location is the given
// detached node. The placeholder lives in the inner action's node and takes
// part in dependency edges until the graph relocates it. Wrapping a movable
// in another movable is a programming error.
func NewMovable(inner *Action, target NodeID) *Action {
	if inner.kind == KindMovable {
		panic("action: movable must wrap an unmovable action")
	}
	a := newAction(KindMovable, inner.expr, inner.name, inner.node)
	a.inner = inner
	a.target = target
	return a
}

// Kind returns the outer variant; a movable reports KindMovable.
func (a *Action) Kind() Kind { return a.kind }

// EffectiveKind looks through a movable wrapper to the inner variant.
func (a *Action) EffectiveKind() Kind {
	if a.kind == KindMovable {
		return a.inner.kind
	}
	return a.kind
}

// Name returns the canonical real name of the variable acted upon.
func (a *Action) Name() string { return a.name }

// Expr returns the originating expression, nil for synthetic actions.
func (a *Action) Expr() *ir.Expr { return a.expr }

// Node returns the handle of the graph node performing this action.
func (a *Action) Node() NodeID { return a.node }

// Tree returns the object tree of touched fields.
func (a *Action) Tree() *ObjectTree { return a.tree }

// Assigned returns the expression a definition assigns, nil when unknown or
// when the action is not a definition.
func (a *Action) Assigned() *ir.Expr {
	if a.kind == KindMovable {
		return a.inner.assigned
	}
	return a.assigned
}

// Call returns the call a marker brackets, nil for other variants.
func (a *Action) Call() *ir.CallExpr { return a.call }

// Enter reports whether a call marker is the start marker.
func (a *Action) Enter() bool { return a.enter }

// Inner returns the wrapped action of a movable, nil otherwise.
func (a *Action) Inner() *Action { return a.inner }

// Target returns the final-location node handle of a movable.
func (a *Action) Target() NodeID { return a.target }

// IsUsage reports whether the action (or a movable's inner action) is a usage.
func (a *Action) IsUsage() bool { return a.EffectiveKind() == KindUsage }

// IsDefinition reports whether the action is a definition.
func (a *Action) IsDefinition() bool { return a.EffectiveKind() == KindDefinition }

// IsDeclaration reports whether the action is a declaration.
func (a *Action) IsDeclaration() bool { return a.EffectiveKind() == KindDeclaration }

// AddObjectField records that the given field path of the variable is touched
// by this same action. Movable placeholders do not carry object trees.
func (a *Action) AddObjectField(path string) {
	if a.kind == KindMovable {
		panic("action: movable actions do not support the object tree")
	}
	a.tree.AddField(path)
}

// IsSynthetic reports whether the action is performed upon an invented
// variable, recognizable by a name outside the root(.field)* grammar.
func (a *Action) IsSynthetic() bool {
	return !fieldRe.MatchString(a.name)
}

// RootOf parses the root out of a real name: "this.x.y" yields "this",
// "com.pkg.Foo.this.x" yields "com.pkg.Foo.this", "x.y" yields "x". A name
// that does not even start like a variable is a precondition violation.
func RootOf(name string) (string, error) {
	root := rootRe.FindString(name)
	if root == "" {
		return "", fmt.Errorf("invalid real name: %q", name)
	}
	return root, nil
}

// RootVariable returns the root of this action's real name.
func (a *Action) RootVariable() (string, error) {
	return RootOf(a.name)
}

// IsRootAction reports whether this action targets a variable's top-level
// storage location. Synthetic actions are trivially root actions; sub-field
// access is represented by object trees on the root action, never by separate
// tracked actions.
func (a *Action) IsRootAction() bool {
	if a.IsSynthetic() {
		return true
	}
	root, err := a.RootVariable()
	return err == nil && root == a.name
}

// RootAction derives the action on the root variable from an action on one of
// its fields, preserving the variant. The derived action references the root
// sub-expression when one is available; a field reached purely through a
// `this` chain carries no expression. Calling this on an action that is
// already a root action is a programming error.
func (a *Action) RootAction() (*Action, error) {
	if a.IsRootAction() {
		panic("action: already a root action")
	}
	if a.kind == KindMovable {
		inner, err := a.inner.RootAction()
		if err != nil {
			return nil, err
		}
		return NewMovable(inner, a.target), nil
	}
	root, err := a.RootVariable()
	if err != nil {
		return nil, err
	}
	var expr *ir.Expr
	if a.expr != nil && a.expr.Base != nil {
		expr = a.expr.Base
		for expr.Base != nil {
			expr = expr.Base
		}
	}
	switch a.kind {
	case KindUsage:
		return NewUsage(expr, root, a.node), nil
	case KindDefinition:
		return NewDefinition(expr, root, a.node, a.assigned), nil
	case KindDeclaration:
		return nil, fmt.Errorf("cannot derive a root action for the declaration of %q", a.name)
	default:
		return nil, fmt.Errorf("cannot derive a root action for %s action %q", a.kind, a.name)
	}
}

// ResolvedDecl resolves the variable this action is performed upon. Actions
// with no originating expression resolve to an invented declaration that
// reports itself a field, so that purely name-derived actions still sort and
// project correctly. Resolution failures carry ir.ErrUnresolved.
func (a *Action) ResolvedDecl() (*ir.ValueDecl, error) {
	if a.expr != nil {
		return a.expr.Resolve()
	}
	return &ir.ValueDecl{Name: a.name, Kind: ir.ValueField}, nil
}

// Matches reports whether the other action is performed upon the same
// variable, regardless of variant.
func (a *Action) Matches(b *Action) bool {
	return b != nil && a.name == b.name
}

// TypeMatches reports whether both actions are of the same variant
// (declaration, definition or usage), looking through movable wrappers.
func TypeMatches(a, b *Action) bool {
	return (a.IsDeclaration() && b.IsDeclaration()) ||
		(a.IsDefinition() && b.IsDefinition()) ||
		(a.IsUsage() && b.IsUsage())
}

// RootMatches reports whether both actions share the same root variable.
func RootMatches(a, b *Action) bool {
	ra, err := a.RootVariable()
	if err != nil {
		return false
	}
	rb, err := b.RootVariable()
	if err != nil {
		return false
	}
	return ra == rb
}

// Key is the stable identity of an action: variant, originating expression
// identity and real name. It never includes the object tree, whose contents
// grow monotonically while the identity must stay put, and never a movable's
// target node, so the placeholder a call site regrows on a later iteration
// folds into the one already tracked instead of growing the set forever.
type Key struct {
	Kind      Kind
	InnerKind Kind
	Expr      *ir.Expr
	Name      string
}

// Key returns the map key identifying this action across iterations.
func (a *Action) Key() Key {
	k := Key{Kind: a.kind, InnerKind: a.kind, Expr: a.expr, Name: a.name}
	if a.kind == KindMovable {
		k.InnerKind = a.inner.kind
	}
	return k
}

// String renders the action for diagnostics, e.g. "USE{this.x}".
func (a *Action) String() string {
	switch a.kind {
	case KindDeclaration:
		return "DEC{" + a.name + "}"
	case KindDefinition:
		return "DEF{" + a.name + "}"
	case KindUsage:
		return "USE{" + a.name + "}"
	case KindCallMarker:
		return "{" + a.name + "}"
	case KindMovable:
		return fmt.Sprintf("%s(%d)", a.inner, a.target)
	default:
		return "{" + a.name + "}"
	}
}
