package finder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/callgraph"
	"github.com/l3aro/go-sdg/pkg/ir"
)

var (
	// superRe rewrites a textual super/X.super receiver prefix into
	// this/X.this.
	superRe = regexp.MustCompile(`((\.)super|^super)(\.)?`)
	// thisPrefixRe strips a leading (scope.)?this. prefix off a name.
	thisPrefixRe = regexp.MustCompile(`^(.*\.)?this\.?`)
	// thisChainRe matches a repeated this.this… chain.
	thisChainRe = regexp.MustCompile(`this(\.this)+`)
)

// syntheticThis stands in for the receiver of forwarding constructor calls.
// Shared so actions projected through such calls keep a stable identity.
var syntheticThis = &ir.Expr{Text: "this"}

// Scope returns the receiver of a call: the receiver expression of an
// ordinary call (nil when unqualified), or a synthetic `this` for a
// forwarding constructor call, which may mutate the current object's state.
// Any other call shape is a contract violation by the caller.
func Scope(call *ir.CallExpr) (*ir.Expr, error) {
	switch call.Kind {
	case ir.CallOrdinary:
		return call.Receiver, nil
	case ir.CallForwardingConstructor:
		return syntheticThis, nil
	default:
		return nil, fmt.Errorf("call to %s is neither an ordinary call nor a forwarding constructor", call.Callee)
	}
}

// AliasedName computes the name an action discovered inside the callee should
// have in the caller's frame, given the call edge projecting it. A reference
// to `this` becomes the receiver of the call.
func AliasedName(a *action.Action, e *callgraph.Edge) (string, error) {
	var scope string
	switch e.Call.Kind {
	case ir.CallOrdinary:
		scope = e.Call.ReceiverText()
	case ir.CallForwardingConstructor:
		// Only `this` and its fields are reachable through a forwarding
		// constructor, so the name needs no rewriting.
		scope = ""
	default:
		return "", fmt.Errorf("call to %s is neither an ordinary call nor a forwarding constructor", e.Call.Callee)
	}
	return aliasedName(a.Name(), scope, e.Call.EnclosingType), nil
}

// aliasedName is the pure name transformation behind AliasedName: rewrite a
// super receiver to this, qualify a bare this with the enclosing type, strip
// the action's own this prefix, prepend the receiver, and collapse any
// repeated this chain the concatenation produced.
func aliasedName(name, scope, enclosingType string) string {
	if scope == "" {
		return name
	}
	prefix := superRe.ReplaceAllString(scope, "${2}this${3}")
	if prefix == "this" {
		prefix = enclosingType + ".this"
	}
	stripped := thisPrefixRe.ReplaceAllString(name, "")
	if stripped == "" {
		return collapseThisChain(prefix)
	}
	return collapseThisChain(prefix + "." + stripped)
}

// projected builds the concrete action placed at a call site for a projected
// name. Names stay rooted: any residual field path of the projected name moves
// into the object tree, with the callee-side tree grafted below it.
func projected(kind action.Kind, expr *ir.Expr, name string, site action.NodeID, tree *action.ObjectTree) (*action.Action, error) {
	root, err := action.RootOf(name)
	if err != nil {
		return nil, err
	}
	var a *action.Action
	switch kind {
	case action.KindUsage:
		a = action.NewUsage(expr, root, site)
	case action.KindDefinition:
		a = action.NewDefinition(expr, root, site, nil)
	default:
		return nil, fmt.Errorf("cannot project a %s action across a call", kind)
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(name, root), ".")
	a.Tree().AddAllAt(rest, tree)
	return a, nil
}

// collapseThisChain reduces the first this.this… run to a single this.
func collapseThisChain(s string) string {
	loc := thisChainRe.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + "this" + s[loc[1]:]
}

// ExtractArgument locates the argument expression matching a callee-side
// parameter at the given call site. For an output projection (actual-out) a
// parameter of primitive type yields nil: primitive arguments cannot be
// redefined through an alias, so they have no actual-out representation.
func ExtractArgument(p *ir.ValueDecl, e *callgraph.Edge, input bool) (*ir.Expr, error) {
	if !input && p.Type.Primitive {
		return nil, nil // primitives do not have actual-out
	}
	idx, err := e.Callee.Callable.ParamIndex(p)
	if err != nil {
		return nil, err
	}
	if idx >= len(e.Call.Args) {
		// Argument matching for overloaded/variadic calls is an acknowledged
		// gap; surface it rather than guessing.
		return nil, fmt.Errorf("call to %s has no argument for parameter %d (%s)", e.Call.Callee, idx, p.Name)
	}
	return e.Call.Args[idx], nil
}
