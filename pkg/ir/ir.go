// Package ir models the analyzed program as already-resolved data: callable
// units, their parameters and fields, expressions, and call sites. It is the
// boundary to the out-of-scope collaborators (parser, symbol resolver); the
// analysis packages consume these values and never look at source text.
package ir

import (
	"errors"
	"fmt"
)

// ErrUnresolved is reported when an expression cannot be resolved against the
// analyzed program's symbol table, e.g. a bare type name used for static
// access. Callers are expected to skip the offending action and continue.
var ErrUnresolved = errors.New("unresolved symbol")

// TypeRef is a reference to a type of the analyzed program.
type TypeRef struct {
	Name      string `json:"name"`
	Primitive bool   `json:"primitive"` // value type that cannot be aliased
}

// ValueKind classifies what a variable reference resolves to.
type ValueKind string

const (
	ValueLocal     ValueKind = "local"     // local variable of a callable
	ValueParameter ValueKind = "parameter" // formal parameter of a callable
	ValueField     ValueKind = "field"     // field of the enclosing type
)

// ValueDecl is the resolved declaration of a variable.
type ValueDecl struct {
	Name string    `json:"name"`
	Kind ValueKind `json:"kind"`
	Type TypeRef   `json:"type"`
}

// Callable is a callable unit of the analyzed program: a method or a
// constructor with a resolvable declaration.
type Callable struct {
	Name          string       `json:"name"`           // simple name
	Signature     string       `json:"signature"`      // unique signature, e.g. "com.example.Foo.setX(int)"
	EnclosingType string       `json:"enclosing_type"` // fully qualified name of the declaring type
	Params        []*ValueDecl `json:"params"`         // formal parameters, in declaration order
}

// ParamIndex returns the position of the given declaration among the
// callable's formal parameters. A declaration that is not a parameter of this
// callable is a contract violation by the caller.
func (c *Callable) ParamIndex(d *ValueDecl) (int, error) {
	for i, p := range c.Params {
		if p == d {
			return i, nil
		}
	}
	// Fall back to name matching: projections across the call boundary may
	// carry a copy of the declaration rather than the original pointer.
	for i, p := range c.Params {
		if d != nil && p.Name == d.Name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("declaration %q is not a parameter of %s", declName(d), c.Signature)
}

func declName(d *ValueDecl) string {
	if d == nil {
		return "<nil>"
	}
	return d.Name
}

// Expr is an expression of the analyzed program. Only its text and its
// resolution are relevant to the analysis; the syntax tree stays with the
// parser. Base points at the root sub-expression of a field access chain
// ("a" for "a.b.c"), nil for anything else.
type Expr struct {
	Text string     `json:"text"`
	Decl *ValueDecl `json:"decl,omitempty"`
	Base *Expr      `json:"base,omitempty"`
}

// Resolve returns the value declaration this expression refers to. It fails
// with ErrUnresolved when the resolver could not bind the expression to a
// variable.
func (e *Expr) Resolve() (*ValueDecl, error) {
	if e == nil || e.Decl == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, exprText(e))
	}
	return e.Decl, nil
}

func exprText(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.Text
}

// CallKind classifies the shape of a call site.
type CallKind string

const (
	// CallOrdinary is a plain method call, qualified or not.
	CallOrdinary CallKind = "ordinary"
	// CallForwardingConstructor is a this(...)/super(...) constructor
	// forwarding statement. It may mutate the current object's state, so the
	// analysis treats it as a call with receiver `this`.
	CallForwardingConstructor CallKind = "forwarding-constructor"
)

// CallExpr is a call site of the analyzed program.
type CallExpr struct {
	Kind          CallKind `json:"kind"`
	Callee        string   `json:"callee"`         // signature of the called unit
	Receiver      *Expr    `json:"receiver"`       // nil for unqualified calls
	Args          []*Expr  `json:"args"`           // argument expressions, in call order
	EnclosingType string   `json:"enclosing_type"` // fully qualified type enclosing the call site
}

// ReceiverText returns the textual receiver of the call, "" when absent.
func (c *CallExpr) ReceiverText() string {
	if c.Receiver == nil {
		return ""
	}
	return c.Receiver.Text
}
