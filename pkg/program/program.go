// Package program loads an analyzed-program description from YAML and
// assembles the inputs the finders consume: the callable units, their
// control-flow graphs, the call graph and the shared dependence-graph arena.
// The description carries already-resolved symbol information, standing in for
// the parser and resolver of a full front end.
package program

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/callgraph"
	"github.com/l3aro/go-sdg/pkg/cfg"
	"github.com/l3aro/go-sdg/pkg/graph"
	"github.com/l3aro/go-sdg/pkg/ir"
)

// Program is a fully assembled analysis input.
type Program struct {
	Callables []*ir.Callable
	CFGs      map[*ir.Callable]*cfg.CFG
	CallGraph *callgraph.Graph
	Graph     *graph.Graph
}

// Spec mirrors the YAML document describing a program.
type Spec struct {
	Callables []CallableSpec `yaml:"callables"`
	Calls     []CallSpec     `yaml:"calls"`
}

// CallableSpec describes one callable unit and its control-flow blocks.
type CallableSpec struct {
	Name          string       `yaml:"name"`
	Signature     string       `yaml:"signature"`
	EnclosingType string       `yaml:"enclosing_type"`
	Params        []DeclSpec   `yaml:"params"`
	Fields        []DeclSpec   `yaml:"fields"`
	Locals        []DeclSpec   `yaml:"locals"`
	Blocks        []BlockSpec  `yaml:"blocks"`
}

// DeclSpec describes a variable declaration.
type DeclSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// BlockSpec describes one statement block and the variable actions it
// performs, in program order.
type BlockSpec struct {
	Label   string       `yaml:"label"`
	Actions []ActionSpec `yaml:"actions"`
}

// ActionSpec describes one variable action. Kind is declaration, definition or
// usage; Of names the resolved declaration as "param:NAME", "field:NAME",
// "local:NAME" or "" for an unresolvable reference; Fields lists the dotted
// object-tree paths the action touches.
type ActionSpec struct {
	Kind   string   `yaml:"kind"`
	Name   string   `yaml:"name"`
	Of     string   `yaml:"of"`
	Fields []string `yaml:"fields"`
}

// CallSpec describes one call site. Block indexes the caller's Blocks list.
type CallSpec struct {
	Caller   string     `yaml:"caller"`
	Callee   string     `yaml:"callee"`
	Block    int        `yaml:"block"`
	Kind     string     `yaml:"kind"`
	Receiver *ExprSpec  `yaml:"receiver"`
	Args     []ExprSpec `yaml:"args"`
}

// ExprSpec describes an argument or receiver expression. Base, when present,
// names the root sub-expression of a field access chain.
type ExprSpec struct {
	Text string    `yaml:"text"`
	Of   string    `yaml:"of"`
	Base *ExprSpec `yaml:"base"`
}

// primitiveTypes are the value types that cannot be aliased.
var primitiveTypes = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true,
}

func typeRef(name string) ir.TypeRef {
	return ir.TypeRef{Name: name, Primitive: primitiveTypes[name]}
}

// Load reads and assembles a program description from a YAML file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse assembles a program description from YAML bytes.
func Parse(data []byte) (*Program, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse program description: %w", err)
	}
	return Assemble(&spec)
}

// declTable indexes one callable's resolvable declarations by kind and name.
type declTable struct {
	params map[string]*ir.ValueDecl
	fields map[string]*ir.ValueDecl
	locals map[string]*ir.ValueDecl
}

func (t *declTable) lookup(of string) (*ir.ValueDecl, error) {
	if of == "" {
		return nil, nil // deliberately unresolved
	}
	for i := 0; i < len(of); i++ {
		if of[i] == ':' {
			kind, name := of[:i], of[i+1:]
			var d *ir.ValueDecl
			switch kind {
			case "param":
				d = t.params[name]
			case "field":
				d = t.fields[name]
			case "local":
				d = t.locals[name]
			default:
				return nil, fmt.Errorf("unknown declaration kind %q in %q", kind, of)
			}
			if d == nil {
				return nil, fmt.Errorf("no %s named %q", kind, name)
			}
			return d, nil
		}
	}
	return nil, fmt.Errorf("malformed declaration reference %q (want kind:name)", of)
}

func (t *declTable) expr(s *ExprSpec) (*ir.Expr, error) {
	if s == nil {
		return nil, nil
	}
	decl, err := t.lookup(s.Of)
	if err != nil {
		return nil, err
	}
	base, err := t.expr(s.Base)
	if err != nil {
		return nil, err
	}
	return &ir.Expr{Text: s.Text, Decl: decl, Base: base}, nil
}

// Assemble turns a parsed Spec into a Program: one callable and CFG per
// CallableSpec, one call-graph edge plus a pair of call markers per CallSpec.
func Assemble(spec *Spec) (*Program, error) {
	p := &Program{
		CFGs:      make(map[*ir.Callable]*cfg.CFG),
		CallGraph: callgraph.New(),
		Graph:     graph.New(),
	}

	bySignature := make(map[string]*ir.Callable)
	tables := make(map[*ir.Callable]*declTable)

	for _, cs := range spec.Callables {
		if bySignature[cs.Signature] != nil {
			return nil, fmt.Errorf("duplicate callable signature %q", cs.Signature)
		}
		c := &ir.Callable{
			Name:          cs.Name,
			Signature:     cs.Signature,
			EnclosingType: cs.EnclosingType,
		}
		table := &declTable{
			params: make(map[string]*ir.ValueDecl),
			fields: make(map[string]*ir.ValueDecl),
			locals: make(map[string]*ir.ValueDecl),
		}
		for _, ds := range cs.Params {
			d := &ir.ValueDecl{Name: ds.Name, Kind: ir.ValueParameter, Type: typeRef(ds.Type)}
			c.Params = append(c.Params, d)
			table.params[ds.Name] = d
		}
		for _, ds := range cs.Fields {
			table.fields[ds.Name] = &ir.ValueDecl{Name: ds.Name, Kind: ir.ValueField, Type: typeRef(ds.Type)}
		}
		for _, ds := range cs.Locals {
			table.locals[ds.Name] = &ir.ValueDecl{Name: ds.Name, Kind: ir.ValueLocal, Type: typeRef(ds.Type)}
		}
		p.Callables = append(p.Callables, c)
		bySignature[cs.Signature] = c
		tables[c] = table
		p.CallGraph.AddVertex(c)
	}

	// Blocks and their intraprocedural actions.
	for i, cs := range spec.Callables {
		c := p.Callables[i]
		table := tables[c]
		fg := cfg.New(p.Graph, c)
		for _, bs := range cs.Blocks {
			n := fg.AddBlock(p.Graph, bs.Label)
			for _, as := range bs.Actions {
				a, err := buildAction(&as, table, n.ID)
				if err != nil {
					return nil, fmt.Errorf("callable %s, block %q: %w", cs.Signature, bs.Label, err)
				}
				n.AppendAction(a)
			}
		}
		p.CFGs[c] = fg
	}

	// Call sites: the marker pair in the site block, plus the call-graph edge.
	for _, call := range spec.Calls {
		caller := bySignature[call.Caller]
		if caller == nil {
			return nil, fmt.Errorf("call references unknown caller %q", call.Caller)
		}
		callee := bySignature[call.Callee]
		if callee == nil {
			return nil, fmt.Errorf("call references unknown callee %q", call.Callee)
		}
		fg := p.CFGs[caller]
		// Block 0 is the first statement block; entry and exit are off limits.
		if call.Block < 0 || call.Block >= len(fg.Blocks)-2 {
			return nil, fmt.Errorf("call %s -> %s references block %d of %d", call.Caller, call.Callee, call.Block, len(fg.Blocks)-2)
		}
		site := fg.Blocks[call.Block+1]

		kind := ir.CallOrdinary
		switch call.Kind {
		case "", "ordinary":
		case "forwarding-constructor":
			kind = ir.CallForwardingConstructor
		default:
			return nil, fmt.Errorf("unknown call kind %q", call.Kind)
		}

		table := tables[caller]
		receiver, err := table.expr(call.Receiver)
		if err != nil {
			return nil, fmt.Errorf("call %s -> %s: %w", call.Caller, call.Callee, err)
		}
		args := make([]*ir.Expr, 0, len(call.Args))
		for i := range call.Args {
			arg, err := table.expr(&call.Args[i])
			if err != nil {
				return nil, fmt.Errorf("call %s -> %s, argument %d: %w", call.Caller, call.Callee, i, err)
			}
			args = append(args, arg)
		}

		ce := &ir.CallExpr{
			Kind:          kind,
			Callee:        callee.Signature,
			Receiver:      receiver,
			Args:          args,
			EnclosingType: caller.EnclosingType,
		}
		site.AppendAction(action.NewCallMarker(ce, site.ID, true))
		site.AppendAction(action.NewCallMarker(ce, site.ID, false))
		if _, err := p.CallGraph.AddEdge(caller, callee, ce, site.ID); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func buildAction(s *ActionSpec, table *declTable, node action.NodeID) (*action.Action, error) {
	decl, err := table.lookup(s.Of)
	if err != nil {
		return nil, err
	}
	var expr *ir.Expr
	if s.Name != "" {
		expr = &ir.Expr{Text: s.Name, Decl: decl}
	}
	var a *action.Action
	switch s.Kind {
	case "declaration":
		a = action.NewDeclaration(expr, s.Name, node)
	case "definition":
		a = action.NewDefinition(expr, s.Name, node, nil)
	case "usage":
		a = action.NewUsage(expr, s.Name, node)
	default:
		return nil, fmt.Errorf("unknown action kind %q", s.Kind)
	}
	for _, f := range s.Fields {
		a.AddObjectField(f)
	}
	return a, nil
}
