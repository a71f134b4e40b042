// Package frontend builds analysis inputs directly from Java sources using
// tree-sitter: it indexes the classes, fields, methods and constructors of the
// given files, extracts the variable actions of every statement, and links
// call sites into a call graph. Resolution is name-based and per-file; a
// reference that matches no local, parameter or field stays unresolved and is
// skipped by the analysis later.
package frontend

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/l3aro/go-sdg/pkg/action"
	"github.com/l3aro/go-sdg/pkg/callgraph"
	"github.com/l3aro/go-sdg/pkg/cfg"
	"github.com/l3aro/go-sdg/pkg/graph"
	"github.com/l3aro/go-sdg/pkg/ir"
	"github.com/l3aro/go-sdg/pkg/program"
)

// javaClass is one indexed class declaration.
type javaClass struct {
	name   string // fully qualified name
	fields map[string]*ir.ValueDecl
}

// javaMethod is one indexed method or constructor, pending extraction.
type javaMethod struct {
	callable *ir.Callable
	class    *javaClass
	node     *sitter.Node
	content  []byte
	params   map[string]*ir.ValueDecl
	locals   map[string]*ir.ValueDecl
}

type javaExtractor struct {
	prog    *program.Program
	classes map[string]*javaClass
	methods []*javaMethod
	// bySimpleName groups callables for call resolution; overloads are told
	// apart by arity only.
	bySimpleName map[string][]*javaMethod
}

// ExtractJava parses the given sources (keyed by file name, for diagnostics
// only) and assembles the analysis inputs.
func ExtractJava(sources map[string][]byte) (*program.Program, error) {
	x := &javaExtractor{
		prog: &program.Program{
			CFGs:      make(map[*ir.Callable]*cfg.CFG),
			CallGraph: callgraph.New(),
			Graph:     graph.New(),
		},
		classes:      make(map[string]*javaClass),
		bySimpleName: make(map[string][]*javaMethod),
	}

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	// Deterministic file order.
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	type parsed struct {
		content []byte
		tree    *sitter.Tree
	}
	trees := make([]parsed, 0, len(names))
	defer func() {
		for _, p := range trees {
			p.tree.Close()
		}
	}()

	// Pass 1: index every class, field and callable.
	for _, name := range names {
		content := sources[name]
		tree := parser.Parse(nil, content)
		if tree == nil {
			return nil, fmt.Errorf("failed to parse %s", name)
		}
		trees = append(trees, parsed{content: content, tree: tree})
		x.indexFile(tree.RootNode(), content)
	}

	// Pass 2: extract statements, actions and calls.
	for _, m := range x.methods {
		if err := x.extractMethod(m); err != nil {
			return nil, err
		}
	}

	return x.prog, nil
}

// indexFile walks a compilation unit and registers its classes and callables.
func (x *javaExtractor) indexFile(root *sitter.Node, content []byte) {
	pkg := ""
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child != nil && child.Type() == "package_declaration" {
			if id := findChildByType(child, "scoped_identifier"); id != nil {
				pkg = nodeText(id, content)
			} else if id := findChildByType(child, "identifier"); id != nil {
				pkg = nodeText(id, content)
			}
		}
	}
	x.indexClasses(root, content, pkg)
}

func (x *javaExtractor) indexClasses(node *sitter.Node, content []byte, pkg string) {
	if node == nil {
		return
	}
	if node.Type() == "class_declaration" {
		x.indexClass(node, content, pkg)
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		x.indexClasses(node.Child(i), content, pkg)
	}
}

func (x *javaExtractor) indexClass(node *sitter.Node, content []byte, pkg string) {
	nameNode := findChildByType(node, "identifier")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)
	if pkg != "" {
		name = pkg + "." + name
	}
	class := x.classes[name]
	if class == nil {
		class = &javaClass{name: name, fields: make(map[string]*ir.ValueDecl)}
		x.classes[name] = class
	}

	body := findChildByType(node, "class_body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "field_declaration":
			x.indexField(child, content, class)
		case "method_declaration", "constructor_declaration":
			x.indexCallable(child, content, class)
		case "class_declaration":
			// Nested classes are indexed under their own qualified name.
			x.indexClass(child, content, name)
		}
	}
}

func (x *javaExtractor) indexField(node *sitter.Node, content []byte, class *javaClass) {
	typeName := fieldTypeName(node, content)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "variable_declarator" {
			continue
		}
		nameNode := findChildByType(child, "identifier")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, content)
		class.fields[name] = &ir.ValueDecl{
			Name: name,
			Kind: ir.ValueField,
			Type: javaTypeRef(typeName),
		}
	}
}

func (x *javaExtractor) indexCallable(node *sitter.Node, content []byte, class *javaClass) {
	nameNode := findChildByType(node, "identifier")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)

	m := &javaMethod{
		class:   class,
		node:    node,
		content: content,
		params:  make(map[string]*ir.ValueDecl),
		locals:  make(map[string]*ir.ValueDecl),
	}

	var params []*ir.ValueDecl
	var paramTypes []string
	if fp := findChildByType(node, "formal_parameters"); fp != nil {
		for i := 0; i < int(fp.ChildCount()); i++ {
			p := fp.Child(i)
			if p == nil || (p.Type() != "formal_parameter" && p.Type() != "spread_parameter") {
				continue
			}
			pname, ptype := parameterNameAndType(p, content)
			if pname == "" {
				continue
			}
			d := &ir.ValueDecl{Name: pname, Kind: ir.ValueParameter, Type: javaTypeRef(ptype)}
			params = append(params, d)
			paramTypes = append(paramTypes, ptype)
			m.params[pname] = d
		}
	}

	m.callable = &ir.Callable{
		Name:          name,
		Signature:     class.name + "." + name + "(" + strings.Join(paramTypes, ",") + ")",
		EnclosingType: class.name,
		Params:        params,
	}

	x.methods = append(x.methods, m)
	x.bySimpleName[name] = append(x.bySimpleName[name], m)
	x.prog.Callables = append(x.prog.Callables, m.callable)
	x.prog.CallGraph.AddVertex(m.callable)
}

// extractMethod builds the CFG of one callable: one block per top-level
// statement of the body, each carrying the variable actions and call markers
// its whole subtree performs.
func (x *javaExtractor) extractMethod(m *javaMethod) error {
	fg := cfg.New(x.prog.Graph, m.callable)
	x.prog.CFGs[m.callable] = fg

	body := findChildByType(m.node, "block")
	if body == nil {
		body = findChildByType(m.node, "constructor_body")
	}
	if body == nil {
		return nil
	}

	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt == nil || !stmt.IsNamed() {
			continue
		}
		label := firstLine(nodeText(stmt, m.content))
		n := fg.AddBlock(x.prog.Graph, label)
		if err := x.extractStatement(m, stmt, n); err != nil {
			return err
		}
	}
	return nil
}

// extractStatement walks one statement subtree in textual order, appending
// declaration, definition and usage actions to the block and registering every
// call it contains.
func (x *javaExtractor) extractStatement(m *javaMethod, node *sitter.Node, block *graph.Node) error {
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "local_variable_declaration":
		return x.extractLocalDeclaration(m, node, block)
	case "assignment_expression":
		return x.extractAssignment(m, node, block)
	case "update_expression":
		return x.extractUpdate(m, node, block)
	case "method_invocation":
		return x.extractCall(m, node, block)
	case "explicit_constructor_invocation":
		return x.extractForwardingCall(m, node, block)
	case "identifier":
		x.appendAccess(m, node, block, action.KindUsage)
		return nil
	case "field_access":
		x.appendAccess(m, node, block, action.KindUsage)
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if err := x.extractStatement(m, node.Child(i), block); err != nil {
			return err
		}
	}
	return nil
}

func (x *javaExtractor) extractLocalDeclaration(m *javaMethod, node *sitter.Node, block *graph.Node) error {
	typeName := fieldTypeName(node, m.content)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "variable_declarator" {
			continue
		}
		nameNode := findChildByType(child, "identifier")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, m.content)
		d := &ir.ValueDecl{Name: name, Kind: ir.ValueLocal, Type: javaTypeRef(typeName)}
		m.locals[name] = d

		block.AppendAction(action.NewDeclaration(&ir.Expr{Text: name, Decl: d}, name, block.ID))

		// An initializer both defines the variable and uses its operands.
		if value := childByField(child, "value"); value != nil {
			if err := x.extractStatement(m, value, block); err != nil {
				return err
			}
			block.AppendAction(action.NewDefinition(&ir.Expr{Text: name, Decl: d}, name, block.ID, nil))
		}
	}
	return nil
}

func (x *javaExtractor) extractAssignment(m *javaMethod, node *sitter.Node, block *graph.Node) error {
	left := childByField(node, "left")
	right := childByField(node, "right")
	if right != nil {
		if err := x.extractStatement(m, right, block); err != nil {
			return err
		}
	}
	if left != nil {
		x.appendAccess(m, left, block, action.KindDefinition)
	}
	return nil
}

func (x *javaExtractor) extractUpdate(m *javaMethod, node *sitter.Node, block *graph.Node) error {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		// i++ both reads and writes its operand.
		x.appendAccess(m, child, block, action.KindUsage)
		x.appendAccess(m, child, block, action.KindDefinition)
	}
	return nil
}

// appendAccess turns an identifier or field-access expression into a root
// action on the block, with any trailing field path recorded in the action's
// object tree. Unsupported expression shapes (array access, casts, call
// results) fall back to extracting the identifiers they use.
func (x *javaExtractor) appendAccess(m *javaMethod, node *sitter.Node, block *graph.Node, kind action.Kind) {
	rootName, path, expr, ok := x.accessChain(m, node)
	if !ok {
		x.extractIdentifierUses(m, node, block)
		return
	}

	var a *action.Action
	switch kind {
	case action.KindDefinition:
		a = action.NewDefinition(expr, rootName, block.ID, nil)
	default:
		a = action.NewUsage(expr, rootName, block.ID)
	}
	if path != "" {
		a.AddObjectField(path)
	}
	block.AppendAction(a)
}

// accessChain decomposes an identifier, `this` or field-access chain into its
// root name, the dotted path below the root, and the root expression. Chains
// rooted at anything else are not plain variable accesses.
func (x *javaExtractor) accessChain(m *javaMethod, node *sitter.Node) (root, path string, expr *ir.Expr, ok bool) {
	switch node.Type() {
	case "identifier":
		name := nodeText(node, m.content)
		if isJavaKeyword(name) {
			return "", "", nil, false
		}
		return name, "", &ir.Expr{Text: name, Decl: x.resolve(m, name)}, true
	case "this":
		return "this", "", x.thisExpr(m), true
	case "field_access":
		object := childByField(node, "object")
		fieldNode := childByField(node, "field")
		if object == nil || fieldNode == nil {
			return "", "", nil, false
		}
		field := nodeText(fieldNode, m.content)
		r, p, e, chainOK := x.accessChain(m, object)
		if !chainOK {
			return "", "", nil, false
		}
		if p != "" {
			return r, p + "." + field, e, true
		}
		return r, field, e, true
	default:
		return "", "", nil, false
	}
}

// resolve binds a simple name against the method's locals, then parameters,
// then the class fields. An unmatched name stays unresolved.
func (x *javaExtractor) resolve(m *javaMethod, name string) *ir.ValueDecl {
	if d, ok := m.locals[name]; ok {
		return d
	}
	if d, ok := m.params[name]; ok {
		return d
	}
	if d, ok := m.class.fields[name]; ok {
		return d
	}
	return nil
}

// thisExpr resolves `this` to an invented field declaration of the enclosing
// class type, matching how the analysis classifies the current object.
func (x *javaExtractor) thisExpr(m *javaMethod) *ir.Expr {
	return &ir.Expr{
		Text: "this",
		Decl: &ir.ValueDecl{Name: "this", Kind: ir.ValueField, Type: javaTypeRef(m.class.name)},
	}
}

func (x *javaExtractor) extractIdentifierUses(m *javaMethod, node *sitter.Node, block *graph.Node) {
	if node == nil {
		return
	}
	if node.Type() == "identifier" {
		name := nodeText(node, m.content)
		if !isJavaKeyword(name) {
			block.AppendAction(action.NewUsage(&ir.Expr{Text: name, Decl: x.resolve(m, name)}, name, block.ID))
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		x.extractIdentifierUses(m, node.Child(i), block)
	}
}

// extractCall handles a method invocation: the receiver and arguments are
// extracted as ordinary accesses, then a marker pair brackets the call and an
// edge is added when the callee is one of the indexed callables.
func (x *javaExtractor) extractCall(m *javaMethod, node *sitter.Node, block *graph.Node) error {
	nameNode := childByField(node, "name")
	if nameNode == nil {
		return nil
	}
	calleeName := nodeText(nameNode, m.content)

	object := childByField(node, "object")
	var receiver *ir.Expr
	if object != nil {
		if err := x.extractStatement(m, object, block); err != nil {
			return err
		}
		receiver = x.exprOf(m, object)
	}

	argsNode := childByField(node, "arguments")
	var args []*ir.Expr
	if argsNode != nil {
		for i := 0; i < int(argsNode.ChildCount()); i++ {
			arg := argsNode.Child(i)
			if arg == nil || !arg.IsNamed() {
				continue
			}
			if err := x.extractStatement(m, arg, block); err != nil {
				return err
			}
			args = append(args, x.exprOf(m, arg))
		}
	}

	callee := x.resolveCallee(calleeName, len(args))
	if callee == nil {
		return nil // call into code outside the analyzed program
	}

	ce := &ir.CallExpr{
		Kind:          ir.CallOrdinary,
		Callee:        callee.callable.Signature,
		Receiver:      receiver,
		Args:          args,
		EnclosingType: m.class.name,
	}
	block.AppendAction(action.NewCallMarker(ce, block.ID, true))
	block.AppendAction(action.NewCallMarker(ce, block.ID, false))
	_, err := x.prog.CallGraph.AddEdge(m.callable, callee.callable, ce, block.ID)
	return err
}

// extractForwardingCall handles this(...)/super(...) constructor forwarding.
// Only a this(...) call can be resolved within the analyzed program; the
// target is the same class's constructor of matching arity.
func (x *javaExtractor) extractForwardingCall(m *javaMethod, node *sitter.Node, block *graph.Node) error {
	argsNode := findChildByType(node, "argument_list")
	var args []*ir.Expr
	if argsNode != nil {
		for i := 0; i < int(argsNode.ChildCount()); i++ {
			arg := argsNode.Child(i)
			if arg == nil || !arg.IsNamed() {
				continue
			}
			if err := x.extractStatement(m, arg, block); err != nil {
				return err
			}
			args = append(args, x.exprOf(m, arg))
		}
	}

	if findChildByType(node, "this") == nil {
		return nil // super(...) targets an unindexed supertype constructor
	}
	callee := x.resolveConstructor(m.class, len(args))
	if callee == nil || callee == m {
		return nil
	}

	ce := &ir.CallExpr{
		Kind:          ir.CallForwardingConstructor,
		Callee:        callee.callable.Signature,
		Args:          args,
		EnclosingType: m.class.name,
	}
	block.AppendAction(action.NewCallMarker(ce, block.ID, true))
	block.AppendAction(action.NewCallMarker(ce, block.ID, false))
	_, err := x.prog.CallGraph.AddEdge(m.callable, callee.callable, ce, block.ID)
	return err
}

// exprOf builds the ir expression for a receiver or argument: plain accesses
// resolve and keep their base chain, anything else is carried as bare text.
func (x *javaExtractor) exprOf(m *javaMethod, node *sitter.Node) *ir.Expr {
	root, path, rootExpr, ok := x.accessChain(m, node)
	if !ok {
		return &ir.Expr{Text: nodeText(node, m.content)}
	}
	if path == "" {
		return rootExpr
	}
	return &ir.Expr{Text: root + "." + path, Base: rootExpr}
}

// resolveCallee matches a call by simple name and arity. Full overload
// resolution needs type information the front end does not keep.
func (x *javaExtractor) resolveCallee(name string, arity int) *javaMethod {
	for _, m := range x.bySimpleName[name] {
		if len(m.callable.Params) == arity {
			return m
		}
	}
	return nil
}

func (x *javaExtractor) resolveConstructor(class *javaClass, arity int) *javaMethod {
	simple := class.name
	if i := strings.LastIndex(simple, "."); i >= 0 {
		simple = simple[i+1:]
	}
	for _, m := range x.bySimpleName[simple] {
		if m.class == class && len(m.callable.Params) == arity {
			return m
		}
	}
	return nil
}

func findChildByType(node *sitter.Node, childType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == childType {
			return child
		}
	}
	return nil
}

func childByField(node *sitter.Node, field string) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName(field)
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= uint32(len(content)) || end > uint32(len(content)) {
		return ""
	}
	return string(content[start:end])
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// fieldTypeName returns the declared type of a field or local declaration.
func fieldTypeName(node *sitter.Node, content []byte) string {
	if t := childByField(node, "type"); t != nil {
		return nodeText(t, content)
	}
	return ""
}

func parameterNameAndType(node *sitter.Node, content []byte) (string, string) {
	typeName := ""
	if t := childByField(node, "type"); t != nil {
		typeName = nodeText(t, content)
	}
	if n := childByField(node, "name"); n != nil {
		return nodeText(n, content), typeName
	}
	if id := findChildByType(node, "identifier"); id != nil {
		return nodeText(id, content), typeName
	}
	return "", typeName
}

var javaPrimitives = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true,
}

func javaTypeRef(name string) ir.TypeRef {
	return ir.TypeRef{Name: name, Primitive: javaPrimitives[name]}
}

func isJavaKeyword(name string) bool {
	keywords := map[string]bool{
		"abstract": true, "assert": true, "boolean": true, "break": true,
		"byte": true, "case": true, "catch": true, "char": true,
		"class": true, "const": true, "continue": true, "default": true,
		"do": true, "double": true, "else": true, "enum": true,
		"extends": true, "final": true, "finally": true, "float": true,
		"for": true, "goto": true, "if": true, "implements": true,
		"import": true, "instanceof": true, "int": true, "interface": true,
		"long": true, "native": true, "new": true, "package": true,
		"private": true, "protected": true, "public": true, "return": true,
		"short": true, "static": true, "strictfp": true, "super": true,
		"switch": true, "synchronized": true, "this": true, "throw": true,
		"throws": true, "transient": true, "try": true, "void": true,
		"volatile": true, "while": true,
		"true": true, "false": true, "null": true,
	}
	return keywords[name]
}
