// Package frontend builds analysis-ready control-flow graphs from Python
// source using tree-sitter. Assignments and integer arithmetic are parsed
// into the statement model precisely; anything else becomes an opaque
// statement with havoc semantics, keeping the analysis sound.
package frontend

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/l3aro/go-abstract-interp/pkg/cfg"
	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

// BuildPythonCFG extracts the control-flow graph of one function in a
// Python file.
func BuildPythonCFG(filePath, functionName string) (*cfg.ControlFlowGraph, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", filePath, err)
	}
	return BuildPythonCFGSource(content, functionName)
}

// BuildPythonCFGSource extracts the control-flow graph of one function from
// Python source text.
func BuildPythonCFGSource(src []byte, functionName string) (*cfg.ControlFlowGraph, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, src)

	fn := findFunction(tree.RootNode(), src, functionName)
	if fn == nil {
		return nil, fmt.Errorf("function %q not found", functionName)
	}
	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil, fmt.Errorf("function %q has no body", functionName)
	}

	b := &builder{src: src}
	entry := &cfg.Node{ID: "in", Kind: cfg.NodeBasic}
	exit := &cfg.Node{ID: "out", Kind: cfg.NodeBasic}
	b.nodes = append(b.nodes, entry, exit)

	exits := b.processBlock(body, []exitPoint{{from: entry.ID, kind: cfg.EdgeDefault}})
	b.connect(exits, exit.ID)

	return cfg.New(b.nodes, b.edges, entry.ID, exit.ID)
}

// findFunction locates a function_definition node with the given name.
// Class bodies are not descended into; only module-level functions are
// addressable.
func findFunction(node *sitter.Node, src []byte, name string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "function_definition" {
		if id := node.ChildByFieldName("name"); id != nil && id.Content(src) == name {
			return node
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() == "class_definition" {
			continue
		}
		if found := findFunction(child, src, name); found != nil {
			return found
		}
	}
	return nil
}

// exitPoint is a dangling edge waiting for its target: the node control
// leaves from, the scope transition the edge performs, and an optional
// condition guarding it.
type exitPoint struct {
	from string
	kind cfg.EdgeKind
	cond lang.Expr
}

type builder struct {
	src   []byte
	nodes []*cfg.Node
	edges []cfg.Edge
	seq   int
}

func (b *builder) newNode(prefix string, kind cfg.NodeKind) *cfg.Node {
	b.seq++
	node := &cfg.Node{ID: fmt.Sprintf("%s_%d", prefix, b.seq), Kind: kind}
	b.nodes = append(b.nodes, node)
	return node
}

// connect materializes the dangling edges onto a target node.
func (b *builder) connect(exits []exitPoint, target string) {
	for _, e := range exits {
		b.edges = append(b.edges, cfg.Edge{
			SourceID:  e.from,
			TargetID:  target,
			Kind:      e.kind,
			Condition: e.cond,
		})
	}
}

// processBlock translates a suite of statements reached through the given
// dangling edges and returns the dangling edges leaving it.
func (b *builder) processBlock(block *sitter.Node, entries []exitPoint) []exitPoint {
	var pending []lang.Stmt

	// flush turns the accumulated simple statements into a basic node so a
	// following control statement attaches after them.
	flush := func() {
		if len(pending) == 0 {
			return
		}
		node := b.newNode("block", cfg.NodeBasic)
		node.Stmts = pending
		pending = nil
		b.connect(entries, node.ID)
		entries = []exitPoint{{from: node.ID, kind: cfg.EdgeDefault}}
	}

	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if child == nil || child.Type() == "comment" {
			continue
		}

		switch child.Type() {
		case "if_statement":
			flush()
			entries = b.processIf(child, entries)
		case "while_statement":
			flush()
			entries = b.processWhile(child, entries)
		default:
			if stmt := b.convertStmt(child); stmt != nil {
				pending = append(pending, stmt)
			}
		}
	}

	if len(pending) > 0 {
		node := b.newNode("block", cfg.NodeBasic)
		node.Stmts = pending
		b.connect(entries, node.ID)
		entries = []exitPoint{{from: node.ID, kind: cfg.EdgeDefault}}
	}
	return entries
}

// processIf lowers an if/else onto a conditional node. Branch bodies hang
// off IfIn edges and leave through IfOut edges; without an else, the branch
// around the body keeps the negated condition.
func (b *builder) processIf(node *sitter.Node, entries []exitPoint) []exitPoint {
	condNode := b.newNode("cond", cfg.NodeConditional)
	b.connect(entries, condNode.ID)

	cond, negated := b.branchConditions(node.ChildByFieldName("condition"))

	var exits []exitPoint
	if consequence := node.ChildByFieldName("consequence"); consequence != nil {
		thenExits := b.processBlock(consequence, []exitPoint{{from: condNode.ID, kind: cfg.EdgeIfIn, cond: cond}})
		exits = append(exits, leaveScope(thenExits, cfg.EdgeIfOut)...)
	}

	alternative := node.ChildByFieldName("alternative")
	switch {
	case alternative == nil:
		exits = append(exits, exitPoint{from: condNode.ID, kind: cfg.EdgeDefault, cond: negated})
	case alternative.Type() == "else_clause":
		elseBody := alternative.ChildByFieldName("body")
		elseExits := b.processBlock(elseBody, []exitPoint{{from: condNode.ID, kind: cfg.EdgeIfIn, cond: negated}})
		exits = append(exits, leaveScope(elseExits, cfg.EdgeIfOut)...)
	default:
		// elif chains lower as a nested if on the false branch.
		exits = append(exits, b.processIf(alternative, []exitPoint{{from: condNode.ID, kind: cfg.EdgeIfIn, cond: negated}})...)
	}

	// A single join node keeps nested scopes separable.
	join := b.newNode("join", cfg.NodeBasic)
	b.connect(exits, join.ID)
	return []exitPoint{{from: join.ID, kind: cfg.EdgeDefault}}
}

// processWhile lowers a while loop onto a loop header node: a LoopIn edge
// into the body, a LoopOut edge from the body back to the header, and a
// conditional exit edge guarded by the negated test.
func (b *builder) processWhile(node *sitter.Node, entries []exitPoint) []exitPoint {
	header := b.newNode("loop", cfg.NodeLoop)
	b.connect(entries, header.ID)

	cond, negated := b.branchConditions(node.ChildByFieldName("condition"))

	if body := node.ChildByFieldName("body"); body != nil {
		bodyExits := b.processBlock(body, []exitPoint{{from: header.ID, kind: cfg.EdgeLoopIn, cond: cond}})
		b.connect(leaveScope(bodyExits, cfg.EdgeLoopOut), header.ID)
	}

	return []exitPoint{{from: header.ID, kind: cfg.EdgeDefault, cond: negated}}
}

// leaveScope rewrites dangling default edges so they perform the given
// scope exit on the way out.
func leaveScope(exits []exitPoint, kind cfg.EdgeKind) []exitPoint {
	out := make([]exitPoint, len(exits))
	for i, e := range exits {
		if e.kind == cfg.EdgeDefault {
			e.kind = kind
		}
		out[i] = e
	}
	return out
}

// branchConditions converts a test expression and its negation. An
// unparseable test yields nil conditions: the edges stay unconditional,
// which over-approximates both branches.
func (b *builder) branchConditions(test *sitter.Node) (cond, negated lang.Expr) {
	if test == nil {
		return nil, nil
	}
	expr, ok := b.convertExpr(test)
	if !ok {
		return nil, nil
	}
	return expr, lang.NegateCond(expr)
}

// convertStmt translates a simple statement. Statements outside the model
// become opaque with a conservative write set; nil means the node produces
// no statement at all.
func (b *builder) convertStmt(node *sitter.Node) lang.Stmt {
	switch node.Type() {
	case "pass_statement":
		return lang.Skip{}
	case "return_statement":
		// A return writes no variable; it only ends the path.
		return lang.Opaque{Text: node.Content(b.src), Targets: []string{}}
	case "expression_statement":
		if node.NamedChildCount() == 1 {
			return b.convertExprStmt(node.NamedChild(0))
		}
	}
	return lang.Opaque{Text: node.Content(b.src)}
}

// convertExprStmt translates the expression carried by an expression
// statement, recognizing plain and augmented assignments.
func (b *builder) convertExprStmt(node *sitter.Node) lang.Stmt {
	text := node.Content(b.src)
	switch node.Type() {
	case "assignment":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || left.Type() != "identifier" || right == nil {
			return lang.Opaque{Text: text}
		}
		target := left.Content(b.src)
		value, ok := b.convertExpr(right)
		if !ok {
			return lang.Opaque{Text: text, Targets: []string{target}}
		}
		return lang.Assign{Target: target, Value: value}
	case "augmented_assignment":
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		op := node.ChildByFieldName("operator")
		if left == nil || left.Type() != "identifier" || right == nil || op == nil {
			return lang.Opaque{Text: text}
		}
		target := left.Content(b.src)
		binOp, known := augmentedOps[op.Content(b.src)]
		if !known {
			return lang.Opaque{Text: text, Targets: []string{target}}
		}
		value, ok := b.convertExpr(right)
		if !ok {
			return lang.Opaque{Text: text, Targets: []string{target}}
		}
		return lang.Assign{Target: target, Value: lang.Binary{Op: binOp, X: lang.Var{Name: target}, Y: value}}
	}
	return lang.Opaque{Text: text}
}

var augmentedOps = map[string]lang.BinOp{
	"+=": lang.OpAdd,
	"-=": lang.OpSub,
	"*=": lang.OpMul,
	"/=": lang.OpDiv,
}

var binaryOps = map[string]lang.BinOp{
	"+": lang.OpAdd,
	"-": lang.OpSub,
	"*": lang.OpMul,
	"/": lang.OpDiv,
}

var comparisonOps = map[string]lang.CmpOp{
	"==": lang.OpEq,
	"!=": lang.OpNe,
	"<":  lang.OpLt,
	"<=": lang.OpLe,
	">":  lang.OpGt,
	">=": lang.OpGe,
}

// convertExpr translates an expression into the statement model. The false
// return means the expression is outside the model and the caller must fall
// back to an opaque form.
func (b *builder) convertExpr(node *sitter.Node) (lang.Expr, bool) {
	switch node.Type() {
	case "integer":
		text := strings.ReplaceAll(node.Content(b.src), "_", "")
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, false
		}
		return lang.Lit{Value: v}, true
	case "identifier":
		return lang.Var{Name: node.Content(b.src)}, true
	case "parenthesized_expression":
		if node.NamedChildCount() != 1 {
			return nil, false
		}
		return b.convertExpr(node.NamedChild(0))
	case "unary_operator":
		arg := node.ChildByFieldName("argument")
		op := node.ChildByFieldName("operator")
		if arg == nil || op == nil {
			return nil, false
		}
		inner, ok := b.convertExpr(arg)
		if !ok {
			return nil, false
		}
		switch op.Content(b.src) {
		case "-":
			return lang.Unary{X: inner}, true
		case "+":
			return inner, true
		}
		return nil, false
	case "not_operator":
		arg := node.ChildByFieldName("argument")
		if arg == nil {
			return nil, false
		}
		inner, ok := b.convertExpr(arg)
		if !ok {
			return nil, false
		}
		return lang.Not{X: inner}, true
	case "binary_operator":
		return b.convertBinary(node, func(op string, x, y lang.Expr) (lang.Expr, bool) {
			binOp, known := binaryOps[op]
			if !known {
				return nil, false
			}
			return lang.Binary{Op: binOp, X: x, Y: y}, true
		})
	case "comparison_operator":
		// Chained comparisons (a < b < c) are outside the model.
		return b.convertComparison(node)
	}
	return nil, false
}

// convertBinary handles the left/operator/right field layout shared by
// arithmetic nodes.
func (b *builder) convertBinary(node *sitter.Node, build func(op string, x, y lang.Expr) (lang.Expr, bool)) (lang.Expr, bool) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	op := node.ChildByFieldName("operator")
	if left == nil || right == nil || op == nil {
		return nil, false
	}
	x, ok := b.convertExpr(left)
	if !ok {
		return nil, false
	}
	y, ok := b.convertExpr(right)
	if !ok {
		return nil, false
	}
	return build(op.Content(b.src), x, y)
}

// convertComparison translates a single two-operand comparison.
func (b *builder) convertComparison(node *sitter.Node) (lang.Expr, bool) {
	if node.NamedChildCount() != 2 {
		return nil, false
	}
	var opText string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		if opText != "" {
			return nil, false
		}
		opText = child.Type()
	}
	op, known := comparisonOps[opText]
	if !known {
		return nil, false
	}
	x, ok := b.convertExpr(node.NamedChild(0))
	if !ok {
		return nil, false
	}
	y, ok := b.convertExpr(node.NamedChild(1))
	if !ok {
		return nil, false
	}
	return lang.Compare{Op: op, X: x, Y: y}, true
}
