// Package lang defines the statement and expression model shared by CFG
// basic blocks, conditional edges, and abstract-domain transfer functions.
// The analysis engine never inspects these values itself; it only hands them
// to a domain's semantics.
package lang

import (
	"fmt"
	"strings"
)

// Construct is anything a backward transfer function can be applied to:
// a statement from a basic block or a condition attached to an edge.
type Construct interface {
	fmt.Stringer
	construct()
}

// Expr is an expression construct.
type Expr interface {
	Construct
	expr()
}

// Stmt is a statement construct.
type Stmt interface {
	Construct
	stmt()
}

// BinOp is an arithmetic operator.
type BinOp string

const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
)

// CmpOp is a comparison operator.
type CmpOp string

const (
	OpEq CmpOp = "=="
	OpNe CmpOp = "!="
	OpLt CmpOp = "<"
	OpLe CmpOp = "<="
	OpGt CmpOp = ">"
	OpGe CmpOp = ">="
)

// Negate returns the comparison with the opposite truth value.
func (op CmpOp) Negate() CmpOp {
	switch op {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	}
	return op
}

// Lit is an integer literal.
type Lit struct {
	Value int64
}

// Var is a variable reference.
type Var struct {
	Name string
}

// Unary is a unary negation.
type Unary struct {
	X Expr
}

// Binary is an arithmetic expression.
type Binary struct {
	Op   BinOp
	X, Y Expr
}

// Compare is a comparison expression, usable as an edge condition.
type Compare struct {
	Op   CmpOp
	X, Y Expr
}

// Not is a logical negation of a condition. It appears when a branch or loop
// condition cannot be expressed as a flipped comparison.
type Not struct {
	X Expr
}

// Assign assigns the value of an expression to a variable.
type Assign struct {
	Target string
	Value  Expr
}

// Skip is a statement with no effect.
type Skip struct{}

// Opaque is a statement the frontend could not translate. Targets lists the
// variables it may write; a nil Targets means any variable may be written.
type Opaque struct {
	Text    string
	Targets []string
}

func (Lit) construct()     {}
func (Var) construct()     {}
func (Unary) construct()   {}
func (Binary) construct()  {}
func (Compare) construct() {}
func (Not) construct()     {}
func (Assign) construct()  {}
func (Skip) construct()    {}
func (Opaque) construct()  {}

func (Lit) expr()     {}
func (Var) expr()     {}
func (Unary) expr()   {}
func (Binary) expr()  {}
func (Compare) expr() {}
func (Not) expr()     {}

func (Assign) stmt() {}
func (Skip) stmt()   {}
func (Opaque) stmt() {}

func (e Lit) String() string {
	return fmt.Sprintf("%d", e.Value)
}

func (e Var) String() string {
	return e.Name
}

func (e Unary) String() string {
	return "-" + parenthesize(e.X)
}

func (e Binary) String() string {
	return fmt.Sprintf("%s %s %s", parenthesize(e.X), e.Op, parenthesize(e.Y))
}

func (e Compare) String() string {
	return fmt.Sprintf("%s %s %s", parenthesize(e.X), e.Op, parenthesize(e.Y))
}

func (e Not) String() string {
	return fmt.Sprintf("not (%s)", e.X)
}

func (s Assign) String() string {
	return fmt.Sprintf("%s := %s", s.Target, s.Value)
}

func (Skip) String() string {
	return "skip"
}

func (s Opaque) String() string {
	return strings.TrimSpace(s.Text)
}

// NegateCond returns a condition equivalent to the logical negation of cond.
// Comparisons flip their operator; double negations cancel; anything else is
// wrapped in Not.
func NegateCond(cond Expr) Expr {
	switch c := cond.(type) {
	case Compare:
		return Compare{Op: c.Op.Negate(), X: c.X, Y: c.Y}
	case Not:
		return c.X
	default:
		return Not{X: cond}
	}
}

// parenthesize renders nested composite expressions with grouping parens.
func parenthesize(e Expr) string {
	switch e.(type) {
	case Binary, Compare:
		return "(" + e.String() + ")"
	default:
		return e.String()
	}
}
