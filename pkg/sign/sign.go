// Package sign implements a sign abstract domain for the analysis engine.
// It tracks, per variable, whether a value is negative, zero, or positive.
// The lattice has finite height, so widening coincides with join.
package sign

import (
	"fmt"
	"sort"
	"strings"

	"github.com/l3aro/go-abstract-interp/pkg/domain"
	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

// Sign is an element of the sign lattice.
type Sign uint8

const (
	Bot Sign = iota
	Neg
	Zero
	Pos
	Top
)

func (s Sign) String() string {
	switch s {
	case Bot:
		return "bottom"
	case Neg:
		return "-"
	case Zero:
		return "0"
	case Pos:
		return "+"
	default:
		return "top"
	}
}

// join returns the least upper bound of two signs.
func (s Sign) join(o Sign) Sign {
	switch {
	case s == Bot:
		return o
	case o == Bot:
		return s
	case s == o:
		return s
	default:
		return Top
	}
}

// leq reports the partial order on signs.
func (s Sign) leq(o Sign) bool {
	return s == Bot || o == Top || s == o
}

// SignOf abstracts a concrete value.
func SignOf(v int64) Sign {
	switch {
	case v < 0:
		return Neg
	case v == 0:
		return Zero
	default:
		return Pos
	}
}

// neg flips the sign of an element.
func (s Sign) neg() Sign {
	switch s {
	case Neg:
		return Pos
	case Pos:
		return Neg
	default:
		return s
	}
}

// add abstracts addition.
func (s Sign) add(o Sign) Sign {
	switch {
	case s == Bot || o == Bot:
		return Bot
	case s == Zero:
		return o
	case o == Zero:
		return s
	case s == o && s != Top:
		return s
	default:
		return Top
	}
}

// mul abstracts multiplication.
func (s Sign) mul(o Sign) Sign {
	switch {
	case s == Bot || o == Bot:
		return Bot
	case s == Zero || o == Zero:
		return Zero
	case s == Top || o == Top:
		return Top
	case s == o:
		return Pos
	default:
		return Neg
	}
}

// State is a sign abstract state: a finite map from variable names to signs.
// Unbound variables are Top; bottom is explicit.
type State struct {
	vars    map[string]Sign
	bottom  bool
	pending lang.Expr
}

// NewState returns the unconstrained state.
func NewState() *State {
	return &State{vars: map[string]Sign{}}
}

// NewBottom returns the bottom state.
func NewBottom() *State {
	return &State{bottom: true}
}

// With returns a copy binding name to s. Binding Bot yields the bottom
// state; binding Top removes the entry.
func (st *State) With(name string, s Sign) *State {
	if st.bottom || s == Bot {
		return NewBottom()
	}
	out := st.clone()
	if s == Top {
		delete(out.vars, name)
	} else {
		out.vars[name] = s
	}
	return out
}

// Sign returns the sign bound to name, or Top if unbound.
func (st *State) Sign(name string) Sign {
	if s, ok := st.vars[name]; ok {
		return s
	}
	return Top
}

// IsBottom reports whether the state is the bottom element.
func (st *State) IsBottom() bool {
	return st.bottom
}

func (st *State) clone() *State {
	out := &State{vars: make(map[string]Sign, len(st.vars)), bottom: st.bottom}
	for name, s := range st.vars {
		out.vars[name] = s
	}
	return out
}

func asState(other domain.State) *State {
	s, ok := other.(*State)
	if !ok {
		panic(fmt.Sprintf("sign: foreign state %T", other))
	}
	return s
}

// Bottom implements domain.State.
func (st *State) Bottom() domain.State {
	return NewBottom()
}

// Join returns the pointwise least upper bound.
func (st *State) Join(other domain.State) domain.State {
	o := asState(other)
	if st.bottom {
		return o.clone()
	}
	if o.bottom {
		return st.clone()
	}
	out := NewState()
	for name, s := range st.vars {
		joined := s.join(o.Sign(name))
		if joined != Top {
			out.vars[name] = joined
		}
	}
	return out
}

// LessEqual reports the pointwise partial order.
func (st *State) LessEqual(other domain.State) bool {
	o := asState(other)
	if st.bottom {
		return true
	}
	if o.bottom {
		return false
	}
	for name, s := range o.vars {
		if !st.Sign(name).leq(s) {
			return false
		}
	}
	return true
}

// Widening is plain join: the lattice has finite height.
func (st *State) Widening(other domain.State) domain.State {
	return st.Join(other)
}

func (st *State) EnterIf() domain.State   { return st.clone() }
func (st *State) ExitIf() domain.State    { return st.clone() }
func (st *State) EnterLoop() domain.State { return st.clone() }
func (st *State) ExitLoop() domain.State  { return st.clone() }

// Filter applies the condition staged by the last Semantics call.
func (st *State) Filter() domain.State {
	if st.pending == nil {
		return st.clone()
	}
	return st.assume(st.pending)
}

func (st *State) withPending(cond lang.Expr) *State {
	out := st.clone()
	out.pending = cond
	return out
}

// assume refines the state under a comparison of a variable against zero or
// a literal; anything richer refines nothing.
func (st *State) assume(cond lang.Expr) *State {
	if st.bottom {
		return NewBottom()
	}
	c, ok := cond.(lang.Compare)
	if !ok {
		if n, isNot := cond.(lang.Not); isNot {
			if cmp, isCmp := n.X.(lang.Compare); isCmp {
				return st.assume(lang.Compare{Op: cmp.Op.Negate(), X: cmp.X, Y: cmp.Y})
			}
		}
		return st.clone()
	}

	v, okVar := c.X.(lang.Var)
	lit, okLit := c.Y.(lang.Lit)
	if !okVar || !okLit {
		return st.clone()
	}

	refined := refineAgainst(c.Op, lit.Value)
	if refined == Top {
		return st.clone()
	}
	met := st.Sign(v.Name).meet(refined)
	return st.With(v.Name, met)
}

// refineAgainst returns the sign a variable must have for "v op lit" to
// hold, or Top when the comparison does not pin one down.
func refineAgainst(op lang.CmpOp, lit int64) Sign {
	switch op {
	case lang.OpEq:
		return SignOf(lit)
	case lang.OpLt:
		if lit <= 0 {
			return Neg
		}
	case lang.OpLe:
		if lit < 0 {
			return Neg
		}
	case lang.OpGt:
		if lit >= 0 {
			return Pos
		}
	case lang.OpGe:
		if lit > 0 {
			return Pos
		}
	}
	return Top
}

// meet is the greatest lower bound of two signs.
func (s Sign) meet(o Sign) Sign {
	switch {
	case s == Top:
		return o
	case o == Top:
		return s
	case s == o:
		return s
	default:
		return Bot
	}
}

// eval abstracts an expression's value in the state.
func (st *State) eval(e lang.Expr) Sign {
	switch x := e.(type) {
	case lang.Lit:
		return SignOf(x.Value)
	case lang.Var:
		return st.Sign(x.Name)
	case lang.Unary:
		return st.eval(x.X).neg()
	case lang.Binary:
		left := st.eval(x.X)
		right := st.eval(x.Y)
		switch x.Op {
		case lang.OpAdd:
			return left.add(right)
		case lang.OpSub:
			return left.add(right.neg())
		case lang.OpMul:
			return left.mul(right)
		case lang.OpDiv:
			return Top
		}
	}
	return Top
}

// String renders the state with variables in sorted order.
func (st *State) String() string {
	if st.bottom {
		return "bottom"
	}
	if len(st.vars) == 0 {
		return "top"
	}
	names := make([]string, 0, len(st.vars))
	for name := range st.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, st.vars[name]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Semantics is the backward transfer function of the sign domain.
type Semantics struct{}

// Semantics implements domain.Semantics.
func (Semantics) Semantics(construct lang.Construct, post domain.State) domain.State {
	st := asState(post)
	switch c := construct.(type) {
	case lang.Assign:
		return st.backwardAssign(c.Target, c.Value)
	case lang.Skip:
		return st.clone()
	case lang.Opaque:
		return st.havoc(c.Targets)
	case lang.Expr:
		return st.withPending(c)
	}
	return st.clone()
}

// backwardAssign inverts x := e. The assigned variable is unconstrained
// before the statement; when e is a plain variable or its negation, the
// post-sign of x flows back into it.
func (st *State) backwardAssign(target string, value lang.Expr) *State {
	if st.bottom {
		return NewBottom()
	}
	constraint := st.Sign(target)
	out := st.clone()
	delete(out.vars, target)
	if out.eval(value).meet(constraint) == Bot {
		return NewBottom()
	}
	return out.refineExpr(value, constraint)
}

// refineExpr constrains e to evaluate to a value of the given sign where
// that is expressible.
func (st *State) refineExpr(e lang.Expr, target Sign) *State {
	if target == Top {
		return st.clone()
	}
	switch x := e.(type) {
	case lang.Lit:
		if SignOf(x.Value).meet(target) == Bot {
			return NewBottom()
		}
		return st.clone()
	case lang.Var:
		return st.With(x.Name, st.Sign(x.Name).meet(target))
	case lang.Unary:
		return st.refineExpr(x.X, target.neg())
	default:
		return st.clone()
	}
}

func (st *State) havoc(targets []string) *State {
	if st.bottom {
		return NewBottom()
	}
	if targets == nil {
		return NewState()
	}
	out := st.clone()
	for _, name := range targets {
		delete(out.vars, name)
	}
	return out
}
