package interval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/l3aro/go-abstract-interp/pkg/domain"
	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

// State is an interval abstract state: a finite map from variable names to
// non-trivial intervals. A variable without a binding is unconstrained. The
// zero map is the top element; bottom is an explicit flag. All operations
// return fresh values.
type State struct {
	vars    map[string]Interval
	bottom  bool
	pending lang.Expr // condition staged by Semantics, applied by Filter
}

// NewState returns the unconstrained state.
func NewState() *State {
	return &State{vars: map[string]Interval{}}
}

// NewBottom returns the bottom state.
func NewBottom() *State {
	return &State{bottom: true}
}

// With returns a copy of the state binding name to iv. Binding an empty
// interval yields bottom; binding top removes the entry.
func (s *State) With(name string, iv Interval) *State {
	if s.bottom {
		return NewBottom()
	}
	if iv.Empty() {
		return NewBottom()
	}
	out := s.clone()
	if iv.IsTop() {
		delete(out.vars, name)
	} else {
		out.vars[name] = iv
	}
	return out
}

// Without returns a copy of the state with name unconstrained.
func (s *State) Without(name string) *State {
	if s.bottom {
		return NewBottom()
	}
	out := s.clone()
	delete(out.vars, name)
	return out
}

// Interval returns the interval bound to name, or top if unbound.
func (s *State) Interval(name string) Interval {
	if iv, ok := s.vars[name]; ok {
		return iv
	}
	return Top()
}

// IsBottom reports whether the state is the bottom element.
func (s *State) IsBottom() bool {
	return s.bottom
}

// clone copies the state without its pending condition.
func (s *State) clone() *State {
	out := &State{vars: make(map[string]Interval, len(s.vars)), bottom: s.bottom}
	for name, iv := range s.vars {
		out.vars[name] = iv
	}
	return out
}

// asState asserts that other was produced by this domain. Mixing domains in
// one run violates the engine's domain contract.
func asState(other domain.State) *State {
	s, ok := other.(*State)
	if !ok {
		panic(fmt.Sprintf("interval: foreign state %T", other))
	}
	return s
}

// Bottom implements domain.State.
func (s *State) Bottom() domain.State {
	return NewBottom()
}

// Join returns the pointwise convex hull of the two states.
func (s *State) Join(other domain.State) domain.State {
	o := asState(other)
	if s.bottom {
		return o.clone()
	}
	if o.bottom {
		return s.clone()
	}
	out := NewState()
	for name, iv := range s.vars {
		joined := iv.Union(o.Interval(name))
		if !joined.IsTop() {
			out.vars[name] = joined
		}
	}
	return out
}

// LessEqual reports pointwise interval inclusion.
func (s *State) LessEqual(other domain.State) bool {
	o := asState(other)
	if s.bottom {
		return true
	}
	if o.bottom {
		return false
	}
	for name, iv := range o.vars {
		if !iv.Contains(s.Interval(name)) {
			return false
		}
	}
	return true
}

// Widening extrapolates growing bounds to infinity, pointwise.
func (s *State) Widening(other domain.State) domain.State {
	o := asState(other)
	if s.bottom {
		return o.clone()
	}
	if o.bottom {
		return s.clone()
	}
	out := NewState()
	for name, iv := range s.vars {
		widened := iv.Widen(o.Interval(name))
		if !widened.IsTop() {
			out.vars[name] = widened
		}
	}
	return out
}

// The interval domain keeps no per-scope bookkeeping, so the scope
// transitions are identity up to copying.

func (s *State) EnterIf() domain.State   { return s.clone() }
func (s *State) ExitIf() domain.State    { return s.clone() }
func (s *State) EnterLoop() domain.State { return s.clone() }
func (s *State) ExitLoop() domain.State  { return s.clone() }

// Filter applies the condition staged by the last Semantics call, if any.
func (s *State) Filter() domain.State {
	if s.pending == nil {
		return s.clone()
	}
	return s.assume(s.pending)
}

// withPending returns a copy of the state carrying cond for Filter.
func (s *State) withPending(cond lang.Expr) *State {
	out := s.clone()
	out.pending = cond
	return out
}

// assume restricts the state to the subset where cond holds. Values are
// integral, so strict bounds tighten by one.
func (s *State) assume(cond lang.Expr) *State {
	if s.bottom {
		return NewBottom()
	}
	switch c := cond.(type) {
	case lang.Compare:
		x := s.eval(c.X)
		y := s.eval(c.Y)
		targetX, targetY, refines := compareTargets(c.Op, x, y)
		if !refines {
			return s.clone()
		}
		out := s.refineExpr(c.X, targetX)
		if out.bottom {
			return out
		}
		return out.refineExpr(c.Y, targetY)
	case lang.Not:
		if cmp, ok := c.X.(lang.Compare); ok {
			return s.assume(lang.Compare{Op: cmp.Op.Negate(), X: cmp.X, Y: cmp.Y})
		}
		return s.clone()
	default:
		return s.clone()
	}
}

// compareTargets returns the intervals each operand must lie in for the
// comparison to hold, given the operands' current intervals.
func compareTargets(op lang.CmpOp, x, y Interval) (targetX, targetY Interval, refines bool) {
	inf := math.Inf(1)
	switch op {
	case lang.OpEq:
		both := x.Intersect(y)
		return both, both, true
	case lang.OpNe:
		return Top(), Top(), false
	case lang.OpLt:
		return Interval{Lower: -inf, Upper: y.Upper - 1}, Interval{Lower: x.Lower + 1, Upper: inf}, true
	case lang.OpLe:
		return Interval{Lower: -inf, Upper: y.Upper}, Interval{Lower: x.Lower, Upper: inf}, true
	case lang.OpGt:
		return Interval{Lower: y.Lower + 1, Upper: inf}, Interval{Lower: -inf, Upper: x.Upper - 1}, true
	case lang.OpGe:
		return Interval{Lower: y.Lower, Upper: inf}, Interval{Lower: -inf, Upper: x.Upper}, true
	}
	return Top(), Top(), false
}

// eval computes the forward interval value of an expression in the state.
func (s *State) eval(e lang.Expr) Interval {
	switch x := e.(type) {
	case lang.Lit:
		return Single(x.Value)
	case lang.Var:
		return s.Interval(x.Name)
	case lang.Unary:
		return s.eval(x.X).Neg()
	case lang.Binary:
		left := s.eval(x.X)
		right := s.eval(x.Y)
		switch x.Op {
		case lang.OpAdd:
			return left.Add(right)
		case lang.OpSub:
			return left.Sub(right)
		case lang.OpMul:
			return left.Mul(right)
		case lang.OpDiv:
			return Top()
		}
	}
	return Top()
}

// refineExpr restricts the state so that e evaluates inside target,
// propagating the constraint down to the variables e mentions. A constraint
// that cannot be met yields bottom; one that cannot be expressed refines
// nothing.
func (s *State) refineExpr(e lang.Expr, target Interval) *State {
	if s.bottom {
		return NewBottom()
	}
	if target.Empty() {
		return NewBottom()
	}
	if target.IsTop() {
		return s.clone()
	}

	switch x := e.(type) {
	case lang.Lit:
		if target.Intersect(Single(x.Value)).Empty() {
			return NewBottom()
		}
		return s.clone()
	case lang.Var:
		return s.With(x.Name, s.Interval(x.Name).Intersect(target))
	case lang.Unary:
		return s.refineExpr(x.X, target.Neg())
	case lang.Binary:
		left := s.eval(x.X)
		right := s.eval(x.Y)
		switch x.Op {
		case lang.OpAdd:
			out := s.refineExpr(x.X, target.Sub(right))
			if out.bottom {
				return out
			}
			return out.refineExpr(x.Y, target.Sub(left))
		case lang.OpSub:
			out := s.refineExpr(x.X, target.Add(right))
			if out.bottom {
				return out
			}
			return out.refineExpr(x.Y, left.Sub(target))
		case lang.OpMul:
			if c, ok := x.Y.(lang.Lit); ok && c.Value != 0 {
				return s.refineExpr(x.X, divConst(target, c.Value))
			}
			if c, ok := x.X.(lang.Lit); ok && c.Value != 0 {
				return s.refineExpr(x.Y, divConst(target, c.Value))
			}
			return s.clone()
		}
	}
	return s.clone()
}

// divConst inverts multiplication by a non-zero integer constant, keeping
// the integral solutions of v*c in target.
func divConst(target Interval, c int64) Interval {
	if target.Empty() {
		return target
	}
	lo := target.Lower / float64(c)
	hi := target.Upper / float64(c)
	if c < 0 {
		lo, hi = hi, lo
	}
	return Interval{Lower: ceilBound(lo), Upper: floorBound(hi)}
}

func ceilBound(v float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return math.Ceil(v)
}

func floorBound(v float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return math.Floor(v)
}

// String renders the state with variables in sorted order.
func (s *State) String() string {
	if s.bottom {
		return "bottom"
	}
	if len(s.vars) == 0 {
		return "top"
	}
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, s.vars[name]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
