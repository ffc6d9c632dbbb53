package interval

import (
	"github.com/l3aro/go-abstract-interp/pkg/domain"
	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

// Semantics is the backward transfer function of the interval domain.
type Semantics struct{}

// Semantics implements domain.Semantics. Statements produce the pre-state of
// the given post-state; conditions stage themselves on the state so that a
// following Filter can apply them.
func (Semantics) Semantics(construct lang.Construct, post domain.State) domain.State {
	s := asState(post)
	switch c := construct.(type) {
	case lang.Assign:
		return s.backwardAssign(c.Target, c.Value)
	case lang.Skip:
		return s.clone()
	case lang.Opaque:
		return s.havoc(c.Targets)
	case lang.Expr:
		return s.withPending(c)
	}
	return s.clone()
}

// backwardAssign inverts x := e: the assigned variable is unconstrained in
// the pre-state, and the post-interval of x becomes a constraint on the
// value of e.
func (s *State) backwardAssign(target string, value lang.Expr) *State {
	if s.bottom {
		return NewBottom()
	}
	constraint := s.Interval(target)
	return s.Without(target).refineExpr(value, constraint)
}

// havoc drops the bindings of the named variables; a nil list means the
// statement may write anything, so every binding is dropped.
func (s *State) havoc(targets []string) *State {
	if s.bottom {
		return NewBottom()
	}
	if targets == nil {
		return NewState()
	}
	out := s.clone()
	for _, name := range targets {
		delete(out.vars, name)
	}
	return out
}
