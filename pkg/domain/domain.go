// Package domain declares the contracts an abstract domain must satisfy to
// be plugged into the analysis engine: the lattice element (State) and the
// backward transfer function (Semantics). The engine is generic over any
// conforming implementation and never special-cases a domain.
package domain

import (
	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

// State is an element of an abstract domain's lattice. Every operation is
// value-producing: implementations must never mutate their receiver or an
// argument, so a state recorded in an analysis result stays valid forever.
type State interface {
	// Bottom returns the least element of the lattice.
	Bottom() State

	// Join returns the least upper bound of the receiver and other. It must
	// be commutative, associative, and monotone.
	Join(other State) State

	// LessEqual reports whether the receiver is below other in the partial
	// order.
	LessEqual(other State) bool

	// Widening extrapolates from the receiver toward other. The result must
	// be above other, and repeated widening along any ascending chain must
	// stabilize in finitely many steps.
	Widening(other State) State

	// EnterIf and ExitIf are invoked when crossing into or out of an if
	// scope; EnterLoop and ExitLoop likewise for loop scopes.
	EnterIf() State
	ExitIf() State
	EnterLoop() State
	ExitLoop() State

	// Filter restricts the state to the subset consistent with the condition
	// whose semantics were just applied.
	Filter() State
}

// Semantics is the backward transfer function of a concrete domain. Given a
// construct and the abstract state holding after it, Semantics returns a
// sound pre-state: every concrete state that lands in post after executing
// the construct must be represented by the result.
type Semantics interface {
	Semantics(construct lang.Construct, post State) State
}
