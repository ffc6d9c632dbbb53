// Package interval implements a non-relational interval domain and its
// backward semantics for the analysis engine. Each variable is bound to a
// closed interval with bounds in the extended reals; an unbound variable is
// unconstrained.
package interval

import (
	"fmt"
	"math"
)

// Interval is a range of values [Lower, Upper] with ±Inf as open bounds.
// An interval with Lower > Upper is empty.
type Interval struct {
	Lower, Upper float64
}

// Top returns the unconstrained interval.
func Top() Interval {
	return Interval{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// Single returns the interval containing exactly v.
func Single(v int64) Interval {
	return Interval{Lower: float64(v), Upper: float64(v)}
}

// Empty reports whether the interval contains no value.
func (iv Interval) Empty() bool {
	return iv.Lower > iv.Upper
}

// IsTop reports whether the interval is unconstrained.
func (iv Interval) IsTop() bool {
	return math.IsInf(iv.Lower, -1) && math.IsInf(iv.Upper, 1)
}

// Contains reports whether other lies entirely within the interval.
func (iv Interval) Contains(other Interval) bool {
	if other.Empty() {
		return true
	}
	return iv.Lower <= other.Lower && other.Upper <= iv.Upper
}

// Union returns the convex hull of the two intervals.
func (iv Interval) Union(other Interval) Interval {
	if iv.Empty() {
		return other
	}
	if other.Empty() {
		return iv
	}
	return Interval{Lower: math.Min(iv.Lower, other.Lower), Upper: math.Max(iv.Upper, other.Upper)}
}

// Intersect returns the overlap of the two intervals.
func (iv Interval) Intersect(other Interval) Interval {
	return Interval{Lower: math.Max(iv.Lower, other.Lower), Upper: math.Min(iv.Upper, other.Upper)}
}

// Widen extrapolates from the receiver toward other: a bound that grew
// escapes to infinity, a stable bound is kept.
func (iv Interval) Widen(other Interval) Interval {
	if iv.Empty() {
		return other
	}
	if other.Empty() {
		return iv
	}
	out := iv
	if other.Lower < iv.Lower {
		out.Lower = math.Inf(-1)
	}
	if other.Upper > iv.Upper {
		out.Upper = math.Inf(1)
	}
	return out
}

// Add returns the sum of the two intervals.
func (iv Interval) Add(other Interval) Interval {
	if iv.Empty() || other.Empty() {
		return empty()
	}
	return Interval{Lower: iv.Lower + other.Lower, Upper: iv.Upper + other.Upper}
}

// Sub returns the difference of the two intervals.
func (iv Interval) Sub(other Interval) Interval {
	if iv.Empty() || other.Empty() {
		return empty()
	}
	return Interval{Lower: iv.Lower - other.Upper, Upper: iv.Upper - other.Lower}
}

// Neg returns the negation of the interval.
func (iv Interval) Neg() Interval {
	if iv.Empty() {
		return iv
	}
	return Interval{Lower: -iv.Upper, Upper: -iv.Lower}
}

// Mul returns the product of the two intervals.
func (iv Interval) Mul(other Interval) Interval {
	if iv.Empty() || other.Empty() {
		return empty()
	}
	candidates := [4]float64{
		mulBound(iv.Lower, other.Lower),
		mulBound(iv.Lower, other.Upper),
		mulBound(iv.Upper, other.Lower),
		mulBound(iv.Upper, other.Upper),
	}
	out := Interval{Lower: candidates[0], Upper: candidates[0]}
	for _, c := range candidates[1:] {
		out.Lower = math.Min(out.Lower, c)
		out.Upper = math.Max(out.Upper, c)
	}
	return out
}

// mulBound multiplies two bounds, resolving the 0 * ±Inf indeterminate form
// to 0 (the bound of a degenerate factor dominates).
func mulBound(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a * b
}

func empty() Interval {
	return Interval{Lower: 1, Upper: -1}
}

func (iv Interval) String() string {
	if iv.Empty() {
		return "[]"
	}
	return fmt.Sprintf("[%s, %s]", bound(iv.Lower), bound(iv.Upper))
}

func bound(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "inf"
	default:
		return fmt.Sprintf("%g", v)
	}
}
