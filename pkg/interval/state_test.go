package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-abstract-interp/pkg/domain"
	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

func TestStateLatticeLaws(t *testing.T) {
	a := NewState().With("x", Interval{Lower: 0, Upper: 5})
	b := NewState().With("x", Interval{Lower: 3, Upper: 10})
	c := NewState().With("x", Interval{Lower: -1, Upper: 20})

	t.Run("join identity", func(t *testing.T) {
		assert.True(t, a.Join(a.Bottom()).LessEqual(a))
		assert.True(t, a.LessEqual(a.Join(a.Bottom())))
	})

	t.Run("join idempotence", func(t *testing.T) {
		assert.True(t, a.Join(a).LessEqual(a))
		assert.True(t, a.LessEqual(a.Join(a)))
	})

	t.Run("join commutativity", func(t *testing.T) {
		ab := a.Join(b)
		ba := b.Join(a)
		assert.True(t, ab.LessEqual(ba))
		assert.True(t, ba.LessEqual(ab))
	})

	t.Run("join is upper bound", func(t *testing.T) {
		ab := a.Join(b)
		assert.True(t, a.LessEqual(ab))
		assert.True(t, b.LessEqual(ab))
	})

	t.Run("join monotone", func(t *testing.T) {
		// a <= c, so a.Join(b) <= c.Join(b).
		require.True(t, a.LessEqual(c))
		assert.True(t, a.Join(b).LessEqual(c.Join(b)))
	})

	t.Run("widening soundness", func(t *testing.T) {
		w := a.Widening(b)
		assert.True(t, b.LessEqual(w))
		assert.True(t, a.LessEqual(w))
	})
}

func TestStateJoinDropsDisagreeingVars(t *testing.T) {
	a := NewState().With("x", Single(1)).With("y", Single(2))
	b := NewState().With("x", Single(3))

	joined := asState(a.Join(b))
	assert.Equal(t, Interval{Lower: 1, Upper: 3}, joined.Interval("x"))
	assert.True(t, joined.Interval("y").IsTop(), "y is unconstrained in one operand")
}

func TestStateBottom(t *testing.T) {
	a := NewState().With("x", Single(1))
	bot := NewBottom()

	assert.True(t, bot.LessEqual(a))
	assert.False(t, a.LessEqual(bot))
	assert.True(t, a.Join(bot).LessEqual(a))
	assert.True(t, asState(bot.Join(bot)).IsBottom())
	assert.Equal(t, "bottom", bot.String())
}

func TestStateWithEmptyIsBottom(t *testing.T) {
	s := NewState().With("x", Interval{Lower: 3, Upper: 1})
	assert.True(t, s.IsBottom())
}

func TestAssume(t *testing.T) {
	tests := []struct {
		name string
		cond string
		vars map[string]Interval
		want string
	}{
		{"lower bound", "x > 0", nil, "{x: [1, inf]}"},
		{"upper bound", "x <= 0", nil, "{x: [-inf, 0]}"},
		{"equality", "x == 5", nil, "{x: [5, 5]}"},
		{"through subtraction", "x - 1 <= 4", nil, "{x: [-inf, 5]}"},
		{"no refinement", "x != 3", nil, "top"},
		{"contradiction", "x < 0", map[string]Interval{"x": {Lower: 1, Upper: 9}}, "bottom"},
		{"tighten existing", "x >= 3", map[string]Interval{"x": {Lower: 1, Upper: 9}}, "{x: [3, 9]}"},
		{"two variables", "x < y", map[string]Interval{"y": {Lower: 0, Upper: 10}}, "{x: [-inf, 9], y: [0, 10]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := lang.ParseCondition(tt.cond)
			require.NoError(t, err)

			s := NewState()
			for name, iv := range tt.vars {
				s = s.With(name, iv)
			}
			assert.Equal(t, tt.want, s.assume(cond).String())
		})
	}
}

func TestFilterAppliesPendingCondition(t *testing.T) {
	cond, err := lang.ParseCondition("x > 0")
	require.NoError(t, err)

	var sem Semantics
	staged := sem.Semantics(cond, NewState())
	filtered := staged.Filter()
	assert.Equal(t, "{x: [1, inf]}", filtered.(*State).String())

	// Filter without a staged condition is identity.
	plain := NewState().With("x", Single(2))
	assert.Equal(t, plain.String(), plain.Filter().(*State).String())
}

func TestBackwardAssign(t *testing.T) {
	var sem Semantics

	t.Run("inverts subtraction", func(t *testing.T) {
		// x := x - 1 with x in [4, 4] after requires x in [5, 5] before.
		post := NewState().With("x", Single(4))
		stmt := lang.Assign{Target: "x", Value: lang.Binary{Op: lang.OpSub, X: lang.Var{Name: "x"}, Y: lang.Lit{Value: 1}}}
		pre := sem.Semantics(stmt, post).(*State)
		assert.Equal(t, "{x: [5, 5]}", pre.String())
	})

	t.Run("constant consistent", func(t *testing.T) {
		// x := 5 with x in [5, 5] after holds for any pre-state.
		post := NewState().With("x", Single(5))
		stmt := lang.Assign{Target: "x", Value: lang.Lit{Value: 5}}
		pre := sem.Semantics(stmt, post).(*State)
		assert.Equal(t, "top", pre.String())
	})

	t.Run("constant contradiction", func(t *testing.T) {
		// x := 5 can never land in x = 7.
		post := NewState().With("x", Single(7))
		stmt := lang.Assign{Target: "x", Value: lang.Lit{Value: 5}}
		pre := sem.Semantics(stmt, post).(*State)
		assert.True(t, pre.IsBottom())
	})

	t.Run("unconstrained post stays unconstrained", func(t *testing.T) {
		stmt := lang.Assign{Target: "x", Value: lang.Binary{Op: lang.OpSub, X: lang.Var{Name: "x"}, Y: lang.Lit{Value: 1}}}
		pre := sem.Semantics(stmt, NewState()).(*State)
		assert.Equal(t, "top", pre.String())
	})

	t.Run("scaling by a constant", func(t *testing.T) {
		// x := 2 * x with x in [4, 9] after requires x in [2, 4] before.
		post := NewState().With("x", Interval{Lower: 4, Upper: 9})
		stmt := lang.Assign{Target: "x", Value: lang.Binary{Op: lang.OpMul, X: lang.Lit{Value: 2}, Y: lang.Var{Name: "x"}}}
		pre := sem.Semantics(stmt, post).(*State)
		assert.Equal(t, "{x: [2, 4]}", pre.String())
	})
}

func TestOpaqueHavoc(t *testing.T) {
	var sem Semantics
	post := NewState().With("x", Single(1)).With("y", Single(2))

	targeted := sem.Semantics(lang.Opaque{Text: "x = input()", Targets: []string{"x"}}, post).(*State)
	assert.True(t, targeted.Interval("x").IsTop())
	assert.Equal(t, Single(2), targeted.Interval("y"))

	unknown := sem.Semantics(lang.Opaque{Text: "exec(code)"}, post).(*State)
	assert.Equal(t, "top", unknown.String())
}

func TestScopeOpsAreIdentity(t *testing.T) {
	s := NewState().With("x", Single(3))
	for name, op := range map[string]func() domain.State{
		"EnterIf":   s.EnterIf,
		"ExitIf":    s.ExitIf,
		"EnterLoop": s.EnterLoop,
		"ExitLoop":  s.ExitLoop,
	} {
		t.Run(name, func(t *testing.T) {
			out := op().(*State)
			assert.Equal(t, s.String(), out.String())
			assert.NotSame(t, s, out, "scope ops must return fresh values")
		})
	}
}
