package frontend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-abstract-interp/pkg/cfg"
	"github.com/l3aro/go-abstract-interp/pkg/engine"
	"github.com/l3aro/go-abstract-interp/pkg/interval"
	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

const countdownSource = `
def countdown(n):
    x = 5
    while x > 0:
        x = x - 1
    return x
`

func TestBuildStraightLine(t *testing.T) {
	src := []byte(`
def f():
    x = 5
    y = x - 1
`)
	graph, err := BuildPythonCFGSource(src, "f")
	require.NoError(t, err)

	assert.Equal(t, "in", graph.InNode().ID)
	assert.Equal(t, "out", graph.OutNode().ID)

	var block *cfg.Node
	for _, node := range graph.Nodes() {
		if len(node.Stmts) > 0 {
			require.Nil(t, block, "expected a single statement block")
			block = node
		}
	}
	require.NotNil(t, block)
	require.Len(t, block.Stmts, 2)
	assert.Equal(t, "x := 5", block.Stmts[0].String())
	assert.Equal(t, "y := x - 1", block.Stmts[1].String())
}

func TestBuildFromFile(t *testing.T) {
	graph, err := BuildPythonCFG("testdata/countdown.py", "clamp")
	require.NoError(t, err)

	found := false
	for _, node := range graph.Nodes() {
		if node.Kind == cfg.NodeConditional {
			found = true
		}
	}
	assert.True(t, found, "expected a conditional node")

	_, err = BuildPythonCFG("testdata/countdown.py", "missing")
	assert.Error(t, err)

	_, err = BuildPythonCFG("testdata/does-not-exist.py", "clamp")
	assert.ErrorContains(t, err, "reading file")
}

func TestBuildFunctionNotFound(t *testing.T) {
	_, err := BuildPythonCFGSource([]byte("def f():\n    pass\n"), "g")
	assert.ErrorContains(t, err, `"g" not found`)
}

func TestBuildWhileLoop(t *testing.T) {
	graph, err := BuildPythonCFGSource([]byte(countdownSource), "countdown")
	require.NoError(t, err)

	var header *cfg.Node
	for _, node := range graph.Nodes() {
		if node.Kind == cfg.NodeLoop {
			require.Nil(t, header, "expected a single loop header")
			header = node
		}
	}
	require.NotNil(t, header)

	kinds := map[cfg.EdgeKind]int{}
	var loopIn, loopExit cfg.Edge
	for _, edge := range graph.OutEdges(header.ID) {
		kinds[edge.Kind]++
		switch edge.Kind {
		case cfg.EdgeLoopIn:
			loopIn = edge
		case cfg.EdgeDefault:
			loopExit = edge
		}
	}
	assert.Equal(t, map[cfg.EdgeKind]int{cfg.EdgeLoopIn: 1, cfg.EdgeDefault: 1}, kinds)
	require.NotNil(t, loopIn.Condition)
	assert.Equal(t, "x > 0", loopIn.Condition.String())
	require.NotNil(t, loopExit.Condition)
	assert.Equal(t, "x <= 0", loopExit.Condition.String())

	// The body closes the cycle back to the header.
	foundBack := false
	for _, edge := range graph.Edges() {
		if edge.TargetID == header.ID && edge.Kind == cfg.EdgeLoopOut {
			foundBack = true
		}
	}
	assert.True(t, foundBack, "missing LoopOut back edge")
}

func TestBuildIfElse(t *testing.T) {
	src := []byte(`
def f(x):
    if x > 0:
        y = 1
    else:
        y = 2
    z = y
`)
	graph, err := BuildPythonCFGSource(src, "f")
	require.NoError(t, err)

	var cond *cfg.Node
	for _, node := range graph.Nodes() {
		if node.Kind == cfg.NodeConditional {
			require.Nil(t, cond, "expected a single conditional node")
			cond = node
		}
	}
	require.NotNil(t, cond)

	edges := graph.OutEdges(cond.ID)
	require.Len(t, edges, 2)
	conditions := map[string]bool{}
	for _, edge := range edges {
		assert.Equal(t, cfg.EdgeIfIn, edge.Kind)
		require.NotNil(t, edge.Condition)
		conditions[edge.Condition.String()] = true
	}
	assert.Equal(t, map[string]bool{"x > 0": true, "x <= 0": true}, conditions)

	outCount := 0
	for _, edge := range graph.Edges() {
		if edge.Kind == cfg.EdgeIfOut {
			outCount++
		}
	}
	assert.Equal(t, 2, outCount)
}

func TestBuildIfWithoutElse(t *testing.T) {
	src := []byte(`
def f(x):
    if x > 0:
        x = 0
    y = x
`)
	graph, err := BuildPythonCFGSource(src, "f")
	require.NoError(t, err)

	var cond *cfg.Node
	for _, node := range graph.Nodes() {
		if node.Kind == cfg.NodeConditional {
			cond = node
		}
	}
	require.NotNil(t, cond)

	kinds := map[cfg.EdgeKind]int{}
	for _, edge := range graph.OutEdges(cond.ID) {
		kinds[edge.Kind]++
		if edge.Kind == cfg.EdgeDefault {
			require.NotNil(t, edge.Condition)
			assert.Equal(t, "x <= 0", edge.Condition.String())
		}
	}
	assert.Equal(t, map[cfg.EdgeKind]int{cfg.EdgeIfIn: 1, cfg.EdgeDefault: 1}, kinds)
}

func TestBuildOpaqueFallback(t *testing.T) {
	src := []byte(`
def f(x):
    x = input()
    print(x)
`)
	graph, err := BuildPythonCFGSource(src, "f")
	require.NoError(t, err)

	var stmts []lang.Stmt
	for _, node := range graph.Nodes() {
		stmts = append(stmts, node.Stmts...)
	}
	require.Len(t, stmts, 2)

	assign, ok := stmts[0].(lang.Opaque)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, assign.Targets)

	call, ok := stmts[1].(lang.Opaque)
	require.True(t, ok)
	assert.Nil(t, call.Targets)
}

func TestBuildAugmentedAssignment(t *testing.T) {
	src := []byte(`
def f(x):
    x -= 1
    x @= 2
`)
	graph, err := BuildPythonCFGSource(src, "f")
	require.NoError(t, err)

	var stmts []lang.Stmt
	for _, node := range graph.Nodes() {
		stmts = append(stmts, node.Stmts...)
	}
	require.Len(t, stmts, 2)
	assert.Equal(t, "x := x - 1", stmts[0].String())

	opaque, ok := stmts[1].(lang.Opaque)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, opaque.Targets)
}

func TestBuildUnparseableConditionStaysUnconditional(t *testing.T) {
	src := []byte(`
def f(xs):
    while len(xs) > 0:
        xs = xs
`)
	graph, err := BuildPythonCFGSource(src, "f")
	require.NoError(t, err)

	for _, edge := range graph.Edges() {
		assert.Nil(t, edge.Condition, "edge %s -> %s should be unconditional", edge.SourceID, edge.TargetID)
	}
}

// The built graph must run through the analysis end to end: asserting
// x == 0 at the exit of countdown, the loop header stabilizes on [0, inf]
// under widening.
func TestBuildAndAnalyzeCountdown(t *testing.T) {
	graph, err := BuildPythonCFGSource([]byte(countdownSource), "countdown")
	require.NoError(t, err)

	interp := engine.NewBackwardInterpreter(graph, interval.Semantics{}, 2)
	result := interp.Analyze(interval.NewState().With("x", interval.Single(0)))

	out, ok := result.NodeResult(graph.OutNode().ID)
	require.True(t, ok)
	assert.Equal(t, "{x: [0, 0]}", fmt.Sprint(out[0]))

	var header string
	for _, node := range graph.Nodes() {
		if node.Kind == cfg.NodeLoop {
			header = node.ID
		}
	}
	states, ok := result.NodeResult(header)
	require.True(t, ok)
	assert.Equal(t, "{x: [0, inf]}", fmt.Sprint(states[len(states)-1]))
}
