package engine

import (
	"container/list"

	"github.com/l3aro/go-abstract-interp/pkg/cfg"
	"github.com/l3aro/go-abstract-interp/pkg/domain"
)

// BackwardInterpreter propagates abstract states from the exit node toward
// the entry node of a control-flow graph, recomputing each node from its
// successors until no externally visible state changes. Widening on loop
// headers bounds the number of unwidened passes and guarantees termination
// on lattices of infinite height.
//
// A single interpreter owns its result store for the duration of a run; use
// independent instances for concurrent analyses.
type BackwardInterpreter struct {
	graph     *cfg.ControlFlowGraph
	semantics domain.Semantics
	widening  int
	result    *AnalysisResult
}

// NewBackwardInterpreter validates the graph and returns an interpreter
// using the given backward semantics. The widening threshold is the number
// of unwidened passes permitted around a loop header before widening kicks
// in; it must be non-negative.
func NewBackwardInterpreter(graph *cfg.ControlFlowGraph, semantics domain.Semantics, widening int) *BackwardInterpreter {
	return &BackwardInterpreter{
		graph:     graph,
		semantics: semantics,
		widening:  widening,
		result:    NewAnalysisResult(),
	}
}

// Analyze runs the backward fixpoint with initial as the boundary condition
// at the exit node and returns the converged result. The returned store is
// not mutated afterward.
func (bi *BackwardInterpreter) Analyze(initial domain.State) *AnalysisResult {
	worklist := list.New()
	worklist.PushBack(bi.graph.OutNode())
	iterations := make(map[string]int, len(bi.graph.Nodes()))

	for worklist.Len() > 0 {
		current := worklist.Remove(worklist.Front()).(*cfg.Node)
		iteration := iterations[current.ID]

		// Previous post-state of the node, if any. Comparing against it is
		// the convergence test.
		var previous domain.State
		if states, ok := bi.result.NodeResult(current.ID); ok {
			previous = states[len(states)-1]
		}

		post := bi.postState(current, initial, previous, iteration)

		// Local fixpoint: nothing changed, leave the stored result alone and
		// do not requeue the predecessors.
		if previous != nil && post.LessEqual(previous) {
			continue
		}

		bi.result.SetNodeResult(current.ID, bi.expand(current, post))
		for _, pred := range bi.graph.Predecessors(current.ID) {
			worklist.PushBack(pred)
		}
		iterations[current.ID] = iteration + 1
	}

	return bi.result
}

// Result exposes the store backing the last run.
func (bi *BackwardInterpreter) Result() *AnalysisResult {
	return bi.result
}

// postState computes a node's new post-state: the boundary condition for the
// exit node, otherwise the join over all out-edges of the successors'
// pre-states, with scope operators inverted and conditions filtered, widened
// on loop headers past the threshold.
func (bi *BackwardInterpreter) postState(current *cfg.Node, initial, previous domain.State, iteration int) domain.State {
	if current.ID == bi.graph.OutNode().ID {
		return initial
	}

	post := initial.Bottom()
	for _, edge := range bi.graph.OutEdges(current.ID) {
		states, ok := bi.result.NodeResult(edge.TargetID)
		if !ok {
			// A successor not yet visited contributes bottom to the join.
			// This lets a loop header complete its first pass before the
			// back edge has anything to offer.
			continue
		}
		successor := states[0]

		// Traversal is backward, so each scope edge applies the operator
		// inverse to its forward meaning.
		switch edge.Kind {
		case cfg.EdgeIfIn:
			successor = successor.ExitIf()
		case cfg.EdgeIfOut:
			successor = successor.EnterIf()
		case cfg.EdgeLoopIn:
			successor = successor.ExitLoop()
		case cfg.EdgeLoopOut:
			successor = successor.EnterLoop()
		case cfg.EdgeDefault:
		}

		if edge.Conditional() {
			successor = bi.semantics.Semantics(edge.Condition, successor).Filter()
		}
		post = post.Join(successor)
	}

	// Widening applies only to loop headers and only once the header has
	// been expanded more than the configured number of times.
	if current.Kind == cfg.NodeLoop && bi.widening < iteration {
		base := previous
		if base == nil {
			base = initial.Bottom()
		}
		post = base.Widening(post)
	}

	return post
}

// expand recomputes a node's full state sequence from its new post-state.
// Basic nodes walk their statements in reverse, prepending each computed
// pre-state; loop and conditional nodes store the post-state alone.
func (bi *BackwardInterpreter) expand(current *cfg.Node, post domain.State) []domain.State {
	switch current.Kind {
	case cfg.NodeBasic:
		states := make([]domain.State, len(current.Stmts)+1)
		states[len(current.Stmts)] = post
		successor := post
		for i := len(current.Stmts) - 1; i >= 0; i-- {
			successor = bi.semantics.Semantics(current.Stmts[i], successor)
			states[i] = successor
		}
		return states
	case cfg.NodeLoop, cfg.NodeConditional:
		return []domain.State{post}
	}
	return []domain.State{post}
}
