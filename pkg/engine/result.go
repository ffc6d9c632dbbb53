// Package engine implements the worklist-driven backward fixpoint
// computation over a control-flow graph. It is generic over the abstract
// domain plugged in through the contracts in pkg/domain.
package engine

import (
	"sort"

	"github.com/l3aro/go-abstract-interp/pkg/domain"
)

// AnalysisResult maps each node to the ordered sequence of abstract states
// computed for it. For a basic node with k statements the sequence holds k+1
// states: index 0 is the node's pre-state, indices 1..k-1 are the pre-states
// of the following statements, and index k is the node's post-state. Loop
// and conditional nodes hold a single state. The engine is the only writer.
type AnalysisResult struct {
	states map[string][]domain.State
}

// NewAnalysisResult returns an empty result store.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{states: make(map[string][]domain.State)}
}

// NodeResult returns the stored sequence for a node id. The second return
// value is false if the node was never written.
func (r *AnalysisResult) NodeResult(id string) ([]domain.State, bool) {
	states, ok := r.states[id]
	return states, ok
}

// SetNodeResult overwrites the stored sequence for a node id.
func (r *AnalysisResult) SetNodeResult(id string, states []domain.State) {
	r.states[id] = states
}

// NodeIDs returns the ids of all nodes with a stored sequence, sorted.
func (r *AnalysisResult) NodeIDs() []string {
	ids := make([]string, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
