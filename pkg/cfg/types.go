// Package cfg defines the control-flow graph consumed by the analysis engine.
// It provides typed nodes and edges plus adjacency queries; it holds no
// analysis logic of its own.
package cfg

import (
	"encoding/json"

	"github.com/l3aro/go-abstract-interp/pkg/lang"
)

// NodeKind represents the kind of a CFG node.
type NodeKind string

const (
	NodeBasic       NodeKind = "basic"       // Ordered sequence of statements
	NodeLoop        NodeKind = "loop"        // Loop header, no statements
	NodeConditional NodeKind = "conditional" // Branch point, no statements
)

// EdgeKind represents the scope transition an edge performs.
type EdgeKind string

const (
	EdgeDefault EdgeKind = "default"  // Fall-through
	EdgeIfIn    EdgeKind = "if_in"    // Entering an if scope
	EdgeIfOut   EdgeKind = "if_out"   // Leaving an if scope
	EdgeLoopIn  EdgeKind = "loop_in"  // Entering a loop scope
	EdgeLoopOut EdgeKind = "loop_out" // Leaving a loop scope
)

// Node is a vertex of the control-flow graph. Stmts is non-empty only for
// NodeBasic. Nodes are immutable once the graph is built.
type Node struct {
	ID    string
	Kind  NodeKind
	Stmts []lang.Stmt
}

// Edge is a directed edge between two nodes. An edge with a non-nil
// Condition is conditional: it is taken only when the condition holds, on
// top of whatever scope transition its Kind performs.
type Edge struct {
	SourceID  string
	TargetID  string
	Kind      EdgeKind
	Condition lang.Expr
}

// Conditional reports whether the edge carries a condition.
func (e Edge) Conditional() bool {
	return e.Condition != nil
}

// nodeJSON is the serialized form of a Node; statements render as text.
type nodeJSON struct {
	ID         string   `json:"id"`
	Kind       NodeKind `json:"kind"`
	Statements []string `json:"statements,omitempty"`
}

// MarshalJSON renders the node with statements as their source text.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{ID: n.ID, Kind: n.Kind}
	for _, stmt := range n.Stmts {
		out.Statements = append(out.Statements, stmt.String())
	}
	return json.Marshal(out)
}

// edgeJSON is the serialized form of an Edge.
type edgeJSON struct {
	SourceID  string   `json:"source_id"`
	TargetID  string   `json:"target_id"`
	Kind      EdgeKind `json:"kind"`
	Condition string   `json:"condition,omitempty"`
}

// MarshalJSON renders the edge with its condition as text.
func (e Edge) MarshalJSON() ([]byte, error) {
	out := edgeJSON{SourceID: e.SourceID, TargetID: e.TargetID, Kind: e.Kind}
	if e.Condition != nil {
		out.Condition = e.Condition.String()
	}
	return json.Marshal(out)
}
