package cfg

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ControlFlowGraph is an immutable graph of nodes and edges with a unique
// entry and exit node. Adjacency is precomputed at construction time.
type ControlFlowGraph struct {
	nodes map[string]*Node
	edges []Edge
	inID  string
	outID string

	outEdges map[string][]Edge
	preds    map[string][]*Node
}

// New builds a graph from nodes and edges and validates it: the entry and
// exit must exist, every edge endpoint must resolve, every node must be
// reachable from the entry and co-reachable to the exit. A graph that fails
// validation violates the engine's preconditions and is rejected outright.
func New(nodes []*Node, edges []Edge, inID, outID string) (*ControlFlowGraph, error) {
	g := &ControlFlowGraph{
		nodes:    make(map[string]*Node, len(nodes)),
		edges:    edges,
		inID:     inID,
		outID:    outID,
		outEdges: make(map[string][]Edge),
		preds:    make(map[string][]*Node),
	}

	for _, node := range nodes {
		if _, dup := g.nodes[node.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", node.ID)
		}
		g.nodes[node.ID] = node
	}

	for _, edge := range edges {
		source, ok := g.nodes[edge.SourceID]
		if !ok {
			return nil, fmt.Errorf("edge source %q is not a node", edge.SourceID)
		}
		if _, ok := g.nodes[edge.TargetID]; !ok {
			return nil, fmt.Errorf("edge target %q is not a node", edge.TargetID)
		}
		g.outEdges[edge.SourceID] = append(g.outEdges[edge.SourceID], edge)
		g.preds[edge.TargetID] = append(g.preds[edge.TargetID], source)
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// validate checks entry/exit presence, reachability from the entry, and
// co-reachability to the exit.
func (g *ControlFlowGraph) validate() error {
	if _, ok := g.nodes[g.inID]; !ok {
		return fmt.Errorf("entry node %q not found", g.inID)
	}
	if _, ok := g.nodes[g.outID]; !ok {
		return fmt.Errorf("exit node %q not found", g.outID)
	}

	forward := g.reach(g.inID, func(id string) []string {
		var next []string
		for _, e := range g.outEdges[id] {
			next = append(next, e.TargetID)
		}
		return next
	})
	backward := g.reach(g.outID, func(id string) []string {
		var next []string
		for _, p := range g.preds[id] {
			next = append(next, p.ID)
		}
		return next
	})

	for id := range g.nodes {
		if !forward[id] {
			return fmt.Errorf("node %q is unreachable from the entry", id)
		}
		if !backward[id] {
			return fmt.Errorf("node %q cannot reach the exit", id)
		}
	}
	return nil
}

// reach runs a breadth-first traversal from start using the given successor
// function.
func (g *ControlFlowGraph) reach(start string, next func(string) []string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range next(id) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

// Node returns the node with the given id, or nil if it does not exist.
func (g *ControlFlowGraph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes sorted by id.
func (g *ControlFlowGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns all edges in insertion order.
func (g *ControlFlowGraph) Edges() []Edge {
	return g.edges
}

// OutEdges returns the edges leaving the given node. Order carries no
// meaning; consumers must join commutatively.
func (g *ControlFlowGraph) OutEdges(id string) []Edge {
	return g.outEdges[id]
}

// Predecessors returns the nodes with an edge into the given node.
func (g *ControlFlowGraph) Predecessors(id string) []*Node {
	return g.preds[id]
}

// InNode returns the unique entry node.
func (g *ControlFlowGraph) InNode() *Node {
	return g.nodes[g.inID]
}

// OutNode returns the unique exit node.
func (g *ControlFlowGraph) OutNode() *Node {
	return g.nodes[g.outID]
}

// graphJSON is the serialized form of a graph.
type graphJSON struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
	InID  string  `json:"in_id"`
	OutID string  `json:"out_id"`
}

// MarshalJSON renders the graph with nodes sorted by id.
func (g *ControlFlowGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{
		Nodes: g.Nodes(),
		Edges: g.edges,
		InID:  g.inID,
		OutID: g.outID,
	})
}
