package scheduler

import (
	"weak"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
)

// State is the lifecycle stage of a Node. Transitions are monotone.
type State uint8

const (
	// StateFresh marks a node the scheduler has never visited.
	StateFresh State = iota
	// StateRegistered marks a node waiting for its children.
	StateRegistered
	// StateContinued marks a node waiting for its continuer.
	StateContinued
	// StateExecuted marks a node holding its final result.
	StateExecuted
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateRegistered:
		return "registered"
	case StateContinued:
		return "continued"
	case StateExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

// Outcome is what an execute step produced: either a final result or a
// continuer whose eventual result the node adopts.
type Outcome struct {
	result domain.Result
	next   *Node
}

// Done finishes a node with r.
func Done(r domain.Result) Outcome {
	return Outcome{result: r}
}

// More defers a node to next.
func More(next *Node) Outcome {
	return Outcome{next: next}
}

// ExecFunc is the domain logic of a node. inputs holds the results of the
// node's children, in order.
type ExecFunc func(ec ports.ExecContext, inputs []domain.Result) Outcome

// Node is a vertex of the lazily built expression graph.
//
// Children are owned references. Successor edges are weak so that a node kept
// alive only by finished predecessors can be collected.
type Node struct {
	name     string
	children []*Node
	exec     ExecFunc

	state     State
	result    domain.Result
	continuer *Node

	predN   int
	succs   []weak.Pointer[Node]
	pending []domain.ReductionID
}

// NewNode creates a fresh node running exec once every child has executed.
func NewNode(name string, exec ExecFunc, children ...*Node) *Node {
	return &Node{name: name, exec: exec, children: children}
}

// Name returns the diagnostic name given at construction.
func (n *Node) Name() string {
	return n.name
}

// State returns the lifecycle stage.
func (n *Node) State() State {
	return n.state
}

// Result returns the final result, or nil until the node has executed.
func (n *Node) Result() domain.Result {
	if n.state != StateExecuted {
		return nil
	}
	return n.result
}

// PendingReductions returns the reductions this node still causally waits on.
func (n *Node) PendingReductions() []domain.ReductionID {
	return n.pending
}

func (n *Node) addSucc(s *Node) {
	n.succs = append(n.succs, weak.Make(s))
}

// adopt copies the continuer's result forward and releases it.
func (n *Node) adopt() {
	n.state = StateExecuted
	n.result = n.continuer.result
	n.continuer = nil
}

// prune drops references to children and domain logic once executed.
func (n *Node) prune() {
	n.children = nil
	n.exec = nil
}
