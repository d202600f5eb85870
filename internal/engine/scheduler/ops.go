package scheduler

import (
	"slices"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
)

// Return wraps a ready result in an already executed node.
func Return(r domain.Result) *Node {
	return &Node{name: "return", state: StateExecuted, result: r}
}

// Func creates a node finishing with fn's result.
func Func(
	name string,
	fn func(ec ports.ExecContext, inputs []domain.Result) domain.Result,
	children ...*Node,
) *Node {
	return NewNode(name, func(ec ports.ExecContext, inputs []domain.Result) Outcome {
		return Done(fn(ec, inputs))
	}, children...)
}

// Env maps the nodes a Bind waited on to their results.
type Env struct {
	nodes   []*Node
	results []domain.Result
}

// Result returns the result of n, or nil if n was not a dependency.
func (e Env) Result(n *Node) domain.Result {
	for i, m := range e.nodes {
		if m == n {
			return e.results[i]
		}
	}
	return nil
}

// Get returns the result of n as a T. It returns the zero T when n was not a
// dependency or its result has another type.
func Get[T domain.Result](e Env, n *Node) T {
	r, _ := e.Result(n).(T)
	return r
}

// Bind creates a node whose value is that of the node cont builds once every
// dependency has executed. It is how further work is shaped by results that
// are only known at run time.
func Bind(name string, deps []*Node, cont func(env Env) *Node) *Node {
	nodes := slices.Clone(deps)
	return NewNode(name, func(_ ports.ExecContext, inputs []domain.Result) Outcome {
		return More(cont(Env{nodes: nodes, results: inputs}))
	}, deps...)
}

// ListResult is the result of a List node.
type ListResult []domain.Result

// Datas returns the buffers of every item.
func (l ListResult) Datas() []*domain.Data {
	var out []*domain.Data
	for _, r := range l {
		out = append(out, r.Datas()...)
	}
	return out
}

// Tasks returns the producing tasks of every item that carries them.
func (l ListResult) Tasks() []domain.TaskID {
	var out []domain.TaskID
	for _, r := range l {
		if tc, ok := r.(domain.TaskCarrier); ok {
			out = append(out, tc.Tasks()...)
		}
	}
	return out
}

// List creates a node collecting the results of items.
func List(name string, items ...*Node) *Node {
	return NewNode(name, func(_ ports.ExecContext, inputs []domain.Result) Outcome {
		return Done(ListResult(slices.Clone(inputs)))
	}, items...)
}

// Items splits a List node into n nodes, one per item.
func Items(list *Node, n int) []*Node {
	out := make([]*Node, n)
	for i := range n {
		out[i] = Bind("item", []*Node{list}, func(env Env) *Node {
			return Return(Get[ListResult](env, list)[i])
		})
	}
	return out
}

// Reduce issues a collective over the tasks carried by a's result, then
// continues with cont applied to answer. The simulation never computes the
// reduced value, so the caller supplies the answer it pretends to have.
func Reduce[S any](name string, a *Node, bytes uint64, answer S, cont func(S) *Node) *Node {
	return NewNode(name, func(ec ports.ExecContext, inputs []domain.Result) Outcome {
		var tasks []domain.TaskID
		if tc, ok := inputs[0].(domain.TaskCarrier); ok {
			tasks = tc.Tasks()
		}
		ec.Reduction(bytes, tasks)
		return More(cont(answer))
	}, a)
}
