package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scheduler drives an expression graph to completion, forwarding every task
// and reduction its nodes emit to a trace sink.
type Scheduler struct {
	sink    ports.TraceSink
	epochs  ports.EpochSink
	session *Session
	tracer  ports.Tracer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTracer records one span per run.
func WithTracer(t ports.Tracer) Option {
	return func(s *Scheduler) {
		s.tracer = t
	}
}

// WithSession shares id counters with nodes built ahead of the run.
func WithSession(session *Session) Option {
	return func(s *Scheduler) {
		s.session = session
	}
}

// New creates a Scheduler emitting into sink. If sink implements
// ports.EpochSink it is notified after every node that emitted a task.
func New(sink ports.TraceSink, opts ...Option) *Scheduler {
	s := &Scheduler{sink: sink}
	if e, ok := sink.(ports.EpochSink); ok {
		s.epochs = e
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.session == nil {
		s.session = NewSession()
	}
	return s
}

// Factory builds schedulers sharing one tracer.
type Factory struct {
	tracer ports.Tracer
}

// NewFactory creates a Factory.
func NewFactory(tracer ports.Tracer) *Factory {
	return &Factory{tracer: tracer}
}

// New creates a Scheduler for sink with the factory's tracer.
func (f *Factory) New(sink ports.TraceSink, opts ...Option) *Scheduler {
	return New(sink, append([]Option{WithTracer(f.tracer)}, opts...)...)
}

// Session returns the id counters used by this scheduler.
func (s *Scheduler) Session() *Session {
	return s.session
}

// Run walks the graph reachable from root until every node has executed.
// Engine invariant violations abort the run and are returned wrapped in
// domain.ErrInvariantViolation.
func (s *Scheduler) Run(ctx context.Context, root *Node) (stats domain.RunStats, err error) {
	if root == nil {
		return stats, errors.Join(domain.ErrInvariantViolation, &domain.InvariantError{Err: domain.ErrNilRoot})
	}

	if s.tracer != nil {
		var span ports.Span
		_, span = s.tracer.Start(ctx, "scheduler.run", ports.WithAttribute("root", root.Name()))
		defer func() {
			span.SetAttribute("nodes", stats.Nodes)
			span.SetAttribute("tasks", stats.Tasks)
			span.SetAttribute("reductions", stats.Reductions)
			span.SetAttribute("epochs", stats.Epochs)
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()
	}

	r := &run{s: s, root: root, retired: &retireQueue{}}
	defer func() {
		if rec := recover(); rec != nil {
			ierr, ok := rec.(*domain.InvariantError)
			if !ok {
				panic(rec)
			}
			err = errors.Join(domain.ErrInvariantViolation, ierr)
		}
		stats = r.stats
	}()

	r.loop()
	return r.stats, nil
}

// retireQueue collects retired buffer ids. Retirers may fire on the runtime's
// cleanup goroutine, so the queue is locked and must not reference any node.
type retireQueue struct {
	mu  sync.Mutex
	ids []domain.DataID
}

func (q *retireQueue) push(id domain.DataID) {
	q.mu.Lock()
	q.ids = append(q.ids, id)
	q.mu.Unlock()
}

func (q *retireQueue) take() []domain.DataID {
	q.mu.Lock()
	ids := q.ids
	q.ids = nil
	q.mu.Unlock()
	return ids
}

// run is the state of one call to Run. It is owned by the calling goroutine.
type run struct {
	s *Scheduler
	// root owns the graph. Successor edges are weak, so every unexecuted
	// node is reachable only through the children of nodes above it.
	root    *Node
	ready   []*Node
	retired *retireQueue
	stats   domain.RunStats
}

func (r *run) loop() {
	var pending []domain.ReductionID
	r.register(r.root, &pending)

	for len(r.ready) > 0 {
		x := r.ready[0]
		r.ready[0] = nil
		r.ready = r.ready[1:]

		r.flushRetired()

		switch x.state {
		case StateContinued:
			x.pending = uniquify(append(x.pending, x.continuer.pending...))
			x.adopt()
		case StateRegistered:
			if !r.execute(x) {
				continue
			}
		default:
			domain.Violate(zerr.With(domain.ErrNodeReexecuted, "node", x.name))
		}

		r.notify(x)
	}

	r.flushRetired()
}

// register visits, depth first, every fresh node reachable from root. Each
// gets a predecessor count and a successor edge from every unexecuted child.
// Nodes without fresh children take over the caller's pending reductions;
// the caller's set is cleared only when at least one fresh node was found.
func (r *run) register(root *Node, pending *[]domain.ReductionID) {
	hasFresh := false
	stack := []*Node{root}

	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if x.state != StateFresh {
			continue
		}
		x.state = StateRegistered
		hasFresh = true

		predN, freshN := 0, 0
		for _, c := range x.children {
			if c.state != StateExecuted {
				c.addSucc(x)
				predN++
			}
			if c.state == StateFresh {
				freshN++
			}
		}
		x.predN = predN

		if freshN == 0 {
			x.pending = append(x.pending, *pending...)
		}
		if predN == 0 {
			r.ready = append(r.ready, x)
		}

		stack = append(stack, x.children...)
	}

	if hasFresh {
		*pending = nil
	}
}

// execute runs the domain logic of x. It reports whether x finished, in which
// case its successors must be notified.
func (r *run) execute(x *Node) bool {
	inputs := make([]domain.Result, len(x.children))
	for i, c := range x.children {
		if c.state != StateExecuted {
			domain.Violate(zerr.With(domain.ErrChildPending, "node", x.name))
		}
		x.pending = append(x.pending, c.pending...)
		inputs[i] = c.result
	}
	x.pending = uniquify(x.pending)

	if x.exec == nil {
		domain.Violate(zerr.With(domain.ErrNoOutcome, "node", x.name))
	}

	ec := &execContext{
		session: r.s.session,
		sink:    r.s.sink,
		stats:   &r.stats,
		pending: &x.pending,
	}
	out := x.exec(ec, inputs)
	r.stats.Nodes++
	x.prune()

	if ec.computed {
		x.pending = nil
		r.stats.Epochs++
		if r.s.epochs != nil {
			r.s.epochs.PostComputeExec()
		}
	}

	switch {
	case out.result != nil && out.next != nil:
		domain.Violate(zerr.With(domain.ErrBothOutcomes, "node", x.name))
	case out.result == nil && out.next == nil:
		domain.Violate(zerr.With(domain.ErrNoOutcome, "node", x.name))
	case out.next == nil:
		x.state = StateExecuted
		x.result = out.result
		for _, d := range out.result.Datas() {
			d.SetRetirer(r.retired.push)
		}
		return true
	}

	x.state = StateContinued
	x.continuer = out.next
	r.stats.Continuations++

	if x.continuer.state == StateExecuted {
		x.adopt()
		return true
	}

	x.continuer.addSucc(x)
	x.predN = 1
	r.register(x.continuer, &x.pending)
	return false
}

// notify decrements every live successor of x, queueing those that become ready.
func (r *run) notify(x *Node) {
	succs := x.succs
	x.succs = nil
	for _, w := range succs {
		y := w.Value()
		if y == nil {
			continue
		}
		y.predN--
		if y.predN == 0 {
			r.ready = append(r.ready, y)
		}
	}
}

func (r *run) flushRetired() {
	for _, id := range r.retired.take() {
		r.stats.Retirements++
		r.s.sink.Retire(id)
	}
}

func uniquify(ids []domain.ReductionID) []domain.ReductionID {
	if len(ids) < 2 {
		return ids
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
