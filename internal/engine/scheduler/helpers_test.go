package scheduler_test

import (
	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/amrtrace/internal/engine/scheduler"
)

// taskResult carries the tasks that produced it and the buffers it holds.
type taskResult struct {
	tasks []domain.TaskID
	datas []*domain.Data
}

func (r taskResult) Datas() []*domain.Data  { return r.datas }
func (r taskResult) Tasks() []domain.TaskID { return r.tasks }

type recordingSink struct {
	tasks      []domain.TaskEvent
	reductions []domain.ReductionEvent
	retired    []domain.DataID
}

func (s *recordingSink) Task(ev domain.TaskEvent)           { s.tasks = append(s.tasks, ev) }
func (s *recordingSink) Reduction(ev domain.ReductionEvent) { s.reductions = append(s.reductions, ev) }
func (s *recordingSink) Retire(id domain.DataID)            { s.retired = append(s.retired, id) }

// compute creates a node emitting one task on rank that depends on every
// task carried by its children.
func compute(name string, rank domain.Rank, children ...*scheduler.Node) *scheduler.Node {
	return scheduler.Func(name, func(ec ports.ExecContext, inputs []domain.Result) domain.Result {
		var deps []domain.Dependency
		for _, in := range inputs {
			for _, t := range in.(domain.TaskCarrier).Tasks() {
				deps = append(deps, domain.Dependency{SrcTask: t, Digest: domain.DigestOf(name), Size: 8})
			}
		}
		id := ec.Task(rank, 0, deps, name, 1)
		return taskResult{tasks: []domain.TaskID{id}}
	}, children...)
}

// idle creates a node that emits nothing and forwards its children's tasks.
func idle(name string, children ...*scheduler.Node) *scheduler.Node {
	return scheduler.Func(name, func(_ ports.ExecContext, inputs []domain.Result) domain.Result {
		var tasks []domain.TaskID
		for _, in := range inputs {
			tasks = append(tasks, in.(domain.TaskCarrier).Tasks()...)
		}
		return taskResult{tasks: tasks}
	}, children...)
}

func taskNotes(evs []domain.TaskEvent) []string {
	notes := make([]string, len(evs))
	for i, ev := range evs {
		notes[i] = ev.Note
	}
	return notes
}
