package scheduler

import (
	"slices"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/zerr"
)

// execContext is the ports.ExecContext handed to one executing node.
type execContext struct {
	session *Session
	sink    ports.TraceSink
	stats   *domain.RunStats
	// pending aliases the executing node's pending reduction set.
	pending *[]domain.ReductionID

	computed bool
}

func (c *execContext) Task(
	rank domain.Rank,
	data domain.DataID,
	deps []domain.Dependency,
	note string,
	seconds float64,
) domain.TaskID {
	for _, d := range deps {
		if !c.session.taskIssued(d.SrcTask) {
			domain.Violate(zerr.With(domain.ErrUnissuedTask, "task", uint64(d.SrcTask)))
		}
	}

	c.computed = true
	id := c.session.issueTask()
	c.stats.Tasks++
	c.sink.Task(domain.TaskEvent{
		ID:         id,
		Rank:       rank,
		Data:       data,
		Deps:       domain.MergeDependencies(deps),
		Reductions: slices.Clone(*c.pending),
		Note:       note,
		Seconds:    seconds,
	})
	return id
}

func (c *execContext) Reduction(bytes uint64, tasks []domain.TaskID) domain.ReductionID {
	for _, t := range tasks {
		if !c.session.taskIssued(t) {
			domain.Violate(zerr.With(domain.ErrUnissuedTask, "task", uint64(t)))
		}
	}

	id := c.session.issueReduction()
	c.stats.Reductions++
	c.sink.Reduction(domain.ReductionEvent{
		ID:         id,
		Bytes:      bytes,
		Tasks:      slices.Clone(tasks),
		Reductions: slices.Clone(*c.pending),
	})
	*c.pending = []domain.ReductionID{id}
	return id
}

func (c *execContext) NewData() *domain.Data {
	return c.session.NewData()
}
