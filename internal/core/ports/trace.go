package ports

import "go.trai.ch/amrtrace/internal/core/domain"

//go:generate mockgen -source=trace.go -destination=mocks/mock_trace.go -package=mocks

// ExecContext is handed to an executing node. It is the only way a node emits
// work into the trace.
type ExecContext interface {
	// Task records one schedulable unit and returns its freshly issued id.
	// Dependencies sharing a source task are merged before recording.
	Task(rank domain.Rank, data domain.DataID, deps []domain.Dependency, note string, seconds float64) domain.TaskID

	// Reduction records a collective over the ranks of the given tasks.
	// It supersedes the reductions the node was still waiting on.
	Reduction(bytes uint64, tasks []domain.TaskID) domain.ReductionID

	// NewData allocates a buffer handle with a fresh id.
	NewData() *domain.Data
}

// TraceSink receives the events of a run in causal order.
type TraceSink interface {
	Task(ev domain.TaskEvent)
	Reduction(ev domain.ReductionEvent)
	// Retire drops bookkeeping for a buffer. Unknown ids are ignored.
	Retire(id domain.DataID)
}

// EpochSink is implemented by sinks that group events into rounds.
// PostComputeExec fires after every node that emitted at least one task.
type EpochSink interface {
	PostComputeExec()
}

// TeamPicker chooses which team member sends a synthetic control message.
type TeamPicker interface {
	Pick(team []domain.Rank) domain.Rank
}
