package scheduler_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/amrtrace/internal/core/ports/mocks"
	"go.trai.ch/amrtrace/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func TestScheduler_Run_Diamond(t *testing.T) {
	// A depends on B and C, both depend on D.
	d := compute("D", 0)
	b := compute("B", 1, d)
	c := compute("C", 2, d)
	a := compute("A", 0, b, c)

	sink := &recordingSink{}
	stats, err := scheduler.New(sink).Run(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, []string{"D", "C", "B", "A"}, taskNotes(sink.tasks))
	for i, ev := range sink.tasks {
		assert.Equal(t, domain.TaskID(i), ev.ID)
	}

	require.Len(t, sink.tasks[3].Deps, 2)
	assert.Equal(t, domain.TaskID(2), sink.tasks[3].Deps[0].Task)
	assert.Equal(t, domain.TaskID(1), sink.tasks[3].Deps[1].Task)

	assert.Equal(t, domain.RunStats{Nodes: 4, Tasks: 4, Epochs: 4}, stats)
	assert.Equal(t, scheduler.StateExecuted, a.State())
	assert.Equal(t, []domain.TaskID{3}, a.Result().(domain.TaskCarrier).Tasks())
}

func TestScheduler_Run_MergesDependencies(t *testing.T) {
	d := compute("D", 0)
	x := compute("X", 1, d, d)

	sink := &recordingSink{}
	stats, err := scheduler.New(sink).Run(context.Background(), x)
	require.NoError(t, err)

	require.Len(t, sink.tasks, 2)
	assert.Equal(t, []domain.TaskDep{{Task: 0, Bytes: 16}}, sink.tasks[1].Deps)
	assert.Equal(t, uint64(2), stats.Nodes)
}

func TestScheduler_Run_ReductionPropagation(t *testing.T) {
	t.Run("Continuation inherits reduction", func(t *testing.T) {
		l := scheduler.List("l", compute("a", 0), compute("b", 1))
		r := scheduler.Reduce("r", l, 8, 1.0, func(float64) *scheduler.Node {
			return compute("c", 0)
		})

		sink := &recordingSink{}
		stats, err := scheduler.New(sink).Run(context.Background(), r)
		require.NoError(t, err)

		assert.Equal(t, []string{"b", "a", "c"}, taskNotes(sink.tasks))
		require.Len(t, sink.reductions, 1)
		assert.Equal(t, domain.ReductionEvent{ID: 0, Bytes: 8, Tasks: []domain.TaskID{1, 0}}, sink.reductions[0])

		assert.Empty(t, sink.tasks[0].Reductions)
		assert.Empty(t, sink.tasks[1].Reductions)
		assert.Equal(t, []domain.ReductionID{0}, sink.tasks[2].Reductions)

		assert.Equal(t, domain.RunStats{
			Nodes:         5,
			Continuations: 1,
			Tasks:         3,
			Reductions:    1,
			Epochs:        3,
		}, stats)
		assert.Empty(t, r.PendingReductions())
	})

	t.Run("Idle node keeps reduction pending", func(t *testing.T) {
		l := scheduler.List("l", compute("a", 0), compute("b", 1))
		r := scheduler.Reduce("r", l, 8, 1.0, func(float64) *scheduler.Node {
			return idle("noop")
		})
		e := compute("e", 2, r)

		sink := &recordingSink{}
		_, err := scheduler.New(sink).Run(context.Background(), e)
		require.NoError(t, err)

		require.Len(t, sink.tasks, 3)
		assert.Equal(t, "e", sink.tasks[2].Note)
		assert.Equal(t, []domain.ReductionID{0}, sink.tasks[2].Reductions)
		assert.Equal(t, []domain.ReductionID{0}, r.PendingReductions())
		assert.Empty(t, e.PendingReductions())
	})

	t.Run("Reduction orders after pending reductions", func(t *testing.T) {
		l := scheduler.List("l", compute("a", 0), compute("b", 1))
		r := scheduler.Reduce("r1", l, 8, 0, func(int) *scheduler.Node {
			return scheduler.Reduce("r2", l, 16, 0, func(int) *scheduler.Node {
				return compute("c", 1)
			})
		})

		sink := &recordingSink{}
		_, err := scheduler.New(sink).Run(context.Background(), r)
		require.NoError(t, err)

		require.Len(t, sink.reductions, 2)
		assert.Empty(t, sink.reductions[0].Reductions)
		assert.Equal(t, []domain.ReductionID{0}, sink.reductions[1].Reductions)
		assert.Equal(t, []domain.TaskID{1, 0}, sink.reductions[1].Tasks)

		require.Len(t, sink.tasks, 3)
		assert.Equal(t, []domain.ReductionID{1}, sink.tasks[2].Reductions)
	})
}

func TestScheduler_Run_DeepContinuationChain(t *testing.T) {
	const depth = 100000
	final := taskResult{tasks: []domain.TaskID{7}}

	var loop func(i int) *scheduler.Node
	loop = func(i int) *scheduler.Node {
		return scheduler.Bind("loop", nil, func(scheduler.Env) *scheduler.Node {
			if i == 0 {
				return scheduler.Return(final)
			}
			return loop(i - 1)
		})
	}
	root := loop(depth)

	stats, err := scheduler.New(&recordingSink{}).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, uint64(depth+1), stats.Nodes)
	assert.Equal(t, uint64(depth+1), stats.Continuations)
	assert.Equal(t, scheduler.StateExecuted, root.State())
	assert.Equal(t, final, root.Result())
}

func TestScheduler_Run_ListItems(t *testing.T) {
	l := scheduler.List("l", compute("a", 0), compute("b", 1))
	items := scheduler.Items(l, 2)
	sum := compute("sum", 3, items[1])

	sink := &recordingSink{}
	_, err := scheduler.New(sink).Run(context.Background(), sum)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "sum"}, taskNotes(sink.tasks))
	require.Len(t, sink.tasks[2].Deps, 1)
	assert.Equal(t, domain.TaskID(0), sink.tasks[2].Deps[0].Task)
	assert.Equal(t, scheduler.StateFresh, items[0].State())
}

func TestScheduler_Run_BindEnv(t *testing.T) {
	a := compute("a", 0)
	b := compute("b", 1)
	other := compute("other", 2)

	var gotA, gotOther taskResult
	root := scheduler.Bind("bind", []*scheduler.Node{a, b}, func(env scheduler.Env) *scheduler.Node {
		gotA = scheduler.Get[taskResult](env, a)
		gotOther = scheduler.Get[taskResult](env, other)
		return scheduler.Return(env.Result(b))
	})

	_, err := scheduler.New(&recordingSink{}).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []domain.TaskID{1}, gotA.tasks)
	assert.Empty(t, gotOther.tasks)
	assert.Equal(t, []domain.TaskID{0}, root.Result().(domain.TaskCarrier).Tasks())
}

func TestScheduler_Run_Retirement(t *testing.T) {
	producer := scheduler.Func("p", func(ec ports.ExecContext, _ []domain.Result) domain.Result {
		d := ec.NewData()
		id := ec.Task(0, d.ID(), nil, "p", 1)
		return taskResult{tasks: []domain.TaskID{id}, datas: []*domain.Data{d}}
	})
	consumer := scheduler.Func("c", func(_ ports.ExecContext, inputs []domain.Result) domain.Result {
		d := inputs[0].Datas()[0]
		d.Retire()
		d.Retire()
		return taskResult{}
	}, producer)

	sink := &recordingSink{}
	stats, err := scheduler.New(sink).Run(context.Background(), consumer)
	require.NoError(t, err)

	assert.Equal(t, []domain.DataID{0}, sink.retired)
	assert.Equal(t, uint64(1), stats.Retirements)
	assert.Equal(t, domain.DataID(0), sink.tasks[0].Data)
}

func TestScheduler_Run_SurvivesCollection(t *testing.T) {
	leaf := scheduler.Func("leaf", func(ec ports.ExecContext, _ []domain.Result) domain.Result {
		runtime.GC()
		runtime.GC()
		id := ec.Task(0, 0, nil, "leaf", 1)
		return taskResult{tasks: []domain.TaskID{id}}
	})

	sink := &recordingSink{}
	// The graph is only reachable through the argument.
	stats, err := scheduler.New(sink).Run(context.Background(), compute("root", 0, compute("mid", 0, leaf)))
	require.NoError(t, err)

	assert.Equal(t, []string{"leaf", "mid", "root"}, taskNotes(sink.tasks))
	assert.Equal(t, uint64(3), stats.Nodes)
}

func TestScheduler_Run_CollectedDataRetires(t *testing.T) {
	producer := scheduler.Func("p", func(ec ports.ExecContext, _ []domain.Result) domain.Result {
		d := ec.NewData()
		id := ec.Task(0, d.ID(), nil, "p", 1)
		return taskResult{tasks: []domain.TaskID{id}, datas: []*domain.Data{d}}
	})
	// The consumer drops the buffer, so only collection can retire it.
	node := idle("c", producer)

	const collections = 50
	for range collections {
		node = scheduler.Func("gc", func(_ ports.ExecContext, _ []domain.Result) domain.Result {
			runtime.GC()
			time.Sleep(time.Millisecond)
			return taskResult{}
		}, node)
	}

	sink := &recordingSink{}
	stats, err := scheduler.New(sink).Run(context.Background(), node)
	require.NoError(t, err)

	assert.Equal(t, uint64(collections+2), stats.Nodes)
	assert.Equal(t, []domain.DataID{0}, sink.retired)
	assert.Equal(t, uint64(1), stats.Retirements)
}

func TestScheduler_Run_NilRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)

	_, err := scheduler.NewFactory(tracer).New(&recordingSink{}).Run(context.Background(), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInvariantViolation)
	require.ErrorContains(t, err, domain.ErrNilRoot.Error())
}

func TestScheduler_Run_SharedSession(t *testing.T) {
	session := scheduler.NewSession()
	pre := session.NewData()

	var inRun domain.DataID
	root := scheduler.Func("f", func(ec ports.ExecContext, _ []domain.Result) domain.Result {
		inRun = ec.NewData().ID()
		ec.Task(0, pre.ID(), nil, "", 0)
		return taskResult{}
	})

	s := scheduler.New(&recordingSink{}, scheduler.WithSession(session))
	_, err := s.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Same(t, session, s.Session())
	assert.Equal(t, domain.DataID(1), inRun)
	assert.Equal(t, uint64(1), session.Tasks())
	assert.Equal(t, uint64(0), session.Reductions())
}

func TestScheduler_Run_ExecutedRootIsNoop(t *testing.T) {
	root := compute("a", 0)
	sink := &recordingSink{}
	s := scheduler.New(sink)

	_, err := s.Run(context.Background(), root)
	require.NoError(t, err)

	stats, err := s.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStats{}, stats)
	assert.Len(t, sink.tasks, 1)
}

func TestScheduler_Run_InvariantViolations(t *testing.T) {
	tests := []struct {
		name        string
		root        func() *scheduler.Node
		errContains string
	}{
		{
			name: "No outcome",
			root: func() *scheduler.Node {
				return scheduler.NewNode("bad", func(ports.ExecContext, []domain.Result) scheduler.Outcome {
					return scheduler.Outcome{}
				})
			},
			errContains: "neither result nor continuer",
		},
		{
			name: "Both outcomes",
			root: func() *scheduler.Node {
				return scheduler.NewNode("bad", func(ports.ExecContext, []domain.Result) scheduler.Outcome {
					return scheduler.Both(taskResult{}, scheduler.Return(taskResult{}))
				})
			},
			errContains: "both result and continuer",
		},
		{
			name: "Unissued dependency",
			root: func() *scheduler.Node {
				return scheduler.Func("bad", func(ec ports.ExecContext, _ []domain.Result) domain.Result {
					ec.Task(0, 0, []domain.Dependency{{SrcTask: 42, Size: 1}}, "", 0)
					return taskResult{}
				})
			},
			errContains: "unissued task",
		},
		{
			name: "Unissued reduction task",
			root: func() *scheduler.Node {
				return scheduler.Func("bad", func(ec ports.ExecContext, _ []domain.Result) domain.Result {
					ec.Reduction(8, []domain.TaskID{3})
					return taskResult{}
				})
			},
			errContains: "unissued task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scheduler.New(&recordingSink{}).Run(context.Background(), tt.root())
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrInvariantViolation)
			require.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestScheduler_Run_ForeignPanicPropagates(t *testing.T) {
	root := scheduler.Func("boom", func(ports.ExecContext, []domain.Result) domain.Result {
		panic("boom")
	})

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = scheduler.New(&recordingSink{}).Run(context.Background(), root)
	})
}

type epochSink struct {
	*mocks.MockTraceSink
	*mocks.MockEpochSink
}

func TestScheduler_Run_EpochsAndTracing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	traceSink := mocks.NewMockTraceSink(ctrl)
	epochs := mocks.NewMockEpochSink(ctrl)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	traceSink.EXPECT().Task(gomock.Any()).Times(2)
	epochs.EXPECT().PostComputeExec().Times(2)
	tracer.EXPECT().Start(gomock.Any(), "scheduler.run", gomock.Any()).Return(context.Background(), span)
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).Times(4)
	span.EXPECT().End()

	d := compute("D", 0)
	root := idle("root", compute("A", 1, d))

	stats, err := scheduler.NewFactory(tracer).
		New(epochSink{MockTraceSink: traceSink, MockEpochSink: epochs}).
		Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Epochs)
	assert.Equal(t, uint64(3), stats.Nodes)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "fresh", scheduler.StateFresh.String())
	assert.Equal(t, "registered", scheduler.StateRegistered.String())
	assert.Equal(t, "continued", scheduler.StateContinued.String())
	assert.Equal(t, "executed", scheduler.StateExecuted.String())
	assert.Equal(t, "unknown", scheduler.State(9).String())
}
