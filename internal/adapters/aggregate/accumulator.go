// Package aggregate implements a trace sink that reduces a run to per-rank
// compute totals and per rank pair communication totals.
package aggregate

import (
	"io"
	"slices"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/zerr"
)

// Accumulator is a ports.TraceSink. It is owned by the driving scheduler and
// must not be read while a run is in progress.
type Accumulator struct {
	tasks map[domain.TaskID]domain.Rank
	datas map[domain.DataID]*dataState

	compute map[domain.Rank]float64
	comms   map[domain.RankPair]domain.CommTotal
}

type dataState struct {
	// comms holds the keys of transfers already counted into this buffer.
	comms map[domain.Digest]struct{}
	tasks []domain.TaskID
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{
		tasks:   make(map[domain.TaskID]domain.Rank),
		datas:   make(map[domain.DataID]*dataState),
		compute: make(map[domain.Rank]float64),
		comms:   make(map[domain.RankPair]domain.CommTotal),
	}
}

// Task records compute seconds on the task's rank and one message for every
// cross-rank dependency not already counted for the same buffer.
func (a *Accumulator) Task(ev domain.TaskEvent) {
	a.tasks[ev.ID] = ev.Rank

	data := a.data(ev.Data)
	data.tasks = append(data.tasks, ev.ID)

	for _, dep := range ev.Deps {
		src, ok := a.tasks[dep.Task]
		if !ok {
			domain.Violate(zerr.With(domain.ErrUnknownTask, "task", uint64(dep.Task)))
		}
		if src == ev.Rank {
			continue
		}
		key := domain.CommKey(ev.Rank, dep)
		if _, seen := data.comms[key]; seen {
			continue
		}
		data.comms[key] = struct{}{}
		a.addComm(src, ev.Rank, dep.Bytes)
	}

	a.compute[ev.Rank] += ev.Seconds
}

// Reduction charges the collective as a binomial tree over its team sorted by
// rank: member i exchanges one message each way with member i&(i-1).
func (a *Accumulator) Reduction(ev domain.ReductionEvent) {
	team := domain.NewTeam()
	for _, t := range ev.Tasks {
		rank, ok := a.tasks[t]
		if !ok {
			domain.Violate(zerr.With(domain.ErrUnknownTask, "task", uint64(t)))
		}
		team.Add(rank)
	}

	ranks := slices.Clone(team.Members())
	slices.Sort(ranks)
	for i := 1; i < len(ranks); i++ {
		src := ranks[i]
		dst := ranks[flipLow(i)]
		a.addComm(src, dst, ev.Bytes)
		a.addComm(dst, src, ev.Bytes)
	}
}

// Retire forgets the buffer and every task that wrote it.
func (a *Accumulator) Retire(id domain.DataID) {
	data, ok := a.datas[id]
	if !ok {
		return
	}
	for _, t := range data.tasks {
		delete(a.tasks, t)
	}
	delete(a.datas, id)
}

// Compute returns cumulative compute seconds per rank.
func (a *Accumulator) Compute() map[domain.Rank]float64 {
	return a.compute
}

// Comms returns cumulative message totals per ordered rank pair.
func (a *Accumulator) Comms() map[domain.RankPair]domain.CommTotal {
	return a.comms
}

// Graph returns the totals in deterministic order.
func (a *Accumulator) Graph() domain.CommGraph {
	return domain.NewCommGraph(a.compute, a.comms)
}

// WriteTotals writes the bytes per rank pair matrix as TSV.
func (a *Accumulator) WriteTotals(w io.Writer) error {
	m := make(domain.CommMatrix, len(a.comms))
	for p, t := range a.comms {
		m[p] = t.Bytes
	}
	return m.WriteTSV(w)
}

// Live returns the number of tasks and buffers still tracked.
func (a *Accumulator) Live() (tasks, datas int) {
	return len(a.tasks), len(a.datas)
}

func (a *Accumulator) data(id domain.DataID) *dataState {
	d, ok := a.datas[id]
	if !ok {
		d = &dataState{comms: make(map[domain.Digest]struct{})}
		a.datas[id] = d
	}
	return d
}

func (a *Accumulator) addComm(src, dst domain.Rank, bytes uint64) {
	p := domain.RankPair{Src: src, Dst: dst}
	t := a.comms[p]
	t.Count++
	t.Bytes += bytes
	a.comms[p] = t
}

// flipLow clears the lowest set bit.
func flipLow(i int) int {
	return i & (i - 1)
}
