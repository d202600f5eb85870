// Package workload builds demonstration expression graphs over a 1-D slab of
// boxes distributed across ranks.
//
// Box i lives on rank i / boxesPerRank. A smoothing sweep updates every box
// from itself and its two neighbors, which costs one ghost cell of halo per
// neighbor. The three workloads combine sweeps differently: a fixed number of
// sweeps, a residual loop closed by reductions, and one V-cycle over coarser
// levels.
package workload

import (
	"fmt"
	"slices"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/amrtrace/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// residualDecay is how much each converge iteration pretends to shrink the residual.
const residualDecay = 0.25

// normBytes is the payload of a residual norm reduction.
const normBytes = 8

// Box is the result of computing one box: the buffer it wrote and the task
// that wrote it.
type Box struct {
	Rank  domain.Rank
	Index int
	Level int
	Data  *domain.Data
	Task  domain.TaskID
}

// Datas returns the box buffer.
func (b *Box) Datas() []*domain.Data {
	return []*domain.Data{b.Data}
}

// Tasks returns the producing task.
func (b *Box) Tasks() []domain.TaskID {
	return []domain.TaskID{b.Task}
}

// Builder constructs the expression graph of a workload.
type Builder struct {
	cfg domain.WorkloadConfig
}

// New validates cfg and returns a Builder.
func New(cfg domain.WorkloadConfig) (*Builder, error) {
	switch cfg.Kind {
	case domain.WorkloadConverge, domain.WorkloadStencil, domain.WorkloadVCycle:
	default:
		return nil, zerr.With(domain.ErrInvalidWorkload, "kind", string(cfg.Kind))
	}
	if cfg.Ranks <= 0 || cfg.BoxesPerRank <= 0 || cfg.CellsPerBox <= 0 || cfg.ElemSize <= 0 {
		return nil, zerr.With(domain.ErrInvalidWorkload, "ranks", cfg.Ranks)
	}
	return &Builder{cfg: cfg}, nil
}

// Build returns the root node. The graph is built lazily: continuation
// nodes create further work only once their inputs have executed.
func (b *Builder) Build() *scheduler.Node {
	boxes := b.initial()
	switch b.cfg.Kind {
	case domain.WorkloadStencil:
		for step := range b.cfg.Sweeps {
			boxes = b.sweep("smooth", 0, step, boxes)
		}
		return scheduler.List("stencil", boxes...)
	case domain.WorkloadVCycle:
		return b.vcycle(boxes, 0)
	default:
		return b.converge(boxes, 0)
	}
}

func (b *Builder) boxBytes() uint64 {
	return uint64(b.cfg.CellsPerBox) * uint64(b.cfg.ElemSize)
}

func (b *Builder) haloBytes() uint64 {
	return uint64(b.cfg.ElemSize)
}

func (b *Builder) seconds() float64 {
	return float64(b.cfg.CellsPerBox) * b.cfg.SecondsPerCell
}

func (b *Builder) initial() []*scheduler.Node {
	n := b.cfg.Ranks * b.cfg.BoxesPerRank
	out := make([]*scheduler.Node, n)
	for i := range n {
		rank := domain.Rank(i / b.cfg.BoxesPerRank)
		out[i] = scheduler.Func("init", func(ec ports.ExecContext, _ []domain.Result) domain.Result {
			return b.compute(ec, rank, i, 0, nil, fmt.Sprintf("init b%d", i))
		})
	}
	return out
}

// sweep smooths every box from itself and its neighbors.
func (b *Builder) sweep(name string, level, step int, boxes []*scheduler.Node) []*scheduler.Node {
	out := make([]*scheduler.Node, len(boxes))
	for i := range boxes {
		children := []*scheduler.Node{boxes[i]}
		if i > 0 {
			children = append(children, boxes[i-1])
		}
		if i+1 < len(boxes) {
			children = append(children, boxes[i+1])
		}

		out[i] = scheduler.Func(name, func(ec ports.ExecContext, inputs []domain.Result) domain.Result {
			self := inputs[0].(*Box)
			deps := []domain.Dependency{b.dependency(name, level, step, self, self, b.boxBytes())}
			for _, in := range inputs[1:] {
				deps = append(deps, b.dependency(name, level, step, in.(*Box), self, b.haloBytes()))
			}
			note := fmt.Sprintf("%s l%d s%d b%d", name, level, step, self.Index)
			return b.compute(ec, self.Rank, self.Index, level, deps, note)
		}, children...)
	}
	return out
}

// converge sweeps, then reduces the residual norm and either stops or
// iterates on the items of the swept list.
func (b *Builder) converge(boxes []*scheduler.Node, iter int) *scheduler.Node {
	swept := b.sweep("smooth", 0, iter, boxes)
	list := scheduler.List("residual", swept...)

	residual := 1.0
	for range iter + 1 {
		residual *= residualDecay
	}
	return scheduler.Reduce("norm", list, normBytes, residual, func(r float64) *scheduler.Node {
		if r < b.cfg.Tolerance || iter+1 >= b.cfg.Sweeps {
			return list
		}
		return b.converge(scheduler.Items(list, len(swept)), iter+1)
	})
}

// vcycle smooths, restricts to the next level, recurses, then prolongs the
// coarse correction back and smooths again. It returns a List node of the
// boxes of this level.
func (b *Builder) vcycle(boxes []*scheduler.Node, level int) *scheduler.Node {
	smoothed := b.sweep("presmooth", level, 0, boxes)
	if level+1 >= b.cfg.Levels || len(smoothed) == 1 {
		list := scheduler.List("coarse", smoothed...)
		return scheduler.Reduce("coarse.solve", list, normBytes, 0.0, func(float64) *scheduler.Node {
			return list
		})
	}

	coarse := scheduler.List("coarse", b.restrict(level, smoothed)...)
	sub := b.vcycle(scheduler.Items(coarse, (len(smoothed)+1)/2), level+1)
	return scheduler.Bind("prolong", []*scheduler.Node{sub}, func(env scheduler.Env) *scheduler.Node {
		return scheduler.List("level", b.prolong(level, scheduler.Get[scheduler.ListResult](env, sub), smoothed)...)
	})
}

// restrict merges each pair of boxes into one box of the next level, owned
// by the rank of the first.
func (b *Builder) restrict(level int, fine []*scheduler.Node) []*scheduler.Node {
	out := make([]*scheduler.Node, 0, (len(fine)+1)/2)
	for j := 0; j < len(fine); j += 2 {
		children := slices.Clone(fine[j:min(j+2, len(fine))])
		out = append(out, scheduler.Func("restrict", func(ec ports.ExecContext, inputs []domain.Result) domain.Result {
			first := inputs[0].(*Box)
			deps := make([]domain.Dependency, 0, len(inputs))
			for _, in := range inputs {
				deps = append(deps, b.dependency("restrict", level, 0, in.(*Box), first, b.boxBytes()/2))
			}
			note := fmt.Sprintf("restrict l%d b%d", level+1, j/2)
			return b.compute(ec, first.Rank, j/2, level+1, deps, note)
		}, children...))
	}
	return out
}

// prolong interpolates the coarse boxes back onto the smoothed fine boxes,
// then post-smooths them.
func (b *Builder) prolong(level int, coarse scheduler.ListResult, smoothed []*scheduler.Node) []*scheduler.Node {
	fine := make([]*scheduler.Node, len(smoothed))
	for i := range smoothed {
		parent := scheduler.Return(coarse[i/2])
		fine[i] = scheduler.Func("prolong", func(ec ports.ExecContext, inputs []domain.Result) domain.Result {
			self := inputs[0].(*Box)
			deps := []domain.Dependency{
				b.dependency("prolong", level, 0, self, self, b.boxBytes()),
				b.dependency("prolong", level, 0, inputs[1].(*Box), self, b.boxBytes()/2),
			}
			note := fmt.Sprintf("prolong l%d b%d", level, self.Index)
			return b.compute(ec, self.Rank, self.Index, level, deps, note)
		}, smoothed[i], parent)
	}
	return b.sweep("postsmooth", level, 0, fine)
}

// dependency describes the region of src that dst reads in one step.
func (b *Builder) dependency(name string, level, step int, src, dst *Box, size uint64) domain.Dependency {
	digest := domain.NewDigester().
		WriteString(name).
		WriteInt(level).
		WriteInt(step).
		WriteInt(src.Index).
		WriteInt(dst.Index).
		Sum()
	return domain.Dependency{SrcTask: src.Task, Digest: digest, Size: size}
}

func (b *Builder) compute(ec ports.ExecContext, rank domain.Rank, index, level int, deps []domain.Dependency, note string) *Box {
	data := ec.NewData()
	task := ec.Task(rank, data.ID(), deps, note, b.seconds())
	return &Box{Rank: rank, Index: index, Level: level, Data: data, Task: task}
}
