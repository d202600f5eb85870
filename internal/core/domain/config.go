package domain

// WorkloadKind selects the demonstration workload driving the engine.
type WorkloadKind string

const (
	// WorkloadConverge runs a residual loop that continues until a reduction says stop.
	WorkloadConverge WorkloadKind = "converge"
	// WorkloadStencil runs a fixed number of halo exchange sweeps.
	WorkloadStencil WorkloadKind = "stencil"
	// WorkloadVCycle runs a recursive restrict/smooth/prolong cycle.
	WorkloadVCycle WorkloadKind = "vcycle"
)

// SinkKind selects a trace backend.
type SinkKind string

const (
	// SinkGraph aggregates compute and communication totals.
	SinkGraph SinkKind = "graph"
	// SinkEvents writes the ordered, verifiable event trace.
	SinkEvents SinkKind = "events"
)

// PickerKind selects how the source of a synthetic control message is chosen.
type PickerKind string

const (
	// PickerRandom picks a seeded pseudo-random team member.
	PickerRandom PickerKind = "random"
	// PickerFirst always picks the first team member.
	PickerFirst PickerKind = "first"
)

// WorkloadConfig parameterizes the demonstration workload.
type WorkloadConfig struct {
	Kind           WorkloadKind
	Ranks          int
	BoxesPerRank   int
	CellsPerBox    int
	ElemSize       int
	Sweeps         int
	Tolerance      float64
	Levels         int
	SecondsPerCell float64
}

// SinkConfig describes one trace backend instance.
type SinkConfig struct {
	Kind SinkKind
	// File is the artifact path relative to the output directory.
	File string
	// Totals, when set, names a TSV file receiving the bytes per rank pair matrix.
	Totals    string
	SelfComms bool
	Notes     bool
	Verify    bool
	Seed      uint64
	Picker    PickerKind
}

// RunConfig is the validated configuration of one invocation.
type RunConfig struct {
	Workload     WorkloadConfig
	Sinks        []SinkConfig
	OutputDir    string
	SkipExisting bool
}

// DefaultWorkload returns the workload used when no config file is present.
func DefaultWorkload() WorkloadConfig {
	return WorkloadConfig{
		Kind:           WorkloadConverge,
		Ranks:          4,
		BoxesPerRank:   2,
		CellsPerBox:    32,
		ElemSize:       8,
		Sweeps:         8,
		Tolerance:      1e-3,
		Levels:         3,
		SecondsPerCell: 1e-8,
	}
}

// DefaultRunConfig returns the configuration used when no config file is present.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Workload:  DefaultWorkload(),
		Sinks:     []SinkConfig{{Kind: SinkGraph, File: "graph.json"}},
		OutputDir: DefaultOutputDir,
	}
}

// Key returns the content digest identifying a run of w through s.
func (s SinkConfig) Key(w WorkloadConfig) Digest {
	d := NewDigester()
	d.WriteString(string(w.Kind))
	d.WriteInt(w.Ranks)
	d.WriteInt(w.BoxesPerRank)
	d.WriteInt(w.CellsPerBox)
	d.WriteInt(w.ElemSize)
	d.WriteInt(w.Sweeps)
	d.WriteFloat64(w.Tolerance)
	d.WriteInt(w.Levels)
	d.WriteFloat64(w.SecondsPerCell)
	d.WriteString(string(s.Kind))
	d.WriteString(s.File)
	d.WriteString(s.Totals)
	d.WriteInt(boolInt(s.SelfComms))
	d.WriteInt(boolInt(s.Notes))
	d.WriteInt(boolInt(s.Verify))
	d.WriteUint64(s.Seed)
	d.WriteString(string(s.Picker))
	return d.Sum()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
