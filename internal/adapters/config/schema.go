package config

// Configfile represents the structure of the amrtrace.yaml configuration file.
type Configfile struct {
	Version      string      `yaml:"version"`
	Workload     WorkloadDTO `yaml:"workload"`
	Sinks        []SinkDTO   `yaml:"sinks"`
	Output       OutputDTO   `yaml:"output"`
	SkipExisting bool        `yaml:"skipExisting"`
}

// WorkloadDTO represents the workload section. Zero values select defaults.
type WorkloadDTO struct {
	Kind           string  `yaml:"kind"`
	Ranks          int     `yaml:"ranks"`
	BoxesPerRank   int     `yaml:"boxesPerRank"`
	CellsPerBox    int     `yaml:"cellsPerBox"`
	ElemSize       int     `yaml:"elemSize"`
	Sweeps         int     `yaml:"sweeps"`
	Tolerance      float64 `yaml:"tolerance"`
	Levels         int     `yaml:"levels"`
	SecondsPerCell float64 `yaml:"secondsPerCell"`
}

// SinkDTO represents one trace backend definition.
type SinkDTO struct {
	Kind      string `yaml:"kind"`
	File      string `yaml:"file"`
	Totals    string `yaml:"totals"`
	SelfComms bool   `yaml:"selfComms"`
	Notes     bool   `yaml:"notes"`
	Verify    bool   `yaml:"verify"`
	Seed      uint64 `yaml:"seed"`
	Picker    string `yaml:"picker"`
}

// OutputDTO represents the output section.
type OutputDTO struct {
	Dir string `yaml:"dir"`
}
