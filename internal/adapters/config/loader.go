// Package config provides the configuration loader for amrtrace.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration. An explicit file is resolved against cwd and
// must exist. Without one, amrtrace.yaml is searched from cwd upwards and the
// defaults apply when none is found.
func (l *Loader) Load(cwd, file string) (domain.RunConfig, error) {
	configPath, found, err := l.resolvePath(cwd, file)
	if err != nil {
		return domain.RunConfig{}, err
	}
	if !found {
		l.Logger.Info(fmt.Sprintf("no %s found, using defaults", domain.ConfigFileName))
		cfg := domain.DefaultRunConfig()
		cfg.OutputDir = filepath.Join(cwd, cfg.OutputDir)
		return cfg, nil
	}

	var configfile Configfile
	if err := readAndUnmarshalYAML(configPath, &configfile); err != nil {
		return domain.RunConfig{}, zerr.With(err, "path", configPath)
	}

	if configfile.Version != "" && configfile.Version != "1" {
		l.Logger.Warn(fmt.Sprintf("unknown version %q in %s, reading it as version 1", configfile.Version, configPath))
	}

	return buildRunConfig(configPath, &configfile)
}

func (l *Loader) resolvePath(cwd, file string) (string, bool, error) {
	if file != "" {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, zerr.With(domain.ErrConfigNotFound, "path", path)
			}
			return "", false, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
		}
		return path, true, nil
	}

	path, ok := findConfiguration(cwd)
	return path, ok, nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		configPath := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", false
		}
		currentDir = parentDir
	}
}

func buildRunConfig(configPath string, configfile *Configfile) (domain.RunConfig, error) {
	workload, err := buildWorkload(&configfile.Workload)
	if err != nil {
		return domain.RunConfig{}, err
	}

	sinks, err := buildSinks(configfile.Sinks)
	if err != nil {
		return domain.RunConfig{}, err
	}

	return domain.RunConfig{
		Workload:     workload,
		Sinks:        sinks,
		OutputDir:    resolveDir(configPath, configfile.Output.Dir),
		SkipExisting: configfile.SkipExisting,
	}, nil
}

func buildWorkload(dto *WorkloadDTO) (domain.WorkloadConfig, error) {
	w := domain.DefaultWorkload()

	switch kind := domain.WorkloadKind(dto.Kind); kind {
	case "":
	case domain.WorkloadConverge, domain.WorkloadStencil, domain.WorkloadVCycle:
		w.Kind = kind
	default:
		return domain.WorkloadConfig{}, zerr.With(domain.ErrInvalidWorkload, "kind", dto.Kind)
	}

	ints := []struct {
		name  string
		value int
		dst   *int
	}{
		{"ranks", dto.Ranks, &w.Ranks},
		{"boxesPerRank", dto.BoxesPerRank, &w.BoxesPerRank},
		{"cellsPerBox", dto.CellsPerBox, &w.CellsPerBox},
		{"elemSize", dto.ElemSize, &w.ElemSize},
		{"sweeps", dto.Sweeps, &w.Sweeps},
		{"levels", dto.Levels, &w.Levels},
	}
	for _, f := range ints {
		if err := overrideNonNegative(f.name, f.value, f.dst); err != nil {
			return domain.WorkloadConfig{}, err
		}
	}

	if err := overrideNonNegative("tolerance", dto.Tolerance, &w.Tolerance); err != nil {
		return domain.WorkloadConfig{}, err
	}
	if err := overrideNonNegative("secondsPerCell", dto.SecondsPerCell, &w.SecondsPerCell); err != nil {
		return domain.WorkloadConfig{}, err
	}

	return w, nil
}

// overrideNonNegative keeps the default for zero and rejects negative values.
func overrideNonNegative[T int | float64](field string, value T, dst *T) error {
	if value < 0 {
		err := zerr.With(domain.ErrInvalidWorkload, "field", field)
		return zerr.With(err, "value", value)
	}
	if value > 0 {
		*dst = value
	}
	return nil
}

func buildSinks(dtos []SinkDTO) ([]domain.SinkConfig, error) {
	if len(dtos) == 0 {
		return domain.DefaultRunConfig().Sinks, nil
	}

	sinks := make([]domain.SinkConfig, 0, len(dtos))
	files := make(map[string]int, 2*len(dtos))
	claim := func(file string, index int) error {
		if file == "" {
			return nil
		}
		if first, exists := files[file]; exists {
			err := zerr.With(domain.ErrInvalidSink, "duplicate_file", file)
			err = zerr.With(err, "first_sink", first)
			return zerr.With(err, "sink", index)
		}
		files[file] = index
		return nil
	}

	for i := range dtos {
		sink, err := buildSink(&dtos[i])
		if err != nil {
			return nil, zerr.With(err, "sink", i)
		}
		if err := claim(sink.File, i); err != nil {
			return nil, err
		}
		if err := claim(sink.Totals, i); err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

func buildSink(dto *SinkDTO) (domain.SinkConfig, error) {
	sink := domain.SinkConfig{
		Kind:      domain.SinkKind(dto.Kind),
		File:      dto.File,
		Totals:    dto.Totals,
		SelfComms: dto.SelfComms,
		Notes:     dto.Notes,
		Verify:    dto.Verify,
		Seed:      dto.Seed,
		Picker:    domain.PickerKind(dto.Picker),
	}

	switch sink.Kind {
	case domain.SinkGraph:
		if sink.File == "" {
			sink.File = "graph.json"
		}
	case domain.SinkEvents:
		if sink.File == "" {
			sink.File = "events.xml"
		}
	default:
		return domain.SinkConfig{}, zerr.With(domain.ErrInvalidSink, "kind", dto.Kind)
	}

	paths := []struct {
		key  string
		path *string
	}{{"file", &sink.File}, {"totals", &sink.Totals}}
	for _, p := range paths {
		if *p.path == "" {
			continue
		}
		if !filepath.IsLocal(*p.path) {
			return domain.SinkConfig{}, zerr.With(domain.ErrSinkPathNotLocal, p.key, *p.path)
		}
		*p.path = filepath.Clean(*p.path)
	}

	switch sink.Picker {
	case "":
		sink.Picker = domain.PickerRandom
	case domain.PickerRandom, domain.PickerFirst:
	default:
		return domain.SinkConfig{}, zerr.With(domain.ErrInvalidPicker, "picker", dto.Picker)
	}

	return sink, nil
}

func resolveDir(configPath, configured string) string {
	configDir := filepath.Dir(configPath)
	if configured == "" {
		return filepath.Join(configDir, domain.DefaultOutputDir)
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(configDir, configured))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
