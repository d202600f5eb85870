// Package app implements the application layer for amrtrace.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"go.trai.ch/amrtrace/internal/adapters/aggregate"
	"go.trai.ch/amrtrace/internal/adapters/events"
	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/amrtrace/internal/engine/scheduler"
	"go.trai.ch/amrtrace/internal/workload"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	store        ports.SummaryStore
	tracer       ports.Tracer
	factory      *scheduler.Factory
	diag         io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	store ports.SummaryStore,
	tracer ports.Tracer,
	factory *scheduler.Factory,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		store:        store,
		tracer:       tracer,
		factory:      factory,
		diag:         os.Stderr,
	}
}

// WithDiagnostics sets where verification reports are printed.
func (a *App) WithDiagnostics(w io.Writer) *App {
	a.diag = w
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// WorkDir is where the config search starts. Defaults to the process working directory.
	WorkDir string
	// ConfigFile names an explicit config file instead of searching for amrtrace.yaml.
	ConfigFile string
	// Sinks keeps only the configured sinks of these kinds.
	Sinks []string
	// OutputDir overrides the configured output directory.
	OutputDir string
	// Seed, when set, overrides the picker seed of every sink.
	Seed *uint64
	// NoCache runs sessions even when a summary already exists.
	NoCache bool
}

// Run executes one session per configured sink. Sessions run concurrently
// and never share state; their failures are joined.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	cwd, err := workDir(opts.WorkDir)
	if err != nil {
		return err
	}

	cfg, err := a.configLoader.Load(cwd, opts.ConfigFile)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	if err := applyOverrides(&cfg, cwd, opts); err != nil {
		return err
	}

	names := make([]string, len(cfg.Sinks))
	for i, s := range cfg.Sinks {
		names[i] = sessionName(s)
	}
	a.tracer.EmitPlan(ctx, names)

	errs := make([]error, len(cfg.Sinks))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, sink := range cfg.Sinks {
		g.Go(func() error {
			errs[i] = a.runSession(ctx, cfg, sink, opts.NoCache)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (a *App) runSession(ctx context.Context, cfg domain.RunConfig, sink domain.SinkConfig, noCache bool) error {
	name := sessionName(sink)
	key := sink.Key(cfg.Workload)

	if cfg.SkipExisting && !noCache {
		existing, err := a.store.Get(key)
		if err != nil {
			return zerr.With(err, "session", name)
		}
		if existing != nil {
			a.logger.Info(fmt.Sprintf("skipping %s, summary %s exists", name, key))
			return nil
		}
	}

	builder, err := workload.New(cfg.Workload)
	if err != nil {
		return err
	}

	ctx, span := a.tracer.Start(ctx, name,
		ports.WithAttribute("workload", string(cfg.Workload.Kind)),
		ports.WithAttribute("sink", string(sink.Kind)),
	)
	defer span.End()

	summary, err := a.execute(ctx, cfg, sink, builder)
	if err != nil {
		span.RecordError(err)
		return zerr.With(err, "session", name)
	}
	summary.Key = key
	span.SetAttribute("tasks", summary.Stats.Tasks)

	if err := a.store.Put(summary); err != nil {
		return zerr.With(err, "session", name)
	}
	a.logger.Info(fmt.Sprintf("%s: %d tasks, %d reductions, %d epochs",
		name, summary.Stats.Tasks, summary.Stats.Reductions, summary.Stats.Epochs))
	return nil
}

// execute runs the workload through the sink and writes its artifacts.
func (a *App) execute(
	ctx context.Context,
	cfg domain.RunConfig,
	sink domain.SinkConfig,
	builder *workload.Builder,
) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		Workload: cfg.Workload.Kind,
		Sink:     sink.Kind,
		Artifact: filepath.Join(cfg.OutputDir, sink.File),
	}

	if err := os.MkdirAll(cfg.OutputDir, domain.DirPerm); err != nil {
		return summary, zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", cfg.OutputDir)
	}

	var totals interface{ WriteTotals(io.Writer) error }

	switch sink.Kind {
	case domain.SinkGraph:
		acc := aggregate.New()
		stats, err := a.factory.New(acc).Run(ctx, builder.Build())
		summary.Stats = stats
		if err != nil {
			return summary, errors.Join(domain.ErrRunFailed, err)
		}
		graph := acc.Graph()
		summary.Graph = &graph
		if err := writeFile(summary.Artifact, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(graph)
		}); err != nil {
			return summary, err
		}
		totals = acc

	case domain.SinkEvents:
		var emitter *events.Emitter
		var stats domain.RunStats
		var runErr error
		if err := writeFile(summary.Artifact, func(w io.Writer) error {
			emitter = events.New(w, emitterOptions(sink, a.diag)...)
			stats, runErr = a.factory.New(emitter).Run(ctx, builder.Build())
			return emitter.Close()
		}); err != nil {
			return summary, err
		}
		summary.Stats = stats
		if runErr != nil {
			return summary, errors.Join(domain.ErrRunFailed, runErr)
		}
		if sink.Verify {
			ok := emitter.Verify()
			summary.Verified = &ok
			if !ok {
				return summary, zerr.With(domain.ErrVerifyFailed, "path", summary.Artifact)
			}
		}
		totals = emitter

	default:
		return summary, zerr.With(domain.ErrInvalidSink, "kind", string(sink.Kind))
	}

	if sink.Totals != "" {
		if err := writeFile(filepath.Join(cfg.OutputDir, sink.Totals), totals.WriteTotals); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// Verify re-reads a written event file and checks it.
func (a *App) Verify(_ context.Context, path string) error {
	//nolint:gosec // Path is provided by the user
	f, err := os.Open(path)
	if err != nil {
		return zerr.With(errors.Join(domain.ErrEventParseFailed, err), "path", path)
	}
	defer func() { _ = f.Close() }()

	recs, err := events.ReadFile(f)
	if err != nil {
		return zerr.With(err, "path", path)
	}

	report := events.VerifyRecords(recs)
	_, _ = report.WriteTo(a.diag)
	if !report.OK() {
		return zerr.With(domain.ErrVerifyFailed, "path", path)
	}
	a.logger.Info(fmt.Sprintf("%s: %d events verified", path, report.Events))
	return nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Store  bool
	Output bool
	// WorkDir and ConfigFile locate the output directory when Output is set.
	WorkDir    string
	ConfigFile string
}

// Clean removes the summary store and written artifacts based on the provided options.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	var errs error

	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.Store {
		remove(domain.DefaultStorePath(), "summary store")
	}

	if options.Output {
		cwd, err := workDir(options.WorkDir)
		if err != nil {
			return errors.Join(errs, err)
		}
		cfg, err := a.configLoader.Load(cwd, options.ConfigFile)
		if err != nil {
			return errors.Join(errs, zerr.Wrap(err, "failed to load configuration"))
		}
		remove(cfg.OutputDir, "output directory")
	}

	return errs
}

func workDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get working directory")
	}
	return cwd, nil
}

func applyOverrides(cfg *domain.RunConfig, cwd string, opts RunOptions) error {
	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
		if !filepath.IsAbs(cfg.OutputDir) {
			cfg.OutputDir = filepath.Join(cwd, cfg.OutputDir)
		}
	}

	if len(opts.Sinks) > 0 {
		var kept []domain.SinkConfig
		for _, s := range cfg.Sinks {
			if slices.Contains(opts.Sinks, string(s.Kind)) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return zerr.With(domain.ErrInvalidSink, "sink", strings.Join(opts.Sinks, ","))
		}
		cfg.Sinks = kept
	} else {
		cfg.Sinks = slices.Clone(cfg.Sinks)
	}

	if opts.Seed != nil {
		for i := range cfg.Sinks {
			cfg.Sinks[i].Seed = *opts.Seed
		}
	}
	return nil
}

func emitterOptions(sink domain.SinkConfig, diag io.Writer) []events.Option {
	opts := []events.Option{events.WithDiagnostics(diag)}
	if sink.SelfComms {
		opts = append(opts, events.WithSelfComms())
	}
	if sink.Notes {
		opts = append(opts, events.WithNotes())
	}
	if sink.Verify {
		opts = append(opts, events.WithVerify())
	}
	if sink.Picker == domain.PickerFirst {
		opts = append(opts, events.WithPicker(events.FirstPicker{}))
	} else {
		opts = append(opts, events.WithPicker(events.NewRandomPicker(sink.Seed)))
	}
	return opts
}

func sessionName(s domain.SinkConfig) string {
	return string(s.Kind) + ":" + s.File
}

// writeFile creates path and hands it to fill. The file is closed on every path.
func writeFile(path string, fill func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", path)
	}

	//nolint:gosec // Path is derived from the validated configuration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm)
	if err != nil {
		return zerr.With(errors.Join(domain.ErrOutputCreateFailed, err), "path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = zerr.With(errors.Join(domain.ErrOutputCreateFailed, cerr), "path", path)
		}
	}()

	if err := fill(f); err != nil {
		return zerr.With(err, "path", path)
	}
	return nil
}
