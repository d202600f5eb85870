package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/amrtrace/cmd/amrtrace/commands"
	"go.trai.ch/amrtrace/internal/app"
	"go.trai.ch/amrtrace/internal/build"
)

type mockApp struct {
	runFunc    func(ctx context.Context, opts app.RunOptions) error
	verifyFunc func(ctx context.Context, path string) error
	cleanFunc  func(ctx context.Context, opts app.CleanOptions) error
}

func (m *mockApp) Run(ctx context.Context, opts app.RunOptions) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Verify(ctx context.Context, path string) error {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, path)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

// jsonLogger records mode switches.
type jsonLogger struct {
	json bool
}

func (l *jsonLogger) Info(string)     {}
func (l *jsonLogger) Warn(string)     {}
func (l *jsonLogger) Error(error)     {}
func (l *jsonLogger) SetJSON(ok bool) { l.json = ok }

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.RunOptions
		called := false

		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) error {
				captured = opts
				called = true
				return nil
			},
		}

		cli := commands.New(mock, &jsonLogger{})
		cli.SetArgs([]string{
			"run", "--config", "trace.yaml", "--sink", "events", "--sink", "graph",
			"--out", "artifacts", "--seed", "42", "--no-cache",
		})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, "trace.yaml", captured.ConfigFile)
		assert.Equal(t, []string{"events", "graph"}, captured.Sinks)
		assert.Equal(t, "artifacts", captured.OutputDir)
		assert.True(t, captured.NoCache)
		require.NotNil(t, captured.Seed)
		assert.Equal(t, uint64(42), *captured.Seed)
	})

	t.Run("leaves seed unset without the flag", func(t *testing.T) {
		var captured app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) error {
				captured = opts
				return nil
			},
		}

		cli := commands.New(mock, &jsonLogger{})
		cli.SetArgs([]string{"run"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Nil(t, captured.Seed)
		assert.False(t, captured.NoCache)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ app.RunOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock, &jsonLogger{})
		cli.SetArgs([]string{"run"})
		// Silence output to avoid polluting test logs
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("switches the logger to json", func(t *testing.T) {
		log := &jsonLogger{}
		cli := commands.New(&mockApp{}, log)
		cli.SetArgs([]string{"run", "--json"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, log.json)
	})
}

func TestCommands_Verify(t *testing.T) {
	var path string
	mock := &mockApp{
		verifyFunc: func(_ context.Context, p string) error {
			path = p
			return nil
		},
	}

	cli := commands.New(mock, &jsonLogger{})
	cli.SetArgs([]string{"verify", "output/events.xml"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, "output/events.xml", path)

	cli = commands.New(mock, &jsonLogger{})
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
	cli.SetArgs([]string{"verify"})
	require.Error(t, cli.Execute(context.Background()))
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{
			name: "Default",
			args: []string{"clean"},
			want: app.CleanOptions{Store: true},
		},
		{
			name: "Output",
			args: []string{"clean", "--output"},
			want: app.CleanOptions{Output: true},
		},
		{
			name: "All",
			args: []string{"clean", "--all", "--config", "x.yaml"},
			want: app.CleanOptions{Store: true, Output: true, ConfigFile: "x.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured app.CleanOptions
			mock := &mockApp{
				cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
					captured = opts
					return nil
				},
			}

			cli := commands.New(mock, &jsonLogger{})
			cli.SetArgs(tt.args)
			require.NoError(t, cli.Execute(context.Background()))
			assert.Equal(t, tt.want, captured)
		})
	}
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{}, &jsonLogger{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "amrtrace version "+build.Version)
}
