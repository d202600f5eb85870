package domain

import "go.trai.ch/zerr"

var (
	// ErrInvariantViolation wraps every engine invariant failure returned by a run.
	ErrInvariantViolation = zerr.New("engine invariant violated")

	// ErrNodeReexecuted is raised when the scheduler dequeues a node that already executed.
	ErrNodeReexecuted = zerr.New("node executed twice")

	// ErrNoOutcome is raised when an execute step yields neither a result nor a continuer.
	ErrNoOutcome = zerr.New("node finished with neither result nor continuer")

	// ErrBothOutcomes is raised when an execute step yields a result and a continuer at once.
	ErrBothOutcomes = zerr.New("node finished with both result and continuer")

	// ErrChildPending is raised when a node becomes ready before all of its children executed.
	ErrChildPending = zerr.New("node ready with an unexecuted child")

	// ErrNilRoot is raised when a run starts without a root node.
	ErrNilRoot = zerr.New("run started without a root node")

	// ErrUnissuedTask is raised when a dependency names a task id that was not issued yet.
	ErrUnissuedTask = zerr.New("dependency references an unissued task")

	// ErrUnknownTask is raised when a sink receives a task id it never recorded.
	ErrUnknownTask = zerr.New("unknown source task")

	// ErrUnknownReduction is raised when a sink receives a reduction id it never recorded.
	ErrUnknownReduction = zerr.New("unknown reduction")

	// ErrInvalidDigest is returned when a digest cannot be parsed from text.
	ErrInvalidDigest = zerr.New("invalid digest, expected 32 hex characters")

	// ErrVerifyFailed is returned when an event trace fails verification.
	ErrVerifyFailed = zerr.New("event trace verification failed")

	// ErrEventParseFailed is returned when an event file cannot be parsed.
	ErrEventParseFailed = zerr.New("failed to parse event file")

	// ErrEventWriteFailed is returned when an event record cannot be written.
	ErrEventWriteFailed = zerr.New("failed to write event record")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find amrtrace.yaml")

	// ErrInvalidWorkload is returned when the workload section is invalid.
	ErrInvalidWorkload = zerr.New("invalid workload, expected kind 'converge', 'stencil' or 'vcycle'")

	// ErrInvalidSink is returned when a sink entry is invalid.
	ErrInvalidSink = zerr.New("invalid sink, expected kind 'graph' or 'events'")

	// ErrSinkPathNotLocal is returned when a sink file or totals path would
	// leave the output directory.
	ErrSinkPathNotLocal = zerr.New("sink path must be relative and stay inside the output directory")

	// ErrInvalidPicker is returned when a sink names an unknown picker.
	ErrInvalidPicker = zerr.New("invalid picker, expected 'random' or 'first'")

	// ErrStoreCreateFailed is returned when the summary store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create summary store directory")

	// ErrStoreReadFailed is returned when a run summary cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read run summary")

	// ErrStoreUnmarshalFailed is returned when a run summary cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal run summary")

	// ErrStoreMarshalFailed is returned when a run summary cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal run summary")

	// ErrStoreWriteFailed is returned when a run summary cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write run summary")

	// ErrOutputCreateFailed is returned when an artifact file cannot be created.
	ErrOutputCreateFailed = zerr.New("failed to create output file")

	// ErrRunFailed is returned when a session run fails.
	ErrRunFailed = zerr.New("run failed")
)

// InvariantError carries an engine invariant failure through a panic.
// The scheduler recovers it and returns it wrapped in ErrInvariantViolation.
type InvariantError struct {
	Err error
}

// Error implements error.
func (e *InvariantError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying sentinel.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Violate aborts the current run with err.
func Violate(err error) {
	panic(&InvariantError{Err: err})
}
