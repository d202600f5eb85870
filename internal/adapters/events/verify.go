package events

import (
	"fmt"
	"io"
	"slices"
)

// Verifier checks that a sequence of event definitions forms a DAG whose
// dependencies are all defined before use.
type Verifier struct {
	defs []definition
	// defined tracks ids seen so far, to detect reuse and forward references.
	defined map[uint64]struct{}

	dupDeps   []uint64
	reused    []uint64
	undefined []uint64
}

type definition struct {
	id   uint64
	deps []uint64
}

// NewVerifier creates an empty Verifier.
func NewVerifier() *Verifier {
	return &Verifier{defined: make(map[uint64]struct{})}
}

// Define records one event.
func (v *Verifier) Define(id uint64, deps []uint64) {
	uniq := slices.Clone(deps)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)
	if len(uniq) != len(deps) {
		v.dupDeps = append(v.dupDeps, id)
	}

	for _, d := range uniq {
		if _, ok := v.defined[d]; !ok {
			v.undefined = append(v.undefined, id)
			break
		}
	}

	if _, ok := v.defined[id]; ok {
		v.reused = append(v.reused, id)
		return
	}
	v.defined[id] = struct{}{}
	v.defs = append(v.defs, definition{id: id, deps: uniq})
}

// Verify consumes the recorded events in topological order and reports
// every class of violation found.
func (v *Verifier) Verify() VerifyReport {
	waiting := make(map[uint64]int, len(v.defs))
	sats := make(map[uint64][]uint64, len(v.defs))
	var ready []uint64

	for _, d := range v.defs {
		waiting[d.id] = len(d.deps)
		for _, dep := range d.deps {
			sats[dep] = append(sats[dep], d.id)
		}
		if len(d.deps) == 0 {
			ready = append(ready, d.id)
		}
	}

	consumed := 0
	for len(ready) > 0 {
		id := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		consumed++
		for _, s := range sats[id] {
			waiting[s]--
			if waiting[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	return VerifyReport{
		Events:        len(v.defs),
		Consumed:      consumed,
		DuplicateDeps: slices.Clone(v.dupDeps),
		ReusedIDs:     slices.Clone(v.reused),
		UndefinedDeps: slices.Clone(v.undefined),
	}
}

// VerifyReport lists the events violating each invariant class. An event id
// appears in UndefinedDeps when one of its dependencies was not defined
// earlier in the sequence.
type VerifyReport struct {
	Events        int      `json:"events"`
	Consumed      int      `json:"consumed"`
	DuplicateDeps []uint64 `json:"duplicateDeps,omitempty"`
	ReusedIDs     []uint64 `json:"reusedIds,omitempty"`
	UndefinedDeps []uint64 `json:"undefinedDeps,omitempty"`
}

// Cyclic reports whether events were left unconsumed by the topological walk.
func (r VerifyReport) Cyclic() bool {
	return r.Consumed != r.Events
}

// OK reports whether every check passed.
func (r VerifyReport) OK() bool {
	return len(r.DuplicateDeps) == 0 && len(r.ReusedIDs) == 0 && len(r.UndefinedDeps) == 0 && !r.Cyclic()
}

// Failures returns one diagnostic line per failed class.
func (r VerifyReport) Failures() []string {
	var out []string
	if len(r.DuplicateDeps) > 0 {
		out = append(out, "VERIFY FAILED: dependency list contains duplicate ids.")
	}
	if len(r.ReusedIDs) > 0 {
		out = append(out, "VERIFY FAILED: id reused.")
	}
	if len(r.UndefinedDeps) > 0 {
		out = append(out, "VERIFY FAILED: dependency id not previously defined.")
	}
	if r.Cyclic() {
		out = append(out, "VERIFY FAILED: cycle detected!")
	}
	return out
}

// WriteTo prints the diagnostics, or a success line when every check passed.
func (r VerifyReport) WriteTo(w io.Writer) (int64, error) {
	lines := r.Failures()
	if len(lines) == 0 {
		lines = []string{"VERIFY SUCCESS"}
	}
	var total int64
	for _, l := range lines {
		n, err := fmt.Fprintln(w, l)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
