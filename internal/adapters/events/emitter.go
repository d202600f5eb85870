// Package events implements the ordered, verifiable event trace sink.
//
// Every task, transfer and collective becomes one XML element with a unique
// id and the ids it depends on. Ids are partitioned by kind so that sources
// never collide: task t owns id 3t, transfer c owns 3c+1 and reduction r owns
// 3r+2.
package events

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/amrtrace/internal/core/ports"
	"go.trai.ch/zerr"
)

// CompID returns the id of the compute event of a task.
func CompID(t domain.TaskID) uint64 { return 3 * uint64(t) }

// CommID returns the id of the n-th transfer event.
func CommID(n uint64) uint64 { return 3*n + 1 }

// CollID returns the id of the collective event of a reduction.
func CollID(r domain.ReductionID) uint64 { return 3*uint64(r) + 2 }

// Option configures an Emitter.
type Option func(*Emitter)

// WithSelfComms emits transfer events between tasks on the same rank instead
// of linking the compute events directly.
func WithSelfComms() Option {
	return func(e *Emitter) { e.selfComms = true }
}

// WithNotes adds each task's note to its compute event.
func WithNotes() Option {
	return func(e *Emitter) { e.notes = true }
}

// WithVerify records every event for Verify.
func WithVerify() Option {
	return func(e *Emitter) { e.verifier = NewVerifier() }
}

// WithPicker sets the policy choosing the sender of synthetic control messages.
func WithPicker(p ports.TeamPicker) Option {
	return func(e *Emitter) { e.picker = p }
}

// WithDiagnostics sets where Verify prints its report. Defaults to stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(e *Emitter) { e.diag = w }
}

// Emitter is a ports.TraceSink and ports.EpochSink writing the event trace.
type Emitter struct {
	w    *bufio.Writer
	err  error
	diag io.Writer

	selfComms bool
	notes     bool
	picker    ports.TeamPicker
	verifier  *Verifier

	tasks    map[domain.TaskID]domain.Rank
	datas    map[domain.DataID]*dataState
	teams    map[domain.ReductionID]*domain.Team
	nextComm uint64
	epoch    uint64
	totals   domain.CommMatrix
	closed   bool
}

type dataState struct {
	// comms maps a transfer key to the transfer already emitted into this buffer.
	comms map[domain.Digest]uint64
	tasks []domain.TaskID
}

// New creates an Emitter and writes the opening element to w.
func New(w io.Writer, opts ...Option) *Emitter {
	e := &Emitter{
		w:      bufio.NewWriter(w),
		diag:   os.Stderr,
		picker: NewRandomPicker(0),
		tasks:  make(map[domain.TaskID]domain.Rank),
		datas:  make(map[domain.DataID]*dataState),
		teams:  make(map[domain.ReductionID]*domain.Team),
		totals: make(domain.CommMatrix),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.write("<events>\n")
	return e
}

// Task emits the compute event of a task, preceded by the transfer events it
// needs. Reductions whose team holds the task's rank are depended on directly.
// Any other pending reduction not already carried by a transfer from a team
// member gets a zero byte control message from one.
func (e *Emitter) Task(ev domain.TaskEvent) {
	e.tasks[ev.ID] = ev.Rank
	data := e.data(ev.Data)
	data.tasks = append(data.tasks, ev.ID)

	var deps []uint64
	var left []domain.ReductionID
	for _, r := range ev.Reductions {
		if e.team(r).Has(ev.Rank) {
			deps = append(deps, CollID(r))
		} else {
			left = append(left, r)
		}
	}

	for _, dep := range ev.Deps {
		src := e.rank(dep.Task)
		key := domain.CommKey(ev.Rank, dep)

		var id uint64
		if n, ok := data.comms[key]; ok {
			id = CommID(n)
		} else if !e.selfComms && src == ev.Rank {
			id = CompID(dep.Task)
		} else {
			n := e.nextComm
			e.nextComm++
			data.comms[key] = n
			id = CommID(n)

			commDeps := []uint64{CompID(dep.Task)}
			for _, r := range ev.Reductions {
				if e.team(r).Has(src) {
					commDeps = append(commDeps, CollID(r))
					left = slices.DeleteFunc(left, func(l domain.ReductionID) bool { return l == r })
				}
			}
			e.writeComm(id, commDeps, src, ev.Rank, dep.Bytes)
			e.totals[domain.RankPair{Src: src, Dst: ev.Rank}] += dep.Bytes
		}
		deps = append(deps, id)
	}

	for _, r := range left {
		team := e.team(r)
		if team.Len() == 0 {
			deps = append(deps, CollID(r))
			continue
		}
		id := CommID(e.nextComm)
		e.nextComm++
		e.writeComm(id, []uint64{CollID(r)}, e.picker.Pick(team.Members()), ev.Rank, 0)
		deps = append(deps, id)
	}

	id := CompID(ev.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "<comp id=\"e%d\" dep=\"%s\" at=\"%d\" time=\"%s\" epoch=\"%d\" ",
		id, joinIDs(deps), ev.Rank, formatSeconds(ev.Seconds), e.epoch+1)
	if e.notes {
		fmt.Fprintf(&b, "note=\"%s\" ", escape(ev.Note))
	}
	b.WriteString("/>\n")
	e.write(b.String())
	e.define(id, deps)
}

// Reduction emits the collective event. The team is the distinct ranks of
// the contributing tasks in order of first contribution.
func (e *Emitter) Reduction(ev domain.ReductionEvent) {
	team := domain.NewTeam()
	deps := make([]uint64, 0, len(ev.Tasks)+len(ev.Reductions))
	for _, t := range ev.Tasks {
		deps = append(deps, CompID(t))
		team.Add(e.rank(t))
	}
	for _, r := range ev.Reductions {
		deps = append(deps, CollID(r))
	}
	e.teams[ev.ID] = team

	members := make([]string, team.Len())
	for i, r := range team.Members() {
		members[i] = r.String()
	}

	id := CollID(ev.ID)
	e.write(fmt.Sprintf("<coll id=\"e%d\" dep=\"%s\" type=\"ALLREDUCE\" team=\"%s\" size=\"%d\" epoch=\"%d\" />\n",
		id, joinIDs(deps), strings.Join(members, ","), ev.Bytes, e.epoch))
	e.define(id, deps)
}

// Retire forgets the buffer and every task that wrote it.
func (e *Emitter) Retire(id domain.DataID) {
	data, ok := e.datas[id]
	if !ok {
		return
	}
	for _, t := range data.tasks {
		delete(e.tasks, t)
	}
	delete(e.datas, id)
}

// PostComputeExec advances the epoch.
func (e *Emitter) PostComputeExec() {
	e.epoch++
}

// Epoch returns the current epoch.
func (e *Emitter) Epoch() uint64 {
	return e.epoch
}

// Close writes the closing element and flushes. It returns the first write
// error encountered during the run.
func (e *Emitter) Close() error {
	if e.closed {
		return e.err
	}
	e.closed = true
	e.write("</events>\n")
	if e.err == nil {
		if err := e.w.Flush(); err != nil {
			e.err = zerr.Wrap(err, domain.ErrEventWriteFailed.Error())
		}
	}
	return e.err
}

// Report verifies the events emitted so far. Without WithVerify it is empty.
func (e *Emitter) Report() VerifyReport {
	if e.verifier == nil {
		return VerifyReport{}
	}
	return e.verifier.Verify()
}

// Verify prints the report to the diagnostics writer and reports success.
func (e *Emitter) Verify() bool {
	r := e.Report()
	_, _ = r.WriteTo(e.diag)
	return r.OK()
}

// WriteTotals writes the bytes per rank pair matrix of emitted transfers as TSV.
// Control messages are not counted.
func (e *Emitter) WriteTotals(w io.Writer) error {
	return e.totals.WriteTSV(w)
}

// Live returns the number of tasks and buffers still tracked.
func (e *Emitter) Live() (tasks, datas int) {
	return len(e.tasks), len(e.datas)
}

func (e *Emitter) data(id domain.DataID) *dataState {
	d, ok := e.datas[id]
	if !ok {
		d = &dataState{comms: make(map[domain.Digest]uint64)}
		e.datas[id] = d
	}
	return d
}

func (e *Emitter) rank(t domain.TaskID) domain.Rank {
	r, ok := e.tasks[t]
	if !ok {
		domain.Violate(zerr.With(domain.ErrUnknownTask, "task", uint64(t)))
	}
	return r
}

func (e *Emitter) team(r domain.ReductionID) *domain.Team {
	t, ok := e.teams[r]
	if !ok {
		domain.Violate(zerr.With(domain.ErrUnknownReduction, "reduction", uint64(r)))
	}
	return t
}

func (e *Emitter) writeComm(id uint64, deps []uint64, src, dst domain.Rank, size uint64) {
	e.write(fmt.Sprintf("<comm id=\"e%d\" dep=\"%s\" from=\"%d\" to=\"%d\" size=\"%d\" epoch=\"%d\" />\n",
		id, joinIDs(deps), src, dst, size, e.epoch))
	e.define(id, deps)
}

func (e *Emitter) define(id uint64, deps []uint64) {
	if e.verifier != nil {
		e.verifier.Define(id, deps)
	}
}

func (e *Emitter) write(s string) {
	if e.err != nil {
		return
	}
	if _, err := e.w.WriteString(s); err != nil {
		e.err = zerr.Wrap(err, domain.ErrEventWriteFailed.Error())
	}
}

func joinIDs(ids []uint64) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('e')
		b.WriteString(strconv.FormatUint(id, 10))
	}
	return b.String()
}

// formatSeconds keeps six significant digits.
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'g', 6, 64)
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
