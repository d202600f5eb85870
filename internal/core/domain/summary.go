package domain

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"
)

// RunStats counts what the scheduler did during one run.
type RunStats struct {
	Nodes         uint64 `json:"nodes"`
	Continuations uint64 `json:"continuations"`
	Tasks         uint64 `json:"tasks"`
	Reductions    uint64 `json:"reductions"`
	Retirements   uint64 `json:"retirements"`
	Epochs        uint64 `json:"epochs"`
}

// CommTotal accumulates messages between one ordered pair of ranks.
type CommTotal struct {
	Count uint64 `json:"count"`
	Bytes uint64 `json:"bytes"`
}

// RankSeconds is the cumulative simulated compute time of one rank.
type RankSeconds struct {
	Rank    Rank    `json:"rank"`
	Seconds float64 `json:"seconds"`
}

// CommEdge is the cumulative traffic from Src to Dst.
type CommEdge struct {
	Src Rank `json:"src"`
	Dst Rank `json:"dst"`
	CommTotal
}

// CommGraph is the aggregated compute and communication graph of a run.
type CommGraph struct {
	Compute []RankSeconds `json:"compute"`
	Comms   []CommEdge    `json:"comms"`
}

// NewCommGraph builds a graph with deterministic ordering from accumulated maps.
func NewCommGraph(compute map[Rank]float64, comms map[RankPair]CommTotal) CommGraph {
	g := CommGraph{
		Compute: make([]RankSeconds, 0, len(compute)),
		Comms:   make([]CommEdge, 0, len(comms)),
	}
	for r, s := range compute {
		g.Compute = append(g.Compute, RankSeconds{Rank: r, Seconds: s})
	}
	for p, t := range comms {
		g.Comms = append(g.Comms, CommEdge{Src: p.Src, Dst: p.Dst, CommTotal: t})
	}
	slices.SortFunc(g.Compute, func(a, b RankSeconds) int { return cmp.Compare(a.Rank, b.Rank) })
	slices.SortFunc(g.Comms, func(a, b CommEdge) int {
		return cmp.Or(cmp.Compare(a.Src, b.Src), cmp.Compare(a.Dst, b.Dst))
	})
	return g
}

// RunSummary is the persisted record of one session.
type RunSummary struct {
	Key      Digest       `json:"key"`
	Workload WorkloadKind `json:"workload"`
	Sink     SinkKind     `json:"sink"`
	Artifact string       `json:"artifact,omitempty"`
	Stats    RunStats     `json:"stats"`
	Graph    *CommGraph   `json:"graph,omitempty"`
	Verified *bool        `json:"verified,omitempty"`
}

// CommMatrix holds total bytes sent per ordered rank pair.
type CommMatrix map[RankPair]uint64

// WriteTSV writes the matrix as tab separated values: a header row of
// destination ranks, then one row per source rank. Ranks run from zero to
// the largest rank present.
func (m CommMatrix) WriteTSV(w io.Writer) error {
	maxRank := Rank(0)
	for p := range m {
		maxRank = max(maxRank, p.Src, p.Dst)
	}

	var b strings.Builder
	for dst := Rank(0); dst <= maxRank; dst++ {
		b.WriteByte('\t')
		b.WriteString(dst.String())
	}
	b.WriteByte('\n')
	for src := Rank(0); src <= maxRank; src++ {
		b.WriteString(src.String())
		for dst := Rank(0); dst <= maxRank; dst++ {
			b.WriteByte('\t')
			b.WriteString(strconv.FormatUint(m[RankPair{Src: src, Dst: dst}], 10))
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}
