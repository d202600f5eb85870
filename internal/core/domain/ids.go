package domain

import "strconv"

// TaskID identifies a scheduled task. Ids are issued monotonically by a session.
type TaskID uint64

// ReductionID identifies a collective. Ids are issued monotonically by a session.
type ReductionID uint64

// DataID identifies a logical buffer.
type DataID uint64

// Rank is the index of a simulated process.
type Rank int

// String returns the decimal form of the rank.
func (r Rank) String() string {
	return strconv.Itoa(int(r))
}

// RankPair is a directed (source, destination) pair of ranks.
type RankPair struct {
	Src Rank
	Dst Rank
}
