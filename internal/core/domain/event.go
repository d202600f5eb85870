package domain

// TaskEvent is one scheduled task as delivered to a trace sink.
type TaskEvent struct {
	ID   TaskID
	Rank Rank
	Data DataID
	// Deps holds at most one edge per source task.
	Deps []TaskDep
	// Reductions are the collectives the emitting node still causally waits on.
	Reductions []ReductionID
	Note       string
	Seconds    float64
}

// ReductionEvent is one collective as delivered to a trace sink.
type ReductionEvent struct {
	ID    ReductionID
	Bytes uint64
	// Tasks are the contributing tasks; their distinct ranks form the team.
	Tasks []TaskID
	// Reductions are earlier collectives this one is ordered after.
	Reductions []ReductionID
}

// Team is the ordered set of distinct ranks contributing to a collective,
// in order of first contribution.
type Team struct {
	members []Rank
	index   map[Rank]struct{}
}

// NewTeam creates an empty team.
func NewTeam() *Team {
	return &Team{index: make(map[Rank]struct{})}
}

// Add inserts a rank and reports whether it was new.
func (t *Team) Add(r Rank) bool {
	if _, ok := t.index[r]; ok {
		return false
	}
	t.index[r] = struct{}{}
	t.members = append(t.members, r)
	return true
}

// Has reports whether the rank is a member.
func (t *Team) Has(r Rank) bool {
	_, ok := t.index[r]
	return ok
}

// Members returns the ranks in first-contribution order.
// The returned slice must not be modified.
func (t *Team) Members() []Rank {
	return t.members
}

// Len returns the team size.
func (t *Team) Len() int {
	return len(t.members)
}
