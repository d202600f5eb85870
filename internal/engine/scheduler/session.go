package scheduler

import "go.trai.ch/amrtrace/internal/core/domain"

// Session issues task, reduction and buffer ids for one simulation run.
// Independent sessions never share ids. A Session is not safe for concurrent use.
type Session struct {
	tasks      uint64
	reductions uint64
	datas      uint64
}

// NewSession creates a session whose counters start at zero.
func NewSession() *Session {
	return &Session{}
}

// NewData allocates a buffer handle with a fresh id.
func (s *Session) NewData() *domain.Data {
	id := domain.DataID(s.datas)
	s.datas++
	return domain.NewData(id)
}

// Tasks returns the number of task ids issued so far.
func (s *Session) Tasks() uint64 {
	return s.tasks
}

// Reductions returns the number of reduction ids issued so far.
func (s *Session) Reductions() uint64 {
	return s.reductions
}

func (s *Session) issueTask() domain.TaskID {
	id := domain.TaskID(s.tasks)
	s.tasks++
	return id
}

func (s *Session) issueReduction() domain.ReductionID {
	id := domain.ReductionID(s.reductions)
	s.reductions++
	return id
}

func (s *Session) taskIssued(id domain.TaskID) bool {
	return uint64(id) < s.tasks
}

func (s *Session) reductionIssued(id domain.ReductionID) bool {
	return uint64(id) < s.reductions
}
