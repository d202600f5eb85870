package events

import (
	"math/rand/v2"

	"go.trai.ch/amrtrace/internal/core/domain"
)

// RandomPicker picks a pseudo-random team member from a seeded stream.
// Equal seeds give equal picks for equal call sequences.
type RandomPicker struct {
	rng *rand.Rand
}

// NewRandomPicker creates a RandomPicker.
func NewRandomPicker(seed uint64) *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // simulation only
}

// Pick returns a member of team, which must not be empty.
func (p *RandomPicker) Pick(team []domain.Rank) domain.Rank {
	return team[p.rng.IntN(len(team))]
}

// FirstPicker always picks the earliest contributing member.
type FirstPicker struct{}

// Pick returns team[0].
func (FirstPicker) Pick(team []domain.Rank) domain.Rank {
	return team[0]
}
