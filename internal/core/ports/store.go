package ports

import "go.trai.ch/amrtrace/internal/core/domain"

// SummaryStore persists run summaries keyed by the digest of their configuration.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SummaryStore interface {
	// Get retrieves the summary for a key.
	// Returns nil, nil if not found.
	Get(key domain.Digest) (*domain.RunSummary, error)

	// Put stores the summary under its key.
	Put(summary domain.RunSummary) error
}
