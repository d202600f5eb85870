// Package cas implements the content addressed run summary store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/amrtrace/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.SummaryStore using a file per configuration digest.
type Store struct {
	dir string
}

// NewStore creates a new SummaryStore backed by the directory at the given path.
// The directory is created on the first Put.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

// Get retrieves the summary stored under key.
func (s *Store) Get(key domain.Digest) (*domain.RunSummary, error) {
	filename := s.getFilename(key)
	//nolint:gosec // Path is constructed from trusted directory and digest filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "key", key.String())
	}

	return &summary, nil
}

// Put stores the summary under its key.
func (s *Store) Put(summary domain.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	//nolint:gosec // Path is constructed from trusted directory and digest filename
	if err := os.WriteFile(s.getFilename(summary.Key), data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	return nil
}

func (s *Store) getFilename(key domain.Digest) string {
	return filepath.Join(s.dir, key.String()+".json")
}
