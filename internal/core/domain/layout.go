package domain

import "path/filepath"

const (
	// StateDirName is the name of the internal workspace directory.
	StateDirName = ".amrtrace"

	// StoreDirName is the name of the run summary store directory.
	StoreDirName = "store"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "amrtrace.yaml"

	// DefaultOutputDir is where artifacts are written unless configured otherwise.
	DefaultOutputDir = "output"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the default path for the run summary store.
// It joins .amrtrace and store.
func DefaultStorePath() string {
	return filepath.Join(StateDirName, StoreDirName)
}
