package scheduler

import "go.trai.ch/amrtrace/internal/core/domain"

// Both returns an outcome carrying a result and a continuer at once.
// This is exported for testing purposes only.
func Both(r domain.Result, next *Node) Outcome {
	return Outcome{result: r, next: next}
}
