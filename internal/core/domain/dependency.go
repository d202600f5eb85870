package domain

// Dependency describes one content-addressed transfer from an earlier task.
type Dependency struct {
	// SrcTask is the task that produced the data. It must already be issued.
	SrcTask TaskID
	// Digest fingerprints the transferred contents.
	Digest Digest
	// Size is the transfer size in bytes.
	Size uint64
}

// TaskDep is the single inbound edge from a source task after merging every
// Dependency that names it.
type TaskDep struct {
	Task   TaskID
	Bytes  uint64
	Digest Digest
}

// MergeDependencies collapses dependencies sharing a source task into one edge.
// Sizes are summed and digests combined by exclusive-or. The result keeps the
// order in which each source task first appears.
func MergeDependencies(deps []Dependency) []TaskDep {
	if len(deps) == 0 {
		return nil
	}

	merged := make([]TaskDep, 0, len(deps))
	index := make(map[TaskID]int, len(deps))
	for _, d := range deps {
		if i, ok := index[d.SrcTask]; ok {
			merged[i].Bytes += d.Size
			merged[i].Digest = merged[i].Digest.Xor(d.Digest)
			continue
		}
		index[d.SrcTask] = len(merged)
		merged = append(merged, TaskDep{Task: d.SrcTask, Bytes: d.Size, Digest: d.Digest})
	}
	return merged
}

// CommKey identifies a transfer into a buffer by its destination rank, its
// source task and the digest of what was sent. Transfers with equal keys are
// interchangeable.
func CommKey(dst Rank, dep TaskDep) Digest {
	return NewDigester().
		WriteInt(int(dst)).
		WriteUint64(uint64(dep.Task)).
		WriteDigest(dep.Digest).
		Sum()
}
