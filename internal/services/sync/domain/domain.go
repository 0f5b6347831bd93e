// Package domain holds the core types and ports for the sync service
package domain

import (
	"algoliatap/internal/core/streams"
)

// Partition is one independent unit of extraction: a stream against an index.
// Partitions never share state and can run concurrently.
type Partition struct {
	Stream streams.Descriptor
	Index  string
}

// PartitionResult reports what happened to one partition during a run
type PartitionResult struct {
	Stream  string
	Index   string
	Windows int // windows attempted
	Records int // records written to the sink
	Failed  int // windows that failed
	Err     error
}

// Ok reports whether the partition completed with no failed windows
func (r PartitionResult) Ok() bool { return r.Err == nil && r.Failed == 0 }

// Summary aggregates a whole run
type Summary struct {
	Partitions []PartitionResult
	Records    int
}

// Failed counts partitions that did not complete cleanly
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Partitions {
		if !r.Ok() {
			n++
		}
	}
	return n
}
