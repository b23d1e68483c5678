package models

import (
	"time"
)

// PollReport represents the outcome of one poll cycle
type PollReport struct {
	// Cycle details
	CycleID string
	Target  string
	Event   EventKind
	Path    string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Listed is the number of entries the transport returned
	Listed int
	// Tracked is the number of paths in the snapshot after the cycle
	Tracked int

	// Entries are the changed entries, empty unless Status is StatusChanges
	Entries []Entry

	// Error is set when Status is StatusFailed
	Error string

	Status PollStatus
}

// PollStatus represents the overall result of a cycle
type PollStatus string

const (
	// StatusChanges indicates at least one change was detected
	StatusChanges PollStatus = "changes"
	// StatusNoChanges indicates the cycle completed without detecting changes
	StatusNoChanges PollStatus = "no_changes"
	// StatusFailed indicates the listing could not be fetched
	StatusFailed PollStatus = "failed"
)

// HasChanges reports whether the cycle detected changes
func (r *PollReport) HasChanges() bool {
	return r.Status == StatusChanges
}

// ExitCode returns the appropriate exit code for the poll status
func (s PollStatus) ExitCode() int {
	switch s {
	case StatusChanges, StatusNoChanges:
		return 0
	case StatusFailed:
		return 2
	default:
		return 2
	}
}
