// Package snapshot holds the path -> {type, mtime} state captured at the end
// of each poll cycle, and the backends that persist it between cycles.
package snapshot

import (
	"sort"
	"time"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

// Entry is the persisted state of one path
type Entry struct {
	// Type is the raw listing type code
	Type string `json:"type"`

	// MTime is the modify time in epoch milliseconds
	MTime int64 `json:"mtime"`
}

// Snapshot maps a path to its state
type Snapshot map[string]Entry

// FromEntries builds the snapshot of a listing
func FromEntries(entries []models.Entry) Snapshot {
	s := make(Snapshot, len(entries))
	for _, e := range entries {
		s[e.Path] = Entry{
			Type:  string(e.Type),
			MTime: e.ModifyMillis(),
		}
	}
	return s
}

// Clone returns a copy that shares nothing with s
func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for p, e := range s {
		c[p] = e
	}
	return c
}

// State is the snapshot store of one watch target.
// It is owned by the caller: loaded before a cycle, handed to the poll
// engine by reference, saved after. It is not safe for concurrent cycles.
type State struct {
	// Version for state file format compatibility
	Version int `json:"version"`

	// Key identifies the watch target
	Key string `json:"key"`

	// LastChecked is when the last successful cycle completed
	LastChecked time.Time `json:"last_checked"`

	// Files is the snapshot of the last successful cycle
	Files Snapshot `json:"files"`
}

const stateVersion = 1

// NewState creates a new empty state
func NewState(key string) *State {
	return &State{
		Version: stateVersion,
		Key:     key,
		Files:   make(Snapshot),
	}
}

// Get returns the recorded state of a path
func (s *State) Get(path string) (Entry, bool) {
	e, ok := s.Files[path]
	return e, ok
}

// Paths returns the tracked paths in sorted order
func (s *State) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of tracked paths
func (s *State) Len() int {
	return len(s.Files)
}

// Snapshot returns a copy of the current mapping
func (s *State) Snapshot() Snapshot {
	return s.Files.Clone()
}

// Replace installs next as the whole mapping. There is no merge: paths
// absent from next are dropped.
func (s *State) Replace(next Snapshot, checkedAt time.Time) {
	if next == nil {
		next = make(Snapshot)
	}
	s.Files = next
	s.LastChecked = checkedAt
}

// IsFirstPoll returns true if no cycle has completed yet
func (s *State) IsFirstPoll() bool {
	return s.LastChecked.IsZero()
}

// normalize fixes up a state decoded from storage
func (s *State) normalize(key string) {
	if s.Files == nil {
		s.Files = make(Snapshot)
	}
	if s.Key == "" {
		s.Key = key
	}
}
