package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoState is returned by backends when nothing is stored under a key.
// Load never returns it; it converts it into a new empty state.
var ErrNoState = errors.New("no state stored")

// Backend persists states between poll cycles.
// Implementations include a local file, S3, PostgreSQL and memory.
type Backend interface {
	// Load returns the state stored under key, or a new empty state
	Load(ctx context.Context, key string) (*State, error)

	// Save persists the state under its key, replacing any previous copy
	Save(ctx context.Context, state *State) error

	// Clear removes the state stored under key
	Clear(ctx context.Context, key string) error

	// Close releases any resources held by the backend
	Close() error

	// Name returns the backend kind, e.g. "file"
	Name() string
}

func decodeState(data []byte, key string) (*State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}

	if state.Version > stateVersion {
		return nil, fmt.Errorf("state version %d is newer than supported version %d", state.Version, stateVersion)
	}

	state.normalize(key)
	return &state, nil
}

func encodeState(state *State) ([]byte, error) {
	if state.Version == 0 {
		state.Version = stateVersion
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}
