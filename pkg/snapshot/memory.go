package snapshot

import (
	"context"
	"sync"
)

// MemoryBackend keeps states in process memory. States do not survive a
// restart, so every process start begins with a first poll.
type MemoryBackend struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewMemoryBackend creates an empty memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{states: make(map[string]*State)}
}

// Load returns a copy of the stored state, or a new empty state
func (b *MemoryBackend) Load(ctx context.Context, key string) (*State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, ok := b.states[key]
	if !ok {
		return NewState(key), nil
	}
	return stored.Clone(), nil
}

// Save stores a copy of the state
func (b *MemoryBackend) Save(ctx context.Context, state *State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.states[state.Key] = state.Clone()
	return nil
}

// Clear removes the state for key
func (b *MemoryBackend) Clear(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.states, key)
	return nil
}

// Close does nothing
func (b *MemoryBackend) Close() error {
	return nil
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	c := *s
	c.Files = s.Files.Clone()
	return &c
}

func (b *MemoryBackend) Name() string {
	return KindMemory
}
