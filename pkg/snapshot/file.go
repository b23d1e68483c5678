package snapshot

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
)

// FileBackend stores each state as a JSON file in a directory
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir.
// An empty dir selects the user's config directory.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		var err error
		dir, err = DefaultStateDir()
		if err != nil {
			return nil, err
		}
	}
	return &FileBackend{dir: dir}, nil
}

// DefaultStateDir returns the directory used when none is configured
func DefaultStateDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "ftpwatch", "state"), nil
}

// Load loads the state for key. Returns a new empty state if the file doesn't exist.
func (b *FileBackend) Load(ctx context.Context, key string) (*State, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(key), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	return decodeState(data, key)
}

// Save persists the state atomically using a temp file
func (b *FileBackend) Save(ctx context.Context, state *State) error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := encodeState(state)
	if err != nil {
		return err
	}

	statePath := b.path(state.Key)
	tmpPath := statePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, statePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize state file: %w", err)
	}

	return nil
}

// Clear removes the state file for key
func (b *FileBackend) Clear(ctx context.Context, key string) error {
	err := os.Remove(b.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing
func (b *FileBackend) Close() error {
	return nil
}

// Path returns the file that holds the state for key
func (b *FileBackend) Path(key string) string {
	return b.path(key)
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, hashKey(key)+".json")
}

// hashKey turns a key into a filename-safe identifier (FNV-1a)
func hashKey(key string) string {
	h := fnv.New64a()
	h.Write([]byte(key))
	return fmt.Sprintf("%016x", h.Sum64())
}

func (b *FileBackend) Name() string {
	return KindFile
}
