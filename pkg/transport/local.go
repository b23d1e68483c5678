package transport

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdejongh/ftpwatch/pkg/listing"
)

// Local serves watch targets from the local filesystem.
// Remote paths are resolved below Root; an empty Root uses them as-is.
type Local struct {
	Root string
}

// NewLocal creates a local dialer rooted at rootPath
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{Root: absPath}, nil
}

// Connect returns a session; credentials are ignored
func (l *Local) Connect(ctx context.Context, creds Credentials) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Op: "connect", Address: l.address(), Err: err}
	}
	return &localSession{root: l.Root}, nil
}

func (l *Local) address() string {
	if l.Root == "" {
		return "local"
	}
	return "local:" + l.Root
}

type localSession struct {
	root string
}

func (s *localSession) fullPath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *localSession) address() string {
	return (&Local{Root: s.root}).address()
}

// List returns the direct children of a directory
func (s *localSession) List(ctx context.Context, path string) ([]listing.RawEntry, error) {
	dirEntries, err := os.ReadDir(s.fullPath(path))
	if err != nil {
		return nil, &ConnectionError{Op: "list", Address: s.address(), Path: path, Err: err}
	}

	out := make([]listing.RawEntry, 0, len(dirEntries))
	for _, d := range dirEntries {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, &ConnectionError{Op: "list", Address: s.address(), Path: path, Err: ctx.Err()}
		default:
		}

		info, err := d.Info()
		if err != nil {
			// Removed between ReadDir and Info
			if os.IsNotExist(err) {
				continue
			}
			return nil, &ConnectionError{Op: "list", Address: s.address(), Path: path, Err: err}
		}
		out = append(out, fromLocalInfo(info))
	}

	return out, nil
}

// Stat returns the entry for path without following symlinks
func (s *localSession) Stat(ctx context.Context, path string) (listing.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Op: "stat", Address: s.address(), Path: path, Err: err}
	}

	info, err := os.Lstat(s.fullPath(path))
	if err != nil {
		return nil, &ConnectionError{Op: "stat", Address: s.address(), Path: path, Err: err}
	}
	return fromLocalInfo(info), nil
}

// Close releases resources (no-op for local filesystem)
func (s *localSession) Close() error {
	return nil
}

func fromLocalInfo(info fs.FileInfo) listing.LocalEntry {
	return listing.LocalEntry{
		Name:       info.Name(),
		Type:       listing.TypeFromMode(info.Mode()),
		Size:       info.Size(),
		ModifyTime: info.ModTime(),
		AccessTime: accessTime(info),
		Rights:     listing.RightsFromMode(info.Mode()),
	}
}
