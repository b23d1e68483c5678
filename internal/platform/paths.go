package platform

import (
	"path"
	"strings"
)

// Remote paths are always slash separated, whatever the local OS.

// NormalizeFolder strips trailing slashes from a remote folder path.
// The root folder stays "/".
func NormalizeFolder(folder string) string {
	trimmed := strings.TrimRight(folder, "/")
	if trimmed == "" && strings.HasPrefix(folder, "/") {
		return "/"
	}
	return trimmed
}

// JoinRemote joins a folder and a child name with exactly one slash.
// The child name is not cleaned, so names containing dots survive untouched.
func JoinRemote(folder, name string) string {
	if strings.HasSuffix(folder, "/") {
		return folder + name
	}
	return folder + "/" + name
}

// FolderPrefix returns the prefix shared by every direct child of folder
func FolderPrefix(folder string) string {
	if strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}

// Base returns the last element of a remote path
func Base(p string) string {
	return path.Base(p)
}

// Dir returns all but the last element of a remote path
func Dir(p string) string {
	return path.Dir(p)
}

// IsAbsolute checks if a remote path is absolute
func IsAbsolute(p string) bool {
	return strings.HasPrefix(p, "/")
}

// ValidatePath checks if a remote path can be watched
func ValidatePath(p string) error {
	if p == "" {
		return &PathError{Path: p, Message: "path is empty"}
	}
	if !IsAbsolute(p) {
		return &PathError{Path: p, Message: "path must be absolute"}
	}
	if strings.ContainsRune(p, 0) {
		return &PathError{Path: p, Message: "path contains a NUL byte"}
	}
	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
