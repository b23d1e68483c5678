package models

import (
	"time"
)

// EntryType is the raw type code reported by a listing.
// Codes other than file and directory are preserved as-is.
type EntryType string

const (
	// TypeFile is a regular file
	TypeFile EntryType = "-"
	// TypeDirectory is a directory
	TypeDirectory EntryType = "d"
	// TypeSymlink is a symbolic link
	TypeSymlink EntryType = "l"
)

// EntryKind is the normalized classification of an EntryType
type EntryKind int

const (
	KindOther EntryKind = iota
	KindFile
	KindDirectory
)

// Kind returns the normalized kind of the type code
func (t EntryType) Kind() EntryKind {
	switch t {
	case TypeFile:
		return KindFile
	case TypeDirectory:
		return KindDirectory
	default:
		return KindOther
	}
}

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "other"
	}
}

// Rights holds the permission triplets of an entry, e.g. "rwx", "r".
type Rights struct {
	User  string `json:"user"`
	Group string `json:"group"`
	Other string `json:"other"`
}

// Entry is one normalized filesystem object returned by a listing.
// It is also the record handed to result sinks.
type Entry struct {
	// Name is the base name
	Name string `json:"name"`

	// Type is the raw type code
	Type EntryType `json:"type"`

	// Size in bytes
	Size int64 `json:"size"`

	// ModifyTime is the last modification time, used for diffing
	ModifyTime time.Time `json:"modifyTime"`

	// AccessTime is best effort; FTP listings never provide it
	AccessTime time.Time `json:"accessTime,omitzero"`

	// Ownership and permission fields are carried through untouched
	Rights Rights `json:"rights"`
	Owner  string `json:"owner,omitempty"`
	Group  string `json:"group,omitempty"`

	// Target is the link target for symlinks
	Target string `json:"target,omitempty"`
	Sticky bool   `json:"sticky,omitempty"`

	// LongName is the raw listing line when the protocol exposes one
	LongName string `json:"longname,omitempty"`

	// Path is the absolute remote path
	Path string `json:"path"`
}

// Kind returns the normalized kind of the entry
func (e *Entry) Kind() EntryKind {
	return e.Type.Kind()
}

// ModifyMillis returns the modify time as epoch milliseconds
func (e *Entry) ModifyMillis() int64 {
	return e.ModifyTime.UnixMilli()
}
