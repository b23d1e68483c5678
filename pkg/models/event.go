package models

import (
	"fmt"
	"strings"
)

// EventKind is the change category a target watches for
type EventKind string

const (
	EventFileCreated        EventKind = "fileCreated"
	EventFileUpdated        EventKind = "fileUpdated"
	EventFileDeleted        EventKind = "fileDeleted"
	EventFolderCreated      EventKind = "folderCreated"
	EventFolderUpdated      EventKind = "folderUpdated"
	EventFolderDeleted      EventKind = "folderDeleted"
	EventWatchFolderUpdated EventKind = "watchFolderUpdated"
)

// ChangeType categorizes an event kind regardless of entry kind
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// AllEventKinds lists every supported event kind
var AllEventKinds = []EventKind{
	EventFileCreated,
	EventFileUpdated,
	EventFileDeleted,
	EventFolderCreated,
	EventFolderUpdated,
	EventFolderDeleted,
	EventWatchFolderUpdated,
}

// ParseEventKind parses an event kind name
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range AllEventKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event %q", s)
}

// IsFileEvent reports whether the kind is about files rather than folders
func (k EventKind) IsFileEvent() bool {
	return strings.HasPrefix(string(k), "file")
}

// Change returns the change category of the kind
func (k EventKind) Change() ChangeType {
	switch k {
	case EventFileCreated, EventFolderCreated:
		return ChangeCreated
	case EventFileDeleted, EventFolderDeleted:
		return ChangeDeleted
	default:
		return ChangeUpdated
	}
}

// Matches reports whether an entry of the given kind passes the event's type filter
func (k EventKind) Matches(kind EntryKind) bool {
	if k.IsFileEvent() {
		return kind == KindFile
	}
	return kind == KindDirectory
}

// TriggerOn selects what a target observes
type TriggerOn string

const (
	// TriggerSpecificFolder watches the direct children of a folder
	TriggerSpecificFolder TriggerOn = "specificFolder"
	// TriggerSpecificFile watches a single file
	TriggerSpecificFile TriggerOn = "specificFile"
)

// validEvents lists the event kinds each trigger accepts
var validEvents = map[TriggerOn][]EventKind{
	TriggerSpecificFolder: AllEventKinds,
	TriggerSpecificFile:   {EventFileUpdated},
}

// Accepts reports whether the trigger supports the event kind
func (t TriggerOn) Accepts(k EventKind) bool {
	for _, e := range validEvents[t] {
		if e == k {
			return true
		}
	}
	return false
}
