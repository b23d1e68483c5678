package models

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/sdejongh/ftpwatch/internal/platform"
)

// Protocol selects the transport used to reach a target
type Protocol string

const (
	ProtocolFTP   Protocol = "ftp"
	ProtocolSFTP  Protocol = "sftp"
	ProtocolLocal Protocol = "local"
)

// WatchTarget is one configured watch: a folder or a file plus the event to report
type WatchTarget struct {
	Name      string
	Protocol  Protocol
	Host      string
	TriggerOn TriggerOn
	Path      string
	Event     EventKind
	Exclude   []string
	Timeout   time.Duration // bounds one fetch, 0 = none
}

// Validate checks if the target configuration is valid
func (t *WatchTarget) Validate() error {
	if t.Path == "" {
		return &ValidationError{Field: "Path", Message: "path to watch is required"}
	}
	if err := platform.ValidatePath(t.Path); err != nil {
		return &ValidationError{Field: "Path", Message: err.Error()}
	}
	switch t.Protocol {
	case ProtocolFTP, ProtocolSFTP, ProtocolLocal:
	default:
		return &ValidationError{Field: "Protocol", Message: fmt.Sprintf("unsupported protocol %q (use: ftp, sftp, local)", t.Protocol)}
	}
	switch t.TriggerOn {
	case TriggerSpecificFolder, TriggerSpecificFile:
	default:
		return &ValidationError{Field: "TriggerOn", Message: fmt.Sprintf("unsupported trigger %q (use: specificFolder, specificFile)", t.TriggerOn)}
	}
	if !t.TriggerOn.Accepts(t.Event) {
		return &ValidationError{Field: "Event", Message: fmt.Sprintf("event %q is not valid for trigger %s", t.Event, t.TriggerOn)}
	}
	if t.Protocol == ProtocolFTP && t.SingleItem() && platform.NormalizeFolder(t.Path) == "/" {
		return &ValidationError{Field: "Path", Message: fmt.Sprintf("event %s cannot watch the FTP root folder", t.Event)}
	}
	if t.Timeout < 0 {
		return &ValidationError{Field: "Timeout", Message: "timeout cannot be negative"}
	}
	return nil
}

// SingleItem reports whether the target is observed through a stat of the
// watched path itself instead of a folder listing
func (t *WatchTarget) SingleItem() bool {
	return t.TriggerOn == TriggerSpecificFile || t.Event == EventWatchFolderUpdated
}

// StateKey identifies the snapshot owned by this target.
// Named targets use their name, anonymous ones a hash of what they watch.
func (t *WatchTarget) StateKey() string {
	if t.Name != "" {
		return t.Name
	}

	h := fnv.New64a()
	h.Write([]byte(string(t.Protocol) + "|" + t.Host + "|" + t.Path + "|" + string(t.Event)))
	return fmt.Sprintf("%016x", h.Sum64())
}

// String returns a short human label
func (t *WatchTarget) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s://%s%s", t.Protocol, t.Host, t.Path)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
