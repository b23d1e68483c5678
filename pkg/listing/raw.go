// Package listing converts protocol specific directory entries into models.Entry.
package listing

import (
	"time"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

// RawEntry is one directory entry as returned by a transport.
// The set of implementations is closed: FTPEntry, SFTPEntry and LocalEntry.
type RawEntry interface {
	rawEntry()
	// EntryName returns the base name reported by the listing
	EntryName() string
}

// FTPEntry is an entry of an FTP LIST/MLSD response.
// FTP reports a single date and no access time.
type FTPEntry struct {
	Name   string
	Type   models.EntryType
	Size   int64
	Date   time.Time
	Rights models.Rights
	Owner  string
	Group  string
	Target string
	Sticky bool
}

// SFTPEntry is an entry of an SFTP READDIR response with epoch millisecond times.
type SFTPEntry struct {
	Name       string
	Type       models.EntryType
	Size       int64
	ModifyTime int64
	AccessTime int64
	Rights     models.Rights
	Owner      string
	Group      string
	LongName   string
}

// LocalEntry is an entry of a local directory, used by the local transport.
type LocalEntry struct {
	Name       string
	Type       models.EntryType
	Size       int64
	ModifyTime time.Time
	AccessTime time.Time
	Rights     models.Rights
}

func (FTPEntry) rawEntry()   {}
func (SFTPEntry) rawEntry()  {}
func (LocalEntry) rawEntry() {}

func (e FTPEntry) EntryName() string   { return e.Name }
func (e SFTPEntry) EntryName() string  { return e.Name }
func (e LocalEntry) EntryName() string { return e.Name }
