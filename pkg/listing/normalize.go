package listing

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/sdejongh/ftpwatch/internal/platform"
	"github.com/sdejongh/ftpwatch/pkg/models"
)

// Normalize converts a raw entry into the canonical entry shape.
//
// When singleItem is false the entry is a child of the listed folder and its
// path is built from watchedPath and the entry name. When singleItem is true
// the entry describes watchedPath itself.
func Normalize(raw RawEntry, watchedPath string, singleItem bool) models.Entry {
	var entry models.Entry

	switch r := raw.(type) {
	case FTPEntry:
		entry = models.Entry{
			Name:       r.Name,
			Type:       r.Type,
			Size:       r.Size,
			ModifyTime: r.Date,
			Rights:     r.Rights,
			Owner:      r.Owner,
			Group:      r.Group,
			Target:     r.Target,
			Sticky:     r.Sticky,
		}
	case SFTPEntry:
		entry = models.Entry{
			Name:       r.Name,
			Type:       r.Type,
			Size:       r.Size,
			ModifyTime: time.UnixMilli(r.ModifyTime),
			AccessTime: millisOrZero(r.AccessTime),
			Rights:     r.Rights,
			Owner:      r.Owner,
			Group:      r.Group,
			LongName:   r.LongName,
		}
	case LocalEntry:
		entry = models.Entry{
			Name:       r.Name,
			Type:       r.Type,
			Size:       r.Size,
			ModifyTime: r.ModifyTime,
			AccessTime: r.AccessTime,
			Rights:     r.Rights,
		}
	default:
		panic(fmt.Sprintf("listing: unsupported raw entry %T", raw))
	}

	entry.Path = entryPath(watchedPath, entry.Name, singleItem)
	return entry
}

// NormalizeAll normalizes every entry of a folder listing
func NormalizeAll(raws []RawEntry, watchedPath string, singleItem bool) []models.Entry {
	entries := make([]models.Entry, 0, len(raws))
	for _, raw := range raws {
		entries = append(entries, Normalize(raw, watchedPath, singleItem))
	}
	return entries
}

func entryPath(watchedPath, name string, singleItem bool) string {
	if singleItem {
		return watchedPath
	}
	return platform.JoinRemote(watchedPath, name)
}

// TypeFromMode maps file mode bits to a listing type code
func TypeFromMode(mode fs.FileMode) models.EntryType {
	switch {
	case mode.IsDir():
		return models.TypeDirectory
	case mode&fs.ModeSymlink != 0:
		return models.TypeSymlink
	case mode.IsRegular():
		return models.TypeFile
	case mode&fs.ModeNamedPipe != 0:
		return "p"
	case mode&fs.ModeSocket != 0:
		return "s"
	case mode&fs.ModeCharDevice != 0:
		return "c"
	case mode&fs.ModeDevice != 0:
		return "b"
	default:
		return "?"
	}
}

// RightsFromMode renders permission bits as the user/group/other triplets
// used by SFTP listings, e.g. 0754 -> {rwx, rx, r}
func RightsFromMode(mode fs.FileMode) models.Rights {
	perm := mode.Perm()
	return models.Rights{
		User:  triplet(perm >> 6),
		Group: triplet(perm >> 3),
		Other: triplet(perm),
	}
}

func triplet(bits fs.FileMode) string {
	s := ""
	if bits&4 != 0 {
		s += "r"
	}
	if bits&2 != 0 {
		s += "w"
	}
	if bits&1 != 0 {
		s += "x"
	}
	return s
}

// millisOrZero converts epoch milliseconds, keeping 0 as "not reported"
func millisOrZero(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
