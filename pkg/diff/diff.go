// Package diff classifies the changes between the previous snapshot of a
// watch target and its current listing.
package diff

import (
	"strings"
	"time"

	"github.com/sdejongh/ftpwatch/internal/platform"
	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
)

// Previous is the read-only view of the last snapshot.
// *snapshot.State implements it.
type Previous interface {
	Get(path string) (snapshot.Entry, bool)
	Paths() []string
}

// Changes returns the entries matching kind between prev and current.
//
// Created kinds report current entries whose path prev does not know.
// Updated kinds report current entries whose path prev knows with a strictly
// older mtime. Deleted kinds report paths of prev under prefix that current
// no longer lists, as synthesized entries stamped with now.
// The result is then restricted to files or folders according to kind.
//
// A path that changed type between polls is not detected as such; it goes
// through the same rules and the type filter decides.
func Changes(prev Previous, current []models.Entry, kind models.EventKind, prefix string, now time.Time) []models.Entry {
	var changed []models.Entry

	switch kind.Change() {
	case models.ChangeCreated:
		changed = created(prev, current)
	case models.ChangeUpdated:
		changed = updated(prev, current)
	case models.ChangeDeleted:
		changed = deleted(prev, current, prefix, now)
	}

	return filterKind(changed, kind)
}

func created(prev Previous, current []models.Entry) []models.Entry {
	var out []models.Entry
	for _, e := range current {
		if _, ok := prev.Get(e.Path); !ok {
			out = append(out, e)
		}
	}
	return out
}

func updated(prev Previous, current []models.Entry) []models.Entry {
	var out []models.Entry
	for _, e := range current {
		old, ok := prev.Get(e.Path)
		if ok && old.MTime < e.ModifyMillis() {
			out = append(out, e)
		}
	}
	return out
}

func deleted(prev Previous, current []models.Entry, prefix string, now time.Time) []models.Entry {
	present := make(map[string]struct{}, len(current))
	for _, e := range current {
		present[e.Path] = struct{}{}
	}

	var out []models.Entry
	for _, p := range prev.Paths() {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if _, ok := present[p]; ok {
			continue
		}

		old, _ := prev.Get(p)
		out = append(out, models.Entry{
			Name:       platform.Base(p),
			Type:       models.EntryType(old.Type),
			Size:       0,
			ModifyTime: now,
			AccessTime: time.UnixMilli(old.MTime),
			Path:       p,
		})
	}
	return out
}

func filterKind(entries []models.Entry, kind models.EventKind) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if kind.Matches(e.Kind()) {
			out = append(out, e)
		}
	}
	return out
}
