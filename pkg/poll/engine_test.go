package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sdejongh/ftpwatch/pkg/listing"
	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
	"github.com/sdejongh/ftpwatch/pkg/transport"
)

// fakeDialer serves a scripted listing and records session usage
type fakeDialer struct {
	listing    []listing.RawEntry
	stat       listing.RawEntry
	connectErr error
	listErr    error
	closeErr   error

	connects int
	closes   int
	listed   []string
	statted  []string
	deadline bool
}

func (d *fakeDialer) Connect(ctx context.Context, creds transport.Credentials) (transport.Session, error) {
	d.connects++
	if d.connectErr != nil {
		return nil, &transport.ConnectionError{Op: "connect", Address: "fake", Err: d.connectErr}
	}
	_, d.deadline = ctx.Deadline()
	return &fakeSession{d: d}, nil
}

type fakeSession struct {
	d *fakeDialer
}

func (s *fakeSession) List(ctx context.Context, path string) ([]listing.RawEntry, error) {
	s.d.listed = append(s.d.listed, path)
	if s.d.listErr != nil {
		return nil, &transport.ConnectionError{Op: "list", Address: "fake", Path: path, Err: s.d.listErr}
	}
	return s.d.listing, nil
}

func (s *fakeSession) Stat(ctx context.Context, path string) (listing.RawEntry, error) {
	s.d.statted = append(s.d.statted, path)
	if s.d.listErr != nil {
		return nil, &transport.ConnectionError{Op: "stat", Address: "fake", Path: path, Err: s.d.listErr}
	}
	return s.d.stat, nil
}

func (s *fakeSession) Close() error {
	s.d.closes++
	if s.d.closeErr != nil {
		return &transport.ConnectionError{Op: "close", Address: "fake", Err: s.d.closeErr}
	}
	return nil
}

func sftpFile(name string, mtime int64) listing.SFTPEntry {
	return listing.SFTPEntry{Name: name, Type: models.TypeFile, Size: 1, ModifyTime: mtime}
}

func sftpDir(name string, mtime int64) listing.SFTPEntry {
	return listing.SFTPEntry{Name: name, Type: models.TypeDirectory, ModifyTime: mtime}
}

func folderTarget(event models.EventKind) *models.WatchTarget {
	return &models.WatchTarget{
		Name:      "test",
		Protocol:  models.ProtocolSFTP,
		TriggerOn: models.TriggerSpecificFolder,
		Path:      "/watch/",
		Event:     event,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var clock = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEngine_FirstPollReportsCreated(t *testing.T) {
	d := &fakeDialer{listing: []listing.RawEntry{
		sftpFile("a.txt", 1000),
		sftpDir("b", 1000),
	}}
	e := NewEngine(d, transport.Credentials{}, folderTarget(models.EventFileCreated), WithClock(fixedClock(clock)))
	state := snapshot.NewState("test")

	report, err := e.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Status != models.StatusChanges {
		t.Errorf("Status = %s, want changes", report.Status)
	}
	if len(report.Entries) != 1 || report.Entries[0].Path != "/watch/a.txt" {
		t.Errorf("Entries = %+v", report.Entries)
	}
	if report.Listed != 2 || report.Tracked != 2 {
		t.Errorf("Listed/Tracked = %d/%d, want 2/2", report.Listed, report.Tracked)
	}
	if report.CycleID == "" {
		t.Error("CycleID should be set")
	}
	if !state.LastChecked.Equal(clock) {
		t.Errorf("LastChecked = %v, want %v", state.LastChecked, clock)
	}
	if len(d.listed) != 1 || d.listed[0] != "/watch" {
		t.Errorf("listed %v, want [/watch]", d.listed)
	}
	if d.closes != 1 {
		t.Errorf("session closed %d times, want 1", d.closes)
	}
}

func TestEngine_IdempotentSecondPoll(t *testing.T) {
	d := &fakeDialer{listing: []listing.RawEntry{sftpFile("a.txt", 1000)}}
	state := snapshot.NewState("test")

	for _, event := range []models.EventKind{models.EventFileCreated, models.EventFileUpdated, models.EventFileDeleted} {
		e := NewEngine(d, transport.Credentials{}, folderTarget(event))
		if _, err := e.Run(context.Background(), state); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		report, err := e.Run(context.Background(), state)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if report.Status != models.StatusNoChanges || len(report.Entries) != 0 {
			t.Errorf("%s: second poll = %s %v, want no changes", event, report.Status, report.Entries)
		}
		if err := ManualResult(report); !errors.Is(err, ErrNothingFound) {
			t.Errorf("ManualResult() = %v, want ErrNothingFound", err)
		}
	}
}

func TestEngine_UpdatedAndDeleted(t *testing.T) {
	state := snapshot.NewState("test")
	state.Replace(snapshot.Snapshot{
		"/watch/a.txt": {Type: "-", MTime: 100},
		"/watch/b.txt": {Type: "-", MTime: 100},
		"/other/c.txt": {Type: "-", MTime: 100},
	}, clock.Add(-time.Minute))

	d := &fakeDialer{listing: []listing.RawEntry{sftpFile("a.txt", 101)}}

	deleted := NewEngine(d, transport.Credentials{}, folderTarget(models.EventFileDeleted), WithClock(fixedClock(clock)))
	report, err := deleted.Run(context.Background(), state.Clone())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Entries) != 1 || report.Entries[0].Path != "/watch/b.txt" {
		t.Fatalf("deleted Entries = %+v", report.Entries)
	}
	if !report.Entries[0].ModifyTime.Equal(clock) {
		t.Errorf("deleted ModifyTime = %v, want %v", report.Entries[0].ModifyTime, clock)
	}

	updated := NewEngine(d, transport.Credentials{}, folderTarget(models.EventFileUpdated))
	report, err = updated.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Entries) != 1 || report.Entries[0].Path != "/watch/a.txt" {
		t.Errorf("updated Entries = %+v", report.Entries)
	}

	// Replace is wholesale: paths outside the listing are gone
	if state.Len() != 1 {
		t.Errorf("Len = %d, want 1", state.Len())
	}
}

func TestEngine_FetchErrorLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name   string
		dialer *fakeDialer
		wantOp string
		closes int
	}{
		{"connect", &fakeDialer{connectErr: errors.New("refused")}, "connect", 0},
		{"list", &fakeDialer{listErr: errors.New("550 no such directory")}, "list", 1},
		{"close", &fakeDialer{listing: []listing.RawEntry{sftpFile("new.txt", 5)}, closeErr: errors.New("broken pipe")}, "close", 1},
		{"list and close", &fakeDialer{listErr: errors.New("timeout"), closeErr: errors.New("broken pipe")}, "list", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := snapshot.NewState("test")
			before := snapshot.Snapshot{"/watch/a.txt": {Type: "-", MTime: 1}}
			checked := clock.Add(-time.Hour)
			state.Replace(before, checked)

			e := NewEngine(tt.dialer, transport.Credentials{}, folderTarget(models.EventFileCreated))
			report, err := e.Run(context.Background(), state)

			var connErr *transport.ConnectionError
			if !errors.As(err, &connErr) {
				t.Fatalf("Run() error = %v, want *transport.ConnectionError", err)
			}
			if connErr.Op != tt.wantOp {
				t.Errorf("Op = %s, want %s", connErr.Op, tt.wantOp)
			}
			if report.Status != models.StatusFailed || report.Error == "" {
				t.Errorf("report = %s %q, want failed", report.Status, report.Error)
			}
			if report.Status.ExitCode() != 2 {
				t.Errorf("ExitCode = %d, want 2", report.Status.ExitCode())
			}
			if state.Len() != 1 || !state.LastChecked.Equal(checked) {
				t.Error("state must be untouched after a failed fetch")
			}
			if tt.dialer.closes != tt.closes {
				t.Errorf("closes = %d, want %d", tt.dialer.closes, tt.closes)
			}
		})
	}
}

func TestEngine_SingleItem(t *testing.T) {
	t.Run("specificFile", func(t *testing.T) {
		d := &fakeDialer{stat: sftpFile("report.csv", 200)}
		target := &models.WatchTarget{
			Protocol:  models.ProtocolSFTP,
			TriggerOn: models.TriggerSpecificFile,
			Path:      "/data/report.csv",
			Event:     models.EventFileUpdated,
		}
		state := snapshot.NewState(target.StateKey())
		state.Replace(snapshot.Snapshot{"/data/report.csv": {Type: "-", MTime: 100}}, clock)

		report, err := NewEngine(d, transport.Credentials{}, target).Run(context.Background(), state)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(d.statted) != 1 || d.statted[0] != "/data/report.csv" || len(d.listed) != 0 {
			t.Errorf("statted %v listed %v", d.statted, d.listed)
		}
		if len(report.Entries) != 1 || report.Entries[0].Path != "/data/report.csv" {
			t.Errorf("Entries = %+v", report.Entries)
		}
	})

	t.Run("watchFolderUpdated", func(t *testing.T) {
		d := &fakeDialer{stat: sftpDir("watch", 300)}
		target := folderTarget(models.EventWatchFolderUpdated)
		state := snapshot.NewState("test")
		state.Replace(snapshot.Snapshot{"/watch": {Type: "d", MTime: 200}}, clock)

		report, err := NewEngine(d, transport.Credentials{}, target).Run(context.Background(), state)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(d.statted) != 1 || d.statted[0] != "/watch" {
			t.Errorf("statted %v, want [/watch]", d.statted)
		}
		if len(report.Entries) != 1 || report.Entries[0].Path != "/watch" {
			t.Errorf("Entries = %+v", report.Entries)
		}
	})
}

func TestEngine_Exclude(t *testing.T) {
	d := &fakeDialer{listing: []listing.RawEntry{
		sftpFile("a.txt", 1),
		sftpFile("a.txt.part", 1),
	}}
	ex, err := NewExcluder([]string{"*.part"})
	if err != nil {
		t.Fatalf("NewExcluder() error = %v", err)
	}

	state := snapshot.NewState("test")
	state.Replace(snapshot.Snapshot{"/watch/old.part": {Type: "-", MTime: 1}}, clock)

	created := NewEngine(d, transport.Credentials{}, folderTarget(models.EventFileCreated), WithExcluder(ex))
	report, err := created.Run(context.Background(), state.Clone())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Entries) != 1 || report.Entries[0].Name != "a.txt" {
		t.Errorf("created Entries = %+v", report.Entries)
	}

	// A path excluded after it was tracked is not reported as deleted
	deleted := NewEngine(d, transport.Credentials{}, folderTarget(models.EventFileDeleted), WithExcluder(ex))
	report, err = deleted.Run(context.Background(), state)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Entries) != 0 {
		t.Errorf("deleted Entries = %+v, want none", report.Entries)
	}
	if _, ok := state.Get("/watch/a.txt.part"); ok {
		t.Error("excluded entries should not be tracked")
	}
}

func TestEngine_ExcludeSkipsNamedPath(t *testing.T) {
	ex, err := NewExcluder([]string{"*.tmp"})
	if err != nil {
		t.Fatalf("NewExcluder() error = %v", err)
	}

	tests := []struct {
		name   string
		target *models.WatchTarget
		stat   listing.RawEntry
		path   string
	}{
		{
			name: "specificFile",
			target: &models.WatchTarget{
				Protocol:  models.ProtocolSFTP,
				TriggerOn: models.TriggerSpecificFile,
				Path:      "/data/x.tmp",
				Event:     models.EventFileUpdated,
			},
			stat: sftpFile("x.tmp", 200),
			path: "/data/x.tmp",
		},
		{
			name: "watchFolderUpdated",
			target: &models.WatchTarget{
				Protocol:  models.ProtocolSFTP,
				TriggerOn: models.TriggerSpecificFolder,
				Path:      "/data/work.tmp",
				Event:     models.EventWatchFolderUpdated,
			},
			stat: sftpDir("work.tmp", 200),
			path: "/data/work.tmp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDialer{stat: tt.stat}
			state := snapshot.NewState("test")
			state.Replace(snapshot.Snapshot{tt.path: {Type: string(tt.stat.(listing.SFTPEntry).Type), MTime: 100}}, clock)

			report, err := NewEngine(d, transport.Credentials{}, tt.target, WithExcluder(ex)).Run(context.Background(), state)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(report.Entries) != 1 || report.Entries[0].Path != tt.path {
				t.Errorf("Entries = %+v, want %s", report.Entries, tt.path)
			}
			if _, ok := state.Get(tt.path); !ok {
				t.Errorf("%s should stay tracked", tt.path)
			}
		})
	}
}

func TestEngine_Timeout(t *testing.T) {
	d := &fakeDialer{}
	target := folderTarget(models.EventFileCreated)
	target.Timeout = time.Second

	if _, err := NewEngine(d, transport.Credentials{}, target).Run(context.Background(), snapshot.NewState("test")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !d.deadline {
		t.Error("the fetch context should carry the target timeout")
	}
}

func TestManualResult(t *testing.T) {
	if err := ManualResult(&models.PollReport{Status: models.StatusChanges}); err != nil {
		t.Errorf("changes: %v", err)
	}
	if err := ManualResult(&models.PollReport{Status: models.StatusNoChanges}); !errors.Is(err, ErrNothingFound) {
		t.Errorf("no changes: %v", err)
	}
	if ErrNothingFound.Error() != "no data with the current filter could be found" {
		t.Errorf("message = %q", ErrNothingFound.Error())
	}
}
