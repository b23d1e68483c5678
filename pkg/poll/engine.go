// Package poll runs poll cycles: fetch a listing, diff it against the
// previous snapshot and install the new one.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/ftpwatch/internal/platform"
	"github.com/sdejongh/ftpwatch/pkg/diff"
	"github.com/sdejongh/ftpwatch/pkg/listing"
	"github.com/sdejongh/ftpwatch/pkg/logging"
	"github.com/sdejongh/ftpwatch/pkg/metrics"
	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
	"github.com/sdejongh/ftpwatch/pkg/transport"
)

// ErrNothingFound is returned for manually triggered cycles that detected
// no change
var ErrNothingFound = errors.New("no data with the current filter could be found")

// Engine runs poll cycles for one watch target
type Engine struct {
	dialer  transport.Dialer
	creds   transport.Credentials
	target  *models.WatchTarget
	exclude *Excluder
	logger  logging.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger; the default discards output
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithExcluder sets the name filter applied to listings
func WithExcluder(ex *Excluder) Option {
	return func(e *Engine) {
		e.exclude = ex
	}
}

// NewEngine creates an engine for target
func NewEngine(dialer transport.Dialer, creds transport.Credentials, target *models.WatchTarget, opts ...Option) *Engine {
	e := &Engine{
		dialer: dialer,
		creds:  creds,
		target: target,
		logger: logging.NewNullLogger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithFields(logging.Fields{"target": target.String()})
	return e
}

// Target returns the watch target of the engine
func (e *Engine) Target() *models.WatchTarget {
	return e.target
}

// Run executes one cycle against state.
//
// On success the state always holds the new listing, whether or not
// anything changed, and the report lists the changed entries. When the
// listing cannot be fetched the state is left untouched and the error is a
// *transport.ConnectionError.
func (e *Engine) Run(ctx context.Context, state *snapshot.State) (*models.PollReport, error) {
	report := &models.PollReport{
		CycleID:   e.newID(),
		Target:    e.target.String(),
		Event:     e.target.Event,
		Path:      e.target.Path,
		StartTime: e.now(),
	}

	e.logger.Debug(ctx, "Starting poll cycle", logging.Fields{
		"cycle_id":   report.CycleID,
		"event":      e.target.Event,
		"path":       e.target.Path,
		"first_poll": state.IsFirstPoll(),
	})

	watched := platform.NormalizeFolder(e.target.Path)
	single := e.target.SingleItem()

	raws, err := e.fetch(ctx, watched, single)
	if err != nil {
		var connErr *transport.ConnectionError
		if !errors.As(err, &connErr) {
			err = &transport.ConnectionError{Op: "fetch", Address: e.target.Host, Path: watched, Err: err}
		}
		report.Status = models.StatusFailed
		report.Error = err.Error()
		e.finish(report)
		e.logger.Error(ctx, "Poll cycle failed", err, logging.Fields{"cycle_id": report.CycleID})
		return report, err
	}

	// a path named explicitly is never excluded
	exclude := e.exclude
	if single {
		exclude = nil
	}

	current := exclude.Filter(listing.NormalizeAll(raws, watched, single))
	report.Listed = len(current)

	prefix := watched
	if !single {
		prefix = platform.FolderPrefix(watched)
	}

	now := e.now()
	changed := exclude.Filter(diff.Changes(state, current, e.target.Event, prefix, now))
	state.Replace(snapshot.FromEntries(current), now)

	report.Tracked = state.Len()
	report.Entries = changed
	report.Status = models.StatusNoChanges
	if len(changed) > 0 {
		report.Status = models.StatusChanges
	}
	e.finish(report)

	e.logger.Info(ctx, "Poll cycle completed", logging.Fields{
		"cycle_id": report.CycleID,
		"status":   report.Status,
		"listed":   report.Listed,
		"changes":  len(report.Entries),
		"duration": report.Duration.String(),
	})

	return report, nil
}

// fetch opens a session, lists or stats the watched path and closes the
// session again on every path
func (e *Engine) fetch(ctx context.Context, watched string, single bool) (raws []listing.RawEntry, err error) {
	if e.target.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.target.Timeout)
		defer cancel()
	}

	session, err := e.dialer.Connect(ctx, e.creds)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := session.Close()
		if closeErr == nil {
			return
		}
		if err != nil {
			e.logger.Warn(ctx, "Failed to close session", logging.Fields{"error": closeErr.Error()})
			return
		}
		raws, err = nil, closeErr
	}()

	if single {
		raw, err := session.Stat(ctx, watched)
		if err != nil {
			return nil, err
		}
		return []listing.RawEntry{raw}, nil
	}
	return session.List(ctx, watched)
}

func (e *Engine) finish(report *models.PollReport) {
	report.EndTime = e.now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	metrics.RecordCycle(report)
}

// ManualResult converts the report of a manually triggered cycle into the
// error surfaced to the user when nothing changed
func ManualResult(report *models.PollReport) error {
	if report != nil && report.Status == models.StatusNoChanges {
		return ErrNothingFound
	}
	return nil
}
