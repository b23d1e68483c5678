package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct{}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Report writes a summary line followed by one line per changed entry
func (f *HumanFormatter) Report(w io.Writer, report *models.PollReport) error {
	if w == nil {
		w = io.Discard
	}

	switch report.Status {
	case models.StatusFailed:
		_, err := fmt.Fprintf(w, "[%s] %s failed: %s\n", report.Target, report.Event, report.Error)
		return err
	case models.StatusNoChanges:
		_, err := fmt.Fprintf(w, "[%s] %s: no changes (%d entries, %s)\n",
			report.Target, report.Event, report.Listed, report.Duration.Round(time.Millisecond))
		return err
	}

	if _, err := fmt.Fprintf(w, "[%s] %s: %d change(s) in %s (%s)\n",
		report.Target, report.Event, len(report.Entries), report.Path,
		report.Duration.Round(time.Millisecond)); err != nil {
		return err
	}

	marker := changeMarker(report.Event)
	for _, e := range report.Entries {
		if _, err := fmt.Fprintf(w, "  %s %s  %s  %s\n",
			marker, e.Path, kindLabel(e), e.ModifyTime.Local().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func changeMarker(kind models.EventKind) string {
	switch kind.Change() {
	case models.ChangeCreated:
		return "+"
	case models.ChangeDeleted:
		return "-"
	default:
		return "~"
	}
}

func kindLabel(e models.Entry) string {
	if e.Kind() == models.KindDirectory {
		return "dir"
	}
	return formatBytes(e.Size)
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
