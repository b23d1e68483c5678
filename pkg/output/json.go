package output

import (
	"encoding/json"
	"io"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

// JSONFormatter writes one JSON record per changed entry, one per line,
// for automation and scripting. Cycles without changes write nothing.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Report writes the changed entries of the report
func (f *JSONFormatter) Report(w io.Writer, report *models.PollReport) error {
	if w == nil || report.Status != models.StatusChanges {
		return nil
	}

	enc := json.NewEncoder(w)
	for _, e := range report.Entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
