package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

// Formatter defines the interface for emitting poll results
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Report writes the outcome of one poll cycle
	Report(w io.Writer, report *models.PollReport) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter registered under name
func New(name string) (Formatter, error) {
	switch name {
	case "human", "":
		return NewHumanFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (use: human, json)", name)
	}
}
