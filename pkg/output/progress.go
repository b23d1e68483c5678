package output

import (
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

const progressTemplate = `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }}`

// Progress shows how many targets a one-shot poll has processed.
// A nil *Progress is valid and draws nothing.
type Progress struct {
	bar *pb.ProgressBar
}

// NewProgress starts a bar over total targets written to w. It returns nil
// when there is at most one target or when w is not a terminal.
func NewProgress(w io.Writer, total int) *Progress {
	if total < 2 || !isTerminal(w) {
		return nil
	}

	bar := pb.New(total)
	bar.SetTemplateString(progressTemplate)
	bar.SetWriter(w)
	bar.SetMaxWidth(80)
	bar.Start()
	return &Progress{bar: bar}
}

// Step marks one target as done and shows the next target's name
func (p *Progress) Step(next string) {
	if p == nil {
		return
	}
	if next != "" {
		p.bar.Set("prefix", next+" ")
	}
	p.bar.Increment()
}

// Finish stops the bar
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.bar.Set("prefix", "")
	p.bar.Finish()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
