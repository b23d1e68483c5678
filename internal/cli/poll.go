package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/sdejongh/ftpwatch/pkg/config"
	"github.com/sdejongh/ftpwatch/pkg/logging"
	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/output"
	"github.com/sdejongh/ftpwatch/pkg/poll"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
)

// PollFlags holds poll command flags
type PollFlags struct {
	Targets []string
	Output  string
}

var pollFlags PollFlags

// NewPollCommand creates the poll command
func NewPollCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run one poll cycle and print the changes",
		Long: `Poll every configured target once, print the entries that changed since
the previous cycle and save the new snapshots.

Exits with status 1 when no target reported a change and 2 when a target
could not be polled.`,
		RunE: runPoll,
	}

	cmd.Flags().StringSliceVarP(&pollFlags.Targets, "target", "t", nil, "only poll the named targets")
	cmd.Flags().StringVarP(&pollFlags.Output, "output", "o", "", "output format: human, json (default from config)")

	return cmd
}

func runPoll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if pollFlags.Output != "" {
		cfg.Output.Format = pollFlags.Output
	}

	targets, err := selectTargets(cfg, pollFlags.Targets)
	if err != nil {
		return err
	}

	formatter, err := output.New(cfg.Output.Format)
	if err != nil {
		return err
	}

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	backend, err := snapshot.Open(ctx, cfg.State.SnapshotOptions())
	if err != nil {
		return fmt.Errorf("failed to open state backend: %w", err)
	}
	defer backend.Close()

	engines, err := buildEngines(cfg, targets, logger)
	if err != nil {
		return err
	}

	return pollOnce(ctx, cfg, backend, engines, formatter, stdoutFor(cfg, formatter), logger)
}

// pollOnce runs one cycle per engine in order and reports the results.
// It returns poll.ErrNothingFound when no target changed.
func pollOnce(ctx context.Context, cfg *config.Config, backend snapshot.Backend, engines []*poll.Engine, formatter output.Formatter, out io.Writer, logger logging.Logger) error {
	var progress *output.Progress
	if cfg.Output.Progress {
		progress = output.NewProgress(os.Stderr, len(engines))
	}

	var (
		changed bool
		failed  int
	)
	for i, e := range engines {
		report, err := poll.Cycle(ctx, backend, e)
		if err != nil {
			failed++
			logger.Error(ctx, "Poll failed", err, logging.Fields{"target": e.Target().String()})
			if report == nil {
				fmt.Fprintf(os.Stderr, "[%s] %v\n", e.Target(), err)
			}
		}

		if report != nil {
			if err := formatter.Report(out, report); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			if err == nil && poll.ManualResult(report) == nil {
				changed = true
			}
		}

		next := ""
		if i+1 < len(engines) {
			next = engines[i+1].Target().String()
		}
		progress.Step(next)
	}
	progress.Finish()

	if failed > 0 {
		return &ExitError{
			Code: models.StatusFailed.ExitCode(),
			Err:  fmt.Errorf("%d of %d target(s) could not be polled", failed, len(engines)),
		}
	}
	if !changed {
		return &ExitError{Code: 1, Err: poll.ErrNothingFound}
	}
	return nil
}

// stdoutFor returns where reports go; human output is dropped in quiet mode
func stdoutFor(cfg *config.Config, formatter output.Formatter) io.Writer {
	if cfg.Output.Quiet && formatter.Name() == "human" {
		return io.Discard
	}
	return os.Stdout
}

// IsNothingFound reports whether err means a manual poll found no changes
func IsNothingFound(err error) bool {
	return errors.Is(err, poll.ErrNothingFound)
}
