package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/sdejongh/ftpwatch/pkg/logging"
	"github.com/sdejongh/ftpwatch/pkg/metrics"
	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/output"
	"github.com/sdejongh/ftpwatch/pkg/poll"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
)

// WatchFlags holds watch command flags
type WatchFlags struct {
	Targets       []string
	Output        string
	Interval      time.Duration
	MetricsListen string
}

var watchFlags WatchFlags

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll targets on an interval and print changes as they happen",
		Long: `Poll every configured target on the configured interval until interrupted.
Changed entries are printed as they are detected; cycles without changes
print nothing. Failed cycles are logged and retried on the next tick.`,
		RunE: runWatch,
	}

	cmd.Flags().StringSliceVarP(&watchFlags.Targets, "target", "t", nil, "only watch the named targets")
	cmd.Flags().StringVarP(&watchFlags.Output, "output", "o", "", "output format: human, json (default from config)")
	cmd.Flags().DurationVarP(&watchFlags.Interval, "interval", "i", 0, "polling interval (default from config)")
	cmd.Flags().StringVar(&watchFlags.MetricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (e.g. \":9108\")")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchFlags.Output != "" {
		cfg.Output.Format = watchFlags.Output
	}
	if watchFlags.Interval > 0 {
		cfg.Polling.Interval = watchFlags.Interval
	}
	if watchFlags.MetricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = watchFlags.MetricsListen
	}

	targets, err := selectTargets(cfg, watchFlags.Targets)
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

	scheduler := poll.NewScheduler(backend, cfg.Polling.Interval, newEmitter(formatter, stdoutFor(cfg, formatter)), logger)
	for _, e := range engines {
		scheduler.Add(e)
	}

	if cfg.Metrics.Enabled {
		srv := startMetricsServer(ctx, cfg.Metrics.Listen, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// newEmitter serializes reports from concurrent targets onto w
func newEmitter(formatter output.Formatter, w io.Writer) poll.EmitFunc {
	var mu sync.Mutex
	return func(ctx context.Context, report *models.PollReport) error {
		mu.Lock()
		defer mu.Unlock()
		return formatter.Report(w, report)
	}
}

func startMetricsServer(ctx context.Context, addr string, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Serving metrics", logging.Fields{"listen": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Metrics server failed", err, logging.Fields{"listen": addr})
		}
	}()

	return srv
}
