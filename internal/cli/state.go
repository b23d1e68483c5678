package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sdejongh/ftpwatch/pkg/config"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
)

// NewStateCommand creates the state command
func NewStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset stored snapshots",
		Long: `Inspect or reset the snapshot stored for a target.
Clearing a snapshot makes the next cycle report every entry as created.`,
	}

	cmd.AddCommand(newStateShowCommand())
	cmd.AddCommand(newStateClearCommand())

	return cmd
}

func newStateShowCommand() *cobra.Command {
	var (
		target string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the snapshot of a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTargetState(cmd.Context(), target, func(ctx context.Context, backend snapshot.Backend, key string) error {
				state, err := backend.Load(ctx, key)
				if err != nil {
					return fmt.Errorf("failed to load state: %w", err)
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(state)
				}
				return printState(cmd.OutOrStdout(), state)
			})
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "target name (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw state as JSON")
	cmd.MarkFlagRequired("target")

	return cmd
}

func newStateClearCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the snapshot of a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTargetState(cmd.Context(), target, func(ctx context.Context, backend snapshot.Backend, key string) error {
				if err := backend.Clear(ctx, key); err != nil {
					return fmt.Errorf("failed to clear state: %w", err)
				}
				if !globalFlags.Quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "State cleared for %s\n", target)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "target name (required)")
	cmd.MarkFlagRequired("target")

	return cmd
}

// withTargetState opens the configured backend and calls fn with the state
// key of the named target
func withTargetState(ctx context.Context, name string, fn func(context.Context, snapshot.Backend, string) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tc, err := cfg.Target(name)
	if err != nil {
		return err
	}

	return withBackend(ctx, cfg, func(backend snapshot.Backend) error {
		target := tc.WatchTarget()
		return fn(ctx, backend, target.StateKey())
	})
}

func withBackend(ctx context.Context, cfg *config.Config, fn func(snapshot.Backend) error) error {
	backend, err := snapshot.Open(ctx, cfg.State.SnapshotOptions())
	if err != nil {
		return fmt.Errorf("failed to open state backend: %w", err)
	}
	defer backend.Close()

	return fn(backend)
}

func printState(w io.Writer, state *snapshot.State) error {
	fmt.Fprintf(w, "Key:          %s\n", state.Key)
	if state.IsFirstPoll() {
		fmt.Fprintf(w, "Last checked: never\n")
	} else {
		fmt.Fprintf(w, "Last checked: %s\n", state.LastChecked.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Entries:      %d\n", state.Len())
	if state.Len() == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tMODIFIED\tPATH")
	for _, path := range state.Paths() {
		e, _ := state.Get(path)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Type, time.UnixMilli(e.MTime).Local().Format("2006-01-02 15:04:05"), path)
	}
	return tw.Flush()
}
