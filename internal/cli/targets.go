package cli

import (
	"fmt"

	"github.com/sdejongh/ftpwatch/pkg/config"
	"github.com/sdejongh/ftpwatch/pkg/logging"
	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/poll"
	"github.com/sdejongh/ftpwatch/pkg/transport"
)

// selectTargets returns the named targets, or all of them when names is empty
func selectTargets(cfg *config.Config, names []string) ([]config.TargetConfig, error) {
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets configured (run 'ftpwatch config init' to create a sample configuration)")
	}
	if len(names) == 0 {
		return cfg.Targets, nil
	}

	selected := make([]config.TargetConfig, 0, len(names))
	for _, name := range names {
		tc, err := cfg.Target(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, *tc)
	}
	return selected, nil
}

// newDialer returns the transport for a target
func newDialer(tc *config.TargetConfig) (transport.Dialer, error) {
	if tc.Protocol == models.ProtocolLocal && tc.Root != "" {
		return transport.NewLocal(tc.Root)
	}
	return transport.New(tc.Protocol)
}

// buildEngine wires the transport, credentials and exclusions of a target
func buildEngine(cfg *config.Config, tc *config.TargetConfig, logger logging.Logger) (*poll.Engine, error) {
	target := tc.WatchTarget()

	dialer, err := newDialer(tc)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.String(), err)
	}

	creds, err := tc.Credentials.Resolve()
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.String(), err)
	}

	excluder, err := poll.NewExcluder(cfg.Exclude, target.Exclude)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.String(), err)
	}

	return poll.NewEngine(dialer, creds, &target,
		poll.WithLogger(logger),
		poll.WithExcluder(excluder),
	), nil
}

func buildEngines(cfg *config.Config, targets []config.TargetConfig, logger logging.Logger) ([]*poll.Engine, error) {
	engines := make([]*poll.Engine, 0, len(targets))
	for i := range targets {
		e, err := buildEngine(cfg, &targets[i], logger)
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}
	return engines, nil
}
