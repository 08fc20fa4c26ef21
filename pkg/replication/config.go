package replication

import (
	"fmt"
	"time"

	"libsqlsync/pkg/config"
	"libsqlsync/pkg/ratelimit"
)

// OptionsFromConfig maps loaded configuration onto syncer options and
// returns the interval for Run
func OptionsFromConfig(cfg *config.Config) (*Options, time.Duration, error) {
	if cfg.Sync.Interval <= 0 {
		return nil, 0, fmt.Errorf("sync interval must be positive, got %s", cfg.Sync.Interval)
	}
	if cfg.Sync.PullsPerMinute < 0 || cfg.Sync.PullBurst < 0 {
		return nil, 0, fmt.Errorf("pull rate %d/min with burst %d is invalid", cfg.Sync.PullsPerMinute, cfg.Sync.PullBurst)
	}

	return &Options{
		Limiter: ratelimit.NewPullLimiter(cfg.Sync.PullsPerMinute, cfg.Sync.PullBurst),
	}, cfg.Sync.Interval, nil
}
