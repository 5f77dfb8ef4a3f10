package app

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// refresher is the part of the dispatcher the poller drives.
type refresher interface {
	LoadSystemParameters(ctx context.Context) error
	LoadVipLevel(ctx context.Context) error
}

// StartPoller launches a background goroutine that refreshes the system
// parameters and vip level. Consecutive failures stretch the wait with
// calculateBackoff. It returns immediately.
func StartPoller(ctx context.Context, r refresher, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := refresh(ctx, r); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				wait := calculateBackoff(failures, interval)
				logger.Warn("refresh failed",
					slog.Int("failures", failures),
					slog.Duration("retry_in", wait),
					slog.String("error", err.Error()),
				)
				timer.Reset(wait)
				continue
			}
			if failures > 0 {
				logger.Info("refresh recovered", slog.Int("after_failures", failures))
			}
			failures = 0
			timer.Reset(interval)
		}
	}()
}

func refresh(ctx context.Context, r refresher) error {
	return errors.Join(
		r.LoadSystemParameters(ctx),
		r.LoadVipLevel(ctx),
	)
}

// calculateBackoff doubles base for every failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
