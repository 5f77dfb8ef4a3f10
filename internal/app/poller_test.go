package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures", 2, 2 * time.Minute},
		{"three failures", 3, 4 * time.Minute},
		{"four failures capped", 4, 5 * time.Minute}, // Would be 8m, capped to 5m
		{"many failures capped", 40, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 80; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type countingRefresher struct {
	params atomic.Int32
	vip    atomic.Int32
	err    error
}

func (c *countingRefresher) LoadSystemParameters(context.Context) error {
	c.params.Add(1)
	return c.err
}

func (c *countingRefresher) LoadVipLevel(context.Context) error {
	c.vip.Add(1)
	return nil
}

func TestStartPoller_RefreshesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &countingRefresher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	StartPoller(ctx, r, 5*time.Millisecond, logger)

	deadline := time.Now().Add(2 * time.Second)
	for r.params.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if got := r.params.Load(); got < 3 {
		t.Fatalf("system parameter refreshes = %d, want >= 3", got)
	}
	if r.vip.Load() == 0 {
		t.Fatalf("vip level never refreshed")
	}
}

func TestRefresh_JoinsErrors(t *testing.T) {
	boom := errors.New("offline")
	r := &countingRefresher{err: boom}
	if err := refresh(context.Background(), r); !errors.Is(err, boom) {
		t.Fatalf("refresh error = %v, want %v", err, boom)
	}
	if r.vip.Load() != 1 {
		t.Fatalf("vip level should still refresh after a parameter failure")
	}
}
