package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
)

// StatusRunnerConfig holds configuration for the status runner
type StatusRunnerConfig struct {
	// Interval is how often the status pass runs (default: 1h)
	Interval time.Duration

	// Location decides which calendar day "today" is (default: UTC)
	Location *time.Location
}

// DefaultStatusRunnerConfig returns sensible defaults
func DefaultStatusRunnerConfig() StatusRunnerConfig {
	return StatusRunnerConfig{
		Interval: time.Hour,
		Location: time.UTC,
	}
}

// StatusRunner runs a StatusProcessor on a ticker.
type StatusRunner struct {
	processor *StatusProcessor
	config    StatusRunnerConfig
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	last    StatusReport
}

// NewStatusRunner creates a new status runner
func NewStatusRunner(processor *StatusProcessor, config StatusRunnerConfig) *StatusRunner {
	if config.Interval <= 0 {
		config.Interval = DefaultStatusRunnerConfig().Interval
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &StatusRunner{
		processor: processor,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (r *StatusRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("status runner is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Status runner started",
		"interval", r.config.Interval,
		"timezone", r.config.Location.String())

	return nil
}

// Stop gracefully stops the runner and waits for the current pass.
func (r *StatusRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Status runner stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Status runner stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	return nil
}

// IsRunning returns whether the runner is currently running
func (r *StatusRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// LastReport returns the report of the most recent successful pass.
func (r *StatusRunner) LastReport() StatusReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// RunOnce performs a single status pass for the current day.
func (r *StatusRunner) RunOnce(ctx context.Context) (StatusReport, error) {
	today := core.Today(r.now(), r.config.Location)
	report, err := r.processor.ProcessStatuses(ctx, today)
	if err != nil {
		return StatusReport{}, err
	}
	r.mu.Lock()
	r.last = report
	r.mu.Unlock()
	return report, nil
}

func (r *StatusRunner) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Process immediately on startup
	r.tick(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *StatusRunner) tick(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Status pass failed", "error", err)
	}
}
