package mailx

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/logx"
)

// QueueProcessor runs one retry-queue sweep.
type QueueProcessor interface {
	ProcessQueue(ctx context.Context) (SweepResult, error)
}

// SweeperOptions configures a Sweeper.
type SweeperOptions struct {
	Interval        time.Duration
	ShutdownTimeout time.Duration
}

func defaultSweeperOptions() SweeperOptions {
	return SweeperOptions{
		Interval:        time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// SweeperOption is a functional option for configuring the sweeper.
type SweeperOption func(*SweeperOptions)

// WithSweepInterval sets the time between sweeps.
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(o *SweeperOptions) {
		if d > 0 {
			o.Interval = d
		}
	}
}

// WithShutdownTimeout bounds how long Start waits for an in-flight sweep
// after ctx is cancelled.
func WithShutdownTimeout(d time.Duration) SweeperOption {
	return func(o *SweeperOptions) {
		o.ShutdownTimeout = d
	}
}

// Sweeper calls ProcessQueue on a fixed interval.
type Sweeper struct {
	processor QueueProcessor
	opts      SweeperOptions
	mu        sync.Mutex
	running   bool
}

// NewSweeper builds a Sweeper around processor.
func NewSweeper(processor QueueProcessor, options ...SweeperOption) *Sweeper {
	opts := defaultSweeperOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Sweeper{processor: processor, opts: opts}
}

// Start sweeps until ctx is cancelled. It blocks.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return mailxErrors.New(ErrSweeperRunning)
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	logx.Infof("mailx: queue sweeper started (every %s)", s.opts.Interval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop(ctx)
	}()

	<-ctx.Done()
	logx.Info("mailx: stopping queue sweeper...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("mailx: queue sweeper stopped")
	case <-time.After(s.opts.ShutdownTimeout):
		logx.Warn("mailx: sweeper shutdown timed out, a sweep may still be running")
	}
	return nil
}

// Running reports whether Start is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	res, err := s.processor.ProcessQueue(ctx)
	if err != nil {
		if errx.IsCode(err, ErrSweepInProgress) {
			logx.Debug("mailx: sweep skipped, another sweep is running")
			return
		}
		logx.WithError(err).Warn("mailx: queue sweep failed")
		return
	}
	if res.Processed > 0 || res.Failed > 0 {
		logx.WithFields(logx.Fields{
			"processed": res.Processed,
			"failed":    res.Failed,
			"remaining": res.Remaining,
		}).Info("mailx: queue sweep finished")
	}
}
