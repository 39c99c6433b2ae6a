package server

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ticker advances simulation state by dt seconds.
type Ticker interface {
	Tick(dt float64)
}

// FrameDriver is a Service that ticks a Ticker once per interval with a fixed
// delta of interval seconds, regardless of wall-clock jitter.
//
// Invariant: Tick is only ever called from the Start goroutine.
type FrameDriver struct {
	target   Ticker
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
	frames  uint64
	// overruns counts frames whose Tick took longer than interval.
	overruns uint64
}

// NewFrameDriver creates a FrameDriver.
//
// Precondition: target must be non-nil; interval must be > 0.
func NewFrameDriver(target Ticker, interval time.Duration, logger *zap.Logger) *FrameDriver {
	if target == nil {
		panic("server.NewFrameDriver: target must not be nil")
	}
	if interval <= 0 {
		panic("server.NewFrameDriver: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameDriver{
		target:   target,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start runs the frame loop until Stop is called.
func (d *FrameDriver) Start() error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	dt := d.interval.Seconds()
	d.logger.Info("frame driver running",
		zap.Duration("interval", d.interval),
	)
	for {
		select {
		case <-d.stop:
			return nil
		case <-ticker.C:
			start := time.Now()
			d.target.Tick(dt)
			elapsed := time.Since(start)

			d.mu.Lock()
			d.frames++
			over := elapsed > d.interval
			if over {
				d.overruns++
			}
			d.mu.Unlock()
			if over {
				d.logger.Warn("frame overran interval",
					zap.Duration("elapsed", elapsed),
					zap.Duration("interval", d.interval),
				)
			}
		}
	}
}

// Stop ends the frame loop. Safe to call more than once.
func (d *FrameDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	close(d.stop)
	d.logger.Info("frame driver stopped",
		zap.Uint64("frames", d.frames),
		zap.Uint64("overruns", d.overruns),
	)
}

// Frames returns the number of frames driven so far.
func (d *FrameDriver) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}
