// Package server runs the arena's long-lived services: ordered startup,
// signal-driven shutdown in reverse order, and the fixed-step frame driver.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Start blocks until Stop is called or
// the service fails.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

// DefaultStopTimeout bounds each service's Stop unless overridden.
const DefaultStopTimeout = 10 * time.Second

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithSignals replaces the signals that trigger shutdown. No signals means
// only ctx or a failing service ends Run.
func WithSignals(sigs ...os.Signal) Option {
	return func(l *Lifecycle) { l.signals = sigs }
}

// WithStopTimeout bounds how long Run waits for each service's Stop.
func WithStopTimeout(d time.Duration) Option {
	return func(l *Lifecycle) {
		if d > 0 {
			l.stopTimeout = d
		}
	}
}

// Lifecycle starts services in registration order and stops them in
// reverse order.
type Lifecycle struct {
	logger      *zap.Logger
	signals     []os.Signal
	stopTimeout time.Duration

	mu       sync.Mutex
	services []entry
}

type entry struct {
	name string
	svc  Service
}

// NewLifecycle creates a Lifecycle that shuts down on SIGINT or SIGTERM.
func NewLifecycle(logger *zap.Logger, opts ...Option) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Lifecycle{
		logger:      logger,
		signals:     []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		stopTimeout: DefaultStopTimeout,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Add registers svc under name.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, entry{name: name, svc: svc})
}

// Run starts every service and blocks until a signal arrives, ctx is done or
// a service fails, then stops the services in reverse order.
//
// Postcondition: Every Stop has been called or has timed out. The returned
// error joins every service failure observed, or is nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	l.mu.Lock()
	services := append([]entry(nil), l.services...)
	l.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(services))
	for _, e := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", e.name))
			began := time.Now()
			if err := e.svc.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", e.name),
					zap.Duration("uptime", time.Since(began)),
					zap.Error(err),
				)
				errCh <- fmt.Errorf("service %s: %w", e.name, err)
				cancel()
			}
		}()
	}
	l.logger.Info("services started", zap.Strings("services", names(services)))

	var sigCh chan os.Signal
	if len(l.signals) > 0 {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, l.signals...)
		defer signal.Stop(sigCh)
	}

	select {
	case sig := <-sigCh:
		l.logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	}

	l.shutdown(services)

	var errs []error
drain:
	for {
		select {
		case err := <-errCh:
			errs = append(errs, err)
		default:
			break drain
		}
	}
	l.logger.Info("shutdown complete",
		zap.Duration("uptime", time.Since(start)),
		zap.Int("failures", len(errs)),
	)
	return errors.Join(errs...)
}

func (l *Lifecycle) shutdown(services []entry) {
	for i := len(services) - 1; i >= 0; i-- {
		e := services[i]
		began := time.Now()
		done := make(chan struct{})
		go func() {
			defer close(done)
			e.svc.Stop()
		}()
		timer := time.NewTimer(l.stopTimeout)
		select {
		case <-done:
			l.logger.Info("service stopped",
				zap.String("service", e.name),
				zap.Duration("elapsed", time.Since(began)),
			)
		case <-timer.C:
			l.logger.Warn("service stop timed out",
				zap.String("service", e.name),
				zap.Duration("timeout", l.stopTimeout),
			)
		}
		timer.Stop()
	}
}

func names(services []entry) []string {
	out := make([]string, len(services))
	for i, e := range services {
		out[i] = e.name
	}
	return out
}
