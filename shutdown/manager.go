package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bgforge/core"
	"bgforge/logging"
)

// Manager coordinates graceful shutdown: it owns the session context, turns
// the first SIGINT/SIGTERM into a context cancellation, forces exit on the
// second, and runs registered cleanup functions in priority order.
type Manager struct {
	logger  *logging.Logger
	timeout time.Duration

	mu       sync.Mutex
	started  bool
	shutdown bool
	received os.Signal

	ctx    context.Context
	cancel context.CancelFunc

	registry *Registry
	signals  *SignalCounter
	sigChan  chan os.Signal
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the cleanup deadline. Default is 10 seconds; an
// interactive one-shot tool has little to wait for.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) { m.timeout = timeout }
}

// NewManager creates a Manager ready to coordinate shutdown.
func NewManager(logger *logging.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:   logger.Named("shutdown"),
		timeout:  10 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("second signal received, forcing immediate exit")
		os.Exit(core.ExitCodeAborted)
	})
	return m
}

// Context returns the context cancelled when shutdown begins. The workflow
// runs under it so a signal interrupts in-flight generation and pending
// prompts.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function. Lower priority values run first.
func (m *Manager) Register(name string, priority int, fn CleanupFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("registered cleanup handler",
		zap.String("name", name), zap.Int("priority", priority))
}

// Start begins listening for SIGINT and SIGTERM. Safe to call more than
// once.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range m.sigChan {
			if m.signals.Increment() == 1 {
				m.mu.Lock()
				m.received = sig
				m.mu.Unlock()
				m.logger.Info("shutdown signal received",
					zap.String("signal", sig.String()))
				m.cancel()
			}
		}
	}()
}

// Signal returns the first signal received, or nil if none arrived.
func (m *Manager) Signal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

// ExitCode maps the received signal to the conventional process exit code,
// or ExitCodeSuccess when no signal arrived.
func (m *Manager) ExitCode() int {
	switch m.Signal() {
	case syscall.SIGTERM:
		return core.ExitCodeSIGTERM
	case os.Interrupt:
		return core.ExitCodeAborted
	default:
		return core.ExitCodeSuccess
	}
}

// Shutdown runs the cleanup sequence under the configured timeout and stops
// signal handling. Idempotent; later calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	m.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.logger.Debug("running cleanup handlers",
		zap.Strings("handlers", m.registry.Names()))

	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Error("cleanup handler failed", zap.Error(err))
	}

	signal.Stop(m.sigChan)
	close(m.sigChan)

	m.logger.Debug("shutdown complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int("errors", len(errs)))
	if len(errs) > 0 {
		return fmt.Errorf("shutdown had %d errors", len(errs))
	}
	return nil
}
