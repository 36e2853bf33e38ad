// Package tasks runs fire-and-forget side effects (notifications, audit
// records, rating recomputes) on a bounded worker pool so they never block
// or fail the request that triggered them.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Func is one unit of background work. It should honour ctx.
type Func func(ctx context.Context) error

// Submitter accepts background work. Submit reports false when the task was
// dead-lettered immediately because the queue was full or closed.
type Submitter interface {
	Submit(name string, fn Func) bool
}

// Config holds dispatcher sizing.
type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int

	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration

	// TaskTimeout bounds a single attempt.
	TaskTimeout time.Duration
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		QueueSize:   256,
		MaxAttempts: 3,
		Backoff:     200 * time.Millisecond,
		TaskTimeout: 10 * time.Second,
	}
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Submitted    uint64 `json:"submitted"`
	Succeeded    uint64 `json:"succeeded"`
	Retried      uint64 `json:"retried"`
	DeadLettered uint64 `json:"deadLettered"`
	Queued       int    `json:"queued"`
}

type task struct {
	name string
	fn   Func
}

// Dispatcher is a fixed pool of workers draining a bounded queue.
type Dispatcher struct {
	cfg    Config
	queue  chan task
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	submitted    atomic.Uint64
	succeeded    atomic.Uint64
	retried      atomic.Uint64
	deadLettered atomic.Uint64
}

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("dispatcher already closed")

// New creates a dispatcher and starts its workers.
func New(cfg Config, logger zerolog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:    cfg,
		queue:  make(chan task, cfg.QueueSize),
		logger: logger.With().Str("component", "tasks").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info().
		Int("workers", cfg.Workers).
		Int("queue_size", cfg.QueueSize).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("task dispatcher started")

	return d
}

// Submit enqueues fn without blocking.
func (d *Dispatcher) Submit(name string, fn Func) bool {
	d.submitted.Add(1)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.deadLetter(name, 0, errors.New("dispatcher closed"))
		return false
	}

	select {
	case d.queue <- task{name: name, fn: fn}:
		return true
	default:
		d.deadLetter(name, 0, errors.New("queue full"))
		return false
	}
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted:    d.submitted.Load(),
		Succeeded:    d.succeeded.Load(),
		Retried:      d.retried.Load(),
		DeadLettered: d.deadLettered.Load(),
		Queued:       len(d.queue),
	}
}

// Close stops intake and waits for queued tasks to finish. If ctx expires
// first, in-flight tasks are cancelled and ctx's error is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		stats := d.Stats()
		d.logger.Info().
			Uint64("succeeded", stats.Succeeded).
			Uint64("dead_lettered", stats.DeadLettered).
			Msg("task dispatcher drained")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		d.logger.Warn().Msg("task dispatcher drain interrupted")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for t := range d.queue {
		d.run(id, t)
	}
}

func (d *Dispatcher) run(worker int, t task) {
	var err error
	attempts := 0
	for attempts < d.cfg.MaxAttempts {
		attempts++
		err = d.attempt(t)
		if err == nil {
			d.succeeded.Add(1)
			return
		}
		if attempts == d.cfg.MaxAttempts || d.ctx.Err() != nil {
			break
		}

		d.logger.Warn().
			Err(err).
			Str("task", t.name).
			Int("worker", worker).
			Int("attempt", attempts).
			Msg("task failed, retrying")

		if !d.wait(d.cfg.Backoff * time.Duration(attempts)) {
			break
		}
		d.retried.Add(1)
	}
	d.deadLetter(t.name, attempts, err)
}

// wait sleeps for delay and reports false if the dispatcher is cancelled
// first.
func (d *Dispatcher) wait(delay time.Duration) bool {
	select {
	case <-time.After(delay):
		return true
	case <-d.ctx.Done():
		return false
	}
}

func (d *Dispatcher) attempt(t task) (err error) {
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return t.fn(ctx)
}

func (d *Dispatcher) deadLetter(name string, attempts int, err error) {
	d.deadLettered.Add(1)
	d.logger.Error().
		Err(err).
		Str("task", name).
		Int("attempts", attempts).
		Msg("task dead-lettered")
}

// Inline runs every task synchronously on the caller's goroutine with a
// single attempt. It suits tools and tests that need deterministic ordering.
type Inline struct {
	Logger zerolog.Logger
}

// Submit runs fn immediately and reports whether it succeeded.
func (i Inline) Submit(name string, fn Func) bool {
	if err := fn(context.Background()); err != nil {
		i.Logger.Error().Err(err).Str("task", name).Msg("inline task failed")
		return false
	}
	return true
}
