package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vendorhub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var (
	// ErrPoolNotRunning is returned when submitting to a stopped pool
	ErrPoolNotRunning = errors.New("worker pool is not running")
	// ErrQueueFull is returned when the task queue is at capacity
	ErrQueueFull = errors.New("worker pool queue is full")
)

// PoolConfig holds worker pool configuration
type PoolConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// DefaultPoolConfig returns defaults suitable for background onboarding work
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:     4,
		QueueSize:   100,
		TaskTimeout: 5 * time.Minute,
	}
}

// Pool is a bounded worker pool. Submit is the only enqueue path and always
// runs the task through Propagate, so work cannot reach a worker without its
// submission-time tenant identity attached.
type Pool struct {
	config PoolConfig
	logger *zap.Logger

	tasks     chan Task
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewPool creates a pool; call Start before submitting
func NewPool(config PoolConfig, log *zap.Logger) *Pool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	return &Pool{
		config: config,
		logger: log,
		tasks:  make(chan Task, config.QueueSize),
	}
}

// Start launches the workers
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("Worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize),
	)
	return nil
}

// Stop drains the pool, waiting for in-flight tasks until ctx expires
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Worker pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Worker pool stop timed out")
		return ctx.Err()
	}
}

// Submit enqueues task. The tenant identity active in ctx at this moment is
// the one the task will observe when it eventually runs.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	wrapped := Propagate(ctx, task)

	// The lock is held across the send: Stop flips isRunning under the same
	// lock before closing the channel, so a send can never hit a closed
	// channel.
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isRunning {
		return ErrPoolNotRunning
	}

	select {
	case p.tasks <- wrapped:
		return nil
	default:
		return ErrQueueFull
	}
}

// worker pulls tasks until the pool stops. Each task runs on a context
// derived fresh from the worker's base context: identity installed by
// Propagate dies with the invocation and cannot leak to the next task.
func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			// Drain what is already queued so accepted work still runs
			// with its captured identity during shutdown.
			for {
				select {
				case task, ok := <-p.tasks:
					if !ok {
						return
					}
					p.run(context.Background(), task, workerID)
				default:
					return
				}
			}
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(ctx, task, workerID)
		}
	}
}

func (p *Pool) run(base context.Context, task Task, workerID int) {
	runCtx := base
	var cancel context.CancelFunc
	if p.config.TaskTimeout > 0 {
		runCtx, cancel = context.WithTimeout(base, p.config.TaskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker task panicked",
				zap.Int("worker_id", workerID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := task(runCtx); err != nil {
		// The task context carries the propagated tenant, so the failure is
		// attributable without the task logging it itself.
		logger.WithLogger(runCtx, p.logger).Error("Worker task failed",
			zap.Int("worker_id", workerID),
			zap.Error(err),
		)
	}
}

// QueueDepth reports how many tasks are waiting; observability hook
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// String describes the pool for startup logs
func (p *Pool) String() string {
	return fmt.Sprintf("worker.Pool(workers=%d, queue=%d)", p.config.Workers, p.config.QueueSize)
}
