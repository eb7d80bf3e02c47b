package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/metrics"
)

// Job is one unit of background notification work.
type Job struct {
	Kind string
	Run  func(ctx context.Context) error
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher drains a bounded queue with a fixed pool of workers. Enqueue never
// blocks; errors are logged and counted, never returned to the caller.
type Dispatcher struct {
	mu      sync.RWMutex
	closed  bool
	jobs    chan Job
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

func NewDispatcher(logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	return &Dispatcher{
		jobs:    make(chan Job, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.SendTimeout,
		logger:  logger,
	}
}

// Enqueue reports whether the job was accepted. Jobs offered after Run has
// returned are dropped.
func (d *Dispatcher) Enqueue(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(job, "notification dispatcher stopped, dropping job")
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		d.drop(job, "notification queue full, dropping job")
		return false
	}
}

func (d *Dispatcher) drop(job Job, msg string) {
	d.logger.Error(msg, "kind", job.Kind)
	metrics.IncNotification(job.Kind, "dropped")
}

// Run blocks until ctx is done, stops accepting jobs, then finishes whatever
// is still queued.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.drain()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			d.execute(ctx, job)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case job := <-d.jobs:
			d.execute(context.Background(), job)
		default:
			return
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		d.logger.Error("notification failed", "kind", job.Kind, "err", err)
		metrics.IncNotification(job.Kind, "failed")
		return
	}
	metrics.IncNotification(job.Kind, "sent")
}
