package workerpool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/niels/mdserve/pkg/logging"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidPoolSize is returned by New for a size below one
	ErrInvalidPoolSize = errors.New("invalid pool size")
	// ErrPoolClosed is returned by Execute after Shutdown
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Job is one unit of deferred work. Jobs report their own failures;
// the pool never sees a result.
type Job func()

// Option configures a Pool
type Option func(*Pool)

// WithQueueSize sets how many jobs may wait for a free worker
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// Pool runs jobs on a fixed set of long-lived workers fed from one FIFO queue
type Pool struct {
	size      int
	queueSize int
	jobs      chan Job
	logger    zerolog.Logger

	// mu guards closed and the close of jobs
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts a pool of size workers
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoolSize, size)
	}

	p := &Pool{
		size:      size,
		queueSize: size * 16,
		logger:    logging.WithComponent("workerpool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.jobs = make(chan Job, p.queueSize)

	p.wg.Add(size)
	for id := 0; id < size; id++ {
		go p.worker(id)
	}

	p.logger.Debug().Int("workers", size).Int("queue_size", p.queueSize).Msg("worker pool started")
	return p, nil
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Execute queues a job. It blocks only while the queue is full and fails
// with ErrPoolClosed once Shutdown has begun.
func (p *Pool) Execute(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	p.jobs <- job
	return nil
}

// Shutdown stops accepting jobs, lets the workers drain the queue and
// waits for every worker to exit. It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
		p.logger.Debug().Int("queued", len(p.jobs)).Msg("worker pool draining")
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.run(id, job)
	}

	p.logger.Debug().Int("worker", id).Msg("worker stopped")
}

// run executes a single job, keeping the worker alive if it panics
func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker", id).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("job panicked")
		}
	}()

	job()
}
