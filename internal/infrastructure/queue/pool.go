package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 16
	channelBuffer  = 256
)

// ErrPoolClosed is returned by Submit once Close has been called.
var ErrPoolClosed = errors.New("worker pool closed")

// Job is a unit of work run on one of the pool's workers.
type Job func(ctx context.Context)

// Pool runs submitted jobs on a fixed set of workers.
type Pool struct {
	jobs    chan Job
	workers int
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Pool{
		jobs:    make(chan Job, channelBuffer),
		workers: numWorkers,
		log:     log,
	}
}

// Start launches the workers. ctx is handed to every job.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Submit queues job, blocking while the buffer is full.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits until the queued ones have run.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(ctx, id, job)
	}
}

func (p *Pool) run(ctx context.Context, id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Interface("panic", r).
				Int("worker_id", id).
				Msg("job panicked")
		}
	}()
	job(ctx)
}
