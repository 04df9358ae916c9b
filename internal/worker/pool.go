// Package worker runs the background job pool that executes generation turns
// and title jobs claimed from the scheduler queue.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/title"
	"github.com/heymaaz/t3.chat.cloneathon/internal/domain/turn"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/metrics"
	"github.com/heymaaz/t3.chat.cloneathon/internal/infrastructure/scheduler"
)

const depthSampleInterval = 15 * time.Second

// Pool manages multiple background workers.
type Pool struct {
	workers      []*Worker
	queue        scheduler.Queue
	orchestrator *turn.Orchestrator
	titles       *title.Service
	workerCount  int
	jobTimeout   time.Duration
	log          zerolog.Logger
	wg           sync.WaitGroup
	stopChan     chan struct{}
}

// Config contains worker pool configuration.
type Config struct {
	WorkerCount int
	JobTimeout  time.Duration
}

// NewPool creates a new worker pool.
func NewPool(
	queue scheduler.Queue,
	orchestrator *turn.Orchestrator,
	titles *title.Service,
	cfg Config,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		queue:        queue,
		orchestrator: orchestrator,
		titles:       titles,
		workerCount:  cfg.WorkerCount,
		jobTimeout:   cfg.JobTimeout,
		log:          log.With().Str("component", "worker-pool").Logger(),
		stopChan:     make(chan struct{}),
	}
}

// Start initializes and starts all workers plus the queue depth sampler.
func (p *Pool) Start(ctx context.Context) error {
	p.log.Info().Int("worker_count", p.workerCount).Msg("starting worker pool")

	p.workers = make([]*Worker, p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		worker := NewWorker(
			i+1,
			p.queue,
			p.orchestrator,
			p.titles,
			p.jobTimeout,
			p.log,
		)
		p.workers[i] = worker

		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(worker)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sampleDepth(ctx)
	}()

	p.log.Info().Msg("worker pool started")
	return nil
}

// Stop gracefully shuts down all workers.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool")

	close(p.stopChan)
	for _, worker := range p.workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info().Msg("all workers stopped gracefully")
	case <-time.After(30 * time.Second):
		p.log.Warn().Msg("worker pool shutdown timed out")
	}
}

func (p *Pool) sampleDepth(ctx context.Context) {
	ticker := time.NewTicker(depthSampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			depth, err := p.queue.Depth(ctx)
			if err != nil {
				p.log.Warn().Err(err).Msg("queue depth sample failed")
				continue
			}
			metrics.SetSchedulerDepth(int(depth))
		}
	}
}
