package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/wordspira/internal/artifact"
	"github.com/dgallion1/wordspira/internal/config"
	"github.com/dgallion1/wordspira/internal/metrics"
)

// Orchestrator manages the push job queue.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	clients ClientFactory
	open    SettingsOpener
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, clients ClientFactory, open SettingsOpener, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		clients: clients,
		open:    open,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	opts := artifact.TestCaseOptions{
		HeaderRows: o.cfg.TestHeaderRows,
		MultiTable: o.cfg.TestMultiTable,
	}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.clients, o.open, o.log, o.cfg.SpiraRequirementTypeID, opts)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					metrics.JobsQueued.Dec()
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a job. Jobs for the same document and kind are not
// deduplicated; each push is its own task.
func (o *Orchestrator) Submit(job *Job) error {
	job.SetDismissAfter(o.cfg.ErrorDismissAfter)
	o.jobs.Put(job)
	metrics.JobsQueued.Inc()
	select {
	case o.queue <- job:
		return nil
	default:
		metrics.JobsQueued.Dec()
		job.AddError(fmt.Sprintf("job queue is full (%d)", o.cfg.MaxQueueSize))
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
