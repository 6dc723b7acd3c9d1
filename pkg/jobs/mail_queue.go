package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/obetrack/obe-api/pkg/mailer"
)

// MailJob is a queued outbound email with retry bookkeeping.
type MailJob struct {
	ID       string
	Message  mailer.Message
	Attempt  int
	Enqueued time.Time
}

// MailQueueConfig configures worker pool behaviour.
type MailQueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// MailQueue dispatches outbound email on background workers so OTP and
// feedback delivery never block a response.
type MailQueue struct {
	sender mailer.Mailer

	workers    int
	bufferSize int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan MailJob
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewMailQueue builds a queue delivering through the provided mailer.
func NewMailQueue(sender mailer.Mailer, cfg MailQueueConfig) *MailQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &MailQueue{
		sender:     sender,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan MailJob, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *MailQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Sugar().Infow("mail queue started", "workers", q.workers)
}

// Stop cancels workers and waits for them to exit.
func (q *MailQueue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("mail queue stopped")
}

// Enqueue pushes a mail job onto the queue.
func (q *MailQueue) Enqueue(job MailJob) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("mail queue not started")
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("mail queue stopped: %w", ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *MailQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.sender.Send(q.ctx, job.Message); err != nil {
				q.handleFailure(job, err)
			}
		}
	}
}

func (q *MailQueue) handleFailure(job MailJob, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.logger.Sugar().Errorw("mail job exceeded retries", "job_id", job.ID, "to", job.Message.ToAddress, "error", err)
		return
	}
	q.logger.Sugar().Warnw("mail job failed, retrying", "job_id", job.ID, "attempt", job.Attempt, "error", err)

	go func(j MailJob) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue mail job", "job_id", j.ID, "error", err)
			}
		}
	}(job)
}
