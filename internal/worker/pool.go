package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/services"
)

// MaintenanceQueue is the redis list maintenance jobs are pushed onto.
const MaintenanceQueue = "queue:maintenance"

const lockTTL = 10 * time.Minute

type JobStore interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
	SetResult(ctx context.Context, id uuid.UUID, result any) error
}

type GhostCleaner interface {
	CleanupGhostWord(ctx context.Context, word string) (int64, error)
	CleanupGhostWords(ctx context.Context) (int64, error)
}

type MissedReviewResetter interface {
	ResetMissedReviews(ctx context.Context, date string) (*models.ResetResult, error)
}

// Queue records jobs and hands them to the pool.
type Queue struct {
	redis *redis.Client
	jobs  JobStore
}

func NewQueue(redisClient *redis.Client, jobs JobStore) *Queue {
	return &Queue{redis: redisClient, jobs: jobs}
}

func (q *Queue) Enqueue(ctx context.Context, userID uuid.UUID, jobType, reference string) (*models.Job, error) {
	job := &models.Job{UserID: userID, Type: jobType, Reference: reference}
	if err := q.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	if err := q.redis.LPush(ctx, MaintenanceQueue, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}
	return job, nil
}

func (q *Queue) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return q.jobs.GetByID(ctx, id)
}

type Pool struct {
	redis       *redis.Client
	jobs        JobStore
	ghosts      GhostCleaner
	reviews     MissedReviewResetter
	events      services.EventPublisher
	log         *logger.Logger
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	jobs JobStore,
	ghosts GhostCleaner,
	reviews MissedReviewResetter,
	events services.EventPublisher,
	log *logger.Logger,
	workerCount int,
) *Pool {
	if events == nil {
		events = services.NopPublisher
	}
	return &Pool{
		redis:       redisClient,
		jobs:        jobs,
		ghosts:      ghosts,
		reviews:     reviews,
		events:      events,
		log:         log.With("component", "worker"),
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	p.log.Info("started workers", "count", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			p.log.Debug("worker shutting down", "worker", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, MaintenanceQueue).Result()
		if err != nil || len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Error("failed to parse job", "worker", id, "error", err)
			continue
		}

		lockKey := "job_lock:" + job.ID.String()
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue
		}

		p.Process(ctx, &job)
		p.redis.Del(ctx, lockKey)
	}
}

// Process runs one job and records its outcome.
func (p *Pool) Process(ctx context.Context, job *models.Job) {
	p.log.Info("processing job", "job_id", job.ID, "type", job.Type, "reference", job.Reference)
	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobProcessing); err != nil {
		p.log.Warn("failed to mark job processing", "job_id", job.ID, "error", err)
	}

	result, err := p.execute(ctx, job)
	if err != nil {
		p.handleFailure(ctx, job, err)
		return
	}
	p.handleSuccess(ctx, job, result)
}

func (p *Pool) execute(ctx context.Context, job *models.Job) (any, error) {
	switch job.Type {
	case models.JobGhostWordCleanup:
		removed, err := p.ghosts.CleanupGhostWord(ctx, job.Reference)
		if err != nil {
			return nil, err
		}
		return map[string]any{"word": job.Reference, "rows_removed": removed}, nil
	case models.JobGhostWordSweep:
		removed, err := p.ghosts.CleanupGhostWords(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"rows_removed": removed}, nil
	case models.JobMissedReviewReset:
		return p.reviews.ResetMissedReviews(ctx, job.Reference)
	default:
		return nil, fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job, result any) {
	if err := p.jobs.SetResult(ctx, job.ID, result); err != nil {
		p.log.Warn("failed to store job result", "job_id", job.ID, "error", err)
	}
	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobCompleted); err != nil {
		p.log.Warn("failed to mark job completed", "job_id", job.ID, "error", err)
	}
	p.notify(ctx, job, models.JobCompleted)
	p.log.Info("job completed", "job_id", job.ID, "type", job.Type)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	if job.RetryCount < maxRetries && retryable(err) {
		p.log.Warn("job failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "error", errMsg)
		p.jobs.UpdateStatus(ctx, job.ID, models.JobPending)
		p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), MaintenanceQueue, string(jobBytes))
		})
		return
	}

	p.log.Error("job failed permanently", "job_id", job.ID, "type", job.Type, "error", errMsg)
	p.jobs.UpdateStatus(ctx, job.ID, models.JobFailed)
	p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
	p.notify(ctx, job, models.JobFailed)
}

// Validation errors will fail the same way on every attempt.
func retryable(err error) bool {
	var verr *services.ValidationError
	return !errors.As(err, &verr)
}

func (p *Pool) notify(ctx context.Context, job *models.Job, status string) {
	if job.UserID == uuid.Nil {
		return
	}
	err := p.events.Publish(ctx, job.UserID, models.WSMessage{
		Type:    models.EventJobFinished,
		Payload: models.JobFinishedEvent{JobID: job.ID, Type: job.Type, Status: status},
	})
	if err != nil {
		p.log.Warn("failed to publish job event", "job_id", job.ID, "error", err)
	}
}
