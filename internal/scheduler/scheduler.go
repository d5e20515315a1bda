package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/services"
)

const claimTTL = 25 * time.Hour

// Enqueuer hands maintenance work to the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, userID uuid.UUID, jobType, reference string) (*models.Job, error)
}

// Scheduler triggers the periodic maintenance jobs. Every replica runs one;
// a redis claim per run makes sure only one of them enqueues.
type Scheduler struct {
	cron    *gocron.Scheduler
	jobs    Enqueuer
	redis   *redis.Client
	clock   *services.Clock
	resetAt string
	sweep   bool
	log     *logger.Logger
}

type Options struct {
	// ResetAt is the "HH:MM" wall time, in the reference timezone, of the
	// nightly missed-review reset.
	ResetAt     string
	GhostSweeps bool
}

func New(jobs Enqueuer, redisClient *redis.Client, clock *services.Clock, opts Options, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    gocron.NewScheduler(clock.Calendar.Location()),
		jobs:    jobs,
		redis:   redisClient,
		clock:   clock,
		resetAt: opts.ResetAt,
		sweep:   opts.GhostSweeps,
		log:     log.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(1).Day().At(s.resetAt).Do(s.missedReviewReset); err != nil {
		return fmt.Errorf("failed to schedule missed review reset at %q: %w", s.resetAt, err)
	}
	if s.sweep {
		if _, err := s.cron.Every(1).Hour().Do(s.ghostSweep); err != nil {
			return fmt.Errorf("failed to schedule ghost sweep: %w", err)
		}
	}

	s.cron.StartAsync()
	s.log.Info("scheduler started", "reset_at", s.resetAt, "ghost_sweep", s.sweep)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) missedReviewReset() {
	today := s.clock.Today()
	s.trigger("reset:"+today, models.JobMissedReviewReset, today)
}

func (s *Scheduler) ghostSweep() {
	hour := s.clock.Now().In(s.clock.Calendar.Location()).Format("2006-01-02T15")
	s.trigger("sweep:"+hour, models.JobGhostWordSweep, "")
}

func (s *Scheduler) trigger(claimKey, jobType, reference string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok, err := s.claim(ctx, claimKey)
	if err != nil {
		s.log.Error("failed to claim scheduled run", "key", claimKey, "error", err)
		return
	}
	if !ok {
		s.log.Debug("scheduled run already claimed", "key", claimKey)
		return
	}

	job, err := s.jobs.Enqueue(ctx, uuid.Nil, jobType, reference)
	if err != nil {
		s.log.Error("failed to enqueue scheduled job", "type", jobType, "error", err)
		return
	}
	s.log.Info("scheduled job enqueued", "job_id", job.ID, "type", jobType, "reference", reference)
}

func (s *Scheduler) claim(ctx context.Context, key string) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	return s.redis.SetNX(ctx, "schedule_claim:"+key, "1", claimTTL).Result()
}
