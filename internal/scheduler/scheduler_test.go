package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/services"
	"vocab-backend/internal/srs"
)

type recordingEnqueuer struct {
	jobs []models.Job
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, userID uuid.UUID, jobType, reference string) (*models.Job, error) {
	j := models.Job{ID: uuid.New(), UserID: userID, Type: jobType, Reference: reference}
	r.jobs = append(r.jobs, j)
	return &j, nil
}

func newTestScheduler(t *testing.T, now time.Time) (*Scheduler, *recordingEnqueuer) {
	t.Helper()
	cal, err := srs.NewCalendar(srs.DefaultTimezone)
	require.NoError(t, err)
	clock := services.NewClock(cal)
	clock.Now = func() time.Time { return now }

	q := &recordingEnqueuer{}
	return New(q, nil, clock, Options{ResetAt: "00:05", GhostSweeps: true}, logger.Nop()), q
}

func TestMissedReviewResetUsesReferenceDate(t *testing.T) {
	// 16:10 UTC is already 00:10 the next day in the reference timezone.
	s, q := newTestScheduler(t, time.Date(2024, 3, 9, 16, 10, 0, 0, time.UTC))

	s.missedReviewReset()

	require.Len(t, q.jobs, 1)
	assert.Equal(t, models.JobMissedReviewReset, q.jobs[0].Type)
	assert.Equal(t, "2024-03-10", q.jobs[0].Reference)
	assert.Equal(t, uuid.Nil, q.jobs[0].UserID)
}

func TestGhostSweepEnqueuesSweep(t *testing.T) {
	s, q := newTestScheduler(t, time.Date(2024, 3, 9, 3, 0, 0, 0, time.UTC))

	s.ghostSweep()

	require.Len(t, q.jobs, 1)
	assert.Equal(t, models.JobGhostWordSweep, q.jobs[0].Type)
	assert.Empty(t, q.jobs[0].Reference)
}

func TestStartRejectsBadResetTime(t *testing.T) {
	s, _ := newTestScheduler(t, time.Now())
	s.resetAt = "25:99"

	assert.Error(t, s.Start())
}
