package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/services"
)

type stubJobs struct {
	mu       sync.Mutex
	statuses []string
	errMsg   string
	result   any
}

func (s *stubJobs) Create(_ context.Context, j *models.Job) error {
	j.ID = uuid.New()
	return nil
}

func (s *stubJobs) GetByID(context.Context, uuid.UUID) (*models.Job, error) {
	return nil, errors.New("not implemented")
}

func (s *stubJobs) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *stubJobs) UpdateError(_ context.Context, _ uuid.UUID, errMsg string, _ int) error {
	s.errMsg = errMsg
	return nil
}

func (s *stubJobs) SetResult(_ context.Context, _ uuid.UUID, result any) error {
	s.result = result
	return nil
}

type stubMaintenance struct {
	cleanedWord string
	swept       bool
	resetDate   string
	err         error
}

func (s *stubMaintenance) CleanupGhostWord(_ context.Context, word string) (int64, error) {
	s.cleanedWord = word
	return 2, s.err
}

func (s *stubMaintenance) CleanupGhostWords(context.Context) (int64, error) {
	s.swept = true
	return 5, s.err
}

func (s *stubMaintenance) ResetMissedReviews(_ context.Context, date string) (*models.ResetResult, error) {
	s.resetDate = date
	if s.err != nil {
		return nil, s.err
	}
	return &models.ResetResult{Date: date, Words: 3, Students: 1}, nil
}

type recordingPublisher struct {
	msgs []models.WSMessage
}

func (r *recordingPublisher) Publish(_ context.Context, _ uuid.UUID, msg models.WSMessage) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func newTestPool(m *stubMaintenance) (*Pool, *stubJobs, *recordingPublisher) {
	jobs := &stubJobs{}
	events := &recordingPublisher{}
	return NewPool(nil, jobs, m, m, events, logger.Nop(), 1), jobs, events
}

func TestProcessDispatchesByType(t *testing.T) {
	tests := []struct {
		name  string
		job   models.Job
		check func(t *testing.T, m *stubMaintenance)
	}{
		{
			name: "ghost cleanup",
			job:  models.Job{Type: models.JobGhostWordCleanup, Reference: "obsolete"},
			check: func(t *testing.T, m *stubMaintenance) {
				assert.Equal(t, "obsolete", m.cleanedWord)
			},
		},
		{
			name: "ghost sweep",
			job:  models.Job{Type: models.JobGhostWordSweep},
			check: func(t *testing.T, m *stubMaintenance) {
				assert.True(t, m.swept)
			},
		},
		{
			name: "missed review reset",
			job:  models.Job{Type: models.JobMissedReviewReset, Reference: "2024-03-10"},
			check: func(t *testing.T, m *stubMaintenance) {
				assert.Equal(t, "2024-03-10", m.resetDate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubMaintenance{}
			pool, jobs, events := newTestPool(m)
			job := tt.job
			job.ID = uuid.New()
			job.UserID = uuid.New()

			pool.Process(context.Background(), &job)

			tt.check(t, m)
			assert.Equal(t, []string{models.JobProcessing, models.JobCompleted}, jobs.statuses)
			assert.NotNil(t, jobs.result)
			require.Len(t, events.msgs, 1)
			assert.Equal(t, models.EventJobFinished, events.msgs[0].Type)
		})
	}
}

func TestProcessFailsPermanently(t *testing.T) {
	t.Run("unknown type after last retry", func(t *testing.T) {
		pool, jobs, events := newTestPool(&stubMaintenance{})
		job := &models.Job{ID: uuid.New(), UserID: uuid.New(), Type: "bogus", RetryCount: 2, MaxRetries: 3}

		pool.Process(context.Background(), job)

		assert.Equal(t, []string{models.JobProcessing, models.JobFailed}, jobs.statuses)
		assert.Contains(t, jobs.errMsg, "unknown job type")
		require.Len(t, events.msgs, 1)
		payload := events.msgs[0].Payload.(models.JobFinishedEvent)
		assert.Equal(t, models.JobFailed, payload.Status)
	})

	t.Run("validation errors are not retried", func(t *testing.T) {
		m := &stubMaintenance{err: &services.ValidationError{Fields: map[string]string{"word": "required"}}}
		pool, jobs, _ := newTestPool(m)
		job := &models.Job{ID: uuid.New(), Type: models.JobGhostWordCleanup, MaxRetries: 3}

		pool.Process(context.Background(), job)

		assert.Equal(t, []string{models.JobProcessing, models.JobFailed}, jobs.statuses)
		assert.Equal(t, 1, job.RetryCount)
	})
}
