package services

import (
	"context"

	"github.com/google/uuid"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

// CompletionTracker records, once per day, that a student emptied their
// learning queue and/or their review queue. It is the StateChangeHook the
// other services call after every mutation.
type CompletionTracker struct {
	words      WordStore
	students   StudentStore
	completion CompletionStore
	events     EventPublisher
	clock      *Clock
	log        *logger.Logger
}

func NewCompletionTracker(words WordStore, students StudentStore, completion CompletionStore, events EventPublisher, clock *Clock, log *logger.Logger) *CompletionTracker {
	if events == nil {
		events = NopPublisher
	}
	return &CompletionTracker{
		words:      words,
		students:   students,
		completion: completion,
		events:     events,
		clock:      clock,
		log:        log.With("component", "completion"),
	}
}

// OnStudentStateChanged re-evaluates today's completion flags. Flags are only
// ever added: a day recorded as complete stays complete even if more words
// are assigned later the same day.
func (t *CompletionTracker) OnStudentStateChanged(ctx context.Context, studentID uuid.UUID) (models.CompletionStatus, error) {
	today := t.clock.Today()
	status := models.CompletionStatus{Date: today}

	pending, err := t.words.CountToBeMastered(ctx, studentID)
	if err != nil {
		return status, storeErr("count pending words", err)
	}
	due, err := t.words.DueWords(ctx, studentID, today)
	if err != nil {
		return status, storeErr("due reviews", err)
	}
	status.PendingWords = pending
	status.PendingReviews = len(due)

	exercise, revision, err := t.completion.CompletionOn(ctx, studentID, today)
	if err != nil {
		return status, storeErr("load completion", err)
	}

	var added bool
	if !exercise && pending == 0 {
		if added, err = t.completion.AddCompletionDay(ctx, studentID, today, models.CompletionExercise); err != nil {
			return status, storeErr("record exercise day", err)
		}
		exercise = true
		status.NewlyCompleted = added
	}
	if !revision && len(due) == 0 {
		if added, err = t.completion.AddCompletionDay(ctx, studentID, today, models.CompletionRevision); err != nil {
			return status, storeErr("record revision day", err)
		}
		revision = true
		status.NewlyCompleted = status.NewlyCompleted || added
	}
	status.ExerciseDone = exercise
	status.RevisionDone = revision

	if !exercise && !revision {
		return status, nil
	}

	student, err := t.students.GetByID(ctx, studentID)
	if err != nil {
		if isNoRows(err) {
			return status, &NotFoundError{Message: "Student not found"}
		}
		return status, storeErr("load student", err)
	}
	if err := t.completion.UpsertGoalSnapshot(ctx, studentID, today, student.LearningGoal); err != nil {
		return status, storeErr("record goal snapshot", err)
	}

	// NewlyCompleted only matters to callers once both halves are in.
	status.NewlyCompleted = status.NewlyCompleted && exercise && revision
	if status.NewlyCompleted {
		t.announce(ctx, studentID, today)
	}
	return status, nil
}

func (t *CompletionTracker) announce(ctx context.Context, studentID uuid.UUID, today string) {
	streak := 0
	if ex, rev, err := t.completion.CompletionDays(ctx, studentID); err == nil {
		streak = srs.CurrentStreak(srs.FullyCompleteDays(ex, rev), today)
	}

	msg := models.WSMessage{
		Type:    models.EventDayCompleted,
		Payload: models.DayCompletedEvent{Date: today, CurrentStreak: streak},
	}
	if err := t.events.Publish(ctx, studentID, msg); err != nil {
		t.log.Warn("failed to publish completion event", "student_id", studentID, "error", err)
	}
	t.log.Info("day completed", "student_id", studentID, "date", today, "streak", streak)
}
