package services

import (
	"context"

	"github.com/google/uuid"

	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

// WordStore persists each student's tracked words. Every method is atomic
// for the rows it touches.
type WordStore interface {
	// MasterWords moves each entry's word to the mastered state unless it is
	// already mastered, and writes one learn log per word actually moved.
	MasterWords(ctx context.Context, studentID uuid.UUID, entries []models.MasteredEntry) ([]string, error)
	// MutateMastered locks the mastered entry for word and lets fn edit it.
	// When fn reports a change the entry is saved along with logs.
	MutateMastered(ctx context.Context, studentID uuid.UUID, word string, fn func(*models.MasteredEntry) bool, logs ...models.StudyLogEntry) (found, changed bool, err error)
	DueWords(ctx context.Context, studentID uuid.UUID, date string) ([]string, error)
	// ResetMissed restarts the ladder of every unfinished mastered word whose
	// oldest pending review is before date.
	ResetMissed(ctx context.Context, date string, schedule []string) ([]models.MissedReset, error)
	// AddToBeMastered inserts entries whose word is not tracked yet and
	// returns the words that were inserted.
	AddToBeMastered(ctx context.Context, studentID uuid.UUID, entries []models.ToBeMasteredEntry) ([]string, error)
	ListStates(ctx context.Context, studentID uuid.UUID) ([]models.ToBeMasteredEntry, []models.MasteredEntry, error)
	CountToBeMastered(ctx context.Context, studentID uuid.UUID) (int, error)
	// RemoveWord drops word from every student's lists.
	RemoveWord(ctx context.Context, word string) (int64, error)
	// RemoveUnknown drops tracked words missing from the dictionary, for one
	// student or for everyone when studentID is nil.
	RemoveUnknown(ctx context.Context, studentID *uuid.UUID) (int64, error)
}

type StudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByUsername(ctx context.Context, username string) (*models.Student, error)
	Create(ctx context.Context, s *models.Student) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	SetLearningGoal(ctx context.Context, id uuid.UUID, goal int) error
}

type CompletionStore interface {
	// AddCompletionDay inserts day into one of the student's completion sets
	// and reports whether it was not there before.
	AddCompletionDay(ctx context.Context, studentID uuid.UUID, day string, kind models.CompletionKind) (bool, error)
	CompletionOn(ctx context.Context, studentID uuid.UUID, day string) (exercise, revision bool, err error)
	CompletionDays(ctx context.Context, studentID uuid.UUID) (exercise, revision []string, err error)
	// FullyCompleteDays returns, for every student, the days present in both
	// completion sets. Students without any such day map to an empty slice.
	FullyCompleteDays(ctx context.Context) (map[uuid.UUID][]string, error)
	UpsertGoalSnapshot(ctx context.Context, studentID uuid.UUID, day string, goal int) error
	GoalSnapshots(ctx context.Context, studentID uuid.UUID) (map[string]int, error)
}

type StudyLogStore interface {
	LogsBetween(ctx context.Context, studentID uuid.UUID, from, to string) ([]models.StudyLogEntry, error)
	FirstLogDate(ctx context.Context, studentID uuid.UUID) (string, error)
}

// WordDictionary is the global list of valid words.
type WordDictionary interface {
	Exists(ctx context.Context, word string) (bool, error)
	Existing(ctx context.Context, words []string) (map[string]bool, error)
	Delete(ctx context.Context, word string) (bool, error)
	Upsert(ctx context.Context, words []models.Word) (int, error)
}

type WordbookStore interface {
	Words(ctx context.Context, wordbookID uuid.UUID) ([]string, error)
}

// StateChangeHook runs after any mutation of a student's word state.
type StateChangeHook interface {
	OnStudentStateChanged(ctx context.Context, studentID uuid.UUID) (models.CompletionStatus, error)
}

// EventPublisher pushes realtime events to a student's open sessions.
type EventPublisher interface {
	Publish(ctx context.Context, studentID uuid.UUID, msg models.WSMessage) error
}

// HistogramCache stores the population streak histogram per calendar day.
type HistogramCache interface {
	Get(ctx context.Context, day string) (srs.Histogram, bool, error)
	Set(ctx context.Context, day string, h srs.Histogram) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, uuid.UUID, models.WSMessage) error { return nil }

// NopPublisher discards events.
var NopPublisher EventPublisher = nopPublisher{}
