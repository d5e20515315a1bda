package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

// SRSService owns the review ladder of mastered words.
type SRSService struct {
	words  WordStore
	hook   StateChangeHook
	events EventPublisher
	clock  *Clock
	log    *logger.Logger
}

func NewSRSService(words WordStore, hook StateChangeHook, events EventPublisher, clock *Clock, log *logger.Logger) *SRSService {
	if events == nil {
		events = NopPublisher
	}
	return &SRSService{
		words:  words,
		hook:   hook,
		events: events,
		clock:  clock,
		log:    log.With("component", "srs"),
	}
}

// MasterWords records that the student finished learning words today. Words
// already mastered are reported back untouched.
func (s *SRSService) MasterWords(ctx context.Context, studentID uuid.UUID, words []string) (*models.MasterResult, error) {
	words = normalizeWords(words)
	if len(words) == 0 {
		return nil, invalid("words", "At least one word is required")
	}

	today := s.clock.Today()
	schedule := srs.BuildSchedule(today)

	entries := make([]models.MasteredEntry, 0, len(words))
	for _, w := range words {
		entries = append(entries, models.MasteredEntry{
			Word:           w,
			DateMastered:   today,
			ReviewSchedule: append([]string(nil), schedule...),
		})
	}

	mastered, err := s.words.MasterWords(ctx, studentID, entries)
	if err != nil {
		return nil, storeErr("master words", err)
	}
	if mastered == nil {
		mastered = []string{}
	}

	result := &models.MasterResult{
		Mastered:        mastered,
		AlreadyMastered: difference(words, mastered),
	}

	if _, err := s.hook.OnStudentStateChanged(ctx, studentID); err != nil {
		return nil, err
	}

	s.log.Debug("words mastered", "student_id", studentID, "count", len(mastered), "skipped", len(result.AlreadyMastered))
	return result, nil
}

// RecordReviewOutcome applies a pass or fail to a word due today. A word that
// is mastered but not due today yields Applied=false rather than an error.
func (s *SRSService) RecordReviewOutcome(ctx context.Context, studentID uuid.UUID, word string, result models.ReviewResult) (*models.ReviewOutcome, error) {
	word = strings.TrimSpace(word)
	fields := map[string]string{}
	if word == "" {
		fields["word"] = "Word is required"
	}
	if !result.Valid() {
		fields["result"] = "Result must be 'pass' or 'fail'"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	today := s.clock.Today()
	apply := func(e *models.MasteredEntry) bool {
		var (
			next []string
			ok   bool
		)
		if result == models.ReviewPass {
			next, ok = srs.PassReview(e.ReviewSchedule, today)
		} else {
			next, ok = srs.FailReview(e.ReviewSchedule, today)
		}
		if !ok {
			return false
		}
		e.ReviewSchedule = next
		if result == models.ReviewPass {
			e.ReviewTimes++
			e.ReviewStageIndex = srs.StageIndex(next)
			e.IsFullyMastered = len(next) == 0
		}
		return true
	}

	found, changed, err := s.words.MutateMastered(ctx, studentID, word, apply,
		models.StudyLogEntry{Date: today, Word: word, Kind: models.LogReview})
	if err != nil {
		return nil, storeErr("record review", err)
	}
	if !found {
		return nil, &NotFoundError{Message: fmt.Sprintf("Word %q is not mastered", word)}
	}

	outcome := &models.ReviewOutcome{Word: word, Result: result, Applied: changed}
	if !changed {
		s.log.Debug("review not due, nothing to do", "student_id", studentID, "word", word)
		return outcome, nil
	}

	if _, err := s.hook.OnStudentStateChanged(ctx, studentID); err != nil {
		return nil, err
	}
	return outcome, nil
}

// RelearnWord restarts a mastered word's ladder from today. This is the
// penalty for failing a pre-test, stricter than a failed daily review.
func (s *SRSService) RelearnWord(ctx context.Context, studentID uuid.UUID, word string) (*models.MasteredEntry, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, invalid("word", "Word is required")
	}

	today := s.clock.Today()
	var saved models.MasteredEntry
	found, _, err := s.words.MutateMastered(ctx, studentID, word, func(e *models.MasteredEntry) bool {
		restartLadder(e, today)
		saved = *e
		return true
	})
	if err != nil {
		return nil, storeErr("relearn word", err)
	}
	if !found {
		return nil, &NotFoundError{Message: fmt.Sprintf("Word %q is not mastered", word)}
	}

	if _, err := s.hook.OnStudentStateChanged(ctx, studentID); err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetDueReviews lists the words whose schedule contains date. An empty date
// means today.
func (s *SRSService) GetDueReviews(ctx context.Context, studentID uuid.UUID, date string) ([]string, error) {
	if date == "" {
		date = s.clock.Today()
	} else if _, err := srs.ParseDate(date); err != nil {
		return nil, invalid("date", "Date must be YYYY-MM-DD")
	}

	words, err := s.words.DueWords(ctx, studentID, date)
	if err != nil {
		return nil, storeErr("due reviews", err)
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}

// ResetMissedReviews restarts every ladder whose oldest pending review was
// left undone before date. It runs for all students at once.
func (s *SRSService) ResetMissedReviews(ctx context.Context, date string) (*models.ResetResult, error) {
	if date == "" {
		date = s.clock.Today()
	} else if _, err := srs.ParseDate(date); err != nil {
		return nil, invalid("date", "Date must be YYYY-MM-DD")
	}

	reset, err := s.words.ResetMissed(ctx, date, srs.BuildSchedule(date))
	if err != nil {
		return nil, storeErr("reset missed reviews", err)
	}

	byStudent := make(map[uuid.UUID][]string)
	for _, r := range reset {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r.Word)
	}
	for studentID, words := range byStudent {
		msg := models.WSMessage{
			Type:    models.EventReviewsReset,
			Payload: models.ReviewsResetEvent{Date: date, Words: words},
		}
		if err := s.events.Publish(ctx, studentID, msg); err != nil {
			s.log.Warn("failed to publish reset event", "student_id", studentID, "error", err)
		}
	}

	s.log.Info("missed reviews reset", "date", date, "words", len(reset), "students", len(byStudent))
	return &models.ResetResult{Date: date, Words: len(reset), Students: len(byStudent)}, nil
}

func restartLadder(e *models.MasteredEntry, from string) {
	e.DateMastered = from
	e.ReviewSchedule = srs.BuildSchedule(from)
	e.ReviewStageIndex = 0
	e.IsFullyMastered = false
}

// normalizeWords trims, drops blanks and de-duplicates while keeping order.
func normalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func difference(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, w := range remove {
		drop[w] = struct{}{}
	}
	out := []string{}
	for _, w := range all {
		if _, ok := drop[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}
