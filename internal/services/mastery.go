package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
)

// MasteryService manages which words a student is tracking.
type MasteryService struct {
	words WordStore
	dict  WordDictionary
	hook  StateChangeHook
	clock *Clock
	log   *logger.Logger
}

func NewMasteryService(words WordStore, dict WordDictionary, hook StateChangeHook, clock *Clock, log *logger.Logger) *MasteryService {
	return &MasteryService{
		words: words,
		dict:  dict,
		hook:  hook,
		clock: clock,
		log:   log.With("component", "mastery"),
	}
}

// Assign puts dictionary words on the student's to-be-mastered list. Words
// already tracked in either state are skipped and unknown words are counted
// as invalid; neither is an error.
func (s *MasteryService) Assign(ctx context.Context, studentID uuid.UUID, words []string, source models.Source) (*models.AssignResult, error) {
	fields := map[string]string{}
	words = normalizeWords(words)
	if len(words) == 0 {
		fields["words"] = "At least one word is required"
	}
	if !source.Valid() {
		fields["source"] = "Source must be 'teacher' or 'student'"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	known, err := s.dict.Existing(ctx, words)
	if err != nil {
		return nil, storeErr("check dictionary", err)
	}

	today := s.clock.Today()
	tomorrow := s.clock.Tomorrow()

	result := &models.AssignResult{AddedWords: []string{}}
	entries := make([]models.ToBeMasteredEntry, 0, len(words))
	for _, w := range words {
		if !known[w] {
			result.Invalid++
			continue
		}
		entries = append(entries, models.ToBeMasteredEntry{
			Word:         w,
			AssignedDate: today,
			DueDate:      tomorrow,
			Source:       source,
		})
	}

	if len(entries) > 0 {
		added, err := s.words.AddToBeMastered(ctx, studentID, entries)
		if err != nil {
			return nil, storeErr("assign words", err)
		}
		result.Added = len(added)
		result.Skipped = len(entries) - len(added)
		result.AddedWords = append(result.AddedWords, added...)
	}

	if _, err := s.hook.OnStudentStateChanged(ctx, studentID); err != nil {
		return nil, err
	}

	s.log.Info("words assigned",
		"student_id", studentID, "source", source,
		"added", result.Added, "skipped", result.Skipped, "invalid", result.Invalid)
	return result, nil
}

// CleanupGhostWord deletes word from the dictionary and from every student.
func (s *MasteryService) CleanupGhostWord(ctx context.Context, word string) (int64, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return 0, invalid("word", "Word is required")
	}

	if _, err := s.dict.Delete(ctx, word); err != nil {
		return 0, storeErr("delete dictionary word", err)
	}

	removed, err := s.words.RemoveWord(ctx, word)
	if err != nil {
		return 0, storeErr("remove ghost word", err)
	}

	s.log.Info("ghost word removed", "word", word, "rows", removed)
	return removed, nil
}

// CleanupGhostWords drops every tracked word, for all students, that is no
// longer in the dictionary.
func (s *MasteryService) CleanupGhostWords(ctx context.Context) (int64, error) {
	removed, err := s.words.RemoveUnknown(ctx, nil)
	if err != nil {
		return 0, storeErr("sweep ghost words", err)
	}
	if removed > 0 {
		s.log.Info("ghost word sweep", "rows", removed)
	}
	return removed, nil
}

// Reconcile repairs a single student's lists before a dashboard render.
func (s *MasteryService) Reconcile(ctx context.Context, studentID uuid.UUID) (*models.ReconcileResult, error) {
	removed, err := s.words.RemoveUnknown(ctx, &studentID)
	if err != nil {
		return nil, storeErr("reconcile words", err)
	}

	if removed > 0 {
		s.log.Info("reconciled student words", "student_id", studentID, "ghosts", removed)
		if _, err := s.hook.OnStudentStateChanged(ctx, studentID); err != nil {
			return nil, err
		}
	}
	return &models.ReconcileResult{GhostsRemoved: removed}, nil
}
