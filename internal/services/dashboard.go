package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
)

// DashboardService assembles the student home screen. Loading it is also
// the point where lists are reconciled and today's completion is checked,
// which covers students who finished their work in an earlier session.
type DashboardService struct {
	mastery   *MasteryService
	stats     *StatsService
	hook      StateChangeHook
	words     WordStore
	students  StudentStore
	wordbooks WordbookStore
	clock     *Clock
	log       *logger.Logger
}

func NewDashboardService(mastery *MasteryService, stats *StatsService, hook StateChangeHook, words WordStore, students StudentStore, wordbooks WordbookStore, clock *Clock, log *logger.Logger) *DashboardService {
	return &DashboardService{
		mastery:   mastery,
		stats:     stats,
		hook:      hook,
		words:     words,
		students:  students,
		wordbooks: wordbooks,
		clock:     clock,
		log:       log.With("component", "dashboard"),
	}
}

func (s *DashboardService) Summary(ctx context.Context, studentID uuid.UUID) (*models.DashboardSummary, error) {
	reconciled, err := s.mastery.Reconcile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	completion, err := s.hook.OnStudentStateChanged(ctx, studentID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	out := &models.DashboardSummary{
		Date:            today,
		Completion:      completion,
		Reconciled:      *reconciled,
		TeacherAssigned: []models.ToBeMasteredEntry{},
		SelfAssigned:    []models.ToBeMasteredEntry{},
		DueReviews:      []string{},
	}

	var mastered []models.MasteredEntry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tbm, m, err := s.words.ListStates(gctx, studentID)
		if err != nil {
			return storeErr("list word states", err)
		}
		for _, e := range tbm {
			if e.Source == models.SourceTeacher {
				out.TeacherAssigned = append(out.TeacherAssigned, e)
			} else {
				out.SelfAssigned = append(out.SelfAssigned, e)
			}
		}
		mastered = m
		return nil
	})
	g.Go(func() error {
		due, err := s.words.DueWords(gctx, studentID, today)
		if err != nil {
			return storeErr("due reviews", err)
		}
		if due != nil {
			out.DueReviews = due
		}
		return nil
	})
	g.Go(func() error {
		out.Stats = s.stats.CompactStats(gctx, studentID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.MasteredCount = len(mastered)
	out.SecretWordbookCompleted = s.secretCompleted(ctx, studentID, mastered)
	return out, nil
}

// secretCompleted reports whether every word of the student's secret
// wordbook is mastered. Students without one never complete it.
func (s *DashboardService) secretCompleted(ctx context.Context, studentID uuid.UUID, mastered []models.MasteredEntry) bool {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil || student.SecretWordbookID == nil {
		return false
	}
	words, err := s.wordbooks.Words(ctx, *student.SecretWordbookID)
	if err != nil {
		s.log.Warn("failed to load secret wordbook", "student_id", studentID, "error", err)
		return false
	}
	if len(words) == 0 {
		return false
	}
	done := make(map[string]struct{}, len(mastered))
	for _, m := range mastered {
		done[m.Word] = struct{}{}
	}
	for _, w := range words {
		if _, ok := done[w]; !ok {
			return false
		}
	}
	return true
}
