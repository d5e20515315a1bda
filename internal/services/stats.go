package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

// StatsService derives streak, percentile and goal figures for dashboards.
// Everything here is read-only: store failures are logged and reported as
// zero values instead of failing the request.
type StatsService struct {
	students   StudentStore
	completion CompletionStore
	logs       StudyLogStore
	wordbooks  WordbookStore
	cache      HistogramCache
	clock      *Clock
	log        *logger.Logger

	group singleflight.Group
}

func NewStatsService(students StudentStore, completion CompletionStore, logs StudyLogStore, wordbooks WordbookStore, cache HistogramCache, clock *Clock, log *logger.Logger) *StatsService {
	return &StatsService{
		students:   students,
		completion: completion,
		logs:       logs,
		wordbooks:  wordbooks,
		cache:      cache,
		clock:      clock,
		log:        log.With("component", "stats"),
	}
}

// ComputeStreak returns the current and longest full-completion streaks.
func (s *StatsService) ComputeStreak(ctx context.Context, studentID uuid.UUID, today string) (srs.Streak, bool) {
	ex, rev, err := s.completion.CompletionDays(ctx, studentID)
	if err != nil {
		s.log.Error("failed to load completion days", "student_id", studentID, "error", err)
		return srs.Streak{}, false
	}
	days := srs.FullyCompleteDays(ex, rev)
	complete := len(days) > 0 && days[len(days)-1] == today
	return srs.ComputeStreak(days, today), complete
}

func (s *StatsService) CompactStats(ctx context.Context, studentID uuid.UUID) models.CompactStats {
	today := s.clock.Today()
	out := models.CompactStats{Date: today}

	streak, complete := s.ComputeStreak(ctx, studentID, today)
	out.CurrentStreak = streak.Current
	out.MaxStreak = streak.Max
	out.TodayComplete = complete
	out.Percentile = s.percentileFor(ctx, today, streak.Current)

	goal := s.GoalAttainment(ctx, studentID)
	out.TodayLearned = goal.Count
	out.TodayGoal = goal.Goal
	out.GoalTodayMet = goal.Met
	out.HasSecret = goal.Secret
	return out
}

// Percentile ranks the student's current streak against every student.
func (s *StatsService) Percentile(ctx context.Context, studentID uuid.UUID) int {
	today := s.clock.Today()
	streak, _ := s.ComputeStreak(ctx, studentID, today)
	return s.percentileFor(ctx, today, streak.Current)
}

func (s *StatsService) percentileFor(ctx context.Context, today string, own int) int {
	h, err := s.histogram(ctx, today)
	if err != nil {
		s.log.Error("failed to build streak histogram", "date", today, "error", err)
		return 0
	}
	return srs.Percentile(h, own)
}

// histogram serves the population histogram from cache. Concurrent misses
// for the same day share one computation, which runs detached from the
// cancellation of whichever request started it.
func (s *StatsService) histogram(ctx context.Context, today string) (srs.Histogram, error) {
	if h, ok, err := s.cache.Get(ctx, today); err == nil && ok {
		return h, nil
	} else if err != nil {
		s.log.Warn("streak histogram cache read failed", "error", err)
	}

	ctx = context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(today, func() (interface{}, error) {
		// A flight that finished between our miss and Do has filled the cache.
		if h, ok, err := s.cache.Get(ctx, today); err == nil && ok {
			return h, nil
		}
		start := time.Now()
		all, err := s.completion.FullyCompleteDays(ctx)
		if err != nil {
			return nil, err
		}
		streaks := make([]int, 0, len(all))
		for _, days := range all {
			streaks = append(streaks, srs.CurrentStreak(days, today))
		}
		h := srs.BuildHistogram(streaks)
		if err := s.cache.Set(ctx, today, h); err != nil {
			s.log.Warn("streak histogram cache write failed", "error", err)
		}
		s.log.Debug("streak histogram rebuilt", "students", len(streaks), "took", time.Since(start))
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(srs.Histogram), nil
}

// GoalAttainment compares today's goal-basis learned count with the
// student's learning goal. With a secret wordbook only its words count.
func (s *StatsService) GoalAttainment(ctx context.Context, studentID uuid.UUID) models.GoalAttainment {
	today := s.clock.Today()
	out := models.GoalAttainment{Date: today}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		s.log.Error("failed to load student", "student_id", studentID, "error", err)
		return out
	}
	out.Goal = student.LearningGoal

	basis := s.goalBasis(ctx, student)
	out.Secret = basis != nil

	logs, err := s.logs.LogsBetween(ctx, studentID, today, today)
	if err != nil {
		s.log.Error("failed to load study logs", "student_id", studentID, "error", err)
		return out
	}
	out.Count = learnedByDay(logs, basis)[today]
	out.Met = srs.GoalMet(out.Count, out.Goal)
	return out
}

// StudyStats reports per-day activity from the first logged day to today,
// plus the goal streak.
func (s *StatsService) StudyStats(ctx context.Context, studentID uuid.UUID) models.StudyStats {
	today := s.clock.Today()
	out := models.StudyStats{ByDay: []models.DayStats{}}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		s.log.Error("failed to load student", "student_id", studentID, "error", err)
		return out
	}
	out.LearningGoal = student.LearningGoal

	basis := s.goalBasis(ctx, student)
	out.HasSecret = basis != nil

	first, err := s.logs.FirstLogDate(ctx, studentID)
	if err != nil {
		s.log.Error("failed to load first log date", "student_id", studentID, "error", err)
		return out
	}

	revised := map[string]bool{}
	if _, rev, err := s.completion.CompletionDays(ctx, studentID); err != nil {
		s.log.Error("failed to load completion days", "student_id", studentID, "error", err)
	} else {
		for _, d := range rev {
			revised[d] = true
		}
	}
	out.TodayReviewDone = revised[today]

	if first == "" || first > today {
		return out
	}

	logs, err := s.logs.LogsBetween(ctx, studentID, first, today)
	if err != nil {
		s.log.Error("failed to load study logs", "student_id", studentID, "error", err)
		return out
	}

	goals, err := s.completion.GoalSnapshots(ctx, studentID)
	if err != nil {
		s.log.Warn("failed to load goal snapshots", "student_id", studentID, "error", err)
		goals = map[string]int{}
	}

	learnedAll := learnedByDay(logs, nil)
	learnedBasis := learnedAll
	if basis != nil {
		learnedBasis = learnedByDay(logs, basis)
	}

	byDay := groupLogs(logs)
	for d := first; d != "" && d <= today; d = srs.AddDays(d, 1) {
		day := byDay[d]
		if day == nil {
			day = &dayLogs{}
		}
		goal, ok := goals[d]
		if !ok {
			goal = student.LearningGoal
		}
		out.ByDay = append(out.ByDay, models.DayStats{
			Date:          d,
			Learned:       len(day.learned),
			Reviewed:      len(day.reviewed),
			LearnedWords:  nonNil(day.learned),
			ReviewedWords: nonNil(day.reviewed),
			ReviewDone:    revised[d],
			GoalMet:       srs.GoalMet(learnedBasis[d], goal),
		})
	}

	out.TodayTotalLearned = learnedAll[today]
	if basis != nil {
		out.TodaySecretLearned = learnedBasis[today]
	}
	out.GoalStreakDays = srs.GoalStreak(learnedBasis, goals, student.LearningGoal, today)
	return out
}

// goalBasis returns the secret wordbook's words as a set, or nil when the
// student has none (all learned words count).
func (s *StatsService) goalBasis(ctx context.Context, student *models.Student) map[string]struct{} {
	if student.SecretWordbookID == nil {
		return nil
	}
	words, err := s.wordbooks.Words(ctx, *student.SecretWordbookID)
	if err != nil {
		s.log.Warn("failed to load secret wordbook", "student_id", student.ID, "error", err)
		return nil
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// learnedByDay counts distinct learned words per day, restricted to basis
// when it is non-nil.
func learnedByDay(logs []models.StudyLogEntry, basis map[string]struct{}) map[string]int {
	seen := map[string]map[string]struct{}{}
	for _, l := range logs {
		if l.Kind != models.LogLearn {
			continue
		}
		if basis != nil {
			if _, ok := basis[l.Word]; !ok {
				continue
			}
		}
		if seen[l.Date] == nil {
			seen[l.Date] = map[string]struct{}{}
		}
		seen[l.Date][l.Word] = struct{}{}
	}
	out := make(map[string]int, len(seen))
	for d, words := range seen {
		out[d] = len(words)
	}
	return out
}

type dayLogs struct {
	learned  []string
	reviewed []string
}

func groupLogs(logs []models.StudyLogEntry) map[string]*dayLogs {
	out := map[string]*dayLogs{}
	for _, l := range logs {
		d := out[l.Date]
		if d == nil {
			d = &dayLogs{}
			out[l.Date] = d
		}
		switch l.Kind {
		case models.LogLearn:
			d.learned = append(d.learned, l.Word)
		case models.LogReview:
			d.reviewed = append(d.reviewed, l.Word)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
