package models

import "github.com/google/uuid"

type MasterResult struct {
	Mastered        []string `json:"mastered"`
	AlreadyMastered []string `json:"already_mastered"`
}

type ReviewOutcome struct {
	Word    string       `json:"word"`
	Result  ReviewResult `json:"result"`
	Applied bool         `json:"applied"`
}

type AssignResult struct {
	Added      int      `json:"added"`
	Skipped    int      `json:"skipped"`
	Invalid    int      `json:"invalid"`
	AddedWords []string `json:"added_words"`
}

// ReconcileResult reports what a dashboard reconciliation purged. A word can
// not be in both states at once, so only dictionary ghosts need removing.
type ReconcileResult struct {
	GhostsRemoved int64 `json:"ghosts_removed"`
}

// MissedReset identifies one word whose ladder was restarted.
type MissedReset struct {
	StudentID uuid.UUID
	Word      string
}

type ResetResult struct {
	Date     string `json:"date"`
	Words    int    `json:"words"`
	Students int    `json:"students"`
}

type CompletionStatus struct {
	Date           string `json:"date"`
	ExerciseDone   bool   `json:"exercise_done"`
	RevisionDone   bool   `json:"revision_done"`
	NewlyCompleted bool   `json:"newly_completed"`
	PendingWords   int    `json:"pending_words"`
	PendingReviews int    `json:"pending_reviews"`
}

type CompactStats struct {
	CurrentStreak int    `json:"current_streak"`
	MaxStreak     int    `json:"max_streak"`
	Percentile    int    `json:"percentile"`
	TodayLearned  int    `json:"today_learned"`
	TodayGoal     int    `json:"today_goal"`
	GoalTodayMet  bool   `json:"goal_today_met"`
	TodayComplete bool   `json:"today_complete"`
	HasSecret     bool   `json:"has_secret"`
	Date          string `json:"date"`
}

type GoalAttainment struct {
	Date   string `json:"date"`
	Goal   int    `json:"goal"`
	Count  int    `json:"count"`
	Met    bool   `json:"met"`
	Secret bool   `json:"secret"`
}

type DayStats struct {
	Date          string   `json:"date"`
	Learned       int      `json:"learned"`
	Reviewed      int      `json:"reviewed"`
	LearnedWords  []string `json:"learned_words"`
	ReviewedWords []string `json:"reviewed_words"`
	ReviewDone    bool     `json:"review_done"`
	GoalMet       bool     `json:"goal_met"`
}

type StudyStats struct {
	ByDay              []DayStats `json:"by_day"`
	LearningGoal       int        `json:"learning_goal"`
	GoalStreakDays     int        `json:"goal_streak_days"`
	TodayTotalLearned  int        `json:"today_total_learned"`
	TodaySecretLearned int        `json:"today_secret_learned"`
	TodayReviewDone    bool       `json:"today_review_done"`
	HasSecret          bool       `json:"has_secret"`
}

type DashboardSummary struct {
	Date                    string              `json:"date"`
	TeacherAssigned         []ToBeMasteredEntry `json:"teacher_assigned"`
	SelfAssigned            []ToBeMasteredEntry `json:"self_assigned"`
	DueReviews              []string            `json:"due_reviews"`
	MasteredCount           int                 `json:"mastered_count"`
	Stats                   CompactStats        `json:"stats"`
	Completion              CompletionStatus    `json:"completion"`
	Reconciled              ReconcileResult     `json:"reconciled"`
	SecretWordbookCompleted bool                `json:"secret_wordbook_completed"`
}
