package models

// Source records who put a word on a student's to-be-mastered list.
type Source string

const (
	SourceTeacher Source = "teacher"
	SourceStudent Source = "student"
)

func (s Source) Valid() bool {
	return s == SourceTeacher || s == SourceStudent
}

// WordState is implemented by exactly the two states a tracked word can be
// in. A student's word is stored as one row, so it is always exactly one.
type WordState interface {
	TrackedWord() string
	wordState()
}

// ToBeMasteredEntry is a word assigned to a student but not yet learned.
type ToBeMasteredEntry struct {
	Word         string `json:"word"`
	AssignedDate string `json:"assigned_date"`
	DueDate      string `json:"due_date"`
	Source       Source `json:"source"`
}

// MasteredEntry is a learned word on its review ladder.
type MasteredEntry struct {
	Word             string   `json:"word"`
	DateMastered     string   `json:"date_mastered"`
	ReviewSchedule   []string `json:"review_schedule"`
	ReviewStageIndex int      `json:"review_stage_index"`
	ReviewTimes      int      `json:"review_times"`
	IsFullyMastered  bool     `json:"is_fully_mastered"`
}

func (e ToBeMasteredEntry) TrackedWord() string { return e.Word }
func (ToBeMasteredEntry) wordState()            {}

func (e MasteredEntry) TrackedWord() string { return e.Word }
func (MasteredEntry) wordState()            {}

// ReviewResult is the outcome of a single review attempt.
type ReviewResult string

const (
	ReviewPass ReviewResult = "pass"
	ReviewFail ReviewResult = "fail"
)

func (r ReviewResult) Valid() bool {
	return r == ReviewPass || r == ReviewFail
}

// LogKind distinguishes study log entries.
type LogKind string

const (
	LogLearn  LogKind = "learn"
	LogReview LogKind = "review"
)

type StudyLogEntry struct {
	Date string  `json:"date"`
	Word string  `json:"word"`
	Kind LogKind `json:"type"`
}

// CompletionKind names the two per-day completion sets.
type CompletionKind string

const (
	CompletionExercise CompletionKind = "exercise"
	CompletionRevision CompletionKind = "revision"
)

type DailyGoalRecord struct {
	Date string `json:"date"`
	Goal int    `json:"goal"`
}

// Word is a dictionary entry.
type Word struct {
	Word         string `json:"word"`
	Definition   string `json:"definition"`
	PartOfSpeech string `json:"part_of_speech"`
}
