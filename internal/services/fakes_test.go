package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"vocab-backend/internal/cache"
	"vocab-backend/internal/logger"
	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

// memStore is an in-memory stand-in for every store port. One mutex guards
// all of it, which gives the same per-call atomicity the postgres repos do.
type memStore struct {
	mu sync.Mutex

	students map[uuid.UUID]*models.Student
	words    map[uuid.UUID][]*trackedWord
	logs     map[uuid.UUID][]models.StudyLogEntry
	exercise map[uuid.UUID]map[string]bool
	revision map[uuid.UUID]map[string]bool
	goals    map[uuid.UUID]map[string]int
	dict     map[string]bool
	books    map[uuid.UUID][]string
}

type trackedWord struct {
	word     string
	pending  *models.ToBeMasteredEntry
	mastered *models.MasteredEntry
}

func newMemStore() *memStore {
	return &memStore{
		students: map[uuid.UUID]*models.Student{},
		words:    map[uuid.UUID][]*trackedWord{},
		logs:     map[uuid.UUID][]models.StudyLogEntry{},
		exercise: map[uuid.UUID]map[string]bool{},
		revision: map[uuid.UUID]map[string]bool{},
		goals:    map[uuid.UUID]map[string]int{},
		dict:     map[string]bool{},
		books:    map[uuid.UUID][]string{},
	}
}

func (m *memStore) addStudent(goal int) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.students[id] = &models.Student{
		ID:           id,
		Username:     id.String()[:8],
		Role:         models.RoleStudent,
		LearningGoal: goal,
		IsActive:     true,
	}
	return id
}

func (m *memStore) addDictionary(words ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range words {
		m.dict[w] = true
	}
}

// seedMastered places word on its ladder as if it was mastered on day.
func (m *memStore) seedMastered(studentID uuid.UUID, word, day string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words[studentID] = append(m.words[studentID], &trackedWord{
		word: word,
		mastered: &models.MasteredEntry{
			Word:           word,
			DateMastered:   day,
			ReviewSchedule: srs.BuildSchedule(day),
		},
	})
}

func (m *memStore) seedCompletion(studentID uuid.UUID, days ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range days {
		setDay(m.exercise, studentID, d)
		setDay(m.revision, studentID, d)
	}
}

func (m *memStore) find(studentID uuid.UUID, word string) *trackedWord {
	for _, w := range m.words[studentID] {
		if w.word == word {
			return w
		}
	}
	return nil
}

func (m *memStore) mastered(studentID uuid.UUID, word string) *models.MasteredEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.find(studentID, word); w != nil && w.mastered != nil {
		cp := *w.mastered
		cp.ReviewSchedule = append([]string(nil), w.mastered.ReviewSchedule...)
		return &cp
	}
	return nil
}

func (m *memStore) logsOf(studentID uuid.UUID) []models.StudyLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.StudyLogEntry(nil), m.logs[studentID]...)
}

func setDay(sets map[uuid.UUID]map[string]bool, studentID uuid.UUID, day string) bool {
	if sets[studentID] == nil {
		sets[studentID] = map[string]bool{}
	}
	if sets[studentID][day] {
		return false
	}
	sets[studentID][day] = true
	return true
}

func sortedDays(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// WordStore

func (m *memStore) MasterWords(_ context.Context, studentID uuid.UUID, entries []models.MasteredEntry) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range entries {
		e := e
		w := m.find(studentID, e.Word)
		if w == nil {
			w = &trackedWord{word: e.Word}
			m.words[studentID] = append(m.words[studentID], w)
		}
		if w.mastered != nil {
			continue
		}
		w.pending = nil
		w.mastered = &e
		out = append(out, e.Word)
		m.logs[studentID] = append(m.logs[studentID], models.StudyLogEntry{Date: e.DateMastered, Word: e.Word, Kind: models.LogLearn})
	}
	return out, nil
}

func (m *memStore) MutateMastered(_ context.Context, studentID uuid.UUID, word string, fn func(*models.MasteredEntry) bool, logs ...models.StudyLogEntry) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.find(studentID, word)
	if w == nil || w.mastered == nil {
		return false, false, nil
	}
	e := *w.mastered
	e.ReviewSchedule = append([]string(nil), w.mastered.ReviewSchedule...)
	if !fn(&e) {
		return true, false, nil
	}
	w.mastered = &e
	m.logs[studentID] = append(m.logs[studentID], logs...)
	return true, true, nil
}

func (m *memStore) DueWords(_ context.Context, studentID uuid.UUID, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, w := range m.words[studentID] {
		if w.mastered != nil && srs.IsDue(w.mastered.ReviewSchedule, date) {
			out = append(out, w.word)
		}
	}
	return out, nil
}

func (m *memStore) ResetMissed(_ context.Context, date string, schedule []string) ([]models.MissedReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MissedReset
	for studentID, words := range m.words {
		for _, w := range words {
			e := w.mastered
			if e == nil || e.IsFullyMastered || !srs.Missed(e.ReviewSchedule, date) {
				continue
			}
			e.DateMastered = date
			e.ReviewSchedule = append([]string(nil), schedule...)
			e.ReviewStageIndex = 0
			out = append(out, models.MissedReset{StudentID: studentID, Word: w.word})
		}
	}
	return out, nil
}

func (m *memStore) AddToBeMastered(_ context.Context, studentID uuid.UUID, entries []models.ToBeMasteredEntry) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range entries {
		e := e
		if m.find(studentID, e.Word) != nil {
			continue
		}
		m.words[studentID] = append(m.words[studentID], &trackedWord{word: e.Word, pending: &e})
		out = append(out, e.Word)
	}
	return out, nil
}

func (m *memStore) ListStates(_ context.Context, studentID uuid.UUID) ([]models.ToBeMasteredEntry, []models.MasteredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		pending  []models.ToBeMasteredEntry
		mastered []models.MasteredEntry
	)
	for _, w := range m.words[studentID] {
		switch {
		case w.pending != nil:
			pending = append(pending, *w.pending)
		case w.mastered != nil:
			mastered = append(mastered, *w.mastered)
		}
	}
	return pending, mastered, nil
}

func (m *memStore) CountToBeMastered(_ context.Context, studentID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.words[studentID] {
		if w.pending != nil {
			n++
		}
	}
	return n, nil
}

func (m *memStore) RemoveWord(_ context.Context, word string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id := range m.words {
		n += m.removeWhere(id, func(w string) bool { return w == word })
	}
	return n, nil
}

func (m *memStore) RemoveUnknown(_ context.Context, studentID *uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unknown := func(w string) bool { return !m.dict[w] }
	if studentID != nil {
		return m.removeWhere(*studentID, unknown), nil
	}
	var n int64
	for id := range m.words {
		n += m.removeWhere(id, unknown)
	}
	return n, nil
}

func (m *memStore) removeWhere(studentID uuid.UUID, drop func(string) bool) int64 {
	var n int64
	kept := m.words[studentID][:0]
	for _, w := range m.words[studentID] {
		if drop(w.word) {
			n++
			continue
		}
		kept = append(kept, w)
	}
	m.words[studentID] = kept
	return n
}

// StudentStore

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.Username == username {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) Create(_ context.Context, s *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	m.students[s.ID] = &cp
	return nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[id]; ok {
		now := time.Now()
		s.LastLoginAt = &now
	}
	return nil
}

func (m *memStore) SetLearningGoal(_ context.Context, id uuid.UUID, goal int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.LearningGoal = goal
	return nil
}

// CompletionStore

func (m *memStore) AddCompletionDay(_ context.Context, studentID uuid.UUID, day string, kind models.CompletionKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == models.CompletionExercise {
		return setDay(m.exercise, studentID, day), nil
	}
	return setDay(m.revision, studentID, day), nil
}

func (m *memStore) CompletionOn(_ context.Context, studentID uuid.UUID, day string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exercise[studentID][day], m.revision[studentID][day], nil
}

func (m *memStore) CompletionDays(_ context.Context, studentID uuid.UUID) ([]string, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedDays(m.exercise[studentID]), sortedDays(m.revision[studentID]), nil
}

func (m *memStore) FullyCompleteDays(_ context.Context) (map[uuid.UUID][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID][]string, len(m.students))
	for id, s := range m.students {
		if s.Role != models.RoleStudent || !s.IsActive {
			continue
		}
		out[id] = srs.FullyCompleteDays(sortedDays(m.exercise[id]), sortedDays(m.revision[id]))
	}
	return out, nil
}

func (m *memStore) UpsertGoalSnapshot(_ context.Context, studentID uuid.UUID, day string, goal int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.goals[studentID] == nil {
		m.goals[studentID] = map[string]int{}
	}
	m.goals[studentID][day] = goal
	return nil
}

func (m *memStore) GoalSnapshots(_ context.Context, studentID uuid.UUID) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for d, g := range m.goals[studentID] {
		out[d] = g
	}
	return out, nil
}

// StudyLogStore

func (m *memStore) LogsBetween(_ context.Context, studentID uuid.UUID, from, to string) ([]models.StudyLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudyLogEntry
	for _, l := range m.logs[studentID] {
		if l.Date >= from && l.Date <= to {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) FirstLogDate(_ context.Context, studentID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	first := ""
	for _, l := range m.logs[studentID] {
		if first == "" || l.Date < first {
			first = l.Date
		}
	}
	return first, nil
}

// WordDictionary

func (m *memStore) Exists(_ context.Context, word string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dict[word], nil
}

func (m *memStore) Existing(_ context.Context, words []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]bool{}
	for _, w := range words {
		if m.dict[w] {
			out[w] = true
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, word string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.dict[word]
	delete(m.dict, word)
	return ok, nil
}

func (m *memStore) Upsert(_ context.Context, words []models.Word) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range words {
		m.dict[w.Word] = true
	}
	return len(words), nil
}

// WordbookStore

func (m *memStore) Words(_ context.Context, wordbookID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.books[wordbookID]...), nil
}

type published struct {
	studentID uuid.UUID
	msg       models.WSMessage
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) Publish(_ context.Context, studentID uuid.UUID, msg models.WSMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{studentID: studentID, msg: msg})
	return nil
}

func (p *recordingPublisher) ofType(typ string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, s := range p.sent {
		if s.msg.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// pinnedClock returns a Clock fixed at noon of day in the reference zone.
func pinnedClock(t *testing.T, day string) *Clock {
	t.Helper()
	cal := srs.MustCalendar()
	midnight, err := cal.StartOfDay(day)
	if err != nil {
		t.Fatalf("bad day %q: %v", day, err)
	}
	c := NewClock(cal)
	c.Now = func() time.Time { return midnight.Add(12 * time.Hour) }
	return c
}

// moveClock moves a pinned clock to another calendar day.
func moveClock(t *testing.T, c *Clock, day string) {
	t.Helper()
	*c = *pinnedClock(t, day)
}

type fixture struct {
	store      *memStore
	events     *recordingPublisher
	clock      *Clock
	completion *CompletionTracker
	srs        *SRSService
	mastery    *MasteryService
	stats      *StatsService
	goals      *GoalService
	dashboard  *DashboardService
}

// stores is every port the services depend on.
type stores interface {
	WordStore
	StudentStore
	CompletionStore
	StudyLogStore
	WordDictionary
	WordbookStore
}

func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	store := newMemStore()
	return wireFixture(t, today, store, store)
}

// wireFixture builds the services on top of ports. seed is the memStore
// behind ports, used by tests to arrange state directly.
func wireFixture(t *testing.T, today string, seed *memStore, ports stores) *fixture {
	t.Helper()
	log := logger.Nop()
	events := &recordingPublisher{}
	clock := pinnedClock(t, today)

	completion := NewCompletionTracker(ports, ports, ports, events, clock, log)
	mastery := NewMasteryService(ports, ports, completion, clock, log)
	stats := NewStatsService(ports, ports, ports, ports, cache.NewMemoryHistogramCache(time.Minute), clock, log)
	return &fixture{
		store:      seed,
		events:     events,
		clock:      clock,
		completion: completion,
		srs:        NewSRSService(ports, completion, events, clock, log),
		mastery:    mastery,
		stats:      stats,
		goals:      NewGoalService(ports, completion),
		dashboard:  NewDashboardService(mastery, stats, completion, ports, ports, ports, clock, log),
	}
}
