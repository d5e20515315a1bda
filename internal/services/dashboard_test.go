package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(1)
	f.store.addDictionary("apple", "banana", "cat", "dog")
	// Seeded before assigning: a revision flag recorded while nothing was
	// due would stick for the rest of the day.
	f.store.seedMastered(id, "cat", srs.AddDays(day0, -1))
	f.store.seedMastered(id, "dog", srs.AddDays(day0, -2))

	_, err := f.mastery.Assign(ctx, id, []string{"apple"}, models.SourceTeacher)
	require.NoError(t, err)
	_, err = f.mastery.Assign(ctx, id, []string{"banana"}, models.SourceStudent)
	require.NoError(t, err)

	sum, err := f.dashboard.Summary(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, day0, sum.Date)
	require.Len(t, sum.TeacherAssigned, 1)
	assert.Equal(t, "apple", sum.TeacherAssigned[0].Word)
	require.Len(t, sum.SelfAssigned, 1)
	assert.Equal(t, "banana", sum.SelfAssigned[0].Word)
	assert.Equal(t, []string{"cat"}, sum.DueReviews)
	assert.Equal(t, 2, sum.MasteredCount)
	assert.False(t, sum.Completion.ExerciseDone)
	assert.False(t, sum.Completion.RevisionDone)
	assert.Equal(t, 2, sum.Completion.PendingWords)
	assert.Equal(t, 1, sum.Completion.PendingReviews)
	assert.False(t, sum.SecretWordbookCompleted)
	assert.Equal(t, day0, sum.Stats.Date)

	_, revision, err := f.store.CompletionOn(ctx, id, day0)
	require.NoError(t, err)
	assert.False(t, revision)
}

func TestDashboardCreditsEarlierWork(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.addDictionary("apple")
	f.store.seedMastered(id, "apple", srs.AddDays(day0, -6))

	// Nothing is pending today, so simply opening the dashboard completes it.
	sum, err := f.dashboard.Summary(ctx, id)
	require.NoError(t, err)
	assert.True(t, sum.Completion.ExerciseDone)
	assert.True(t, sum.Completion.RevisionDone)
	assert.True(t, sum.Completion.NewlyCompleted)
	assert.Equal(t, 1, sum.Stats.CurrentStreak)
	assert.True(t, sum.Stats.TodayComplete)
	assert.Empty(t, sum.DueReviews)
	assert.NotNil(t, sum.DueReviews)
	assert.Len(t, f.events.ofType(models.EventDayCompleted), 1)
}

func TestDashboardReconcilesGhosts(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.seedMastered(id, "ghost", srs.AddDays(day0, -1))

	sum, err := f.dashboard.Summary(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sum.Reconciled.GhostsRemoved)
	assert.Zero(t, sum.MasteredCount)
	assert.Empty(t, sum.DueReviews)
}

func TestDashboardSecretWordbook(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.addDictionary("apple", "banana")
	book := uuid.New()
	f.store.books[book] = []string{"apple", "banana"}
	f.store.students[id].SecretWordbookID = &book

	_, err := f.srs.MasterWords(ctx, id, []string{"apple"})
	require.NoError(t, err)
	sum, err := f.dashboard.Summary(ctx, id)
	require.NoError(t, err)
	assert.False(t, sum.SecretWordbookCompleted)
	assert.True(t, sum.Stats.HasSecret)

	_, err = f.srs.MasterWords(ctx, id, []string{"banana"})
	require.NoError(t, err)
	sum, err = f.dashboard.Summary(ctx, id)
	require.NoError(t, err)
	assert.True(t, sum.SecretWordbookCompleted)
}
