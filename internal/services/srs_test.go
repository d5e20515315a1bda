package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

const day0 = "2024-03-10"

func TestMasterWordsStartsLadder(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(5)
	f.store.addDictionary("apple")

	_, err := f.mastery.Assign(ctx, id, []string{"apple"}, models.SourceTeacher)
	require.NoError(t, err)

	res, err := f.srs.MasterWords(ctx, id, []string{"apple"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, res.Mastered)
	assert.Empty(t, res.AlreadyMastered)

	e := f.store.mastered(id, "apple")
	require.NotNil(t, e)
	assert.Equal(t, day0, e.DateMastered)
	assert.Equal(t, []string{
		"2024-03-11", "2024-03-13", "2024-03-15", "2024-03-17",
		"2024-03-25", "2024-04-09", "2024-05-09", "2024-06-08",
	}, e.ReviewSchedule)
	assert.Zero(t, e.ReviewStageIndex)
	assert.Zero(t, e.ReviewTimes)
	assert.False(t, e.IsFullyMastered)

	pending, mastered, err := f.store.ListStates(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, pending, "a mastered word must leave the to-be-mastered list")
	assert.Len(t, mastered, 1)
}

func TestMasterWordsIsIdempotent(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)

	_, err := f.srs.MasterWords(ctx, id, []string{"apple"})
	require.NoError(t, err)
	before := f.store.mastered(id, "apple")

	moveClock(t, f.clock, "2024-03-11")
	res, err := f.srs.MasterWords(ctx, id, []string{"apple", " apple "})
	require.NoError(t, err)
	assert.Empty(t, res.Mastered)
	assert.Equal(t, []string{"apple"}, res.AlreadyMastered)

	assert.Equal(t, before, f.store.mastered(id, "apple"), "re-mastering must not touch the ladder")
	assert.Len(t, f.store.logsOf(id), 1, "only the first mastery is logged")
}

func TestMasterWordsRequiresWords(t *testing.T) {
	f := newFixture(t, day0)
	_, err := f.srs.MasterWords(context.Background(), f.store.addStudent(0), []string{" ", ""})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "words")
}

func TestReviewPass(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.seedMastered(id, "apple", day0)

	moveClock(t, f.clock, "2024-03-11")
	out, err := f.srs.RecordReviewOutcome(ctx, id, "apple", models.ReviewPass)
	require.NoError(t, err)
	assert.True(t, out.Applied)

	e := f.store.mastered(id, "apple")
	assert.Equal(t, 1, e.ReviewTimes)
	assert.Equal(t, 1, e.ReviewStageIndex)
	assert.Len(t, e.ReviewSchedule, 7)
	assert.NotContains(t, e.ReviewSchedule, "2024-03-11")

	logs := f.store.logsOf(id)
	require.Len(t, logs, 1)
	assert.Equal(t, models.StudyLogEntry{Date: "2024-03-11", Word: "apple", Kind: models.LogReview}, logs[0])
}

func TestReviewFailMovesToTomorrow(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.seedMastered(id, "apple", day0)

	moveClock(t, f.clock, "2024-03-11")
	out, err := f.srs.RecordReviewOutcome(ctx, id, "apple", models.ReviewFail)
	require.NoError(t, err)
	assert.True(t, out.Applied)

	e := f.store.mastered(id, "apple")
	assert.Zero(t, e.ReviewTimes, "failures do not count as reviews passed")
	assert.NotContains(t, e.ReviewSchedule, "2024-03-11")
	assert.Contains(t, e.ReviewSchedule, "2024-03-12")
	assert.True(t, srsSorted(e.ReviewSchedule))
	assert.Len(t, f.store.logsOf(id), 1)

	// The word is due again tomorrow.
	due, err := f.srs.GetDueReviews(ctx, id, "2024-03-12")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, due)
}

func TestReviewNotDueIsNoop(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.seedMastered(id, "apple", day0)
	before := f.store.mastered(id, "apple")

	moveClock(t, f.clock, "2024-03-12")
	for _, r := range []models.ReviewResult{models.ReviewPass, models.ReviewFail} {
		out, err := f.srs.RecordReviewOutcome(ctx, id, "apple", r)
		require.NoError(t, err)
		assert.False(t, out.Applied, r)
	}
	assert.Equal(t, before, f.store.mastered(id, "apple"))
	assert.Empty(t, f.store.logsOf(id))
}

func TestReviewErrors(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)

	_, err := f.srs.RecordReviewOutcome(ctx, id, "ghost", models.ReviewPass)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)

	_, err = f.srs.RecordReviewOutcome(ctx, id, "", "maybe")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "word")
	assert.Contains(t, ve.Fields, "result")
}

func TestPassingEveryStepFullyMasters(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.seedMastered(id, "apple", day0)

	for i, d := range srs.BuildSchedule(day0) {
		moveClock(t, f.clock, d)
		out, err := f.srs.RecordReviewOutcome(ctx, id, "apple", models.ReviewPass)
		require.NoError(t, err)
		require.True(t, out.Applied, "step %d on %s", i, d)
	}

	e := f.store.mastered(id, "apple")
	assert.Empty(t, e.ReviewSchedule)
	assert.Equal(t, srs.LadderLength, e.ReviewStageIndex)
	assert.Equal(t, srs.LadderLength, e.ReviewTimes)
	assert.True(t, e.IsFullyMastered)
}

func TestRelearnWordRestartsLadder(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.seedMastered(id, "apple", "2024-03-01")

	_, err := f.srs.RelearnWord(ctx, id, "apple")
	require.NoError(t, err)

	e := f.store.mastered(id, "apple")
	assert.Equal(t, day0, e.DateMastered)
	assert.Equal(t, srs.BuildSchedule(day0), e.ReviewSchedule)
	assert.Zero(t, e.ReviewStageIndex)
	assert.False(t, e.IsFullyMastered)

	_, err = f.srs.RelearnWord(ctx, id, "pear")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResetMissedReviews(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	other := f.store.addStudent(0)

	// cat was mastered ten days ago and never reviewed: its first review
	// (nine days ago) was missed.
	f.store.seedMastered(id, "cat", srs.AddDays(day0, -10))
	// dog was mastered yesterday; its first review is today, not missed.
	f.store.seedMastered(id, "dog", srs.AddDays(day0, -1))
	f.store.seedMastered(other, "emu", srs.AddDays(day0, -3))

	res, err := f.srs.ResetMissedReviews(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, day0, res.Date)
	assert.Equal(t, 2, res.Words)
	assert.Equal(t, 2, res.Students)

	cat := f.store.mastered(id, "cat")
	assert.Equal(t, day0, cat.DateMastered)
	assert.Equal(t, srs.BuildSchedule(day0), cat.ReviewSchedule)
	assert.Zero(t, cat.ReviewStageIndex)

	dog := f.store.mastered(id, "dog")
	assert.Equal(t, srs.AddDays(day0, -1), dog.DateMastered)

	events := f.events.ofType(models.EventReviewsReset)
	require.Len(t, events, 2)
	for _, e := range events {
		payload := e.msg.Payload.(models.ReviewsResetEvent)
		if e.studentID == id {
			assert.Equal(t, []string{"cat"}, payload.Words)
		}
	}

	// A second run the same day finds nothing.
	res, err = f.srs.ResetMissedReviews(ctx, day0)
	require.NoError(t, err)
	assert.Zero(t, res.Words)
}

func TestResetMissedSkipsFullyMastered(t *testing.T) {
	f := newFixture(t, day0)
	ctx := context.Background()
	id := f.store.addStudent(0)
	f.store.seedMastered(id, "owl", "2023-01-01")
	_, _, err := f.store.MutateMastered(ctx, id, "owl", func(e *models.MasteredEntry) bool {
		e.ReviewSchedule = []string{}
		e.IsFullyMastered = true
		return true
	})
	require.NoError(t, err)

	res, err := f.srs.ResetMissedReviews(ctx, day0)
	require.NoError(t, err)
	assert.Zero(t, res.Words)
	assert.True(t, f.store.mastered(id, "owl").IsFullyMastered)
}

func TestDueReviewsRejectsBadDate(t *testing.T) {
	f := newFixture(t, day0)
	_, err := f.srs.GetDueReviews(context.Background(), f.store.addStudent(0), "10/03/2024")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.srs.ResetMissedReviews(context.Background(), "yesterday")
	assert.ErrorAs(t, err, &ve)
}

func srsSorted(days []string) bool {
	for i := 1; i < len(days); i++ {
		if days[i-1] >= days[i] {
			return false
		}
	}
	return true
}
