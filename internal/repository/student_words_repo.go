package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocab-backend/internal/models"
)

// StudentWordsRepo stores one row per (student, word); the status column
// says whether the word is still to be mastered or already mastered.
type StudentWordsRepo struct {
	pool *pgxpool.Pool
}

func NewStudentWordsRepo(pool *pgxpool.Pool) *StudentWordsRepo {
	return &StudentWordsRepo{pool: pool}
}

const (
	statusToBeMastered = "to_be_mastered"
	statusMastered     = "mastered"
)

func (r *StudentWordsRepo) MasterWords(ctx context.Context, studentID uuid.UUID, entries []models.MasteredEntry) ([]string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The conditional DO UPDATE makes an already mastered word return no row.
	query := `
		INSERT INTO student_words (student_id, word, status, date_mastered, review_schedule,
			review_stage_index, review_times, is_fully_mastered)
		VALUES ($1, $2, 'mastered', $3, $4, 0, 0, FALSE)
		ON CONFLICT (student_id, word) DO UPDATE
		SET status = 'mastered',
			date_mastered = EXCLUDED.date_mastered,
			review_schedule = EXCLUDED.review_schedule,
			review_stage_index = 0,
			review_times = 0,
			is_fully_mastered = FALSE,
			updated_at = NOW()
		WHERE student_words.status = 'to_be_mastered'
		RETURNING word`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, studentID, e.Word, e.DateMastered, e.ReviewSchedule)
	}

	results := tx.SendBatch(ctx, batch)
	mastered := make([]string, 0, len(entries))
	logs := make([]models.StudyLogEntry, 0, len(entries))
	for i := range entries {
		var word string
		err := results.QueryRow().Scan(&word)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			results.Close()
			return nil, fmt.Errorf("failed to master %q: %w", entries[i].Word, err)
		}
		mastered = append(mastered, word)
		logs = append(logs, models.StudyLogEntry{Date: entries[i].DateMastered, Word: word, Kind: models.LogLearn})
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to master words: %w", err)
	}

	if err := insertLogs(ctx, tx, studentID, logs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit mastery: %w", err)
	}
	return mastered, nil
}

func (r *StudentWordsRepo) MutateMastered(ctx context.Context, studentID uuid.UUID, word string, fn func(*models.MasteredEntry) bool, logs ...models.StudyLogEntry) (bool, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	e := models.MasteredEntry{}
	err = tx.QueryRow(ctx, `
		SELECT word, date_mastered, review_schedule, review_stage_index, review_times, is_fully_mastered
		FROM student_words
		WHERE student_id = $1 AND word = $2 AND status = 'mastered'
		FOR UPDATE`, studentID, word,
	).Scan(&e.Word, &e.DateMastered, &e.ReviewSchedule, &e.ReviewStageIndex, &e.ReviewTimes, &e.IsFullyMastered)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to load mastered word: %w", err)
	}

	if !fn(&e) {
		return true, false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE student_words
		SET date_mastered = $3, review_schedule = $4, review_stage_index = $5,
			review_times = $6, is_fully_mastered = $7, updated_at = NOW()
		WHERE student_id = $1 AND word = $2`,
		studentID, word, e.DateMastered, e.ReviewSchedule, e.ReviewStageIndex, e.ReviewTimes, e.IsFullyMastered,
	)
	if err != nil {
		return true, false, fmt.Errorf("failed to update mastered word: %w", err)
	}

	if err := insertLogs(ctx, tx, studentID, logs); err != nil {
		return true, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return true, false, fmt.Errorf("failed to commit review: %w", err)
	}
	return true, true, nil
}

func (r *StudentWordsRepo) DueWords(ctx context.Context, studentID uuid.UUID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT word FROM student_words
		WHERE student_id = $1 AND status = 'mastered' AND $2 = ANY(review_schedule)
		ORDER BY position`, studentID, date)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *StudentWordsRepo) ResetMissed(ctx context.Context, date string, schedule []string) ([]models.MissedReset, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE student_words
		SET date_mastered = $1, review_schedule = $2, review_stage_index = 0,
			is_fully_mastered = FALSE, updated_at = NOW()
		WHERE status = 'mastered'
		  AND NOT is_fully_mastered
		  AND EXISTS (SELECT 1 FROM unnest(review_schedule) AS d WHERE d < $1)
		RETURNING student_id, word`, date, schedule)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.MissedReset, error) {
		var m models.MissedReset
		err := row.Scan(&m.StudentID, &m.Word)
		return m, err
	})
}

func (r *StudentWordsRepo) AddToBeMastered(ctx context.Context, studentID uuid.UUID, entries []models.ToBeMasteredEntry) ([]string, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO student_words (student_id, word, status, assigned_date, due_date, source)
			VALUES ($1, $2, 'to_be_mastered', $3, $4, $5)
			ON CONFLICT (student_id, word) DO NOTHING
			RETURNING word`,
			studentID, e.Word, e.AssignedDate, e.DueDate, string(e.Source),
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	added := make([]string, 0, len(entries))
	for range entries {
		var word string
		err := results.QueryRow().Scan(&word)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to assign word: %w", err)
		}
		added = append(added, word)
	}
	return added, nil
}

func (r *StudentWordsRepo) ListStates(ctx context.Context, studentID uuid.UUID) ([]models.ToBeMasteredEntry, []models.MasteredEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT word, status, assigned_date, due_date, source, date_mastered,
			review_schedule, review_stage_index, review_times, is_fully_mastered
		FROM student_words
		WHERE student_id = $1
		ORDER BY position`, studentID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		pending  []models.ToBeMasteredEntry
		mastered []models.MasteredEntry
	)
	for rows.Next() {
		var (
			word, status                        string
			assigned, due, source, dateMastered *string
			schedule                            []string
			stage, times                        int
			full                                bool
		)
		if err := rows.Scan(&word, &status, &assigned, &due, &source, &dateMastered,
			&schedule, &stage, &times, &full); err != nil {
			return nil, nil, err
		}

		switch status {
		case statusToBeMastered:
			pending = append(pending, models.ToBeMasteredEntry{
				Word:         word,
				AssignedDate: deref(assigned),
				DueDate:      deref(due),
				Source:       models.Source(deref(source)),
			})
		case statusMastered:
			mastered = append(mastered, models.MasteredEntry{
				Word:             word,
				DateMastered:     deref(dateMastered),
				ReviewSchedule:   schedule,
				ReviewStageIndex: stage,
				ReviewTimes:      times,
				IsFullyMastered:  full,
			})
		}
	}
	return pending, mastered, rows.Err()
}

func (r *StudentWordsRepo) CountToBeMastered(ctx context.Context, studentID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM student_words WHERE student_id = $1 AND status = 'to_be_mastered'", studentID,
	).Scan(&n)
	return n, err
}

func (r *StudentWordsRepo) RemoveWord(ctx context.Context, word string) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM student_words WHERE word = $1", word)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *StudentWordsRepo) RemoveUnknown(ctx context.Context, studentID *uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM student_words sw
		WHERE ($1::uuid IS NULL OR sw.student_id = $1)
		  AND NOT EXISTS (SELECT 1 FROM words w WHERE w.word = sw.word)`, studentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func insertLogs(ctx context.Context, tx pgx.Tx, studentID uuid.UUID, logs []models.StudyLogEntry) error {
	if len(logs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []any{studentID, l.Date, l.Word, string(l.Kind)})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"study_logs"},
		[]string{"student_id", "log_date", "word", "kind"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to append study logs: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
