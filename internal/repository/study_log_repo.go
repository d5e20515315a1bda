package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocab-backend/internal/models"
)

// StudyLogRepo reads the append-only study log. Writes happen inside the
// word state transactions in StudentWordsRepo.
type StudyLogRepo struct {
	pool *pgxpool.Pool
}

func NewStudyLogRepo(pool *pgxpool.Pool) *StudyLogRepo {
	return &StudyLogRepo{pool: pool}
}

func (r *StudyLogRepo) LogsBetween(ctx context.Context, studentID uuid.UUID, from, to string) ([]models.StudyLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT log_date, word, kind FROM study_logs
		WHERE student_id = $1 AND log_date BETWEEN $2 AND $3
		ORDER BY id`, studentID, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StudyLogEntry, error) {
		var (
			e    models.StudyLogEntry
			kind string
		)
		err := row.Scan(&e.Date, &e.Word, &kind)
		e.Kind = models.LogKind(kind)
		return e, err
	})
}

// FirstLogDate returns "" when the student has never studied.
func (r *StudyLogRepo) FirstLogDate(ctx context.Context, studentID uuid.UUID) (string, error) {
	var first *string
	err := r.pool.QueryRow(ctx,
		"SELECT MIN(log_date) FROM study_logs WHERE student_id = $1", studentID,
	).Scan(&first)
	if err != nil {
		return "", err
	}
	return deref(first), nil
}
