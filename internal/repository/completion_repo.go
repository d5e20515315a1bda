package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocab-backend/internal/models"
)

type CompletionRepo struct {
	pool *pgxpool.Pool
}

func NewCompletionRepo(pool *pgxpool.Pool) *CompletionRepo {
	return &CompletionRepo{pool: pool}
}

func (r *CompletionRepo) AddCompletionDay(ctx context.Context, studentID uuid.UUID, day string, kind models.CompletionKind) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO completion_days (student_id, day, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, studentID, day, string(kind))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CompletionRepo) CompletionOn(ctx context.Context, studentID uuid.UUID, day string) (bool, bool, error) {
	var exercise, revision bool
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(BOOL_OR(kind = 'exercise'), FALSE),
			COALESCE(BOOL_OR(kind = 'revision'), FALSE)
		FROM completion_days
		WHERE student_id = $1 AND day = $2`, studentID, day,
	).Scan(&exercise, &revision)
	return exercise, revision, err
}

func (r *CompletionRepo) CompletionDays(ctx context.Context, studentID uuid.UUID) ([]string, []string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, kind FROM completion_days
		WHERE student_id = $1
		ORDER BY day`, studentID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	exercise := []string{}
	revision := []string{}
	for rows.Next() {
		var day, kind string
		if err := rows.Scan(&day, &kind); err != nil {
			return nil, nil, err
		}
		switch models.CompletionKind(kind) {
		case models.CompletionExercise:
			exercise = append(exercise, day)
		case models.CompletionRevision:
			revision = append(revision, day)
		}
	}
	return exercise, revision, rows.Err()
}

// FullyCompleteDays walks every student so that students with no complete
// day still take part in the population figures.
func (r *CompletionRepo) FullyCompleteDays(ctx context.Context) (map[uuid.UUID][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, e.day
		FROM students s
		LEFT JOIN completion_days e
			ON e.student_id = s.id AND e.kind = 'exercise'
			AND EXISTS (
				SELECT 1 FROM completion_days v
				WHERE v.student_id = e.student_id AND v.day = e.day AND v.kind = 'revision'
			)
		WHERE s.role = 'student' AND s.is_active
		ORDER BY s.id, e.day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uuid.UUID][]string{}
	for rows.Next() {
		var (
			id  uuid.UUID
			day *string
		)
		if err := rows.Scan(&id, &day); err != nil {
			return nil, err
		}
		if _, ok := out[id]; !ok {
			out[id] = []string{}
		}
		if day != nil {
			out[id] = append(out[id], *day)
		}
	}
	return out, rows.Err()
}

func (r *CompletionRepo) UpsertGoalSnapshot(ctx context.Context, studentID uuid.UUID, day string, goal int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_goal_records (student_id, day, goal)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, day) DO UPDATE SET goal = EXCLUDED.goal`,
		studentID, day, goal)
	return err
}

func (r *CompletionRepo) GoalSnapshots(ctx context.Context, studentID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT day, goal FROM daily_goal_records WHERE student_id = $1", studentID)
	if err != nil {
		return nil, err
	}

	type snapshot struct {
		Day  string
		Goal int
	}
	snaps, err := pgx.CollectRows(rows, pgx.RowToStructByPos[snapshot])
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(snaps))
	for _, s := range snaps {
		out[s.Day] = s.Goal
	}
	return out, nil
}
