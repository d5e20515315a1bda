package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocab-backend/internal/models"
)

type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

const studentColumns = `id, username, password_hash, role, learning_goal, learning_goal_locked,
	secret_wordbook_id, is_active, created_at, last_login_at`

func scanStudent(row interface{ Scan(...any) error }) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(
		&s.ID, &s.Username, &s.PasswordHash, &s.Role, &s.LearningGoal, &s.LearningGoalLocked,
		&s.SecretWordbookID, &s.IsActive, &s.CreatedAt, &s.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StudentRepo) Create(ctx context.Context, s *models.Student) error {
	query := `
		INSERT INTO students (id, username, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	s.ID = uuid.New()
	if s.Role == "" {
		s.Role = models.RoleStudent
	}

	return r.pool.QueryRow(ctx, query,
		s.ID, s.Username, s.PasswordHash, s.Role, s.IsActive,
	).Scan(&s.CreatedAt)
}

func (r *StudentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

func (r *StudentRepo) GetByUsername(ctx context.Context, username string) (*models.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE username = $1`, username))
}

func (r *StudentRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE students SET last_login_at = NOW() WHERE id = $1", id)
	return err
}

func (r *StudentRepo) SetLearningGoal(ctx context.Context, id uuid.UUID, goal int) error {
	_, err := r.pool.Exec(ctx, "UPDATE students SET learning_goal = $1 WHERE id = $2", goal, id)
	return err
}

// Exists reports whether a student account with role student exists.
func (r *StudentRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM students WHERE id = $1 AND role = 'student')", id,
	).Scan(&ok)
	return ok, err
}
