package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/middleware"
	"vocab-backend/internal/models"
)

const refreshTokenTTL = 7 * 24 * time.Hour

type AuthService struct {
	students StudentStore
	redis    *redis.Client
	jwt      *middleware.JWTAuth
	hook     StateChangeHook
	log      *logger.Logger
}

func NewAuthService(students StudentStore, redisClient *redis.Client, jwt *middleware.JWTAuth, hook StateChangeHook, log *logger.Logger) *AuthService {
	return &AuthService{
		students: students,
		redis:    redisClient,
		jwt:      jwt,
		hook:     hook,
		log:      log.With("component", "auth"),
	}
}

// CreateStudent provisions an account. Accounts are created by operators,
// there is no public sign-up.
func (s *AuthService) CreateStudent(ctx context.Context, username, password, role string) (*models.Student, error) {
	username = strings.TrimSpace(username)
	fieldErrors := make(map[string]string)

	if username == "" {
		fieldErrors["username"] = "Username is required"
	}
	if err := validatePassword(password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleTeacher && role != models.RoleAdmin {
		fieldErrors["role"] = "Role must be student, teacher or admin"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	_, err := s.students.GetByUsername(ctx, username)
	if err == nil {
		return nil, &ConflictError{Message: "Username already in use"}
	}
	if !isNoRows(err) {
		return nil, storeErr("lookup username", err)
	}

	// Hash password (bcrypt cost 12)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	student := &models.Student{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, storeErr("create student", err)
	}
	return student, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	student, err := s.students.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if isNoRows(err) {
			return nil, &UnauthorizedError{Message: "Invalid username or password"}
		}
		return nil, storeErr("lookup username", err)
	}

	if !student.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid username or password"}
	}

	if err := s.students.UpdateLastLogin(ctx, student.ID); err != nil {
		s.log.Warn("failed to update last login", "student_id", student.ID, "error", err)
	}

	// A student who finished everything in an earlier session gets today
	// credited on login. Failing that must not block the login itself.
	if student.Role == models.RoleStudent {
		if _, err := s.hook.OnStudentStateChanged(ctx, student.ID); err != nil {
			s.log.Warn("login completion check failed", "student_id", student.ID, "error", err)
		}
	}

	return s.issueTokens(ctx, student)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	// Look up refresh token
	idStr, err := s.redis.Get(ctx, "refresh:"+refreshToken).Result()
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	studentID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid student ID: %w", err)
	}

	// Delete old token (rotation)
	s.redis.Del(ctx, "refresh:"+refreshToken)

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if isNoRows(err) {
			return nil, &UnauthorizedError{Message: "Account no longer exists"}
		}
		return nil, storeErr("load student", err)
	}

	if !student.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	return s.issueTokens(ctx, student)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, "refresh:"+refreshToken).Err()
}

func (s *AuthService) issueTokens(ctx context.Context, student *models.Student) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(student.ID, student.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	err = s.redis.Set(ctx, "refresh:"+refreshToken, student.ID.String(), refreshTokenTTL).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
