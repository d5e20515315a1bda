package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"vocab-backend/internal/middleware"
	"vocab-backend/internal/models"
)

type reviewService interface {
	MasterWords(ctx context.Context, studentID uuid.UUID, words []string) (*models.MasterResult, error)
	RecordReviewOutcome(ctx context.Context, studentID uuid.UUID, word string, result models.ReviewResult) (*models.ReviewOutcome, error)
	RelearnWord(ctx context.Context, studentID uuid.UUID, word string) (*models.MasteredEntry, error)
	GetDueReviews(ctx context.Context, studentID uuid.UUID, date string) ([]string, error)
}

type wordAssigner interface {
	Assign(ctx context.Context, studentID uuid.UUID, words []string, source models.Source) (*models.AssignResult, error)
}

type statsReader interface {
	CompactStats(ctx context.Context, studentID uuid.UUID) models.CompactStats
	StudyStats(ctx context.Context, studentID uuid.UUID) models.StudyStats
}

type dashboardBuilder interface {
	Summary(ctx context.Context, studentID uuid.UUID) (*models.DashboardSummary, error)
}

type goalSetter interface {
	SetLearningGoal(ctx context.Context, studentID uuid.UUID, goal int) (*models.Student, error)
}

// StudentHandler serves the signed-in student's own word lists and stats.
type StudentHandler struct {
	reviews   reviewService
	assigner  wordAssigner
	stats     statsReader
	dashboard dashboardBuilder
	goals     goalSetter
}

func NewStudentHandler(reviews reviewService, assigner wordAssigner, stats statsReader, dashboard dashboardBuilder, goals goalSetter) *StudentHandler {
	return &StudentHandler{
		reviews:   reviews,
		assigner:  assigner,
		stats:     stats,
		dashboard: dashboard,
		goals:     goals,
	}
}

type wordsRequest struct {
	Words []string `json:"words"`
}

type wordRequest struct {
	Word   string `json:"word"`
	Result string `json:"result,omitempty"`
}

func (h *StudentHandler) MasterWords(w http.ResponseWriter, r *http.Request) {
	var req wordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.reviews.MasterWords(r.Context(), middleware.GetStudentID(r.Context()), req.Words)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *StudentHandler) UpdateWordReview(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	outcome, err := h.reviews.RecordReviewOutcome(r.Context(), middleware.GetStudentID(r.Context()),
		req.Word, models.ReviewResult(req.Result))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (h *StudentHandler) RelearnWord(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	entry, err := h.reviews.RelearnWord(r.Context(), middleware.GetStudentID(r.Context()), req.Word)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *StudentHandler) ReviewWords(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	words, err := h.reviews.GetDueReviews(r.Context(), middleware.GetStudentID(r.Context()), date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"words": words})
}

func (h *StudentHandler) AssignWords(w http.ResponseWriter, r *http.Request) {
	var req wordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.assigner.Assign(r.Context(), middleware.GetStudentID(r.Context()), req.Words, models.SourceStudent)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *StudentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.CompactStats(r.Context(), middleware.GetStudentID(r.Context())))
}

func (h *StudentHandler) StudyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.StudyStats(r.Context(), middleware.GetStudentID(r.Context())))
}

func (h *StudentHandler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context(), middleware.GetStudentID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *StudentHandler) SetLearningGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LearningGoal *int `json:"learning_goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.LearningGoal == nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"learning_goal": "Learning goal is required"}, r))
		return
	}

	student, err := h.goals.SetLearningGoal(r.Context(), middleware.GetStudentID(r.Context()), *req.LearningGoal)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"learning_goal":        student.LearningGoal,
		"learning_goal_locked": student.LearningGoalLocked,
	})
}
