package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vocab-backend/internal/middleware"
	"vocab-backend/internal/models"
	"vocab-backend/internal/srs"
)

type jobQueue interface {
	Enqueue(ctx context.Context, userID uuid.UUID, jobType, reference string) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// AdminHandler exposes maintenance jobs. The work itself runs on the worker
// pool; these endpoints only queue it and report on it.
type AdminHandler struct {
	jobs jobQueue
}

func NewAdminHandler(jobs jobQueue) *AdminHandler {
	return &AdminHandler{jobs: jobs}
}

func (h *AdminHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(chi.URLParam(r, "word"))
	if word == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Word is required", r))
		return
	}

	h.enqueue(w, r, models.JobGhostWordCleanup, word)
}

func (h *AdminHandler) ResetMissedReviews(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
	}
	if req.Date != "" {
		if _, err := srs.ParseDate(req.Date); err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{"date": "Date must be YYYY-MM-DD"}, r))
			return
		}
	}

	h.enqueue(w, r, models.JobMissedReviewReset, req.Date)
}

func (h *AdminHandler) enqueue(w http.ResponseWriter, r *http.Request, jobType, reference string) {
	job, err := h.jobs.Enqueue(r.Context(), middleware.GetStudentID(r.Context()), jobType, reference)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *AdminHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
