package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vocab-backend/internal/models"
)

type studentDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type TeacherHandler struct {
	assigner wordAssigner
	students studentDirectory
}

func NewTeacherHandler(assigner wordAssigner, students studentDirectory) *TeacherHandler {
	return &TeacherHandler{assigner: assigner, students: students}
}

// AssignWords puts words on a student's list on the teacher's behalf.
func (h *TeacherHandler) AssignWords(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid student ID", r))
		return
	}

	var req wordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	ok, err := h.students.Exists(r.Context(), studentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Student not found", r))
		return
	}

	result, err := h.assigner.Assign(r.Context(), studentID, req.Words, models.SourceTeacher)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
