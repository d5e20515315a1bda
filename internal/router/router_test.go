package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"vocab-backend/internal/handlers"
	"vocab-backend/internal/logger"
	"vocab-backend/internal/middleware"
	"vocab-backend/internal/models"
)

func TestRouterAccessControl(t *testing.T) {
	jwtAuth := middleware.NewJWTAuth("router-test-secret")
	log := logger.Nop()
	r := New(
		jwtAuth,
		handlers.NewAuthHandler(nil, log),
		handlers.NewStudentHandler(nil, nil, nil, nil, nil),
		handlers.NewTeacherHandler(nil, nil),
		handlers.NewAdminHandler(nil),
		nil,
		"http://localhost:3000",
		log,
	)

	token := func(role string) string {
		tok, err := jwtAuth.GenerateAccessToken(uuid.New(), role)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return tok
	}

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"student route needs a token", http.MethodGet, "/api/v1/student/stats", "", http.StatusUnauthorized},
		{"teacher cannot use student routes", http.MethodGet, "/api/v1/student/stats", token(models.RoleTeacher), http.StatusForbidden},
		{"student cannot assign for others", http.MethodPost, "/api/v1/teacher/students/" + uuid.NewString() + "/assign-words", token(models.RoleStudent), http.StatusForbidden},
		{"student cannot reach admin", http.MethodDelete, "/api/v1/admin/words/apple", token(models.RoleStudent), http.StatusForbidden},
		{"teacher cannot reach admin", http.MethodGet, "/api/v1/admin/jobs/" + uuid.NewString(), token(models.RoleTeacher), http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, rr.Code)
			}
			if rr.Header().Get(middleware.RequestIDHeader) == "" {
				t.Errorf("expected a request id header")
			}
		})
	}
}
