package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vocab-backend/internal/handlers"
	"vocab-backend/internal/logger"
	"vocab-backend/internal/middleware"
	"vocab-backend/internal/models"
	"vocab-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	studentHandler *handlers.StudentHandler,
	teacherHandler *handlers.TeacherHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	log *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Student Routes ────
		r.Route("/student", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(models.RoleStudent))
			r.Post("/master-word", studentHandler.MasterWords)
			r.Post("/update-word-review", studentHandler.UpdateWordReview)
			r.Post("/relearn-word", studentHandler.RelearnWord)
			r.Get("/review-words", studentHandler.ReviewWords)
			r.Post("/assign-words", studentHandler.AssignWords)
			r.Get("/stats", studentHandler.Stats)
			r.Get("/study-stats", studentHandler.StudyStats)
			r.Get("/dashboard-summary", studentHandler.DashboardSummary)
			r.Put("/learning-goal", studentHandler.SetLearningGoal)
		})

		// ──── Teacher Routes ────
		r.Route("/teacher", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(models.RoleTeacher, models.RoleAdmin))
			r.Post("/students/{id}/assign-words", teacherHandler.AssignWords)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Delete("/words/{word}", adminHandler.DeleteWord)
			r.Post("/maintenance/reset-missed-reviews", adminHandler.ResetMissedReviews)
			r.Get("/jobs/{id}", adminHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
