// Package app wires repositories and services together for the server and
// the operator CLI.
package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"vocab-backend/internal/cache"
	"vocab-backend/internal/config"
	"vocab-backend/internal/database"
	"vocab-backend/internal/logger"
	"vocab-backend/internal/middleware"
	"vocab-backend/internal/repository"
	"vocab-backend/internal/services"
	"vocab-backend/internal/srs"
	"vocab-backend/internal/websocket"
	"vocab-backend/internal/worker"
)

type Container struct {
	Clock *services.Clock
	JWT   *middleware.JWTAuth

	Students *repository.StudentRepo
	Words    *repository.StudentWordsRepo
	Dict     *repository.WordRepo
	Jobs     *repository.JobRepo
	Events   *websocket.Publisher
	JobQueue *worker.Queue

	Completion *services.CompletionTracker

	SRS       *services.SRSService
	Mastery   *services.MasteryService
	Stats     *services.StatsService
	Goals     *services.GoalService
	Dashboard *services.DashboardService
	Auth      *services.AuthService
}

func Wire(cfg *config.Config, pool *pgxpool.Pool, rc *database.RedisClients, log *logger.Logger) (*Container, error) {
	cal, err := srs.NewCalendar(cfg.ReferenceTimezone)
	if err != nil {
		return nil, err
	}
	clock := services.NewClock(cal)

	var histograms services.HistogramCache
	switch cfg.StreakCacheBackend {
	case "redis":
		histograms = cache.NewRedisHistogramCache(rc.Cache, cfg.StreakCacheTTL)
	case "memory":
		histograms = cache.NewMemoryHistogramCache(cfg.StreakCacheTTL)
	default:
		return nil, fmt.Errorf("unknown STREAK_CACHE_BACKEND %q", cfg.StreakCacheBackend)
	}

	c := &Container{
		Clock:    clock,
		JWT:      middleware.NewJWTAuth(cfg.JWTSecret),
		Students: repository.NewStudentRepo(pool),
		Words:    repository.NewStudentWordsRepo(pool),
		Dict:     repository.NewWordRepo(pool),
		Jobs:     repository.NewJobRepo(pool),
		Events:   websocket.NewPublisher(rc.PubSub),
	}
	c.JobQueue = worker.NewQueue(rc.Queue, c.Jobs)

	completionRepo := repository.NewCompletionRepo(pool)
	logs := repository.NewStudyLogRepo(pool)
	wordbooks := repository.NewWordbookRepo(pool)

	c.Completion = services.NewCompletionTracker(c.Words, c.Students, completionRepo, c.Events, clock, log)
	c.SRS = services.NewSRSService(c.Words, c.Completion, c.Events, clock, log)
	c.Mastery = services.NewMasteryService(c.Words, c.Dict, c.Completion, clock, log)
	c.Stats = services.NewStatsService(c.Students, completionRepo, logs, wordbooks, histograms, clock, log)
	c.Goals = services.NewGoalService(c.Students, c.Completion)
	c.Dashboard = services.NewDashboardService(c.Mastery, c.Stats, c.Completion, c.Words, c.Students, wordbooks, clock, log)
	c.Auth = services.NewAuthService(c.Students, rc.Cache, c.JWT, c.Completion, log)

	return c, nil
}
