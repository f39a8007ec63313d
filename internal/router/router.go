package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/database"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	WS      *handler.WSHandler
	Monitor *handler.MonitorHandler
	// Health lists the backends /health pings. Empty means liveness only.
	Health  map[string]database.Pinger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// answerLimiter throttles answer submissions per user on the REST surface;
// the WebSocket handler shares it.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	answerLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Compress(middleware.DefaultCompressConfig))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if failed := database.Check(ctx, handlers.Health); len(failed) > 0 {
			response.FailWithFields(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable, failed)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Quiz Group (User JWT) ──────────────────────────────────────
	quizAPI := router.Group("/api/v1/quiz")
	quizAPI.Use(middleware.RequireUserJWT(authService))
	{
		quizAPI.POST("/sessions", handlers.Session.StartSession)
		quizAPI.GET("/sessions/current", handlers.Session.GetCurrent)
		quizAPI.DELETE("/sessions/current", handlers.Session.AbandonCurrent)
		quizAPI.GET("/results", handlers.Session.ListResults)

		if answerLimiter != nil {
			quizAPI.POST("/sessions/answer", answerLimiter.Middleware(), handlers.Session.SubmitAnswer)
		} else {
			quizAPI.POST("/sessions/answer", handlers.Session.SubmitAnswer)
		}
	}

	// ─── 2. Monitor Group (Monitor JWT) ────────────────────────────────
	monitorAPI := router.Group("/api/v1/monitor")
	monitorAPI.Use(middleware.RequireMonitorJWT(authService))
	{
		monitorAPI.GET("/stream", handlers.Monitor.MonitorStream)
	}

	// ─── 3. WebSocket Group (query token) ──────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/quiz/stream", handlers.WS.QuizStream)
	}

	return router
}

// NewAnswerLimiter builds the per-user answer limiter from config. A
// non-positive rate disables limiting.
func NewAnswerLimiter(ctx context.Context, cfg *config.Config) *middleware.RateLimiter {
	if cfg.AnswerRateLimit <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(ctx, cfg.AnswerRateLimit, time.Second, middleware.ByUser)
}
