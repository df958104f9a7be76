package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/examprep-backend/internal/config"
	"github.com/stemsi/examprep-backend/internal/handler"
	"github.com/stemsi/examprep-backend/internal/logger"
	"github.com/stemsi/examprep-backend/internal/middleware"
	"github.com/stemsi/examprep-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Exam    *handler.ExamHandler
	Result  *handler.ResultHandler
	Flag    *handler.FlagHandler
	Note    *handler.NoteHandler
	Case    *handler.CaseHandler
	Admin   *handler.AdminHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope share it.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.GinMiddleware(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	requireAuth := middleware.RequireAuth(auth)

	// ─── 1. Auth (rate limited) ────────────────────────────────────────
	authAPI := router.Group("/api/v1/auth")
	authAPI.Use(authLimiter.Middleware())
	{
		authAPI.POST("/register", handlers.Auth.Register)
		authAPI.POST("/login", handlers.Auth.Login)
		authAPI.POST("/logout", requireAuth, handlers.Auth.Logout)
		authAPI.GET("/me", requireAuth, handlers.Auth.Me)
	}

	// ─── 2. Learner API (JWT + live session) ───────────────────────────
	api := router.Group("/api/v1")
	api.Use(requireAuth)
	{
		catalog := api.Group("/catalog")
		{
			catalog.GET("/banks", middleware.CacheControl(60), handlers.Catalog.ListBanks)
			catalog.GET("/banks/:bank_id/categories", middleware.CacheControl(60), handlers.Catalog.ListCategories)
			catalog.GET("/availability", handlers.Catalog.Availability)
			catalog.GET("/subscriptions", handlers.Catalog.Subscriptions)
		}

		exams := api.Group("/exams")
		{
			exams.POST("", handlers.Exam.CreateExam)
			exams.GET("", handlers.Exam.ListExams)
			exams.GET("/:exam_id", handlers.Exam.GetExam)
			exams.POST("/:exam_id/start", handlers.Exam.StartExam)
			exams.POST("/:exam_id/resume", handlers.Exam.ResumeExam)
			exams.GET("/:exam_id/state", handlers.Exam.GetState)
			exams.POST("/:exam_id/answers", handlers.Exam.SelectAnswer)
			exams.POST("/:exam_id/next", handlers.Exam.NextQuestion)
			exams.POST("/:exam_id/previous", handlers.Exam.PreviousQuestion)
			exams.POST("/:exam_id/finish", handlers.Exam.FinishExam)
		}

		api.GET("/results", handlers.Result.ListResults)
		api.GET("/results/:result_id", handlers.Result.GetResult)

		api.GET("/flags", handlers.Flag.ListFlags)
		api.POST("/flags/:question_id", handlers.Flag.Flag)
		api.DELETE("/flags/:question_id", handlers.Flag.Unflag)

		api.GET("/notes", handlers.Note.ListNotes)
		api.GET("/notes/:question_id", handlers.Note.GetNote)
		api.PUT("/notes/:question_id", handlers.Note.SaveNote)
		api.DELETE("/notes/:question_id", handlers.Note.DeleteNote)

		cases := api.Group("/cases")
		{
			cases.GET("", handlers.Case.ListCases)
			cases.GET("/:case_id", handlers.Case.GetCase)
			cases.POST("/:case_id/start", handlers.Case.StartCase)
			cases.POST("/:case_id/answers", handlers.Case.SubmitAnswer)
			cases.POST("/:case_id/progress", handlers.Case.UpdateProgress)
			cases.POST("/:case_id/complete", handlers.Case.CompleteCase)
		}
	}

	// ─── 3. WebSocket (token via ?token=) ──────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireAuth)
	{
		ws.GET("/exams/:exam_id/stream", handlers.WS.ExamStream)
	}

	// ─── 4. Admin ──────────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireAuth, middleware.RequireAdmin())
	{
		adminAPI.POST("/banks", handlers.Admin.CreateBank)
		adminAPI.POST("/categories", handlers.Admin.CreateCategory)
		adminAPI.POST("/questions", handlers.Admin.CreateQuestion)
		adminAPI.PUT("/questions/:question_id/options", handlers.Admin.ReplaceOptions)
		adminAPI.GET("/questions/:question_id/stats", handlers.Admin.QuestionStats)
		adminAPI.POST("/cases", handlers.Admin.CreateCase)
		adminAPI.POST("/subscriptions", handlers.Admin.GrantSubscription)
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
