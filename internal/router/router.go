package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/handler"
	"github.com/invigo/invigo-backend/internal/middleware"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Candidate  *handler.CandidateHandler
	AdminUser  *handler.AdminUserHandler
	Catalog    *handler.CatalogHandler
	Assignment *handler.AssignmentHandler
	Report     *handler.ReportHandler
	MonitorWS  *handler.MonitorWSHandler
	Health     *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.Health.Check)

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		candidateAPI.GET("/assignments", handlers.Candidate.ListAssignments)
		candidateAPI.POST("/sessions/validate", handlers.Candidate.ValidateCode)
		candidateAPI.POST("/sessions", handlers.Candidate.StartSession)
		candidateAPI.GET("/sessions/:session_id", handlers.Candidate.GetSession)
		candidateAPI.PUT("/sessions/:session_id/answers", handlers.Candidate.SaveAnswer)
		candidateAPI.POST("/sessions/:session_id/submit", handlers.Candidate.Submit)
		candidateAPI.POST("/sessions/:session_id/violations", handlers.Candidate.ReportViolation)
	}

	// ─── 3. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/sessions/:session_id/monitor", handlers.MonitorWS.SessionMonitorStream)
	}

	// ─── 4. Admin Group (JWT, admin role) ──────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// User management
		adminAPI.GET("/users", handlers.AdminUser.List)
		adminAPI.POST("/users", handlers.AdminUser.Create)
		adminAPI.GET("/users/:user_id", handlers.AdminUser.Get)
		adminAPI.PATCH("/users/:user_id", handlers.AdminUser.Update)
		adminAPI.POST("/users/:user_id/reset-login", handlers.AdminUser.ResetLogin)
		adminAPI.GET("/users/:user_id/overview", handlers.Report.CandidateOverview)

		// Test types
		adminAPI.GET("/test-types", handlers.Catalog.ListTestTypes)
		adminAPI.POST("/test-types", handlers.Catalog.CreateTestType)
		adminAPI.DELETE("/test-types/:test_type_id", handlers.Catalog.DeleteTestType)

		// Question sets and questions
		adminAPI.GET("/question-sets", handlers.Catalog.ListQuestionSets)
		adminAPI.POST("/question-sets", handlers.Catalog.CreateQuestionSet)
		adminAPI.GET("/question-sets/:set_id", handlers.Catalog.GetQuestionSet)
		adminAPI.PATCH("/question-sets/:set_id", handlers.Catalog.UpdateQuestionSet)
		adminAPI.GET("/question-sets/:set_id/questions", handlers.Catalog.ListQuestions)
		adminAPI.POST("/question-sets/:set_id/questions", handlers.Catalog.CreateQuestion)
		adminAPI.PUT("/question-sets/:set_id/questions/order", handlers.Catalog.ReorderQuestions)
		adminAPI.PATCH("/question-sets/:set_id/questions/:question_id", handlers.Catalog.UpdateQuestion)
		adminAPI.DELETE("/question-sets/:set_id/questions/:question_id", handlers.Catalog.DeleteQuestion)

		// Assignments and session codes
		adminAPI.POST("/assignments", handlers.Assignment.Create)
		adminAPI.GET("/assignments/:assignment_id", handlers.Assignment.Get)
		adminAPI.POST("/assignments/:assignment_id/code", handlers.Assignment.RegenerateCode)
		adminAPI.PATCH("/assignments/:assignment_id/active", handlers.Assignment.SetActive)
		adminAPI.GET("/question-sets/:set_id/assignments", handlers.Assignment.ListByQuestionSet)

		// Reporting and monitoring
		adminAPI.GET("/reports/dashboard", handlers.Report.Dashboard)
		adminAPI.GET("/violations", handlers.Report.ListViolations)
		adminAPI.GET("/question-sets/:set_id/monitor", handlers.Report.Monitor)
		adminAPI.GET("/sessions/:session_id", handlers.Report.SessionDetail)
		adminAPI.GET("/sessions/:session_id/violations", handlers.Report.SessionViolations)
	}

	return router
}
