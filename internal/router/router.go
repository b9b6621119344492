package router

import (
	"net/http"
	"time"

	"github.com/avialearn/avialearn-backend/internal/config"
	"github.com/avialearn/avialearn-backend/internal/handler"
	"github.com/avialearn/avialearn-backend/internal/middleware"
	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/response"
	"github.com/avialearn/avialearn-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Course        *handler.CourseHandler
	TraineePortal *handler.TraineePortalHandler
	WS            *handler.WSHandler
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	{
		// Certificate verification for third parties (employers, CAA).
		publicAPI.GET("/certificates/:number", handlers.TraineePortal.VerifyCertificate)
	}

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireAuth(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
	}

	// ─── 2. Trainee Group (JWT + Trainee Role + Single Device) ─────────
	traineeAPI := router.Group("/api/v1/trainee")
	traineeAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireTrainee(),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		traineeAPI.GET("/courses", handlers.TraineePortal.Catalog)
		traineeAPI.GET("/courses/:courseId", handlers.TraineePortal.GetCourse)
		traineeAPI.POST("/courses/:courseId/enroll", handlers.TraineePortal.Enroll)
		traineeAPI.GET("/progress", handlers.TraineePortal.MyProgress)

		// Exam lifecycle over HTTP; the WebSocket stream mirrors the
		// answer/submit operations for live sessions.
		traineeAPI.POST("/courses/:courseId/exam/start", handlers.TraineePortal.StartExam)
		traineeAPI.GET("/courses/:courseId/exam", handlers.TraineePortal.GetExamState)
		traineeAPI.PUT("/courses/:courseId/exam/answer", handlers.TraineePortal.SelectAnswer)
		traineeAPI.POST("/courses/:courseId/exam/submit", handlers.TraineePortal.SubmitExam)
		traineeAPI.DELETE("/courses/:courseId/exam", handlers.TraineePortal.AbandonExam)

		traineeAPI.GET("/courses/:courseId/attempts", handlers.TraineePortal.ListAttempts)
		traineeAPI.GET("/attempts/:attemptId/replay", handlers.TraineePortal.GetReplay)
		traineeAPI.GET("/certificates", handlers.TraineePortal.MyCertificates)
	}

	// ─── 3. WebSocket Group (Trainee WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTraineeWSAuth(authService))
	{
		ws.GET("/courses/:courseId/exam/stream", handlers.WS.ExamStream)
	}

	// ─── 4. Staff Group (JWT + Instructor/Admin Role) ──────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireStaff(),
	)
	{
		// Course authoring
		staffAPI.GET("/courses", handlers.Course.List)
		staffAPI.POST("/courses", handlers.Course.Create)
		staffAPI.GET("/courses/:courseId", handlers.Course.Get)
		staffAPI.PUT("/courses/:courseId", handlers.Course.Update)
		staffAPI.DELETE("/courses/:courseId", handlers.Course.Delete)
		staffAPI.PUT("/courses/:courseId/exam", handlers.Course.ConfigureExam)
		staffAPI.POST("/courses/:courseId/publish", handlers.Course.Publish)
		staffAPI.POST("/courses/:courseId/archive", handlers.Course.Archive)

		// Lessons
		staffAPI.POST("/courses/:courseId/lessons", handlers.Course.AddLesson)
		staffAPI.PUT("/lessons/:lessonId", handlers.Course.UpdateLesson)
		staffAPI.PUT("/lessons/:lessonId/exam", handlers.Course.ConfigureLessonExam)
		staffAPI.DELETE("/lessons/:lessonId", handlers.Course.DeleteLesson)

		// Question pools
		staffAPI.GET("/courses/:courseId/questions", handlers.Course.ListQuestions)
		staffAPI.POST("/courses/:courseId/questions", handlers.Course.AddQuestion)
		staffAPI.PUT("/questions/:questionId", handlers.Course.UpdateQuestion)
		staffAPI.DELETE("/questions/:questionId", handlers.Course.DeleteQuestion)

		// Practical check sign-off
		staffAPI.POST("/courses/:courseId/trainees/:userId/practical", handlers.Course.SignOffPractical)

		// Replay access for graders
		staffAPI.GET("/attempts/:attemptId/replay", handlers.TraineePortal.GetReplay)

		// Trainee session reset
		staffAPI.POST("/trainees/:userId/reset-session", handlers.Auth.ResetTraineeSession)

		// Account management (admin only)
		adminOnly := staffAPI.Group("/users")
		adminOnly.Use(middleware.RequireRoles(model.RoleAdmin))
		{
			adminOnly.GET("", handlers.User.List)
			adminOnly.POST("", handlers.User.Create)
			adminOnly.GET("/:userId", handlers.User.Get)
			adminOnly.PUT("/:userId", handlers.User.Update)
			adminOnly.DELETE("/:userId", handlers.User.Delete)
		}
	}

	return router
}
