package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/handler"
	"github.com/rtdacademy/connect-backend/internal/middleware"
	"github.com/rtdacademy/connect-backend/internal/model"
	"github.com/rtdacademy/connect-backend/internal/response"
	"github.com/rtdacademy/connect-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Registration *handler.RegistrationHandler
	Assessment   *handler.AssessmentHandler
	ExamSession  *handler.ExamSessionHandler
	Course       *handler.CourseHandler
	Credit       *handler.CreditHandler
	Document     *handler.DocumentHandler
	Staff        *handler.StaffHandler
	Monitor      *handler.MonitorHandler
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

	// Serve uploaded family documents statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", "./uploads")
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Brute-force protection on the unauthenticated write endpoints.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/courses", handlers.Course.List)
		publicAPI.GET("/courses/:course_id", handlers.Course.Get)
		publicAPI.GET("/facilitators", handlers.Registration.ListFacilitators)
		publicAPI.POST("/registrations", authLimiter.Middleware(), handlers.Registration.Submit)
	}

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/student/login", authLimiter.Middleware(), handlers.Auth.StudentLogin)
		auth.POST("/staff/login", authLimiter.Middleware(), handlers.Auth.StaffLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
		auth.GET("/staff/me", middleware.RequireStaffJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/family", handlers.Registration.GetMyFamily)

		studentAPI.POST("/courses/:course_id/assessments/:code/generate", handlers.Assessment.Generate)
		studentAPI.POST("/courses/:course_id/assessments/:code/evaluate", handlers.Assessment.Evaluate)
		studentAPI.GET("/courses/:course_id/assessments/:code", handlers.Assessment.Get)
		studentAPI.GET("/courses/:course_id/grades", handlers.Assessment.ListGrades)

		studentAPI.GET("/courses/:course_id/exams", handlers.ExamSession.ListExams)
		studentAPI.POST("/exams/:exam_id/sessions", handlers.ExamSession.StartSession)
		studentAPI.GET("/exam-sessions/:session_id", handlers.ExamSession.GetSession)
		studentAPI.PUT("/exam-sessions/:session_id/answers", handlers.ExamSession.SaveAnswer)
		studentAPI.POST("/exam-sessions/:session_id/submit", handlers.ExamSession.SubmitSession)

		studentAPI.GET("/credits", handlers.Credit.GetMyCredits)

		studentAPI.POST("/documents", handlers.Document.Upload)
		studentAPI.GET("/documents", handlers.Document.ListMine)
	}

	// ─── 3. WebSocket Group (Staff WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStaffWSAuth(authService))
	{
		ws.GET("/staff/courses/:course_id/monitor", handlers.Monitor.CourseMonitorStream)
	}

	// ─── 4. Staff Group (JWT + RBAC) ───────────────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(middleware.RequireStaffJWT(authService))
	{
		// Course catalog management
		staffAPI.POST("/courses",
			middleware.RequirePermission(string(model.PermissionCoursesWrite)),
			handlers.Course.Create,
		)
		staffAPI.PATCH("/courses/:course_id",
			middleware.RequirePermission(string(model.PermissionCoursesWrite)),
			handlers.Course.Update,
		)
		staffAPI.PUT("/courses/:course_id/assessments",
			middleware.RequirePermission(string(model.PermissionCoursesWrite)),
			handlers.Course.UpsertAssessmentConfig,
		)
		staffAPI.GET("/courses/:course_id/fallback-questions",
			middleware.RequirePermission(string(model.PermissionCoursesRead)),
			handlers.Course.ListFallbackQuestions,
		)
		staffAPI.POST("/courses/:course_id/fallback-questions",
			middleware.RequirePermission(string(model.PermissionCoursesWrite)),
			handlers.Course.AddFallbackQuestion,
		)

		// Exam scheduling
		staffAPI.POST("/courses/:course_id/exams",
			middleware.RequirePermission(string(model.PermissionExamsWrite)),
			handlers.ExamSession.CreateExam,
		)

		// Assessment operations on behalf of a student (student_email in payload)
		staffAPI.POST("/courses/:course_id/assessments/:code/generate",
			middleware.RequirePermission(string(model.PermissionGradebookWrite)),
			handlers.Assessment.Generate,
		)
		staffAPI.POST("/courses/:course_id/assessments/:code/evaluate",
			middleware.RequirePermission(string(model.PermissionGradebookWrite)),
			handlers.Assessment.Evaluate,
		)
		staffAPI.GET("/courses/:course_id/assessments/:code",
			middleware.RequirePermission(string(model.PermissionCoursesRead)),
			handlers.Assessment.Get,
		)
		staffAPI.GET("/courses/:course_id/grades",
			middleware.RequirePermission(string(model.PermissionCoursesRead)),
			handlers.Assessment.ListGrades,
		)
		staffAPI.POST("/grades/direct",
			middleware.RequirePermission(string(model.PermissionGradebookWrite)),
			handlers.Assessment.DirectScore,
		)

		// Credit records
		staffAPI.GET("/students/:student_id/credits",
			middleware.RequirePermission(string(model.PermissionCreditsRead)),
			handlers.Credit.GetStudentCredits,
		)
		staffAPI.POST("/students/:student_id/credits/recompute",
			middleware.RequirePermission(string(model.PermissionCreditsRead)),
			handlers.Credit.RecomputeStudentCredits,
		)

		// Families and their documents
		staffAPI.GET("/families/:id",
			middleware.RequirePermission(string(model.PermissionRegistrationsRead)),
			handlers.Registration.GetFamily,
		)
		staffAPI.GET("/families/:id/documents",
			middleware.RequirePermission(string(model.PermissionDocumentsRead)),
			handlers.Document.ListFamily,
		)

		// Staff account management
		staffAPI.POST("/staff",
			middleware.RequirePermission(string(model.PermissionStaffWrite)),
			handlers.Staff.Create,
		)
		staffAPI.GET("/roles",
			middleware.RequirePermission(string(model.PermissionStaffWrite)),
			handlers.Staff.ListRoles,
		)
	}

	return router
}
