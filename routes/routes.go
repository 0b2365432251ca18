package routes

import (
	"database/sql"

	"attendance_backend/attendance"
	"attendance_backend/config"
	"attendance_backend/handlers"
	"attendance_backend/middleware"
	"attendance_backend/models"

	"github.com/gin-gonic/gin"
)

// Evaluator builds the attendance evaluator described by cfg.
func Evaluator(cfg *config.Config) attendance.Evaluator {
	var matcher attendance.Matcher = attendance.DegreeBox{Delta: cfg.MatchDeltaDegrees}
	if cfg.MatchRadiusMeters > 0 {
		matcher = attendance.Haversine{Meters: cfg.MatchRadiusMeters}
	}
	return attendance.Evaluator{Matcher: matcher, Threshold: cfg.AttendanceThreshold}
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, db *sql.DB, cfg *config.Config) {
	tokens := middleware.NewTokenService(db, []byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(db, tokens)
	sessionHandler := handlers.NewSessionHandler(db, cfg.SessionLocation(), attendance.DegreeBox{Delta: cfg.JoinDeltaDegrees})
	locationHandler := handlers.NewLocationHandler(db)
	userHandler := handlers.NewUserHandler(db)
	attendanceHandler := handlers.NewAttendanceHandler(db, Evaluator(cfg))

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	attendeeOnly := middleware.RequireRole(models.RoleAttendee)

	// Public routes
	r.GET("/health", healthHandler.HealthCheck)

	auth := r.Group("/auth")
	{
		auth.POST("/register-admin", authHandler.RegisterAdmin)
		auth.POST("/register-attendee", authHandler.RegisterAttendee)
		auth.POST("/login-admin", authHandler.LoginAdmin)
		auth.POST("/login-attendee", authHandler.LoginAttendee)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// Protected routes
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", userHandler.GetUserInfo)

		// Session routes
		protected.POST("/sessions", adminOnly, sessionHandler.CreateSession)
		protected.POST("/sessions/:id/locations", adminOnly, sessionHandler.AddLocations)
		protected.GET("/sessions/:id/attendees", adminOnly, sessionHandler.GetSessionAttendees)
		protected.GET("/sessions/created", adminOnly, sessionHandler.GetCreatedSessions)
		protected.GET("/sessions/active", sessionHandler.GetActiveSessions)
		protected.GET("/sessions/joined", attendeeOnly, sessionHandler.GetJoinedSessions)
		protected.GET("/sessions/attended", attendeeOnly, sessionHandler.GetAttendedSessions)
		protected.POST("/sessions/:id/join", attendeeOnly, sessionHandler.JoinSession)

		// Location routes
		protected.POST("/locations", attendeeOnly, locationHandler.ReportLocation)

		// Attendance routes
		protected.GET("/attendance/students/:id", adminOnly, attendanceHandler.GetStudentAttendance)
		protected.GET("/attendance", attendeeOnly, attendanceHandler.GetMyAttendance)
	}
}
