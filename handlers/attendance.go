package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"attendance_backend/attendance"
	"attendance_backend/db"
	"attendance_backend/middleware"
	"attendance_backend/models"

	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct {
	db        *sql.DB
	evaluator attendance.Evaluator
	now       func() time.Time
}

func NewAttendanceHandler(database *sql.DB, evaluator attendance.Evaluator) *AttendanceHandler {
	return &AttendanceHandler{db: database, evaluator: evaluator, now: time.Now}
}

// GetStudentAttendance evaluates the admin's ended sessions joined by student :id.
func (h *AttendanceHandler) GetStudentAttendance(c *gin.Context) {
	studentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	exists, err := db.AccountExists(ctx, h.db, models.RoleAttendee, studentID)
	if err != nil {
		log.Printf("[%s] Error verifying student: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify student"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	sessions, err := db.EndedSessionsForStudent(ctx, h.db, c.GetInt64("userID"), studentID, h.now())
	if err != nil {
		log.Printf("[%s] Error fetching sessions: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}
	h.respond(c, studentID, sessions)
}

// GetMyAttendance evaluates every ended session the caller joined.
func (h *AttendanceHandler) GetMyAttendance(c *gin.Context) {
	attendeeID := c.GetInt64("userID")
	sessions, err := db.EndedSessionsJoinedBy(c.Request.Context(), h.db, attendeeID, h.now())
	if err != nil {
		log.Printf("[%s] Error fetching sessions: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}
	h.respond(c, attendeeID, sessions)
}

func (h *AttendanceHandler) respond(c *gin.Context, attendeeID int64, sessions []models.Session) {
	var samples []models.LocationSample
	if from, to, ok := attendance.Span(sessions); ok {
		var err error
		samples, err = db.SamplesFor(c.Request.Context(), h.db, attendeeID, from, to)
		if err != nil {
			log.Printf("[%s] Error fetching locations: %v", middleware.GetRequestID(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
			return
		}
	}

	if c.Query("detail") == "true" {
		reports, err := h.evaluator.Report(samples, sessions)
		if h.evaluationFailed(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": reports})
		return
	}

	result, err := h.evaluator.Evaluate(samples, sessions)
	if h.evaluationFailed(c, err) {
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AttendanceHandler) evaluationFailed(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, attendance.ErrNoAnchor) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session location not found"})
		return true
	}
	log.Printf("[%s] Error evaluating attendance: %v", middleware.GetRequestID(c), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate attendance"})
	return true
}
