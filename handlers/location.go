package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"attendance_backend/db"
	"attendance_backend/middleware"
	"attendance_backend/models"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	db  *sql.DB
	now func() time.Time
}

func NewLocationHandler(database *sql.DB) *LocationHandler {
	return &LocationHandler{db: database, now: time.Now}
}

// ReportLocation stores the attendee's current position as a sample.
func (h *LocationHandler) ReportLocation(c *gin.Context) {
	attendeeID := c.GetInt64("userID")

	var req models.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	exists, err := db.AccountExists(ctx, h.db, models.RoleAttendee, attendeeID)
	if err != nil {
		log.Printf("[%s] Error verifying attendee: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify attendee"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attendee does not exist"})
		return
	}

	err = db.InsertSample(ctx, h.db, models.LocationSample{
		AttendeeID: attendeeID,
		Timestamp:  h.now(),
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
	})
	if err != nil {
		log.Printf("[%s] Error storing location: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store location"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "Location received"})
}
