package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"attendance_backend/attendance"
	"attendance_backend/db"
	"attendance_backend/middleware"
	"attendance_backend/models"

	"github.com/gin-gonic/gin"
)

// SessionTimeLayout is the wall-clock format accepted for session windows.
const SessionTimeLayout = "2006-01-02 15:04:05"

type SessionHandler struct {
	db          *sql.DB
	location    *time.Location
	joinMatcher attendance.Matcher
	now         func() time.Time
}

func NewSessionHandler(database *sql.DB, location *time.Location, joinMatcher attendance.Matcher) *SessionHandler {
	return &SessionHandler{
		db:          database,
		location:    location,
		joinMatcher: joinMatcher,
		now:         time.Now,
	}
}

func (h *SessionHandler) parseTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(SessionTimeLayout, value, h.location); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format %q, expected YYYY-MM-DD HH:MM:SS", value)
	}
	return t, nil
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	adminID := c.GetInt64("userID")

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := h.parseTime(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := h.parseTime(req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !start.Before(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ensure the session start and end times are correct"})
		return
	}

	ctx := c.Request.Context()
	exists, err := db.AccountExists(ctx, h.db, models.RoleAdmin, adminID)
	if err != nil {
		log.Printf("[%s] Error verifying admin: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify admin"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin does not exist"})
		return
	}

	locations := make([]models.Location, 0, len(req.Locations))
	for _, in := range req.Locations {
		locations = append(locations, in.Location())
	}

	var sessionID int64
	err = db.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		id, err := db.CreateSession(ctx, tx, adminID, start, end)
		if err != nil {
			return err
		}
		sessionID = id
		return db.AddLocations(ctx, tx, id, locations)
	})
	if err != nil {
		log.Printf("[%s] Error creating session: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, models.Session{
		ID:        sessionID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		AdminID:   adminID,
		Locations: locations,
	})
}

// ownedSession loads the session named by :id and checks the caller owns it.
// It writes the error response itself and returns nil on failure.
func (h *SessionHandler) ownedSession(c *gin.Context) *models.Session {
	sessionID, ok := paramID(c, "id")
	if !ok {
		return nil
	}
	session, err := db.GetSession(c.Request.Context(), h.db, sessionID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil
	}
	if err != nil {
		log.Printf("[%s] Error fetching session: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return nil
	}
	if session.AdminID != c.GetInt64("userID") {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not the session manager"})
		return nil
	}
	return session
}

func (h *SessionHandler) AddLocations(c *gin.Context) {
	var req models.AddLocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := h.ownedSession(c)
	if session == nil {
		return
	}

	locations := make([]models.Location, 0, len(req.Locations))
	for _, in := range req.Locations {
		locations = append(locations, in.Location())
	}

	ctx := c.Request.Context()
	err := db.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		return db.AddLocations(ctx, tx, session.ID, locations)
	})
	if err != nil {
		log.Printf("[%s] Error adding session locations: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update session locations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "Session locations updated"})
}

func (h *SessionHandler) GetSessionAttendees(c *gin.Context) {
	session := h.ownedSession(c)
	if session == nil {
		return
	}
	if len(session.Locations) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session location not found"})
		return
	}

	attendees, err := db.SessionAttendees(c.Request.Context(), h.db, session.ID)
	if err != nil {
		log.Printf("[%s] Error fetching attendees: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch attendees"})
		return
	}

	c.JSON(http.StatusOK, models.SessionAttendeesResponse{
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		Locations: session.Locations,
		Attendees: attendees,
	})
}

func (h *SessionHandler) GetCreatedSessions(c *gin.Context) {
	sessions, err := db.SessionsCreatedBy(c.Request.Context(), h.db, c.GetInt64("userID"))
	h.respondSessions(c, sessions, err)
}

func (h *SessionHandler) GetJoinedSessions(c *gin.Context) {
	sessions, err := db.SessionsJoinedBy(c.Request.Context(), h.db, c.GetInt64("userID"))
	h.respondSessions(c, sessions, err)
}

// GetAttendedSessions lists joined sessions with their anchors for the attendee.
func (h *SessionHandler) GetAttendedSessions(c *gin.Context) {
	sessions, err := db.SessionsJoinedBy(c.Request.Context(), h.db, c.GetInt64("userID"))
	if err == nil {
		withAnchors := sessions[:0]
		for _, s := range sessions {
			if len(s.Locations) > 0 {
				withAnchors = append(withAnchors, s)
			}
		}
		sessions = withAnchors
	}
	h.respondSessions(c, sessions, err)
}

func (h *SessionHandler) GetActiveSessions(c *gin.Context) {
	var exclude int64
	if c.GetString("userRole") == models.RoleAttendee {
		exclude = c.GetInt64("userID")
	}
	sessions, err := db.ActiveSessions(c.Request.Context(), h.db, h.now(), exclude)
	h.respondSessions(c, sessions, err)
}

func (h *SessionHandler) respondSessions(c *gin.Context, sessions []models.Session, err error) {
	if err != nil {
		log.Printf("[%s] Error fetching sessions: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) JoinSession(c *gin.Context) {
	attendeeID := c.GetInt64("userID")
	sessionID, ok := paramID(c, "id")
	if !ok {
		return
	}

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

	session, err := db.GetSession(ctx, h.db, sessionID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session does not exist"})
		return
	}
	if err != nil {
		log.Printf("[%s] Error fetching session: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	now := h.now()
	if now.Before(session.StartTime) || now.After(session.EndTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session not active"})
		return
	}
	if len(session.Locations) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session location not found"})
		return
	}

	sample := models.LocationSample{
		AttendeeID: attendeeID,
		Timestamp:  now,
		Latitude:   round6(*req.Latitude),
		Longitude:  round6(*req.Longitude),
	}
	if !h.atAnyAnchor(sample, session.Locations) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are not in the session location"})
		return
	}

	err = db.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		if err := db.JoinSession(ctx, tx, attendeeID, sessionID, now); err != nil {
			return err
		}
		return db.InsertSample(ctx, tx, sample)
	})
	if errors.Is(err, db.ErrAlreadyJoined) {
		c.JSON(http.StatusConflict, gin.H{"error": "Session already joined"})
		return
	}
	if err != nil {
		log.Printf("[%s] Error joining session: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "Session joined successfully"})
}

func (h *SessionHandler) atAnyAnchor(sample models.LocationSample, anchors []models.Location) bool {
	for _, a := range anchors {
		if h.joinMatcher.Match(sample, a) {
			return true
		}
	}
	return false
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// paramID parses a positive integer path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
