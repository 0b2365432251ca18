package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"attendance_backend/db"
	"attendance_backend/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	db *sql.DB
}

func NewUserHandler(db *sql.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUserInfo returns the caller's account profile
func (h *UserHandler) GetUserInfo(c *gin.Context) {
	acct, err := db.GetAccount(c.Request.Context(), h.db, c.GetString("userRole"), c.GetInt64("userID"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Please sign up first"})
		return
	}
	if err != nil {
		log.Printf("[%s] Error getting user profile: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}

	c.JSON(http.StatusOK, acct)
}
