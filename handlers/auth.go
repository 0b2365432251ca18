package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"attendance_backend/db"
	"attendance_backend/middleware"
	"attendance_backend/models"

	"github.com/gin-gonic/gin"
)

var roleLabel = map[string]string{
	models.RoleAdmin:    "Admin",
	models.RoleAttendee: "Attendee",
}

type AuthHandler struct {
	db           *sql.DB
	tokenService *middleware.TokenService
}

func NewAuthHandler(database *sql.DB, tokenService *middleware.TokenService) *AuthHandler {
	return &AuthHandler{
		db:           database,
		tokenService: tokenService,
	}
}

func (h *AuthHandler) RegisterAdmin(c *gin.Context)    { h.register(c, models.RoleAdmin) }
func (h *AuthHandler) RegisterAttendee(c *gin.Context) { h.register(c, models.RoleAttendee) }
func (h *AuthHandler) LoginAdmin(c *gin.Context)       { h.login(c, models.RoleAdmin) }
func (h *AuthHandler) LoginAttendee(c *gin.Context)    { h.login(c, models.RoleAttendee) }

func (h *AuthHandler) register(c *gin.Context, role string) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := middleware.HashPassword(req.Password)
	if err != nil {
		log.Printf("[%s] Error hashing password: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	acct := models.Account{
		Role:         role,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hashedPassword,
	}
	if role == models.RoleAttendee {
		acct.Address = strings.TrimSpace(req.Address)
	}

	acct.ID, err = db.CreateAccount(c.Request.Context(), h.db, acct)
	if errors.Is(err, db.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": roleLabel[role] + " already exists"})
		return
	}
	if err != nil {
		log.Printf("[%s] Error creating %s: %v", middleware.GetRequestID(c), role, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	tokens, err := h.tokenService.GenerateTokens(c.Request.Context(), acct)
	if err != nil {
		log.Printf("[%s] Error generating tokens: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusCreated, tokens)
}

func (h *AuthHandler) login(c *gin.Context, role string) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := db.GetAccountByEmail(c.Request.Context(), h.db, role, strings.TrimSpace(req.Email))
	if errors.Is(err, db.ErrNotFound) || (err == nil && !middleware.VerifyPassword(acct.PasswordHash, req.Password)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Please sign up first"})
		return
	} else if err != nil {
		log.Printf("[%s] Error querying %s: %v", middleware.GetRequestID(c), role, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
		return
	}

	tokens, err := h.tokenService.GenerateTokens(c.Request.Context(), *acct)
	if err != nil {
		log.Printf("[%s] Error generating tokens: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.tokenService.RotateRefreshToken(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, middleware.ErrInvalidRefreshToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if err != nil {
		log.Printf("[%s] Error refreshing tokens: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No token provided"})
		return
	}

	if err := h.tokenService.InvalidateRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		log.Printf("[%s] Error invalidating refresh token: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
