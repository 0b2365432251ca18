package middleware

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"attendance_backend/db"
	"attendance_backend/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// AuthMiddleware creates a gin middleware for JWT authentication
func AuthMiddleware(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be in the format: Bearer {token}"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseAccessToken(parts[1])
		if err != nil {
			log.Printf("[%s] Token validation error: %v", GetRequestID(c), err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userRole", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}

// RequireRole rejects requests whose token role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("userRole")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You are not authorized"})
		c.Abort()
	}
}

// TokenService handles token generation and validation
type TokenService struct {
	DB         *sql.DB
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(database *sql.DB, jwtSecret []byte, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		DB:         database,
		JWTSecret:  jwtSecret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
}

// IssueAccessToken signs an access token for acct.
func (s *TokenService) IssueAccessToken(acct models.Account, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{
		UserID:    acct.ID,
		Email:     acct.Email,
		Role:      acct.Role,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("error signing access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates a signed access token and returns its claims.
func (s *TokenService) ParseAccessToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	switch claims.Role {
	case models.RoleAdmin, models.RoleAttendee:
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
	return claims, nil
}

// GenerateTokens creates a new access and refresh token pair
func (s *TokenService) GenerateTokens(ctx context.Context, acct models.Account) (*models.TokenResponse, error) {
	now := time.Now()
	accessToken, err := s.IssueAccessToken(acct, now)
	if err != nil {
		return nil, err
	}

	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	refreshToken := hex.EncodeToString(bytes)

	if err := db.SaveRefreshToken(ctx, s.DB, acct.ID, acct.Role, refreshToken, now.Add(s.RefreshTTL)); err != nil {
		return nil, err
	}

	return &models.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RotateRefreshToken exchanges a valid refresh token for a new token pair.
func (s *TokenService) RotateRefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	accountID, role, err := db.RefreshTokenOwner(ctx, s.DB, refreshToken, time.Now())
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	acct, err := db.GetAccount(ctx, s.DB, role, accountID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}

	tokens, err := s.GenerateTokens(ctx, *acct)
	if err != nil {
		return nil, err
	}
	if err := s.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		log.Printf("Error invalidating old refresh token: %v", err)
	}
	return tokens, nil
}

// InvalidateRefreshToken invalidates a refresh token
func (s *TokenService) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	return db.DeleteRefreshToken(ctx, s.DB, refreshToken)
}

// VerifyPassword checks if a password matches the hashed version
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// HashPassword creates a bcrypt hash of a password
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}
