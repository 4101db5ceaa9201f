package api

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/service"
	"alcyxob/program-ledger/internal/storage"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
)

// HookSecretHeader carries the shared secret of the enrollment webhook.
const HookSecretHeader = "X-Webhook-Secret"

// retryAfterSeconds is sent with 503 and 429 responses.
const retryAfterSeconds = 5

// jwtClaims defines the structure we expect in the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.UserID == "" || claims.Role == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}
		if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
			abortWithError(c, http.StatusUnauthorized, "Token has expired (claim check)")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID) // hex ObjectID
		c.Set(ContextUserRoleKey, claims.Role)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, err := getUserRoleFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
	}
}

// HookSecretMiddleware rejects webhook calls without the shared secret.
// An empty secret rejects every call.
func HookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HookSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abortWithError(c, http.StatusUnauthorized, "Invalid webhook secret")
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware sheds load above ratePerSec with a 429. A
// non-positive rate disables limiting.
func RateLimitMiddleware(ratePerSec float64, burst int) gin.HandlerFunc {
	if ratePerSec <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(ratePerSec), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
			abortWithError(c, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		c.Next()
	}
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// Helper function to get User Role from context (used by handlers)
func getUserRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}

// userObjectID reads the caller's ID from the token. On failure it has
// already written the error response.
func userObjectID(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathObjectID parses an ObjectID route parameter.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format.", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrInvalidDayKey),
		errors.Is(err, service.ErrInvalidEnrollmentEvent),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound),
		errors.Is(err, service.ErrExecutionNotFound),
		errors.Is(err, service.ErrWeekNotFound),
		errors.Is(err, service.ErrCatalogItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrActivityAccessDenied),
		errors.Is(err, service.ErrEnrollmentAccessDenied),
		errors.Is(err, service.ErrExecutionAccessDenied),
		errors.Is(err, service.ErrCatalogItemAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrEnrollmentNotActive),
		errors.Is(err, service.ErrStartDateImmutable),
		errors.Is(err, service.ErrEnrollmentMismatch),
		errors.Is(err, service.ErrWeekNotContiguous),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotConfigured):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// respondError writes the mapped status for err. Internal errors are logged
// and replaced by fallback so no driver detail leaks to the caller.
func respondError(c *gin.Context, log zerolog.Logger, err error, fallback string) {
	status := errorStatus(err)
	switch status {
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		abortWithError(c, status, fallback)
	case http.StatusServiceUnavailable:
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("storage unavailable")
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		abortWithError(c, status, service.ErrStorageUnavailable.Error())
	default:
		_ = c.Error(err)
		abortWithError(c, status, err.Error())
	}
}
