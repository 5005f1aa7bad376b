package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/app/models/dto"
	"github.com/yigit/campushub/internal/app/repositories"
	"github.com/yigit/campushub/internal/pkg/apperrors"
	"github.com/yigit/campushub/internal/pkg/auth"
	"github.com/yigit/campushub/internal/pkg/logger"
)

// actorKey is the gin context key of the authenticated user
const actorKey = "actor"

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repositories.UserRepository
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

// JWTAuth validates the bearer token and loads the acting user from the store
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// Swagger UI sometimes sends the token as a query parameter
			authHeader = c.Query("token")
		}
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(strings.Trim(authHeader, "\"'"))
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			code, details := dto.ErrorCodeInvalidToken, "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				code, details = dto.ErrorCodeExpiredToken, "Token has expired"
			}
			abortUnauthorized(c, code, "Authentication failed", details)
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Authentication failed", "Unknown user")
				return
			}
			logger.Error().Err(err).Int64("userID", claims.UserID).Msg("Failed to load acting user")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeForbidden, "Account is disabled")))
			return
		}

		c.Set(actorKey, user)
		c.Next()
	}
}

// RoleRequired aborts unless the acting user holds one of the roles
func (m *AuthMiddleware) RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "User not found in context")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("You don't have sufficient permissions for this operation")
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
	}
}

// CurrentActor returns the user set by JWTAuth
func CurrentActor(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// SetActor puts a user into the context the way JWTAuth does
func SetActor(c *gin.Context, user *models.User) {
	c.Set(actorKey, user)
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, message, details string) {
	errorDetail := dto.NewErrorDetail(code, message).WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}
