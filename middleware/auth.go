package middleware

import (
	"consult_flow_app_go/db"
	"consult_flow_app_go/models"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const (
	// UserIDHeader carries the caller's user id, set by the upstream gateway after authentication
	UserIDHeader = "X-User-ID"
	// ContextKeyUser is the context key for the calling user
	ContextKeyUser = "user"
)

// RequireUser resolves the calling user from UserIDHeader and rejects unknown or inactive users
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing user identity")
			}

			var user models.User
			if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Unknown user")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "User is inactive")
			}

			c.Set(ContextKeyUser, &user)
			return next(c)
		}
	}
}

// RequireRole is middleware that requires specific roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}
