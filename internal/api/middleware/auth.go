package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

// Context keys set by the auth middleware chain.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextUser   = "user"
)

// Auth validates the JWT and injects the subject and role claims into context.
// Tokens minted for any other purpose (email verification) are rejected.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			role, _ := claims["role"].(string)
			if _, scoped := claims["purpose"]; scoped || sub == "" || role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextUserID, sub)
			c.Set(ContextRole, role)
			c.Set("username", claims["username"])

			return next(c)
		}
	}
}

// LoadUser resolves the token subject to the stored account. Roles and status
// are read from storage so changes apply without waiting for token expiry.
func LoadUser(users ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := c.Get(ContextUserID).(string)
			if id == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			user, err := users.FindByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
				}
				return err
			}
			if !user.IsActive() {
				return echo.NewHTTPError(http.StatusForbidden, "account is not active")
			}

			c.Set(ContextUser, user)
			c.Set(ContextRole, user.Role)
			return next(c)
		}
	}
}
