package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/user-auth-service/internal/auth"
)

// RequireRole returns a middleware that lets the request through only when
// the user resolved by BearerAuth holds role. It must be chained after
// BearerAuth; a request without a resolved user is treated as
// unauthenticated.
func RequireRole(role string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok {
                return unauthorized(c, "Not authenticated")
            }
            if _, err := auth.RequireRole(u, role); err != nil {
                return c.JSON(http.StatusForbidden, echo.Map{"detail": "Admin access only"})
            }
            return next(c)
        }
    }
}
