package middleware

// identity.go holds the context keys written by BearerAuth and the helpers
// that read them back. Requests that were not authenticated report "anon".

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/user-auth-service/internal/model"
)

// Context keys set by BearerAuth.
const (
    UserKey   = "user"
    UserIDKey = "user_id"
)

// CurrentUser returns the user stored by BearerAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(UserKey).(model.User)
    return u, ok
}

func currentUserID(c echo.Context) string {
    if s, ok := c.Get(UserIDKey).(string); ok && s != "" {
        return s
    }
    return "anon"
}
