package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/user-auth-service/internal/auth"
    "github.com/iliyamo/user-auth-service/internal/logging"
)

// BearerAuth returns an Echo middleware that resolves the Bearer access token
// into the stored user. On success the user is available to handlers via
// CurrentUser(c) and its id, as a string, under "user_id". Every token
// problem and a deleted subject get the same 401 body.
func BearerAuth(resolver *auth.Resolver, log logging.Logger) echo.MiddlewareFunc {
    if log == nil {
        log = logging.Nop{}
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
            if !ok {
                return unauthorized(c, "Not authenticated")
            }

            ctx := c.Request().Context()
            u, err := resolver.ResolveCurrentUser(ctx, raw)
            if err != nil {
                if errors.Is(err, auth.ErrUnauthorized) {
                    log.Debug(ctx, "bearer rejected", "error", err)
                    return unauthorized(c, "Could not validate credentials")
                }
                log.Error(ctx, "resolve current user", "error", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "internal server error"})
            }

            c.Set(UserKey, u)
            c.Set(UserIDKey, strconv.FormatUint(u.ID, 10))
            return next(c)
        }
    }
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
    scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
    if !found || !strings.EqualFold(scheme, "Bearer") {
        return "", false
    }
    token = strings.TrimSpace(token)
    return token, token != ""
}

func unauthorized(c echo.Context, detail string) error {
    c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
    return c.JSON(http.StatusUnauthorized, echo.Map{"detail": detail})
}
