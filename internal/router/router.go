package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/handler"
	"github.com/iliyamo/user-auth-service/internal/logging"
	"github.com/iliyamo/user-auth-service/internal/middleware"
	"github.com/iliyamo/user-auth-service/internal/model"
)

// Deps is everything the routes need. RateLimit may be nil to disable
// limiting.
type Deps struct {
	Auth             *handler.AuthHandler
	Resolver         *auth.Resolver
	RateLimit        echo.MiddlewareFunc
	Log              logging.Logger
	CORSAllowOrigins []string
	// TrustProxyHeaders takes the client IP from X-Forwarded-For sent by a
	// private-network proxy. Otherwise the socket peer address is used.
	TrustProxyHeaders bool
}

// New builds an Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = logging.Nop{}
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Rate limit keys use c.RealIP(); never let the client pick it.
	if d.TrustProxyHeaders {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}))

	RegisterRoutes(e)
	RegisterAuth(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication or
// rate limiting. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers register, login and the caller's profile. All of
// them are rate limited; /me also requires a bearer token.
func RegisterAuth(e *echo.Echo, d Deps) {
	limit := rateLimit(d)
	e.POST("/register", d.Auth.Register, limit...)
	e.POST("/login", d.Auth.Login, limit...)
	e.GET("/me", d.Auth.Me, append(limit, middleware.BearerAuth(d.Resolver, d.Log))...)
}

// RegisterAdmin registers the admin-only endpoints. The bearer check runs
// before the role gate so an anonymous caller gets 401, not 403.
func RegisterAdmin(e *echo.Echo, d Deps) {
	mw := append(rateLimit(d),
		middleware.BearerAuth(d.Resolver, d.Log),
		middleware.RequireRole(model.RoleAdmin),
	)
	e.GET("/admin-panel", d.Auth.AdminPanel, mw...)
	e.DELETE("/admin/users/:id", d.Auth.DeleteUser, mw...)
}

func rateLimit(d Deps) []echo.MiddlewareFunc {
	if d.RateLimit == nil {
		return nil
	}
	return []echo.MiddlewareFunc{d.RateLimit}
}
