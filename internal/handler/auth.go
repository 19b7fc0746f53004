package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/logging"
	"github.com/iliyamo/user-auth-service/internal/middleware"
	"github.com/iliyamo/user-auth-service/internal/repository"
)

// requestTimeout bounds store and hashing work per request.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Svc *auth.Service
	Log logging.Logger
}

func NewAuthHandler(svc *auth.Service, log logging.Logger) *AuthHandler {
	if log == nil {
		log = logging.Nop{}
	}
	return &AuthHandler{Svc: svc, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// loginReq mirrors the OAuth2 password form: the identifier arrives as
// "username", with "identifier" and "email" accepted as aliases.
type loginReq struct {
	Username   string `json:"username" form:"username"`
	Identifier string `json:"identifier" form:"identifier"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
}

func (r loginReq) identifier() string {
	for _, v := range []string{r.Username, r.Identifier, r.Email} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Register: create a user with role "user" and return its summary.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return detail(c, http.StatusBadRequest, "name, email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sum, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, sum)
	case errors.Is(err, auth.ErrDuplicateEmail):
		return detail(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return detail(c, http.StatusBadRequest, "password too long")
	default:
		return h.internal(c, "register failed", err)
	}
}

// Login: verify credentials and return a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid body")
	}
	id := req.identifier()
	if id == "" || req.Password == "" {
		return detail(c, http.StatusBadRequest, "username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.Login(ctx, id, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return detail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return h.internal(c, "login failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

// Me returns the caller's own profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return detail(c, http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, u.Summary())
}

// AdminPanel greets an admin. The role gate runs before it.
func (h *AuthHandler) AdminPanel(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return detail(c, http.StatusUnauthorized, "Not authenticated")
	}
	h.Log.Info(c.Request().Context(), "admin access granted", "user_id", u.ID, "email", u.Email)
	return c.JSON(http.StatusOK, echo.Map{"message": "Welcome Admin " + u.Name})
}

// DeleteUser removes the account with the given id.
func (h *AuthHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return detail(c, http.StatusBadRequest, "invalid user id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail(c, http.StatusNotFound, "user not found")
		}
		return h.internal(c, "delete user failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) internal(c echo.Context, msg string, err error) error {
	h.Log.Error(c.Request().Context(), msg, "error", err)
	return detail(c, http.StatusInternalServerError, "internal server error")
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}
