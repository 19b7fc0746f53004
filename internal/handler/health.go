package handler // declare the package name; contains HTTP handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is the liveness endpoint for load balancers and monitoring. It only
// reports that the process serves requests; it does not touch the store.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
