package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/user-auth-service/internal/logging"
)

// RequestLogger writes one structured line per request. Server errors are
// logged at error level, everything else at info.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            args := []any{
                "method", v.Method,
                "uri", v.URI,
                "status", v.Status,
                "latency_ms", v.Latency.Milliseconds(),
                "remote_ip", v.RemoteIP,
                "request_id", v.RequestID,
            }
            ctx := c.Request().Context()
            if v.Error != nil || v.Status >= 500 {
                if v.Error != nil {
                    args = append(args, "error", v.Error.Error())
                }
                log.Error(ctx, "request completed", args...)
                return nil
            }
            log.Info(ctx, "request completed", args...)
            return nil
        },
    })
}
