package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLog emits one structured line per request: method, path, status,
// latency and the resolved principal (or "anonymous").  It runs after the
// principal resolver so the subject is available.
func RequestLog(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			subject := PrincipalFrom(c).Subject
			if subject == "" {
				subject = "anonymous"
			}
			log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("subject", subject).
				Str("ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
