package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spacesedan/sentilens/internal/metrics"
)

// newRateLimiter enforces limit requests per window per client IP. It runs
// before the handler, so rejected requests never reach the models.
func newRateLimiter(store middleware.RateLimiterStore, limit int, window time.Duration) echo.MiddlewareFunc {
	detail := fmt.Sprintf("Rate limit exceeded: %d per %s", limit, describeWindow(window))

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			metrics.RateLimitedTotal.Inc()
			slog.Info("[RateLimiter] Request rejected",
				slog.String("client", identifier),
				slog.String("path", c.Request().URL.Path))
			return newError(http.StatusTooManyRequests, detail, err)
		},
	})
}

// describeWindow renders durations the way rate limits are usually spoken:
// "1 minute", "30 second", "2 hour".
func describeWindow(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hour", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minute", d/time.Minute)
	case d >= time.Second && d%time.Second == 0:
		return fmt.Sprintf("%d second", d/time.Second)
	default:
		return d.String()
	}
}
