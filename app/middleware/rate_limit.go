package middleware

import (
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
)

// RateLimitMiddleware answers every Nth request with 429 so clients can
// rehearse their backoff handling against the stub.
type RateLimitMiddleware struct {
	every int64
	count atomic.Int64
}

func NewRateLimitMiddleware(every int) *RateLimitMiddleware {
	return &RateLimitMiddleware{every: int64(every)}
}

func (m *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.every <= 0 {
			return next(c)
		}

		if n := m.count.Add(1); n%m.every == 0 {
			logrus.WithField("request", n).Debug("Simulating rate limit")
			return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Status:  "error",
				Message: "You have reached your secondly limit.",
			})
		}

		return next(c)
	}
}
