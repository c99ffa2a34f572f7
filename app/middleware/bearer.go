package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
)

type BearerMiddleware struct {
	token string
}

// NewBearerMiddleware checks requests against token. An empty token lets
// every request through.
func NewBearerMiddleware(token string) *BearerMiddleware {
	return &BearerMiddleware{token: token}
}

func (m *BearerMiddleware) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.token == "" {
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Status:  "error",
				Message: "missing authorization header",
			})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Status:  "error",
				Message: "invalid authorization header format",
			})
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.token)) != 1 {
			logrus.Debug("Invalid access token")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Status:  "error",
				Message: "invalid access token",
			})
		}

		return next(c)
	}
}
