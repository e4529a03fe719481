package auth

import (
	"strings"

	"user-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Middleware authenticates inbound requests from their Authorization header.
type Middleware struct {
	jwtService *JWTService
	scheme     string
}

func NewMiddleware(jwtService *JWTService, tokenType string) *Middleware {
	return &Middleware{
		jwtService: jwtService,
		scheme:     strings.ToLower(tokenType),
	}
}

// Authenticate resolves the request's principal from its bearer token and
// installs it in the echo context. It never rejects a request: a missing,
// malformed, tampered or expired token leaves the context anonymous and the
// access policy denies downstream. The failure kind is logged server-side
// only, so the client cannot distinguish rejection causes.
func (m *Middleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := m.extractToken(c)
			if token == "" {
				return next(c)
			}

			claims, err := m.jwtService.Verify(token)
			if err != nil {
				c.Logger().Warnf(msgTokenRejected, c.Request().Method, c.Path(), logger.SanitizeLogMessage(err.Error()))
				return next(c)
			}

			c.Set(ContextKeyPrincipal, &Principal{
				ID:          claims.UserID,
				Email:       claims.Email,
				Authorities: claims.Authorities,
			})

			return next(c)
		}
	}
}

func (m *Middleware) extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != m.scheme {
		return ""
	}

	return parts[1]
}
