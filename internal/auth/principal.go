package auth

import (
	"user-service/internal/domain/role"

	"github.com/labstack/echo/v4"
)

// Principal is the identity resolved for the current request. It is built
// fresh from token claims (or from a fresh login) and never persisted;
// treat it as immutable once constructed.
type Principal struct {
	ID          int64
	Email       string
	Authorities []string
}

// HasAuthority reports whether the principal holds the named role.
// Role names are case-sensitive.
func (p *Principal) HasAuthority(name string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == name {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the principal holds the Administrator role.
func (p *Principal) IsAdministrator() bool {
	return p.HasAuthority(role.Administrator)
}

// CurrentPrincipal returns the principal installed by the authentication
// middleware, or nil when the request is anonymous.
func CurrentPrincipal(c echo.Context) *Principal {
	raw := c.Get(ContextKeyPrincipal)
	if raw == nil {
		return nil
	}

	p, ok := raw.(*Principal)
	if !ok {
		return nil
	}

	return p
}
