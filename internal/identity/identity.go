// Package identity defines the authenticated caller and the provider that
// turns a bearer token into one.
package identity

import (
	"context"
	"errors"
	"slices"

	"github.com/labstack/echo/v4"
)

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// ErrInvalidToken is returned by providers for any token that does not
// verify. Callers must not distinguish the underlying cause to clients.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller attached to a request.
type Identity struct {
	Subject string
	Email   string
	Roles   []string
}

func (id *Identity) HasRole(role string) bool {
	return id != nil && slices.Contains(id.Roles, role)
}

// PrimaryRole is the first role, used for log and trace attributes.
func (id *Identity) PrimaryRole() string {
	if id == nil || len(id.Roles) == 0 {
		return ""
	}
	return id.Roles[0]
}

// Provider verifies bearer tokens.
type Provider interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, token string) (*Identity, error)

func (f ProviderFunc) Verify(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

const contextKey = "identity"

// WithIdentity attaches id to the request context.
func WithIdentity(c echo.Context, id *Identity) {
	c.Set(contextKey, id)
}

// FromContext returns the identity attached by the authenticate stage.
func FromContext(c echo.Context) (*Identity, bool) {
	id, ok := c.Get(contextKey).(*Identity)
	return id, ok && id != nil
}
