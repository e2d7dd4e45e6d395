package service

import (
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/server"
)

// AuthService owns the identity provider used by the authenticate stage.
type AuthService struct {
	Provider identity.Provider
}

func NewAuthService(s *server.Server) *AuthService {
	return &AuthService{
		Provider: identity.NewClerkProvider(s.Config.Auth),
	}
}
