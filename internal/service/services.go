// Package service holds the business rules between the handlers and the
// repositories.
package service

import (
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/deppfellow/storefront-api/internal/server"
)

type Services struct {
	Auth    *AuthService
	User    *UserService
	Store   *StoreService
	Product *ProductService
}

func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	var jobs WelcomeEnqueuer
	if s.Job != nil {
		jobs = s.Job
	}

	return &Services{
		Auth:    NewAuthService(s),
		User:    NewUserService(repos.User, jobs, s.Logger),
		Store:   NewStoreService(repos.Store, repos.User),
		Product: NewProductService(repos.Product, repos.Store),
	}
}

// canManage reports whether actor may change resources owned by ownerID.
// Admins manage every store.
func canManage(actor *identity.Identity, ownerID string) bool {
	return actor.Subject == ownerID || actor.HasRole(identity.RoleAdmin)
}
