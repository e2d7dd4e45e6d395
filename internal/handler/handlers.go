// Package handler binds and validates requests, calls the services and
// writes the responses.
package handler

import (
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/service"
)

type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Auth    *AuthHandler
	User    *UserHandler
	Store   *StoreHandler
	Product *ProductHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Auth:    NewAuthHandler(s, services.User),
		User:    NewUserHandler(s, services.User),
		Store:   NewStoreHandler(s, services.Store),
		Product: NewProductHandler(s, services.Product),
	}
}
