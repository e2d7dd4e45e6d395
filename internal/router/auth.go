package router

import (
	"net/http"

	"github.com/deppfellow/storefront-api/internal/handler"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/pipeline"
)

func registerAuthRoutes(r *pipeline.Registry, h *handler.Handlers, mw *middleware.Middlewares) {
	auth := r.Group("/auth")
	limit := mw.RateLimit.Limit(mw.RateLimit.Auth)

	auth.Route(http.MethodPost, "/register").
		Authenticate(mw.Auth.Authenticate()).
		Then(limit, middleware.MethodLimit(http.MethodPost)).
		Handle(handler.Handle(h.Auth.Handler, h.Auth.Register, http.StatusOK, &handler.RegisterRequest{}))

	auth.Route(http.MethodGet, "/session").
		Authenticate(mw.Auth.Authenticate()).
		Then(limit, middleware.MethodLimit(http.MethodGet)).
		Handle(handler.Handle(h.Auth.Handler, h.Auth.Session, http.StatusOK, &handler.EmptyRequest{}))
}
