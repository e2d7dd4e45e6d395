package router

import (
	"net/http"

	"github.com/deppfellow/storefront-api/internal/handler"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/pipeline"
)

func registerUserRoutes(r *pipeline.Registry, h *handler.Handlers, mw *middleware.Middlewares) {
	user := r.Group("/user")
	limit := mw.RateLimit.Limit(mw.RateLimit.API)

	user.Route(http.MethodGet, "/profile").
		Authenticate(mw.Auth.Authenticate()).
		Then(limit, middleware.MethodLimit(http.MethodGet)).
		Handle(handler.Handle(h.User.Handler, h.User.GetProfile, http.StatusOK, &handler.EmptyRequest{}))

	user.Route(http.MethodPut, "/profile").
		Authenticate(mw.Auth.Authenticate()).
		Authorize(mw.Auth.Authorize(identity.RoleUser)).
		Then(limit, middleware.MethodLimit(http.MethodPut)).
		Handle(handler.Handle(h.User.Handler, h.User.UpdateProfile, http.StatusOK, &handler.UpdateProfileRequest{}))
}
