package router

import (
	"net/http"

	"github.com/deppfellow/storefront-api/internal/handler"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/pipeline"
)

func registerStoreRoutes(r *pipeline.Registry, h *handler.Handlers, mw *middleware.Middlewares) {
	stores := r.Group("/store")
	limit := mw.RateLimit.Limit(mw.RateLimit.API)
	sh := h.Store

	stores.Route(http.MethodGet, "").
		Then(limit, middleware.MethodLimit(http.MethodGet)).
		Handle(handler.Handle(sh.Handler, sh.ListStores, http.StatusOK, &handler.ListStoresRequest{}))

	stores.Route(http.MethodPost, "").
		Authenticate(mw.Auth.Authenticate()).
		Authorize(mw.Auth.Authorize(identity.RoleSeller)).
		Then(limit, middleware.MethodLimit(http.MethodPost)).
		Handle(handler.Handle(sh.Handler, sh.CreateStore, http.StatusCreated, &handler.CreateStoreRequest{}))

	stores.Route(http.MethodGet, "/:id").
		Then(limit, middleware.MethodLimit(http.MethodGet)).
		Handle(handler.Handle(sh.Handler, sh.GetStore, http.StatusOK, &handler.IDRequest{}))

	stores.Route(http.MethodPut, "/:id").
		Authenticate(mw.Auth.Authenticate()).
		Authorize(mw.Auth.Authorize(identity.RoleSeller)).
		Then(limit, middleware.MethodLimit(http.MethodPut)).
		Handle(handler.Handle(sh.Handler, sh.UpdateStore, http.StatusOK, &handler.UpdateStoreRequest{}))

	stores.Route(http.MethodDelete, "/:id").
		Authenticate(mw.Auth.Authenticate()).
		Authorize(mw.Auth.Authorize(identity.RoleSeller)).
		Then(limit, middleware.MethodLimit(http.MethodDelete)).
		Handle(handler.HandleNoContent(sh.Handler, sh.DeleteStore, http.StatusNoContent, &handler.IDRequest{}))
}
