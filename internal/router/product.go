package router

import (
	"net/http"

	"github.com/deppfellow/storefront-api/internal/handler"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/pipeline"
)

func registerProductRoutes(r *pipeline.Registry, h *handler.Handlers, mw *middleware.Middlewares) {
	products := r.Group("/product")
	limit := mw.RateLimit.Limit(mw.RateLimit.API)
	ph := h.Product

	products.Route(http.MethodGet, "").
		Then(limit, middleware.MethodLimit(http.MethodGet)).
		Handle(handler.Handle(ph.Handler, ph.ListProducts, http.StatusOK, &handler.ListProductsRequest{}))

	products.Route(http.MethodPost, "").
		Authenticate(mw.Auth.Authenticate()).
		Authorize(mw.Auth.Authorize(identity.RoleSeller)).
		Then(limit, middleware.MethodLimit(http.MethodPost)).
		Handle(handler.Handle(ph.Handler, ph.CreateProduct, http.StatusCreated, &handler.CreateProductRequest{}))

	products.Route(http.MethodGet, "/:id").
		Then(limit, middleware.MethodLimit(http.MethodGet)).
		Handle(handler.Handle(ph.Handler, ph.GetProduct, http.StatusOK, &handler.IDRequest{}))

	products.Route(http.MethodPut, "/:id").
		Authenticate(mw.Auth.Authenticate()).
		Authorize(mw.Auth.Authorize(identity.RoleSeller)).
		Then(limit, middleware.MethodLimit(http.MethodPut)).
		Handle(handler.Handle(ph.Handler, ph.UpdateProduct, http.StatusOK, &handler.UpdateProductRequest{}))

	products.Route(http.MethodDelete, "/:id").
		Authenticate(mw.Auth.Authenticate()).
		Authorize(mw.Auth.Authorize(identity.RoleSeller)).
		Then(limit, middleware.MethodLimit(http.MethodDelete)).
		Handle(handler.HandleNoContent(ph.Handler, ph.DeleteProduct, http.StatusNoContent, &handler.IDRequest{}))
}
