package router

import (
	"net/http"

	"github.com/deppfellow/storefront-api/internal/handler"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/pipeline"
	"github.com/deppfellow/storefront-api/static"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes adds health and docs. Static assets are embedded
// in the binary and bypass the registry.
func registerSystemRoutes(router *echo.Echo, r *pipeline.Registry, h *handler.Handlers) {
	r.Route(http.MethodGet, "/status").
		Then(middleware.MethodLimit(http.MethodGet)).
		Handle(h.Health.CheckHealth)

	r.Route(http.MethodGet, "/docs").
		Then(middleware.MethodLimit(http.MethodGet)).
		Handle(h.OpenAPI.ServeOpenAPIUI)

	router.StaticFS("/static", static.Files)
}
