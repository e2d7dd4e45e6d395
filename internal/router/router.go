// Package router builds the echo instance: global middleware in a fixed
// order, then the route table mounted through the pipeline registry.
package router

import (
	"fmt"
	"strings"

	"github.com/deppfellow/storefront-api/internal/handler"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/pipeline"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, mw *middleware.Middlewares) (*echo.Echo, error) {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = mw.Global.GlobalErrorHandler
	router.IPExtractor = mw.Global.IPExtractor()

	router.Use(
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		mw.Global.CORS(),
		mw.Global.BodyLimit(),
		mw.Global.Timeout(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
	)

	if s.Config.Primary.IsDevelopment() {
		router.Use(mw.Global.RequestLogger())
	}

	router.Use(mw.Global.Recover())

	registry := pipeline.NewRegistry()
	registerSystemRoutes(router, registry, h)
	registerAuthRoutes(registry, h, mw)
	registerUserRoutes(registry, h, mw)
	registerStoreRoutes(registry, h, mw)
	registerProductRoutes(registry, h, mw)

	if err := registry.Mount(router); err != nil {
		return nil, fmt.Errorf("failed to mount routes: %w", err)
	}

	for _, route := range registry.Routes() {
		s.Logger.Debug().
			Str("method", route.Method).
			Str("path", route.Path).
			Str("pipeline", strings.Join(route.StageNames(), " -> ")).
			Msg("route registered")
	}

	return router, nil
}
