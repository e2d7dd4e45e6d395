package middleware

import (
	"slices"
	"strings"

	"github.com/deppfellow/storefront-api/internal/pipeline"
	"github.com/labstack/echo/v4"
)

// MethodLimit halts with 405 unless the request method is one of allowed.
// Allow lists the methods in the order given. On mounted routes the
// dispatcher already answers unregistered methods with the path-level
// Allow, so this stage only halts when a route lists fewer methods than
// it is registered under.
func MethodLimit(allowed ...string) pipeline.Stage {
	methods := make([]string, 0, len(allowed))
	for _, m := range allowed {
		methods = append(methods, strings.ToUpper(m))
	}

	return pipeline.Stage{
		Name: "method-limit",
		Run: func(c echo.Context) pipeline.Result {
			if slices.Contains(methods, c.Request().Method) {
				return pipeline.Continue()
			}
			return pipeline.Halt(pipeline.MethodNotAllowed(c, methods))
		},
	}
}
