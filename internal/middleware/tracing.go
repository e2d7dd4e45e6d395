package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/storefront-api/internal/server"
)

// TracingMiddleware is the monitoring layer: one New Relic transaction per
// request, enriched with request and caller attributes.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts the transaction; a pass-through when the agent
// is disabled.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing adds request attributes up front and caller, outcome and
// rate-limit attributes once the route pipeline has run.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			txn.AddAttribute("http.real_ip", c.RealIP())
			txn.AddAttribute("http.user_agent", c.Request().UserAgent())
			txn.AddAttribute("request.id", GetRequestID(c))

			err := next(c)

			if role := GetUserRole(c); role != "" {
				txn.AddAttribute("user.role", role)
			}
			if remaining := c.Response().Header().Get(HeaderRateLimitRemaining); remaining != "" {
				txn.AddAttribute("ratelimit.remaining", remaining)
			}

			// Client errors are expected outcomes; only 5xx are noticed.
			if err != nil {
				body := normalize(err)
				txn.AddAttribute("error.code", body.Code)
				if body.Status >= 500 {
					txn.NoticeError(nrpkgerrors.Wrap(err))
				}
			}

			return err
		}
	}
}
