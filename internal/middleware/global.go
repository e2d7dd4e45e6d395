package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// IPExtractor resolves the client IP used for rate-limit keys and logs.
// Forwarding headers are ignored unless the peer is a configured trusted
// proxy.
func (global *GlobalMiddlewares) IPExtractor() echo.IPExtractor {
	proxies := global.server.Config.Server.TrustedProxies
	if len(proxies) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range proxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			global.server.Logger.Warn().Str("cidr", cidr).Msg("ignoring invalid trusted proxy")
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// CORS answers preflight requests and sets the CORS response headers.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, RequestIDHeader,
		},
		ExposeHeaders: []string{
			RequestIDHeader, HeaderRateLimitLimit, HeaderRateLimitRemaining, HeaderRateLimitReset, HeaderRetryAfter,
		},
	})
}

// BodyLimit rejects bodies above server.body_limit with 413.
func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(global.server.Config.Server.BodyLimit)
}

// Timeout cancels the request context after server.request_timeout.
func (global *GlobalMiddlewares) Timeout() echo.MiddlewareFunc {
	return middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: time.Duration(global.server.Config.Server.RequestTimeout) * time.Second,
	})
}

// RequestLogger logs one line per request; enabled in development only.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// The error handler has not run yet, so the recorded status is
			// still 200 for failed requests.
			statusCode := v.Status
			if v.Error != nil {
				statusCode = ErrorStatus(v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if userID := GetUserID(c); userID != "" {
				e = e.Str("user_id", userID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger(c).Error().Err(err).Bytes("stack", stack).Msg("recovered from panic")
			return err
		},
	})
}

// ErrorStatus is the HTTP status err will be rendered with.
func ErrorStatus(err error) int {
	return normalize(err).Status
}

// normalize turns any error into the HTTPError that is sent to the client.
// Echo's router errors get the API's codes, database errors go through
// sqlerr, and everything else is a bare 500.
func normalize(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		if errors.As(sqlerr.HandleError(err), &httpErr) {
			return httpErr
		}
		return errs.NewInternalServerError()
	}

	switch echoErr.Code {
	case http.StatusNotFound:
		return errs.NewNotFoundError("Route not found", false, nil)
	case http.StatusMethodNotAllowed:
		return errs.NewMethodNotAllowedError()
	}

	message, ok := echoErr.Message.(string)
	if !ok {
		message = http.StatusText(echoErr.Code)
	}
	return &errs.HTTPError{
		Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
		Message: message,
		Status:  echoErr.Code,
	}
}

// GlobalErrorHandler renders every error as an errs.HTTPError body. HEAD
// requests get the status only.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	body := normalize(err)

	logger := GetLogger(c)
	event := logger.Debug()
	if body.Status >= http.StatusInternalServerError {
		event = logger.Error().Stack()
	}
	event.Err(err).
		Int("status", body.Status).
		Str("error_code", body.Code).
		Msg(body.Message)

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(body.Status)
		return
	}
	_ = c.JSON(body.Status, body)
}
