package handler

import (
	"reflect"
	"time"

	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Handler is embedded by the concrete handlers for access to the server.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint. Req is a pointer to the request struct.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint without a response body.
type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// responder writes a successful result with a fixed status.
type responder struct {
	status    int
	operation string
	noBody    bool
}

func (r responder) write(c echo.Context, result any) error {
	if r.noBody {
		return c.NoContent(r.status)
	}
	return c.JSON(r.status, result)
}

// newRequest allocates a fresh value of the pointer type of proto so
// concurrent requests never share a payload.
func newRequest[Req validation.Validatable](proto Req) Req {
	t := reflect.TypeOf(proto)
	if t == nil || t.Kind() != reflect.Pointer {
		return proto
	}
	return reflect.New(t.Elem()).Interface().(Req)
}

// phase times one step of a request and reports it to the log and the
// transaction under the given name.
type phase struct {
	name   string
	start  time.Time
	txn    *newrelic.Transaction
	logger *zerolog.Logger
}

func startPhase(name string, txn *newrelic.Transaction, logger *zerolog.Logger) phase {
	return phase{name: name, start: time.Now(), txn: txn, logger: logger}
}

func (p phase) end(err error) time.Duration {
	d := time.Since(p.start)
	status := "success"
	if err != nil {
		status = "failed"
	}

	if p.txn != nil {
		p.txn.AddAttribute(p.name+".status", status)
		p.txn.AddAttribute(p.name+".duration_ms", d.Milliseconds())
		if err != nil && isServerError(err) {
			p.txn.NoticeError(nrpkgerrors.Wrap(err))
		}
	}

	if err != nil {
		ev := p.logger.Warn()
		if isServerError(err) {
			ev = p.logger.Error()
		}
		ev.Err(err).Dur(p.name+"_duration", d).Msgf("%s failed", p.name)
	}
	return d
}

func isServerError(err error) bool {
	return middleware.ErrorStatus(err) >= 500
}

// handleRequest binds and validates req, runs fn and writes the result.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	fn func(c echo.Context, req Req) (any, error),
	out responder,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", out.operation).
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	validate := startPhase("validation", txn, &logger)
	err := validation.BindAndValidate(c, req)
	validationDuration := validate.end(err)
	if err != nil {
		return err
	}

	run := startPhase("handler", txn, &logger)
	result, err := fn(c, req)
	handlerDuration := run.end(err)
	if err != nil {
		return err
	}

	if txn != nil {
		txn.AddAttribute("response.status", out.status)
		txn.AddAttribute("total.duration_ms", time.Since(start).Milliseconds())
	}

	logger.Info().
		Int("status", out.status).
		Dur("validation_duration", validationDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return out.write(c, result)
}

// Handle wraps a typed handler with binding, validation, logging and
// tracing. req is a prototype; each request binds into a new copy.
//
//	Handle(h.Handler, h.CreateStore, http.StatusCreated, &CreateStoreRequest{})
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	out := responder{status: status, operation: "handler"}
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, out)
	}
}

// HandleNoContent is Handle for endpoints that answer with an empty body.
func HandleNoContent[Req validation.Validatable](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
	req Req,
) echo.HandlerFunc {
	out := responder{status: status, operation: "handler_no_content", noBody: true}
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (any, error) {
			return nil, handler(c, req)
		}, out)
	}
}
