package pipeline

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEcho renders *errs.HTTPError with its status, like the global handler.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var httpErr *errs.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Status, httpErr)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	return e
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, http.NoBody))
	return rec
}

func recordingStage(name string, trail *[]string, halt error) Stage {
	return Stage{
		Name: name,
		Run: func(c echo.Context) Result {
			*trail = append(*trail, name)
			if halt != nil {
				return Halt(halt)
			}
			return Continue()
		},
	}
}

func okHandler(trail *[]string) echo.HandlerFunc {
	return func(c echo.Context) error {
		*trail = append(*trail, "handler")
		return c.String(http.StatusOK, "ok")
	}
}

func TestResult(t *testing.T) {
	assert.False(t, Continue().Halted())
	assert.NoError(t, Continue().Err())

	boom := errors.New("boom")
	assert.True(t, Halt(boom).Halted())
	assert.Same(t, boom, Halt(boom).Err())

	var httpErr *errs.HTTPError
	require.True(t, errors.As(Halt(nil).Err(), &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestDispatch_RunsStagesInOrder(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Route(http.MethodGet, "/things").
		Then(recordingStage("a", &trail, nil), recordingStage("b", &trail, nil), recordingStage("c", &trail, nil)).
		Handle(okHandler(&trail))

	e := newEcho()
	require.NoError(t, r.Mount(e))

	rec := serve(e, http.MethodGet, "/things")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "b", "c", "handler"}, trail)
}

func TestDispatch_FirstHaltWins(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Route(http.MethodGet, "/things").
		Then(
			recordingStage("a", &trail, nil),
			recordingStage("b", &trail, errs.NewForbiddenError("Forbidden", false, nil)),
			recordingStage("c", &trail, errs.NewUnauthorizedError("Unauthorized", false)),
		).
		Handle(okHandler(&trail))

	e := newEcho()
	require.NoError(t, r.Mount(e))

	rec := serve(e, http.MethodGet, "/things")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []string{"a", "b"}, trail)
}

func TestDispatch_MethodNotAllowedListsRegisteredMethods(t *testing.T) {
	var trail []string
	r := NewRegistry()
	g := r.Group("/user")
	g.Route(http.MethodGet, "/profile").Handle(okHandler(&trail))
	g.Route(http.MethodPut, "/profile").Handle(okHandler(&trail))

	e := newEcho()
	require.NoError(t, r.Mount(e))

	rec := serve(e, http.MethodDelete, "/user/profile")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, PUT", rec.Header().Get(echo.HeaderAllow))
	assert.Empty(t, trail)
}

func TestDispatch_UnknownPathIsNotFound(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Route(http.MethodGet, "/things").Handle(okHandler(&trail))

	e := newEcho()
	require.NoError(t, r.Mount(e))

	rec := serve(e, http.MethodGet, "/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDispatch_PathParams(t *testing.T) {
	r := NewRegistry()
	r.Group("/store").Route(http.MethodGet, "/:id").Handle(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("id"))
	})

	e := newEcho()
	require.NoError(t, r.Mount(e))

	rec := serve(e, http.MethodGet, "/store/abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())
}

func TestMount_RejectsDuplicates(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Route(http.MethodGet, "/things").Handle(okHandler(&trail))
	r.Route("get", "/things").Handle(okHandler(&trail))

	err := r.Mount(newEcho())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateRoute)
}

func TestMount_RejectsInvalidRoutes(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Route("", "/things").Handle(okHandler(&trail))
	r.Route(http.MethodGet, "").Handle(okHandler(&trail))
	r.Route(http.MethodPost, "/things").Handle(nil)
	r.Route(http.MethodPut, "/things").Then(Stage{Name: "broken"}).Handle(okHandler(&trail))

	e := newEcho()
	err := r.Mount(e)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRoute)
	assert.Empty(t, e.Routes())
}

func TestMount_Once(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Route(http.MethodGet, "/things").Handle(okHandler(&trail))

	e := newEcho()
	require.NoError(t, r.Mount(e))
	assert.Error(t, r.Mount(e))
	assert.Panics(t, func() { r.Route(http.MethodPost, "/things").Handle(okHandler(&trail)) })
}

func TestBuilder_AuthenticateThenAuthorize(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Route(http.MethodPut, "/user/profile").
		Authenticate(AuthenticateStage(recordingStage("authenticate", &trail, nil))).
		Authorize(AuthorizeStage(recordingStage("authorize", &trail, nil))).
		Then(recordingStage("rate-limit", &trail, nil), recordingStage("method-limit", &trail, nil)).
		Handle(okHandler(&trail))

	routes := r.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, []string{"authenticate", "authorize", "rate-limit", "method-limit"}, routes[0].StageNames())

	e := newEcho()
	require.NoError(t, r.Mount(e))
	rec := serve(e, http.MethodPut, "/user/profile")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"authenticate", "authorize", "rate-limit", "method-limit", "handler"}, trail)
}

func TestGroup_EmptyPathTargetsPrefix(t *testing.T) {
	var trail []string
	r := NewRegistry()
	r.Group("/store/").Route(http.MethodGet, "").Handle(okHandler(&trail))

	routes := r.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/store", routes[0].Path)
}
