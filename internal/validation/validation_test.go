package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profilePayload struct {
	FirstName string `json:"first_name" validate:"required,max=10"`
	Bio       string `json:"bio" validate:"max=5"`
}

func (p *profilePayload) Validate() error {
	return Struct(p)
}

type customPayload struct{}

func (p *customPayload) Validate() error {
	return CustomValidationErrors{{Field: "store_id", Message: "store is archived"}}
}

func newJSONContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func requireHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	return httpErr
}

func TestBindAndValidate_OK(t *testing.T) {
	var p profilePayload
	err := BindAndValidate(newJSONContext(`{"first_name":"Ada","bio":"hi"}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
}

func TestBindAndValidate_FieldErrors(t *testing.T) {
	var p profilePayload
	httpErr := requireHTTPError(t, BindAndValidate(newJSONContext(`{"bio":"too long"}`), &p))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "first_name", Error: "is required"},
		{Field: "bio", Error: "must not exceed 5 characters"},
	}, httpErr.Errors)
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	var p profilePayload
	httpErr := requireHTTPError(t, BindAndValidate(newJSONContext(`{"first_name":`), &p))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.NotEmpty(t, httpErr.Message)
	assert.Empty(t, httpErr.Errors)
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	var p customPayload
	httpErr := requireHTTPError(t, BindAndValidate(newJSONContext(`{}`), &p))

	assert.Equal(t, []errs.FieldError{{Field: "store_id", Error: "store is archived"}}, httpErr.Errors)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "first_name", toSnakeCase("FirstName"))
	assert.Equal(t, "store_id", toSnakeCase("StoreID"))
	assert.Equal(t, "price_cents", toSnakeCase("PriceCents"))
	assert.Equal(t, "bio", toSnakeCase("Bio"))
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("3f1c1d5e-8a47-4a55-9b0f-8f5e0d7b1a2c"))
	assert.False(t, IsValidUUID("not-a-uuid"))
}
