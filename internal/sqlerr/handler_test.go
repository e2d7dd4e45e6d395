package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestHandleError_PgErrors(t *testing.T) {
	tests := []struct {
		name        string
		pgErr       *pgconn.PgError
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "unique violation",
			pgErr:       &pgconn.PgError{Code: "23505", Severity: "ERROR", TableName: "stores", ConstraintName: "stores_slug_key"},
			wantStatus:  http.StatusConflict,
			wantCode:    "STORE_ALREADY_EXISTS",
			wantMessage: "A Store with this Slug already exists",
		},
		{
			name:        "foreign key violation",
			pgErr:       &pgconn.PgError{Code: "23503", Severity: "ERROR", TableName: "products", ColumnName: "store_id"},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "PRODUCT_NOT_FOUND",
			wantMessage: "The referenced Store does not exist",
		},
		{
			name:        "not null violation",
			pgErr:       &pgconn.PgError{Code: "23502", Severity: "ERROR", TableName: "products", ColumnName: "name"},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "PRODUCT_REQUIRED",
			wantMessage: "The Name is required",
		},
		{
			name:        "check violation",
			pgErr:       &pgconn.PgError{Code: "23514", Severity: "ERROR", TableName: "products", ColumnName: "price_cents"},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "PRODUCT_INVALID",
			wantMessage: "The Price Cents value does not meet required conditions",
		},
		{
			name:        "other",
			pgErr:       &pgconn.PgError{Code: "53300", Severity: "FATAL"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_SERVER_ERROR",
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := asHTTPError(t, HandleError(fmt.Errorf("insert: %w", tt.pgErr)))
			assert.Equal(t, tt.wantStatus, httpErr.Status)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.wantMessage, httpErr.Message)
		})
	}
}

func TestUniqueColumn(t *testing.T) {
	assert.Equal(t, "slug", uniqueColumn("stores_slug_key"))
	assert.Equal(t, "external_id", uniqueColumn("users_external_id_key"))
	assert.Equal(t, "email", uniqueColumn("unique_users_email"))
	assert.Empty(t, uniqueColumn("products_pkey"))
	assert.Empty(t, uniqueColumn(""))
}

func TestHandleError_NotFound(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(NotFound("stores", pgx.ErrNoRows)))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Store not found", httpErr.Message)

	httpErr = asHTTPError(t, HandleError(pgx.ErrNoRows))
	assert.Equal(t, "Resource not found", httpErr.Message)
}

func TestHandleError_PassesHTTPErrorsThrough(t *testing.T) {
	original := errs.NewUnauthorizedError("Unauthorized", false)
	assert.Same(t, original, HandleError(original))
}

func TestNotFound_LeavesOtherErrorsAlone(t *testing.T) {
	boom := errors.New("boom")
	assert.Same(t, boom, NotFound("stores", boom))
}

func TestMapCodeAndSeverity(t *testing.T) {
	assert.Equal(t, UniqueViolation, MapCode("23505"))
	assert.Equal(t, Other, MapCode("XX000"))
	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityError, MapSeverity("bogus"))

	sqlErr := ConvertPgError(&pgconn.PgError{Code: "23505", Severity: "ERROR"})
	assert.Equal(t, UniqueViolation, ErrCode(fmt.Errorf("wrap: %w", sqlErr)))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(sqlErr, &pgErr))
}
