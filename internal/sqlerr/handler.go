package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/storefront-api/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// "<table>_<column>_key", the name Postgres gives inline UNIQUE constraints.
var uniqueKeyRe = regexp.MustCompile(`^[a-z]+_([a-z_]+?)_(?:key|ukey)$`)

var titleCaser = cases.Title(language.English)

// ErrCode reports the Code of the first *Error in err's chain.
func ErrCode(err error) Code {
	var pgerr *Error
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return Other
}

// ConvertPgError normalizes a server error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// notFoundError tags an empty result with the table it was read from.
type notFoundError struct {
	table string
	err   error
}

func (e *notFoundError) Error() string { return e.table + ": " + e.err.Error() }
func (e *notFoundError) Unwrap() error { return e.err }

// NotFound tags pgx.ErrNoRows with the table so HandleError can name the
// missing entity. Other errors are returned unchanged.
func NotFound(table string, err error) error {
	if isNoRows(err) {
		return &notFoundError{table: table, err: err}
	}
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// singular drops a trailing "s": "stores" -> "store".
func singular(table string) string {
	if len(table) > 1 && strings.HasSuffix(table, "s") {
		return table[:len(table)-1]
	}
	return table
}

// entity names the row a constraint is about: a *_id column names the
// referenced table ("store_id" -> "Store"), otherwise the table itself.
func entity(table, column string) string {
	column = strings.ToLower(column)
	if base, ok := strings.CutSuffix(column, "_id"); ok && base != "" {
		return humanize(base)
	}
	if table != "" {
		return humanize(singular(table))
	}
	return "Record"
}

// humanize turns "first_name" into "First Name".
func humanize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// uniqueColumn extracts the column from "unique_<table>_<column>" or
// "<table>_<column>_key".
func uniqueColumn(constraint string) string {
	if rest, ok := strings.CutPrefix(constraint, "unique_"); ok {
		if i := strings.LastIndex(rest, "_"); i >= 0 {
			return rest[i+1:]
		}
		return ""
	}
	if m := uniqueKeyRe.FindStringSubmatch(constraint); m != nil {
		return m[1]
	}
	return ""
}

// errorCode builds <ENTITY>_<ACTION>, e.g. STORE_ALREADY_EXISTS.
func errorCode(table string, code Code) string {
	domain := "RECORD"
	if table != "" {
		domain = strings.ToUpper(singular(table))
	}

	var action string
	switch code {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, InvalidTextRep:
		action = "INVALID"
	default:
		action = "ERROR"
	}
	return domain + "_" + action
}

// constraintError maps a constraint violation onto a client error. The
// second result is false for codes that are the server's fault.
func constraintError(e *Error) (*errs.HTTPError, bool) {
	code := errorCode(e.TableName, e.Code)
	name := entity(e.TableName, e.ColumnName)

	switch e.Code {
	case UniqueViolation:
		msg := fmt.Sprintf("A %s with this identifier already exists", name)
		if col := uniqueColumn(e.ConstraintName); col != "" {
			msg = fmt.Sprintf("A %s with this %s already exists", name, humanize(col))
		}
		return errs.NewConflictError(msg, true, &code), true

	case ForeignKeyViolation:
		msg := fmt.Sprintf("The referenced %s does not exist", name)
		return errs.NewBadRequestError(msg, false, &code, nil, nil), true

	case NotNullViolation:
		field := "field"
		if e.ColumnName != "" {
			field = humanize(e.ColumnName)
		}
		fieldErrors := []errs.FieldError{{Field: strings.ToLower(e.ColumnName), Error: "is required"}}
		return errs.NewBadRequestError(fmt.Sprintf("The %s is required", field), true, &code, fieldErrors, nil), true

	case CheckViolation:
		msg := "One or more values do not meet required conditions"
		if e.ColumnName != "" {
			msg = fmt.Sprintf("The %s value does not meet required conditions", humanize(e.ColumnName))
		}
		return errs.NewBadRequestError(msg, true, &code, nil, nil), true

	case InvalidTextRep:
		return errs.NewBadRequestError("One or more values have an invalid format", true, &code, nil, nil), true
	}
	return nil, false
}

// HandleError converts a repository error into an *errs.HTTPError.
// HTTP errors pass through unchanged; anything unrecognized is a 500.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		if clientErr, ok := constraintError(ConvertPgError(pgerr)); ok {
			return clientErr
		}
		return errs.NewInternalServerError()
	}

	var nf *notFoundError
	if errors.As(err, &nf) {
		return errs.NewNotFoundError(entity(nf.table, "")+" not found", true, nil)
	}

	if isNoRows(err) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
