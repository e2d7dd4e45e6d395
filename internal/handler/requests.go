package handler

import (
	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// EmptyRequest is the payload of endpoints that take no input.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error { return nil }

// PageRequest is embedded by list requests.
type PageRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

func (p PageRequest) Page() model.Page {
	limit := p.Limit
	if limit == 0 {
		limit = defaultPageLimit
	}
	return model.Page{Limit: min(limit, maxPageLimit), Offset: p.Offset}
}

// IDRequest carries a :id path parameter.
type IDRequest struct {
	ID string `param:"id" json:"-" validate:"required,uuid"`
}

func (r *IDRequest) Validate() error { return validation.Struct(r) }

// UUID is valid once Validate has passed.
func (r *IDRequest) UUID() uuid.UUID {
	return uuid.MustParse(r.ID)
}

// actor returns the authenticated caller. Routes using it are mounted
// behind the authenticate stage, so a miss is a wiring bug.
func actor(c echo.Context) (*identity.Identity, error) {
	id, ok := identity.FromContext(c)
	if !ok {
		middleware.GetLogger(c).Error().Str("route", c.Path()).Msg("handler reached without an identity")
		return nil, errs.NewInternalServerError()
	}
	return id, nil
}
