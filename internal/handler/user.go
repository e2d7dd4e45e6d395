package handler

import (
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/service"
	"github.com/deppfellow/storefront-api/internal/validation"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	Handler
	users *service.UserService
}

func NewUserHandler(s *server.Server, users *service.UserService) *UserHandler {
	return &UserHandler{Handler: NewHandler(s), users: users}
}

func (h *UserHandler) GetProfile(c echo.Context, _ *EmptyRequest) (*model.User, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}
	return h.users.GetProfile(c.Request().Context(), id.Subject)
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

func (r *UpdateProfileRequest) Validate() error { return validation.Struct(r) }

func (h *UserHandler) UpdateProfile(c echo.Context, req *UpdateProfileRequest) (*model.User, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}
	return h.users.UpdateProfile(c.Request().Context(), id.Subject, repository.UpdateProfileParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	})
}
