package handler

import (
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/service"
	"github.com/deppfellow/storefront-api/internal/validation"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Handler
	users *service.UserService
}

func NewAuthHandler(s *server.Server, users *service.UserService) *AuthHandler {
	return &AuthHandler{Handler: NewHandler(s), users: users}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

func (r *RegisterRequest) Validate() error { return validation.Struct(r) }

type RegisterResponse struct {
	User    *model.User `json:"user"`
	Created bool        `json:"created"`
}

// Register creates the local user for the authenticated caller. It is
// idempotent; repeat calls refresh the email.
func (h *AuthHandler) Register(c echo.Context, req *RegisterRequest) (*RegisterResponse, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}

	user, created, err := h.users.Register(c.Request().Context(), id, service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{User: user, Created: created}, nil
}

type SessionResponse struct {
	Subject string   `json:"subject"`
	Email   string   `json:"email,omitempty"`
	Roles   []string `json:"roles"`
}

// Session echoes the verified identity.
func (h *AuthHandler) Session(c echo.Context, _ *EmptyRequest) (*SessionResponse, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Subject: id.Subject, Email: id.Email, Roles: id.Roles}, nil
}
