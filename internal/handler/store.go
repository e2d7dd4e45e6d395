package handler

import (
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/service"
	"github.com/deppfellow/storefront-api/internal/validation"
	"github.com/labstack/echo/v4"
)

type StoreHandler struct {
	Handler
	stores *service.StoreService
}

func NewStoreHandler(s *server.Server, stores *service.StoreService) *StoreHandler {
	return &StoreHandler{Handler: NewHandler(s), stores: stores}
}

type ListStoresRequest struct {
	PageRequest
}

func (r *ListStoresRequest) Validate() error { return validation.Struct(r) }

func (h *StoreHandler) ListStores(c echo.Context, req *ListStoresRequest) (*model.PaginatedResponse[model.Store], error) {
	page := req.Page()
	stores, err := h.stores.List(c.Request().Context(), page)
	if err != nil {
		return nil, err
	}
	return &model.PaginatedResponse[model.Store]{Data: stores, Limit: page.Limit, Offset: page.Offset}, nil
}

func (h *StoreHandler) GetStore(c echo.Context, req *IDRequest) (*model.Store, error) {
	return h.stores.Get(c.Request().Context(), req.UUID())
}

type CreateStoreRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Slug        string `json:"slug" validate:"omitempty,min=3,max=64,lowercase"`
	Description string `json:"description" validate:"max=2000"`
}

func (r *CreateStoreRequest) Validate() error { return validation.Struct(r) }

func (h *StoreHandler) CreateStore(c echo.Context, req *CreateStoreRequest) (*model.Store, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}
	return h.stores.Create(c.Request().Context(), id, service.CreateStoreInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
}

type UpdateStoreRequest struct {
	IDRequest
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

func (r *UpdateStoreRequest) Validate() error { return validation.Struct(r) }

func (h *StoreHandler) UpdateStore(c echo.Context, req *UpdateStoreRequest) (*model.Store, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}
	return h.stores.Update(c.Request().Context(), id, req.UUID(), repository.UpdateStoreParams{
		Name:        req.Name,
		Description: req.Description,
	})
}

func (h *StoreHandler) DeleteStore(c echo.Context, req *IDRequest) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	return h.stores.Delete(c.Request().Context(), id, req.UUID())
}
