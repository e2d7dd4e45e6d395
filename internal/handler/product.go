package handler

import (
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/service"
	"github.com/deppfellow/storefront-api/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	Handler
	products *service.ProductService
}

func NewProductHandler(s *server.Server, products *service.ProductService) *ProductHandler {
	return &ProductHandler{Handler: NewHandler(s), products: products}
}

type ListProductsRequest struct {
	PageRequest
	StoreID string `query:"store_id" validate:"omitempty,uuid"`
}

func (r *ListProductsRequest) Validate() error { return validation.Struct(r) }

func (h *ProductHandler) ListProducts(c echo.Context, req *ListProductsRequest) (*model.PaginatedResponse[model.Product], error) {
	var storeID *uuid.UUID
	if req.StoreID != "" {
		id := uuid.MustParse(req.StoreID)
		storeID = &id
	}

	page := req.Page()
	products, err := h.products.List(c.Request().Context(), storeID, page)
	if err != nil {
		return nil, err
	}
	return &model.PaginatedResponse[model.Product]{Data: products, Limit: page.Limit, Offset: page.Offset}, nil
}

func (h *ProductHandler) GetProduct(c echo.Context, req *IDRequest) (*model.Product, error) {
	return h.products.Get(c.Request().Context(), req.UUID())
}

type CreateProductRequest struct {
	StoreID     string `json:"store_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3,uppercase"`
	Stock       int32  `json:"stock" validate:"gte=0"`
}

func (r *CreateProductRequest) Validate() error { return validation.Struct(r) }

func (h *ProductHandler) CreateProduct(c echo.Context, req *CreateProductRequest) (*model.Product, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}
	return h.products.Create(c.Request().Context(), id, service.CreateProductInput{
		StoreID:     uuid.MustParse(req.StoreID),
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Stock:       req.Stock,
	})
}

type UpdateProductRequest struct {
	IDRequest
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Stock       *int32  `json:"stock" validate:"omitempty,gte=0"`
}

func (r *UpdateProductRequest) Validate() error { return validation.Struct(r) }

func (h *ProductHandler) UpdateProduct(c echo.Context, req *UpdateProductRequest) (*model.Product, error) {
	id, err := actor(c)
	if err != nil {
		return nil, err
	}
	return h.products.Update(c.Request().Context(), id, req.UUID(), repository.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	})
}

func (h *ProductHandler) DeleteProduct(c echo.Context, req *IDRequest) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	return h.products.Delete(c.Request().Context(), id, req.UUID())
}
