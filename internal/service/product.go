package service

import (
	"context"

	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/google/uuid"
)

type ProductRepository interface {
	List(ctx context.Context, storeID *uuid.UUID, page model.Page) ([]model.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, p repository.UpdateProductParams) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StoreLookup is the part of the store repository products need.
type StoreLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
}

type ProductService struct {
	products ProductRepository
	stores   StoreLookup
}

func NewProductService(products ProductRepository, stores StoreLookup) *ProductService {
	return &ProductService{products: products, stores: stores}
}

type CreateProductInput struct {
	StoreID     uuid.UUID
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Stock       int32
}

func (s *ProductService) List(ctx context.Context, storeID *uuid.UUID, page model.Page) ([]model.Product, error) {
	return s.products.List(ctx, storeID, page)
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.products.GetByID(ctx, id)
}

// Create adds a product to a store actor manages.
func (s *ProductService) Create(ctx context.Context, actor *identity.Identity, in CreateProductInput) (*model.Product, error) {
	if err := s.checkStore(ctx, actor, in.StoreID); err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	return s.products.Create(ctx, &model.Product{
		StoreID:     in.StoreID,
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Currency:    currency,
		Stock:       in.Stock,
	})
}

func (s *ProductService) Update(ctx context.Context, actor *identity.Identity, id uuid.UUID, p repository.UpdateProductParams) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkStore(ctx, actor, product.StoreID); err != nil {
		return nil, err
	}
	return s.products.Update(ctx, id, p)
}

func (s *ProductService) Delete(ctx context.Context, actor *identity.Identity, id uuid.UUID) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkStore(ctx, actor, product.StoreID); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

func (s *ProductService) checkStore(ctx context.Context, actor *identity.Identity, storeID uuid.UUID) error {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if !canManage(actor, store.OwnerID) {
		return errStoreNotOwned()
	}
	return nil
}
