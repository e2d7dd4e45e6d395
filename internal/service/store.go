package service

import (
	"context"
	"errors"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type StoreRepository interface {
	List(ctx context.Context, page model.Page) ([]model.Store, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	Create(ctx context.Context, s *model.Store) (*model.Store, error)
	Update(ctx context.Context, id uuid.UUID, p repository.UpdateStoreParams) (*model.Store, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserLookup is the part of the user repository stores need.
type UserLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

var (
	storeNotOwnedCode     = "STORE_NOT_OWNED"
	userNotRegisteredCode = "USER_NOT_REGISTERED"
)

func errStoreNotOwned() *errs.HTTPError {
	return errs.NewForbiddenError("You do not own this store", true, &storeNotOwnedCode)
}

type StoreService struct {
	stores StoreRepository
	users  UserLookup
}

func NewStoreService(stores StoreRepository, users UserLookup) *StoreService {
	return &StoreService{stores: stores, users: users}
}

type CreateStoreInput struct {
	Name        string
	Slug        string
	Description string
}

func (s *StoreService) List(ctx context.Context, page model.Page) ([]model.Store, error) {
	return s.stores.List(ctx, page)
}

func (s *StoreService) Get(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	return s.stores.GetByID(ctx, id)
}

// Create opens a store for actor, who must have registered first. The slug
// is derived from the name when not given.
func (s *StoreService) Create(ctx context.Context, actor *identity.Identity, in CreateStoreInput) (*model.Store, error) {
	if _, err := s.users.GetByExternalID(ctx, actor.Subject); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NewBadRequestError("Register before creating a store", true, &userNotRegisteredCode, nil, nil)
		}
		return nil, err
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		slug = "store-" + uuid.NewString()[:8]
	}

	return s.stores.Create(ctx, &model.Store{
		OwnerID:     actor.Subject,
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
	})
}

func (s *StoreService) Update(ctx context.Context, actor *identity.Identity, id uuid.UUID, p repository.UpdateStoreParams) (*model.Store, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.stores.Update(ctx, id, p)
}

func (s *StoreService) Delete(ctx context.Context, actor *identity.Identity, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.stores.Delete(ctx, id)
}

// owned loads the store and checks actor may manage it.
func (s *StoreService) owned(ctx context.Context, actor *identity.Identity, id uuid.UUID) (*model.Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, store.OwnerID) {
		return nil, errStoreNotOwned()
	}
	return store, nil
}
