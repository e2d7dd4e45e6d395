package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/deppfellow/storefront-api/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*model.User
}

func newFakeUsers(existing ...*model.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*model.User{}}
	for _, u := range existing {
		f.users[u.ExternalID] = u
	}
	return f
}

func (f *fakeUsers) Upsert(_ context.Context, u *model.User) (*model.User, bool, error) {
	if existing, ok := f.users[u.ExternalID]; ok {
		existing.Email = u.Email
		return existing, false, nil
	}
	cp := *u
	cp.ID = uuid.New()
	f.users[u.ExternalID] = &cp
	return &cp, true, nil
}

func (f *fakeUsers) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	if u, ok := f.users[externalID]; ok {
		return u, nil
	}
	return nil, sqlerr.NotFound("users", pgx.ErrNoRows)
}

func (f *fakeUsers) UpdateProfile(_ context.Context, externalID string, p repository.UpdateProfileParams) (*model.User, error) {
	u, ok := f.users[externalID]
	if !ok {
		return nil, sqlerr.NotFound("users", pgx.ErrNoRows)
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	return u, nil
}

type fakeEnqueuer struct {
	calls []string
	err   error
}

func (f *fakeEnqueuer) EnqueueWelcomeEmail(_ context.Context, _, to, _ string) error {
	f.calls = append(f.calls, to)
	return f.err
}

type fakeStores struct {
	stores  map[uuid.UUID]*model.Store
	deleted []uuid.UUID
}

func (f *fakeStores) List(context.Context, model.Page) ([]model.Store, error) {
	out := make([]model.Store, 0, len(f.stores))
	for _, s := range f.stores {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStores) GetByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	if s, ok := f.stores[id]; ok {
		return s, nil
	}
	return nil, sqlerr.NotFound("stores", pgx.ErrNoRows)
}

func (f *fakeStores) Create(_ context.Context, s *model.Store) (*model.Store, error) {
	cp := *s
	cp.ID = uuid.New()
	f.stores[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeStores) Update(_ context.Context, id uuid.UUID, p repository.UpdateStoreParams) (*model.Store, error) {
	s := f.stores[id]
	if p.Name != nil {
		s.Name = *p.Name
	}
	return s, nil
}

func (f *fakeStores) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.stores, id)
	return nil
}

type fakeProducts struct {
	products map[uuid.UUID]*model.Product
	created  []*model.Product
}

func (f *fakeProducts) List(context.Context, *uuid.UUID, model.Page) ([]model.Product, error) {
	return nil, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, sqlerr.NotFound("products", pgx.ErrNoRows)
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) (*model.Product, error) {
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakeProducts) Update(_ context.Context, id uuid.UUID, _ repository.UpdateProductParams) (*model.Product, error) {
	return f.products[id], nil
}

func (f *fakeProducts) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

func seller(subject string) *identity.Identity {
	return &identity.Identity{Subject: subject, Roles: []string{identity.RoleUser, identity.RoleSeller}}
}

func requireHTTPStatus(t *testing.T, err error, status int) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, status, httpErr.Status)
	return httpErr
}

func TestUserService_RegisterQueuesWelcomeOnce(t *testing.T) {
	users := newFakeUsers()
	jobs := &fakeEnqueuer{}
	l := zerolog.Nop()
	svc := NewUserService(users, jobs, &l)

	id := &identity.Identity{Subject: "user_1", Email: "ada@example.com"}

	u, created, err := svc.Register(context.Background(), id, RegisterInput{FirstName: "Ada"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ada@example.com", u.Email)

	_, created, err = svc.Register(context.Background(), id, RegisterInput{FirstName: "Ada"})
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, []string{"ada@example.com"}, jobs.calls)
}

func TestUserService_RegisterFallsBackToBodyEmail(t *testing.T) {
	l := zerolog.Nop()
	svc := NewUserService(newFakeUsers(), nil, &l)

	u, _, err := svc.Register(context.Background(), &identity.Identity{Subject: "user_1"}, RegisterInput{Email: "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", u.Email)
}

func TestUserService_RegisterRequiresEmail(t *testing.T) {
	l := zerolog.Nop()
	svc := NewUserService(newFakeUsers(), nil, &l)

	_, _, err := svc.Register(context.Background(), &identity.Identity{Subject: "user_1"}, RegisterInput{})
	httpErr := requireHTTPStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "EMAIL_REQUIRED", httpErr.Code)
}

func TestUserService_EnqueueFailureDoesNotFailRegister(t *testing.T) {
	l := zerolog.Nop()
	svc := NewUserService(newFakeUsers(), &fakeEnqueuer{err: errors.New("redis down")}, &l)

	_, created, err := svc.Register(context.Background(), &identity.Identity{Subject: "u", Email: "a@b.c"}, RegisterInput{})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestUserService_UpdateProfile(t *testing.T) {
	users := newFakeUsers(&model.User{ExternalID: "user_1", FirstName: "Ada"})
	l := zerolog.Nop()
	svc := NewUserService(users, nil, &l)

	bio := "mathematician"
	u, err := svc.UpdateProfile(context.Background(), "user_1", repository.UpdateProfileParams{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "mathematician", u.Bio)

	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestStoreService_CreateRequiresRegisteredUser(t *testing.T) {
	svc := NewStoreService(&fakeStores{stores: map[uuid.UUID]*model.Store{}}, newFakeUsers())

	_, err := svc.Create(context.Background(), seller("seller_1"), CreateStoreInput{Name: "Shop"})
	httpErr := requireHTTPStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "USER_NOT_REGISTERED", httpErr.Code)
}

func TestStoreService_CreateDerivesSlug(t *testing.T) {
	stores := &fakeStores{stores: map[uuid.UUID]*model.Store{}}
	svc := NewStoreService(stores, newFakeUsers(&model.User{ExternalID: "seller_1"}))

	s, err := svc.Create(context.Background(), seller("seller_1"), CreateStoreInput{Name: "Café Noir!"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-noir", s.Slug)
	assert.Equal(t, "seller_1", s.OwnerID)
}

func TestStoreService_Ownership(t *testing.T) {
	id := uuid.New()
	stores := &fakeStores{stores: map[uuid.UUID]*model.Store{
		id: {ID: id, OwnerID: "seller_1", Name: "Shop"},
	}}
	svc := NewStoreService(stores, newFakeUsers())
	name := "Renamed"

	_, err := svc.Update(context.Background(), seller("seller_2"), id, repository.UpdateStoreParams{Name: &name})
	httpErr := requireHTTPStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "STORE_NOT_OWNED", httpErr.Code)

	err = svc.Delete(context.Background(), seller("seller_2"), id)
	requireHTTPStatus(t, err, http.StatusForbidden)
	assert.Empty(t, stores.deleted)

	s, err := svc.Update(context.Background(), seller("seller_1"), id, repository.UpdateStoreParams{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", s.Name)

	admin := &identity.Identity{Subject: "root", Roles: []string{identity.RoleAdmin}}
	require.NoError(t, svc.Delete(context.Background(), admin, id))
	assert.Equal(t, []uuid.UUID{id}, stores.deleted)
}

func TestStoreService_MissingStore(t *testing.T) {
	svc := NewStoreService(&fakeStores{stores: map[uuid.UUID]*model.Store{}}, newFakeUsers())

	err := svc.Delete(context.Background(), seller("seller_1"), uuid.New())
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestProductService_CreateInOwnedStore(t *testing.T) {
	storeID := uuid.New()
	stores := &fakeStores{stores: map[uuid.UUID]*model.Store{
		storeID: {ID: storeID, OwnerID: "seller_1"},
	}}
	products := &fakeProducts{products: map[uuid.UUID]*model.Product{}}
	svc := NewProductService(products, stores)

	p, err := svc.Create(context.Background(), seller("seller_1"), CreateProductInput{StoreID: storeID, Name: "Mug", PriceCents: 1200})
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)

	_, err = svc.Create(context.Background(), seller("seller_2"), CreateProductInput{StoreID: storeID, Name: "Mug"})
	requireHTTPStatus(t, err, http.StatusForbidden)
	assert.Len(t, products.created, 1)
}

func TestProductService_UpdateChecksStoreOwner(t *testing.T) {
	storeID, productID := uuid.New(), uuid.New()
	stores := &fakeStores{stores: map[uuid.UUID]*model.Store{
		storeID: {ID: storeID, OwnerID: "seller_1"},
	}}
	products := &fakeProducts{products: map[uuid.UUID]*model.Product{
		productID: {ID: productID, StoreID: storeID},
	}}
	svc := NewProductService(products, stores)

	_, err := svc.Update(context.Background(), seller("seller_2"), productID, repository.UpdateProductParams{})
	requireHTTPStatus(t, err, http.StatusForbidden)

	err = svc.Delete(context.Background(), seller("seller_1"), productID)
	require.NoError(t, err)
	assert.Empty(t, products.products)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":      "hello-world",
		"  Crème  Brûlée ": "creme-brulee",
		"a--b__c":          "a-b-c",
		"日本":               "",
		"Shop 42":          "shop-42",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Slugify(in))
		})
	}
}
