package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/storefront-api/internal/config"
	"github.com/deppfellow/storefront-api/internal/handler"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/middleware"
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/ratelimit"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/deppfellow/storefront-api/internal/service"
	"github.com/deppfellow/storefront-api/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	users map[string]*model.User
}

func (m *memUsers) Upsert(_ context.Context, u *model.User) (*model.User, bool, error) {
	if existing, ok := m.users[u.ExternalID]; ok {
		return existing, false, nil
	}
	cp := *u
	m.users[u.ExternalID] = &cp
	return &cp, true, nil
}

func (m *memUsers) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	if u, ok := m.users[externalID]; ok {
		return u, nil
	}
	return nil, sqlerr.NotFound("users", pgx.ErrNoRows)
}

func (m *memUsers) UpdateProfile(_ context.Context, externalID string, p repository.UpdateProfileParams) (*model.User, error) {
	u, ok := m.users[externalID]
	if !ok {
		return nil, sqlerr.NotFound("users", pgx.ErrNoRows)
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	return u, nil
}

type memStores struct {
	stores map[uuid.UUID]*model.Store
}

func (m *memStores) List(context.Context, model.Page) ([]model.Store, error) {
	out := []model.Store{}
	for _, s := range m.stores {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memStores) GetByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	if s, ok := m.stores[id]; ok {
		return s, nil
	}
	return nil, sqlerr.NotFound("stores", pgx.ErrNoRows)
}

func (m *memStores) Create(_ context.Context, s *model.Store) (*model.Store, error) {
	cp := *s
	cp.ID = uuid.New()
	m.stores[cp.ID] = &cp
	return &cp, nil
}

func (m *memStores) Update(ctx context.Context, id uuid.UUID, p repository.UpdateStoreParams) (*model.Store, error) {
	s, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	return s, nil
}

func (m *memStores) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.stores, id)
	return nil
}

type memProducts struct{}

func (memProducts) List(context.Context, *uuid.UUID, model.Page) ([]model.Product, error) {
	return []model.Product{}, nil
}

func (memProducts) GetByID(context.Context, uuid.UUID) (*model.Product, error) {
	return nil, sqlerr.NotFound("products", pgx.ErrNoRows)
}

func (memProducts) Create(_ context.Context, p *model.Product) (*model.Product, error) {
	return p, nil
}

func (memProducts) Update(context.Context, uuid.UUID, repository.UpdateProductParams) (*model.Product, error) {
	return nil, sqlerr.NotFound("products", pgx.ErrNoRows)
}

func (memProducts) Delete(context.Context, uuid.UUID) error {
	return sqlerr.NotFound("products", pgx.ErrNoRows)
}

var tokens = map[string]*identity.Identity{
	"user-token":   {Subject: "user_1", Email: "ada@example.com", Roles: []string{identity.RoleUser}},
	"guest-token":  {Subject: "guest_1", Roles: []string{"guest"}},
	"seller-token": {Subject: "seller_1", Email: "sam@example.com", Roles: []string{identity.RoleUser, identity.RoleSeller}},
	"rival-token":  {Subject: "seller_2", Roles: []string{identity.RoleUser, identity.RoleSeller}},
}

var provider = identity.ProviderFunc(func(_ context.Context, token string) (*identity.Identity, error) {
	if id, ok := tokens[token]; ok {
		cp := *id
		return &cp, nil
	}
	return nil, identity.ErrInvalidToken
})

type fixture struct {
	echo   *echo.Echo
	stores *memStores
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	l := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				Port:               "0",
				RequestTimeout:     15,
				BodyLimit:          "100K",
				CORSAllowedOrigins: []string{"*"},
			},
			RateLimit:     config.DefaultRateLimitConfig(),
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger:         &l,
		RateLimitStore: ratelimit.NewMemoryStore(ctx),
	}

	users := &memUsers{users: map[string]*model.User{
		"user_1":   {ID: uuid.New(), ExternalID: "user_1", Email: "ada@example.com", FirstName: "Ada"},
		"seller_1": {ID: uuid.New(), ExternalID: "seller_1", Email: "sam@example.com"},
	}}
	stores := &memStores{stores: map[uuid.UUID]*model.Store{}}

	userService := service.NewUserService(users, nil, &l)
	storeService := service.NewStoreService(stores, users)
	productService := service.NewProductService(memProducts{}, stores)

	h := &handler.Handlers{
		Health:  handler.NewHealthHandler(s),
		OpenAPI: handler.NewOpenAPIHandler(s),
		Auth:    handler.NewAuthHandler(s, userService),
		User:    handler.NewUserHandler(s, userService),
		Store:   handler.NewStoreHandler(s, storeService),
		Product: handler.NewProductHandler(s, productService),
	}

	e, err := NewRouter(s, h, middleware.NewMiddlewares(s, provider))
	require.NoError(t, err)

	return &fixture{echo: e, stores: stores}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestProfileScenarios(t *testing.T) {
	f := newFixture(t)

	t.Run("get profile", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/user/profile", "user-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var u model.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
		assert.Equal(t, "user_1", u.ExternalID)
		assert.Equal(t, "Ada", u.FirstName)
	})

	t.Run("update as guest", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/user/profile", "guest-token", `{"bio":"hi"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("update without credentials", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/user/profile", "", `{"bio":"hi"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
	})

	t.Run("delete is not allowed", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/user/profile", "user-token", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "GET, PUT", rec.Header().Get(echo.HeaderAllow))
	})

	t.Run("update as user", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/user/profile", "user-token", `{"bio":"mathematician"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"bio":"mathematician"`)
		assert.Equal(t, "100", rec.Header().Get(middleware.HeaderRateLimitLimit))
	})

	t.Run("update with invalid payload", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/user/profile", "user-token", `{"bio":"`+strings.Repeat("x", 501)+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSecurityHeadersOnErrors(t *testing.T) {
	f := newFixture(t)

	for _, rec := range []*httptest.ResponseRecorder{
		f.do(http.MethodGet, "/nowhere", "", ""),
		f.do(http.MethodPatch, "/user/profile", "user-token", ""),
		f.do(http.MethodGet, "/user/profile", "", ""),
	} {
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "max-age=15552000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
		assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	}
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/auth/session", "seller-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subject":"seller_1","email":"sam@example.com","roles":["user","seller"]}`, rec.Body.String())
	assert.Equal(t, "20", rec.Header().Get(middleware.HeaderRateLimitLimit))

	rec = f.do(http.MethodPost, "/auth/register", "rival-token", `{"email":"rival@example.com","first_name":"Rex"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"created":true`)

	rec = f.do(http.MethodGet, "/auth/register", "rival-token", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get(echo.HeaderAllow))
}

func TestStoreRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("create requires seller", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/store", "user-token", `{"name":"Shop"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	var created model.Store
	t.Run("create", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/store", "seller-token", `{"name":"Corner Shop"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "corner-shop", created.Slug)
		assert.Equal(t, "seller_1", created.OwnerID)
	})

	t.Run("public list and get", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/store?limit=5", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"limit":5`)

		rec = f.do(http.MethodGet, "/store/"+created.ID.String(), "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/store/not-a-uuid", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing store", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/store/"+uuid.NewString(), "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-owner cannot update", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/store/"+created.ID.String(), "rival-token", `{"name":"Mine"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "STORE_NOT_OWNED", errorCode(t, rec))
	})

	t.Run("owner deletes", func(t *testing.T) {
		rec := f.do(http.MethodDelete, "/store/"+created.ID.String(), "seller-token", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, f.stores.stores)
	})
}

func TestProductRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/product?store_id=bad", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/product", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"limit":20,"offset":0}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/product", "seller-token", `{"store_id":"`+uuid.NewString()+`","name":"Mug","price_cents":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/product/"+uuid.NewString(), "seller-token", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, PUT, DELETE", rec.Header().Get(echo.HeaderAllow))
}

func TestRateLimitIgnoresSpoofedForwarding(t *testing.T) {
	f := newFixture(t)
	limit := int(config.DefaultRateLimitConfig().Limit)

	var limited int
	for i := 0; i <= limit; i++ {
		req := httptest.NewRequest(http.MethodGet, "/store", nil)
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i%250))
		req.Header.Set(echo.HeaderXRealIP, fmt.Sprintf("198.51.100.%d", i%250))
		rec := httptest.NewRecorder()
		f.echo.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 1, limited)
}

func TestDocsServedFromBinary(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/docs", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.js")

	for _, asset := range []string{"/static/openapi.json", "/static/openapi.js", "/static/openapi.css"} {
		rec := f.do(http.MethodGet, asset, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, asset)
		assert.NotEmpty(t, rec.Body.String(), asset)
	}

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/static/static.go", "", "").Code)
}

func TestHealthRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}
