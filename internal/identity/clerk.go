package identity

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/deppfellow/storefront-api/internal/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	jwksCacheSize = 16
	jwksCacheTTL  = time.Hour
	clockLeeway   = 5 * time.Second
)

// customClaims are the application claims added through the Clerk session
// token template: { "roles": ["user"], "email": "{{user.primary_email_address}}" }.
type customClaims struct {
	Roles []string `json:"roles"`
	Email string   `json:"email"`
}

// KeyFetcher loads the JSON web key for a key id.
type KeyFetcher func(ctx context.Context, keyID string) (*clerk.JSONWebKey, error)

// ClerkProvider verifies Clerk session tokens against the instance JWKS.
// Keys are cached by key id.
type ClerkProvider struct {
	keys              *expirable.LRU[string, *clerk.JSONWebKey]
	fetchKey          KeyFetcher
	authorizedParties []string
}

// NewClerkProvider sets the Clerk secret key and returns a provider that
// fetches keys from the Clerk backend API.
func NewClerkProvider(cfg config.AuthConfig) *ClerkProvider {
	clerk.SetKey(cfg.SecretKey)

	return NewClerkProviderWithFetcher(cfg, func(ctx context.Context, keyID string) (*clerk.JSONWebKey, error) {
		return jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{KeyID: keyID})
	})
}

// NewClerkProviderWithFetcher is NewClerkProvider with a custom key source.
func NewClerkProviderWithFetcher(cfg config.AuthConfig, fetch KeyFetcher) *ClerkProvider {
	return &ClerkProvider{
		keys:              expirable.NewLRU[string, *clerk.JSONWebKey](jwksCacheSize, nil, jwksCacheTTL),
		fetchKey:          fetch,
		authorizedParties: cfg.AuthorizedParties,
	}
}

// Verify checks signature, expiry and authorized party, and maps the
// session claims to an Identity. Every failure wraps ErrInvalidToken.
func (p *ClerkProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	decoded, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidToken, err)
	}

	jwk, err := p.key(ctx, decoded.KeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch key %q: %v", ErrInvalidToken, decoded.KeyID, err)
	}

	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token:  token,
		JWK:    jwk,
		Leeway: clockLeeway,
		CustomClaimsConstructor: func(context.Context) any {
			return &customClaims{}
		},
		AuthorizedPartyHandler: p.isAuthorizedParty,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: verify: %v", ErrInvalidToken, err)
	}

	return identityFromClaims(claims), nil
}

func (p *ClerkProvider) key(ctx context.Context, keyID string) (*clerk.JSONWebKey, error) {
	if jwk, ok := p.keys.Get(keyID); ok {
		return jwk, nil
	}

	jwk, err := p.fetchKey(ctx, keyID)
	if err != nil {
		return nil, err
	}

	p.keys.Add(keyID, jwk)
	return jwk, nil
}

func (p *ClerkProvider) isAuthorizedParty(azp string) bool {
	if len(p.authorizedParties) == 0 {
		return true
	}
	return slices.Contains(p.authorizedParties, azp)
}

// identityFromClaims merges the custom roles claim with the active
// organization role ("org:seller" -> "seller"). Callers with no role at all
// are plain users.
func identityFromClaims(claims *clerk.SessionClaims) *Identity {
	id := &Identity{Subject: claims.Subject}

	if custom, ok := claims.Custom.(*customClaims); ok && custom != nil {
		id.Email = custom.Email
		for _, role := range custom.Roles {
			id.Roles = appendRole(id.Roles, role)
		}
	}

	if orgRole := strings.TrimPrefix(claims.ActiveOrganizationRole, "org:"); orgRole != "" {
		id.Roles = appendRole(id.Roles, orgRole)
	}

	if len(id.Roles) == 0 {
		id.Roles = []string{RoleUser}
	}

	return id
}

func appendRole(roles []string, role string) []string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" || slices.Contains(roles, role) {
		return roles
	}
	return append(roles, role)
}
