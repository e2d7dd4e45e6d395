package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/pipeline"
	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

var (
	errMissingCredentials   = errors.New("missing authorization header")
	errMalformedCredentials = errors.New("malformed authorization header")
)

type AuthMiddleware struct {
	server   *server.Server
	provider identity.Provider
}

func NewAuthMiddleware(s *server.Server, provider identity.Provider) *AuthMiddleware {
	return &AuthMiddleware{
		server:   s,
		provider: provider,
	}
}

// unauthorized is the single 401 body for every authentication failure so
// clients cannot tell a missing token from a bad one.
func unauthorized() *errs.HTTPError {
	return errs.NewUnauthorizedError("Unauthorized", false)
}

// Authenticate verifies the bearer token and attaches the identity.
func (auth *AuthMiddleware) Authenticate() pipeline.AuthenticateStage {
	return pipeline.AuthenticateStage{
		Name: "authenticate",
		Run: func(c echo.Context) pipeline.Result {
			start := time.Now()
			log := GetLogger(c)

			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				log.Debug().Err(err).Str("function", "Authenticate").Msg("authentication failed")
				return pipeline.Halt(unauthorized())
			}

			id, err := auth.provider.Verify(c.Request().Context(), token)
			if err != nil || id == nil || id.Subject == "" {
				log.Debug().Err(err).Str("function", "Authenticate").
					Dur("duration", time.Since(start)).
					Msg("authentication failed")
				return pipeline.Halt(unauthorized())
			}

			identity.WithIdentity(c, id)
			c.Set(UserIDKey, id.Subject)
			c.Set(UserRoleKey, id.PrimaryRole())

			SetLogger(c, log.With().
				Str("user_id", id.Subject).
				Str("user_role", id.PrimaryRole()).
				Logger())

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				txn.AddAttribute("user.id", id.Subject)
			}

			GetLogger(c).Debug().
				Str("function", "Authenticate").
				Dur("duration", time.Since(start)).
				Msg("user authenticated")

			return pipeline.Continue()
		},
	}
}

// Authorize requires role on the attached identity. A missing identity
// means the route was wired without Authenticate; it fails with 500.
func (auth *AuthMiddleware) Authorize(role string) pipeline.AuthorizeStage {
	return pipeline.AuthorizeStage{
		Name: "authorize:" + role,
		Run: func(c echo.Context) pipeline.Result {
			id, ok := identity.FromContext(c)
			if !ok {
				GetLogger(c).Error().
					Str("function", "Authorize").
					Str("role", role).
					Msg("authorize stage reached without an identity")
				return pipeline.Halt(errs.NewInternalServerError())
			}

			if !id.HasRole(role) {
				GetLogger(c).Debug().
					Str("function", "Authorize").
					Str("role", role).
					Strs("roles", id.Roles).
					Msg("missing required role")
				return pipeline.Halt(errs.NewForbiddenError("Forbidden", false, nil))
			}

			return pipeline.Continue()
		},
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingCredentials
	}

	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedCredentials
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", errMalformedCredentials
	}

	return token, nil
}
