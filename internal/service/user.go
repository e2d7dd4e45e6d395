package service

import (
	"context"

	"github.com/deppfellow/storefront-api/internal/errs"
	"github.com/deppfellow/storefront-api/internal/identity"
	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/repository"
	"github.com/rs/zerolog"
)

type UserRepository interface {
	Upsert(ctx context.Context, u *model.User) (*model.User, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	UpdateProfile(ctx context.Context, externalID string, p repository.UpdateProfileParams) (*model.User, error)
}

type WelcomeEnqueuer interface {
	EnqueueWelcomeEmail(ctx context.Context, userID, to, firstName string) error
}

type UserService struct {
	users  UserRepository
	jobs   WelcomeEnqueuer
	logger *zerolog.Logger
}

// NewUserService builds the service; jobs may be nil, which disables the
// welcome email.
func NewUserService(users UserRepository, jobs WelcomeEnqueuer, logger *zerolog.Logger) *UserService {
	return &UserService{users: users, jobs: jobs, logger: logger}
}

var emailRequiredCode = "EMAIL_REQUIRED"

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
}

// Register creates the local record for an authenticated identity. The
// token's email wins over the one in the body. A welcome email is queued
// the first time only.
func (s *UserService) Register(ctx context.Context, id *identity.Identity, in RegisterInput) (*model.User, bool, error) {
	email := id.Email
	if email == "" {
		email = in.Email
	}
	if email == "" {
		return nil, false, errs.NewBadRequestError("email is required", true, &emailRequiredCode, []errs.FieldError{
			{Field: "email", Error: "is required"},
		}, nil)
	}

	user, created, err := s.users.Upsert(ctx, &model.User{
		ExternalID: id.Subject,
		Email:      email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.sendWelcome(ctx, user)
	}

	return user, created, nil
}

func (s *UserService) sendWelcome(ctx context.Context, user *model.User) {
	if s.jobs == nil {
		s.logger.Warn().Str("user_id", user.ExternalID).Msg("job service unavailable, skipping welcome email")
		return
	}

	if err := s.jobs.EnqueueWelcomeEmail(ctx, user.ExternalID, user.Email, user.FirstName); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ExternalID).Msg("failed to enqueue welcome email")
	}
}

func (s *UserService) GetProfile(ctx context.Context, subject string) (*model.User, error) {
	return s.users.GetByExternalID(ctx, subject)
}

func (s *UserService) UpdateProfile(ctx context.Context, subject string, p repository.UpdateProfileParams) (*model.User, error) {
	return s.users.UpdateProfile(ctx, subject, p)
}
