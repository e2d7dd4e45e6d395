package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/sqlerr"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, external_id, email, first_name, last_name, bio, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the user or refreshes its email. created reports whether
// the row is new.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) (user *model.User, created bool, err error) {
	stmt := `
		INSERT INTO users (external_id, email, first_name, last_name)
		VALUES (@external_id, @email, @first_name, @last_name)
		ON CONFLICT (external_id) DO UPDATE
			SET email = EXCLUDED.email, updated_at = now()
		RETURNING ` + userColumns + `, (xmax = 0) AS created`

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"external_id": u.ExternalID,
		"email":       u.Email,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to execute upsert user query for external_id=%s: %w", u.ExternalID, err)
	}

	type upserted struct {
		model.User
		Created bool `db:"created"`
	}
	res, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[upserted])
	if err != nil {
		return nil, false, fmt.Errorf("failed to collect row from table:users for external_id=%s: %w", u.ExternalID, err)
	}

	return &res.User, res.Created, nil
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	stmt := `SELECT ` + userColumns + ` FROM users WHERE external_id = @external_id`

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{"external_id": externalID})
	if err != nil {
		return nil, fmt.Errorf("failed to execute get user query for external_id=%s: %w", externalID, err)
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, sqlerr.NotFound("users", err)
	}

	return &user, nil
}

type UpdateProfileParams struct {
	FirstName *string
	LastName  *string
	Bio       *string
}

// UpdateProfile changes only the fields that are set.
func (r *UserRepository) UpdateProfile(ctx context.Context, externalID string, p UpdateProfileParams) (*model.User, error) {
	stmt := `
		UPDATE users SET
			first_name = COALESCE(@first_name, first_name),
			last_name  = COALESCE(@last_name, last_name),
			bio        = COALESCE(@bio, bio),
			updated_at = now()
		WHERE external_id = @external_id
		RETURNING ` + userColumns

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"external_id": externalID,
		"first_name":  p.FirstName,
		"last_name":   p.LastName,
		"bio":         p.Bio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute update profile query for external_id=%s: %w", externalID, err)
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, sqlerr.NotFound("users", err)
	}

	return &user, nil
}
