package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const storeColumns = `id, owner_id, name, slug, description, created_at, updated_at`

type StoreRepository struct {
	db DBTX
}

func NewStoreRepository(db DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) List(ctx context.Context, page model.Page) ([]model.Store, error) {
	stmt := `
		SELECT ` + storeColumns + ` FROM stores
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{"limit": page.Limit, "offset": page.Offset})
	if err != nil {
		return nil, fmt.Errorf("failed to execute list stores query: %w", err)
	}

	stores, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Store])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from table:stores: %w", err)
	}

	return stores, nil
}

func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	stmt := `SELECT ` + storeColumns + ` FROM stores WHERE id = @id`

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to execute get store query for id=%s: %w", id, err)
	}

	store, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Store])
	if err != nil {
		return nil, sqlerr.NotFound("stores", err)
	}

	return &store, nil
}

func (r *StoreRepository) Create(ctx context.Context, s *model.Store) (*model.Store, error) {
	stmt := `
		INSERT INTO stores (owner_id, name, slug, description)
		VALUES (@owner_id, @name, @slug, @description)
		RETURNING ` + storeColumns

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"owner_id":    s.OwnerID,
		"name":        s.Name,
		"slug":        s.Slug,
		"description": s.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute create store query for owner_id=%s: %w", s.OwnerID, err)
	}

	store, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Store])
	if err != nil {
		return nil, err
	}

	return &store, nil
}

type UpdateStoreParams struct {
	Name        *string
	Description *string
}

func (r *StoreRepository) Update(ctx context.Context, id uuid.UUID, p UpdateStoreParams) (*model.Store, error) {
	stmt := `
		UPDATE stores SET
			name        = COALESCE(@name, name),
			description = COALESCE(@description, description),
			updated_at  = now()
		WHERE id = @id
		RETURNING ` + storeColumns

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"id":          id,
		"name":        p.Name,
		"description": p.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute update store query for id=%s: %w", id, err)
	}

	store, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Store])
	if err != nil {
		return nil, sqlerr.NotFound("stores", err)
	}

	return &store, nil
}

func (r *StoreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stores WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("failed to execute delete store query for id=%s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sqlerr.NotFound("stores", pgx.ErrNoRows)
	}
	return nil
}
