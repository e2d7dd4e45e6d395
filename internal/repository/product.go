package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/storefront-api/internal/model"
	"github.com/deppfellow/storefront-api/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, store_id, name, description, price_cents, currency, stock, created_at, updated_at`

type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns products newest first, optionally restricted to one store.
func (r *ProductRepository) List(ctx context.Context, storeID *uuid.UUID, page model.Page) ([]model.Product, error) {
	stmt := `
		SELECT ` + productColumns + ` FROM products
		WHERE @store_id::uuid IS NULL OR store_id = @store_id
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"store_id": storeID,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute list products query: %w", err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from table:products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	stmt := `SELECT ` + productColumns + ` FROM products WHERE id = @id`

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to execute get product query for id=%s: %w", id, err)
	}

	product, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, sqlerr.NotFound("products", err)
	}

	return &product, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	stmt := `
		INSERT INTO products (store_id, name, description, price_cents, currency, stock)
		VALUES (@store_id, @name, @description, @price_cents, @currency, @stock)
		RETURNING ` + productColumns

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"store_id":    p.StoreID,
		"name":        p.Name,
		"description": p.Description,
		"price_cents": p.PriceCents,
		"currency":    p.Currency,
		"stock":       p.Stock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute create product query for store_id=%s: %w", p.StoreID, err)
	}

	product, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, err
	}

	return &product, nil
}

type UpdateProductParams struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Stock       *int32
}

func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, p UpdateProductParams) (*model.Product, error) {
	stmt := `
		UPDATE products SET
			name        = COALESCE(@name, name),
			description = COALESCE(@description, description),
			price_cents = COALESCE(@price_cents, price_cents),
			stock       = COALESCE(@stock, stock),
			updated_at  = now()
		WHERE id = @id
		RETURNING ` + productColumns

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"id":          id,
		"name":        p.Name,
		"description": p.Description,
		"price_cents": p.PriceCents,
		"stock":       p.Stock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute update product query for id=%s: %w", id, err)
	}

	product, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, sqlerr.NotFound("products", err)
	}

	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("failed to execute delete product query for id=%s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sqlerr.NotFound("products", pgx.ErrNoRows)
	}
	return nil
}
