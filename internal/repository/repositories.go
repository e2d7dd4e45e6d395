// Package repository implements persistence on PostgreSQL with pgx.
package repository

import (
	"context"

	"github.com/deppfellow/storefront-api/internal/server"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool (and pgx.Tx) the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	User    *UserRepository
	Store   *StoreRepository
	Product *ProductRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		User:    NewUserRepository(s.DB.Pool),
		Store:   NewStoreRepository(s.DB.Pool),
		Product: NewProductRepository(s.DB.Pool),
	}
}
