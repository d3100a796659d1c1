package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
}

// StockView is the read-only price/stock accessor. Staleness is expected:
// callers that mutate cart state re-validate inside their own transaction.
type StockView interface {
	Current(ctx context.Context, productID uuid.UUID) (ProductStock, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *postgresRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `
		SELECT id, name, price, stock, category_id, status, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Stock,
		&p.CategoryID,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}

	return &p, nil
}

// Current reads price and stock in a single round-trip. ErrNotFound means
// the product no longer exists; any other error is a transport failure.
func (r *postgresRepository) Current(ctx context.Context, productID uuid.UUID) (ProductStock, error) {
	query := `
		SELECT name, price, stock
		FROM products
		WHERE id = $1
	`

	var ps ProductStock
	err := r.db.QueryRow(ctx, query, productID).Scan(&ps.Name, &ps.Price, &ps.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductStock{}, ErrNotFound
		}
		return ProductStock{}, fmt.Errorf("repository: failed to select stock for product %s: %w", productID, err)
	}

	return ps, nil
}
