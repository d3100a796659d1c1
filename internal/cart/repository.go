package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is always wrapped with the product name so the
	// UI can render it inline.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	// AddChecked increments the (userID, productID) line by delta, creating
	// it if absent, iff the resulting quantity fits the available stock.
	AddChecked(ctx context.Context, userID, productID uuid.UUID, delta int) error
	// SetChecked sets the line quantity to exactly quantity (quantity >= 1)
	// under the same stock check.
	SetChecked(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]LineWithProduct, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *postgresRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) AddChecked(ctx context.Context, userID, productID uuid.UUID, delta int) error {
	return r.writeChecked(ctx, userID, productID, delta, true)
}

func (r *postgresRepository) SetChecked(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	return r.writeChecked(ctx, userID, productID, quantity, false)
}

// writeChecked is the stock-safe read-check-write. The whole sequence runs
// in one transaction with the product row locked FOR UPDATE, so two
// concurrent writes for the same product are serialized and cannot both
// observe stale stock. Cart quantities act as implicit reservations: the
// quantity available to one identity is the product stock minus what every
// other identity already holds in a cart.
func (r *postgresRepository) writeChecked(ctx context.Context, userID, productID uuid.UUID, qty int, additive bool) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("user_id", userID).Stringer("product_id", productID).
					Msg("repository: failed to rollback cart write")
			}
		}
	}()

	var (
		name  string
		stock int
	)
	err = tx.QueryRow(ctx,
		`SELECT name, stock FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&name, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("repository: failed to lock product %s: %w", productID, err)
	}

	var reservedByOthers int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE product_id = $1 AND user_id <> $2`,
		productID, userID,
	).Scan(&reservedByOthers)
	if err != nil {
		return fmt.Errorf("repository: failed to read reserved quantity for product %s: %w", productID, err)
	}

	var existing int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(&existing)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repository: failed to read cart line for user %s: %w", userID, err)
		}
		existing = 0
	}

	newQty := qty
	if additive {
		newQty = existing + qty
	}

	available := stock - reservedByOthers
	if newQty > available {
		// No write: the line must stay exactly as it was.
		return fmt.Errorf("%w: %s (requested %d, available %d)", ErrInsufficientStock, name, newQty, available)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`, userID, productID, newQty, now)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert cart line for user %s: %w", userID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit cart write: %w", err)
	}

	return nil
}

// Remove is idempotent: deleting an absent line is not an error.
func (r *postgresRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart line for user %s: %w", userID, err)
	}

	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart for user %s: %w", userID, err)
	}

	return nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]LineWithProduct, error) {
	query := `
		SELECT c.product_id, p.name, p.price, p.stock, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart for user %s: %w", userID, err)
	}
	defer rows.Close()

	lines := make([]LineWithProduct, 0)
	for rows.Next() {
		var l LineWithProduct
		err := rows.Scan(&l.ProductID, &l.Name, &l.Price, &l.Stock, &l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line for user %s: %w", userID, err)
		}
		lines = append(lines, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines for user %s: %w", userID, err)
	}

	return lines, nil
}
