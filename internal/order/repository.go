package order

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

var ErrNotFound = errors.New("order not found")

// Repository exposes the two-phase order write: the header insert assigns
// the order id, and the lines are written as a second, separate batch. The
// placement coordinator owns the sequencing.
type Repository interface {
	InsertHeader(ctx context.Context, o *Order) (uuid.UUID, error)
	InsertLines(ctx context.Context, orderID uuid.UUID, lines []Line) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *postgresRepository {
	return &postgresRepository{db: db}
}

// InsertHeader persists the order header without lines and returns the
// assigned id. Nothing else is written: a failure here needs no cleanup.
func (r *postgresRepository) InsertHeader(ctx context.Context, o *Order) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO orders (id, user_id, address_id, total_amount, status, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	_, err = r.db.Exec(ctx, query,
		id,
		o.UserID,
		o.AddressID,
		o.TotalAmount,
		string(o.Status),
		o.PaymentMethod,
		now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert order header: %w", err)
	}

	o.ID = id
	o.CreatedAt = now
	o.UpdatedAt = now

	return id, nil
}

// InsertLines stamps every line with orderID and writes them as one batch.
func (r *postgresRepository) InsertLines(ctx context.Context, orderID uuid.UUID, lines []Line) error {
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for i := range lines {
		line := &lines[i]

		lineID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order line ID: %w", err)
		}
		line.ID = lineID
		line.OrderID = orderID
		line.CreatedAt = now

		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, line.ID, line.OrderID, line.ProductID, line.Quantity, line.PriceAtPurchase, line.CreatedAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range lines {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("repository: failed to insert order lines for order %s: %w", orderID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `
		SELECT id, user_id, address_id, total_amount, status, payment_method, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.AddressID,
		&o.TotalAmount,
		&o.Status,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	linesQuery := `
		SELECT id, order_id, product_id, quantity, price_at_purchase, created_at
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.Query(ctx, linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines for order %s: %w", id, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.PriceAtPurchase, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line for order %s: %w", id, err)
		}
		lines = append(lines, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines for order %s: %w", id, err)
	}

	o.Lines = lines

	return &o, nil
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	ordersQuery := `
		SELECT id, user_id, address_id, total_amount, status, payment_method, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	orderRows, err := r.db.Query(ctx, ordersQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var o Order
		err := orderRows.Scan(
			&o.ID,
			&o.UserID,
			&o.AddressID,
			&o.TotalAmount,
			&o.Status,
			&o.PaymentMethod,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for user %s: %w", userID, err)
		}
		o.Lines = make([]Line, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}

	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for user %s: %w", userID, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	linesQuery := `
		SELECT id, order_id, product_id, quantity, price_at_purchase, created_at
		FROM order_items
		WHERE order_id = ANY($1)
	`
	lineRows, err := r.db.Query(ctx, linesQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines for user %s: %w", userID, err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l Line
		err := lineRows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.PriceAtPurchase, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line for user %s: %w", userID, err)
		}

		if o, ok := ordersMap[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}

	if err = lineRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines for user %s: %w", userID, err)
	}

	orders := make([]Order, 0, len(ordersMap))
	for _, id := range orderIDs {
		if o, ok := ordersMap[id]; ok {
			orders = append(orders, *o)
		}
	}

	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Str("new_status", string(newStatus)).
			Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update status for order %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
