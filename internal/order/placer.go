package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/identity"
)

// ErrOrderLinesFailed means the order header was persisted but the line
// batch was not: the header is orphaned. There is no cross-step rollback;
// the error carries the header id so a reconciliation pass can find it.
var ErrOrderLinesFailed = errors.New("order lines write failed, header orphaned")

// Carts is the slice of the cart store the placer needs: a snapshot read
// and the terminal clear.
type Carts interface {
	List(ctx context.Context, userID uuid.UUID) ([]cart.LineWithProduct, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type placementState string

const (
	stateAssembling      placementState = "ASSEMBLING"
	stateHeaderPersisted placementState = "HEADER_PERSISTED"
	stateLinesPersisted  placementState = "LINES_PERSISTED"
	stateCartCleared     placementState = "CART_CLEARED"
)

// Placer turns a cart into a durable order. The sequence is strict: header,
// then lines, then cart clear — step N never starts before step N-1 is
// confirmed. It is not resumable; a retry starts over from a fresh cart read.
type Placer interface {
	PlaceOrder(ctx context.Context, userID, addressID uuid.UUID, paymentMethod string) (uuid.UUID, error)
}

type placer struct {
	orders Repository
	carts  Carts
	stock  catalog.StockView
	fees   Fees
}

func NewPlacer(orders Repository, carts Carts, stock catalog.StockView, fees Fees) Placer {
	return &placer{orders: orders, carts: carts, stock: stock, fees: fees}
}

func (p *placer) PlaceOrder(ctx context.Context, userID, addressID uuid.UUID, paymentMethod string) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, identity.ErrNotAuthenticated
	}

	state := stateAssembling
	log.Debug().Stringer("user_id", userID).Str("state", string(state)).Msg("placer: placing order")

	lines, err := p.carts.List(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("placer: failed to read cart: %w", err)
	}

	o, orderLines, err := Assemble(lines, userID, addressID, paymentMethod, p.fees)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("placer: assembly rejected")
		return uuid.Nil, err
	}

	// Re-validate stock right before committing to the order. Prices stay
	// frozen from the assembly snapshot regardless of what this read sees.
	for _, l := range orderLines {
		ps, err := p.stock.Current(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return uuid.Nil, fmt.Errorf("%w: product %s", cart.ErrProductNotFound, l.ProductID)
			}
			return uuid.Nil, fmt.Errorf("placer: failed to re-check stock: %w", err)
		}
		if l.Quantity > ps.Stock {
			return uuid.Nil, fmt.Errorf("%w: %s (requested %d, available %d)",
				cart.ErrInsufficientStock, ps.Name, l.Quantity, ps.Stock)
		}
	}

	orderID, err := p.orders.InsertHeader(ctx, o)
	if err != nil {
		// Nothing has been written yet, no cleanup needed.
		log.Error().Err(err).Stringer("user_id", userID).Msg("placer: failed to persist order header")
		return uuid.Nil, fmt.Errorf("placer: failed to persist order header: %w", err)
	}
	state = stateHeaderPersisted
	log.Debug().Stringer("order_id", orderID).Str("state", string(state)).Msg("placer: header persisted")

	if err := p.orders.InsertLines(ctx, orderID, orderLines); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).
			Msg("placer: order header persisted but lines failed, header is orphaned")
		return uuid.Nil, fmt.Errorf("%w: order %s: %v", ErrOrderLinesFailed, orderID, err)
	}
	state = stateLinesPersisted
	log.Debug().Stringer("order_id", orderID).Str("state", string(state)).Msg("placer: lines persisted")

	// The order is placed at this point. A failed cart clear leaves the
	// rows for a later clear and is reported separately, never as a
	// placement failure.
	if err := p.carts.ClearCart(ctx, userID); err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Stringer("user_id", userID).
			Msg("placer: order placed but cart clear failed")
	} else {
		state = stateCartCleared
	}

	log.Info().Stringer("order_id", orderID).Stringer("user_id", userID).
		Str("state", string(state)).Float64("total_amount", o.TotalAmount).
		Msg("placer: order placed")

	return orderID, nil
}
