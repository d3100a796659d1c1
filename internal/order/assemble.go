package order

import (
	"errors"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/storefront/internal/cart"
)

var ErrEmptyCart = errors.New("cart is empty")

// Assemble turns a cart snapshot into an unpersisted order header plus its
// lines. It is pure: no I/O, deterministic for the same inputs, and every
// id and timestamp stays unset until persistence. PriceAtPurchase is copied
// from the snapshot here and never read from the catalog again.
func Assemble(lines []cart.LineWithProduct, userID, addressID uuid.UUID, paymentMethod string, fees Fees) (*Order, []Line, error) {
	if len(lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	orderLines := make([]Line, 0, len(lines))
	var subtotal float64
	for _, l := range lines {
		orderLines = append(orderLines, Line{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			PriceAtPurchase: l.Price,
		})
		subtotal += float64(l.Quantity) * l.Price
	}

	o := &Order{
		UserID:        userID,
		AddressID:     addressID,
		TotalAmount:   subtotal + fees.Shipping + fees.Tax,
		Status:        StatusPending,
		PaymentMethod: paymentMethod,
	}

	return o, orderLines, nil
}
