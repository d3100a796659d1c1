package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

// Line references a product but carries its own frozen copy of the price.
// Historical orders must not re-price when the catalog changes later.
type Line struct {
	ID              uuid.UUID `json:"id" db:"id"`
	OrderID         uuid.UUID `json:"order_id" db:"order_id"`
	ProductID       uuid.UUID `json:"product_id" db:"product_id"`
	Quantity        int       `json:"quantity" db:"quantity"`
	PriceAtPurchase float64   `json:"price_at_purchase" db:"price_at_purchase"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type Order struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AddressID     uuid.UUID `json:"address_id" db:"address_id"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	Status        Status    `json:"status" db:"status"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
	Lines         []Line    `json:"lines" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Fees are the fixed shipping and tax amounts added to every order total,
// sourced from store configuration.
type Fees struct {
	Shipping float64
	Tax      float64
}
