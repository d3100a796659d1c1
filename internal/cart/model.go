package cart

import (
	"time"

	"github.com/gofrs/uuid"
)

// Line is one (user, product) row of a cart. Quantity is validated against
// available stock on every write, not just on creation.
type Line struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LineWithProduct is the cart row joined with the product fields the cart
// and checkout screens render. Price here is the live catalog price; it is
// only frozen at order assembly time.
type LineWithProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	Quantity  int       `json:"quantity"`
}
