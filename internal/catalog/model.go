package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

type ProductStatus string

const (
	StatusPending  ProductStatus = "PENDING"
	StatusApproved ProductStatus = "APPROVED"
	StatusRejected ProductStatus = "REJECTED"
)

func (ps ProductStatus) String() string {
	return string(ps)
}

// Product is owned by the catalog service; this core only reads it.
type Product struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	Name       string        `json:"name" db:"name"`
	Price      float64       `json:"price" db:"price"`
	Stock      int           `json:"stock" db:"stock"`
	CategoryID uuid.UUID     `json:"category_id" db:"category_id"`
	Status     ProductStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// ProductStock is the slice of a product the cart and checkout paths care
// about: what it costs and how many units are sellable right now.
type ProductStock struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}
