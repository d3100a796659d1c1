package order_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}

func TestAssemble_EmptyCart(t *testing.T) {
	userID := mustUUID(t)
	addressID := mustUUID(t)

	o, lines, err := order.Assemble(nil, userID, addressID, "card", order.Fees{Shipping: 10, Tax: 3})

	assert.ErrorIs(t, err, order.ErrEmptyCart)
	assert.Nil(t, o)
	assert.Nil(t, lines)
}

func TestAssemble_TotalAndFrozenPrices(t *testing.T) {
	userID := mustUUID(t)
	addressID := mustUUID(t)
	productA := mustUUID(t)
	productB := mustUUID(t)

	cartLines := []cart.LineWithProduct{
		{ProductID: productA, Name: "Mug", Price: 10, Stock: 7, Quantity: 2},
		{ProductID: productB, Name: "Pin", Price: 5, Stock: 3, Quantity: 1},
	}

	o, lines, err := order.Assemble(cartLines, userID, addressID, "card", order.Fees{Shipping: 10, Tax: 3})
	require.NoError(t, err)

	// 2*10 + 1*5 + shipping 10 + tax 3
	assert.Equal(t, 38.0, o.TotalAmount)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, addressID, o.AddressID)
	assert.Equal(t, "card", o.PaymentMethod)
	assert.Equal(t, uuid.Nil, o.ID, "id is assigned by persistence, not assembly")
	assert.True(t, o.CreatedAt.IsZero())

	require.Len(t, lines, 2)
	assert.Equal(t, productA, lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 10.0, lines[0].PriceAtPurchase)
	assert.Equal(t, uuid.Nil, lines[0].OrderID)

	// A later catalog price change must not leak into the assembled lines.
	cartLines[0].Price = 99
	assert.Equal(t, 10.0, lines[0].PriceAtPurchase)
	assert.Equal(t, 38.0, o.TotalAmount)
}

func TestAssemble_Deterministic(t *testing.T) {
	userID := mustUUID(t)
	addressID := mustUUID(t)
	productID := mustUUID(t)

	cartLines := []cart.LineWithProduct{
		{ProductID: productID, Name: "Mug", Price: 12.5, Stock: 4, Quantity: 3},
	}
	fees := order.Fees{Shipping: 2, Tax: 1}

	o1, lines1, err := order.Assemble(cartLines, userID, addressID, "cod", fees)
	require.NoError(t, err)
	o2, lines2, err := order.Assemble(cartLines, userID, addressID, "cod", fees)
	require.NoError(t, err)

	assert.Equal(t, o1, o2)
	assert.Equal(t, lines1, lines2)
}
