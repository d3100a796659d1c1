package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/handler"
	"github.com/vasiliy-maslov/storefront/internal/identity"
)

type mockCartService struct {
	addFunc     func(ctx context.Context, userID, productID uuid.UUID, delta int) error
	updateFunc  func(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	removeFunc  func(ctx context.Context, userID, productID uuid.UUID) error
	clearFunc   func(ctx context.Context, userID uuid.UUID) error
	listFunc    func(ctx context.Context, userID uuid.UUID) ([]cart.LineWithProduct, error)
	observeFunc func(ctx context.Context, userID uuid.UUID) (<-chan []cart.LineWithProduct, error)
}

func (m *mockCartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, delta int) error {
	return m.addFunc(ctx, userID, productID, delta)
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	return m.updateFunc(ctx, userID, productID, quantity)
}

func (m *mockCartService) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	return m.removeFunc(ctx, userID, productID)
}

func (m *mockCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return m.clearFunc(ctx, userID)
}

func (m *mockCartService) List(ctx context.Context, userID uuid.UUID) ([]cart.LineWithProduct, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockCartService) Observe(ctx context.Context, userID uuid.UUID) (<-chan []cart.LineWithProduct, error) {
	return m.observeFunc(ctx, userID)
}

func newCartRouter(svc cart.Service) *chi.Mux {
	h := handler.NewCartHandler(svc)
	r := chi.NewRouter()
	r.Use(identity.Middleware)
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Get("/stream", h.StreamCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
	return r
}

const testUserID = "123e4567-e89b-12d3-a456-426614174000"

func TestCartHandler_AddItem(t *testing.T) {
	productID := "9f2c7d1e-0b3a-4c5d-8e6f-112233445511"

	tests := []struct {
		name           string
		userHeader     string
		body           string
		addFunc        func(ctx context.Context, userID, productID uuid.UUID, delta int) error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "success_defaults_to_one",
			userHeader: testUserID,
			body:       fmt.Sprintf(`{"product_id": %q}`, productID),
			addFunc: func(ctx context.Context, userID, pid uuid.UUID, delta int) error {
				if delta != 1 {
					return fmt.Errorf("unexpected delta %d", delta)
				}
				return nil
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "missing_identity",
			userHeader:     "",
			body:           fmt.Sprintf(`{"product_id": %q}`, productID),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "insufficient_stock",
			userHeader: testUserID,
			body:       fmt.Sprintf(`{"product_id": %q, "quantity": 3}`, productID),
			addFunc: func(ctx context.Context, userID, pid uuid.UUID, delta int) error {
				return fmt.Errorf("%w: Mug (requested 3, available 1)", cart.ErrInsufficientStock)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   "Mug",
		},
		{
			name:       "unknown_product",
			userHeader: testUserID,
			body:       fmt.Sprintf(`{"product_id": %q, "quantity": 1}`, productID),
			addFunc: func(ctx context.Context, userID, pid uuid.UUID, delta int) error {
				return cart.ErrProductNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_body",
			userHeader:     testUserID,
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_product_id",
			userHeader:     testUserID,
			body:           `{"quantity": 2}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCartRouter(&mockCartService{addFunc: tt.addFunc})

			req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(tt.body))
			if tt.userHeader != "" {
				req.Header.Set(identity.Header, tt.userHeader)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestCartHandler_UpdateItem(t *testing.T) {
	productID := "9f2c7d1e-0b3a-4c5d-8e6f-112233445511"

	var gotQuantity int
	svc := &mockCartService{
		updateFunc: func(ctx context.Context, userID, pid uuid.UUID, quantity int) error {
			gotQuantity = quantity
			return nil
		},
	}
	router := newCartRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/cart/items/"+productID, strings.NewReader(`{"quantity": 0}`))
	req.Header.Set(identity.Header, testUserID)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, gotQuantity)
}

func TestCartHandler_GetCart(t *testing.T) {
	svc := &mockCartService{
		listFunc: func(ctx context.Context, userID uuid.UUID) ([]cart.LineWithProduct, error) {
			pid, _ := uuid.FromString("9f2c7d1e-0b3a-4c5d-8e6f-112233445511")
			return []cart.LineWithProduct{
				{ProductID: pid, Name: "Mug", Price: 10, Stock: 5, Quantity: 2},
			}, nil
		},
	}
	router := newCartRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(identity.Header, testUserID)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Mug"`)
	assert.Contains(t, rec.Body.String(), `"quantity":2`)
}

func TestCartHandler_StreamCart(t *testing.T) {
	pid, _ := uuid.FromString("9f2c7d1e-0b3a-4c5d-8e6f-112233445511")

	svc := &mockCartService{
		observeFunc: func(ctx context.Context, userID uuid.UUID) (<-chan []cart.LineWithProduct, error) {
			ch := make(chan []cart.LineWithProduct, 2)
			ch <- []cart.LineWithProduct{{ProductID: pid, Name: "Mug", Price: 10, Stock: 5, Quantity: 1}}
			ch <- []cart.LineWithProduct{{ProductID: pid, Name: "Mug", Price: 10, Stock: 5, Quantity: 2}}
			close(ch)
			return ch, nil
		},
	}
	router := newCartRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/cart/stream", nil)
	req.Header.Set(identity.Header, testUserID)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.Len(t, events, 2, "each emission is one SSE event with the full snapshot")
	assert.Contains(t, events[0], `"quantity":1`)
	assert.Contains(t, events[1], `"quantity":2`)
}

func TestCartHandler_ClearCart(t *testing.T) {
	cleared := false
	svc := &mockCartService{
		clearFunc: func(ctx context.Context, userID uuid.UUID) error {
			cleared = true
			return nil
		},
	}
	router := newCartRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.Header.Set(identity.Header, testUserID)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, cleared)
}
