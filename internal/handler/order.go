package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

type OrderHandler struct {
	placer order.Placer
	svc    order.Service
}

func NewOrderHandler(placer order.Placer, svc order.Service) *OrderHandler {
	return &OrderHandler{placer: placer, svc: svc}
}

type placeOrderRequest struct {
	AddressID     uuid.UUID `json:"address_id"`
	PaymentMethod string    `json:"payment_method"`
}

type placeOrderResponse struct {
	OrderID uuid.UUID `json:"order_id"`
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AddressID == uuid.Nil {
		respondErrorMsg(w, http.StatusBadRequest, "address_id is required")
		return
	}
	if req.PaymentMethod == "" {
		respondErrorMsg(w, http.StatusBadRequest, "payment_method is required")
		return
	}

	orderID, err := h.placer.PlaceOrder(r.Context(), userID, req.AddressID, req.PaymentMethod)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, placeOrderResponse{OrderID: orderID})
}

func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	orders, err := h.svc.GetOrdersByUserID(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.svc.GetOrderByID(r.Context(), userID, orderID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// UpdateStatus serves the admin console, which drives status transitions.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		respondErrorMsg(w, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
