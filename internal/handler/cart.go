package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/identity"
)

// CartHandler exposes the cart store over HTTP.
type CartHandler struct {
	svc cart.Service
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	lines, err := h.svc.List(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lines)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == uuid.Nil {
		respondErrorMsg(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		respondErrorMsg(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	if err := h.svc.AddToCart(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.UpdateQuantity(r.Context(), userID, productID, req.Quantity); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.svc.RemoveFromCart(r.Context(), userID, productID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.svc.ClearCart(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StreamCart pushes cart snapshots over SSE. Every event carries the full
// current list, so a client that reconnects just starts over with a
// complete snapshot instead of stitching diffs.
func (h *CartHandler) StreamCart(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondErrorMsg(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	snapshots, err := h.svc.Observe(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for snapshot := range snapshots {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			log.Info().Msgf("Failed to encode cart snapshot: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
