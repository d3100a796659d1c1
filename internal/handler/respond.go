package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Info().Msgf("Failed to encode response: %v", err)
	}
}

func respondErrorMsg(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondError maps the typed errors of the core onto HTTP statuses. The
// core returns values, never panics, so this switch is the whole boundary.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrNotAuthenticated):
		respondErrorMsg(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, order.ErrNotFound):
		respondErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrInsufficientStock):
		respondErrorMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrEmptyCart):
		respondErrorMsg(w, http.StatusUnprocessableEntity, "cart is empty")
	case errors.Is(err, order.ErrInvalidStatusTransition):
		respondErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrOrderLinesFailed):
		respondErrorMsg(w, http.StatusBadGateway, err.Error())
	default:
		log.Info().Msgf("Request failed: %v", err)
		respondErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}
