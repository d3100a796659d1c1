package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
)

type CatalogHandler struct {
	repo catalog.Repository
}

func NewCatalogHandler(repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}
