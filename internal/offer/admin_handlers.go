package offer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpwell/funnel-pricing/internal/common"
)

// Handler exposes administrative offer management endpoints.
type Handler struct {
	Store *Store
}

// Routes mounts the admin CRUD surface.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Upsert)
	r.Delete("/{id}", h.Delete)
}

// List returns every configured offer.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "offer store not configured", nil)
		return
	}
	offers, err := h.Store.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list offers", nil)
		return
	}
	if offers == nil {
		offers = []Offer{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": offers})
}

// Get returns one offer by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "offer store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "id is required", nil)
		return
	}
	o, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "offer not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load offer", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Upsert creates or replaces the offer at the given id.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "offer store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "id is required", nil)
		return
	}
	var o Offer
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	// The path is authoritative for the id.
	o.ID = id
	if err := o.Validate(); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
		return
	}
	if err := h.Store.Save(r.Context(), &o); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to save offer", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Delete removes the offer at the given id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "offer store not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "id is required", nil)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "offer not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to delete offer", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": id, "status": "deleted"}})
}
