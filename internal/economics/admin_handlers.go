package economics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hpwell/funnel-pricing/internal/common"
)

// Handler exposes the guideline configuration surface for operators.
type Handler struct {
	Store *Store
}

// Routes mounts the admin guideline endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Put)
}

// Get returns the active guideline configuration.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.Store.Guidelines(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load guidelines", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": g})
}

// Put replaces the guideline configuration. Invalid documents are rejected
// before anything is written.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var g Guidelines
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if err := g.Validate(); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeConfigurationGap, err.Error(), nil)
		return
	}
	if err := h.Store.Save(r.Context(), g); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to save guidelines", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": g})
}
