package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hpwell/funnel-pricing/internal/common"
	"github.com/hpwell/funnel-pricing/internal/offer"
	"github.com/hpwell/funnel-pricing/internal/totals"
)

// Handler exposes the computation endpoints.
type Handler struct {
	Service *Service
}

// Routes mounts the pricing surface.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/totals", h.Totals)
	r.Post("/validate-offer", h.ValidateOffer)
	r.Post("/kit-options", h.KitOptions)
}

// Totals computes the full order economics for an item list or stored offer.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	var req TotalsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := h.Service.ComputeTotals(r.Context(), req)
	if err != nil {
		writeComputeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

// ValidateOffer checks an offer's economics against the active guidelines.
func (h *Handler) ValidateOffer(w http.ResponseWriter, r *http.Request) {
	var req ValidateOfferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Offer != nil {
		if err := req.Offer.Validate(); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
			return
		}
	}
	result, err := h.Service.ValidateOffer(r.Context(), req)
	if err != nil {
		writeComputeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// KitOptions generates the discount sweep and decision point for a kit.
func (h *Handler) KitOptions(w http.ResponseWriter, r *http.Request) {
	var req KitOptionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	resp, err := h.Service.KitOptions(r.Context(), req)
	if err != nil {
		writeComputeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return false
	}
	if err := common.Validate().Struct(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidationFailed, "request validation failed", common.ValidationDetails(err))
		return false
	}
	return true
}

// writeComputeError maps domain errors onto the error envelope. Resolution
// problems are the caller's to fix; order-engine failures are upstream faults.
func writeComputeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		gap     *offer.ResolutionGap
		compErr *totals.ComputationError
		appErr  *common.AppError
	)
	switch {
	case errors.As(err, &appErr):
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
	case errors.Is(err, offer.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "offer not found", nil)
	case errors.As(err, &gap):
		common.JSONError(w, http.StatusBadRequest, common.CodeResolutionGap, gap.Error(),
			map[string]string{"sku": gap.SKU, "reason": gap.Reason})
	case errors.Is(err, offer.ErrOfferUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeOfferUnavailable, "no offer items are currently available", nil)
	case errors.As(err, &compErr):
		zerolog.Ctx(r.Context()).Error().Err(compErr.Err).
			Str("step", compErr.Step).
			Msg("order engine computation failed")
		common.JSONError(w, http.StatusBadGateway, common.CodeComputationError, "order engine computation failed",
			map[string]string{"step": compErr.Step})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("pricing computation failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "pricing computation failed", nil)
	}
}
