package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dougmab/open-vinyl-box-api/internal/service"
	"github.com/dougmab/open-vinyl-box-api/pkg/httputil"
	"github.com/dougmab/open-vinyl-box-api/pkg/validator"
)

// DiscountHandler handles HTTP requests for discount endpoints.
type DiscountHandler struct {
	service *service.DiscountService
	logger  *slog.Logger
}

// NewDiscountHandler creates a new discount HTTP handler.
func NewDiscountHandler(svc *service.DiscountService, logger *slog.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateDiscountRequest is the JSON request body for putting a discount on a
// product. Creating a discount for a product that already has one replaces it.
type CreateDiscountRequest struct {
	Percentage      int `json:"percentage" validate:"required,gte=1,lte=100"`
	DurationMinutes int `json:"duration_in_minutes" validate:"required,gte=1"`
}

// CreateDiscount handles POST /api/v1/products/{id}/discount
func (h *DiscountHandler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	discount, err := h.service.CreateDiscount(r.Context(), &service.CreateDiscountInput{
		ProductID:       productID,
		Percentage:      req.Percentage,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: discount})
}

// GetDiscount handles GET /api/v1/products/{id}/discount
func (h *DiscountHandler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	discount, err := h.service.GetDiscount(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: discount})
}

// DeleteDiscount handles DELETE /api/v1/products/{id}/discount
func (h *DiscountHandler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteDiscount(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"product_id": productID, "status": "deleted"}})
}
