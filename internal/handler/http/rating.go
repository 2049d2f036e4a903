package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/service"
	"github.com/dougmab/open-vinyl-box-api/pkg/httputil"
	"github.com/dougmab/open-vinyl-box-api/pkg/middleware"
	"github.com/dougmab/open-vinyl-box-api/pkg/pagination"
	"github.com/dougmab/open-vinyl-box-api/pkg/validator"
)

// RatingHandler handles HTTP requests for rating endpoints.
type RatingHandler struct {
	service *service.RatingService
	logger  *slog.Logger
}

// NewRatingHandler creates a new rating HTTP handler.
func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		service: svc,
		logger:  logger,
	}
}

// RateProductRequest is the JSON request body for creating or changing a rating.
type RateProductRequest struct {
	Stars   int    `json:"stars" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// StatisticsResponse is the rating aggregate plus its derived average. The
// average is computed from the stored counters on every read, never stored.
type StatisticsResponse struct {
	domain.RatingStatistics
	Average float64 `json:"average"`
}

func newStatisticsResponse(stats *domain.RatingStatistics) StatisticsResponse {
	return StatisticsResponse{
		RatingStatistics: *stats,
		Average:          stats.Average(),
	}
}

// ratingMutationResponse pairs the rating with the aggregate it produced, so
// clients can refresh their star breakdown without a second request.
type ratingMutationResponse struct {
	Rating     *domain.Rating     `json:"rating"`
	Statistics StatisticsResponse `json:"statistics"`
}

// RateProduct handles POST /api/v1/products/{id}/ratings
func (h *RatingHandler) RateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req RateProductRequest
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

	rating, stats, err := h.service.RateProduct(r.Context(), &service.RateProductInput{
		ProductID: productID,
		UserID:    middleware.UserIDFromContext(r.Context()),
		Stars:     req.Stars,
		Comment:   req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: ratingMutationResponse{
		Rating:     rating,
		Statistics: newStatisticsResponse(stats),
	}})
}

// ChangeRating handles PUT /api/v1/products/{id}/ratings
func (h *RatingHandler) ChangeRating(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req RateProductRequest
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

	rating, stats, err := h.service.ChangeRating(r.Context(), &service.RateProductInput{
		ProductID: productID,
		UserID:    middleware.UserIDFromContext(r.Context()),
		Stars:     req.Stars,
		Comment:   req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ratingMutationResponse{
		Rating:     rating,
		Statistics: newStatisticsResponse(stats),
	}})
}

// RemoveRating handles DELETE /api/v1/products/{id}/ratings
func (h *RatingHandler) RemoveRating(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	stats, err := h.service.RemoveRating(r.Context(), productID, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newStatisticsResponse(stats)})
}

// GetMyRating handles GET /api/v1/products/{id}/ratings/me
func (h *RatingHandler) GetMyRating(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rating, err := h.service.GetUserRating(r.Context(), productID, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rating})
}

// ListRatings handles GET /api/v1/products/{id}/ratings
func (h *RatingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)

	ratings, total, err := h.service.ListRatings(r.Context(), productID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(ratings, total, params.Page, params.PerPage))
}

// GetStatistics handles GET /api/v1/products/{id}/ratings/statistics
func (h *RatingHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	stats, err := h.service.GetStatistics(r.Context(), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newStatisticsResponse(stats)})
}
