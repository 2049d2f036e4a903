package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/service"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

func discountTestRouter(discounts *mockDiscountRepo, products *mockProductRepo) *chi.Mux {
	svc := service.NewDiscountService(discounts, products, nil, testLogger())
	handler := NewDiscountHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/products/{id}/discount", func(r chi.Router) {
		r.Get("/", handler.GetDiscount)
		r.Post("/", handler.CreateDiscount)
		r.Delete("/", handler.DeleteDiscount)
	})
	return r
}

func TestCreateDiscount_Created(t *testing.T) {
	discounts := new(mockDiscountRepo)
	products := new(mockProductRepo)
	router := discountTestRouter(discounts, products)

	products.On("GetByID", mock.Anything, int64(1)).Return(sampleProduct(), nil)
	discounts.On("Replace", mock.Anything, mock.MatchedBy(func(d *domain.Discount) bool {
		return d.ProductID == 1 && d.Percentage == 25 && d.EndsAt.Equal(d.CreatedAt.Add(time.Hour))
	})).Return(nil)

	body, _ := json.Marshal(CreateDiscountRequest{Percentage: 25, DurationMinutes: 60})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/1/discount", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.Discount `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 25, resp.Data.Percentage)
	assert.Equal(t, 60, resp.Data.DurationMinutes)
	discounts.AssertExpectations(t)
}

func TestCreateDiscount_BoundsValidated(t *testing.T) {
	discounts := new(mockDiscountRepo)
	products := new(mockProductRepo)
	router := discountTestRouter(discounts, products)

	cases := []CreateDiscountRequest{
		{Percentage: 0, DurationMinutes: 60},
		{Percentage: 101, DurationMinutes: 60},
		{Percentage: 50, DurationMinutes: 0},
	}
	for _, c := range cases {
		body, _ := json.Marshal(c)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/1/discount", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "pct=%d dur=%d", c.Percentage, c.DurationMinutes)
	}
	discounts.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestCreateDiscount_UnknownProduct(t *testing.T) {
	discounts := new(mockDiscountRepo)
	products := new(mockProductRepo)
	router := discountTestRouter(discounts, products)

	products.On("GetByID", mock.Anything, int64(999)).
		Return(nil, apperrors.NotFound("product", 999))

	body, _ := json.Marshal(CreateDiscountRequest{Percentage: 25, DurationMinutes: 60})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/999/discount", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDiscount_Active(t *testing.T) {
	discounts := new(mockDiscountRepo)
	products := new(mockProductRepo)
	router := discountTestRouter(discounts, products)

	d, err := domain.NewDiscount(1, 30, 120, time.Now().UTC())
	require.NoError(t, err)

	discounts.On("GetActiveByProduct", mock.Anything, int64(1), mock.AnythingOfType("time.Time")).Return(d, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/1/discount", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDiscount_ExpiredLooksMissing(t *testing.T) {
	discounts := new(mockDiscountRepo)
	products := new(mockProductRepo)
	router := discountTestRouter(discounts, products)

	discounts.On("GetActiveByProduct", mock.Anything, int64(1), mock.AnythingOfType("time.Time")).
		Return(nil, apperrors.NotFound("discount", 1))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/1/discount", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDiscount_OK(t *testing.T) {
	discounts := new(mockDiscountRepo)
	products := new(mockProductRepo)
	router := discountTestRouter(discounts, products)

	d, err := domain.NewDiscount(1, 30, 120, time.Now().UTC())
	require.NoError(t, err)

	discounts.On("GetByProduct", mock.Anything, int64(1)).Return(d, nil)
	discounts.On("Delete", mock.Anything, int64(1)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/1/discount", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
