package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// --- Mock Discount Repository ---

type mockDiscountRepository struct {
	mock.Mock
}

func (m *mockDiscountRepository) Replace(ctx context.Context, discount *domain.Discount) error {
	args := m.Called(ctx, discount)
	return args.Error(0)
}

func (m *mockDiscountRepository) GetByProduct(ctx context.Context, productID int64) (*domain.Discount, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func (m *mockDiscountRepository) GetActiveByProduct(ctx context.Context, productID int64, now time.Time) (*domain.Discount, error) {
	args := m.Called(ctx, productID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func (m *mockDiscountRepository) Delete(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// --- Test Helpers ---

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDiscountService(discounts *mockDiscountRepository, products *mockProductRepository, producer *mockPublisher) *DiscountService {
	svc := NewDiscountService(discounts, products, producer, newTestLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// --- Tests ---

func TestCreateDiscount_Success(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	producer := new(mockPublisher)
	svc := newTestDiscountService(discounts, products, producer)
	ctx := context.Background()

	products.On("GetByID", ctx, int64(1)).Return(sampleProduct(), nil)
	discounts.On("Replace", ctx, mock.AnythingOfType("*domain.Discount")).Return(nil)
	producer.On("PublishDiscountCreated", ctx, mock.AnythingOfType("*domain.Discount")).Return(nil)

	discount, err := svc.CreateDiscount(ctx, &CreateDiscountInput{ProductID: 1, Percentage: 25, DurationMinutes: 60})

	require.NoError(t, err)
	assert.Equal(t, 25, discount.Percentage)
	assert.Equal(t, fixedNow, discount.CreatedAt)
	assert.Equal(t, fixedNow.Add(time.Hour), discount.EndsAt)

	discounts.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestCreateDiscount_InvalidPercentage(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	svc := newTestDiscountService(discounts, products, new(mockPublisher))
	ctx := context.Background()

	products.On("GetByID", ctx, int64(1)).Return(sampleProduct(), nil)

	for _, pct := range []int{0, 101} {
		_, err := svc.CreateDiscount(ctx, &CreateDiscountInput{ProductID: 1, Percentage: pct, DurationMinutes: 60})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "percentage %d", pct)
	}
	discounts.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestCreateDiscount_InvalidDuration(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	svc := newTestDiscountService(discounts, products, new(mockPublisher))
	ctx := context.Background()

	products.On("GetByID", ctx, int64(1)).Return(sampleProduct(), nil)

	_, err := svc.CreateDiscount(ctx, &CreateDiscountInput{ProductID: 1, Percentage: 50, DurationMinutes: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateDiscount_MissingProduct(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	svc := newTestDiscountService(discounts, products, new(mockPublisher))
	ctx := context.Background()

	products.On("GetByID", ctx, int64(999)).Return(nil, apperrors.NotFound("product", 999))

	_, err := svc.CreateDiscount(ctx, &CreateDiscountInput{ProductID: 999, Percentage: 25, DurationMinutes: 60})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateDiscount_ReplacesExistingDiscount(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	producer := new(mockPublisher)
	svc := newTestDiscountService(discounts, products, producer)
	ctx := context.Background()

	products.On("GetByID", ctx, int64(1)).Return(sampleProduct(), nil)
	// The repository upsert replaces the old row; there is no distinct
	// "update" path at the service level.
	discounts.On("Replace", ctx, mock.AnythingOfType("*domain.Discount")).Return(nil)
	producer.On("PublishDiscountCreated", ctx, mock.AnythingOfType("*domain.Discount")).Return(nil)

	first, err := svc.CreateDiscount(ctx, &CreateDiscountInput{ProductID: 1, Percentage: 10, DurationMinutes: 30})
	require.NoError(t, err)

	second, err := svc.CreateDiscount(ctx, &CreateDiscountInput{ProductID: 1, Percentage: 50, DurationMinutes: 120})
	require.NoError(t, err)

	assert.Equal(t, 10, first.Percentage)
	assert.Equal(t, 50, second.Percentage)
	discounts.AssertNumberOfCalls(t, "Replace", 2)
}

func TestGetDiscount_DelegatesActiveLookup(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	svc := newTestDiscountService(discounts, products, new(mockPublisher))
	ctx := context.Background()

	d, err := domain.NewDiscount(1, 25, 60, fixedNow)
	require.NoError(t, err)

	discounts.On("GetActiveByProduct", ctx, int64(1), fixedNow).Return(d, nil)

	got, err := svc.GetDiscount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Percentage)
}

func TestGetDiscount_ExpiredIsNotFound(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	svc := newTestDiscountService(discounts, products, new(mockPublisher))
	ctx := context.Background()

	discounts.On("GetActiveByProduct", ctx, int64(1), fixedNow).
		Return(nil, apperrors.NotFound("discount", 1))

	_, err := svc.GetDiscount(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteDiscount_Success(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	producer := new(mockPublisher)
	svc := newTestDiscountService(discounts, products, producer)
	ctx := context.Background()

	d, err := domain.NewDiscount(1, 25, 60, fixedNow)
	require.NoError(t, err)

	discounts.On("GetByProduct", ctx, int64(1)).Return(d, nil)
	discounts.On("Delete", ctx, int64(1)).Return(nil)
	producer.On("PublishDiscountDeleted", ctx, int64(1)).Return(nil)

	assert.NoError(t, svc.DeleteDiscount(ctx, 1))
	producer.AssertExpectations(t)
}

func TestDeleteDiscount_ExpiredRowStillDeletable(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	producer := new(mockPublisher)
	svc := newTestDiscountService(discounts, products, producer)
	ctx := context.Background()

	// The row expired an hour ago. Reads no longer see it, but the delete
	// path looks the row up regardless of expiry so it can still be cleared.
	d, err := domain.NewDiscount(1, 25, 60, fixedNow.Add(-2*time.Hour))
	require.NoError(t, err)
	require.False(t, d.IsActive(fixedNow))

	discounts.On("GetByProduct", ctx, int64(1)).Return(d, nil)
	discounts.On("Delete", ctx, int64(1)).Return(nil)
	producer.On("PublishDiscountDeleted", ctx, int64(1)).Return(nil)

	assert.NoError(t, svc.DeleteDiscount(ctx, 1))
	discounts.AssertExpectations(t)
}

func TestDeleteDiscount_AbsentIsNotFound(t *testing.T) {
	discounts := new(mockDiscountRepository)
	products := new(mockProductRepository)
	svc := newTestDiscountService(discounts, products, new(mockPublisher))
	ctx := context.Background()

	discounts.On("GetByProduct", ctx, int64(1)).
		Return(nil, apperrors.NotFound("discount", 1))

	err := svc.DeleteDiscount(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	discounts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
