package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Mocks
// =============================================================================

type MockOwnerDirectory struct {
	mock.Mock
}

func (m *MockOwnerDirectory) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Bool(0), args.Error(1)
}

type MockFinanceEntryReader struct {
	mock.Mock
}

func (m *MockFinanceEntryReader) ListEntries(ctx context.Context, query finance.EntryQuery) ([]finance.FinanceEntry, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.FinanceEntry), args.Error(1)
}

type MockPayoutRequestRepository struct {
	mock.Mock
}

func (m *MockPayoutRequestRepository) Create(ctx context.Context, req *payout.PayoutRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockPayoutRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.PayoutRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.PayoutRequest), args.Error(1)
}

func (m *MockPayoutRequestRepository) ListForOwner(ctx context.Context, ownerID uuid.UUID, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]payout.PayoutRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockPayoutRequestRepository) ListByStatus(ctx context.Context, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payout.PayoutRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockPayoutRequestRepository) Update(ctx context.Context, req *payout.PayoutRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockPayoutRequestRepository) SumReserved(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, ownerID, propertyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// =============================================================================
// Tests
// =============================================================================

func newTestBalanceService() (*BalanceService, *MockOwnerDirectory, *MockFinanceEntryReader, *MockPayoutRequestRepository, time.Time) {
	owners := new(MockOwnerDirectory)
	entries := new(MockFinanceEntryReader)
	payouts := new(MockPayoutRequestRepository)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := NewBalanceService(BalanceServiceConfig{
		Owners:  owners,
		Entries: entries,
		Payouts: payouts,
		Clock:   fixedClock{now: now},
	})
	return svc, owners, entries, payouts, now
}

func makeEntry(ownerID uuid.UUID, propertyID *uuid.UUID, entryType finance.EntryType, amount int64) finance.FinanceEntry {
	return finance.FinanceEntry{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		PropertyID: propertyID,
		Type:       entryType,
		Amount:     decimal.NewFromInt(amount),
		Currency:   valueobject.USD,
		OccurredAt: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestBalanceService_ComputeBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("owner-level balance", func(t *testing.T) {
		svc, owners, entries, payouts, now := newTestBalanceService()
		ownerID := uuid.New()

		owners.On("OwnerExists", ctx, ownerID).Return(true, nil)
		entries.On("ListEntries", ctx, finance.EntryQuery{OwnerID: ownerID}).Return([]finance.FinanceEntry{
			makeEntry(ownerID, nil, finance.EntryTypeIncome, 5000),
			makeEntry(ownerID, nil, finance.EntryTypeExpense, 1200),
			makeEntry(ownerID, nil, finance.EntryTypeCommission, 300),
		}, nil)
		payouts.On("SumReserved", ctx, ownerID, (*uuid.UUID)(nil)).Return(decimal.NewFromInt(1000), nil)

		b, err := svc.ComputeBalance(ctx, ownerID, nil)
		require.NoError(t, err)

		assert.True(t, b.NetBalance.Equal(decimal.NewFromInt(3500)))
		assert.True(t, b.PendingPayouts.Equal(decimal.NewFromInt(1000)))
		assert.True(t, b.AvailableBalance.Equal(decimal.NewFromInt(2500)))
		assert.Equal(t, valueobject.USD, b.Currency)
		assert.Equal(t, now, b.ComputedAt)
		owners.AssertExpectations(t)
		entries.AssertExpectations(t)
		payouts.AssertExpectations(t)
	})

	t.Run("property scope is passed to both sources", func(t *testing.T) {
		svc, owners, entries, payouts, _ := newTestBalanceService()
		ownerID := uuid.New()
		propertyID := uuid.New()

		owners.On("OwnerExists", ctx, ownerID).Return(true, nil)
		entries.On("ListEntries", ctx, finance.EntryQuery{OwnerID: ownerID, PropertyID: &propertyID}).
			Return([]finance.FinanceEntry{makeEntry(ownerID, &propertyID, finance.EntryTypeIncome, 800)}, nil)
		payouts.On("SumReserved", ctx, ownerID, &propertyID).Return(decimal.NewFromInt(100), nil)

		b, err := svc.ComputeBalance(ctx, ownerID, &propertyID)
		require.NoError(t, err)
		assert.Equal(t, &propertyID, b.PropertyID)
		assert.True(t, b.AvailableBalance.Equal(decimal.NewFromInt(700)))

		resp := ToBalanceResponse(b)
		assert.Equal(t, propertyID.String(), resp.PropertyScope)
		assert.Nil(t, resp.From)
		assert.Nil(t, resp.To)
	})

	t.Run("unknown owner", func(t *testing.T) {
		svc, owners, entries, _, _ := newTestBalanceService()
		ownerID := uuid.New()
		owners.On("OwnerExists", ctx, ownerID).Return(false, nil)

		_, err := svc.ComputeBalance(ctx, ownerID, nil)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
		entries.AssertNotCalled(t, "ListEntries", mock.Anything, mock.Anything)
	})

	t.Run("directory failure is wrapped", func(t *testing.T) {
		svc, owners, _, _, _ := newTestBalanceService()
		ownerID := uuid.New()
		boom := errors.New("connection refused")
		owners.On("OwnerExists", ctx, ownerID).Return(false, boom)

		_, err := svc.ComputeBalance(ctx, ownerID, nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "", shared.ErrorCode(err))
	})

	t.Run("foreign currency entry", func(t *testing.T) {
		svc, owners, entries, payouts, _ := newTestBalanceService()
		ownerID := uuid.New()
		eur := makeEntry(ownerID, nil, finance.EntryTypeIncome, 10)
		eur.Currency = valueobject.EUR

		owners.On("OwnerExists", ctx, ownerID).Return(true, nil)
		entries.On("ListEntries", ctx, mock.Anything).Return([]finance.FinanceEntry{eur}, nil)
		payouts.On("SumReserved", ctx, ownerID, (*uuid.UUID)(nil)).Return(decimal.Zero, nil)

		_, err := svc.ComputeBalance(ctx, ownerID, nil)
		assert.True(t, shared.IsCode(err, shared.CodeCurrencyMismatch))
	})
}

func TestBalanceService_ComputeBalanceForPeriod(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC)

	t.Run("passes period to entry reader", func(t *testing.T) {
		svc, owners, entries, payouts, _ := newTestBalanceService()
		ownerID := uuid.New()

		owners.On("OwnerExists", ctx, ownerID).Return(true, nil)
		entries.On("ListEntries", ctx, finance.EntryQuery{OwnerID: ownerID, From: &from, To: &to}).
			Return([]finance.FinanceEntry{makeEntry(ownerID, nil, finance.EntryTypeIncome, 400)}, nil)
		payouts.On("SumReserved", ctx, ownerID, (*uuid.UUID)(nil)).Return(decimal.Zero, nil)

		b, err := svc.ComputeBalanceForPeriod(ctx, ownerID, nil, &from, &to)
		require.NoError(t, err)
		assert.True(t, b.NetBalance.Equal(decimal.NewFromInt(400)))

		resp := ToBalanceResponse(b)
		require.NotNil(t, resp.From)
		require.NotNil(t, resp.To)
		assert.True(t, from.Equal(*resp.From))
		assert.True(t, to.Equal(*resp.To))
	})

	t.Run("inverted period", func(t *testing.T) {
		svc, _, _, _, _ := newTestBalanceService()
		_, err := svc.ComputeBalanceForPeriod(ctx, uuid.New(), nil, &to, &from)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}
