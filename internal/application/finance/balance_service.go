package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

// BalanceService computes owner balances from finance entries and the payout ledger
type BalanceService struct {
	owners     identity.OwnerDirectory
	entries    finance.FinanceEntryReader
	payouts    payout.PayoutRequestRepository
	currency   valueobject.Currency
	calculator finance.BalanceCalculator
	clock      shared.Clock
	logger     *zap.Logger
}

// BalanceServiceConfig holds the collaborators of BalanceService
type BalanceServiceConfig struct {
	Owners   identity.OwnerDirectory
	Entries  finance.FinanceEntryReader
	Payouts  payout.PayoutRequestRepository
	Currency valueobject.Currency // settlement currency; defaults to USD
	Clock    shared.Clock
	Logger   *zap.Logger
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(cfg BalanceServiceConfig) *BalanceService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	currency := cfg.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &BalanceService{
		owners:   cfg.Owners,
		entries:  cfg.Entries,
		payouts:  cfg.Payouts,
		currency: currency,
		clock:    clock,
		logger:   logger,
	}
}

// Currency returns the settlement currency balances are computed in
func (s *BalanceService) Currency() valueobject.Currency {
	return s.currency
}

// ComputeBalance returns the owner's balance. A non-nil propertyID limits both
// finance entries and reserved payouts to that property.
func (s *BalanceService) ComputeBalance(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (*finance.Balance, error) {
	return s.compute(ctx, finance.EntryQuery{OwnerID: ownerID, PropertyID: propertyID})
}

// ComputeBalanceForPeriod limits finance entries to [from, to] for statement
// display. Reservations are never period-limited.
func (s *BalanceService) ComputeBalanceForPeriod(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID, from, to *time.Time) (*finance.Balance, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, shared.ValidationError("Period end cannot be before period start")
	}
	return s.compute(ctx, finance.EntryQuery{OwnerID: ownerID, PropertyID: propertyID, From: from, To: to})
}

func (s *BalanceService) compute(ctx context.Context, query finance.EntryQuery) (*finance.Balance, error) {
	exists, err := s.owners.OwnerExists(ctx, query.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	if !exists {
		return nil, shared.NotFound("Owner", query.OwnerID)
	}

	entries, err := s.entries.ListEntries(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list finance entries: %w", err)
	}

	reserved, err := s.payouts.SumReserved(ctx, query.OwnerID, query.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("sum reserved payouts: %w", err)
	}

	balance, err := s.calculator.Calculate(query.OwnerID, query.PropertyID, s.currency, entries, reserved, s.clock.Now())
	if err != nil {
		s.logger.Warn("Balance computation failed",
			zap.String("owner_id", query.OwnerID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	balance.From, balance.To = query.From, query.To
	return balance, nil
}

// BalanceResponse represents a balance in API responses
type BalanceResponse struct {
	OwnerID              uuid.UUID       `json:"owner_id"`
	PropertyID           *uuid.UUID      `json:"property_id,omitempty"`
	PropertyScope        string          `json:"property_scope"`
	Currency             string          `json:"currency"`
	TotalIncome          decimal.Decimal `json:"total_income"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
	CommissionDeductions decimal.Decimal `json:"commission_deductions"`
	NetBalance           decimal.Decimal `json:"net_balance"`
	PendingPayouts       decimal.Decimal `json:"pending_payouts"`
	AvailableBalance     decimal.Decimal `json:"available_balance"`
	EntryCount           int             `json:"entry_count"`
	From                 *time.Time      `json:"from,omitempty"`
	To                   *time.Time      `json:"to,omitempty"`
	ComputedAt           time.Time       `json:"computed_at"`
}

// ToBalanceResponse converts a domain balance to its API shape
func ToBalanceResponse(b *finance.Balance) BalanceResponse {
	scope := "all"
	if b.PropertyID != nil {
		scope = b.PropertyID.String()
	}
	return BalanceResponse{
		OwnerID:              b.OwnerID,
		PropertyID:           b.PropertyID,
		PropertyScope:        scope,
		Currency:             string(b.Currency),
		TotalIncome:          b.TotalIncome,
		TotalExpenses:        b.TotalExpenses,
		CommissionDeductions: b.CommissionDeductions,
		NetBalance:           b.NetBalance,
		PendingPayouts:       b.PendingPayouts,
		AvailableBalance:     b.AvailableBalance,
		EntryCount:           b.EntryCount,
		From:                 b.From,
		To:                   b.To,
		ComputedAt:           b.ComputedAt,
	}
}
