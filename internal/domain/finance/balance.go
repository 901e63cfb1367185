package finance

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

// Balance is a derived snapshot of what an owner is owed. It is recomputed on
// every query and never persisted.
type Balance struct {
	OwnerID              uuid.UUID
	PropertyID           *uuid.UUID // nil means all properties
	Currency             valueobject.Currency
	TotalIncome          decimal.Decimal
	TotalExpenses        decimal.Decimal
	CommissionDeductions decimal.Decimal
	NetBalance           decimal.Decimal
	PendingPayouts       decimal.Decimal
	AvailableBalance     decimal.Decimal
	EntryCount           int
	From                 *time.Time // statement period of the entries; nil when open
	To                   *time.Time
	ComputedAt           time.Time
}

// IsOwnerLevel reports whether the balance spans every property of the owner
func (b *Balance) IsOwnerLevel() bool {
	return b.PropertyID == nil
}

// CanCover reports whether amount fits inside the available balance
func (b *Balance) CanCover(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(b.AvailableBalance)
}

// BalanceCalculator folds finance entries and reserved payouts into a Balance.
// It has no dependencies and no side effects.
type BalanceCalculator struct{}

// Calculate sums income, expenses and commission as three separate running
// totals. A negative net balance is kept as is.
func (BalanceCalculator) Calculate(ownerID uuid.UUID, propertyID *uuid.UUID, currency valueobject.Currency, entries []FinanceEntry, reserved decimal.Decimal, at time.Time) (*Balance, error) {
	income := valueobject.Zero(currency)
	expenses := valueobject.Zero(currency)
	commission := valueobject.Zero(currency)

	for _, entry := range entries {
		var err error
		switch entry.Type {
		case EntryTypeIncome:
			income, err = income.Add(entry.Money())
		case EntryTypeExpense:
			expenses, err = expenses.Add(entry.Money())
		case EntryTypeCommission:
			commission, err = commission.Add(entry.Money())
		default:
			return nil, shared.ValidationError("Unknown finance entry type: " + entry.Type.String())
		}
		if errors.Is(err, valueobject.ErrCurrencyMismatch) {
			return nil, shared.CurrencyMismatch(string(currency), string(entry.Currency))
		}
		if err != nil {
			return nil, err
		}
	}

	net := income.Amount().Sub(expenses.Amount()).Sub(commission.Amount())
	return &Balance{
		OwnerID:              ownerID,
		PropertyID:           propertyID,
		Currency:             currency,
		TotalIncome:          income.Amount(),
		TotalExpenses:        expenses.Amount(),
		CommissionDeductions: commission.Amount(),
		NetBalance:           net,
		PendingPayouts:       reserved,
		AvailableBalance:     net.Sub(reserved),
		EntryCount:           len(entries),
		ComputedAt:           at,
	}, nil
}
