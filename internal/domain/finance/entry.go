package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

// EntryType classifies a finance entry into one of the three balance streams
type EntryType string

const (
	EntryTypeIncome     EntryType = "income"     // Booking revenue and other income owed to the owner
	EntryTypeExpense    EntryType = "expense"    // Costs charged against the owner
	EntryTypeCommission EntryType = "commission" // Fee retained by the management company
)

// IsValid checks if the type is a valid EntryType
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeIncome, EntryTypeExpense, EntryTypeCommission:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// FinanceEntry is a single income, expense or commission record kept by the
// finance entry store. It is immutable once recorded and read-only here.
type FinanceEntry struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	PropertyID *uuid.UUID
	Type       EntryType
	Amount     decimal.Decimal
	Currency   valueobject.Currency
	OccurredAt time.Time
}

// NewFinanceEntry validates and builds an entry. Amounts are magnitudes; the
// entry type decides which stream they count towards.
func NewFinanceEntry(ownerID uuid.UUID, propertyID *uuid.UUID, entryType EntryType, amount decimal.Decimal, currency valueobject.Currency, occurredAt time.Time) (*FinanceEntry, error) {
	if ownerID == uuid.Nil {
		return nil, shared.ValidationError("Owner ID is required")
	}
	if !entryType.IsValid() {
		return nil, shared.ValidationError("Entry type must be one of: income, expense, commission")
	}
	if amount.IsNegative() {
		return nil, shared.InvalidAmount("Entry amount cannot be negative")
	}
	if currency == "" {
		return nil, shared.ValidationError("Currency is required")
	}
	return &FinanceEntry{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		PropertyID: propertyID,
		Type:       entryType,
		Amount:     amount,
		Currency:   currency,
		OccurredAt: occurredAt,
	}, nil
}

// Money returns the entry amount with its currency
func (e FinanceEntry) Money() valueobject.Money {
	m, _ := valueobject.NewMoney(e.Amount, e.Currency)
	return m
}
