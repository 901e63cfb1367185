package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

// OwnerModel maps the owner directory. Owners are managed by the surrounding
// platform; this service only checks existence.
type OwnerModel struct {
	BaseModel
	DisplayName string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (OwnerModel) TableName() string {
	return "owners"
}

// FinanceEntryModel maps the finance entry store
type FinanceEntryModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key"`
	OwnerID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_finance_owner_occurred,priority:1"`
	PropertyID *uuid.UUID        `gorm:"type:uuid;index"`
	Type       finance.EntryType `gorm:"column:entry_type;type:varchar(20);not null"`
	Amount     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Currency   string            `gorm:"type:varchar(3);not null"`
	OccurredAt time.Time         `gorm:"not null;index:idx_finance_owner_occurred,priority:2"`
	CreatedAt  time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FinanceEntryModel) TableName() string {
	return "finance_entries"
}

// ToDomain converts the persistence model to a domain FinanceEntry
func (m *FinanceEntryModel) ToDomain() finance.FinanceEntry {
	return finance.FinanceEntry{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		PropertyID: m.PropertyID,
		Type:       m.Type,
		Amount:     m.Amount,
		Currency:   valueobject.Currency(m.Currency),
		OccurredAt: m.OccurredAt,
	}
}

// FinanceEntryModelFromDomain creates a persistence model from a domain entry
func FinanceEntryModelFromDomain(e *finance.FinanceEntry) *FinanceEntryModel {
	return &FinanceEntryModel{
		ID:         e.ID,
		OwnerID:    e.OwnerID,
		PropertyID: e.PropertyID,
		Type:       e.Type,
		Amount:     e.Amount,
		Currency:   string(e.Currency),
		OccurredAt: e.OccurredAt,
	}
}
