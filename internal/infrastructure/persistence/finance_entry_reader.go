package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propertyhub/backend/internal/domain/finance"
	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/infrastructure/persistence/models"
)

// GormFinanceEntryReader reads the finance_entries table
type GormFinanceEntryReader struct {
	db *gorm.DB
}

// NewGormFinanceEntryReader creates a new GormFinanceEntryReader
func NewGormFinanceEntryReader(db *gorm.DB) *GormFinanceEntryReader {
	return &GormFinanceEntryReader{db: db}
}

// ListEntries fetches every entry matching the query in one round trip
func (r *GormFinanceEntryReader) ListEntries(ctx context.Context, q finance.EntryQuery) ([]finance.FinanceEntry, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", q.OwnerID)
	if q.PropertyID != nil {
		query = query.Where("property_id = ?", *q.PropertyID)
	}
	if q.From != nil {
		query = query.Where("occurred_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("occurred_at <= ?", *q.To)
	}

	var rows []models.FinanceEntryModel
	if err := query.Order("occurred_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list finance entries: %w", err)
	}

	entries := make([]finance.FinanceEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// GormOwnerDirectory checks owners against the owners table
type GormOwnerDirectory struct {
	db *gorm.DB
}

// NewGormOwnerDirectory creates a new GormOwnerDirectory
func NewGormOwnerDirectory(db *gorm.DB) *GormOwnerDirectory {
	return &GormOwnerDirectory{db: db}
}

// OwnerExists reports whether ownerID is a known owner
func (d *GormOwnerDirectory) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.OwnerModel{}).Where("id = ?", ownerID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("look up owner: %w", err)
	}
	return count > 0, nil
}

var (
	_ finance.FinanceEntryReader = (*GormFinanceEntryReader)(nil)
	_ identity.OwnerDirectory    = (*GormOwnerDirectory)(nil)
)
