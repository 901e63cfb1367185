package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/infrastructure/persistence/models"
)

// GormPayoutRequestRepository implements payout.PayoutRequestRepository using GORM
type GormPayoutRequestRepository struct {
	db *gorm.DB
}

// NewGormPayoutRequestRepository creates a new GormPayoutRequestRepository
func NewGormPayoutRequestRepository(db *gorm.DB) *GormPayoutRequestRepository {
	return &GormPayoutRequestRepository{db: db}
}

// Create persists a new request
func (r *GormPayoutRequestRepository) Create(ctx context.Context, req *payout.PayoutRequest) error {
	if err := r.db.WithContext(ctx).Create(models.PayoutRequestModelFromDomain(req)).Error; err != nil {
		return fmt.Errorf("create payout request: %w", err)
	}
	return nil
}

// FindByID returns NOT_FOUND if no request has the id
func (r *GormPayoutRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.PayoutRequest, error) {
	var model models.PayoutRequestModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NotFound("Payout request", id)
		}
		return nil, fmt.Errorf("find payout request: %w", err)
	}
	return model.ToDomain(), nil
}

// ListForOwner returns the owner's requests, most recent request date first
func (r *GormPayoutRequestRepository) ListForOwner(ctx context.Context, ownerID uuid.UUID, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutRequestModel{}).Where("owner_id = ?", ownerID)
	return r.list(query, filter)
}

// ListByStatus returns requests across all owners, most recent first
func (r *GormPayoutRequestRepository) ListByStatus(ctx context.Context, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.PayoutRequestModel{}), filter)
}

func (r *GormPayoutRequestRepository) list(query *gorm.DB, filter payout.PayoutRequestFilter) ([]payout.PayoutRequest, int64, error) {
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	// shared by the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count payout requests: %w", err)
	}

	page := filter.Filter.Normalize()
	var rows []models.PayoutRequestModel
	if err := query.
		Order("request_date DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list payout requests: %w", err)
	}

	items := make([]payout.PayoutRequest, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// Update persists a transition with optimistic locking. The domain has already
// incremented Version, so the stored row must still carry Version-1.
func (r *GormPayoutRequestRepository) Update(ctx context.Context, req *payout.PayoutRequest) error {
	expectedVersion := req.GetVersion() - 1
	model := models.PayoutRequestModelFromDomain(req)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(model).
			Where("version = ?", expectedVersion).
			Select("*").
			Updates(model)
		if result.Error != nil {
			return fmt.Errorf("update payout request: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&models.PayoutRequestModel{}).Where("id = ?", req.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("update payout request: %w", err)
		}
		if count == 0 {
			return shared.NotFound("Payout request", req.ID)
		}
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Payout request has been modified by another user")
	})
}

// SumReserved totals RequestedAmount over in-flight requests. Amounts are
// summed in decimal rather than with SQL SUM so sqlite and postgres agree
// exactly.
func (r *GormPayoutRequestRepository) SumReserved(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (decimal.Decimal, error) {
	statuses := make([]string, len(payout.ReservedStatuses))
	for i, s := range payout.ReservedStatuses {
		statuses[i] = s.String()
	}

	query := r.db.WithContext(ctx).Model(&models.PayoutRequestModel{}).
		Where("owner_id = ? AND status IN ?", ownerID, statuses)
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	}

	var amounts []decimal.Decimal
	if err := query.Pluck("requested_amount", &amounts).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum reserved payouts: %w", err)
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

var _ payout.PayoutRequestRepository = (*GormPayoutRequestRepository)(nil)
