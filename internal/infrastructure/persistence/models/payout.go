package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propertyhub/backend/internal/domain/payout"
	"github.com/propertyhub/backend/internal/domain/shared/valueobject"
)

// PayoutRequestModel is the persistence model for the PayoutRequest aggregate root
type PayoutRequestModel struct {
	AggregateModel
	OwnerID          uuid.UUID           `gorm:"type:uuid;not null;index:idx_payout_owner_status,priority:1"`
	PropertyID       *uuid.UUID          `gorm:"type:uuid;index"`
	RequestedAmount  decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency         string              `gorm:"type:varchar(3);not null"`
	PeriodStart      time.Time           `gorm:"not null"`
	PeriodEnd        time.Time           `gorm:"not null"`
	Notes            string              `gorm:"type:text"`
	Status           payout.PayoutStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_payout_owner_status,priority:2"`
	RequestDate      time.Time           `gorm:"not null;index"`
	ApprovalNotes    string              `gorm:"type:text"`
	ApprovedBy       *uuid.UUID          `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	RejectedBy       *uuid.UUID `gorm:"type:uuid"`
	RejectedAt       *time.Time
	RejectionReason  string  `gorm:"type:text"`
	PaymentMethod    *string `gorm:"type:varchar(30)"`
	PaymentReference string  `gorm:"type:varchar(100)"`
	PaymentDate      *time.Time
	PaidBy           *uuid.UUID `gorm:"type:uuid"`
	ConfirmedAt      *time.Time
}

// TableName returns the table name for GORM
func (PayoutRequestModel) TableName() string {
	return "payout_requests"
}

// ToDomain converts the persistence model to a domain PayoutRequest
func (m *PayoutRequestModel) ToDomain() *payout.PayoutRequest {
	p := &payout.PayoutRequest{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OwnerID:           m.OwnerID,
		PropertyID:        m.PropertyID,
		RequestedAmount:   m.RequestedAmount,
		Currency:          valueobject.Currency(m.Currency),
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		Notes:             m.Notes,
		Status:            m.Status,
		RequestDate:       m.RequestDate,
		ApprovalNotes:     m.ApprovalNotes,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		RejectionReason:   m.RejectionReason,
		PaymentReference:  m.PaymentReference,
		PaymentDate:       m.PaymentDate,
		PaidBy:            m.PaidBy,
		ConfirmedAt:       m.ConfirmedAt,
	}
	if m.PaymentMethod != nil {
		method := payout.PaymentMethod(*m.PaymentMethod)
		p.PaymentMethod = &method
	}
	return p
}

// PayoutRequestModelFromDomain creates a persistence model from the domain aggregate
func PayoutRequestModelFromDomain(p *payout.PayoutRequest) *PayoutRequestModel {
	m := &PayoutRequestModel{
		OwnerID:          p.OwnerID,
		PropertyID:       p.PropertyID,
		RequestedAmount:  p.RequestedAmount,
		Currency:         string(p.Currency),
		PeriodStart:      p.PeriodStart,
		PeriodEnd:        p.PeriodEnd,
		Notes:            p.Notes,
		Status:           p.Status,
		RequestDate:      p.RequestDate,
		ApprovalNotes:    p.ApprovalNotes,
		ApprovedBy:       p.ApprovedBy,
		ApprovedAt:       p.ApprovedAt,
		RejectedBy:       p.RejectedBy,
		RejectedAt:       p.RejectedAt,
		RejectionReason:  p.RejectionReason,
		PaymentReference: p.PaymentReference,
		PaymentDate:      p.PaymentDate,
		PaidBy:           p.PaidBy,
		ConfirmedAt:      p.ConfirmedAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	if p.PaymentMethod != nil {
		method := p.PaymentMethod.String()
		m.PaymentMethod = &method
	}
	return m
}
