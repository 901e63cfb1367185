package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	payoutapp "github.com/propertyhub/backend/internal/application/payout"
	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
	"github.com/propertyhub/backend/internal/interfaces/http/middleware"
)

// PayoutHandler serves the payout request workflow
type PayoutHandler struct {
	BaseHandler
	workflow *payoutapp.WorkflowService
}

// NewPayoutHandler creates a new PayoutHandler
func NewPayoutHandler(workflow *payoutapp.WorkflowService) *PayoutHandler {
	return &PayoutHandler{workflow: workflow}
}

// RegisterRoutes mounts the payout routes
func (h *PayoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	owners := rg.Group("/owners/:owner_id/payouts")
	owners.POST("", h.RequestPayout)
	owners.GET("", h.ListOwnerPayouts)

	payouts := rg.Group("/payouts")
	payouts.GET("", h.ListPayoutQueue)
	payouts.GET("/:id", h.GetPayout)
	payouts.PATCH("/:id/approve", h.Approve)
	payouts.PATCH("/:id/reject", h.Reject)
	payouts.PATCH("/:id/mark-paid", h.MarkPaid)
	payouts.PATCH("/:id/confirm-received", h.ConfirmReceived)
}

// CreatePayoutRequest is the body of POST /owners/:owner_id/payouts
type CreatePayoutRequest struct {
	PropertyID      *uuid.UUID       `json:"property_id"`
	RequestedAmount *decimal.Decimal `json:"requested_amount" binding:"required"`
	Currency        string           `json:"currency" binding:"required"`
	PeriodStart     time.Time        `json:"period_start" binding:"required"`
	PeriodEnd       time.Time        `json:"period_end" binding:"required"`
	Notes           string           `json:"notes" binding:"max=1000"`
}

// ApproveRequest is the body of PATCH /payouts/:id/approve
type ApproveRequest struct {
	ApprovalNotes string `json:"approval_notes" binding:"max=1000"`
}

// RejectRequest is the body of PATCH /payouts/:id/reject
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// MarkPaidRequest is the body of PATCH /payouts/:id/mark-paid
type MarkPaidRequest struct {
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference" binding:"max=100"`
}

// ListPayoutsQuery holds the payout list query parameters
type ListPayoutsQuery struct {
	dto.PageQuery
	PropertyID string `form:"property_id" binding:"omitempty,uuid"`
	Status     string `form:"status"`
}

func (q ListPayoutsQuery) filter() payoutapp.ListPayoutsFilter {
	f := payoutapp.ListPayoutsFilter{
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.PropertyID != "" {
		id := uuid.MustParse(q.PropertyID)
		f.PropertyID = &id
	}
	return f
}

// RequestPayout handles POST /owners/:owner_id/payouts
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	ownerID, ok := h.uuidParam(c, "owner_id")
	if !ok {
		return
	}

	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.workflow.RequestPayout(c.Request.Context(), actor, payoutapp.RequestPayoutInput{
		OwnerID:         ownerID,
		PropertyID:      req.PropertyID,
		RequestedAmount: *req.RequestedAmount,
		Currency:        req.Currency,
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
		Notes:           req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListOwnerPayouts handles GET /owners/:owner_id/payouts
func (h *PayoutHandler) ListOwnerPayouts(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	ownerID, ok := h.uuidParam(c, "owner_id")
	if !ok {
		return
	}
	var q ListPayoutsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.workflow.ListOwnerPayouts(c.Request.Context(), actor, ownerID, q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// ListPayoutQueue handles GET /payouts
func (h *PayoutHandler) ListPayoutQueue(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var q ListPayoutsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.workflow.ListPayoutQueue(c.Request.Context(), actor, q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// GetPayout handles GET /payouts/:id
func (h *PayoutHandler) GetPayout(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.workflow.GetPayout(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve handles PATCH /payouts/:id/approve
func (h *PayoutHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	h.transition(c, &req, func(p transitionParams) (*payoutapp.PayoutResponse, error) {
		return h.workflow.Approve(p.c.Request.Context(), p.actor, p.id, req.ApprovalNotes)
	})
}

// Reject handles PATCH /payouts/:id/reject
func (h *PayoutHandler) Reject(c *gin.Context) {
	var req RejectRequest
	h.transition(c, &req, func(p transitionParams) (*payoutapp.PayoutResponse, error) {
		return h.workflow.Reject(p.c.Request.Context(), p.actor, p.id, req.Reason)
	})
}

// MarkPaid handles PATCH /payouts/:id/mark-paid
func (h *PayoutHandler) MarkPaid(c *gin.Context) {
	var req MarkPaidRequest
	h.transition(c, &req, func(p transitionParams) (*payoutapp.PayoutResponse, error) {
		return h.workflow.MarkPaid(p.c.Request.Context(), p.actor, p.id, req.PaymentMethod, req.PaymentReference)
	})
}

// ConfirmReceived handles PATCH /payouts/:id/confirm-received
func (h *PayoutHandler) ConfirmReceived(c *gin.Context) {
	h.transition(c, nil, func(p transitionParams) (*payoutapp.PayoutResponse, error) {
		return h.workflow.ConfirmReceived(p.c.Request.Context(), p.actor, p.id)
	})
}

type transitionParams struct {
	c     *gin.Context
	actor identity.Actor
	id    uuid.UUID
}

// transition resolves actor and id, binds the optional body into req and runs apply
func (h *PayoutHandler) transition(c *gin.Context, req any, apply func(transitionParams) (*payoutapp.PayoutResponse, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if req != nil && !h.bindOptionalJSON(c, req) {
		return
	}

	resp, err := apply(transitionParams{c: c, actor: actor, id: id})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
