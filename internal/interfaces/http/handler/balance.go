package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	financeapp "github.com/propertyhub/backend/internal/application/finance"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
)

// BalanceHandler serves owner balance queries
type BalanceHandler struct {
	BaseHandler
	balances *financeapp.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balances *financeapp.BalanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// RegisterRoutes mounts the balance routes
func (h *BalanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/owners/:owner_id/balance", h.GetBalance)
}

// BalanceQuery holds the balance query parameters. Dates accept RFC 3339 or YYYY-MM-DD.
type BalanceQuery struct {
	PropertyID string `form:"property_id" binding:"omitempty,uuid"`
	From       string `form:"from"`
	To         string `form:"to"`
}

// GetBalance handles GET /owners/:owner_id/balance
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	ownerID, ok := h.uuidParam(c, "owner_id")
	if !ok {
		return
	}

	var q BalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Error(c, dto.ErrCodeValidation, "Invalid query parameters: "+err.Error())
		return
	}

	if !actor.CanView(ownerID) {
		h.HandleError(c, shared.PermissionDenied("Owners can only view their own balance"))
		return
	}

	var propertyID *uuid.UUID
	if q.PropertyID != "" {
		id := uuid.MustParse(q.PropertyID)
		propertyID = &id
	}
	from, err := parseDateParam(q.From, false)
	if err != nil {
		h.Error(c, dto.ErrCodeValidation, "Invalid from date: "+q.From)
		return
	}
	to, err := parseDateParam(q.To, true)
	if err != nil {
		h.Error(c, dto.ErrCodeValidation, "Invalid to date: "+q.To)
		return
	}

	ctx := c.Request.Context()
	if from == nil && to == nil {
		balance, err := h.balances.ComputeBalance(ctx, ownerID, propertyID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, financeapp.ToBalanceResponse(balance))
		return
	}

	balance, err := h.balances.ComputeBalanceForPeriod(ctx, ownerID, propertyID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, financeapp.ToBalanceResponse(balance))
}

// parseDateParam accepts RFC 3339 timestamps or plain dates. A plain end date
// covers that whole day.
func parseDateParam(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
