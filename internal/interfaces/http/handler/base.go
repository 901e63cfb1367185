package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propertyhub/backend/internal/domain/identity"
	"github.com/propertyhub/backend/internal/domain/shared"
	"github.com/propertyhub/backend/internal/infrastructure/logger"
	"github.com/propertyhub/backend/internal/interfaces/http/dto"
	"github.com/propertyhub/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessPage sends a page of items with pagination meta
func SuccessPage[T any](c *gin.Context, page *shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(page.Items, page.Total, page.Page, page.PageSize, page.TotalPages))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error envelope with a status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, getRequestID(c)))
}

// HandleError converts service errors to responses. Domain errors keep their
// code and message; anything else is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// actor returns the resolved actor or answers 401
func (h *BaseHandler) actor(c *gin.Context) (identity.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return identity.Actor{}, false
	}
	return actor, true
}

// uuidParam parses a path parameter or answers VALIDATION_ERROR
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, dto.ErrCodeValidation, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON binds a JSON body when one is sent. An empty body leaves
// req untouched; field rules are enforced by the workflow after its role and
// state guards.
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}
