package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecomdash/backend/internal/domain/shared"
	"github.com/ecomdash/backend/internal/infrastructure/logger"
	"github.com/ecomdash/backend/internal/interfaces/http/dto"
	"github.com/ecomdash/backend/internal/interfaces/http/middleware"
)

const unexpectedErrorMessage = "An unexpected error occurred"

// BaseHandler writes the JSON envelope shared by every endpoint
type BaseHandler struct{}

// Success writes data with 200
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Fail writes an error envelope tagged with the request id
func (h *BaseHandler) Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// HandleError maps err to a response. Domain errors keep their code and
// message; anything else becomes a generic 500. A nil err writes nothing.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	log := logger.FromContext(c.Request.Context())

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		log.Error("Unexpected error", zap.Error(err))
		h.Fail(c, http.StatusInternalServerError, dto.ErrCodeInternal, unexpectedErrorMessage)
		return
	}

	status := dto.GetHTTPStatus(domainErr.Code)
	if status >= http.StatusInternalServerError {
		log.Warn("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
	}
	h.Fail(c, status, domainErr.Code, domainErr.Message)
}
