package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/closeready/internal/api/dto"
	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/domain/exceptions"
	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

// ExceptionsHandler handles exception review and alert signal requests.
type ExceptionsHandler struct {
	*Base
}

// NewExceptionsHandler creates a new exceptions handler.
func NewExceptionsHandler(svc *service.Service) *ExceptionsHandler {
	return &ExceptionsHandler{
		Base: NewBase(svc),
	}
}

// List handles GET /api/orgs/:org/periods/:period/exceptions.
func (h *ExceptionsHandler) List(c *gin.Context) {
	orgID := c.Param("org")
	period := c.Param("period")

	var params dto.ExceptionListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid query parameters"))
		return
	}

	exs, err := h.svc.ListExceptions(c.Request.Context(), storage.ExceptionFilters{
		OrgID:       orgID,
		PeriodLabel: period,
		Status:      recon.ExceptionStatus(params.Status),
		Severity:    recon.Severity(params.Severity),
		Type:        recon.ExceptionType(params.Type),
	})
	if err != nil {
		h.WriteServiceError(c, err, "exceptions")
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.ExceptionListResponse{
		OrgID:      orgID,
		Period:     period,
		Exceptions:     exs,
		Count:          len(exs),
		OpenBySeverity: exceptions.CountBySeverity(exs),
	})
}

// UpdateStatus handles POST /api/exceptions/:org/:id/status.
func (h *ExceptionsHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateExceptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: status is required"))
		return
	}

	updated, err := h.svc.UpdateExceptionStatus(
		c.Request.Context(),
		c.Param("org"),
		c.Param("id"),
		recon.ExceptionStatus(req.Status),
		req.Notes,
	)
	if err != nil {
		h.WriteServiceError(c, err, "exception")
		return
	}

	h.WriteJSON(c, http.StatusOK, updated)
}

// Signals handles GET /api/orgs/:org/periods/:period/signals.
func (h *ExceptionsHandler) Signals(c *gin.Context) {
	report, err := h.svc.Signals(c.Request.Context(), c.Param("org"), c.Param("period"))
	if err != nil {
		h.WriteServiceError(c, err, "signals")
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.SignalsResponse{
		OrgID:         report.OrgID,
		Period:        report.PeriodLabel,
		MismatchCount: report.Signals.MismatchCount,
		MaxDeltaCents: report.Signals.MaxDeltaCents,
		AlertTier:     string(report.Tier),
	})
}
