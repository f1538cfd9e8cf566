package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/closeready/internal/api/dto"
	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

// ReconciliationsHandler handles reconciliation run requests.
type ReconciliationsHandler struct {
	*Base
}

// NewReconciliationsHandler creates a new reconciliations handler.
func NewReconciliationsHandler(svc *service.Service) *ReconciliationsHandler {
	return &ReconciliationsHandler{
		Base: NewBase(svc),
	}
}

// Create handles POST /api/reconciliations - runs a reconciliation synchronously.
func (h *ReconciliationsHandler) Create(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: org_id and period are required"))
		return
	}

	res, err := h.svc.Reconcile(c.Request.Context(), toServiceRequest(req))
	if err != nil {
		h.WriteServiceError(c, err, "reconciliation")
		return
	}

	h.WriteJSON(c, http.StatusCreated, dto.ReconcileResponse{
		Run:        toRunResponse(res.Run),
		Report:     &res.Report,
		Match:      res.Match,
		Exceptions: res.Exceptions,
		Signals: dto.SignalsResponse{
			OrgID:         res.Run.OrgID,
			Period:        res.Run.PeriodLabel,
			MismatchCount: res.Signals.MismatchCount,
			MaxDeltaCents: res.Signals.MaxDeltaCents,
			AlertTier:     string(res.Tier),
		},
	})
}

// List handles GET /api/reconciliations - returns stored runs, newest first.
func (h *ReconciliationsHandler) List(c *gin.Context) {
	params := dto.DefaultRunListParams()
	params.OrgID = c.Query("org_id")
	params.Period = c.Query("period")
	params.Status = c.Query("status")
	params.Limit = ParseIntParam(c, "limit", params.Limit)
	params.Offset = ParseIntParam(c, "offset", params.Offset)

	runs, err := h.svc.ListRuns(c.Request.Context(), storage.RunFilters{
		OrgID:       params.OrgID,
		PeriodLabel: params.Period,
		Status:      storage.RunStatus(params.Status),
		Limit:       params.Limit,
		Offset:      params.Offset,
	})
	if err != nil {
		h.WriteServiceError(c, err, "runs")
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(c, http.StatusOK, response)
}

// Get handles GET /api/reconciliations/:id - returns a run with its report.
func (h *ReconciliationsHandler) Get(c *gin.Context) {
	detail, err := h.svc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.WriteServiceError(c, err, "reconciliation")
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.ReconcileResponse{
		Run:        toRunResponse(detail.Run),
		Report:     detail.Report,
		Match:      detail.Run.Match,
		Exceptions: detail.Exceptions,
		Signals: dto.SignalsResponse{
			OrgID:         detail.Run.OrgID,
			Period:        detail.Run.PeriodLabel,
			MismatchCount: detail.Run.MismatchCount,
			MaxDeltaCents: detail.Run.MaxDeltaCents,
			AlertTier:     string(detail.Run.AlertTier),
		},
	})
}

// StartBatch handles POST /api/reconciliations/batch - starts a background batch job.
func (h *ReconciliationsHandler) StartBatch(c *gin.Context) {
	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: at least one request with org_id and period is required"))
		return
	}

	reqs := make([]service.Request, 0, len(req.Requests))
	for _, r := range req.Requests {
		reqs = append(reqs, toServiceRequest(r))
	}

	// The job runs on its own context so it outlives this request.
	jobID, err := h.svc.StartBatch(c.Request.Context(), reqs)
	if err != nil {
		h.WriteServiceError(c, err, "batch")
		return
	}

	h.WriteJSON(c, http.StatusAccepted, dto.StartBatchResponse{
		JobID:    jobID,
		Requests: len(reqs),
		Status:   string(service.StatusPending),
	})
}

// ListJobs handles GET /api/jobs - lists batch jobs.
func (h *ReconciliationsHandler) ListJobs(c *gin.Context) {
	jobs := h.svc.ListJobs()

	response := dto.JobListResponse{
		Jobs:  make([]dto.JobResponse, 0, len(jobs)),
		Count: len(jobs),
	}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, toJobResponse(job))
	}

	h.WriteJSON(c, http.StatusOK, response)
}

// GetJob handles GET /api/jobs/:id - gets batch job status.
func (h *ReconciliationsHandler) GetJob(c *gin.Context) {
	job, err := h.svc.GetJob(c.Param("id"))
	if err != nil {
		h.WriteServiceError(c, err, "job")
		return
	}

	h.WriteJSON(c, http.StatusOK, toJobResponse(job))
}

// CancelJob handles DELETE /api/jobs/:id - cancels a running batch job.
func (h *ReconciliationsHandler) CancelJob(c *gin.Context) {
	if err := h.svc.CancelJob(c.Param("id")); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			h.WriteServiceError(c, err, "job")
			return
		}
		h.WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.MessageResponse{Message: "job cancelled"})
}

func toServiceRequest(req dto.ReconcileRequest) service.Request {
	return service.Request{
		OrgID:            req.OrgID,
		Period:           req.Period,
		ReportsGenerated: req.ReportsGenerated,
	}
}

// toRunResponse converts a storage Run to an API response.
func toRunResponse(run *storage.Run) dto.RunResponse {
	return dto.RunResponse{
		ID:             run.ID,
		OrgID:          run.OrgID,
		Period:         run.PeriodLabel,
		Status:         string(run.Status),
		StartedAt:      formatTime(run.StartedAt),
		CompletedAt:    formatTimePtr(run.CompletedAt),
		Payouts:        run.Payouts,
		Deposits:       run.Deposits,
		Matched:        run.Matched,
		ExceptionCount: run.ExceptionCount,
		Score:          run.Score,
		Percentage:     run.Percentage,
		Ready:          run.Ready,
		MismatchCount:  run.MismatchCount,
		MaxDeltaCents:  run.MaxDeltaCents,
		AlertTier:      string(run.AlertTier),
		ErrorMessage:   run.ErrorMessage,
	}
}

func toJobResponse(job *service.BatchJob) dto.JobResponse {
	response := dto.JobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		StartedAt: formatTime(job.StartedAt),
		Requests:  len(job.Requests),
	}

	if job.CompletedAt != nil {
		completed := formatTime(*job.CompletedAt)
		response.CompletedAt = &completed
	}
	if job.Error != "" {
		response.Error = &job.Error
	}

	for _, item := range job.Items {
		out := dto.BatchItemResponse{
			OrgID:  item.Request.OrgID,
			Period: item.Request.Period,
			Error:  item.Error,
		}
		if item.Result != nil {
			out.RunID = item.Result.Run.ID
			out.Percentage = item.Result.Report.Percentage
			out.Ready = item.Result.Report.Ready
			out.AlertTier = string(item.Result.Tier)
		}
		response.Items = append(response.Items, out)
	}

	return response
}
