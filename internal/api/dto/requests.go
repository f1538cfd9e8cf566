package dto

// ReconcileRequest is the request body for starting a reconciliation.
type ReconcileRequest struct {
	OrgID            string `json:"org_id" binding:"required"`
	Period           string `json:"period" binding:"required"` // "2026-02", "2026-Q1" or "2026"
	ReportsGenerated bool   `json:"reports_generated"`
}

// BatchRequest is the request body for an asynchronous batch.
type BatchRequest struct {
	Requests []ReconcileRequest `json:"requests" binding:"required,min=1,dive"`
}

// UpdateExceptionStatusRequest moves an exception through its review lifecycle.
type UpdateExceptionStatusRequest struct {
	Status string `json:"status" binding:"required"` // "investigating", "resolved", "waived" or "open"
	Notes  string `json:"notes"`
}

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	OrgID  string `form:"org_id"`
	Period string `form:"period"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ExceptionListParams represents query parameters for listing exceptions.
type ExceptionListParams struct {
	Status   string `form:"status"`
	Severity string `form:"severity"`
	Type     string `form:"type"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}
