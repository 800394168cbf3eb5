package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/application/reporting"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// RunIDHeader echoes the id of the run that produced a consolidation.
const RunIDHeader = "X-Run-ID"

// ConsolidationHandler serves the consolidation and cliff endpoints.
type ConsolidationHandler struct {
	svc      consolidation.Service
	reports  reporting.Generator
	validate *validator.Validate
	logger   logging.Logger
}

// NewConsolidationHandler creates the handler.  reports may be nil, in
// which case the report endpoint answers 503.
func NewConsolidationHandler(svc consolidation.Service, reports reporting.Generator, logger logging.Logger) *ConsolidationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ConsolidationHandler{
		svc:      svc,
		reports:  reports,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("http"),
	}
}

// RegisterRoutes mounts the endpoints on an /api/v1 group.
func (h *ConsolidationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/consolidations", h.Consolidate)
	rg.GET("/consolidations", h.ListRuns)
	rg.GET("/consolidations/:id", h.GetRun)
	rg.GET("/consolidations/:id/report", h.Report)
	rg.POST("/cliff", h.Cliff)
}

// Consolidate handles POST /api/v1/consolidations.
func (h *ConsolidationHandler) Consolidate(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	out, err := h.svc.Consolidate(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if out.Metadata.RunID != "" {
		c.Header(RunIDHeader, out.Metadata.RunID)
	}
	c.JSON(http.StatusOK, out)
}

// Cliff handles POST /api/v1/cliff.
func (h *ConsolidationHandler) Cliff(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.svc.Cliff(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetRun handles GET /api/v1/consolidations/:id.
func (h *ConsolidationHandler) GetRun(c *gin.Context) {
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRunsResponse wraps the recent runs.
type ListRunsResponse struct {
	Runs  []*domainCons.Run `json:"runs"`
	Limit int               `json:"limit"`
}

// ListRuns handles GET /api/v1/consolidations?limit=N.
func (h *ConsolidationHandler) ListRuns(c *gin.Context) {
	limit := consolidation.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeAppError(c, errors.Newf(errors.ErrCodeValidation, "limit must be a positive integer, got %q", v))
			return
		}
		limit = min(n, consolidation.MaxListLimit)
	}
	runs, err := h.svc.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs, Limit: limit})
}

// Report handles GET /api/v1/consolidations/:id/report?format=md|html.
func (h *ConsolidationHandler) Report(c *gin.Context) {
	if h.reports == nil {
		writeAppError(c, errors.New(errors.ErrCodeFeatureDisabled, "reports are disabled"))
		return
	}
	format, err := reporting.ParseFormat(c.Query("format"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	out, err := h.svc.GetOutput(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	rep, err := h.reports.Render(c.Request.Context(), out, format)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), rep.Body)
}

// bind decodes and validates the request body.  On failure the response
// has already been written.
func (h *ConsolidationHandler) bind(c *gin.Context) (*consolidation.Request, bool) {
	var req consolidation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		writeAppError(c, validationError(err))
		return nil, false
	}
	return &req, true
}

// validationError flattens validator failures into one message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid request")
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(errors.ErrCodeValidation, "invalid request").WithDetail(strings.Join(parts, "; "))
}

//Personal.AI order the ending
