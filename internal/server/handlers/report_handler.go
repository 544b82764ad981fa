package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/scheduler"
	"github.com/mamadbah2/prodtrack/internal/server/respond"
	"github.com/mamadbah2/prodtrack/internal/service/reporting"
)

// ReportRunner runs the daily report job for one day on demand.
type ReportRunner interface {
	RunDailyReport(ctx context.Context, day time.Time) (*scheduler.Result, error)
}

// ReportHandler serves analytics.
type ReportHandler struct {
	svc    *reporting.Service
	runner ReportRunner
	logger *zap.Logger
	now    func() time.Time
}

// NewReportHandler constructs the report HTTP adapter. runner backs the
// snapshot endpoint.
func NewReportHandler(svc *reporting.Service, runner ReportRunner, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, runner: runner, logger: logger, now: time.Now}
}

// Daily returns the report of ?date=YYYY-MM-DD.
func (h *ReportHandler) Daily(c *gin.Context) {
	report, err := h.svc.DailyReport(c.Request.Context(), c.Query("date"))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, report)
}

// Summary returns the global totals.
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, summary)
}

// Machine returns the report of one machine between startDate and endDate.
func (h *ReportHandler) Machine(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	report, err := h.svc.MachineReport(c.Request.Context(), id, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, report)
}

// Snapshot runs the daily report job for ?date, defaulting to yesterday.
func (h *ReportHandler) Snapshot(c *gin.Context) {
	day := h.now().In(h.svc.Location()).AddDate(0, 0, -1)
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := h.svc.ParseDay(raw)
		if err != nil {
			respond.Error(c, h.logger, err)
			return
		}
		day = parsed
	}

	result, err := h.runner.RunDailyReport(c.Request.Context(), day)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusCreated, result)
}
