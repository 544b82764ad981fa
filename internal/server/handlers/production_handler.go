package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/server/respond"
	"github.com/mamadbah2/prodtrack/internal/service/productions"
	"github.com/mamadbah2/prodtrack/internal/service/reporting"
)

type productionRequest struct {
	MachineID        *string       `json:"machineId"`
	OperatorID       *string       `json:"operatorId"`
	SupervisorID     *string       `json:"supervisorId"`
	ProductName      *string       `json:"productName" validate:"omitempty,min=1"`
	ContractQuantity *int          `json:"contractQuantity" validate:"omitempty,min=1"`
	PieceWeight      *float64      `json:"pieceWeight" validate:"omitempty,gte=0.001"`
	TotalPieces      *int          `json:"totalPieces" validate:"omitempty,min=1"`
	Shift            *models.Shift `json:"shift" validate:"omitempty,oneof=morning evening night"`
	MeterReading     *float64      `json:"meterReading"`
	MeterConsumption *float64      `json:"meterConsumption"`
	Notes            *string       `json:"notes"`
	Date             *string       `json:"date"`
}

func (r productionRequest) input(loc *time.Location) (productions.Input, error) {
	in := productions.Input{
		ProductName:      r.ProductName,
		ContractQuantity: r.ContractQuantity,
		PieceWeight:      r.PieceWeight,
		TotalPieces:      r.TotalPieces,
		Shift:            r.Shift,
		MeterReading:     r.MeterReading,
		MeterConsumption: r.MeterConsumption,
		Notes:            r.Notes,
	}

	var err error
	if in.MachineID, err = optionalID("machineId", r.MachineID); err != nil {
		return productions.Input{}, err
	}
	if in.OperatorID, err = optionalID("operatorId", r.OperatorID); err != nil {
		return productions.Input{}, err
	}
	if in.SupervisorID, err = optionalID("supervisorId", r.SupervisorID); err != nil {
		return productions.Input{}, err
	}
	if r.Date != nil && strings.TrimSpace(*r.Date) != "" {
		d, err := parseTime("date", *r.Date, loc, false)
		if err != nil {
			return productions.Input{}, err
		}
		in.Date = &d
	}
	return in, nil
}

// ProductionHandler serves production records.
type ProductionHandler struct {
	svc    *productions.Service
	loc    *time.Location
	logger *zap.Logger
}

// NewProductionHandler constructs the production HTTP adapter. Bare dates in
// filters and payloads are read in loc.
func NewProductionHandler(svc *productions.Service, loc *time.Location, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProductionHandler{svc: svc, loc: loc, logger: logger}
}

// List returns one page of the caller's visible records.
func (h *ProductionHandler) List(c *gin.Context) {
	params, err := h.listParams(c)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	page, err := h.svc.List(c.Request.Context(), caller(c), params)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Page(c, page.Items, page.Pagination)
}

func (h *ProductionHandler) listParams(c *gin.Context) (productions.ListParams, error) {
	var params productions.ListParams
	var err error

	if params.Page, err = queryInt(c, "page"); err != nil {
		return params, err
	}
	if params.Limit, err = queryInt(c, "limit"); err != nil {
		return params, err
	}
	if params.Filter.MachineID, err = queryID(c, "machineId"); err != nil {
		return params, err
	}
	if params.Filter.OperatorID, err = queryID(c, "operatorId"); err != nil {
		return params, err
	}
	if raw := c.Query("shift"); raw != "" {
		shift := models.Shift(raw)
		if !shift.Valid() {
			return params, apperr.ValidationFields("invalid query", map[string]string{"shift": "must be one of morning, evening, night"})
		}
		params.Filter.Shift = shift
	}
	if raw := c.Query("startDate"); raw != "" {
		from, err := parseTime("startDate", raw, h.loc, false)
		if err != nil {
			return params, err
		}
		params.Filter.From = &from
	}
	if raw := c.Query("endDate"); raw != "" {
		to, err := parseTime("endDate", raw, h.loc, true)
		if err != nil {
			return params, err
		}
		params.Filter.To = &to
	}
	if params.Filter.From != nil && params.Filter.To != nil && params.Filter.From.After(*params.Filter.To) {
		return params, apperr.ValidationFields("invalid date range", map[string]string{"startDate": "must not be after endDate"})
	}
	return params, nil
}

// Get returns one record.
func (h *ProductionHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	view, err := h.svc.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, view)
}

// Create records a production.
func (h *ProductionHandler) Create(c *gin.Context) {
	var req productionRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	in, err := req.input(h.loc)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	view, err := h.svc.Create(c.Request.Context(), caller(c), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusCreated, view)
}

// Update modifies a record.
func (h *ProductionHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	var req productionRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	in, err := req.input(h.loc)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	view, err := h.svc.Update(c.Request.Context(), caller(c), id, in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, view)
}

// Delete removes a record.
func (h *ProductionHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller(c), id); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, "Production deleted successfully")
}

// parseTime accepts an RFC 3339 timestamp or a YYYY-MM-DD day in loc. A bare
// day resolves to its first millisecond, or its last one when endOfDay is set.
func parseTime(field, raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	day, err := time.ParseInLocation(reporting.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, apperr.ValidationFields("invalid date", map[string]string{field: "must be YYYY-MM-DD or RFC 3339"})
	}
	start, end := reporting.DayBounds(day)
	if endOfDay {
		return end, nil
	}
	return start, nil
}
