package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/server/respond"
	"github.com/mamadbah2/prodtrack/internal/service/machines"
)

type machineRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Code        *string  `json:"code" validate:"omitempty,min=1"`
	Tonnage     *float64 `json:"tonnage" validate:"omitempty,gt=0"`
	Location    *string  `json:"location"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"isActive"`
}

func (r machineRequest) input() machines.Input {
	return machines.Input{
		Name:        r.Name,
		Code:        r.Code,
		Tonnage:     r.Tonnage,
		Location:    r.Location,
		Description: r.Description,
		IsActive:    r.IsActive,
	}
}

// MachineHandler serves the machine catalogue.
type MachineHandler struct {
	svc    *machines.Service
	logger *zap.Logger
}

// NewMachineHandler constructs the machine HTTP adapter.
func NewMachineHandler(svc *machines.Service, logger *zap.Logger) *MachineHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MachineHandler{svc: svc, logger: logger}
}

// List returns active machines. Admins may pass includeInactive=true.
func (h *MachineHandler) List(c *gin.Context) {
	includeInactive, err := queryBool(c, "includeInactive")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	all := includeInactive != nil && *includeInactive && caller(c).Role == models.RoleAdmin

	list, err := h.svc.List(c.Request.Context(), all)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, list)
}

// Get returns one machine.
func (h *MachineHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	machine, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, machine)
}

// Create adds a machine.
func (h *MachineHandler) Create(c *gin.Context) {
	var req machineRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	machine, err := h.svc.Create(c.Request.Context(), req.input())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusCreated, machine)
}

// Update modifies a machine.
func (h *MachineHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	var req machineRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	machine, err := h.svc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, machine)
}

// Delete removes a machine.
func (h *MachineHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, "Machine deleted successfully")
}
