package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/server/respond"
	"github.com/mamadbah2/prodtrack/internal/service/users"
)

type userRequest struct {
	Name       *string      `json:"name" validate:"omitempty,min=1"`
	Email      *string      `json:"email" validate:"omitempty,email"`
	Phone      *string      `json:"phone" validate:"omitempty,min=1"`
	Password   *string      `json:"password" validate:"omitempty,min=6"`
	Role       *models.Role `json:"role" validate:"omitempty,oneof=admin supervisor operator"`
	MachineIDs []string     `json:"machineIds"`
	IsActive   *bool        `json:"isActive"`
}

func (r userRequest) input() (users.Input, error) {
	in := users.Input{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Password: r.Password,
		Role:     r.Role,
		IsActive: r.IsActive,
	}
	if r.MachineIDs != nil {
		ids, err := parseIDs("machineIds", r.MachineIDs)
		if err != nil {
			return users.Input{}, err
		}
		in.MachineIDs = ids
	}
	return in, nil
}

// UserHandler serves account management.
type UserHandler struct {
	svc    *users.Service
	logger *zap.Logger
}

// NewUserHandler constructs the user HTTP adapter.
func NewUserHandler(svc *users.Service, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{svc: svc, logger: logger}
}

// List returns users filtered by role and isActive.
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	if raw := c.Query("role"); raw != "" {
		role := models.Role(raw)
		if !role.Valid() {
			respond.Error(c, h.logger, apperr.ValidationFields("invalid query", map[string]string{"role": "must be one of admin, supervisor, operator"}))
			return
		}
		filter.Role = &role
	}
	active, err := queryBool(c, "isActive")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	filter.IsActive = active

	list, err := h.svc.List(c.Request.Context(), caller(c), filter)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, list)
}

// Get returns one user.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	user, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, user)
}

// Create adds an account.
func (h *UserHandler) Create(c *gin.Context) {
	var req userRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	user, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusCreated, user)
}

// Update modifies an account.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	var req userRequest
	if !bindAndValidate(c, h.logger, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	user, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, user)
}

// Delete removes an account.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.Message(c, "User deleted successfully")
}
