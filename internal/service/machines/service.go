package machines

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
)

const msgCodeTaken = "machine code already exists"

// Input carries the writable machine fields. Nil pointers on update keep the
// stored value.
type Input struct {
	Name        *string
	Code        *string
	Tonnage     *float64
	Location    *string
	Description *string
	IsActive    *bool
}

// Service manages the machine catalogue.
type Service struct {
	machines mongodb.MachineRepository
	logger   *zap.Logger
}

// NewService wires a new machine service instance.
func NewService(machines mongodb.MachineRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{machines: machines, logger: logger}
}

// List returns active machines sorted by name, or every machine when
// includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]models.Machine, error) {
	machines, err := s.machines.List(ctx, !includeInactive)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list machines: %w", err))
	}
	return machines, nil
}

// Get returns one machine.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	machine, err := s.machines.FindByID(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil, apperr.NotFound("machine not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load machine: %w", err))
	}
	return machine, nil
}

// Create validates and stores a new active machine.
func (s *Service) Create(ctx context.Context, in Input) (*models.Machine, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Code == nil || strings.TrimSpace(*in.Code) == "" || in.Tonnage == nil {
		return nil, apperr.Validation("name, code and tonnage are required")
	}

	machine := &models.Machine{IsActive: true}
	if err := apply(machine, in); err != nil {
		return nil, err
	}

	taken, err := s.machines.ExistsByCode(ctx, machine.Code, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check machine code: %w", err))
	}
	if taken {
		return nil, apperr.Conflict(msgCodeTaken)
	}

	if err := s.machines.Create(ctx, machine); err != nil {
		return nil, writeError("create machine", err)
	}

	s.logger.Info("machine created", zap.String("machine_id", machine.ID.Hex()), zap.String("code", machine.Code))
	return machine, nil
}

// Update applies the provided fields to an existing machine.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.Machine, error) {
	machine, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previousCode := machine.Code
	if err := apply(machine, in); err != nil {
		return nil, err
	}

	if machine.Code != previousCode {
		taken, err := s.machines.ExistsByCode(ctx, machine.Code, &machine.ID)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("check machine code: %w", err))
		}
		if taken {
			return nil, apperr.Conflict(msgCodeTaken)
		}
	}

	if err := s.machines.Update(ctx, machine); err != nil {
		return nil, writeError("update machine", err)
	}
	return machine, nil
}

// Delete removes a machine. Productions referencing it are kept.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.machines.Delete(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return apperr.NotFound("machine not found")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete machine: %w", err))
	}
	s.logger.Info("machine deleted", zap.String("machine_id", id.Hex()))
	return nil
}

func apply(m *models.Machine, in Input) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.Validation("name must not be empty")
		}
		m.Name = name
	}
	if in.Code != nil {
		code := mongodb.NormalizeCode(*in.Code)
		if code == "" {
			return apperr.Validation("code must not be empty")
		}
		m.Code = code
	}
	if in.Tonnage != nil {
		if *in.Tonnage <= 0 {
			return apperr.ValidationFields("invalid machine", map[string]string{"tonnage": "must be greater than 0"})
		}
		m.Tonnage = *in.Tonnage
	}
	if in.Location != nil {
		m.Location = strings.TrimSpace(*in.Location)
	}
	if in.Description != nil {
		m.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	return nil
}

func writeError(op string, err error) error {
	switch {
	case errors.Is(err, mongodb.ErrDuplicateKey):
		return apperr.Conflict(msgCodeTaken)
	case errors.Is(err, mongodb.ErrNotFound):
		return apperr.NotFound("machine not found")
	default:
		return apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}
}
