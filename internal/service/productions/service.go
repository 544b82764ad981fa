package productions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/identity"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
)

const (
	// DefaultLimit is the page size used when none is requested.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100

	minPieceWeight = 0.001
)

// ListParams are the caller-supplied listing options.
type ListParams struct {
	Filter models.ProductionFilter
	Page   int
	Limit  int
}

// Page is one page of populated productions.
type Page struct {
	Items      []models.ProductionView
	Pagination models.Pagination
}

// Input carries the writable production fields. Nil pointers on update keep
// the stored value. TotalWeight is never accepted from callers.
type Input struct {
	MachineID        *primitive.ObjectID
	OperatorID       *primitive.ObjectID
	SupervisorID     *primitive.ObjectID
	ProductName      *string
	ContractQuantity *int
	PieceWeight      *float64
	TotalPieces      *int
	Shift            *models.Shift
	MeterReading     *float64
	MeterConsumption *float64
	Notes            *string
	Date             *time.Time
}

// Service applies role policies to production records.
type Service struct {
	productions mongodb.ProductionRepository
	machines    mongodb.MachineRepository
	users       mongodb.UserRepository
	logger      *zap.Logger
}

// NewService wires a new production service instance.
func NewService(productions mongodb.ProductionRepository, machines mongodb.MachineRepository, users mongodb.UserRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{productions: productions, machines: machines, users: users, logger: logger}
}

// List returns the page of records visible to the caller that match the
// filter. Rows outside the caller's scope are left out silently.
func (s *Service) List(ctx context.Context, caller identity.Identity, params ListParams) (*Page, error) {
	actor, err := s.actor(ctx, caller)
	if err != nil {
		return nil, err
	}
	decision := ReadScope(actor)
	if err := decision.Err(); err != nil {
		return nil, err
	}

	page, limit := normalizePage(params.Page, params.Limit)
	query := models.ProductionQuery{
		Filter: params.Filter,
		Scope:  decision.Scope,
		Sort:   models.SortNewestFirst,
		Page:   page,
		Limit:  limit,
	}

	rows, total, err := s.productions.List(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list productions: %w", err))
	}

	views, err := s.populate(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &Page{Items: views, Pagination: models.NewPagination(page, limit, total)}, nil
}

// Get returns one record when it is inside the caller's read scope.
func (s *Service) Get(ctx context.Context, caller identity.Identity, id primitive.ObjectID) (*models.ProductionView, error) {
	actor, err := s.actor(ctx, caller)
	if err != nil {
		return nil, err
	}
	production, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanView(actor, *production).Err(); err != nil {
		return nil, err
	}
	return s.populateOne(ctx, *production)
}

// Create stores a new record. Operators always record under their own id and
// supervisors become the record's supervisor.
func (s *Service) Create(ctx context.Context, caller identity.Identity, in Input) (*models.ProductionView, error) {
	actor, err := s.actor(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := CanCreate(actor).Err(); err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleOperator:
		id := actor.ID
		in.OperatorID = &id
	case models.RoleSupervisor:
		id := actor.ID
		in.SupervisorID = &id
	}

	if in.MachineID == nil || in.OperatorID == nil || blank(in.ProductName) || in.ContractQuantity == nil ||
		in.PieceWeight == nil || in.TotalPieces == nil || in.Shift == nil {
		return nil, apperr.Validation("machineId, operatorId, productName, contractQuantity, pieceWeight, totalPieces and shift are required")
	}

	production := &models.Production{}
	if err := s.apply(ctx, production, in); err != nil {
		return nil, err
	}

	production.RecomputeTotalWeight()
	if err := s.productions.Create(ctx, production); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create production: %w", err))
	}

	s.logger.Info("production created",
		zap.String("production_id", production.ID.Hex()),
		zap.String("machine_id", production.MachineID.Hex()),
		zap.String("by", actor.ID.Hex()),
	)
	return s.populateOne(ctx, *production)
}

// Update modifies a record the caller is allowed to change.
func (s *Service) Update(ctx context.Context, caller identity.Identity, id primitive.ObjectID, in Input) (*models.ProductionView, error) {
	actor, err := s.actor(ctx, caller)
	if err != nil {
		return nil, err
	}
	production, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanUpdate(actor, *production).Err(); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, production, in); err != nil {
		return nil, err
	}

	production.RecomputeTotalWeight()
	if err := s.productions.Update(ctx, production); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, apperr.NotFound("production not found")
		}
		return nil, apperr.Internal(fmt.Errorf("update production: %w", err))
	}
	return s.populateOne(ctx, *production)
}

// Delete removes a record. Only admins may delete.
func (s *Service) Delete(ctx context.Context, caller identity.Identity, id primitive.ObjectID) error {
	if err := CanDelete(Actor{Identity: caller}).Err(); err != nil {
		return err
	}
	err := s.productions.Delete(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return apperr.NotFound("production not found")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete production: %w", err))
	}
	s.logger.Info("production deleted", zap.String("production_id", id.Hex()), zap.String("by", caller.ID.Hex()))
	return nil
}

// actor loads the machine assignment of supervisors. Other roles need only
// their identity.
func (s *Service) actor(ctx context.Context, caller identity.Identity) (Actor, error) {
	actor := Actor{Identity: caller}
	if caller.Role != models.RoleSupervisor {
		return actor, nil
	}
	user, err := s.users.FindByID(ctx, caller.ID)
	if errors.Is(err, mongodb.ErrNotFound) {
		return Actor{}, apperr.Authentication("unauthorized - please login again")
	}
	if err != nil {
		return Actor{}, apperr.Internal(fmt.Errorf("load supervisor machines: %w", err))
	}
	actor.MachineIDs = user.MachineIDs
	return actor, nil
}

func (s *Service) find(ctx context.Context, id primitive.ObjectID) (*models.Production, error) {
	production, err := s.productions.FindByID(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil, apperr.NotFound("production not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load production: %w", err))
	}
	return production, nil
}

func (s *Service) apply(ctx context.Context, p *models.Production, in Input) error {
	fields := map[string]string{}

	if in.MachineID != nil && *in.MachineID != p.MachineID {
		if _, err := s.machines.FindByID(ctx, *in.MachineID); err != nil {
			if !errors.Is(err, mongodb.ErrNotFound) {
				return apperr.Internal(fmt.Errorf("load machine: %w", err))
			}
			fields["machineId"] = "machine not found"
		}
		p.MachineID = *in.MachineID
	}
	if in.OperatorID != nil && *in.OperatorID != p.OperatorID {
		if _, err := s.users.FindByID(ctx, *in.OperatorID); err != nil {
			if !errors.Is(err, mongodb.ErrNotFound) {
				return apperr.Internal(fmt.Errorf("load operator: %w", err))
			}
			fields["operatorId"] = "user not found"
		}
		p.OperatorID = *in.OperatorID
	}
	if in.SupervisorID != nil {
		id := *in.SupervisorID
		p.SupervisorID = &id
	}
	if in.ProductName != nil {
		if blank(in.ProductName) {
			fields["productName"] = "is required"
		}
		p.ProductName = strings.TrimSpace(*in.ProductName)
	}
	if in.ContractQuantity != nil {
		if *in.ContractQuantity < 1 {
			fields["contractQuantity"] = "must be at least 1"
		}
		p.ContractQuantity = *in.ContractQuantity
	}
	if in.PieceWeight != nil {
		if *in.PieceWeight < minPieceWeight {
			fields["pieceWeight"] = "must be at least 0.001"
		}
		p.PieceWeight = *in.PieceWeight
	}
	if in.TotalPieces != nil {
		if *in.TotalPieces < 1 {
			fields["totalPieces"] = "must be at least 1"
		}
		p.TotalPieces = *in.TotalPieces
	}
	if in.Shift != nil {
		if !in.Shift.Valid() {
			fields["shift"] = "must be one of morning, evening, night"
		}
		p.Shift = *in.Shift
	}
	if in.MeterReading != nil {
		v := *in.MeterReading
		p.MeterReading = &v
	}
	if in.MeterConsumption != nil {
		v := *in.MeterConsumption
		p.MeterConsumption = &v
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.Date != nil {
		p.Date = *in.Date
	}

	if len(fields) > 0 {
		return apperr.ValidationFields("invalid production", fields)
	}
	return nil
}

func (s *Service) populateOne(ctx context.Context, p models.Production) (*models.ProductionView, error) {
	views, err := s.populate(ctx, []models.Production{p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) populate(ctx context.Context, rows []models.Production) ([]models.ProductionView, error) {
	return Populate(ctx, s.machines, s.users, rows)
}

// Populate resolves machine and user references with one lookup per
// collection. References to deleted documents stay nil.
func Populate(ctx context.Context, machineRepo mongodb.MachineRepository, userRepo mongodb.UserRepository, rows []models.Production) ([]models.ProductionView, error) {
	views := make([]models.ProductionView, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	var machineIDs, userIDs []primitive.ObjectID
	for _, p := range rows {
		machineIDs = append(machineIDs, p.MachineID)
		userIDs = append(userIDs, p.OperatorID)
		if p.SupervisorID != nil {
			userIDs = append(userIDs, *p.SupervisorID)
		}
	}

	machines, err := machineRepo.FindByIDs(ctx, unique(machineIDs))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("populate machines: %w", err))
	}
	users, err := userRepo.FindByIDs(ctx, unique(userIDs))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("populate users: %w", err))
	}

	machineRefs := make(map[primitive.ObjectID]*models.MachineRef, len(machines))
	for _, m := range machines {
		machineRefs[m.ID] = &models.MachineRef{ID: m.ID, Name: m.Name, Code: m.Code, Tonnage: m.Tonnage}
	}
	userRefs := make(map[primitive.ObjectID]*models.UserRef, len(users))
	for _, u := range users {
		userRefs[u.ID] = &models.UserRef{ID: u.ID, Name: u.Name}
	}

	for i, p := range rows {
		views[i] = models.ProductionView{
			Production: p,
			Machine:    machineRefs[p.MachineID],
			Operator:   userRefs[p.OperatorID],
		}
		if p.SupervisorID != nil {
			views[i].Supervisor = userRefs[*p.SupervisorID]
		}
	}
	return views, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return page, limit
}

func unique(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
