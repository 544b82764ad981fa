package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/identity"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
	"github.com/mamadbah2/prodtrack/internal/service/auth"
)

const msgUserExists = "user already exists"

// Input carries the writable user fields. Nil pointers on update keep the
// stored value.
type Input struct {
	Name       *string
	Email      *string
	Phone      *string
	Password   *string
	Role       *models.Role
	MachineIDs []primitive.ObjectID
	IsActive   *bool
}

// Service manages user accounts on behalf of admins and supervisors.
type Service struct {
	users    mongodb.UserRepository
	machines mongodb.MachineRepository
	hasher   auth.Hasher
	logger   *zap.Logger
}

// NewService wires a new user service instance.
func NewService(users mongodb.UserRepository, machines mongodb.MachineRepository, hasher auth.Hasher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, machines: machines, hasher: hasher, logger: logger}
}

// List returns users sorted by name. Supervisors only ever see operators.
func (s *Service) List(ctx context.Context, caller identity.Identity, filter models.UserFilter) ([]models.User, error) {
	if caller.Role == models.RoleSupervisor {
		operator := models.RoleOperator
		if filter.Role != nil && *filter.Role != operator {
			return []models.User{}, nil
		}
		filter.Role = &operator
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load user: %w", err))
	}
	return user, nil
}

// Create validates and stores a new account.
func (s *Service) Create(ctx context.Context, in Input) (*models.User, error) {
	if blank(in.Name) || blank(in.Email) || blank(in.Phone) || in.Password == nil || *in.Password == "" {
		return nil, apperr.Validation("name, email, password and phone are required")
	}

	user := &models.User{Role: models.RoleOperator, IsActive: true, MachineIDs: []primitive.ObjectID{}}
	if err := s.apply(ctx, user, in); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmailOrPhone(ctx, user.Email, user.Phone, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check user uniqueness: %w", err))
	}
	if exists {
		return nil, apperr.Conflict(msgUserExists)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, writeError("create user", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID.Hex()), zap.String("role", string(user.Role)))
	return user, nil
}

// Update applies the provided fields to an existing account. A new password
// is hashed before it is stored.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Input) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	email, phone := user.Email, user.Phone
	if err := s.apply(ctx, user, in); err != nil {
		return nil, err
	}

	var checkEmail, checkPhone string
	if user.Email != email {
		checkEmail = user.Email
	}
	if user.Phone != phone {
		checkPhone = user.Phone
	}
	if checkEmail != "" || checkPhone != "" {
		exists, err := s.users.ExistsByEmailOrPhone(ctx, checkEmail, checkPhone, &user.ID)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("check user uniqueness: %w", err))
		}
		if exists {
			return nil, apperr.Conflict(msgUserExists)
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, writeError("update user", err)
	}
	return user, nil
}

// Delete removes an account. Productions referencing it are kept.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete user: %w", err))
	}
	s.logger.Info("user deleted", zap.String("user_id", id.Hex()))
	return nil
}

func (s *Service) apply(ctx context.Context, u *models.User, in Input) error {
	if in.Name != nil {
		if blank(in.Name) {
			return apperr.Validation("name must not be empty")
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := mongodb.NormalizeEmail(*in.Email)
		if !strings.Contains(email, "@") {
			return apperr.ValidationFields("invalid user", map[string]string{"email": "must be a valid email address"})
		}
		u.Email = email
	}
	if in.Phone != nil {
		if blank(in.Phone) {
			return apperr.Validation("phone must not be empty")
		}
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return apperr.ValidationFields("invalid user", map[string]string{"role": "must be one of admin, supervisor, operator"})
		}
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if len(*in.Password) < auth.MinPasswordLength {
			return apperr.Validation(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return apperr.Internal(err)
		}
		u.PasswordHash = hash
	}
	if in.MachineIDs != nil {
		if err := s.checkMachines(ctx, in.MachineIDs); err != nil {
			return err
		}
		u.MachineIDs = dedupe(in.MachineIDs)
	}
	return nil
}

func (s *Service) checkMachines(ctx context.Context, ids []primitive.ObjectID) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	found, err := s.machines.FindByIDs(ctx, ids)
	if err != nil {
		return apperr.Internal(fmt.Errorf("load assigned machines: %w", err))
	}
	if len(found) != len(ids) {
		return apperr.ValidationFields("invalid user", map[string]string{"machineIds": "references an unknown machine"})
	}
	return nil
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
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

func writeError(op string, err error) error {
	switch {
	case errors.Is(err, mongodb.ErrDuplicateKey):
		return apperr.Conflict(msgUserExists)
	case errors.Is(err, mongodb.ErrNotFound):
		return apperr.NotFound("user not found")
	default:
		return apperr.Internal(fmt.Errorf("%s: %w", op, err))
	}
}
