package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/identity"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
)

const (
	// MinPasswordLength is the shortest password accepted on register and user create.
	MinPasswordLength = 6

	msgInvalidCredentials = "invalid email or password"
	msgSessionExpired     = "unauthorized - please login again"
)

// Claims are the custom claims embedded in every session token.
type Claims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Name   string      `json:"name"`
	jwt.RegisteredClaims
}

// Profile is the public view of the signed-in account.
type Profile struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Phone    string             `json:"phone"`
	Role     models.Role        `json:"role"`
	IsActive bool               `json:"isActive"`
}

// LoginResult is returned by Login and Register.
type LoginResult struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// RegisterInput is a self-service sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Service verifies credentials and issues and validates session tokens.
type Service struct {
	users  mongodb.UserRepository
	hasher Hasher
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new auth service instance.
func NewService(users mongodb.UserRepository, hasher Hasher, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:  users,
		hasher: hasher,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		logger: logger,
		now:    time.Now,
	}
}

// Login checks email and password and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil, apperr.Authentication(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load user for login: %w", err))
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.logger.Info("login rejected", zap.String("email", user.Email), zap.String("reason", "password mismatch"))
		return nil, apperr.Authentication(msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, apperr.Authentication("this account is disabled")
	}

	return s.result(user)
}

// Register creates an operator account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return nil, apperr.Validation("name, email, password and phone are required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	exists, err := s.users.ExistsByEmailOrPhone(ctx, in.Email, in.Phone, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.Conflict("user already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         models.RoleOperator,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, mongodb.ErrDuplicateKey) {
			return nil, apperr.Conflict("user already exists")
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return s.result(user)
}

// Authenticate validates a token and reloads its user. Tokens of deleted or
// disabled accounts are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.Identity, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return identity.Identity{}, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return identity.Identity{}, apperr.Authentication(msgSessionExpired)
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return identity.Identity{}, apperr.Authentication(msgSessionExpired)
	}
	if err != nil {
		return identity.Identity{}, apperr.Internal(fmt.Errorf("load session user: %w", err))
	}
	if !user.IsActive {
		return identity.Identity{}, apperr.Authentication(msgSessionExpired)
	}

	return identity.FromUser(user), nil
}

// CurrentUser returns the profile of the given account.
func (s *Service) CurrentUser(ctx context.Context, id primitive.ObjectID) (*Profile, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	p := profileOf(user)
	return &p, nil
}

// IssueToken signs an HS256 token for user.
func (s *Service) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature and expiry and returns the claims.
func (s *Service) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, apperr.Authentication(msgSessionExpired)
	}
	return claims, nil
}

func (s *Service) result(user *models.User) (*LoginResult, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResult{Token: token, User: profileOf(user)}, nil
}

func profileOf(u *models.User) Profile {
	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
