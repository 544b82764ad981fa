// Package seed fills an empty database with demo accounts, machines and a
// month of production records.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
	"github.com/mamadbah2/prodtrack/internal/service/auth"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "abc@123"

// ErrAlreadySeeded is returned when accounts exist and Reset is not set.
var ErrAlreadySeeded = errors.New("database already contains users, rerun with --reset")

var shifts = []models.Shift{models.ShiftMorning, models.ShiftEvening, models.ShiftNight}

type userSeed struct {
	name, email, phone string
	role               models.Role
	machines           []string
}

var userSeeds = []userSeed{
	{name: "Admin User", email: "admin@example.com", phone: "03001234567", role: models.RoleAdmin},
	{name: "Ahmed Khan", email: "ahmed@example.com", phone: "03001234568", role: models.RoleAdmin},
	{name: "Supervisor One", email: "supervisor1@example.com", phone: "03002234567", role: models.RoleSupervisor, machines: []string{"MCH-001", "MCH-002"}},
	{name: "Ali Hassan", email: "ali@example.com", phone: "03002234568", role: models.RoleSupervisor, machines: []string{"MCH-003", "MCH-004"}},
	{name: "Operator One", email: "operator1@example.com", phone: "03003334567", role: models.RoleOperator},
	{name: "Operator Two", email: "operator2@example.com", phone: "03003334568", role: models.RoleOperator},
	{name: "Hussain Ali", email: "hussain@example.com", phone: "03003334569", role: models.RoleOperator},
	{name: "Zubair Ahmed", email: "zubair@example.com", phone: "03003334570", role: models.RoleOperator},
}

var machineSeeds = []models.Machine{
	{Name: "Machine A1", Code: "MCH-001", Tonnage: 10, Location: "Floor 1 - Section A", Description: "cutting", IsActive: true},
	{Name: "Machine B2", Code: "MCH-002", Tonnage: 8, Location: "Floor 1 - Section B", Description: "molding", IsActive: true},
	{Name: "Machine C3", Code: "MCH-003", Tonnage: 12, Location: "Floor 2 - Section A", Description: "cutting", IsActive: true},
	{Name: "Machine D4", Code: "MCH-004", Tonnage: 5, Location: "Floor 2 - Section C", Description: "packaging", IsActive: true},
	{Name: "Machine E5", Code: "MCH-005", Tonnage: 9, Location: "Floor 1 - Section B", Description: "molding, under maintenance", IsActive: false},
}

// Options controls a seeding run.
type Options struct {
	Reset bool
	// Days of history to generate, ending today.
	Days int
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Machines    int
	Productions int
}

// Seeder writes demo data through the repositories.
type Seeder struct {
	users       mongodb.UserRepository
	machines    mongodb.MachineRepository
	productions mongodb.ProductionRepository
	hasher      auth.Hasher
	loc         *time.Location
	logger      *zap.Logger
	rand        *rand.Rand
	now         func() time.Time
}

// NewSeeder wires a seeder. Dates are generated in loc.
func NewSeeder(users mongodb.UserRepository, machines mongodb.MachineRepository, productions mongodb.ProductionRepository, hasher auth.Hasher, loc *time.Location, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{
		users:       users,
		machines:    machines,
		productions: productions,
		hasher:      hasher,
		loc:         loc,
		logger:      logger,
		rand:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:         time.Now,
	}
}

// Run seeds users, machines and productions.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Days <= 0 {
		opts.Days = 30
	}

	if opts.Reset {
		if err := s.clear(ctx); err != nil {
			return Summary{}, err
		}
		s.logger.Info("existing data cleared")
	} else {
		n, err := s.users.Count(ctx, models.UserFilter{})
		if err != nil {
			return Summary{}, fmt.Errorf("count users: %w", err)
		}
		if n > 0 {
			return Summary{}, ErrAlreadySeeded
		}
	}

	machines, err := s.seedMachines(ctx)
	if err != nil {
		return Summary{}, err
	}
	operators, total, err := s.seedUsers(ctx, machines)
	if err != nil {
		return Summary{}, err
	}
	count, err := s.seedProductions(ctx, opts.Days, machines, operators)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Users: total, Machines: len(machines), Productions: count}
	s.logger.Info("database seeded",
		zap.Int("users", summary.Users),
		zap.Int("machines", summary.Machines),
		zap.Int("productions", summary.Productions))
	return summary, nil
}

func (s *Seeder) clear(ctx context.Context) error {
	if err := s.productions.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear productions: %w", err)
	}
	if err := s.machines.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear machines: %w", err)
	}
	if err := s.users.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}

func (s *Seeder) seedMachines(ctx context.Context) (map[string]models.Machine, error) {
	out := make(map[string]models.Machine, len(machineSeeds))
	for _, seed := range machineSeeds {
		m := seed
		if err := s.machines.Create(ctx, &m); err != nil {
			return nil, fmt.Errorf("create machine %s: %w", m.Code, err)
		}
		out[m.Code] = m
	}
	return out, nil
}

func (s *Seeder) seedUsers(ctx context.Context, machines map[string]models.Machine) ([]models.User, int, error) {
	hash, err := s.hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, 0, fmt.Errorf("hash seed password: %w", err)
	}

	var operators []models.User
	for _, seed := range userSeeds {
		u := models.User{
			Name:         seed.name,
			Email:        seed.email,
			Phone:        seed.phone,
			PasswordHash: hash,
			Role:         seed.role,
			MachineIDs:   []primitive.ObjectID{},
			IsActive:     true,
		}
		for _, code := range seed.machines {
			u.MachineIDs = append(u.MachineIDs, machines[code].ID)
		}
		if err := s.users.Create(ctx, &u); err != nil {
			return nil, 0, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		if u.Role == models.RoleOperator {
			operators = append(operators, u)
		}
	}
	return operators, len(userSeeds), nil
}

// seedProductions writes two to four records per day on active machines.
func (s *Seeder) seedProductions(ctx context.Context, days int, machines map[string]models.Machine, operators []models.User) (int, error) {
	var active []models.Machine
	for _, seed := range machineSeeds {
		if m := machines[seed.Code]; m.IsActive {
			active = append(active, m)
		}
	}
	if len(active) == 0 || len(operators) == 0 {
		return 0, nil
	}

	today := s.now().In(s.loc)
	count := 0
	for day := days; day >= 0; day-- {
		date := today.AddDate(0, 0, -day)
		entries := 2 + s.rand.IntN(3)
		for i := 0; i < entries; i++ {
			machine := active[s.rand.IntN(len(active))]
			operator := operators[s.rand.IntN(len(operators))]
			pieces := 100 + s.rand.IntN(500)
			weight := math.Round((0.5+s.rand.Float64()*2)*100) / 100

			p := &models.Production{
				MachineID:        machine.ID,
				OperatorID:       operator.ID,
				ProductName:      fmt.Sprintf("Product %c", 'A'+rune(s.rand.IntN(5))),
				ContractQuantity: pieces + s.rand.IntN(100),
				PieceWeight:      weight,
				TotalPieces:      pieces,
				Shift:            shifts[s.rand.IntN(len(shifts))],
				Notes:            fmt.Sprintf("BATCH-%s-%d", date.Format("20060102"), i+1),
				Date:             date,
			}
			p.RecomputeTotalWeight()
			if err := s.productions.Create(ctx, p); err != nil {
				return count, fmt.Errorf("create production: %w", err)
			}
			count++
		}
	}
	return count, nil
}
