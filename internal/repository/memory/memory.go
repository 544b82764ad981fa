// Package memory provides map-backed implementations of the mongodb
// repository interfaces. Service and handler tests run against it.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
)

// Store holds every collection behind one mutex.
type Store struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]models.User
	machines    map[primitive.ObjectID]models.Machine
	productions map[primitive.ObjectID]models.Production
	snapshots   map[string]models.DailyReportSnapshot
	Now         func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       map[primitive.ObjectID]models.User{},
		machines:    map[primitive.ObjectID]models.Machine{},
		productions: map[primitive.ObjectID]models.Production{},
		snapshots:   map[string]models.DailyReportSnapshot{},
		Now:         time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *Users { return &Users{s: s} }

// Machines returns the machine repository view of the store.
func (s *Store) Machines() *Machines { return &Machines{s: s} }

// Productions returns the production repository view of the store.
func (s *Store) Productions() *Productions { return &Productions{s: s} }

// Reports returns the report repository view of the store.
func (s *Store) Reports() *Reports { return &Reports{s: s} }

// Snapshot returns the saved daily report for day, if any.
func (s *Store) Snapshot(day string) (models.DailyReportSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[day]
	return snap, ok
}

var (
	_ mongodb.UserRepository       = (*Users)(nil)
	_ mongodb.MachineRepository    = (*Machines)(nil)
	_ mongodb.ProductionRepository = (*Productions)(nil)
	_ mongodb.ReportRepository     = (*Reports)(nil)
)

// Users implements mongodb.UserRepository.
type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.Email = mongodb.NormalizeEmail(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return mongodb.ErrDuplicateKey
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.MachineIDs == nil {
		u.MachineIDs = []primitive.ObjectID{}
	}
	now := r.s.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	return &u, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = mongodb.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (r *Users) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *Users) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.User{}
	for _, u := range r.s.users {
		if filter.Matches(u) {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *Users) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	users, err := r.List(ctx, filter)
	return int64(len(users)), err
}

func (r *Users) ExistsByEmailOrPhone(_ context.Context, email, phone string, exclude *primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = mongodb.NormalizeEmail(email)
	phone = strings.TrimSpace(phone)
	for id, u := range r.s.users {
		if exclude != nil && id == *exclude {
			continue
		}
		if (email != "" && u.Email == email) || (phone != "" && u.Phone == phone) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Users) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return mongodb.ErrNotFound
	}
	u.Email = mongodb.NormalizeEmail(u.Email)
	u.UpdatedAt = r.s.Now().UTC()
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return mongodb.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *Users) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users = map[primitive.ObjectID]models.User{}
	return nil
}

// Machines implements mongodb.MachineRepository.
type Machines struct{ s *Store }

func (r *Machines) Create(_ context.Context, m *models.Machine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.Code = mongodb.NormalizeCode(m.Code)
	for _, existing := range r.s.machines {
		if existing.Code == m.Code {
			return mongodb.ErrDuplicateKey
		}
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	now := r.s.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	r.s.machines[m.ID] = *m
	return nil
}

func (r *Machines) FindByID(_ context.Context, id primitive.ObjectID) (*models.Machine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.machines[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	return &m, nil
}

func (r *Machines) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Machine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Machine{}
	for _, id := range ids {
		if m, ok := r.s.machines[id]; ok {
			out = append(out, m)
		}
	}
	sortMachines(out)
	return out, nil
}

func (r *Machines) List(_ context.Context, activeOnly bool) ([]models.Machine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Machine{}
	for _, m := range r.s.machines {
		if !activeOnly || m.IsActive {
			out = append(out, m)
		}
	}
	sortMachines(out)
	return out, nil
}

func (r *Machines) Count(ctx context.Context, activeOnly bool) (int64, error) {
	machines, err := r.List(ctx, activeOnly)
	return int64(len(machines)), err
}

func (r *Machines) ExistsByCode(_ context.Context, code string, exclude *primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code = mongodb.NormalizeCode(code)
	for id, m := range r.s.machines {
		if exclude != nil && id == *exclude {
			continue
		}
		if m.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *Machines) Update(_ context.Context, m *models.Machine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.machines[m.ID]; !ok {
		return mongodb.ErrNotFound
	}
	m.Code = mongodb.NormalizeCode(m.Code)
	m.UpdatedAt = r.s.Now().UTC()
	r.s.machines[m.ID] = *m
	return nil
}

func (r *Machines) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.machines[id]; !ok {
		return mongodb.ErrNotFound
	}
	delete(r.s.machines, id)
	return nil
}

func (r *Machines) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.machines = map[primitive.ObjectID]models.Machine{}
	return nil
}

// Productions implements mongodb.ProductionRepository.
type Productions struct{ s *Store }

func (r *Productions) Create(_ context.Context, p *models.Production) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := r.s.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Date.IsZero() {
		p.Date = now
	}
	p.RecomputeTotalWeight()
	r.s.productions[p.ID] = *p
	return nil
}

func (r *Productions) FindByID(_ context.Context, id primitive.ObjectID) (*models.Production, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.productions[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	return &p, nil
}

func (r *Productions) List(_ context.Context, q models.ProductionQuery) ([]models.Production, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := r.s.match(q)
	total := int64(len(matched))
	if q.Limit > 0 {
		start := q.Skip()
		if start > len(matched) {
			start = len(matched)
		}
		end := start + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *Productions) Update(_ context.Context, p *models.Production) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.productions[p.ID]; !ok {
		return mongodb.ErrNotFound
	}
	p.UpdatedAt = r.s.Now().UTC()
	p.RecomputeTotalWeight()
	r.s.productions[p.ID] = *p
	return nil
}

func (r *Productions) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.productions[id]; !ok {
		return mongodb.ErrNotFound
	}
	delete(r.s.productions, id)
	return nil
}

func (r *Productions) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.productions = map[primitive.ObjectID]models.Production{}
	return nil
}

// Reports implements mongodb.ReportRepository.
type Reports struct{ s *Store }

func (r *Reports) Totals(_ context.Context, q models.ProductionQuery) (models.Totals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var t models.Totals
	for _, p := range r.s.match(q) {
		add(&t, p)
	}
	return t, nil
}

func (r *Reports) TotalsByShift(_ context.Context, q models.ProductionQuery) ([]models.ShiftTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byShift := map[models.Shift]*models.ShiftTotals{}
	for _, p := range r.s.match(q) {
		st, ok := byShift[p.Shift]
		if !ok {
			st = &models.ShiftTotals{Shift: p.Shift}
			byShift[p.Shift] = st
		}
		add(&st.Totals, p)
	}
	out := []models.ShiftTotals{}
	for _, st := range byShift {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shift < out[j].Shift })
	return out, nil
}

func (r *Reports) SaveDailyReport(_ context.Context, report models.DailyReportSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.snapshots[report.Day] = report
	return nil
}

// match must be called with mu held.
func (s *Store) match(q models.ProductionQuery) []models.Production {
	out := []models.Production{}
	for _, p := range s.productions {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Sort == models.SortByShift {
			if a.Shift != b.Shift {
				return a.Shift < b.Shift
			}
			return a.Date.Before(b.Date)
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

func add(t *models.Totals, p models.Production) {
	t.TotalProductions++
	t.TotalWeight += p.TotalWeight
	t.TotalPieces += int64(p.TotalPieces)
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
}

func sortMachines(machines []models.Machine) {
	sort.Slice(machines, func(i, j int) bool { return machines[i].Name < machines[j].Name })
}
