// Package mock provides in-memory implementations of the store interfaces
// for testing. Both stores support error injection so handlers and the
// ledger can be exercised on storage failure paths.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ankulpolara/face-attend/internal/database"
)

// MockEmployeeStore is an in-memory implementation of database.EmployeeStore.
type MockEmployeeStore struct {
	mu        sync.RWMutex
	employees map[int64]*database.Employee
	nextID    int64

	// Error injection
	ListError         error
	GetError          error
	GetByEmailError   error
	CreateError       error
	UpdateError       error
	DeleteError       error
	SetEmbeddingError error
}

// NewMockEmployeeStore creates a new empty mock employee store.
func NewMockEmployeeStore() *MockEmployeeStore {
	return &MockEmployeeStore{employees: make(map[int64]*database.Employee)}
}

// AddEmployee seeds the store and returns the assigned id.
func (m *MockEmployeeStore) AddEmployee(e database.Employee) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == 0 {
		m.nextID++
		e.ID = m.nextID
	} else if e.ID > m.nextID {
		m.nextID = e.ID
	}
	m.employees[e.ID] = &e
	return e.ID
}

func (m *MockEmployeeStore) sorted() []database.Employee {
	out := make([]database.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// List returns all employees ordered by id.
func (m *MockEmployeeStore) List(ctx context.Context) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(), nil
}

// ListEnrolled returns employees with embeddings ordered by id.
func (m *MockEmployeeStore) ListEnrolled(ctx context.Context) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Employee
	for _, e := range m.sorted() {
		if e.Enrolled() {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetEmbedding returns the embedding for an employee, nil if not enrolled.
func (m *MockEmployeeStore) GetEmbedding(ctx context.Context, employeeID int64) ([]float32, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.employees[employeeID]; ok {
		return e.Embedding, nil
	}
	return nil, nil
}

// Get retrieves an employee by id, nil when absent.
func (m *MockEmployeeStore) Get(ctx context.Context, id int64) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.employees[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, nil
}

// GetByEmail retrieves an employee by email, nil when absent.
func (m *MockEmployeeStore) GetByEmail(ctx context.Context, email string) (*database.Employee, error) {
	if m.GetByEmailError != nil {
		return nil, m.GetByEmailError
	}
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if e.Email == email {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

// SearchByName returns employees whose normalized name contains the query.
func (m *MockEmployeeStore) SearchByName(ctx context.Context, name string) ([]database.Employee, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := database.NormalizeEmployeeName(name)
	var out []database.Employee
	for _, e := range m.sorted() {
		if strings.Contains(database.NormalizeEmployeeName(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Create inserts a new employee.
func (m *MockEmployeeStore) Create(ctx context.Context, e *database.Employee) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *e
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	m.employees[stored.ID] = &stored
	return stored.ID, nil
}

// Update replaces an employee's mutable fields.
func (m *MockEmployeeStore) Update(ctx context.Context, e *database.Employee) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.employees[e.ID]
	if !ok {
		return fmt.Errorf("employee %d not found", e.ID)
	}
	existing.Name = e.Name
	existing.Email = e.Email
	existing.Department = e.Department
	if len(e.Embedding) > 0 {
		existing.Embedding = e.Embedding
	}
	return nil
}

// SetEmbedding replaces the employee's embedding.
func (m *MockEmployeeStore) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	if m.SetEmbeddingError != nil {
		return m.SetEmbeddingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return fmt.Errorf("employee %d not found", id)
	}
	e.Embedding = embedding
	return nil
}

// Delete removes an employee.
func (m *MockEmployeeStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, id)
	return nil
}

// Count returns the total number of employees.
func (m *MockEmployeeStore) Count(ctx context.Context) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.employees), nil
}

// CountEnrolled returns the number of employees with embeddings.
func (m *MockEmployeeStore) CountEnrolled(ctx context.Context) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.employees {
		if e.Enrolled() {
			n++
		}
	}
	return n, nil
}

// MockLedgerStore is an in-memory implementation of database.LedgerStore.
// Transact serializes callers per (employee, day) key with a keyed mutex,
// the same guarantee the Postgres store gets from advisory locks.
type MockLedgerStore struct {
	mu        sync.Mutex
	sessions  []*database.AttendanceSession
	nextID    int64
	keyLocks  map[string]*sync.Mutex
	employees map[int64]mockEmployeeInfo

	// Error injection
	TransactError error
	LatestError   error
	CreateError   error
	CloseError    error
	SetEnterError error
	ListError     error
}

type mockEmployeeInfo struct {
	name       string
	department string
}

// NewMockLedgerStore creates a new empty mock ledger store.
func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{
		keyLocks:  make(map[string]*sync.Mutex),
		employees: make(map[int64]mockEmployeeInfo),
	}
}

// SetEmployeeInfo seeds the employee data used for listing joins.
func (m *MockLedgerStore) SetEmployeeInfo(id int64, name, department string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[id] = mockEmployeeInfo{name: name, department: department}
}

// Sessions returns a snapshot of all persisted sessions ordered by id.
func (m *MockLedgerStore) Sessions() []database.AttendanceSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]database.AttendanceSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddSession seeds a session row directly (e.g. an anomalous one) and
// returns its id.
func (m *MockLedgerStore) AddSession(s database.AttendanceSession) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.sessions = append(m.sessions, &s)
	return s.ID
}

func (m *MockLedgerStore) keyLock(employeeID int64, day database.CivilDate) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d/%s", employeeID, day)
	l, ok := m.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		m.keyLocks[key] = l
	}
	return l
}

// Transact runs fn under the per-key mutex.
func (m *MockLedgerStore) Transact(ctx context.Context, employeeID int64, day database.CivilDate, fn func(database.LedgerTx) error) error {
	if m.TransactError != nil {
		return m.TransactError
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := m.keyLock(employeeID, day)
	l.Lock()
	defer l.Unlock()

	return fn(&mockLedgerTx{store: m})
}

type mockLedgerTx struct {
	store *MockLedgerStore
}

// Latest returns the newest session for the pair and reports two
// simultaneously open rows as inconsistent state.
func (t *mockLedgerTx) Latest(ctx context.Context, employeeID int64, day database.CivilDate) (*database.AttendanceSession, error) {
	m := t.store
	if m.LatestError != nil {
		return nil, m.LatestError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *database.AttendanceSession
	openCount := 0
	for _, s := range m.sessions {
		if s.EmployeeID != employeeID || s.Date != day {
			continue
		}
		if s.Open() {
			openCount++
		}
		if latest == nil || s.ID > latest.ID {
			latest = s
		}
	}
	if openCount > 1 {
		return nil, database.ErrInconsistentState
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

// Create inserts a new open session.
func (t *mockLedgerTx) Create(ctx context.Context, employeeID int64, day database.CivilDate, enter time.Time) (*database.AttendanceSession, error) {
	m := t.store
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s := &database.AttendanceSession{
		ID:         m.nextID,
		EmployeeID: employeeID,
		Date:       day,
		CheckIn:    &enter,
	}
	m.sessions = append(m.sessions, s)
	c := *s
	return &c, nil
}

// Close sets the check-out time on a session.
func (t *mockLedgerTx) Close(ctx context.Context, sessionID int64, leave time.Time) (*database.AttendanceSession, error) {
	m := t.store
	if m.CloseError != nil {
		return nil, m.CloseError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == sessionID {
			s.CheckOut = &leave
			c := *s
			return &c, nil
		}
	}
	return nil, fmt.Errorf("session %d not found", sessionID)
}

// SetEnter sets the check-in time on a session (anomaly repair).
func (t *mockLedgerTx) SetEnter(ctx context.Context, sessionID int64, enter time.Time) (*database.AttendanceSession, error) {
	m := t.store
	if m.SetEnterError != nil {
		return nil, m.SetEnterError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == sessionID {
			s.CheckIn = &enter
			c := *s
			return &c, nil
		}
	}
	return nil, fmt.Errorf("session %d not found", sessionID)
}

// List returns joined records restricted by the filter, newest day first,
// employee name ascending within a day.
func (m *MockLedgerStore) List(ctx context.Context, filter *database.AttendanceFilter, limit int) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []database.AttendanceRecord
	for _, s := range m.sessions {
		info := m.employees[s.EmployeeID]
		rec := database.AttendanceRecord{
			AttendanceSession: *s,
			EmployeeName:      info.name,
			Department:        info.department,
		}
		if filter.Matches(&rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountOnDay returns the number of sessions on a civil day.
func (m *MockLedgerStore) CountOnDay(ctx context.Context, day database.CivilDate) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.Date == day {
			n++
		}
	}
	return n, nil
}

// CountOpen returns the number of open sessions on a civil day.
func (m *MockLedgerStore) CountOpen(ctx context.Context, day database.CivilDate) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.Date == day && s.Open() {
			n++
		}
	}
	return n, nil
}
