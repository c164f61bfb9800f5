// Package memory provides an in-memory store implementation (for tests/dev).
package memory

import (
	"context"
	"sync"

	"github.com/warp/leave-engine/balance"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - Implements every store interface the engine consumes
// =============================================================================

type Store struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	employees map[string]leave.Employee
	types     map[string]leave.Type
	requests  map[string]leave.Request
	schedules map[string]leave.Schedule
	balances  map[balanceKey]balance.Record
	audit     []leave.AuditEntry
}

type txKey struct{}

type balanceKey struct {
	EmployeeID string
	Year       int
}

func New() *Store {
	return &Store{
		employees: make(map[string]leave.Employee),
		types:     make(map[string]leave.Type),
		requests:  make(map[string]leave.Request),
		schedules: make(map[string]leave.Schedule),
		balances:  make(map[balanceKey]balance.Record),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx serializes the callback against other WithTx calls so the services'
// in-transaction re-checks observe committed state. No rollback: writes apply
// as they happen. Nested calls join the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) Employee(_ context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, leave.ErrEmployeeNotFound
	}
	return &e, nil
}

func (s *Store) PutEmployee(_ context.Context, e *leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = *e
	return nil
}

func (s *Store) ListEmployees(_ context.Context) ([]*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*leave.Employee, 0, len(s.employees))
	for id := range s.employees {
		e := s.employees[id]
		out = append(out, &e)
	}
	return out, nil
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) Type(_ context.Context, id string) (*leave.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.types[id]
	if !ok {
		return nil, leave.ErrTypeNotFound
	}
	return &t, nil
}

func (s *Store) PutType(_ context.Context, t *leave.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[t.ID] = *t
	return nil
}

func (s *Store) ListTypes(_ context.Context) ([]*leave.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*leave.Type, 0, len(s.types))
	for id := range s.types {
		t := s.types[id]
		out = append(out, &t)
	}
	return out, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) PutRequest(_ context.Context, r *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) Request(_ context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	return &r, nil
}

func (s *Store) ActiveRequests(_ context.Context, employeeID string) ([]*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.Request
	for id := range s.requests {
		r := s.requests[id]
		if r.EmployeeID == employeeID && !r.Deleted && r.Status.Active() {
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *Store) PendingRequests(_ context.Context) ([]*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.Request
	for id := range s.requests {
		r := s.requests[id]
		if !r.Deleted && r.Status.Pending() {
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *Store) RequestsByEmployee(_ context.Context, employeeID string) ([]*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.Request
	for id := range s.requests {
		r := s.requests[id]
		if r.EmployeeID == employeeID && !r.Deleted {
			out = append(out, &r)
		}
	}
	return out, nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (s *Store) PutSchedule(_ context.Context, sc *leave.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sc.ID] = *sc
	return nil
}

func (s *Store) Schedule(_ context.Context, id string) (*leave.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schedules[id]
	if !ok {
		return nil, leave.ErrScheduleNotFound
	}
	return &sc, nil
}

func (s *Store) ScheduledByEmployee(_ context.Context, employeeID string) ([]*leave.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.Schedule
	for id := range s.schedules {
		sc := s.schedules[id]
		if sc.EmployeeID == employeeID && !sc.Deleted && sc.Status == leave.ScheduleScheduled {
			out = append(out, &sc)
		}
	}
	return out, nil
}

func (s *Store) SchedulesByEmployee(_ context.Context, employeeID string) ([]*leave.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.Schedule
	for id := range s.schedules {
		sc := s.schedules[id]
		if sc.EmployeeID == employeeID && !sc.Deleted {
			out = append(out, &sc)
		}
	}
	return out, nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) Get(_ context.Context, employeeID string, year int) (*balance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.balances[balanceKey{EmployeeID: employeeID, Year: year}]
	if !ok {
		return nil, balance.ErrRecordNotFound
	}
	return &rec, nil
}

func (s *Store) Put(_ context.Context, rec *balance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{EmployeeID: rec.EmployeeID, Year: rec.Year}] = *rec
	return nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (s *Store) Append(_ context.Context, entry leave.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

// AuditEntries returns a copy of everything appended so far.
func (s *Store) AuditEntries() []leave.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]leave.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
