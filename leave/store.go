/*
store.go - Persistence interfaces for the leave workflows

PURPOSE:
  Defines what the workflows need from storage. Implementations live in
  store/sqlite (production) and store/memory (tests/dev).

TRANSACTIONS:
  TxRunner is an optional capability. When a store implements it, the
  services wrap each status transition and its ledger mutation in one
  transaction so they commit together or not at all. Stores without it
  (the in-memory store) apply writes sequentially, which is acceptable for
  tests. The conflict check is re-run inside the transaction by virtue of
  running the whole operation there; the persistence layer's row locking
  serializes concurrent submissions for the same employee.
*/
package leave

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

// EmployeeStore resolves employees (directory slice the workflows need).
type EmployeeStore interface {
	Employee(ctx context.Context, id string) (*Employee, error)
	PutEmployee(ctx context.Context, e *Employee) error
	ListEmployees(ctx context.Context) ([]*Employee, error)
}

// TypeStore resolves leave types.
type TypeStore interface {
	Type(ctx context.Context, id string) (*Type, error)
	PutType(ctx context.Context, t *Type) error
	ListTypes(ctx context.Context) ([]*Type, error)
}

// RequestStore persists leave requests. Put is an upsert on ID.
type RequestStore interface {
	PutRequest(ctx context.Context, r *Request) error
	Request(ctx context.Context, id string) (*Request, error)

	// ActiveRequests returns the employee's non-deleted requests in an
	// active status (pending any stage, or approved).
	ActiveRequests(ctx context.Context, employeeID string) ([]*Request, error)

	// PendingRequests returns all non-deleted requests waiting on a stage.
	PendingRequests(ctx context.Context) ([]*Request, error)

	// RequestsByEmployee returns all non-deleted requests for an employee.
	RequestsByEmployee(ctx context.Context, employeeID string) ([]*Request, error)
}

// ScheduleStore persists leave schedules. Put is an upsert on ID.
type ScheduleStore interface {
	PutSchedule(ctx context.Context, s *Schedule) error
	Schedule(ctx context.Context, id string) (*Schedule, error)

	// ScheduledByEmployee returns the employee's non-deleted schedules in
	// "scheduled" status (the only schedule status the conflict detector
	// counts).
	ScheduledByEmployee(ctx context.Context, employeeID string) ([]*Schedule, error)

	// SchedulesByEmployee returns all non-deleted schedules for an employee.
	SchedulesByEmployee(ctx context.Context, employeeID string) ([]*Schedule, error)
}

// =============================================================================
// OPTIONAL CAPABILITIES
// =============================================================================

// TxRunner executes fn inside a storage transaction. The context passed to
// fn carries the transaction; store calls made with it join the transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// runInTx uses the store's transaction support when available and falls back
// to plain execution otherwise.
func runInTx(ctx context.Context, store any, fn func(ctx context.Context) error) error {
	if tr, ok := store.(TxRunner); ok {
		return tr.WithTx(ctx, fn)
	}
	return fn(ctx)
}
