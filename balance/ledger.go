/*
ledger.go - Balance mutations over a Store

PURPOSE:
  The Ledger applies read-modify-write mutations to one Record at a time.
  Each operation loads (or lazily creates) the (employee, year) record,
  validates the guard, mutates, and writes back through the Store.

OPERATIONS:
  Reserve       scheduled += days        (schedule becomes active)
  Release       scheduled -= days, >= 0  (schedule edited or deleted)
  Consume       used += days             (final approval of a request)
  RegisterTaken Release + Consume        (schedule -> registered)
  Rebook        Release(old) + Reserve(new) in one write (schedule edit)

GUARDS:
  When AllowNegative is false:
  - Reserve/Rebook require days <= AvailableForPlanning (after any release)
  - CheckRequestable requires days <= Remaining (immediate requests do not
    pre-reserve, so scheduled days are deliberately ignored here)

TRANSACTIONS:
  Each operation is a single Get+Put pair. Callers that need a balance
  mutation committed together with a status transition wrap both in the
  store's WithTx.

SEE ALSO:
  - balance.go: Record and derived quantities
  - store/sqlite: Persistent Store implementation
*/
package balance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// ErrRecordNotFound is returned by Store.Get for a missing (employee, year).
var ErrRecordNotFound = errors.New("balance record not found")

// Store persists balance records. Put is an upsert keyed on (employee, year).
type Store interface {
	Get(ctx context.Context, employeeID string, year int) (*Record, error)
	Put(ctx context.Context, record *Record) error
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger applies balance mutations. AllowNegative disables the guards that
// keep AvailableForPlanning and Remaining non-negative.
type Ledger struct {
	Store         Store
	AllowNegative bool
}

func NewLedger(store Store, allowNegative bool) *Ledger {
	return &Ledger{Store: store, AllowNegative: allowNegative}
}

// Record returns the (employee, year) record, creating a zeroed one on first
// use. Records are never deleted.
func (l *Ledger) Record(ctx context.Context, employeeID string, year int) (*Record, error) {
	rec, err := l.Store.Get(ctx, employeeID, year)
	if errors.Is(err, ErrRecordNotFound) {
		now := time.Now().UTC()
		rec = &Record{
			EmployeeID: employeeID,
			Year:       year,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := l.Store.Put(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to create balance record: %w", err)
		}
		return rec, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Peek returns the (employee, year) record without creating one: a missing
// record comes back zeroed but is not written. Query endpoints use this so a
// read never mints rows; mutations go through Record.
func (l *Ledger) Peek(ctx context.Context, employeeID string, year int) (*Record, error) {
	rec, err := l.Store.Get(ctx, employeeID, year)
	if errors.Is(err, ErrRecordNotFound) {
		return &Record{EmployeeID: employeeID, Year: year}, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Reserve holds days for an active schedule: scheduled += days.
func (l *Ledger) Reserve(ctx context.Context, employeeID string, year int, days decimal.Decimal) error {
	if err := validAmount(days); err != nil {
		return err
	}
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return err
	}
	if !l.AllowNegative && days.GreaterThan(rec.AvailableForPlanning()) {
		return &InsufficientBalanceError{
			EmployeeID: employeeID,
			Year:       year,
			Requested:  days,
			Available:  rec.AvailableForPlanning(),
			Check:      "available_for_planning",
		}
	}
	rec.ScheduledDays = rec.ScheduledDays.Add(days)
	return l.put(ctx, rec)
}

// Release returns previously reserved days: scheduled -= days, clamped at
// zero so an over-release can never drive the counter negative.
func (l *Ledger) Release(ctx context.Context, employeeID string, year int, days decimal.Decimal) error {
	if err := validAmount(days); err != nil {
		return err
	}
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return err
	}
	rec.ScheduledDays = rec.ScheduledDays.Sub(days)
	if rec.ScheduledDays.IsNegative() {
		rec.ScheduledDays = decimal.Zero
	}
	return l.put(ctx, rec)
}

// Consume spends days permanently: used += days. Called exactly once per
// request, at the final transition into approved.
func (l *Ledger) Consume(ctx context.Context, employeeID string, year int, days decimal.Decimal) error {
	if err := validAmount(days); err != nil {
		return err
	}
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return err
	}
	rec.UsedDays = rec.UsedDays.Add(days)
	return l.put(ctx, rec)
}

// RegisterTaken converts a reservation into consumption in one write:
// scheduled -= days (clamped), used += days.
func (l *Ledger) RegisterTaken(ctx context.Context, employeeID string, year int, days decimal.Decimal) error {
	if err := validAmount(days); err != nil {
		return err
	}
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return err
	}
	rec.ScheduledDays = rec.ScheduledDays.Sub(days)
	if rec.ScheduledDays.IsNegative() {
		rec.ScheduledDays = decimal.Zero
	}
	rec.UsedDays = rec.UsedDays.Add(days)
	return l.put(ctx, rec)
}

// Rebook swaps a reservation for a new amount in one write. The guard runs
// after the old amount is released, so an edit that shrinks or keeps the
// total always passes. Used by same-year schedule edits; cross-year moves
// use Release + Reserve on the two records instead.
func (l *Ledger) Rebook(ctx context.Context, employeeID string, year int, oldDays, newDays decimal.Decimal) error {
	if err := validAmount(newDays); err != nil {
		return err
	}
	if err := validAmount(oldDays); err != nil {
		return err
	}
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return err
	}
	rec.ScheduledDays = rec.ScheduledDays.Sub(oldDays)
	if rec.ScheduledDays.IsNegative() {
		rec.ScheduledDays = decimal.Zero
	}
	if !l.AllowNegative && newDays.GreaterThan(rec.AvailableForPlanning()) {
		return &InsufficientBalanceError{
			EmployeeID: employeeID,
			Year:       year,
			Requested:  newDays,
			Available:  rec.AvailableForPlanning(),
			Check:      "available_for_planning",
		}
	}
	rec.ScheduledDays = rec.ScheduledDays.Add(newDays)
	return l.put(ctx, rec)
}

// CheckRequestable is the pre-submission guard for immediate leave requests.
// Immediate requests check Remaining, not AvailableForPlanning: days already
// reserved by schedules are ignored. This mirrors the schedule/request
// asymmetry of the original system.
func (l *Ledger) CheckRequestable(ctx context.Context, employeeID string, year int, days decimal.Decimal) error {
	if err := validAmount(days); err != nil {
		return err
	}
	if l.AllowNegative {
		return nil
	}
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return err
	}
	if days.GreaterThan(rec.Remaining()) {
		return &InsufficientBalanceError{
			EmployeeID: employeeID,
			Year:       year,
			Requested:  days,
			Available:  rec.Remaining(),
			Check:      "remaining",
		}
	}
	return nil
}

// =============================================================================
// ADMINISTRATIVE OPERATIONS
// =============================================================================

// Grant sets the carryover and annual grant for a year.
func (l *Ledger) Grant(ctx context.Context, employeeID string, year int, start, yearly decimal.Decimal) (*Record, error) {
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	rec.StartBalance = start
	rec.YearlyBalance = yearly
	if err := l.put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Reset zeroes used and scheduled days. The record itself is kept.
func (l *Ledger) Reset(ctx context.Context, employeeID string, year int) error {
	rec, err := l.Record(ctx, employeeID, year)
	if err != nil {
		return err
	}
	rec.UsedDays = decimal.Zero
	rec.ScheduledDays = decimal.Zero
	return l.put(ctx, rec)
}

// =============================================================================
// HELPERS
// =============================================================================

func (l *Ledger) put(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()
	return l.Store.Put(ctx, rec)
}

func validAmount(days decimal.Decimal) error {
	if !days.IsPositive() {
		return fmt.Errorf("%w: %s days", ErrInvalidAmount, days)
	}
	return nil
}
