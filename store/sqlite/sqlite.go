/*
Package sqlite provides the SQLite-backed implementation of every storage
interface the leave engine consumes.

PURPOSE:
  One Store implements:

    leave.EmployeeStore / leave.TypeStore
    leave.RequestStore / leave.ScheduleStore
    leave.TxRunner
    balance.Store
    leave.AuditSink
    calendar configuration persistence

  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

TRANSACTIONS:
  WithTx begins a database transaction and stores the *sql.Tx in the
  context. Every store method resolves its executor from the context, so
  calls made inside the WithTx callback join the transaction. A status
  transition and its balance mutation commit together or not at all, and
  the conflict re-check runs under the same transaction as the write.

SOFT DELETION:
  Requests and schedules are never hard-deleted; the deleted flag is part
  of every listing predicate. The audit log is append-only.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: Interface definitions
  - store/memory:   In-memory implementation used by unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/balance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		manager_id TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		region_b_only INTEGER NOT NULL DEFAULT 0,
		half_day_capable INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS non_working_days (
		region TEXT NOT NULL,
		date TEXT NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (region, date)
	);

	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		start_balance TEXT NOT NULL,
		yearly_balance TEXT NOT NULL,
		used_days TEXT NOT NULL,
		scheduled_days TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, year)
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		region TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		half_day INTEGER NOT NULL DEFAULT 0,
		half_day_from TEXT,
		half_day_to TEXT,
		days TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		chain_json TEXT NOT NULL,
		stage_index INTEGER NOT NULL DEFAULT 0,
		manager_approval_json TEXT,
		regional_approval_json TEXT,
		hr_approval_json TEXT,
		rejection_json TEXT,
		deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_employee_status
		ON requests(employee_id, status) WHERE deleted = 0;
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status) WHERE deleted = 0;

	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		region TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days TEXT NOT NULL,
		status TEXT NOT NULL,
		manager_approval_json TEXT,
		edit_count INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		updated_by TEXT NOT NULL,
		deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_employee
		ON schedules(employee_id);
	CREATE INDEX IF NOT EXISTS idx_schedules_employee_status
		ON schedules(employee_id, status) WHERE deleted = 0;

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT,
		comment TEXT,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity
		ON audit_log(entity_type, entity_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS - context-carried *sql.Tx
// =============================================================================

type txKey struct{}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exec(ctx context.Context) executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// WithTx runs fn inside a database transaction. Store calls made with the
// context passed to fn join the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) PutEmployee(ctx context.Context, e *leave.Employee) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO employees (id, name, email, manager_id, region, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			manager_id = excluded.manager_id,
			region = excluded.region`,
		e.ID, e.Name, e.Email, e.ManagerID, string(e.Region), fmtTime(e.CreatedAt))
	return errors.Wrap(err, "failed to store employee")
}

func (s *Store) Employee(ctx context.Context, id string) (*leave.Employee, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT id, name, email, manager_id, region, created_at
		FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context) ([]*leave.Employee, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, name, email, manager_id, region, created_at
		FROM employees ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list employees")
	}
	defer rows.Close()

	var out []*leave.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanEmployee(row scanner) (*leave.Employee, error) {
	var e leave.Employee
	var region, createdAt string
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.ManagerID, &region, &createdAt)
	if err == sql.ErrNoRows {
		return nil, leave.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan employee")
	}
	e.Region = calendar.Region(region)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) PutType(ctx context.Context, t *leave.Type) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO leave_types (id, name, region_b_only, half_day_capable, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			region_b_only = excluded.region_b_only,
			half_day_capable = excluded.half_day_capable`,
		t.ID, t.Name, t.RegionBOnly, t.HalfDayCapable, fmtTime(t.CreatedAt))
	return errors.Wrap(err, "failed to store leave type")
}

func (s *Store) Type(ctx context.Context, id string) (*leave.Type, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT id, name, region_b_only, half_day_capable, created_at
		FROM leave_types WHERE id = ?`, id)
	return scanType(row)
}

func (s *Store) ListTypes(ctx context.Context) ([]*leave.Type, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, name, region_b_only, half_day_capable, created_at
		FROM leave_types ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list leave types")
	}
	defer rows.Close()

	var out []*leave.Type
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanType(row scanner) (*leave.Type, error) {
	var t leave.Type
	var createdAt string
	err := row.Scan(&t.ID, &t.Name, &t.RegionBOnly, &t.HalfDayCapable, &createdAt)
	if err == sql.ErrNoRows {
		return nil, leave.ErrTypeNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan leave type")
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// =============================================================================
// CALENDAR CONFIGURATION
// =============================================================================

func (s *Store) AddNonWorkingDay(ctx context.Context, region calendar.Region, date calendar.Date, label string) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO non_working_days (region, date, label)
		VALUES (?, ?, ?)
		ON CONFLICT(region, date) DO UPDATE SET label = excluded.label`,
		string(region), date.String(), label)
	return errors.Wrap(err, "failed to store non-working day")
}

func (s *Store) RemoveNonWorkingDay(ctx context.Context, region calendar.Region, date calendar.Date) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		DELETE FROM non_working_days WHERE region = ? AND date = ?`,
		string(region), date.String())
	return errors.Wrap(err, "failed to remove non-working day")
}

// LoadCalendar builds a calendar.Config snapshot from the stored sets.
func (s *Store) LoadCalendar(ctx context.Context) (*calendar.Config, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT region, date, label FROM non_working_days`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load calendar")
	}
	defer rows.Close()

	cfg := calendar.NewConfig()
	for rows.Next() {
		var region, dateStr, label string
		if err := rows.Scan(&region, &dateStr, &label); err != nil {
			return nil, errors.Wrap(err, "failed to scan non-working day")
		}
		date, err := calendar.ParseDate(dateStr)
		if err != nil {
			return nil, errors.Wrapf(err, "bad date %q in non_working_days", dateStr)
		}
		cfg.AddNonWorkingDay(calendar.Region(region), date, label)
	}
	return cfg, rows.Err()
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) Put(ctx context.Context, rec *balance.Record) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO balances (employee_id, year, start_balance, yearly_balance,
			used_days, scheduled_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year) DO UPDATE SET
			start_balance = excluded.start_balance,
			yearly_balance = excluded.yearly_balance,
			used_days = excluded.used_days,
			scheduled_days = excluded.scheduled_days,
			updated_at = excluded.updated_at`,
		rec.EmployeeID, rec.Year,
		rec.StartBalance.String(), rec.YearlyBalance.String(),
		rec.UsedDays.String(), rec.ScheduledDays.String(),
		fmtTime(rec.CreatedAt), fmtTime(rec.UpdatedAt))
	return errors.Wrap(err, "failed to store balance record")
}

func (s *Store) Get(ctx context.Context, employeeID string, year int) (*balance.Record, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `
		SELECT employee_id, year, start_balance, yearly_balance,
			used_days, scheduled_days, created_at, updated_at
		FROM balances WHERE employee_id = ? AND year = ?`, employeeID, year)

	var rec balance.Record
	var start, yearly, used, scheduled, createdAt, updatedAt string
	err := row.Scan(&rec.EmployeeID, &rec.Year, &start, &yearly, &used, &scheduled, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, balance.ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan balance record")
	}
	if rec.StartBalance, err = decimal.NewFromString(start); err != nil {
		return nil, errors.Wrap(err, "bad start_balance")
	}
	if rec.YearlyBalance, err = decimal.NewFromString(yearly); err != nil {
		return nil, errors.Wrap(err, "bad yearly_balance")
	}
	if rec.UsedDays, err = decimal.NewFromString(used); err != nil {
		return nil, errors.Wrap(err, "bad used_days")
	}
	if rec.ScheduledDays, err = decimal.NewFromString(scheduled); err != nil {
		return nil, errors.Wrap(err, "bad scheduled_days")
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// activeRequestStatuses is the predicate the conflict detector relies on.
const activeRequestStatuses = `('pending_manager', 'pending_regional', 'pending_hr', 'approved')`

const requestColumns = `id, employee_id, requester_id, type_id, region,
	start_date, end_date, half_day, half_day_from, half_day_to, days, status,
	reason, chain_json, stage_index, manager_approval_json,
	regional_approval_json, hr_approval_json, rejection_json, deleted,
	created_at, updated_at`

func (s *Store) PutRequest(ctx context.Context, r *leave.Request) error {
	chainJSON, err := json.Marshal(r.Chain)
	if err != nil {
		return errors.Wrap(err, "failed to encode approval chain")
	}
	_, err = s.exec(ctx).ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			days = excluded.days,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			half_day = excluded.half_day,
			half_day_from = excluded.half_day_from,
			half_day_to = excluded.half_day_to,
			reason = excluded.reason,
			chain_json = excluded.chain_json,
			stage_index = excluded.stage_index,
			manager_approval_json = excluded.manager_approval_json,
			regional_approval_json = excluded.regional_approval_json,
			hr_approval_json = excluded.hr_approval_json,
			rejection_json = excluded.rejection_json,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at`,
		r.ID, r.EmployeeID, r.RequesterID, r.TypeID, string(r.Region),
		r.StartDate.String(), r.EndDate.String(), r.HalfDay, r.HalfDayFrom, r.HalfDayTo,
		r.Days.String(), string(r.Status), r.Reason, string(chainJSON), r.StageIndex,
		marshalApproval(r.ManagerApproval), marshalApproval(r.RegionalApproval),
		marshalApproval(r.HRApproval), marshalRejection(r.Rejection), r.Deleted,
		fmtTime(r.CreatedAt), fmtTime(r.UpdatedAt))
	return errors.Wrap(err, "failed to store request")
}

func (s *Store) Request(ctx context.Context, id string) (*leave.Request, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	return scanRequest(row)
}

func (s *Store) ActiveRequests(ctx context.Context, employeeID string) ([]*leave.Request, error) {
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE employee_id = ? AND deleted = 0 AND status IN `+activeRequestStatuses,
		employeeID)
}

func (s *Store) PendingRequests(ctx context.Context) ([]*leave.Request, error) {
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE deleted = 0 AND status IN ('pending_manager', 'pending_regional', 'pending_hr')
		ORDER BY created_at`)
}

func (s *Store) RequestsByEmployee(ctx context.Context, employeeID string) ([]*leave.Request, error) {
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE employee_id = ? AND deleted = 0
		ORDER BY start_date`, employeeID)
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]*leave.Request, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query requests")
	}
	defer rows.Close()

	var out []*leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(row scanner) (*leave.Request, error) {
	var r leave.Request
	var region, startDate, endDate, days, status string
	var halfFrom, halfTo, reason sql.NullString
	var chainJSON string
	var mgrJSON, regJSON, hrJSON, rejJSON sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&r.ID, &r.EmployeeID, &r.RequesterID, &r.TypeID, &region,
		&startDate, &endDate, &r.HalfDay, &halfFrom, &halfTo, &days, &status,
		&reason, &chainJSON, &r.StageIndex, &mgrJSON, &regJSON, &hrJSON,
		&rejJSON, &r.Deleted, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, leave.ErrRequestNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan request")
	}

	r.Region = calendar.Region(region)
	r.Status = leave.RequestStatus(status)
	r.HalfDayFrom = halfFrom.String
	r.HalfDayTo = halfTo.String
	r.Reason = reason.String
	if r.StartDate, err = calendar.ParseDate(startDate); err != nil {
		return nil, errors.Wrap(err, "bad start_date")
	}
	if r.EndDate, err = calendar.ParseDate(endDate); err != nil {
		return nil, errors.Wrap(err, "bad end_date")
	}
	if r.Days, err = decimal.NewFromString(days); err != nil {
		return nil, errors.Wrap(err, "bad days")
	}
	if err := json.Unmarshal([]byte(chainJSON), &r.Chain); err != nil {
		return nil, errors.Wrap(err, "bad chain_json")
	}
	if r.ManagerApproval, err = unmarshalApproval(mgrJSON); err != nil {
		return nil, err
	}
	if r.RegionalApproval, err = unmarshalApproval(regJSON); err != nil {
		return nil, err
	}
	if r.HRApproval, err = unmarshalApproval(hrJSON); err != nil {
		return nil, err
	}
	if r.Rejection, err = unmarshalRejection(rejJSON); err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

const scheduleColumns = `id, employee_id, type_id, region, start_date,
	end_date, days, status, manager_approval_json, edit_count, created_by,
	updated_by, deleted, created_at, updated_at`

func (s *Store) PutSchedule(ctx context.Context, sc *leave.Schedule) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type_id = excluded.type_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			days = excluded.days,
			status = excluded.status,
			manager_approval_json = excluded.manager_approval_json,
			edit_count = excluded.edit_count,
			updated_by = excluded.updated_by,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at`,
		sc.ID, sc.EmployeeID, sc.TypeID, string(sc.Region),
		sc.StartDate.String(), sc.EndDate.String(), sc.Days.String(),
		string(sc.Status), marshalApproval(sc.ManagerApproval), sc.EditCount,
		sc.CreatedBy, sc.UpdatedBy, sc.Deleted,
		fmtTime(sc.CreatedAt), fmtTime(sc.UpdatedAt))
	return errors.Wrap(err, "failed to store schedule")
}

func (s *Store) Schedule(ctx context.Context, id string) (*leave.Schedule, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

func (s *Store) ScheduledByEmployee(ctx context.Context, employeeID string) ([]*leave.Schedule, error) {
	return s.querySchedules(ctx, `
		SELECT `+scheduleColumns+` FROM schedules
		WHERE employee_id = ? AND deleted = 0 AND status = 'scheduled'`,
		employeeID)
}

func (s *Store) SchedulesByEmployee(ctx context.Context, employeeID string) ([]*leave.Schedule, error) {
	return s.querySchedules(ctx, `
		SELECT `+scheduleColumns+` FROM schedules
		WHERE employee_id = ? AND deleted = 0
		ORDER BY start_date`, employeeID)
}

func (s *Store) querySchedules(ctx context.Context, query string, args ...any) ([]*leave.Schedule, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query schedules")
	}
	defer rows.Close()

	var out []*leave.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func scanSchedule(row scanner) (*leave.Schedule, error) {
	var sc leave.Schedule
	var region, startDate, endDate, days, status string
	var mgrJSON sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&sc.ID, &sc.EmployeeID, &sc.TypeID, &region, &startDate,
		&endDate, &days, &status, &mgrJSON, &sc.EditCount, &sc.CreatedBy,
		&sc.UpdatedBy, &sc.Deleted, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, leave.ErrScheduleNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan schedule")
	}

	sc.Region = calendar.Region(region)
	sc.Status = leave.ScheduleStatus(status)
	if sc.StartDate, err = calendar.ParseDate(startDate); err != nil {
		return nil, errors.Wrap(err, "bad start_date")
	}
	if sc.EndDate, err = calendar.ParseDate(endDate); err != nil {
		return nil, errors.Wrap(err, "bad end_date")
	}
	if sc.Days, err = decimal.NewFromString(days); err != nil {
		return nil, errors.Wrap(err, "bad days")
	}
	if sc.ManagerApproval, err = unmarshalApproval(mgrJSON); err != nil {
		return nil, err
	}
	sc.CreatedAt = parseTime(createdAt)
	sc.UpdatedAt = parseTime(updatedAt)
	return &sc, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) Append(ctx context.Context, entry leave.AuditEntry) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO audit_log (id, entity_type, entity_id, actor, action,
			from_status, to_status, comment, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.EntityType), entry.EntityID, entry.Actor,
		entry.Action, entry.FromStatus, entry.ToStatus, entry.Comment,
		fmtTime(entry.At))
	return errors.Wrap(err, "failed to append audit entry")
}

// AuditEntries returns the audit trail for one entity, oldest first.
func (s *Store) AuditEntries(ctx context.Context, entityType leave.EntityType, entityID string) ([]leave.AuditEntry, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, entity_type, entity_id, actor, action, from_status,
			to_status, comment, at
		FROM audit_log
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY at, id`, string(entityType), entityID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query audit log")
	}
	defer rows.Close()

	var out []leave.AuditEntry
	for rows.Next() {
		var e leave.AuditEntry
		var entityTypeStr, at string
		var from, to, comment sql.NullString
		if err := rows.Scan(&e.ID, &entityTypeStr, &e.EntityID, &e.Actor,
			&e.Action, &from, &to, &comment, &at); err != nil {
			return nil, errors.Wrap(err, "failed to scan audit entry")
		}
		e.EntityType = leave.EntityType(entityTypeStr)
		e.FromStatus = from.String
		e.ToStatus = to.String
		e.Comment = comment.String
		e.At = parseTime(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func marshalApproval(a *leave.Approval) any {
	if a == nil {
		return nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil
	}
	return string(b)
}

func unmarshalApproval(col sql.NullString) (*leave.Approval, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var a leave.Approval
	if err := json.Unmarshal([]byte(col.String), &a); err != nil {
		return nil, errors.Wrap(err, "bad approval json")
	}
	return &a, nil
}

func marshalRejection(r *leave.Rejection) any {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return string(b)
}

func unmarshalRejection(col sql.NullString) (*leave.Rejection, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var r leave.Rejection
	if err := json.Unmarshal([]byte(col.String), &r); err != nil {
		return nil, errors.Wrap(err, "bad rejection json")
	}
	return &r, nil
}
