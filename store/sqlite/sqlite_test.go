package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/balance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.NewDate(year, month, day)
}

func sampleRequest(id string) *leave.Request {
	now := time.Now().UTC().Truncate(time.Second)
	return &leave.Request{
		ID:          id,
		EmployeeID:  "emp-1",
		RequesterID: "emp-1",
		TypeID:      "annual",
		Region:      calendar.RegionB,
		StartDate:   date(2026, time.March, 2),
		EndDate:     date(2026, time.March, 6),
		Days:        decimal.NewFromInt(5),
		Status:      leave.RequestPendingManager,
		Reason:      "spring trip",
		Chain:       []leave.Stage{leave.StageLineManager, leave.StageHR},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// =============================================================================
// EMPLOYEES AND TYPES
// =============================================================================

func TestStore_Employee_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := &leave.Employee{
		ID: "emp-1", Name: "Avery", Email: "avery@example.com",
		ManagerID: "mgr-1", Region: calendar.RegionA,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.PutEmployee(ctx, e))

	got, err := store.Employee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, e.Name, got.Name)
	assert.Equal(t, e.ManagerID, got.ManagerID)
	assert.Equal(t, calendar.RegionA, got.Region)
}

func TestStore_Employee_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Employee(context.Background(), "missing")
	assert.True(t, errors.Is(err, leave.ErrEmployeeNotFound))
}

func TestStore_Type_UpsertAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	typ := &leave.Type{ID: "annual", Name: "Annual Leave", HalfDayCapable: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.PutType(ctx, typ))

	typ.Name = "Annual Leave (renamed)"
	require.NoError(t, store.PutType(ctx, typ))

	types, err := store.ListTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1, "upsert, not duplicate")
	assert.Equal(t, "Annual Leave (renamed)", types[0].Name)
	assert.True(t, types[0].HalfDayCapable)
}

// =============================================================================
// CALENDAR PERSISTENCE
// =============================================================================

func TestStore_Calendar_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddNonWorkingDay(ctx, calendar.RegionB, date(2026, time.January, 1), "New Year"))
	require.NoError(t, store.AddNonWorkingDay(ctx, calendar.RegionA, date(2026, time.January, 1), "New Year"))
	require.NoError(t, store.RemoveNonWorkingDay(ctx, calendar.RegionA, date(2026, time.January, 1)))

	cfg, err := store.LoadCalendar(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.IsWorkingDay(date(2026, time.January, 1), calendar.RegionB))
	assert.True(t, cfg.IsWorkingDay(date(2026, time.January, 1), calendar.RegionA), "removed entry is gone")
}

// =============================================================================
// BALANCES
// =============================================================================

func TestStore_Balance_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &balance.Record{
		EmployeeID:    "emp-1",
		Year:          2026,
		StartBalance:  decimal.NewFromInt(3),
		YearlyBalance: decimal.NewFromInt(25),
		UsedDays:      decimal.NewFromFloat(2.5),
		ScheduledDays: decimal.NewFromInt(4),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, got.UsedDays.Equal(decimal.NewFromFloat(2.5)), "decimal survives as text")
	assert.True(t, got.Total().Equal(decimal.NewFromInt(28)))
}

func TestStore_Balance_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "emp-1", 2026)
	assert.True(t, errors.Is(err, balance.ErrRecordNotFound))
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestStore_Request_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRequest("req-1")
	req.ManagerApproval = &leave.Approval{ApproverID: "mgr-1", At: time.Now().UTC().Truncate(time.Second), Comment: "ok"}
	require.NoError(t, store.PutRequest(ctx, req))

	got, err := store.Request(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, req.Chain, got.Chain)
	assert.True(t, got.Days.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "2026-03-02", got.StartDate.String())
	require.NotNil(t, got.ManagerApproval)
	assert.Equal(t, "mgr-1", got.ManagerApproval.ApproverID)
	assert.Nil(t, got.Rejection)
}

func TestStore_Request_StatusPredicates(t *testing.T) {
	// GIVEN: One request per lifecycle corner
	// WHEN: Querying the active / pending views
	// THEN: Each predicate selects exactly the statuses it promises

	store := newTestStore(t)
	ctx := context.Background()

	pending := sampleRequest("req-pending")
	approved := sampleRequest("req-approved")
	approved.Status = leave.RequestApproved
	draft := sampleRequest("req-draft")
	draft.Status = leave.RequestDraft
	withdrawn := sampleRequest("req-withdrawn")
	withdrawn.Status = leave.RequestWithdrawn
	withdrawn.Deleted = true

	for _, r := range []*leave.Request{pending, approved, draft, withdrawn} {
		require.NoError(t, store.PutRequest(ctx, r))
	}

	active, err := store.ActiveRequests(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, active, 2, "pending + approved")

	waiting, err := store.PendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "req-pending", waiting[0].ID)

	all, err := store.RequestsByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, all, 3, "soft-deleted rows excluded")
}

func TestStore_Request_RejectionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRequest("req-1")
	req.Status = leave.RequestRejectedManager
	req.Rejection = &leave.Rejection{
		ActorID: "mgr-1", Stage: leave.StageLineManager,
		Reason: "coverage gap", At: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.PutRequest(ctx, req))

	got, err := store.Request(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got.Rejection)
	assert.Equal(t, leave.StageLineManager, got.Rejection.Stage)
	assert.Equal(t, "coverage gap", got.Rejection.Reason)
}

// =============================================================================
// SCHEDULES
// =============================================================================

func TestStore_Schedule_RoundTripAndViews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	scheduled := &leave.Schedule{
		ID: "sch-1", EmployeeID: "emp-1", TypeID: "annual", Region: calendar.RegionB,
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
		Days: decimal.NewFromInt(2), Status: leave.ScheduleScheduled,
		ManagerApproval: &leave.Approval{ApproverID: "mgr-1", At: now},
		EditCount:       1, CreatedBy: "emp-1", UpdatedBy: "mgr-1",
		CreatedAt: now, UpdatedAt: now,
	}
	pending := &leave.Schedule{
		ID: "sch-2", EmployeeID: "emp-1", TypeID: "annual", Region: calendar.RegionB,
		StartDate: date(2026, time.July, 1), EndDate: date(2026, time.July, 2),
		Days: decimal.NewFromInt(2), Status: leave.SchedulePendingManager,
		CreatedBy: "emp-1", UpdatedBy: "emp-1",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.PutSchedule(ctx, scheduled))
	require.NoError(t, store.PutSchedule(ctx, pending))

	got, err := store.Schedule(ctx, "sch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.EditCount)
	require.NotNil(t, got.ManagerApproval)

	onlyScheduled, err := store.ScheduledByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, onlyScheduled, 1)
	assert.Equal(t, "sch-1", onlyScheduled[0].ID)

	all, err := store.SchedulesByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_Schedule_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Schedule(context.Background(), "missing")
	assert.True(t, errors.Is(err, leave.ErrScheduleNotFound))
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func TestStore_Audit_AppendAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i, action := range []string{"submitted", "approved_line_manager", "approved_hr"} {
		require.NoError(t, store.Append(ctx, leave.AuditEntry{
			ID:         string(rune('a' + i)),
			EntityType: leave.EntityRequest,
			EntityID:   "req-1",
			Actor:      "mgr-1",
			Action:     action,
			At:         base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, store.Append(ctx, leave.AuditEntry{
		ID: "other", EntityType: leave.EntitySchedule, EntityID: "sch-1",
		Actor: "mgr-1", Action: "created", At: base,
	}))

	entries, err := store.AuditEntries(ctx, leave.EntityRequest, "req-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "submitted", entries[0].Action, "oldest first")
	assert.Equal(t, "approved_hr", entries[2].Action)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction writing a request and then failing
	// WHEN: The callback returns an error
	// THEN: The write is rolled back

	store := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context) error {
		if err := store.PutRequest(ctx, sampleRequest("req-1")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.Request(ctx, "req-1")
	assert.True(t, errors.Is(err, leave.ErrRequestNotFound))
}

func TestStore_WithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(ctx context.Context) error {
		if err := store.PutRequest(ctx, sampleRequest("req-1")); err != nil {
			return err
		}
		return store.Put(ctx, &balance.Record{
			EmployeeID: "emp-1", Year: 2026,
			StartBalance: decimal.Zero, YearlyBalance: decimal.NewFromInt(25),
			UsedDays: decimal.NewFromInt(5), ScheduledDays: decimal.Zero,
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	_, err = store.Request(ctx, "req-1")
	assert.NoError(t, err)
	rec, err := store.Get(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, rec.UsedDays.Equal(decimal.NewFromInt(5)))
}

func TestStore_WithTx_NestedJoins(t *testing.T) {
	// GIVEN: WithTx called inside WithTx
	// WHEN: The inner callback writes
	// THEN: Everything commits once at the outer boundary

	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(ctx context.Context) error {
		return store.WithTx(ctx, func(ctx context.Context) error {
			return store.PutRequest(ctx, sampleRequest("req-1"))
		})
	})
	require.NoError(t, err)

	_, err = store.Request(ctx, "req-1")
	assert.NoError(t, err)
}
