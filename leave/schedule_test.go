package leave_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/balance"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

// Fixture, date() and balanceOf() live in request_test.go / conflict_test.go.

// =============================================================================
// CREATION AND APPROVAL
// =============================================================================

func TestSchedule_EmployeeCreation_NeedsManagerApproval(t *testing.T) {
	// GIVEN: An employee-created schedule for 2 working days
	// WHEN: Creating, then the manager approving
	// THEN: pending_manager reserves nothing; approval reserves 2 days

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asSelf("emp-b"), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, leave.SchedulePendingManager, sched.Status)
	assert.True(t, sched.Days.Equal(decimal.NewFromInt(2)))
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.IsZero())

	sched, err = f.schedules.Approve(ctx, asManager(), sched.ID, "")
	require.NoError(t, err)
	assert.Equal(t, leave.ScheduleScheduled, sched.Status)
	require.NotNil(t, sched.ManagerApproval)
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)))
}

func TestSchedule_ManagerCreation_AutoApproved(t *testing.T) {
	// GIVEN: The line manager creating a schedule for a report
	// WHEN: Creating
	// THEN: It starts scheduled and reserves immediately

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, leave.ScheduleScheduled, sched.Status)
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)))
}

func TestSchedule_Creation_ConflictRejected(t *testing.T) {
	// GIVEN: An active schedule on June 1-2
	// WHEN: Creating an overlapping one
	// THEN: ConflictError; nothing stored, nothing reserved

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	_, err = f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 2), EndDate: date(2026, time.June, 4),
	})
	assert.True(t, errors.Is(err, leave.ErrConflict))
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)), "only the first reservation")
}

// =============================================================================
// FULL LIFECYCLE
// =============================================================================

func TestSchedule_Lifecycle_ScheduleEditRegister(t *testing.T) {
	// GIVEN: A manager-created 2-day schedule (June 1-2)
	// WHEN: Editing it to 3 days (June 1-3), then registering it as taken
	// THEN: The reservation tracks the edit, and registration converts the
	//       full 3 days from scheduled to used

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)))

	sched, err = f.schedules.Edit(ctx, asManager(), sched.ID, leave.EditScheduleInput{
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sched.EditCount)
	assert.True(t, sched.Days.Equal(decimal.NewFromInt(3)))
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(3)), "rebooked, not stacked")

	sched, err = f.schedules.Register(ctx, asManager(), sched.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.ScheduleRegistered, sched.Status)

	rec := f.balanceOf(t, "emp-b")
	assert.True(t, rec.ScheduledDays.IsZero())
	assert.True(t, rec.UsedDays.Equal(decimal.NewFromInt(3)))
}

// =============================================================================
// EDIT RULES
// =============================================================================

func TestSchedule_Edit_OnlyScheduledStatus(t *testing.T) {
	// GIVEN: A pending schedule
	// WHEN: Editing
	// THEN: TransitionError; only scheduled periods can be rebooked

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asSelf("emp-b"), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	_, err = f.schedules.Edit(ctx, asSelf("emp-b"), sched.ID, leave.EditScheduleInput{
		StartDate: date(2026, time.June, 8), EndDate: date(2026, time.June, 9),
	})
	assert.True(t, errors.Is(err, leave.ErrInvalidTransition))
}

func TestSchedule_Edit_LimitEnforced(t *testing.T) {
	// GIVEN: A schedule already edited up to the configured limit
	// WHEN: Editing once more
	// THEN: ValidationError

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	// Default limit is 3. Shift the window a week at a time.
	starts := []calendar.Date{
		date(2026, time.June, 8), date(2026, time.June, 15), date(2026, time.June, 22),
	}
	for _, start := range starts {
		sched, err = f.schedules.Edit(ctx, asManager(), sched.ID, leave.EditScheduleInput{
			StartDate: start, EndDate: start.AddDays(1),
		})
		require.NoError(t, err)
	}
	require.Equal(t, leave.DefaultMaxScheduleEdits, sched.EditCount)

	_, err = f.schedules.Edit(ctx, asManager(), sched.ID, leave.EditScheduleInput{
		StartDate: date(2026, time.June, 29), EndDate: date(2026, time.June, 30),
	})
	assert.True(t, errors.Is(err, leave.ErrValidation))
}

func TestSchedule_Edit_CrossYear_MovesReservation(t *testing.T) {
	// GIVEN: A 2-day schedule in December 2026
	// WHEN: Editing it into January 2027
	// THEN: 2026 releases the reservation and 2027 picks it up

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.Grant(ctx, "emp-b", 2027, decimal.Zero, decimal.NewFromInt(25))
	require.NoError(t, err)

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.December, 1), EndDate: date(2026, time.December, 2),
	})
	require.NoError(t, err)
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)))

	_, err = f.schedules.Edit(ctx, asManager(), sched.ID, leave.EditScheduleInput{
		StartDate: date(2027, time.January, 4), EndDate: date(2027, time.January, 5),
	})
	require.NoError(t, err)

	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.IsZero())
	rec2027, err := f.ledger.Record(ctx, "emp-b", 2027)
	require.NoError(t, err)
	assert.True(t, rec2027.ScheduledDays.Equal(decimal.NewFromInt(2)))
}

func TestSchedule_Edit_OverBalanceRejected(t *testing.T) {
	// GIVEN: 3 days of entitlement, 2 of them reserved
	// WHEN: Rebooking the schedule to 5 days
	// THEN: InsufficientBalanceError; the old reservation survives

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.Grant(ctx, "emp-b", 2026, decimal.Zero, decimal.NewFromInt(3))
	require.NoError(t, err)

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	_, err = f.schedules.Edit(ctx, asManager(), sched.ID, leave.EditScheduleInput{
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 5),
	})
	assert.True(t, errors.Is(err, balance.ErrInsufficientBalance))
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)))
}

// =============================================================================
// DELETION
// =============================================================================

func TestSchedule_Delete_ScheduledReleasesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)
	require.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)))

	require.NoError(t, f.schedules.Delete(ctx, asManager(), sched.ID))

	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.IsZero())
	stored, err := f.store.Schedule(ctx, sched.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted, "soft delete keeps the row")
}

func TestSchedule_Delete_PendingHasNothingToRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asSelf("emp-b"), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	require.NoError(t, f.schedules.Delete(ctx, asSelf("emp-b"), sched.ID))
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.IsZero())
}

func TestSchedule_Delete_RegisteredRefused(t *testing.T) {
	// GIVEN: A registered schedule
	// WHEN: Deleting
	// THEN: TransitionError; taken leave is a historical fact

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)
	_, err = f.schedules.Register(ctx, asManager(), sched.ID)
	require.NoError(t, err)

	err = f.schedules.Delete(ctx, asManager(), sched.ID)
	assert.True(t, errors.Is(err, leave.ErrInvalidTransition))
	assert.True(t, f.balanceOf(t, "emp-b").UsedDays.Equal(decimal.NewFromInt(2)))
}

// =============================================================================
// AUTHORIZATION
// =============================================================================

func TestSchedule_Approve_OnlyManagerOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asSelf("emp-b"), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	_, err = f.schedules.Approve(ctx, asSelf("emp-b"), sched.ID, "")
	assert.True(t, errors.Is(err, leave.ErrNotAuthorized), "employee cannot self-approve")

	_, err = f.schedules.Approve(ctx, asAdmin(), sched.ID, "")
	assert.NoError(t, err)
}

// =============================================================================
// CONCURRENT TRANSITIONS
// =============================================================================

func TestSchedule_ConcurrentApprovals_ReserveOnce(t *testing.T) {
	// GIVEN: A pending 2-day schedule
	// WHEN: Two manager approvals race
	// THEN: One wins and exactly 2 days end up reserved

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asSelf("emp-b"), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.schedules.Approve(ctx, asManager(), sched.ID, "")
		}(i)
	}
	close(start)
	wg.Wait()

	var losers int
	for _, err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, leave.ErrInvalidTransition))
			losers++
		}
	}
	assert.Equal(t, 1, losers, "one approval must lose the race")
	assert.True(t, f.balanceOf(t, "emp-b").ScheduledDays.Equal(decimal.NewFromInt(2)))
}

func TestSchedule_ConcurrentRegistrations_RecordOnce(t *testing.T) {
	// GIVEN: A scheduled 2-day period
	// WHEN: Two registrations race
	// THEN: One wins; used days grow by exactly 2 and the reservation clears

	f := newFixture(t)
	ctx := context.Background()

	sched, err := f.schedules.Create(ctx, asManager(), leave.CreateScheduleInput{
		EmployeeID: "emp-b", TypeID: "annual",
		StartDate: date(2026, time.June, 1), EndDate: date(2026, time.June, 2),
	})
	require.NoError(t, err)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.schedules.Register(ctx, asManager(), sched.ID)
		}(i)
	}
	close(start)
	wg.Wait()

	var losers int
	for _, err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, leave.ErrInvalidTransition))
			losers++
		}
	}
	assert.Equal(t, 1, losers, "one registration must lose the race")
	rec := f.balanceOf(t, "emp-b")
	assert.True(t, rec.UsedDays.Equal(decimal.NewFromInt(2)))
	assert.True(t, rec.ScheduledDays.IsZero())
}
