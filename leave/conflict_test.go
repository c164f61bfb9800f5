package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.NewDate(year, month, day)
}

func storedRequest(t *testing.T, store *memory.Store, id string, status leave.RequestStatus, start, end calendar.Date) {
	t.Helper()
	require.NoError(t, store.PutRequest(context.Background(), &leave.Request{
		ID:         id,
		EmployeeID: "emp-1",
		TypeID:     "annual",
		Region:     calendar.RegionB,
		StartDate:  start,
		EndDate:    end,
		Days:       decimal.NewFromInt(int64(calendar.DaysBetween(start, end)) + 1),
		Status:     status,
	}))
}

func storedSchedule(t *testing.T, store *memory.Store, id string, status leave.ScheduleStatus, start, end calendar.Date) {
	t.Helper()
	require.NoError(t, store.PutSchedule(context.Background(), &leave.Schedule{
		ID:         id,
		EmployeeID: "emp-1",
		TypeID:     "annual",
		Region:     calendar.RegionB,
		StartDate:  start,
		EndDate:    end,
		Days:       decimal.NewFromInt(int64(calendar.DaysBetween(start, end)) + 1),
		Status:     status,
	}))
}

// =============================================================================
// OVERLAP DETECTION
// =============================================================================

func TestFindConflicts_OverlappingRequest(t *testing.T) {
	// GIVEN: A pending request covering March 4-6
	// WHEN: Checking March 6-8 (shares one day)
	// THEN: The request is reported as a conflict

	store := memory.New()
	detector := leave.NewDetector(store, store)
	storedRequest(t, store, "req-1", leave.RequestPendingManager, date(2026, time.March, 4), date(2026, time.March, 6))

	conflicts, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 6), date(2026, time.March, 8), "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "req-1", conflicts[0].ID)
	assert.Equal(t, leave.EntityRequest, conflicts[0].Kind)
}

func TestFindConflicts_Symmetric(t *testing.T) {
	// GIVEN: An approved request on March 4-6
	// WHEN: Checking the surrounding range and the contained range
	// THEN: Both report the conflict; overlap does not care which side is wider

	store := memory.New()
	detector := leave.NewDetector(store, store)
	storedRequest(t, store, "req-1", leave.RequestApproved, date(2026, time.March, 4), date(2026, time.March, 6))

	wider, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 1), date(2026, time.March, 10), "")
	require.NoError(t, err)
	assert.Len(t, wider, 1)

	contained, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 5), date(2026, time.March, 5), "")
	require.NoError(t, err)
	assert.Len(t, contained, 1)
}

func TestFindConflicts_AdjacentRangesDoNotConflict(t *testing.T) {
	store := memory.New()
	detector := leave.NewDetector(store, store)
	storedRequest(t, store, "req-1", leave.RequestApproved, date(2026, time.March, 4), date(2026, time.March, 6))

	conflicts, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 7), date(2026, time.March, 9), "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

// =============================================================================
// STATUS FILTERING
// =============================================================================

func TestFindConflicts_IgnoresInactiveRequests(t *testing.T) {
	// GIVEN: Draft, rejected and withdrawn requests all covering March 4-6
	// WHEN: Checking the same range
	// THEN: None of them count as conflicts

	store := memory.New()
	detector := leave.NewDetector(store, store)
	storedRequest(t, store, "req-draft", leave.RequestDraft, date(2026, time.March, 4), date(2026, time.March, 6))
	storedRequest(t, store, "req-rejected", leave.RequestRejectedManager, date(2026, time.March, 4), date(2026, time.March, 6))
	storedRequest(t, store, "req-withdrawn", leave.RequestWithdrawn, date(2026, time.March, 4), date(2026, time.March, 6))

	conflicts, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 4), date(2026, time.March, 6), "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflicts_OnlyScheduledSchedulesCount(t *testing.T) {
	// GIVEN: A pending and a registered schedule alongside a scheduled one
	// WHEN: Checking an overlapping range
	// THEN: Only the schedule in "scheduled" status is a conflict

	store := memory.New()
	detector := leave.NewDetector(store, store)
	storedSchedule(t, store, "sch-pending", leave.SchedulePendingManager, date(2026, time.March, 4), date(2026, time.March, 6))
	storedSchedule(t, store, "sch-registered", leave.ScheduleRegistered, date(2026, time.March, 4), date(2026, time.March, 6))
	storedSchedule(t, store, "sch-active", leave.ScheduleScheduled, date(2026, time.March, 4), date(2026, time.March, 6))

	conflicts, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 4), date(2026, time.March, 6), "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "sch-active", conflicts[0].ID)
	assert.Equal(t, leave.EntitySchedule, conflicts[0].Kind)
}

// =============================================================================
// EXCLUSION
// =============================================================================

func TestFindConflicts_ExcludesRecordBeingEdited(t *testing.T) {
	// GIVEN: A scheduled schedule on March 4-6
	// WHEN: Checking the same range while editing that schedule
	// THEN: It does not conflict with itself

	store := memory.New()
	detector := leave.NewDetector(store, store)
	storedSchedule(t, store, "sch-1", leave.ScheduleScheduled, date(2026, time.March, 4), date(2026, time.March, 6))

	conflicts, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 4), date(2026, time.March, 6), "sch-1")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflicts_MixedKinds(t *testing.T) {
	store := memory.New()
	detector := leave.NewDetector(store, store)
	storedRequest(t, store, "req-1", leave.RequestPendingHR, date(2026, time.March, 4), date(2026, time.March, 5))
	storedSchedule(t, store, "sch-1", leave.ScheduleScheduled, date(2026, time.March, 6), date(2026, time.March, 8))

	conflicts, err := detector.FindConflicts(context.Background(), "emp-1",
		date(2026, time.March, 5), date(2026, time.March, 6), "")
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
}
