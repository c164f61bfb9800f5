/*
conflict.go - Overlap detection across an employee's leave periods

PURPOSE:
  A leave request and a leave schedule for the same employee must never
  cover overlapping date ranges while both are active. The Detector scans
  the employee's active requests (any pending stage, approved) and
  scheduled schedules for ranges satisfying

    existing.start <= candidate.end AND existing.end >= candidate.start

  and returns the complete, unordered conflict list. Empty means no
  conflict; non-empty means the caller must reject the create or edit and
  surface the list.

WHEN IT RUNS:
  Before every create/submit and before every date-changing edit of both
  entities. excludeID skips the record being edited.
*/
package leave

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/calendar"
)

// =============================================================================
// CONFLICT
// =============================================================================

// Conflict identifies one existing record overlapping a candidate range.
type Conflict struct {
	Kind      EntityType
	ID        string
	StartDate calendar.Date
	EndDate   calendar.Date
	Status    string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %s [%s, %s] (%s)", c.Kind, c.ID, c.StartDate, c.EndDate, c.Status)
}

// =============================================================================
// DETECTOR
// =============================================================================

type Detector struct {
	Requests  RequestStore
	Schedules ScheduleStore
}

func NewDetector(requests RequestStore, schedules ScheduleStore) *Detector {
	return &Detector{Requests: requests, Schedules: schedules}
}

// FindConflicts returns every active request and scheduled schedule of the
// employee overlapping [start, end], excluding excludeID.
func (d *Detector) FindConflicts(ctx context.Context, employeeID string, start, end calendar.Date, excludeID string) ([]Conflict, error) {
	var conflicts []Conflict

	requests, err := d.Requests.ActiveRequests(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active requests: %w", err)
	}
	for _, r := range requests {
		if r.ID == excludeID {
			continue
		}
		if overlaps(r.StartDate, r.EndDate, start, end) {
			conflicts = append(conflicts, Conflict{
				Kind:      EntityRequest,
				ID:        r.ID,
				StartDate: r.StartDate,
				EndDate:   r.EndDate,
				Status:    string(r.Status),
			})
		}
	}

	schedules, err := d.Schedules.ScheduledByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	for _, s := range schedules {
		if s.ID == excludeID {
			continue
		}
		if overlaps(s.StartDate, s.EndDate, start, end) {
			conflicts = append(conflicts, Conflict{
				Kind:      EntitySchedule,
				ID:        s.ID,
				StartDate: s.StartDate,
				EndDate:   s.EndDate,
				Status:    string(s.Status),
			})
		}
	}

	return conflicts, nil
}

// check wraps FindConflicts into the ConflictError the workflows return.
func (d *Detector) check(ctx context.Context, employeeID string, start, end calendar.Date, excludeID string) error {
	conflicts, err := d.FindConflicts(ctx, employeeID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{EmployeeID: employeeID, Conflicts: conflicts}
	}
	return nil
}

func overlaps(aStart, aEnd, bStart, bEnd calendar.Date) bool {
	return aStart.BeforeOrEqual(bEnd) && aEnd.AfterOrEqual(bStart)
}
