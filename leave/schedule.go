/*
schedule.go - Leave schedule workflow

PURPOSE:
  Drives the lighter-weight schedule state machine:

    pending_manager -> scheduled -> registered

  with soft deletion allowed from the first two states.

LEDGER CONTRACT:
  - Employee-created schedules reserve nothing until the manager approves.
  - Manager/admin-created schedules start scheduled and reserve immediately.
  - pending_manager -> scheduled calls Reserve(days) exactly once.
  - scheduled -> registered calls RegisterTaken(days).
  - Editing a scheduled period rebooks the reservation when the computed
    working-day count changed (net effect equals the delta).
  - Deleting a scheduled period releases its reservation; deleting a pending
    one has no ledger effect.

EDIT LIMIT:
  Edits are allowed only while edit_count < MaxScheduleEdits (default 3).
  Each successful edit increments the counter and re-validates conflicts
  against the new range.

SEE ALSO:
  - request.go: The sibling request workflow
  - balance:    Reserve / Release / RegisterTaken / Rebook
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/balance"
	"github.com/warp/leave-engine/calendar"
)

// =============================================================================
// SCHEDULE SERVICE
// =============================================================================

type ScheduleService struct {
	Config    WorkflowConfig
	Employees EmployeeStore
	Types     TypeStore
	Schedules ScheduleStore
	Balances  *balance.Ledger
	Conflicts *Detector
	Notifier  NotificationHook
	Audit     AuditSink
}

type CreateScheduleInput struct {
	EmployeeID string
	TypeID     string
	StartDate  calendar.Date
	EndDate    calendar.Date
}

type EditScheduleInput struct {
	TypeID    string
	StartDate calendar.Date
	EndDate   calendar.Date
}

// =============================================================================
// CREATION
// =============================================================================

// Create stores a new schedule. Created by the employee it starts in
// pending_manager with no ledger effect; created by the employee's manager
// or an admin it starts scheduled and reserves immediately.
func (s *ScheduleService) Create(ctx context.Context, access AccessContext, in CreateScheduleInput) (*Schedule, error) {
	if !access.CanAccess(in.EmployeeID) {
		return nil, &AuthorizationError{ActorID: access.ActorID, Action: "create schedule for", EntityID: in.EmployeeID}
	}

	emp, err := s.Employees.Employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	typ, err := s.Types.Type(ctx, in.TypeID)
	if err != nil {
		return nil, err
	}
	if err := validateRange(in.StartDate, in.EndDate, false, "", "", typ); err != nil {
		return nil, err
	}
	if typ.RegionBOnly && emp.Region != calendar.RegionB {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("leave type %q is restricted to Region B employees", typ.Name)}
	}

	days := s.Config.Calendar.WorkingDays(in.StartDate, in.EndDate, emp.Region)
	if !days.IsPositive() {
		return nil, &ValidationError{Field: "dates", Reason: "range contains no working days"}
	}

	autoApproved := access.IsAdmin || (emp.ManagerID != "" && access.ActorID == emp.ManagerID)
	now := time.Now().UTC()
	sched := &Schedule{
		ID:         uuid.NewString(),
		EmployeeID: emp.ID,
		TypeID:     typ.ID,
		Region:     emp.Region,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Days:       days,
		Status:     SchedulePendingManager,
		CreatedBy:  access.ActorID,
		UpdatedBy:  access.ActorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = runInTx(ctx, s.Schedules, func(ctx context.Context) error {
		if err := s.Conflicts.check(ctx, emp.ID, in.StartDate, in.EndDate, ""); err != nil {
			return err
		}
		if autoApproved {
			sched.Status = ScheduleScheduled
			sched.ManagerApproval = &Approval{ApproverID: access.ActorID, At: now}
			if err := s.Balances.Reserve(ctx, emp.ID, sched.StartDate.Year(), days); err != nil {
				return err
			}
		}
		if err := s.Schedules.PutSchedule(ctx, sched); err != nil {
			return fmt.Errorf("failed to store schedule: %w", err)
		}
		s.audit(ctx, sched, access.ActorID, "created", "", string(sched.Status), "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx, sched, access.ActorID, "")
	return sched, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Approve moves pending_manager -> scheduled and reserves the days. This is
// the only place an employee-created schedule reserves balance.
func (s *ScheduleService) Approve(ctx context.Context, access AccessContext, scheduleID, comment string) (*Schedule, error) {
	sched, err := s.Schedules.Schedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != SchedulePendingManager || sched.Deleted {
		return nil, &TransitionError{EntityType: EntitySchedule, EntityID: sched.ID, Status: string(sched.Status), Action: "approve"}
	}
	if err := s.authorizeManager(ctx, access, sched); err != nil {
		return nil, err
	}

	from := string(sched.Status)
	now := time.Now().UTC()

	err = runInTx(ctx, s.Schedules, func(ctx context.Context) error {
		// Re-read under the transaction: a concurrent approval must fail
		// the status check here, not reserve twice.
		cur, err := s.Schedules.Schedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if cur.Status != SchedulePendingManager || cur.Deleted {
			return &TransitionError{EntityType: EntitySchedule, EntityID: cur.ID, Status: string(cur.Status), Action: "approve"}
		}
		sched = cur
		if err := s.Balances.Reserve(ctx, sched.EmployeeID, sched.StartDate.Year(), sched.Days); err != nil {
			return err
		}
		sched.Status = ScheduleScheduled
		sched.ManagerApproval = &Approval{ApproverID: access.ActorID, At: now, Comment: comment}
		sched.UpdatedBy = access.ActorID
		sched.UpdatedAt = now
		if err := s.Schedules.PutSchedule(ctx, sched); err != nil {
			return fmt.Errorf("failed to store approval: %w", err)
		}
		s.audit(ctx, sched, access.ActorID, "approved", from, string(sched.Status), comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx, sched, access.ActorID, from)
	return sched, nil
}

// Register marks a scheduled period as taken: the reservation converts to
// consumption in one ledger write.
func (s *ScheduleService) Register(ctx context.Context, access AccessContext, scheduleID string) (*Schedule, error) {
	sched, err := s.Schedules.Schedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != ScheduleScheduled || sched.Deleted {
		return nil, &TransitionError{EntityType: EntitySchedule, EntityID: sched.ID, Status: string(sched.Status), Action: "register"}
	}
	if err := s.authorizeManager(ctx, access, sched); err != nil {
		return nil, err
	}

	from := string(sched.Status)
	err = runInTx(ctx, s.Schedules, func(ctx context.Context) error {
		cur, err := s.Schedules.Schedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if cur.Status != ScheduleScheduled || cur.Deleted {
			return &TransitionError{EntityType: EntitySchedule, EntityID: cur.ID, Status: string(cur.Status), Action: "register"}
		}
		sched = cur
		if err := s.Balances.RegisterTaken(ctx, sched.EmployeeID, sched.StartDate.Year(), sched.Days); err != nil {
			return err
		}
		sched.Status = ScheduleRegistered
		sched.UpdatedBy = access.ActorID
		sched.UpdatedAt = time.Now().UTC()
		if err := s.Schedules.PutSchedule(ctx, sched); err != nil {
			return fmt.Errorf("failed to store registration: %w", err)
		}
		s.audit(ctx, sched, access.ActorID, "registered", from, string(sched.Status), "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx, sched, access.ActorID, from)
	return sched, nil
}

// Edit changes a scheduled period's dates or type. Bounded by the edit
// counter; the reservation is rebooked when the working-day count changed.
func (s *ScheduleService) Edit(ctx context.Context, access AccessContext, scheduleID string, in EditScheduleInput) (*Schedule, error) {
	sched, err := s.Schedules.Schedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status != ScheduleScheduled || sched.Deleted {
		return nil, &TransitionError{EntityType: EntitySchedule, EntityID: sched.ID, Status: string(sched.Status), Action: "edit"}
	}
	if !access.CanAccess(sched.EmployeeID) {
		return nil, &AuthorizationError{ActorID: access.ActorID, Action: "edit", EntityID: sched.ID}
	}
	if sched.EditCount >= s.Config.maxEdits() {
		return nil, &ValidationError{Field: "edit_count", Reason: fmt.Sprintf("edit limit of %d reached", s.Config.maxEdits())}
	}

	emp, err := s.Employees.Employee(ctx, sched.EmployeeID)
	if err != nil {
		return nil, err
	}
	typeID := sched.TypeID
	if in.TypeID != "" {
		typeID = in.TypeID
	}
	typ, err := s.Types.Type(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if err := validateRange(in.StartDate, in.EndDate, false, "", "", typ); err != nil {
		return nil, err
	}
	if typ.RegionBOnly && emp.Region != calendar.RegionB {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("leave type %q is restricted to Region B employees", typ.Name)}
	}

	newDays := s.Config.Calendar.WorkingDays(in.StartDate, in.EndDate, emp.Region)
	if !newDays.IsPositive() {
		return nil, &ValidationError{Field: "dates", Reason: "range contains no working days"}
	}

	newYear := in.StartDate.Year()

	err = runInTx(ctx, s.Schedules, func(ctx context.Context) error {
		cur, err := s.Schedules.Schedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if cur.Status != ScheduleScheduled || cur.Deleted {
			return &TransitionError{EntityType: EntitySchedule, EntityID: cur.ID, Status: string(cur.Status), Action: "edit"}
		}
		if cur.EditCount >= s.Config.maxEdits() {
			return &ValidationError{Field: "edit_count", Reason: fmt.Sprintf("edit limit of %d reached", s.Config.maxEdits())}
		}
		sched = cur
		oldDays := sched.Days
		oldYear := sched.StartDate.Year()

		if err := s.Conflicts.check(ctx, sched.EmployeeID, in.StartDate, in.EndDate, sched.ID); err != nil {
			return err
		}

		switch {
		case oldYear != newYear:
			// Cross-year move: release from the old year's record, reserve
			// in the new one.
			if err := s.Balances.Release(ctx, sched.EmployeeID, oldYear, oldDays); err != nil {
				return err
			}
			if err := s.Balances.Reserve(ctx, sched.EmployeeID, newYear, newDays); err != nil {
				return err
			}
		case !oldDays.Equal(newDays):
			if err := s.Balances.Rebook(ctx, sched.EmployeeID, oldYear, oldDays, newDays); err != nil {
				return err
			}
		}

		sched.TypeID = typeID
		sched.StartDate = in.StartDate
		sched.EndDate = in.EndDate
		sched.Days = newDays
		sched.EditCount++
		sched.UpdatedBy = access.ActorID
		sched.UpdatedAt = time.Now().UTC()
		if err := s.Schedules.PutSchedule(ctx, sched); err != nil {
			return fmt.Errorf("failed to store edit: %w", err)
		}
		s.audit(ctx, sched, access.ActorID, "edited", string(sched.Status), string(sched.Status),
			fmt.Sprintf("edit %d: %s to %s (%s days)", sched.EditCount, in.StartDate, in.EndDate, newDays))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// Delete soft-deletes a schedule. A scheduled period releases its
// reservation; a pending one reserved nothing. Registered periods cannot be
// deleted.
func (s *ScheduleService) Delete(ctx context.Context, access AccessContext, scheduleID string) error {
	sched, err := s.Schedules.Schedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sched.Deleted || sched.Status == ScheduleRegistered {
		return &TransitionError{EntityType: EntitySchedule, EntityID: sched.ID, Status: string(sched.Status), Action: "delete"}
	}
	if !access.CanAccess(sched.EmployeeID) {
		return &AuthorizationError{ActorID: access.ActorID, Action: "delete", EntityID: sched.ID}
	}

	err = runInTx(ctx, s.Schedules, func(ctx context.Context) error {
		cur, err := s.Schedules.Schedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if cur.Deleted || cur.Status == ScheduleRegistered {
			return &TransitionError{EntityType: EntitySchedule, EntityID: cur.ID, Status: string(cur.Status), Action: "delete"}
		}
		sched = cur
		from := string(sched.Status)
		if sched.Status == ScheduleScheduled {
			if err := s.Balances.Release(ctx, sched.EmployeeID, sched.StartDate.Year(), sched.Days); err != nil {
				return err
			}
		}
		sched.Deleted = true
		sched.UpdatedBy = access.ActorID
		sched.UpdatedAt = time.Now().UTC()
		if err := s.Schedules.PutSchedule(ctx, sched); err != nil {
			return fmt.Errorf("failed to store deletion: %w", err)
		}
		s.audit(ctx, sched, access.ActorID, "deleted", from, from, "")
		return nil
	})
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

// authorizeManager allows the employee's line manager or an admin.
func (s *ScheduleService) authorizeManager(ctx context.Context, access AccessContext, sched *Schedule) error {
	if access.IsAdmin {
		return nil
	}
	emp, err := s.Employees.Employee(ctx, sched.EmployeeID)
	if err != nil {
		return err
	}
	if emp.ManagerID == "" || access.ActorID != emp.ManagerID {
		return &AuthorizationError{ActorID: access.ActorID, Action: "manage", EntityID: sched.ID}
	}
	return nil
}

func (s *ScheduleService) audit(ctx context.Context, sched *Schedule, actor, action, from, to, comment string) {
	if s.Audit == nil {
		return
	}
	entry := AuditEntry{
		ID:         uuid.NewString(),
		EntityType: EntitySchedule,
		EntityID:   sched.ID,
		Actor:      actor,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Comment:    comment,
		At:         time.Now().UTC(),
	}
	if err := s.Audit.Append(ctx, entry); err != nil {
		logrus.WithError(err).WithField("entity_id", sched.ID).Warn("audit append failed")
	}
}

func (s *ScheduleService) notifyChange(ctx context.Context, sched *Schedule, actor, from string) {
	notify(ctx, s.Notifier, StatusChange{
		EntityType: EntitySchedule,
		EntityID:   sched.ID,
		EmployeeID: sched.EmployeeID,
		From:       from,
		To:         string(sched.Status),
		Actor:      actor,
	})
}
