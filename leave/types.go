/*
Package leave implements the leave request and leave schedule workflows.

PURPOSE:
  Two related state machines over shared leaf components:

  - Leave Request: immediate leave, gated by a multi-stage approval chain
    (line manager -> optional regional escalation -> HR) computed once at
    submission. The balance ledger is consumed only on final approval.
  - Leave Schedule: pre-planned leave with a single manager approval. The
    ledger reserves days while the schedule is active and converts the
    reservation to consumption when the leave is registered as taken.

  Both depend on the calendar engine (day counts), the conflict detector
  (overlap scan) and the balance ledger.

STATE MACHINES:
  Request:  draft -> pending_manager -> [pending_regional] -> [pending_hr]
            -> approved, with rejected_<stage> terminal from any pending
            stage and withdrawn terminal from draft.
  Schedule: pending_manager -> scheduled -> registered, soft deletion
            allowed before registered.

  Statuses are closed enums; transition methods match on the current status
  and return InvalidStateTransition for anything else. There is no
  "needs clarification" loop in either machine.

SEE ALSO:
  - routing.go:  ComputeApprovalChain
  - request.go:  RequestService
  - schedule.go: ScheduleService
  - conflict.go: Detector
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/calendar"
)

// =============================================================================
// REFERENCE DATA
// =============================================================================

// Employee is the slice of the directory the workflows need: who the line
// manager is and which regional calendar applies.
type Employee struct {
	ID        string
	Name      string
	Email     string
	ManagerID string
	Region    calendar.Region
	CreatedAt time.Time
}

// Type is a leave type. Immutable during a request's lifetime.
type Type struct {
	ID   string
	Name string

	// RegionBOnly restricts the type to Region B employees.
	RegionBOnly bool

	// HalfDayCapable allows a sub-day time range on a single-date request.
	HalfDayCapable bool

	CreatedAt time.Time
}

// =============================================================================
// APPROVAL STAGES
// =============================================================================

// Stage is one step of a request's approval chain.
type Stage string

const (
	StageLineManager Stage = "line_manager"
	StageRegional    Stage = "regional"
	StageHR          Stage = "hr"
)

// Approval records who approved a stage, when, and with what comment.
type Approval struct {
	ApproverID string
	At         time.Time
	Comment    string
}

// Rejection records the terminal rejection of a request.
type Rejection struct {
	ActorID string
	Stage   Stage
	Reason  string
	At      time.Time
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type RequestStatus string

const (
	RequestDraft            RequestStatus = "draft"
	RequestPendingManager   RequestStatus = "pending_manager"
	RequestPendingRegional  RequestStatus = "pending_regional"
	RequestPendingHR        RequestStatus = "pending_hr"
	RequestApproved         RequestStatus = "approved"
	RequestRejectedManager  RequestStatus = "rejected_manager"
	RequestRejectedRegional RequestStatus = "rejected_regional"
	RequestRejectedHR       RequestStatus = "rejected_hr"
	RequestWithdrawn        RequestStatus = "withdrawn"
)

// Active reports whether the status blocks overlapping leave periods:
// submitted (any pending stage) or approved.
func (s RequestStatus) Active() bool {
	switch s {
	case RequestPendingManager, RequestPendingRegional, RequestPendingHR, RequestApproved:
		return true
	}
	return false
}

// Pending reports whether the status is waiting on a stage approver.
func (s RequestStatus) Pending() bool {
	switch s {
	case RequestPendingManager, RequestPendingRegional, RequestPendingHR:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestApproved, RequestRejectedManager, RequestRejectedRegional,
		RequestRejectedHR, RequestWithdrawn:
		return true
	}
	return false
}

// Request is an immediate leave request. Mutated only through the
// RequestService transition methods; soft-marked, never hard-deleted.
type Request struct {
	ID          string
	EmployeeID  string
	RequesterID string
	TypeID      string
	Region      calendar.Region

	StartDate calendar.Date
	EndDate   calendar.Date

	// Half-day requests span part of a single day and count as 0.5 days.
	HalfDay     bool
	HalfDayFrom string // HH:MM
	HalfDayTo   string // HH:MM

	Days   decimal.Decimal
	Status RequestStatus
	Reason string

	// Chain is the approval route computed once at submission; StageIndex is
	// the position of the current pending stage. Later transitions only ever
	// advance along this list.
	Chain      []Stage
	StageIndex int

	ManagerApproval  *Approval
	RegionalApproval *Approval
	HRApproval       *Approval
	Rejection        *Rejection

	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentStage returns the pending stage, if any.
func (r *Request) CurrentStage() (Stage, bool) {
	if !r.Status.Pending() || r.StageIndex >= len(r.Chain) {
		return "", false
	}
	return r.Chain[r.StageIndex], true
}

// =============================================================================
// LEAVE SCHEDULE
// =============================================================================

type ScheduleStatus string

const (
	SchedulePendingManager ScheduleStatus = "pending_manager"
	ScheduleScheduled      ScheduleStatus = "scheduled"
	ScheduleRegistered     ScheduleStatus = "registered"
)

// Schedule is pre-planned leave. Created by the employee (needs manager
// approval) or by the manager/admin (auto-approved). Soft-deleted only.
type Schedule struct {
	ID         string
	EmployeeID string
	TypeID     string
	Region     calendar.Region

	StartDate calendar.Date
	EndDate   calendar.Date
	Days      decimal.Decimal

	Status          ScheduleStatus
	ManagerApproval *Approval

	// EditCount is bounded by WorkflowConfig.MaxScheduleEdits.
	EditCount int

	CreatedBy string
	UpdatedBy string

	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ACCESS CONTEXT - Supplied by the identity/role subsystem
// =============================================================================

// AccessContext is the opaque authorization view the caller resolved for the
// acting user. The engine uses it only to decide manager-on-behalf-of
// submissions and to gate transition calls; role resolution itself is an
// external collaborator.
type AccessContext struct {
	ActorID               string
	IsAdmin               bool
	IsManager             bool
	AccessibleEmployeeIDs []string
}

// CanAccess reports whether the actor may act on the employee's records.
func (a AccessContext) CanAccess(employeeID string) bool {
	if a.IsAdmin || a.ActorID == employeeID {
		return true
	}
	for _, id := range a.AccessibleEmployeeIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}
