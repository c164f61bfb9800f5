/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  All dates cross the wire as "2006-01-02" strings; timestamps as RFC3339.
  Day counts are decimal strings ("2.5") so half days survive serialization.

VALIDATION:
  Validation is done in handlers and the domain services, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/balance"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES AND TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ManagerID string `json:"manager_id,omitempty"`
	Region    string `json:"region"`
	CreatedAt string `json:"created_at"`
}

// CreateEmployeeRequest creates a new employee.
type CreateEmployeeRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ManagerID string `json:"manager_id"`
	Region    string `json:"region"`
}

// LeaveTypeDTO represents a leave type.
type LeaveTypeDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RegionBOnly    bool   `json:"region_b_only"`
	HalfDayCapable bool   `json:"half_day_capable"`
}

// CreateLeaveTypeRequest creates a new leave type.
type CreateLeaveTypeRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RegionBOnly    bool   `json:"region_b_only"`
	HalfDayCapable bool   `json:"half_day_capable"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// HolidayDTO is one configured non-working day.
type HolidayDTO struct {
	Region string `json:"region"`
	Date   string `json:"date"`
	Label  string `json:"label"`
}

// WorkingDaysDTO is the result of a calendar query.
type WorkingDaysDTO struct {
	Region     string `json:"region"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Days       string `json:"days"`
	ReturnDate string `json:"return_date"`
}

// =============================================================================
// BALANCES
// =============================================================================

// BalanceDTO is the derived view of one employee-year balance record.
type BalanceDTO struct {
	EmployeeID           string `json:"employee_id"`
	Year                 int    `json:"year"`
	StartBalance         string `json:"start_balance"`
	YearlyBalance        string `json:"yearly_balance"`
	UsedDays             string `json:"used_days"`
	ScheduledDays        string `json:"scheduled_days"`
	Total                string `json:"total"`
	Remaining            string `json:"remaining"`
	AvailableForPlanning string `json:"available_for_planning"`
	ToPlan               string `json:"to_plan"`
}

// GrantBalanceRequest sets an employee-year entitlement.
type GrantBalanceRequest struct {
	Year          int    `json:"year"`
	StartBalance  string `json:"start_balance"`
	YearlyBalance string `json:"yearly_balance"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SubmitLeaveRequest is the body for creating or submitting a leave request.
type SubmitLeaveRequest struct {
	EmployeeID  string `json:"employee_id"`
	TypeID      string `json:"type_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	HalfDay     bool   `json:"half_day"`
	HalfDayFrom string `json:"half_day_from,omitempty"`
	HalfDayTo   string `json:"half_day_to,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// DecisionRequest carries an approval comment or a rejection reason.
type DecisionRequest struct {
	Comment string `json:"comment,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ApprovalDTO is one recorded stage approval.
type ApprovalDTO struct {
	ApproverID string `json:"approver_id"`
	At         string `json:"at"`
	Comment    string `json:"comment,omitempty"`
}

// RejectionDTO is the terminal rejection record.
type RejectionDTO struct {
	ActorID string `json:"actor_id"`
	Stage   string `json:"stage"`
	Reason  string `json:"reason"`
	At      string `json:"at"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	RequesterID string `json:"requester_id"`
	TypeID      string `json:"type_id"`
	Region      string `json:"region"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	HalfDay     bool   `json:"half_day"`
	HalfDayFrom string `json:"half_day_from,omitempty"`
	HalfDayTo   string `json:"half_day_to,omitempty"`
	Days        string `json:"days"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`

	Chain      []string `json:"approval_chain"`
	StageIndex int      `json:"stage_index"`

	ManagerApproval  *ApprovalDTO  `json:"manager_approval,omitempty"`
	RegionalApproval *ApprovalDTO  `json:"regional_approval,omitempty"`
	HRApproval       *ApprovalDTO  `json:"hr_approval,omitempty"`
	Rejection        *RejectionDTO `json:"rejection,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// =============================================================================
// LEAVE SCHEDULES
// =============================================================================

// CreateScheduleRequest creates a new leave schedule.
type CreateScheduleRequest struct {
	EmployeeID string `json:"employee_id"`
	TypeID     string `json:"type_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// EditScheduleRequest rebooks an existing schedule.
type EditScheduleRequest struct {
	TypeID    string `json:"type_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// LeaveScheduleDTO represents a leave schedule in API responses.
type LeaveScheduleDTO struct {
	ID              string       `json:"id"`
	EmployeeID      string       `json:"employee_id"`
	TypeID          string       `json:"type_id"`
	Region          string       `json:"region"`
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date"`
	Days            string       `json:"days"`
	Status          string       `json:"status"`
	ManagerApproval *ApprovalDTO `json:"manager_approval,omitempty"`
	EditCount       int          `json:"edit_count"`
	CreatedBy       string       `json:"created_by"`
	UpdatedBy       string       `json:"updated_by"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
}

// =============================================================================
// AUDIT AND ERRORS
// =============================================================================

// AuditEntryDTO is one audit trail record.
type AuditEntryDTO struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Comment    string `json:"comment,omitempty"`
	At         string `json:"at"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(e *leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		ManagerID: e.ManagerID,
		Region:    string(e.Region),
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toLeaveTypeDTO(t *leave.Type) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:             t.ID,
		Name:           t.Name,
		RegionBOnly:    t.RegionBOnly,
		HalfDayCapable: t.HalfDayCapable,
	}
}

func toBalanceDTO(rec *balance.Record) BalanceDTO {
	return BalanceDTO{
		EmployeeID:           rec.EmployeeID,
		Year:                 rec.Year,
		StartBalance:         rec.StartBalance.String(),
		YearlyBalance:        rec.YearlyBalance.String(),
		UsedDays:             rec.UsedDays.String(),
		ScheduledDays:        rec.ScheduledDays.String(),
		Total:                rec.Total().String(),
		Remaining:            rec.Remaining().String(),
		AvailableForPlanning: rec.AvailableForPlanning().String(),
		ToPlan:               rec.ToPlan().String(),
	}
}

func toApprovalDTO(a *leave.Approval) *ApprovalDTO {
	if a == nil {
		return nil
	}
	return &ApprovalDTO{
		ApproverID: a.ApproverID,
		At:         a.At.Format(time.RFC3339),
		Comment:    a.Comment,
	}
}

func toRejectionDTO(r *leave.Rejection) *RejectionDTO {
	if r == nil {
		return nil
	}
	return &RejectionDTO{
		ActorID: r.ActorID,
		Stage:   string(r.Stage),
		Reason:  r.Reason,
		At:      r.At.Format(time.RFC3339),
	}
}

func toLeaveRequestDTO(r *leave.Request) LeaveRequestDTO {
	chain := make([]string, len(r.Chain))
	for i, s := range r.Chain {
		chain[i] = string(s)
	}
	return LeaveRequestDTO{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		RequesterID: r.RequesterID,
		TypeID:      r.TypeID,
		Region:      string(r.Region),
		StartDate:   r.StartDate.String(),
		EndDate:     r.EndDate.String(),
		HalfDay:     r.HalfDay,
		HalfDayFrom: r.HalfDayFrom,
		HalfDayTo:   r.HalfDayTo,
		Days:        r.Days.String(),
		Status:      string(r.Status),
		Reason:      r.Reason,

		Chain:      chain,
		StageIndex: r.StageIndex,

		ManagerApproval:  toApprovalDTO(r.ManagerApproval),
		RegionalApproval: toApprovalDTO(r.RegionalApproval),
		HRApproval:       toApprovalDTO(r.HRApproval),
		Rejection:        toRejectionDTO(r.Rejection),

		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}

func toLeaveScheduleDTO(s *leave.Schedule) LeaveScheduleDTO {
	return LeaveScheduleDTO{
		ID:              s.ID,
		EmployeeID:      s.EmployeeID,
		TypeID:          s.TypeID,
		Region:          string(s.Region),
		StartDate:       s.StartDate.String(),
		EndDate:         s.EndDate.String(),
		Days:            s.Days.String(),
		Status:          string(s.Status),
		ManagerApproval: toApprovalDTO(s.ManagerApproval),
		EditCount:       s.EditCount,
		CreatedBy:       s.CreatedBy,
		UpdatedBy:       s.UpdatedBy,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
	}
}

func toAuditEntryDTO(e leave.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:         e.ID,
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		Actor:      e.Actor,
		Action:     e.Action,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Comment:    e.Comment,
		At:         e.At.Format(time.RFC3339),
	}
}
