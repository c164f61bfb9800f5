/*
request.go - Leave request workflow

PURPOSE:
  Drives the leave request state machine:

    draft -> pending stages (per the stored chain) -> approved
                          \-> rejected_<stage>
    draft -> withdrawn

  The approval route is computed once at submission (routing.go) and stored
  on the request. Transitions advance along it; only the final transition
  into approved touches the balance ledger.

LEDGER CONTRACT:
  - Submission checks the balance (Remaining) but reserves nothing.
  - Intermediate approvals record approver/timestamp/comment only.
  - The final approval calls Consume(days) in the same storage transaction
    as the status write.
  - Rejection never touches the ledger.

SIDE EFFECTS:
  Every committed transition appends an audit entry and fires the
  notification hook (best-effort, failures logged).

SEE ALSO:
  - routing.go:  ComputeApprovalChain
  - conflict.go: Submission-time overlap check
  - balance:     CheckRequestable / Consume
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
// REQUEST SERVICE
// =============================================================================

type RequestService struct {
	Config    WorkflowConfig
	Employees EmployeeStore
	Types     TypeStore
	Requests  RequestStore
	Balances  *balance.Ledger
	Conflicts *Detector
	Notifier  NotificationHook
	Audit     AuditSink
}

// SubmitRequestInput is everything a submission carries.
type SubmitRequestInput struct {
	EmployeeID string
	TypeID     string

	StartDate calendar.Date
	EndDate   calendar.Date

	HalfDay     bool
	HalfDayFrom string // HH:MM
	HalfDayTo   string // HH:MM

	Reason string
}

// =============================================================================
// CREATION
// =============================================================================

// SaveDraft validates the input and stores the request in draft status.
// Conflict and balance checks run at submission, not here.
func (s *RequestService) SaveDraft(ctx context.Context, access AccessContext, in SubmitRequestInput) (*Request, error) {
	req, err := s.build(ctx, access, in)
	if err != nil {
		return nil, err
	}
	if err := s.Requests.PutRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to store draft: %w", err)
	}
	s.audit(ctx, req, access.ActorID, "draft_saved", "", string(RequestDraft), "")
	return req, nil
}

// Submit creates a request and submits it in one step.
func (s *RequestService) Submit(ctx context.Context, access AccessContext, in SubmitRequestInput) (*Request, error) {
	req, err := s.build(ctx, access, in)
	if err != nil {
		return nil, err
	}
	if err := s.submit(ctx, access, req); err != nil {
		return nil, err
	}
	return req, nil
}

// SubmitDraft promotes an existing draft into the approval workflow.
func (s *RequestService) SubmitDraft(ctx context.Context, access AccessContext, requestID string) (*Request, error) {
	req, err := s.Requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != RequestDraft || req.Deleted {
		return nil, &TransitionError{EntityType: EntityRequest, EntityID: req.ID, Status: string(req.Status), Action: "submit"}
	}
	if !access.CanAccess(req.EmployeeID) {
		return nil, &AuthorizationError{ActorID: access.ActorID, Action: "submit", EntityID: req.ID}
	}
	if err := s.submit(ctx, access, req); err != nil {
		return nil, err
	}
	return req, nil
}

// build validates the input and assembles a draft request.
func (s *RequestService) build(ctx context.Context, access AccessContext, in SubmitRequestInput) (*Request, error) {
	if !access.CanAccess(in.EmployeeID) {
		return nil, &AuthorizationError{ActorID: access.ActorID, Action: "create request for", EntityID: in.EmployeeID}
	}

	emp, err := s.Employees.Employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	typ, err := s.Types.Type(ctx, in.TypeID)
	if err != nil {
		return nil, err
	}

	if err := validateRange(in.StartDate, in.EndDate, in.HalfDay, in.HalfDayFrom, in.HalfDayTo, typ); err != nil {
		return nil, err
	}
	if typ.RegionBOnly && emp.Region != calendar.RegionB {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("leave type %q is restricted to Region B employees", typ.Name)}
	}

	days := s.Config.Calendar.RequestDays(in.StartDate, in.EndDate, emp.Region, in.HalfDay)
	if !days.IsPositive() {
		return nil, &ValidationError{Field: "dates", Reason: "range contains no working days"}
	}

	now := time.Now().UTC()
	return &Request{
		ID:          uuid.NewString(),
		EmployeeID:  emp.ID,
		RequesterID: access.ActorID,
		TypeID:      typ.ID,
		Region:      emp.Region,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		HalfDay:     in.HalfDay,
		HalfDayFrom: in.HalfDayFrom,
		HalfDayTo:   in.HalfDayTo,
		Days:        days,
		Status:      RequestDraft,
		Reason:      in.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// =============================================================================
// SUBMISSION
// =============================================================================

// submit runs the submission-time checks, computes and stores the approval
// chain, and moves the request to its first pending stage (or straight to
// approved when the chain is empty).
func (s *RequestService) submit(ctx context.Context, access AccessContext, req *Request) error {
	emp, err := s.Employees.Employee(ctx, req.EmployeeID)
	if err != nil {
		return err
	}

	managerSubmission := emp.ManagerID != "" && req.RequesterID == emp.ManagerID
	chain := ComputeApprovalChain(RoutingInput{
		ManagerSubmission:   managerSubmission,
		Region:              emp.Region,
		Days:                req.Days,
		HasHRRepresentative: s.Config.HRRepresentativeID != "",
	})
	if chainContains(chain, StageRegional) && s.Config.RegionalApproverID == "" {
		return &ValidationError{Field: "regional_approver", Reason: "regional escalation required but no approver is configured"}
	}
	if chainContains(chain, StageLineManager) && emp.ManagerID == "" {
		return &ValidationError{Field: "line_manager", Reason: "employee has no line manager configured"}
	}

	year := req.StartDate.Year()
	from := string(req.Status)

	err = runInTx(ctx, s.Requests, func(ctx context.Context) error {
		// Re-checked inside the transaction so concurrent submissions for
		// the same employee serialize on the row locks.
		if err := s.Conflicts.check(ctx, req.EmployeeID, req.StartDate, req.EndDate, req.ID); err != nil {
			return err
		}
		if err := s.Balances.CheckRequestable(ctx, req.EmployeeID, year, req.Days); err != nil {
			return err
		}

		req.Chain = chain
		req.StageIndex = 0
		req.UpdatedAt = time.Now().UTC()

		if len(chain) == 0 {
			req.Status = RequestApproved
			if err := s.Balances.Consume(ctx, req.EmployeeID, year, req.Days); err != nil {
				return err
			}
		} else {
			req.Status = statusForStage(chain[0])
		}

		if err := s.Requests.PutRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to store request: %w", err)
		}
		s.audit(ctx, req, access.ActorID, "submitted", from, string(req.Status), req.Reason)
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyChange(ctx, req, access.ActorID, from)
	return nil
}

// =============================================================================
// STAGE TRANSITIONS
// =============================================================================

// Approve records the current stage's approval and advances the chain.
// Only the final transition into approved consumes balance.
func (s *RequestService) Approve(ctx context.Context, access AccessContext, requestID, comment string) (*Request, error) {
	req, err := s.Requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	stage, ok := req.CurrentStage()
	if !ok {
		return nil, &TransitionError{EntityType: EntityRequest, EntityID: req.ID, Status: string(req.Status), Action: "approve"}
	}
	emp, err := s.Employees.Employee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStage(access, stage, emp, req.ID); err != nil {
		return nil, err
	}

	var from string
	err = runInTx(ctx, s.Requests, func(ctx context.Context) error {
		// Re-read under the transaction: a concurrent approval of the same
		// stage must fail the stage check here, not consume twice.
		cur, err := s.Requests.Request(ctx, requestID)
		if err != nil {
			return err
		}
		if curStage, ok := cur.CurrentStage(); !ok || curStage != stage {
			return &TransitionError{EntityType: EntityRequest, EntityID: cur.ID, Status: string(cur.Status), Action: "approve"}
		}
		req = cur
		from = string(req.Status)

		now := time.Now().UTC()
		approval := &Approval{ApproverID: access.ActorID, At: now, Comment: comment}
		switch stage {
		case StageLineManager:
			req.ManagerApproval = approval
		case StageRegional:
			req.RegionalApproval = approval
		case StageHR:
			req.HRApproval = approval
		}

		req.StageIndex++
		req.UpdatedAt = now

		if req.StageIndex < len(req.Chain) {
			req.Status = statusForStage(req.Chain[req.StageIndex])
		} else {
			req.Status = RequestApproved
			if err := s.Balances.Consume(ctx, req.EmployeeID, req.StartDate.Year(), req.Days); err != nil {
				return err
			}
		}
		if err := s.Requests.PutRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to store approval: %w", err)
		}
		s.audit(ctx, req, access.ActorID, "approved_"+string(stage), from, string(req.Status), comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx, req, access.ActorID, from)
	return req, nil
}

// Reject terminates the workflow at the current stage. Reason is mandatory
// and the ledger is never touched.
func (s *RequestService) Reject(ctx context.Context, access AccessContext, requestID, reason string) (*Request, error) {
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "rejection reason is required"}
	}
	req, err := s.Requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	stage, ok := req.CurrentStage()
	if !ok {
		return nil, &TransitionError{EntityType: EntityRequest, EntityID: req.ID, Status: string(req.Status), Action: "reject"}
	}
	emp, err := s.Employees.Employee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStage(access, stage, emp, req.ID); err != nil {
		return nil, err
	}

	var from string
	err = runInTx(ctx, s.Requests, func(ctx context.Context) error {
		cur, err := s.Requests.Request(ctx, requestID)
		if err != nil {
			return err
		}
		if curStage, ok := cur.CurrentStage(); !ok || curStage != stage {
			return &TransitionError{EntityType: EntityRequest, EntityID: cur.ID, Status: string(cur.Status), Action: "reject"}
		}
		req = cur
		from = string(req.Status)

		now := time.Now().UTC()
		req.Status = rejectedStatusForStage(stage)
		req.Rejection = &Rejection{ActorID: access.ActorID, Stage: stage, Reason: reason, At: now}
		req.UpdatedAt = now

		if err := s.Requests.PutRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to store rejection: %w", err)
		}
		s.audit(ctx, req, access.ActorID, "rejected_"+string(stage), from, string(req.Status), reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyChange(ctx, req, access.ActorID, from)
	return req, nil
}

// Withdraw retires a draft before it enters the workflow. Submitted requests
// cannot be withdrawn; a pending stage can only be rejected by its approver.
func (s *RequestService) Withdraw(ctx context.Context, access AccessContext, requestID string) (*Request, error) {
	req, err := s.Requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != RequestDraft || req.Deleted {
		return nil, &TransitionError{EntityType: EntityRequest, EntityID: req.ID, Status: string(req.Status), Action: "withdraw"}
	}
	if access.ActorID != req.RequesterID && !access.IsAdmin {
		return nil, &AuthorizationError{ActorID: access.ActorID, Action: "withdraw", EntityID: req.ID}
	}

	from := string(req.Status)
	req.Status = RequestWithdrawn
	req.Deleted = true
	req.UpdatedAt = time.Now().UTC()

	if err := s.Requests.PutRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to store withdrawal: %w", err)
	}
	s.audit(ctx, req, access.ActorID, "withdrawn", from, string(req.Status), "")
	s.notifyChange(ctx, req, access.ActorID, from)
	return req, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// authorizeStage checks that the actor is the configured approver for the
// stage. Admins may act for any stage.
func (s *RequestService) authorizeStage(access AccessContext, stage Stage, emp *Employee, requestID string) error {
	if access.IsAdmin {
		return nil
	}
	var expected string
	switch stage {
	case StageLineManager:
		expected = emp.ManagerID
	case StageRegional:
		expected = s.Config.RegionalApproverID
	case StageHR:
		expected = s.Config.HRRepresentativeID
	}
	if expected == "" || access.ActorID != expected {
		return &AuthorizationError{ActorID: access.ActorID, Action: "approve stage " + string(stage) + " of", EntityID: requestID}
	}
	return nil
}

func (s *RequestService) audit(ctx context.Context, req *Request, actor, action, from, to, comment string) {
	if s.Audit == nil {
		return
	}
	entry := AuditEntry{
		ID:         uuid.NewString(),
		EntityType: EntityRequest,
		EntityID:   req.ID,
		Actor:      actor,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		Comment:    comment,
		At:         time.Now().UTC(),
	}
	if err := s.Audit.Append(ctx, entry); err != nil {
		logrus.WithError(err).WithField("entity_id", req.ID).Warn("audit append failed")
	}
}

func (s *RequestService) notifyChange(ctx context.Context, req *Request, actor, from string) {
	notify(ctx, s.Notifier, StatusChange{
		EntityType: EntityRequest,
		EntityID:   req.ID,
		EmployeeID: req.EmployeeID,
		From:       from,
		To:         string(req.Status),
		Actor:      actor,
	})
}

func chainContains(chain []Stage, s Stage) bool {
	for _, c := range chain {
		if c == s {
			return true
		}
	}
	return false
}

// validateRange checks the date range and half-day shape against the type.
func validateRange(start, end calendar.Date, halfDay bool, from, to string, typ *Type) error {
	if start.IsZero() || end.IsZero() {
		return &ValidationError{Field: "dates", Reason: "start and end dates are required"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "dates", Reason: "end date before start date"}
	}
	if !halfDay {
		if from != "" || to != "" {
			return &ValidationError{Field: "half_day", Reason: "time window given without half-day flag"}
		}
		return nil
	}
	if !typ.HalfDayCapable {
		return &ValidationError{Field: "half_day", Reason: fmt.Sprintf("leave type %q does not allow half days", typ.Name)}
	}
	if !start.Equal(end) {
		return &ValidationError{Field: "half_day", Reason: "half-day request must cover a single date"}
	}
	if !validClock(from) || !validClock(to) {
		return &ValidationError{Field: "half_day", Reason: "time window must be HH:MM"}
	}
	if from >= to {
		return &ValidationError{Field: "half_day", Reason: "time window start must precede end"}
	}
	return nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
