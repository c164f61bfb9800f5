/*
routing.go - Approval chain computation

PURPOSE:
  ComputeApprovalChain is a pure function of the submission-time inputs.
  It is evaluated exactly once, when a request is submitted, and the result
  is persisted on the request as its approval chain. Later transitions only
  advance along the stored list; no condition is ever re-derived mid-flight.

ROUTING RULES:
  1. A manager filing leave for a direct report implicitly satisfies the
     line-manager stage, so it is skipped.
  2. Regional escalation applies iff the employee is Region B and the
     request is for 5 or more working days.
  3. The HR stage applies iff an HR representative is configured.
  4. An empty chain means the request is approved directly at submission.

DETERMINISM:
  Same inputs, same chain, every time. Pinned by tests.
*/
package leave

import (
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/calendar"
)

// RegionalEscalationDays is the duration threshold for the Region B
// escalation stage.
var RegionalEscalationDays = decimal.NewFromInt(5)

// RoutingInput captures everything the routing decision depends on.
type RoutingInput struct {
	// ManagerSubmission is true when the requester is the employee's own
	// line manager filing on their behalf.
	ManagerSubmission bool

	Region calendar.Region
	Days   decimal.Decimal

	// HasHRRepresentative reflects whether an HR approver is configured.
	HasHRRepresentative bool
}

// NeedsRegionalEscalation applies rule 2.
func (in RoutingInput) NeedsRegionalEscalation() bool {
	return in.Region == calendar.RegionB &&
		in.Days.GreaterThanOrEqual(RegionalEscalationDays)
}

// ComputeApprovalChain returns the ordered approval stages for a submission.
func ComputeApprovalChain(in RoutingInput) []Stage {
	var chain []Stage
	if !in.ManagerSubmission {
		chain = append(chain, StageLineManager)
	}
	if in.NeedsRegionalEscalation() {
		chain = append(chain, StageRegional)
	}
	if in.HasHRRepresentative {
		chain = append(chain, StageHR)
	}
	return chain
}

// statusForStage maps a pending stage to its request status.
func statusForStage(s Stage) RequestStatus {
	switch s {
	case StageLineManager:
		return RequestPendingManager
	case StageRegional:
		return RequestPendingRegional
	default:
		return RequestPendingHR
	}
}

// rejectedStatusForStage maps a stage to its terminal rejection status.
func rejectedStatusForStage(s Stage) RequestStatus {
	switch s {
	case StageLineManager:
		return RequestRejectedManager
	case StageRegional:
		return RequestRejectedRegional
	default:
		return RequestRejectedHR
	}
}
