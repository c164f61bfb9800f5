package leave

import "github.com/warp/leave-engine/calendar"

// DefaultMaxScheduleEdits bounds how often a scheduled period can be edited.
const DefaultMaxScheduleEdits = 3

// WorkflowConfig is the read-only configuration surface the workflows
// consume. Resolved once per operation by the caller and passed in
// explicitly; there is no hidden active-settings singleton.
type WorkflowConfig struct {
	// Calendar is the non-working-day snapshot for both regions.
	Calendar *calendar.Config

	// HRRepresentativeID is the default HR approver. Empty means no HR stage
	// is routed.
	HRRepresentativeID string

	// RegionalApproverID handles the Region B escalation stage. Submissions
	// that require the stage fail validation when this is empty.
	RegionalApproverID string

	// AllowNegativeBalance disables the ledger guards.
	AllowNegativeBalance bool

	// MaxScheduleEdits caps schedule edits; zero means the default.
	MaxScheduleEdits int
}

func (c WorkflowConfig) maxEdits() int {
	if c.MaxScheduleEdits <= 0 {
		return DefaultMaxScheduleEdits
	}
	return c.MaxScheduleEdits
}
