/*
hooks.go - Collaborator interfaces invoked on workflow transitions

PURPOSE:
  Two outward-facing hooks fire after every committed transition:

  - NotificationHook: best-effort delivery keyed by the new status.
    Failures are logged and swallowed; they never roll back a transition.
  - AuditSink: append-only record of who did what.

  Implementations live outside the core (email, chat, database table). The
  engine ships no-op defaults so tests and tools can ignore either concern.

SEE ALSO:
  - request.go / schedule.go: The transition call sites
  - store/sqlite: Persistent AuditSink implementation
*/
package leave

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// ENTITY TAG
// =============================================================================

// EntityType tags which workflow entity a hook call refers to.
type EntityType string

const (
	EntityRequest  EntityType = "leave_request"
	EntitySchedule EntityType = "leave_schedule"
)

// =============================================================================
// NOTIFICATION HOOK
// =============================================================================

// StatusChange describes one committed transition.
type StatusChange struct {
	EntityType EntityType
	EntityID   string
	EmployeeID string
	From       string
	To         string
	Actor      string
}

// NotificationHook is invoked synchronously after every committed
// transition. Errors must not affect the transition outcome.
type NotificationHook interface {
	OnStatusChanged(ctx context.Context, change StatusChange) error
}

// NopNotificationHook ignores all changes.
type NopNotificationHook struct{}

func (NopNotificationHook) OnStatusChanged(context.Context, StatusChange) error { return nil }

// notify fires the hook best-effort. A nil hook is allowed.
func notify(ctx context.Context, hook NotificationHook, change StatusChange) {
	if hook == nil {
		return
	}
	if err := hook.OnStatusChanged(ctx, change); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"entity_type": change.EntityType,
			"entity_id":   change.EntityID,
			"to":          change.To,
		}).Warn("notification hook failed")
	}
}

// =============================================================================
// AUDIT SINK
// =============================================================================

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	ID         string
	EntityType EntityType
	EntityID   string
	Actor      string
	Action     string
	FromStatus string
	ToStatus   string
	Comment    string
	At         time.Time
}

// AuditSink stores audit entries. Append-only.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// NopAuditSink discards all entries.
type NopAuditSink struct{}

func (NopAuditSink) Append(context.Context, AuditEntry) error { return nil }
