// Package models defines the audit ledger's record types. Events are
// append-only: once committed they are never mutated, so every struct here is
// treated as immutable after Append.
package models

import (
	"time"
)

// Actor is the identity that performed a privileged action. Immutable once
// attached to an event.
type Actor struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	Seat      string `json:"seat,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Resource is the entity acted upon.
type Resource struct {
	Type  ResourceType `json:"type"`
	ID    string       `json:"id"`
	Label string       `json:"label,omitempty"`
}

// ChangeDiff is one field-level delta between two state snapshots. Derived by
// the diff engine, never independently authored.
type ChangeDiff struct {
	Field      string     `json:"field"`
	OldValue   any        `json:"old_value"`
	NewValue   any        `json:"new_value"`
	ChangeType ChangeType `json:"change_type"`
}

// BreakGlassDetails records an emergency access override. When Used is true,
// Justification and ApprovedBy are mandatory and ApprovalTimestamp must not
// precede the event timestamp.
type BreakGlassDetails struct {
	Used                     bool      `json:"used"`
	Justification            string    `json:"justification,omitempty"`
	ApprovedBy               string    `json:"approved_by,omitempty"`
	ApprovalTimestamp        time.Time `json:"approval_timestamp,omitzero"`
	EmergencyContactNotified bool      `json:"emergency_contact_notified"`
}

// DualControlApprover is the second, distinct approver of a sensitive action.
// Its UserID must differ from the event actor's.
type DualControlApprover struct {
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	Role          Role      `json:"role"`
	Seat          string    `json:"seat,omitempty"`
	ApprovedAt    time.Time `json:"approved_at"`
	Justification string    `json:"justification,omitempty"`
}

// Metadata is the optional request-provenance bag attached to an event.
type Metadata struct {
	SessionID     string `json:"session_id,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
	ClientVersion string `json:"client_version,omitempty"`
}

// AuditEvent is the atomic, immutable ledger record of one privileged action.
type AuditEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Action    Action    `json:"action"`
	Resource  Resource  `json:"resource"`

	// BeforeState and AfterState are opaque field snapshots. The diff engine
	// works over them without schema knowledge.
	BeforeState map[string]any `json:"before_state,omitempty"`
	AfterState  map[string]any `json:"after_state,omitempty"`

	// Changes, when present, must equal the diff engine's output over
	// (BeforeState, AfterState). When absent with both snapshots set, it is
	// computed lazily on read.
	Changes []ChangeDiff `json:"changes,omitempty"`

	ReasonCode string `json:"reason_code,omitempty"`
	ReasonText string `json:"reason_text,omitempty"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`

	BreakGlass          *BreakGlassDetails   `json:"break_glass,omitempty"`
	DualControlApprover *DualControlApprover `json:"dual_control_approver,omitempty"`

	Metadata *Metadata `json:"metadata,omitempty"`

	// Seq is the store-assigned insertion sequence used to break timestamp
	// ties in scan order. Not part of the wire representation.
	Seq uint64 `json:"-"`
}

// Clone returns a deep copy sharing no mutable state with the receiver. The
// ledger copies events on append and on read so caller-side mutation can
// never reach a committed record.
func (e *AuditEvent) Clone() *AuditEvent {
	c := *e
	c.BeforeState = cloneValue(e.BeforeState).(map[string]any)
	c.AfterState = cloneValue(e.AfterState).(map[string]any)
	if e.Changes != nil {
		c.Changes = make([]ChangeDiff, len(e.Changes))
		for i, ch := range e.Changes {
			ch.OldValue = cloneValue(ch.OldValue)
			ch.NewValue = cloneValue(ch.NewValue)
			c.Changes[i] = ch
		}
	}
	if e.BreakGlass != nil {
		bg := *e.BreakGlass
		c.BreakGlass = &bg
	}
	if e.DualControlApprover != nil {
		dc := *e.DualControlApprover
		c.DualControlApprover = &dc
	}
	if e.Metadata != nil {
		m := *e.Metadata
		c.Metadata = &m
	}
	return &c
}

// cloneValue deep-copies the JSON-shaped containers a snapshot can hold.
// Scalars are immutable and pass through.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
