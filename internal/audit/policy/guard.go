// Package policy validates audit events before they are committed to the
// ledger. Validation runs at append time only; read-side consumers trust
// already-stored events.
package policy

import (
	"fleetaudit/internal/audit/diff"
	"fleetaudit/internal/audit/models"
	dErrors "fleetaudit/pkg/domain-errors"
)

// Guard checks that an event's policy overlays are internally consistent.
// Checks run in a fixed order and short-circuit on the first failure; a
// rejected event is never partially applied.
type Guard struct{}

// NewGuard constructs a policy guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Validate returns nil when the event satisfies every ledger invariant.
// Structural problems yield CodeValidation; policy-overlay inconsistencies
// yield CodeInvariantViolation.
func (g *Guard) Validate(e *models.AuditEvent) error {
	if err := g.checkRequiredFields(e); err != nil {
		return err
	}
	if err := g.checkOutcome(e); err != nil {
		return err
	}
	if err := g.checkBreakGlass(e); err != nil {
		return err
	}
	if err := g.checkDualControl(e); err != nil {
		return err
	}
	return g.checkDiffIntegrity(e)
}

func (g *Guard) checkRequiredFields(e *models.AuditEvent) error {
	if e == nil {
		return dErrors.New(dErrors.CodeValidation, "event is required")
	}
	if !e.Action.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid action %q", e.Action)
	}
	if !e.Resource.Type.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid resource type %q", e.Resource.Type)
	}
	if e.Resource.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "resource id is required")
	}
	if e.Actor.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "actor user id is required")
	}
	if e.Actor.Role != "" && !e.Actor.Role.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid actor role %q", e.Actor.Role)
	}
	return nil
}

// checkOutcome enforces success/error-message consistency: a failed event
// must explain itself, a successful one must not carry an error.
func (g *Guard) checkOutcome(e *models.AuditEvent) error {
	if !e.Success && e.ErrorMessage == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "failed event requires an error message")
	}
	if e.Success && e.ErrorMessage != "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "successful event must not carry an error message")
	}
	return nil
}

// checkBreakGlass enforces that emergency access is justified and signed off.
// Break-glass metadata on actions other than break_glass is legal; only
// internal consistency is checked.
func (g *Guard) checkBreakGlass(e *models.AuditEvent) error {
	bg := e.BreakGlass
	if bg == nil || !bg.Used {
		return nil
	}
	if bg.Justification == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "break-glass use requires a justification")
	}
	if bg.ApprovedBy == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "break-glass use requires an approver")
	}
	if !bg.ApprovalTimestamp.IsZero() && bg.ApprovalTimestamp.Before(e.Timestamp) {
		return dErrors.New(dErrors.CodeInvariantViolation, "break-glass approval cannot precede the event")
	}
	return nil
}

// checkDualControl enforces approver distinctness: nobody co-approves their
// own action.
func (g *Guard) checkDualControl(e *models.AuditEvent) error {
	dc := e.DualControlApprover
	if dc == nil {
		return nil
	}
	if dc.UserID == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "dual-control approver requires a user id")
	}
	if dc.UserID == e.Actor.UserID {
		return dErrors.New(dErrors.CodeInvariantViolation, "dual-control approver must differ from the actor")
	}
	return nil
}

// checkDiffIntegrity rejects silent tampering: a supplied change set must
// equal what the diff engine computes over the snapshots.
func (g *Guard) checkDiffIntegrity(e *models.AuditEvent) error {
	if e.Changes == nil || e.BeforeState == nil || e.AfterState == nil {
		return nil
	}
	expected := diff.Compute(e.BeforeState, e.AfterState)
	if !diff.Equal(e.Changes, expected) {
		return dErrors.New(dErrors.CodeInvariantViolation, "supplied changes do not match computed diff")
	}
	return nil
}
