package models

import (
	dErrors "fleetaudit/pkg/domain-errors"
)

// Role identifies an actor's privilege tier.
type Role string

const (
	RoleViewer       Role = "viewer"
	RoleSupport      Role = "support"
	RoleDispatcher   Role = "dispatcher"
	RoleFleetManager Role = "fleet_manager"
	RoleAdmin        Role = "admin"
	RoleSuperadmin   Role = "superadmin"
)

var validRoles = map[Role]struct{}{
	RoleViewer: {}, RoleSupport: {}, RoleDispatcher: {},
	RoleFleetManager: {}, RoleAdmin: {}, RoleSuperadmin: {},
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	_, ok := validRoles[r]
	return ok
}

// String returns the string representation.
func (r Role) String() string { return string(r) }

// Action is the privileged operation an audit event records.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionView        Action = "view"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionSuspend     Action = "suspend"
	ActionReactivate  Action = "reactivate"
	ActionOverride    Action = "override"
	ActionBreakGlass  Action = "break_glass"
	ActionDualControl Action = "dual_control"
	ActionBatchUpdate Action = "batch_update"
	ActionExport      Action = "export"
	ActionLogin       Action = "login"
	ActionLogout      Action = "logout"
	ActionAssign      Action = "assign"
	ActionUnassign    Action = "unassign"
	ActionVerify      Action = "verify"
	ActionCancel      Action = "cancel"
	ActionMassAction  Action = "mass_action"
)

var validActions = map[Action]struct{}{
	ActionCreate: {}, ActionUpdate: {}, ActionDelete: {}, ActionView: {},
	ActionApprove: {}, ActionReject: {}, ActionSuspend: {}, ActionReactivate: {},
	ActionOverride: {}, ActionBreakGlass: {}, ActionDualControl: {},
	ActionBatchUpdate: {}, ActionExport: {}, ActionLogin: {}, ActionLogout: {},
	ActionAssign: {}, ActionUnassign: {}, ActionVerify: {}, ActionCancel: {},
	ActionMassAction: {},
}

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool {
	_, ok := validActions[a]
	return ok
}

// ParseAction creates an Action from a string, validating it.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "action cannot be empty")
	}
	a := Action(s)
	if !a.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown action: %s", s)
	}
	return a, nil
}

// String returns the string representation.
func (a Action) String() string { return string(a) }

// ResourceType identifies the kind of entity an action touched.
type ResourceType string

const (
	ResourceDriver     ResourceType = "driver"
	ResourceOrder      ResourceType = "order"
	ResourceBooking    ResourceType = "booking"
	ResourcePayment    ResourceType = "payment"
	ResourceRefund     ResourceType = "refund"
	ResourceIncident   ResourceType = "incident"
	ResourceShift      ResourceType = "shift"
	ResourceVehicle    ResourceType = "vehicle"
	ResourceUser       ResourceType = "user"
	ResourceCustomer   ResourceType = "customer"
	ResourceFare       ResourceType = "fare"
	ResourceCommission ResourceType = "commission"
	ResourcePayout     ResourceType = "payout"
	ResourceAdjustment ResourceType = "adjustment"
	ResourceZone       ResourceType = "zone"
	ResourcePromo      ResourceType = "promo"
	ResourceSetting    ResourceType = "setting"
)

var validResourceTypes = map[ResourceType]struct{}{
	ResourceDriver: {}, ResourceOrder: {}, ResourceBooking: {}, ResourcePayment: {},
	ResourceRefund: {}, ResourceIncident: {}, ResourceShift: {}, ResourceVehicle: {},
	ResourceUser: {}, ResourceCustomer: {}, ResourceFare: {}, ResourceCommission: {},
	ResourcePayout: {}, ResourceAdjustment: {}, ResourceZone: {}, ResourcePromo: {},
	ResourceSetting: {},
}

// IsValid checks if the resource type is one of the supported enum values.
func (t ResourceType) IsValid() bool {
	_, ok := validResourceTypes[t]
	return ok
}

// ParseResourceType creates a ResourceType from a string, validating it.
func ParseResourceType(s string) (ResourceType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "resource type cannot be empty")
	}
	t := ResourceType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown resource type: %s", s)
	}
	return t, nil
}

// String returns the string representation.
func (t ResourceType) String() string { return string(t) }

// ChangeType classifies a field-level change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)
