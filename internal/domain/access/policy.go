package access

// Action is something a principal attempts on a record.
type Action string

const (
	ActionLeaveView      Action = "leave.view"
	ActionLeaveCreate    Action = "leave.create"
	ActionLeaveEdit      Action = "leave.edit"
	ActionLeaveCancel    Action = "leave.cancel"
	ActionApprovalView   Action = "approval.view"
	ActionApprovalDecide Action = "approval.decide"
	ActionApprovalAssign Action = "approval.assign"
	ActionEmployeeView   Action = "employee.view"
	ActionEmployeeManage Action = "employee.manage"
	ActionProjectView    Action = "project.view"
	ActionProjectManage  Action = "project.manage"
	ActionUserRegister   Action = "user.register"
)

// Scope is the relation between the actor and the record that a grant
// requires.
type Scope string

const (
	ScopeAny      Scope = "any"
	ScopeOwn      Scope = "own"
	ScopeTeam     Scope = "team"
	ScopeAssigned Scope = "assigned"
)

type Grant struct {
	Action Action
	Scope  Scope
}

// CapabilityGrants expands each capability into the actions it allows.
var CapabilityGrants = map[Capability][]Grant{
	CapabilityViewAll: {
		{ActionLeaveView, ScopeAny},
		{ActionEmployeeView, ScopeAny},
		{ActionProjectView, ScopeAny},
	},
	CapabilityCreate: {
		{ActionLeaveCreate, ScopeAny},
		{ActionLeaveEdit, ScopeOwn},
		{ActionLeaveCancel, ScopeOwn},
	},
	CapabilityApprove: {
		{ActionApprovalView, ScopeAssigned},
		{ActionApprovalDecide, ScopeAssigned},
	},
	CapabilityDeactivate: {
		{ActionEmployeeManage, ScopeAny},
		{ActionProjectManage, ScopeAny},
	},
	CapabilityEditAny: {
		{ActionLeaveEdit, ScopeAny},
	},
	CapabilityViewTeam: {
		{ActionLeaveView, ScopeTeam},
		{ActionLeaveView, ScopeAssigned},
		{ActionEmployeeView, ScopeTeam},
		{ActionEmployeeView, ScopeOwn},
		{ActionProjectView, ScopeOwn},
	},
	CapabilityApproveTeam: {
		{ActionApprovalView, ScopeAssigned},
		{ActionApprovalDecide, ScopeAssigned},
	},
	CapabilityViewOwn: {
		{ActionLeaveView, ScopeOwn},
		{ActionEmployeeView, ScopeOwn},
	},
	CapabilityCreateOwn: {
		{ActionLeaveCreate, ScopeOwn},
		{ActionLeaveEdit, ScopeOwn},
	},
	CapabilityCancelOwn: {
		{ActionLeaveCancel, ScopeOwn},
	},
}

// RoleOverrides are grants held by a role outside the capability table.
// An Administrator may decide any approval and staff the unassigned queue.
var RoleOverrides = map[Role][]Grant{
	RoleAdministrator: {
		{ActionApprovalView, ScopeAny},
		{ActionApprovalDecide, ScopeAny},
		{ActionApprovalAssign, ScopeAny},
		{ActionUserRegister, ScopeAny},
	},
}

// GrantsFor flattens a role's capabilities and overrides.
func GrantsFor(role Role) []Grant {
	var grants []Grant
	for _, c := range RoleCapabilities[role] {
		grants = append(grants, CapabilityGrants[c]...)
	}
	return append(grants, RoleOverrides[role]...)
}

// Target describes a record from the actor's point of view. Zero ids mean
// "no such relation".
type Target struct {
	ActorID    int64
	OwnerID    int64
	ApproverID int64
	// InTeam is set when the owner is staffed on a project the actor manages.
	InTeam bool
}

// Scopes lists the scopes the actor satisfies for this target.
func (t Target) Scopes() []Scope {
	scopes := []Scope{ScopeAny}
	if t.OwnerID != 0 && t.OwnerID == t.ActorID {
		scopes = append(scopes, ScopeOwn)
	}
	if t.InTeam {
		scopes = append(scopes, ScopeTeam)
	}
	if t.ApproverID != 0 && t.ApproverID == t.ActorID {
		scopes = append(scopes, ScopeAssigned)
	}
	return scopes
}

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) Allowed() bool { return bool(d) }

// Policy decides whether a role may perform an action on a target.
type Policy interface {
	Check(role Role, action Action, target Target) Decision
	// Allows reports whether the role holds the action for a given scope.
	// List queries use it to build their visibility filter.
	Allows(role Role, action Action, scope Scope) bool
}

// Visibility restricts a list query to records the actor may see.
type Visibility struct {
	All      bool
	ActorID  int64
	Own      bool
	Team     bool
	Assigned bool
}

// VisibilityFor derives the list filter for a principal and view action.
func VisibilityFor(policy Policy, p Principal, action Action) Visibility {
	if policy.Allows(p.Role, action, ScopeAny) {
		return Visibility{All: true, ActorID: p.EmployeeID}
	}
	return Visibility{
		ActorID:  p.EmployeeID,
		Own:      policy.Allows(p.Role, action, ScopeOwn),
		Team:     policy.Allows(p.Role, action, ScopeTeam),
		Assigned: policy.Allows(p.Role, action, ScopeAssigned),
	}
}

// Empty reports whether the filter can match nothing at all.
func (v Visibility) Empty() bool {
	return !v.All && !v.Own && !v.Team && !v.Assigned
}

// Authorize turns a deny into ErrForbidden.
func Authorize(policy Policy, p Principal, action Action, target Target) error {
	target.ActorID = p.EmployeeID
	if !policy.Check(p.Role, action, target).Allowed() {
		return ErrForbidden
	}
	return nil
}
