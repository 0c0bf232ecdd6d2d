package access

import "fmt"

// Role is the closed set of permission buckets an employee can hold.
type Role string

const (
	RoleEmployee       Role = "Employee"
	RoleProjectManager Role = "Project Manager"
	RoleHRManager      Role = "HR Manager"
	RoleAdministrator  Role = "Administrator"
)

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleEmployee, RoleProjectManager, RoleHRManager, RoleAdministrator}
}

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleProjectManager, RoleHRManager, RoleAdministrator:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Capability is an entry of the fixed role capability table.
type Capability string

const (
	CapabilityViewAll     Capability = "view-all"
	CapabilityCreate      Capability = "create"
	CapabilityApprove     Capability = "approve"
	CapabilityDeactivate  Capability = "deactivate"
	CapabilityEditAny     Capability = "edit-any"
	CapabilityViewTeam    Capability = "view-team"
	CapabilityApproveTeam Capability = "approve-team"
	CapabilityViewOwn     Capability = "view-own"
	CapabilityCreateOwn   Capability = "create-own"
	CapabilityCancelOwn   Capability = "cancel-own"
)

// RoleCapabilities maps roles to their capabilities
var RoleCapabilities = map[Role][]Capability{
	RoleAdministrator: {
		CapabilityViewAll,
		CapabilityCreate,
		CapabilityApprove,
		CapabilityDeactivate,
		CapabilityEditAny,
	},
	RoleHRManager: {
		CapabilityViewAll,
		CapabilityCreate,
		CapabilityApprove,
		CapabilityDeactivate,
	},
	RoleProjectManager: {
		CapabilityViewTeam,
		CapabilityApproveTeam,
	},
	RoleEmployee: {
		CapabilityViewOwn,
		CapabilityCreateOwn,
		CapabilityCancelOwn,
	},
}

// CapabilitiesFor returns a copy of the role's capability set. Unknown
// roles have none.
func CapabilitiesFor(role Role) []Capability {
	caps := RoleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

func HasCapability(role Role, capability Capability) bool {
	for _, c := range RoleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// CanApprove reports whether the role may be routed approval tasks.
func CanApprove(role Role) bool {
	return HasCapability(role, CapabilityApprove) || HasCapability(role, CapabilityApproveTeam)
}
