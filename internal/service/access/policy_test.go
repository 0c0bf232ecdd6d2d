package access

import (
	"testing"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Check(t *testing.T) {
	policy, err := NewPolicy()
	require.NoError(t, err)

	const actor, other = int64(1), int64(2)
	own := access.Target{ActorID: actor, OwnerID: actor}
	foreign := access.Target{ActorID: actor, OwnerID: other}
	team := access.Target{ActorID: actor, OwnerID: other, InTeam: true}
	assigned := access.Target{ActorID: actor, OwnerID: other, ApproverID: actor}
	routedElsewhere := access.Target{ActorID: actor, OwnerID: other, ApproverID: 3}

	cases := []struct {
		name   string
		role   access.Role
		action access.Action
		target access.Target
		want   access.Decision
	}{
		{"employee views own leave", access.RoleEmployee, access.ActionLeaveView, own, access.Allow},
		{"employee cannot view foreign leave", access.RoleEmployee, access.ActionLeaveView, foreign, access.Deny},
		{"employee creates own leave", access.RoleEmployee, access.ActionLeaveCreate, own, access.Allow},
		{"employee cannot file for others", access.RoleEmployee, access.ActionLeaveCreate, foreign, access.Deny},
		{"employee cancels own", access.RoleEmployee, access.ActionLeaveCancel, own, access.Allow},
		{"employee cannot cancel foreign", access.RoleEmployee, access.ActionLeaveCancel, foreign, access.Deny},
		{"employee edits own", access.RoleEmployee, access.ActionLeaveEdit, own, access.Allow},
		{"employee never decides", access.RoleEmployee, access.ActionApprovalDecide, assigned, access.Deny},

		{"pm views team leave", access.RoleProjectManager, access.ActionLeaveView, team, access.Allow},
		{"pm views routed leave", access.RoleProjectManager, access.ActionLeaveView, assigned, access.Allow},
		{"pm cannot view unrelated leave", access.RoleProjectManager, access.ActionLeaveView, foreign, access.Deny},
		{"pm decides assigned", access.RoleProjectManager, access.ActionApprovalDecide, assigned, access.Allow},
		{"pm cannot decide routed elsewhere", access.RoleProjectManager, access.ActionApprovalDecide, routedElsewhere, access.Deny},
		{"pm cannot create leave", access.RoleProjectManager, access.ActionLeaveCreate, own, access.Deny},

		{"hr views all leave", access.RoleHRManager, access.ActionLeaveView, foreign, access.Allow},
		{"hr files on behalf", access.RoleHRManager, access.ActionLeaveCreate, foreign, access.Allow},
		{"hr decides assigned", access.RoleHRManager, access.ActionApprovalDecide, assigned, access.Allow},
		{"hr cannot decide routed elsewhere", access.RoleHRManager, access.ActionApprovalDecide, routedElsewhere, access.Deny},
		{"hr cannot edit foreign leave", access.RoleHRManager, access.ActionLeaveEdit, foreign, access.Deny},
		{"hr manages employees", access.RoleHRManager, access.ActionEmployeeManage, foreign, access.Allow},
		{"hr cannot staff unassigned queue", access.RoleHRManager, access.ActionApprovalAssign, foreign, access.Deny},

		{"admin decides any approval", access.RoleAdministrator, access.ActionApprovalDecide, routedElsewhere, access.Allow},
		{"admin edits any leave", access.RoleAdministrator, access.ActionLeaveEdit, foreign, access.Allow},
		{"admin assigns approvers", access.RoleAdministrator, access.ActionApprovalAssign, foreign, access.Allow},
		{"admin cannot cancel foreign leave", access.RoleAdministrator, access.ActionLeaveCancel, foreign, access.Deny},
		{"admin registers logins", access.RoleAdministrator, access.ActionUserRegister, foreign, access.Allow},
		{"hr cannot register logins", access.RoleHRManager, access.ActionUserRegister, foreign, access.Deny},

		{"unknown role is denied", access.Role("Intern"), access.ActionLeaveView, own, access.Deny},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, policy.Check(c.role, c.action, c.target))
		})
	}
}

func TestVisibilityFor(t *testing.T) {
	policy := MustNewPolicy()

	admin := access.VisibilityFor(policy, access.Principal{EmployeeID: 1, Role: access.RoleAdministrator}, access.ActionApprovalView)
	assert.True(t, admin.All)

	hr := access.VisibilityFor(policy, access.Principal{EmployeeID: 2, Role: access.RoleHRManager}, access.ActionApprovalView)
	assert.False(t, hr.All)
	assert.True(t, hr.Assigned)
	assert.Equal(t, int64(2), hr.ActorID)

	emp := access.VisibilityFor(policy, access.Principal{EmployeeID: 3, Role: access.RoleEmployee}, access.ActionApprovalView)
	assert.True(t, emp.Empty())

	pm := access.VisibilityFor(policy, access.Principal{EmployeeID: 4, Role: access.RoleProjectManager}, access.ActionLeaveView)
	assert.True(t, pm.Team)
	assert.True(t, pm.Assigned)
	assert.False(t, pm.Own)
}

func TestCapabilitiesFor(t *testing.T) {
	assert.ElementsMatch(t,
		[]access.Capability{access.CapabilityViewAll, access.CapabilityCreate, access.CapabilityApprove, access.CapabilityDeactivate, access.CapabilityEditAny},
		access.CapabilitiesFor(access.RoleAdministrator))
	assert.ElementsMatch(t,
		[]access.Capability{access.CapabilityViewTeam, access.CapabilityApproveTeam},
		access.CapabilitiesFor(access.RoleProjectManager))
	assert.Empty(t, access.CapabilitiesFor(access.Role("Intern")))

	caps := access.CapabilitiesFor(access.RoleEmployee)
	caps[0] = access.CapabilityEditAny
	assert.False(t, access.HasCapability(access.RoleEmployee, access.CapabilityEditAny), "returned slice must be a copy")
}
