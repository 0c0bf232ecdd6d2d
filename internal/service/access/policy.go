package access

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/access"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/metrics"
)

// policyModel matches a (role, action, scope) request against the grants
// loaded from the capability table.
const policyModel = `
[request_definition]
r = sub, act, scope

[policy_definition]
p = sub, act, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act && r.scope == p.scope
`

type casbinPolicy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy builds the access policy from access.GrantsFor for every role.
// The enforcer is read-only after construction.
func NewPolicy() (access.Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	var rules [][]string
	seen := make(map[[3]string]struct{})
	for _, role := range access.Roles() {
		for _, g := range access.GrantsFor(role) {
			key := [3]string{string(role), string(g.Action), string(g.Scope)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rules = append(rules, key[:])
		}
	}

	if _, err := enforcer.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("load grants: %w", err)
	}

	return &casbinPolicy{enforcer: enforcer}, nil
}

// MustNewPolicy is NewPolicy for wiring code and tests.
func MustNewPolicy() access.Policy {
	p, err := NewPolicy()
	if err != nil {
		panic(err)
	}
	return p
}

// Check implements access.Policy.
func (p *casbinPolicy) Check(role access.Role, action access.Action, target access.Target) access.Decision {
	for _, scope := range target.Scopes() {
		if p.Allows(role, action, scope) {
			metrics.AccessDecisions.WithLabelValues(string(action), "allow").Inc()
			return access.Allow
		}
	}
	metrics.AccessDecisions.WithLabelValues(string(action), "deny").Inc()
	return access.Deny
}

// Allows implements access.Policy.
func (p *casbinPolicy) Allows(role access.Role, action access.Action, scope access.Scope) bool {
	ok, err := p.enforcer.Enforce(string(role), string(action), string(scope))
	if err != nil {
		slog.Error("Policy evaluation failed", "role", role, "action", action, "scope", scope, "error", err)
		return false
	}
	return ok
}
