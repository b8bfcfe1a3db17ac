// Package policy implements role-based authorization for user operations.
//
// Every request derives one Ability from its principal's role. Operations are
// gated by a Registry that maps operation ids to ordered lists of Handlers;
// all handlers must return true for the operation to run.
package policy

import (
	"usermanager/internal/model"
	"usermanager/internal/service"
)

// Action is something a principal may do to a user record.
type Action string

const (
	ActionManage         Action = "manage" // implies every other action
	ActionCreate         Action = "create"
	ActionRead           Action = "read"
	ActionUpdate         Action = "update"
	ActionChangePassword Action = "change_password"
	ActionAssignRole     Action = "assign_role"
	ActionDelete         Action = "delete"
)

// Rule grants an action. Own restricts it to the principal's own record.
type Rule struct {
	Action Action
	Own    bool
}

var (
	guestRules = []Rule{
		{Action: ActionCreate},
	}

	rulesByRole = map[model.Role][]Rule{
		model.RoleAdmin: {
			{Action: ActionManage},
		},
		model.RoleUser: {
			{Action: ActionCreate},
			{Action: ActionRead, Own: true},
			{Action: ActionUpdate, Own: true},
			{Action: ActionChangePassword, Own: true},
			{Action: ActionDelete, Own: true},
		},
	}
)

// Ability is the set of actions available to one principal.
type Ability struct {
	principal *service.Principal
	rules     []Rule
}

// AbilityFor builds the ability of p. A nil principal gets the guest rules.
func AbilityFor(p *service.Principal) Ability {
	if p == nil {
		return Ability{rules: guestRules}
	}
	return Ability{principal: p, rules: rulesByRole[p.Role]}
}

// Principal returns the principal the ability was built for, nil for guests.
func (a Ability) Principal() *service.Principal {
	return a.principal
}

// Authenticated reports whether the ability belongs to a signed-in principal.
func (a Ability) Authenticated() bool {
	return a.principal != nil
}

// Can reports whether action is allowed on target. A nil target stands for the
// whole collection, which own-only rules never cover.
func (a Ability) Can(action Action, target *model.User) bool {
	for _, r := range a.rules {
		if r.Action != action && r.Action != ActionManage {
			continue
		}
		if !r.Own {
			return true
		}
		if target != nil && a.principal != nil && target.ID == a.principal.ID {
			return true
		}
	}
	return false
}
