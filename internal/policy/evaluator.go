package policy

import (
	"fmt"

	"github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

type rule func(actor Actor, res ResourceRef) Decision

func allowAlways(Actor, ResourceRef) Decision {
	return Allow()
}

func ifOwnsClient(reason string) rule {
	return func(actor Actor, res ResourceRef) Decision {
		if actor.ID == res.ClientSalesContactID {
			return Allow()
		}
		return Deny(reason)
	}
}

func ifOwnsContract(reason string) rule {
	return func(actor Actor, res ResourceRef) Decision {
		if actor.ID == res.ContractSalesContactID {
			return Allow()
		}
		return Deny(reason)
	}
}

func ifAssignedSupport(reason string) rule {
	return func(actor Actor, res ResourceRef) Decision {
		if res.EventSupportContactID != nil && *res.EventSupportContactID == actor.ID {
			return Allow()
		}
		return Deny(reason)
	}
}

// scopedList allows the all scope unconditionally and gates the mine
// scope on mineOK.
func scopedList(mineOK bool, mineReason string) rule {
	return func(actor Actor, res ResourceRef) Decision {
		if res.Scope == ScopeMine && !mineOK {
			return Deny(mineReason)
		}
		return Allow()
	}
}

// table is the authoritative department/action ruleset. Pairs absent
// from the table are denied. Cross-entity conditions that are invariants
// rather than permissions (a contract must be signed before it gets
// events) live in the domain services, not here.
var table = map[Action]map[user.Department]rule{
	ActionCreateClient: {
		user.DepartmentCommercial: allowAlways,
	},
	ActionListClients: {
		user.DepartmentCommercial: scopedList(true, ""),
		user.DepartmentSupport:    scopedList(false, "the mine filter on clients is only available to commercial users"),
		user.DepartmentGestion:    scopedList(false, "the mine filter on clients is only available to commercial users"),
	},
	ActionUpdateClient: {
		user.DepartmentCommercial: ifOwnsClient("only the client's sales contact may update it"),
	},
	ActionReassignClient: {
		user.DepartmentGestion: allowAlways,
	},
	ActionCreateContract: {
		user.DepartmentCommercial: ifOwnsClient("only the client's sales contact may create its contracts"),
		user.DepartmentGestion:    allowAlways,
	},
	ActionListContracts: {
		user.DepartmentCommercial: scopedList(true, ""),
		user.DepartmentSupport:    scopedList(false, "the mine filter on contracts is only available to commercial users"),
		user.DepartmentGestion:    scopedList(false, "the mine filter on contracts is only available to commercial users"),
	},
	ActionUpdateContract: {
		user.DepartmentCommercial: ifOwnsContract("only the contract's sales contact may update it"),
		user.DepartmentGestion:    allowAlways,
	},
	ActionDeleteContract: {
		user.DepartmentGestion: allowAlways,
	},
	ActionCreateEvent: {
		user.DepartmentCommercial: ifOwnsContract("only the sales contact for the contract may create its events"),
		user.DepartmentGestion:    allowAlways,
	},
	ActionListEvents: {
		user.DepartmentCommercial: scopedList(false, "the mine filter on events is only available to support users"),
		user.DepartmentSupport:    scopedList(true, ""),
		user.DepartmentGestion:    scopedList(false, "the mine filter on events is only available to support users"),
	},
	ActionUpdateEvent: {
		user.DepartmentCommercial: ifOwnsContract("only the sales contact for the underlying contract may update this event"),
		user.DepartmentSupport:    ifAssignedSupport("support users may only update events assigned to them"),
		user.DepartmentGestion:    allowAlways,
	},
	ActionAssignEvent: {
		user.DepartmentGestion: allowAlways,
	},
	ActionDeleteEvent: {
		user.DepartmentGestion: allowAlways,
	},
	ActionCreateUser: {
		user.DepartmentGestion: allowAlways,
	},
	ActionListUsers: {
		user.DepartmentGestion: allowAlways,
	},
	ActionUpdateUser: {
		user.DepartmentGestion: allowAlways,
	},
	ActionDeleteUser: {
		user.DepartmentGestion: allowAlways,
	},
}

// Evaluator decides whether an actor may perform an action on a
// resource. It is stateless: the same inputs always yield the same
// decision.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

func (e *Evaluator) Authorize(actor Actor, action Action, res ResourceRef) Decision {
	if !actor.Department.Valid() {
		return Deny(fmt.Sprintf("unknown department %q", actor.Department))
	}
	rules, ok := table[action]
	if !ok {
		return Deny(fmt.Sprintf("action %q is not permitted for department %s", action, actor.Department))
	}
	r, ok := rules[actor.Department]
	if !ok {
		return Deny(fmt.Sprintf("action %q is not permitted for department %s", action, actor.Department))
	}
	return r(actor, res)
}
