package policy

import (
	"github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

// Action identifies a domain operation subject to authorization.
type Action string

const (
	ActionCreateClient   Action = "create_client"
	ActionListClients    Action = "list_clients"
	ActionUpdateClient   Action = "update_client"
	ActionReassignClient Action = "reassign_client"

	ActionCreateContract Action = "create_contract"
	ActionListContracts  Action = "list_contracts"
	ActionUpdateContract Action = "update_contract"
	ActionDeleteContract Action = "delete_contract"

	ActionCreateEvent Action = "create_event"
	ActionListEvents  Action = "list_events"
	ActionUpdateEvent Action = "update_event"
	ActionAssignEvent Action = "assign_event"
	ActionDeleteEvent Action = "delete_event"

	ActionCreateUser Action = "create_user"
	ActionListUsers  Action = "list_users"
	ActionUpdateUser Action = "update_user"
	ActionDeleteUser Action = "delete_user"
)

// MutationActionNames returns the name of every action that mutates
// state. These are the actions domain services emit telemetry for.
func MutationActionNames() []string {
	actions := []Action{
		ActionCreateClient, ActionUpdateClient, ActionReassignClient,
		ActionCreateContract, ActionUpdateContract, ActionDeleteContract,
		ActionCreateEvent, ActionUpdateEvent, ActionAssignEvent, ActionDeleteEvent,
		ActionCreateUser, ActionUpdateUser, ActionDeleteUser,
	}
	names := make([]string, len(actions))
	for i, action := range actions {
		names[i] = string(action)
	}
	return names
}

// Scope narrows list actions. The zero value means unscoped and is
// treated like ScopeAll.
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeMine Scope = "mine"
)

// Actor is the authenticated user a decision is made for. Department is
// denormalized from the session so decisions never require a user load.
type Actor struct {
	ID         int64
	Department user.Department
}

// ActorFromUser builds an Actor from a loaded user row.
func ActorFromUser(u *user.User) Actor {
	return Actor{ID: u.ID, Department: u.Department}
}

// ResourceRef carries the ownership fields of the resource under
// decision. Callers load these before asking for a decision; the
// evaluator itself never touches storage.
type ResourceRef struct {
	ClientSalesContactID   int64
	ContractSalesContactID int64
	EventSupportContactID  *int64
	Scope                  Scope
}

// Decision is the outcome of an authorization check. A denial always
// carries a reason the caller can surface verbatim.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Reason: reason}
}
