package event

import (
	"context"

	"gorm.io/gorm"

	contractmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/contract"
	eventmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/event"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

// RepositoryAPI is the data access contract for events.
type RepositoryAPI interface {
	WithTx(tx *gorm.DB) RepositoryAPI
	Create(e *eventmodel.Event) error
	GetByID(id int64) (*eventmodel.Event, error)
	List() ([]*eventmodel.Event, error)
	ListByContract(contractID int64) ([]*eventmodel.Event, error)
	ListBySupport(userID int64) ([]*eventmodel.Event, error)
	ListUnassigned() ([]*eventmodel.Event, error)
	Update(e *eventmodel.Event) error
	Delete(id int64) error
}

// ContractDirectory resolves the contract an event belongs to.
type ContractDirectory interface {
	GetByID(id int64) (*contractmodel.Contract, error)
}

// UserDirectory resolves users referenced as support contacts.
type UserDirectory interface {
	GetByID(id int64) (*usermodel.User, error)
}

// Transactor runs a function inside a single database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
