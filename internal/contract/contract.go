package contract

import (
	"context"

	"gorm.io/gorm"

	clientmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/client"
	contractmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/contract"
)

// RepositoryAPI is the data access contract for contracts.
type RepositoryAPI interface {
	WithTx(tx *gorm.DB) RepositoryAPI
	Create(c *contractmodel.Contract) error
	GetByID(id int64) (*contractmodel.Contract, error)
	List() ([]*contractmodel.Contract, error)
	ListBySalesContact(userID int64) ([]*contractmodel.Contract, error)
	ListByClient(clientID int64) ([]*contractmodel.Contract, error)
	ListUnsigned() ([]*contractmodel.Contract, error)
	ListUnpaid() ([]*contractmodel.Contract, error)
	Update(c *contractmodel.Contract) error
	Delete(id int64) error
	CountEvents(contractID int64) (int64, error)
}

// ClientDirectory resolves the client a contract belongs to.
type ClientDirectory interface {
	GetByID(id int64) (*clientmodel.Client, error)
}

// Transactor runs a function inside a single database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
