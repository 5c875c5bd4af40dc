package client

import (
	"context"

	"gorm.io/gorm"

	clientmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/client"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

// RepositoryAPI is the data access contract for clients. GetByEmail is
// used for uniqueness checks and returns (nil, nil) when no row matches.
type RepositoryAPI interface {
	WithTx(tx *gorm.DB) RepositoryAPI
	Create(c *clientmodel.Client) error
	GetByID(id int64) (*clientmodel.Client, error)
	GetByEmail(email string) (*clientmodel.Client, error)
	List() ([]*clientmodel.Client, error)
	ListBySalesContact(userID int64) ([]*clientmodel.Client, error)
	Update(c *clientmodel.Client) error
}

// UserDirectory resolves users referenced as sales contacts.
type UserDirectory interface {
	GetByID(id int64) (*usermodel.User, error)
}

// Transactor runs a function inside a single database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
