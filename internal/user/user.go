package user

import (
	"context"

	"gorm.io/gorm"

	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

// RepositoryAPI is the data access contract for users. Lookup methods
// used for uniqueness checks return (nil, nil) when no row matches.
type RepositoryAPI interface {
	WithTx(tx *gorm.DB) RepositoryAPI
	Create(u *usermodel.User) error
	GetByID(id int64) (*usermodel.User, error)
	GetByEmail(email string) (*usermodel.User, error)
	GetByEmployeeNumber(number string) (*usermodel.User, error)
	List() ([]*usermodel.User, error)
	ListByDepartment(dep usermodel.Department) ([]*usermodel.User, error)
	Update(u *usermodel.User) error
	Delete(id int64) error
	CountAll() (int64, error)
	CountByDepartment(dep usermodel.Department) (int64, error)
	CountOwnedClients(userID int64) (int64, error)
	CountAssignedEvents(userID int64) (int64, error)
}

// Transactor runs a function inside a single database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PasswordHasher turns plaintext passwords into stored hashes.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}
