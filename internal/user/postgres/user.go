package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
	"github.com/ldelorme/crm-backoffice/internal/storage"
	"github.com/ldelorme/crm-backoffice/internal/user"
)

// UserRepository implements the user.RepositoryAPI interface using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: tx}
}

// Create saves a new user to the database
func (r *UserRepository) Create(u *usermodel.User) error {
	if err := r.db.Create(u).Error; err != nil {
		return storage.WrapError("create user", err)
	}
	return nil
}

// GetByID retrieves a user by its ID
func (r *UserRepository) GetByID(id int64) (*usermodel.User, error) {
	var u usermodel.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, storage.WrapError("get user", err)
	}
	return &u, nil
}

// GetByEmail looks a user up by email for uniqueness checks
func (r *UserRepository) GetByEmail(email string) (*usermodel.User, error) {
	var u usermodel.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage.WrapError("get user by email", err)
	}
	return &u, nil
}

// GetByEmployeeNumber looks a user up by employee number for uniqueness checks
func (r *UserRepository) GetByEmployeeNumber(number string) (*usermodel.User, error) {
	var u usermodel.User
	err := r.db.Where("employee_number = ?", number).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage.WrapError("get user by employee number", err)
	}
	return &u, nil
}

// List retrieves all users ordered by name
func (r *UserRepository) List() ([]*usermodel.User, error) {
	var users []*usermodel.User
	err := r.db.Order("name ASC").Find(&users).Error
	if err != nil {
		return nil, storage.WrapError("list users", err)
	}
	return users, nil
}

// ListByDepartment retrieves the users of one department ordered by name
func (r *UserRepository) ListByDepartment(dep usermodel.Department) ([]*usermodel.User, error) {
	var users []*usermodel.User
	err := r.db.Where("department = ?", dep).Order("name ASC").Find(&users).Error
	if err != nil {
		return nil, storage.WrapError("list users by department", err)
	}
	return users, nil
}

// Update saves changes to an existing user
func (r *UserRepository) Update(u *usermodel.User) error {
	if err := r.db.Save(u).Error; err != nil {
		return storage.WrapError("update user", err)
	}
	return nil
}

// Delete removes a user by ID
func (r *UserRepository) Delete(id int64) error {
	res := r.db.Delete(&usermodel.User{}, id)
	if res.Error != nil {
		return storage.WrapError("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// CountAll counts every user
func (r *UserRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&usermodel.User{}).Count(&count).Error
	if err != nil {
		return 0, storage.WrapError("count users", err)
	}
	return count, nil
}

// CountByDepartment counts users belonging to a department
func (r *UserRepository) CountByDepartment(dep usermodel.Department) (int64, error) {
	var count int64
	err := r.db.Model(&usermodel.User{}).Where("department = ?", dep).Count(&count).Error
	if err != nil {
		return 0, storage.WrapError("count users by department", err)
	}
	return count, nil
}

// CountOwnedClients counts clients whose sales contact is the given user
func (r *UserRepository) CountOwnedClients(userID int64) (int64, error) {
	var count int64
	err := r.db.Table("clients").Where("sales_contact_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, storage.WrapError("count owned clients", err)
	}
	return count, nil
}

// CountAssignedEvents counts events whose support contact is the given user
func (r *UserRepository) CountAssignedEvents(userID int64) (int64, error) {
	var count int64
	err := r.db.Table("events").Where("support_contact_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, storage.WrapError("count assigned events", err)
	}
	return count, nil
}
