package user

import (
	errors "github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/common/validation"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

type CreateUserDTO struct {
	Name           string `json:"name" validate:"required,min=2"`
	Email          string `json:"email" validate:"required,email_format"`
	Password       string `json:"password" validate:"required,password_complexity"`
	EmployeeNumber string `json:"employee_number" validate:"required,employee_number"`
	Department     string `json:"department" validate:"required,oneof=commercial support gestion"`
}

func (d CreateUserDTO) Validate() *errors.AppError {
	return validation.ValidateStruct(d)
}

// UpdateUserPatch carries only the fields the caller wants to change.
type UpdateUserPatch struct {
	Name           *string `json:"name" validate:"omitempty,min=2"`
	Email          *string `json:"email" validate:"omitempty,email_format"`
	Password       *string `json:"password" validate:"omitempty,password_complexity"`
	EmployeeNumber *string `json:"employee_number" validate:"omitempty,employee_number"`
	Department     *string `json:"department" validate:"omitempty,oneof=commercial support gestion"`
}

func (p UpdateUserPatch) Validate() *errors.AppError {
	return validation.ValidateStruct(p)
}

func (p UpdateUserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil &&
		p.EmployeeNumber == nil && p.Department == nil
}

// PromotesToGestion reports whether applying the patch moves u into the
// gestion department.
func (p UpdateUserPatch) PromotesToGestion(u *usermodel.User) bool {
	return p.Department != nil &&
		usermodel.Department(*p.Department) == usermodel.DepartmentGestion &&
		u.Department != usermodel.DepartmentGestion
}

// DemotesFromGestion reports whether applying the patch moves u out of
// the gestion department.
func (p UpdateUserPatch) DemotesFromGestion(u *usermodel.User) bool {
	return p.Department != nil &&
		usermodel.Department(*p.Department) != usermodel.DepartmentGestion &&
		u.Department == usermodel.DepartmentGestion
}
