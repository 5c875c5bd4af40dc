package client

import (
	errors "github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/common/validation"
)

type CreateClientDTO struct {
	FullName    string `json:"full_name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email_format"`
	Phone       string `json:"phone" validate:"required,phone_digits"`
	CompanyName string `json:"company_name" validate:"required"`
}

func (d CreateClientDTO) Validate() *errors.AppError {
	return validation.ValidateStruct(d)
}

// UpdateClientPatch carries only the fields the caller wants to change.
type UpdateClientPatch struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=2"`
	Email       *string `json:"email" validate:"omitempty,email_format"`
	Phone       *string `json:"phone" validate:"omitempty,phone_digits"`
	CompanyName *string `json:"company_name" validate:"omitempty,min=1"`
}

func (p UpdateClientPatch) Validate() *errors.AppError {
	return validation.ValidateStruct(p)
}

func (p UpdateClientPatch) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil && p.CompanyName == nil
}
