package auth

import (
	errors "github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/common/validation"
)

// LoginDTO is the credential pair accepted by Authenticate.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email_format"`
	Password string `json:"password" validate:"required"`
}

func (d LoginDTO) Validate() *errors.AppError {
	return validation.ValidateStruct(d)
}
