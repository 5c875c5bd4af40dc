package contract

import (
	errors "github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/common/validation"
)

// CreateContractDTO amounts are euro cents. A nil remaining amount
// defaults to the total at creation time.
type CreateContractDTO struct {
	ClientID        int64  `json:"client_id" validate:"required"`
	TotalAmount     int64  `json:"total_amount" validate:"min=0"`
	RemainingAmount *int64 `json:"remaining_amount" validate:"omitempty,min=0"`
}

func (d CreateContractDTO) Validate() *errors.AppError {
	if err := validation.ValidateStruct(d); err != nil {
		return err
	}
	remaining := d.TotalAmount
	if d.RemainingAmount != nil {
		remaining = *d.RemainingAmount
	}
	return validation.ValidateContractAmounts(d.TotalAmount, remaining)
}

// UpdateContractPatch carries only the fields the caller wants to change.
// The amount pair is re-validated against the resulting values, not the
// stored ones.
type UpdateContractPatch struct {
	TotalAmount     *int64 `json:"total_amount" validate:"omitempty,min=0"`
	RemainingAmount *int64 `json:"remaining_amount" validate:"omitempty,min=0"`
	IsSigned        *bool  `json:"is_signed"`
}

func (p UpdateContractPatch) Validate() *errors.AppError {
	return validation.ValidateStruct(p)
}

func (p UpdateContractPatch) Empty() bool {
	return p.TotalAmount == nil && p.RemainingAmount == nil && p.IsSigned == nil
}
