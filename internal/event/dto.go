package event

import (
	"time"

	errors "github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/common/validation"
)

type CreateEventDTO struct {
	ContractID     int64     `json:"contract_id" validate:"required"`
	EventStartDate time.Time `json:"event_start_date" validate:"required"`
	EventEndDate   time.Time `json:"event_end_date" validate:"required,gtfield=EventStartDate"`
	Location       string    `json:"location" validate:"required,min=3"`
	Attendees      int       `json:"attendees" validate:"required,min=1"`
	Notes          string    `json:"notes"`
}

func (d CreateEventDTO) Validate() *errors.AppError {
	return validation.ValidateStruct(d)
}

// UpdateEventPatch carries only the fields the caller wants to change.
// When one side of the date window changes, the pair is re-validated
// against the stored value of the other side.
type UpdateEventPatch struct {
	EventStartDate *time.Time `json:"event_start_date"`
	EventEndDate   *time.Time `json:"event_end_date"`
	Location       *string    `json:"location" validate:"omitempty,min=3"`
	Attendees      *int       `json:"attendees" validate:"omitempty,min=1"`
	Notes          *string    `json:"notes"`
}

func (p UpdateEventPatch) Validate() *errors.AppError {
	return validation.ValidateStruct(p)
}

func (p UpdateEventPatch) Empty() bool {
	return p.EventStartDate == nil && p.EventEndDate == nil &&
		p.Location == nil && p.Attendees == nil && p.Notes == nil
}
