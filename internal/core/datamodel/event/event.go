package event

import "time"

// Event is scheduled under a signed contract. SupportContactID stays nil
// until gestion assigns a support member.
type Event struct {
	ID               int64     `gorm:"primaryKey"`
	ContractID       int64     `gorm:"column:contract_id;not null;index"`
	SupportContactID *int64    `gorm:"column:support_contact_id;index"`
	EventStartDate   time.Time `gorm:"column:event_start_date;not null"`
	EventEndDate     time.Time `gorm:"column:event_end_date;not null"`
	Location         string    `gorm:"column:location;not null"`
	Attendees        int       `gorm:"column:attendees;not null"`
	Notes            string    `gorm:"column:notes"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

// IsAssigned reports whether a support contact has been set.
func (e *Event) IsAssigned() bool {
	return e.SupportContactID != nil
}

// Assign sets the support contact. Reassignment overwrites the previous
// contact.
func (e *Event) Assign(supportID int64) {
	e.SupportContactID = &supportID
}
