package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	eventmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/event"
	"github.com/ldelorme/crm-backoffice/internal/event"
	"github.com/ldelorme/crm-backoffice/internal/storage"
)

// EventRepository implements the event.RepositoryAPI interface using GORM
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) event.RepositoryAPI {
	return &EventRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *EventRepository) WithTx(tx *gorm.DB) event.RepositoryAPI {
	return &EventRepository{db: tx}
}

// Create saves a new event to the database
func (r *EventRepository) Create(e *eventmodel.Event) error {
	if err := r.db.Create(e).Error; err != nil {
		return storage.WrapError("create event", err)
	}
	return nil
}

// GetByID retrieves an event by its ID
func (r *EventRepository) GetByID(id int64) (*eventmodel.Event, error) {
	var e eventmodel.Event
	err := r.db.Where("id = ?", id).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEventNotFound
		}
		return nil, storage.WrapError("get event", err)
	}
	return &e, nil
}

// List retrieves all events ordered by start date
func (r *EventRepository) List() ([]*eventmodel.Event, error) {
	var events []*eventmodel.Event
	err := r.db.Order("event_start_date ASC").Find(&events).Error
	if err != nil {
		return nil, storage.WrapError("list events", err)
	}
	return events, nil
}

// ListByContract retrieves the events under one contract
func (r *EventRepository) ListByContract(contractID int64) ([]*eventmodel.Event, error) {
	var events []*eventmodel.Event
	err := r.db.Where("contract_id = ?", contractID).
		Order("event_start_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, storage.WrapError("list events by contract", err)
	}
	return events, nil
}

// ListBySupport retrieves the events assigned to one support user
func (r *EventRepository) ListBySupport(userID int64) ([]*eventmodel.Event, error) {
	var events []*eventmodel.Event
	err := r.db.Where("support_contact_id = ?", userID).
		Order("event_start_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, storage.WrapError("list events by support contact", err)
	}
	return events, nil
}

// ListUnassigned retrieves events with no support contact yet
func (r *EventRepository) ListUnassigned() ([]*eventmodel.Event, error) {
	var events []*eventmodel.Event
	err := r.db.Where("support_contact_id IS NULL").
		Order("event_start_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, storage.WrapError("list unassigned events", err)
	}
	return events, nil
}

// Update saves changes to an existing event
func (r *EventRepository) Update(e *eventmodel.Event) error {
	if err := r.db.Save(e).Error; err != nil {
		return storage.WrapError("update event", err)
	}
	return nil
}

// Delete removes an event by ID
func (r *EventRepository) Delete(id int64) error {
	res := r.db.Delete(&eventmodel.Event{}, id)
	if res.Error != nil {
		return storage.WrapError("delete event", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrEventNotFound
	}
	return nil
}
