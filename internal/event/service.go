package event

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/common/validation"
	eventmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/event"
	"github.com/ldelorme/crm-backoffice/internal/policy"
	"github.com/ldelorme/crm-backoffice/internal/telemetry"
)

// Outcome messages for support assignment. The distinction is purely
// informational for the caller.
const (
	OutcomeAssigned   = "assigned"
	OutcomeReassigned = "reassigned"
)

// Service handles event lifecycle. Events only exist under signed
// contracts and start life without a support contact.
type Service struct {
	repo       RepositoryAPI
	contracts  ContractDirectory
	users      UserDirectory
	db         Transactor
	authorizer *policy.Evaluator
	telemetry  telemetry.Sink
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo RepositoryAPI, contracts ContractDirectory, users UserDirectory, db Transactor, authorizer *policy.Evaluator, sink telemetry.Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		contracts:  contracts,
		users:      users,
		db:         db,
		authorizer: authorizer,
		telemetry:  sink,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) deny(ctx context.Context, actor policy.Actor, action policy.Action, decision policy.Decision) error {
	s.logger.Warn("access denied",
		"action", string(action),
		"actor_id", actor.ID,
		"department", actor.Department,
		"reason", decision.Reason)
	s.telemetry.Record(ctx, string(action), telemetry.OutcomeDenied, map[string]interface{}{
		"actor_id": actor.ID,
		"reason":   decision.Reason,
	})
	return internal.NewPermissionDeniedError(decision.Reason)
}

// CreateEvent schedules an event under a signed contract. The support
// contact starts unset; only gestion assigns one later.
func (s *Service) CreateEvent(ctx context.Context, actor policy.Actor, dto CreateEventDTO) (*eventmodel.Event, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("event validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}
	if dto.EventStartDate.Before(s.now()) {
		return nil, internal.NewValidationFieldError("event_start_date", "start date must be in the future", internal.ErrCodeInvalidDateRange)
	}

	contract, err := s.contracts.GetByID(dto.ContractID)
	if err != nil {
		return nil, err
	}

	decision := s.authorizer.Authorize(actor, policy.ActionCreateEvent, policy.ResourceRef{ContractSalesContactID: contract.SalesContactID})
	if !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionCreateEvent, decision)
	}

	if !contract.IsSigned {
		return nil, internal.NewInvariantViolationError(
			"events may only be created for signed contracts",
			internal.ErrCodeContractNotSigned)
	}

	e := &eventmodel.Event{
		ContractID:     contract.ID,
		EventStartDate: dto.EventStartDate,
		EventEndDate:   dto.EventEndDate,
		Location:       dto.Location,
		Attendees:      dto.Attendees,
		Notes:          dto.Notes,
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(e)
	})
	if err != nil {
		s.logger.Error("failed to create event", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("event created",
		"event_id", e.ID,
		"contract_id", e.ContractID,
		"location", e.Location,
		"actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionCreateEvent), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":    actor.ID,
		"event_id":    e.ID,
		"contract_id": e.ContractID,
	})

	return e, nil
}

func (s *Service) GetEvent(ctx context.Context, actor policy.Actor, id int64) (*eventmodel.Event, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListEvents, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListEvents, decision)
	}
	return s.repo.GetByID(id)
}

// ListEvents returns events. The mine scope narrows the list to events
// assigned to the actor and is reserved to support users.
func (s *Service) ListEvents(ctx context.Context, actor policy.Actor, scope policy.Scope) ([]*eventmodel.Event, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListEvents, policy.ResourceRef{Scope: scope}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListEvents, decision)
	}
	if scope == policy.ScopeMine {
		return s.repo.ListBySupport(actor.ID)
	}
	return s.repo.List()
}

// ListEventsByContract returns every event under one contract.
func (s *Service) ListEventsByContract(ctx context.Context, actor policy.Actor, contractID int64) ([]*eventmodel.Event, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListEvents, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListEvents, decision)
	}
	return s.repo.ListByContract(contractID)
}

// ListEventsBySupport returns the events assigned to one support user.
func (s *Service) ListEventsBySupport(ctx context.Context, actor policy.Actor, supportUserID int64) ([]*eventmodel.Event, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListEvents, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListEvents, decision)
	}
	return s.repo.ListBySupport(supportUserID)
}

// ListUnassignedEvents returns events still waiting for a support
// contact, the main gestion worklist.
func (s *Service) ListUnassignedEvents(ctx context.Context, actor policy.Actor) ([]*eventmodel.Event, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListEvents, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListEvents, decision)
	}
	return s.repo.ListUnassigned()
}

// UpdateEvent applies a partial update. When only one side of the date
// window changes, the new pair is validated against the stored other
// side.
func (s *Service) UpdateEvent(ctx context.Context, actor policy.Actor, id int64, patch UpdateEventPatch) (*eventmodel.Event, error) {
	if err := patch.Validate(); err != nil {
		s.logger.Error("event patch validation failed", "error", err, "actor_id", actor.ID, "event_id", id)
		return nil, err
	}
	if patch.Empty() {
		return nil, internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}

	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	contract, err := s.contracts.GetByID(e.ContractID)
	if err != nil {
		return nil, err
	}

	decision := s.authorizer.Authorize(actor, policy.ActionUpdateEvent, policy.ResourceRef{
		ContractSalesContactID: contract.SalesContactID,
		EventSupportContactID:  e.SupportContactID,
	})
	if !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionUpdateEvent, decision)
	}

	newStart := e.EventStartDate
	if patch.EventStartDate != nil {
		newStart = *patch.EventStartDate
	}
	newEnd := e.EventEndDate
	if patch.EventEndDate != nil {
		newEnd = *patch.EventEndDate
	}
	if err := validation.ValidateEventDates(newStart, newEnd); err != nil {
		return nil, err
	}

	e.EventStartDate = newStart
	e.EventEndDate = newEnd
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.Attendees != nil {
		e.Attendees = *patch.Attendees
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(e)
	})
	if err != nil {
		s.logger.Error("failed to update event", "error", err, "actor_id", actor.ID, "event_id", id)
		return nil, err
	}

	s.logger.Info("event updated", "event_id", e.ID, "actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionUpdateEvent), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id": actor.ID,
		"event_id": e.ID,
	})

	return e, nil
}

// AssignEvent sets or replaces the support contact of an event. The
// returned outcome says whether this was a first assignment or a
// reassignment.
func (s *Service) AssignEvent(ctx context.Context, actor policy.Actor, id int64, supportUserID int64) (*eventmodel.Event, string, error) {
	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, "", err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionAssignEvent, policy.ResourceRef{EventSupportContactID: e.SupportContactID}); !decision.Allowed {
		return nil, "", s.deny(ctx, actor, policy.ActionAssignEvent, decision)
	}

	target, err := s.users.GetByID(supportUserID)
	if err != nil {
		return nil, "", err
	}
	if !target.IsSupport() {
		return nil, "", internal.NewInvariantViolationError(
			"the support contact of an event must belong to the support department",
			internal.ErrCodeNotSupportUser)
	}

	outcome := OutcomeAssigned
	if e.IsAssigned() {
		outcome = OutcomeReassigned
	}
	e.Assign(target.ID)

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(e)
	})
	if err != nil {
		s.logger.Error("failed to assign event", "error", err, "actor_id", actor.ID, "event_id", id)
		return nil, "", err
	}

	s.logger.Info("event "+outcome,
		"event_id", e.ID,
		"support_contact_id", target.ID,
		"actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionAssignEvent), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":           actor.ID,
		"event_id":           e.ID,
		"support_contact_id": target.ID,
		"assignment":         outcome,
	})

	return e, outcome, nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, actor policy.Actor, id int64) error {
	e, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionDeleteEvent, policy.ResourceRef{EventSupportContactID: e.SupportContactID}); !decision.Allowed {
		return s.deny(ctx, actor, policy.ActionDeleteEvent, decision)
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(id)
	})
	if err != nil {
		s.logger.Error("failed to delete event", "error", err, "actor_id", actor.ID, "event_id", id)
		return err
	}

	s.logger.Info("event deleted", "event_id", id, "actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionDeleteEvent), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id": actor.ID,
		"event_id": id,
	})

	return nil
}
