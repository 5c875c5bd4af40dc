package client

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	clientmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/client"
	"github.com/ldelorme/crm-backoffice/internal/policy"
	"github.com/ldelorme/crm-backoffice/internal/telemetry"
)

// Service handles the client book. Commercial users own the clients
// they create; only gestion may move a client to another sales contact.
type Service struct {
	repo       RepositoryAPI
	users      UserDirectory
	db         Transactor
	authorizer *policy.Evaluator
	telemetry  telemetry.Sink
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, users UserDirectory, db Transactor, authorizer *policy.Evaluator, sink telemetry.Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		db:         db,
		authorizer: authorizer,
		telemetry:  sink,
		logger:     logger,
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

// CreateClient records a new client. The creating actor becomes the
// client's sales contact.
func (s *Service) CreateClient(ctx context.Context, actor policy.Actor, dto CreateClientDTO) (*clientmodel.Client, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("client validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionCreateClient, policy.ResourceRef{}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionCreateClient, decision)
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, internal.NewValidationFieldError("email", "a client with this email already exists", internal.ErrCodeDuplicateEmail)
	}

	c := &clientmodel.Client{
		FullName:       dto.FullName,
		Email:          dto.Email,
		Phone:          dto.Phone,
		CompanyName:    dto.CompanyName,
		SalesContactID: actor.ID,
	}
	c.Touch(time.Now())

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(c)
	})
	if err != nil {
		s.logger.Error("failed to create client", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("client created",
		"client_id", c.ID,
		"company", c.CompanyName,
		"sales_contact_id", c.SalesContactID)
	s.telemetry.Record(ctx, string(policy.ActionCreateClient), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":  actor.ID,
		"client_id": c.ID,
	})

	return c, nil
}

func (s *Service) GetClient(ctx context.Context, actor policy.Actor, id int64) (*clientmodel.Client, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListClients, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListClients, decision)
	}
	return s.repo.GetByID(id)
}

// ListClients returns the client book. The mine scope narrows the list
// to clients owned by the actor and is reserved to commercial users.
func (s *Service) ListClients(ctx context.Context, actor policy.Actor, scope policy.Scope) ([]*clientmodel.Client, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListClients, policy.ResourceRef{Scope: scope}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListClients, decision)
	}
	if scope == policy.ScopeMine {
		return s.repo.ListBySalesContact(actor.ID)
	}
	return s.repo.List()
}

// ListClientsBySalesContact narrows the book to one sales contact.
func (s *Service) ListClientsBySalesContact(ctx context.Context, actor policy.Actor, salesContactID int64) ([]*clientmodel.Client, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListClients, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListClients, decision)
	}
	return s.repo.ListBySalesContact(salesContactID)
}

// UpdateClient applies a partial update. Every successful update counts
// as a contact and refreshes last_contact_date.
func (s *Service) UpdateClient(ctx context.Context, actor policy.Actor, id int64, patch UpdateClientPatch) (*clientmodel.Client, error) {
	if err := patch.Validate(); err != nil {
		s.logger.Error("client patch validation failed", "error", err, "actor_id", actor.ID, "client_id", id)
		return nil, err
	}
	if patch.Empty() {
		return nil, internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}

	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	decision := s.authorizer.Authorize(actor, policy.ActionUpdateClient, policy.ResourceRef{ClientSalesContactID: c.SalesContactID})
	if !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionUpdateClient, decision)
	}

	if patch.Email != nil && *patch.Email != c.Email {
		if existing, err := s.repo.GetByEmail(*patch.Email); err != nil {
			return nil, err
		} else if existing != nil && existing.ID != id {
			return nil, internal.NewValidationFieldError("email", "a client with this email already exists", internal.ErrCodeDuplicateEmail)
		}
	}

	if patch.FullName != nil {
		c.FullName = *patch.FullName
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.CompanyName != nil {
		c.CompanyName = *patch.CompanyName
	}
	c.Touch(time.Now())

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(c)
	})
	if err != nil {
		s.logger.Error("failed to update client", "error", err, "actor_id", actor.ID, "client_id", id)
		return nil, err
	}

	s.logger.Info("client updated", "client_id", c.ID, "actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionUpdateClient), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":  actor.ID,
		"client_id": c.ID,
	})

	return c, nil
}

// ReassignClient hands a client over to a different commercial user.
// The new contact must belong to the commercial department.
func (s *Service) ReassignClient(ctx context.Context, actor policy.Actor, id int64, newSalesContactID int64) (*clientmodel.Client, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionReassignClient, policy.ResourceRef{}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionReassignClient, decision)
	}

	target, err := s.users.GetByID(newSalesContactID)
	if err != nil {
		return nil, err
	}
	if !target.IsCommercial() {
		return nil, internal.NewInvariantViolationError(
			"the sales contact of a client must belong to the commercial department",
			internal.ErrCodeNotCommercialUser)
	}

	previous := c.SalesContactID
	c.SalesContactID = target.ID

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(c)
	})
	if err != nil {
		s.logger.Error("failed to reassign client", "error", err, "actor_id", actor.ID, "client_id", id)
		return nil, err
	}

	s.logger.Info("client reassigned",
		"client_id", c.ID,
		"from_sales_contact_id", previous,
		"to_sales_contact_id", target.ID,
		"actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionReassignClient), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":              actor.ID,
		"client_id":             c.ID,
		"from_sales_contact_id": previous,
		"to_sales_contact_id":   target.ID,
	})

	return c, nil
}
