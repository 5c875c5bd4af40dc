package contract

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/common/validation"
	contractmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/contract"
	"github.com/ldelorme/crm-backoffice/internal/policy"
	"github.com/ldelorme/crm-backoffice/internal/telemetry"
)

// Service handles contract lifecycle. The sales contact is snapshotted
// from the client at creation time and never re-derived, so later client
// reassignments leave existing contracts with their original contact.
type Service struct {
	repo       RepositoryAPI
	clients    ClientDirectory
	db         Transactor
	authorizer *policy.Evaluator
	telemetry  telemetry.Sink
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, clients ClientDirectory, db Transactor, authorizer *policy.Evaluator, sink telemetry.Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		clients:    clients,
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

// CreateContract opens a contract for an existing client. The remaining
// amount defaults to the total when the caller leaves it unset.
func (s *Service) CreateContract(ctx context.Context, actor policy.Actor, dto CreateContractDTO) (*contractmodel.Contract, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("contract validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	client, err := s.clients.GetByID(dto.ClientID)
	if err != nil {
		return nil, err
	}

	decision := s.authorizer.Authorize(actor, policy.ActionCreateContract, policy.ResourceRef{ClientSalesContactID: client.SalesContactID})
	if !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionCreateContract, decision)
	}

	remaining := dto.TotalAmount
	if dto.RemainingAmount != nil {
		remaining = *dto.RemainingAmount
	}

	c := &contractmodel.Contract{
		ClientID:        client.ID,
		SalesContactID:  client.SalesContactID,
		TotalAmount:     dto.TotalAmount,
		RemainingAmount: remaining,
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(c)
	})
	if err != nil {
		s.logger.Error("failed to create contract", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("contract created",
		"contract_id", c.ID,
		"client_id", c.ClientID,
		"total_amount", c.TotalAmount,
		"actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionCreateContract), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":    actor.ID,
		"contract_id": c.ID,
		"client_id":   c.ClientID,
	})

	return c, nil
}

func (s *Service) GetContract(ctx context.Context, actor policy.Actor, id int64) (*contractmodel.Contract, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListContracts, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListContracts, decision)
	}
	return s.repo.GetByID(id)
}

// ListContracts returns contracts. The mine scope narrows the list to
// contracts whose sales contact is the actor.
func (s *Service) ListContracts(ctx context.Context, actor policy.Actor, scope policy.Scope) ([]*contractmodel.Contract, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListContracts, policy.ResourceRef{Scope: scope}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListContracts, decision)
	}
	if scope == policy.ScopeMine {
		return s.repo.ListBySalesContact(actor.ID)
	}
	return s.repo.List()
}

// ListUnsignedContracts returns contracts still waiting for a signature.
func (s *Service) ListUnsignedContracts(ctx context.Context, actor policy.Actor) ([]*contractmodel.Contract, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListContracts, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListContracts, decision)
	}
	return s.repo.ListUnsigned()
}

// ListUnpaidContracts returns contracts with money left to collect.
func (s *Service) ListUnpaidContracts(ctx context.Context, actor policy.Actor) ([]*contractmodel.Contract, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListContracts, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListContracts, decision)
	}
	return s.repo.ListUnpaid()
}

// ListContractsByClient returns every contract of one client.
func (s *Service) ListContractsByClient(ctx context.Context, actor policy.Actor, clientID int64) ([]*contractmodel.Contract, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListContracts, policy.ResourceRef{Scope: policy.ScopeAll}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListContracts, decision)
	}
	return s.repo.ListByClient(clientID)
}

// UpdateContract applies a partial update. The amount pair is validated
// against the values that would result from the patch. Setting is_signed
// back to false on a signed contract is refused.
func (s *Service) UpdateContract(ctx context.Context, actor policy.Actor, id int64, patch UpdateContractPatch) (*contractmodel.Contract, error) {
	if err := patch.Validate(); err != nil {
		s.logger.Error("contract patch validation failed", "error", err, "actor_id", actor.ID, "contract_id", id)
		return nil, err
	}
	if patch.Empty() {
		return nil, internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}

	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	decision := s.authorizer.Authorize(actor, policy.ActionUpdateContract, policy.ResourceRef{ContractSalesContactID: c.SalesContactID})
	if !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionUpdateContract, decision)
	}

	if patch.IsSigned != nil && !*patch.IsSigned && c.IsSigned {
		return nil, internal.NewInvariantViolationError(
			"a signed contract cannot be unsigned",
			internal.ErrCodeContractUnsign)
	}

	newTotal := c.TotalAmount
	if patch.TotalAmount != nil {
		newTotal = *patch.TotalAmount
	}
	newRemaining := c.RemainingAmount
	if patch.RemainingAmount != nil {
		newRemaining = *patch.RemainingAmount
	}
	if err := validation.ValidateContractAmounts(newTotal, newRemaining); err != nil {
		return nil, err
	}

	signing := patch.IsSigned != nil && *patch.IsSigned && !c.IsSigned

	c.TotalAmount = newTotal
	c.RemainingAmount = newRemaining
	if signing {
		c.Sign()
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(c)
	})
	if err != nil {
		s.logger.Error("failed to update contract", "error", err, "actor_id", actor.ID, "contract_id", id)
		return nil, err
	}

	if signing {
		s.logger.Info("contract signed", "contract_id", c.ID, "actor_id", actor.ID)
	} else {
		s.logger.Info("contract updated", "contract_id", c.ID, "actor_id", actor.ID)
	}
	s.telemetry.Record(ctx, string(policy.ActionUpdateContract), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":    actor.ID,
		"contract_id": c.ID,
		"signed":      signing,
	})

	return c, nil
}

// DeleteContract removes a contract that no event references.
func (s *Service) DeleteContract(ctx context.Context, actor policy.Actor, id int64) error {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionDeleteContract, policy.ResourceRef{ContractSalesContactID: c.SalesContactID}); !decision.Allowed {
		return s.deny(ctx, actor, policy.ActionDeleteContract, decision)
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		dependents, err := txRepo.CountEvents(id)
		if err != nil {
			return err
		}
		if dependents > 0 {
			return internal.NewInvariantViolationError(
				"cannot delete a contract that has events",
				internal.ErrCodeDependentRows)
		}

		return txRepo.Delete(id)
	})
	if err != nil {
		s.logger.Error("failed to delete contract", "error", err, "actor_id", actor.ID, "contract_id", id)
		return err
	}

	s.logger.Info("contract deleted", "contract_id", id, "actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionDeleteContract), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":    actor.ID,
		"contract_id": id,
	})

	return nil
}
