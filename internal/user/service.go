package user

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
	"github.com/ldelorme/crm-backoffice/internal/policy"
	"github.com/ldelorme/crm-backoffice/internal/telemetry"
)

// Service handles user administration. Every mutation is gestion-only
// and must leave at least one gestion user in place.
type Service struct {
	repo       RepositoryAPI
	db         Transactor
	authorizer *policy.Evaluator
	hasher     PasswordHasher
	telemetry  telemetry.Sink
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, db Transactor, authorizer *policy.Evaluator, hasher PasswordHasher, sink telemetry.Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		db:         db,
		authorizer: authorizer,
		hasher:     hasher,
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

// BootstrapUser creates the very first account without an authenticated
// actor. It only works while the user table is empty, and the account
// must be gestion so the system starts with an administrator.
func (s *Service) BootstrapUser(ctx context.Context, dto CreateUserDTO) (*usermodel.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if usermodel.Department(dto.Department) != usermodel.DepartmentGestion {
		return nil, internal.NewValidationFieldError("department", "the bootstrap account must belong to gestion", internal.ErrCodeValidationFailed)
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewPersistenceError("failed to hash password", err)
	}

	u := &usermodel.User{
		Name:           dto.Name,
		Email:          dto.Email,
		PasswordHash:   hash,
		EmployeeNumber: dto.EmployeeNumber,
		Department:     usermodel.DepartmentGestion,
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.CountAll()
		if err != nil {
			return err
		}
		if existing > 0 {
			return internal.NewPermissionDeniedError("bootstrap is only available while no users exist")
		}

		return txRepo.Create(u)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bootstrap user created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// CreateUser registers a new employee account.
func (s *Service) CreateUser(ctx context.Context, actor policy.Actor, dto CreateUserDTO) (*usermodel.User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionCreateUser, policy.ResourceRef{}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionCreateUser, decision)
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, internal.NewValidationFieldError("email", "a user with this email already exists", internal.ErrCodeDuplicateEmail)
	}
	if existing, err := s.repo.GetByEmployeeNumber(dto.EmployeeNumber); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, internal.NewValidationFieldError("employee_number", "a user with this employee number already exists", internal.ErrCodeDuplicateEmployeeNumber)
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewPersistenceError("failed to hash password", err)
	}

	u := &usermodel.User{
		Name:           dto.Name,
		Email:          dto.Email,
		PasswordHash:   hash,
		EmployeeNumber: dto.EmployeeNumber,
		Department:     usermodel.Department(dto.Department),
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(u)
	})
	if err != nil {
		s.logger.Error("failed to create user", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("user created",
		"user_id", u.ID,
		"department", u.Department,
		"actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionCreateUser), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":   actor.ID,
		"user_id":    u.ID,
		"department": string(u.Department),
	})

	return u, nil
}

func (s *Service) GetUser(ctx context.Context, actor policy.Actor, id int64) (*usermodel.User, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListUsers, policy.ResourceRef{}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListUsers, decision)
	}
	return s.repo.GetByID(id)
}

func (s *Service) ListUsers(ctx context.Context, actor policy.Actor) ([]*usermodel.User, error) {
	if decision := s.authorizer.Authorize(actor, policy.ActionListUsers, policy.ResourceRef{}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListUsers, decision)
	}
	return s.repo.List()
}

func (s *Service) ListUsersByDepartment(ctx context.Context, actor policy.Actor, dep usermodel.Department) ([]*usermodel.User, error) {
	if !dep.Valid() {
		return nil, internal.NewValidationFieldError("department", "unknown department", internal.ErrCodeValidationFailed)
	}
	if decision := s.authorizer.Authorize(actor, policy.ActionListUsers, policy.ResourceRef{}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionListUsers, decision)
	}
	return s.repo.ListByDepartment(dep)
}

// UpdateUser applies a partial update. Moving a user into gestion is a
// privilege escalation and is recorded as such; moving the last gestion
// user out of gestion is refused.
func (s *Service) UpdateUser(ctx context.Context, actor policy.Actor, id int64, patch UpdateUserPatch) (*usermodel.User, error) {
	if err := patch.Validate(); err != nil {
		s.logger.Error("user patch validation failed", "error", err, "actor_id", actor.ID, "user_id", id)
		return nil, err
	}
	if patch.Empty() {
		return nil, internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionUpdateUser, policy.ResourceRef{}); !decision.Allowed {
		return nil, s.deny(ctx, actor, policy.ActionUpdateUser, decision)
	}

	if patch.Email != nil && *patch.Email != u.Email {
		if existing, err := s.repo.GetByEmail(*patch.Email); err != nil {
			return nil, err
		} else if existing != nil && existing.ID != id {
			return nil, internal.NewValidationFieldError("email", "a user with this email already exists", internal.ErrCodeDuplicateEmail)
		}
	}
	if patch.EmployeeNumber != nil && *patch.EmployeeNumber != u.EmployeeNumber {
		if existing, err := s.repo.GetByEmployeeNumber(*patch.EmployeeNumber); err != nil {
			return nil, err
		} else if existing != nil && existing.ID != id {
			return nil, internal.NewValidationFieldError("employee_number", "a user with this employee number already exists", internal.ErrCodeDuplicateEmployeeNumber)
		}
	}

	escalation := patch.PromotesToGestion(u)
	demotion := patch.DemotesFromGestion(u)

	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.EmployeeNumber != nil {
		u.EmployeeNumber = *patch.EmployeeNumber
	}
	if patch.Department != nil {
		u.Department = usermodel.Department(*patch.Department)
	}
	if patch.Password != nil {
		hash, err := s.hasher.HashPassword(*patch.Password)
		if err != nil {
			return nil, internal.NewPersistenceError("failed to hash password", err)
		}
		u.PasswordHash = hash
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if demotion {
			remaining, err := txRepo.CountByDepartment(usermodel.DepartmentGestion)
			if err != nil {
				return err
			}
			if remaining <= 1 {
				return internal.NewInvariantViolationError(
					"cannot move the last gestion user out of gestion",
					internal.ErrCodeLastGestionUser)
			}
		}

		return txRepo.Update(u)
	})
	if err != nil {
		s.logger.Error("failed to update user", "error", err, "actor_id", actor.ID, "user_id", id)
		return nil, err
	}

	if escalation {
		s.logger.Warn("user promoted to gestion",
			"user_id", u.ID,
			"actor_id", actor.ID)
	}
	s.logger.Info("user updated", "user_id", u.ID, "actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionUpdateUser), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id":             actor.ID,
		"user_id":              u.ID,
		"department":           string(u.Department),
		"privilege_escalation": escalation,
	})

	return u, nil
}

// DeleteUser removes an account unless an invariant depends on it: the
// last gestion user, a user owning clients, or a user assigned to
// events all stay.
func (s *Service) DeleteUser(ctx context.Context, actor policy.Actor, id int64) error {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if decision := s.authorizer.Authorize(actor, policy.ActionDeleteUser, policy.ResourceRef{}); !decision.Allowed {
		return s.deny(ctx, actor, policy.ActionDeleteUser, decision)
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if u.IsGestion() {
			remaining, err := txRepo.CountByDepartment(usermodel.DepartmentGestion)
			if err != nil {
				return err
			}
			if remaining <= 1 {
				return internal.NewInvariantViolationError(
					"cannot delete the last gestion user",
					internal.ErrCodeLastGestionUser)
			}
		}

		ownedClients, err := txRepo.CountOwnedClients(id)
		if err != nil {
			return err
		}
		if ownedClients > 0 {
			return internal.NewInvariantViolationError(
				"cannot delete a user who is the sales contact of clients",
				internal.ErrCodeDependentRows)
		}

		assignedEvents, err := txRepo.CountAssignedEvents(id)
		if err != nil {
			return err
		}
		if assignedEvents > 0 {
			return internal.NewInvariantViolationError(
				"cannot delete a user who is the support contact of events",
				internal.ErrCodeDependentRows)
		}

		return txRepo.Delete(id)
	})
	if err != nil {
		s.logger.Error("failed to delete user", "error", err, "actor_id", actor.ID, "user_id", id)
		return err
	}

	s.logger.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	s.telemetry.Record(ctx, string(policy.ActionDeleteUser), telemetry.OutcomeSuccess, map[string]interface{}{
		"actor_id": actor.ID,
		"user_id":  id,
	})

	return nil
}
