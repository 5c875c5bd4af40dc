package auth

import (
	"log/slog"
	"time"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

// Service implements the identity and session contract on top of a
// credential repository, a token generator and a session store.
type Service struct {
	users      RepositoryAPI
	tokens     TokenGeneratorAPI
	store      SessionStoreAPI
	logger     *slog.Logger
	bcryptCost int
}

func NewService(users RepositoryAPI, tokens TokenGeneratorAPI, store SessionStoreAPI, logger *slog.Logger, bcryptCost int) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		store:      store,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Authenticate verifies the credential pair and persists a fresh
// session. Unknown emails and wrong passwords are indistinguishable to
// the caller.
func (s *Service) Authenticate(dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	creds, err := s.users.GetCredentialsByEmail(dto.Email)
	if err != nil {
		if internal.IsNotFoundError(err) {
			s.logger.Warn("login rejected", "email", dto.Email)
			return nil, internal.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login rejected", "email", dto.Email)
		return nil, internal.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(creds.UserID, creds.Department)
	if err != nil {
		return nil, internal.NewPersistenceError("failed to issue session token", err)
	}

	session := &Session{
		Token:      token,
		ActorID:    creds.UserID,
		Department: creds.Department,
		ExpiresAt:  expiresAt,
	}

	if err := s.store.Save(session); err != nil {
		return nil, internal.NewPersistenceError("failed to persist session", err)
	}

	s.logger.Info("session opened",
		"actor_id", creds.UserID,
		"department", creds.Department,
		"expires_at", expiresAt.UTC().Format(time.RFC3339))
	return session, nil
}

// CurrentSession loads and verifies the persisted session. An expired
// or tampered session behaves exactly like no session: the stale record
// is cleared and the caller has to authenticate again.
func (s *Service) CurrentSession() (*Session, error) {
	session, err := s.store.Load()
	if err != nil {
		return nil, internal.NewPersistenceError("failed to read session", err)
	}
	if session == nil {
		return nil, internal.ErrNoSession
	}

	if _, err := s.tokens.ValidateToken(session.Token); err != nil {
		s.logger.Warn("stored session rejected", "reason", err.Error())
		if clearErr := s.store.Clear(); clearErr != nil {
			s.logger.Error("failed to clear stale session", "error", clearErr)
		}
		return nil, internal.ErrNoSession
	}
	return session, nil
}

// CurrentActor resolves the persisted session to its user row. An
// account removed since login reports as no session.
func (s *Service) CurrentActor() (*user.User, error) {
	session, err := s.CurrentSession()
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetUserByID(session.ActorID)
	if err != nil {
		if internal.IsNotFoundError(err) {
			return nil, internal.ErrNoSession
		}
		return nil, err
	}
	return u, nil
}

// Invalidate discards the current session. Invalidating an absent or
// expired session is a no-op.
func (s *Service) Invalidate() error {
	if err := s.store.Clear(); err != nil {
		return internal.NewPersistenceError("failed to clear session", err)
	}
	s.logger.Info("session closed")
	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}
