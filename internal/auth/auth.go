package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (*Session, error)
	CurrentSession() (*Session, error)
	CurrentActor() (*user.User, error)
	Invalidate() error
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetCredentialsByEmail(email string) (*Credentials, error)
	GetUserByID(id int64) (*user.User, error)
}

type TokenGeneratorAPI interface {
	Generate(userID int64, department user.Department) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type SessionStoreAPI interface {
	Save(session *Session) error
	Load() (*Session, error)
	Clear() error
}

// Credentials is the minimal projection used to verify a login.
type Credentials struct {
	UserID       int64
	PasswordHash string
	Department   user.Department
}

// Session is the authenticated context for one actor. Department is
// denormalized so policy checks never need a user load.
type Session struct {
	Token      string          `json:"token"`
	ActorID    int64           `json:"actor_id"`
	Department user.Department `json:"department"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
