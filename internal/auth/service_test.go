package auth

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock credential repository for testing
type mockUserRepository struct {
	credentials map[string]*Credentials
	usersByID   map[int64]*user.User
	failWith    error
}

func newMockUserRepository() *mockUserRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("Correct1password"), bcrypt.MinCost)

	return &mockUserRepository{
		credentials: map[string]*Credentials{
			"alice@crm.example": {UserID: 1, PasswordHash: string(hashedPassword), Department: user.DepartmentCommercial},
			"bob@crm.example":   {UserID: 2, PasswordHash: string(hashedPassword), Department: user.DepartmentGestion},
		},
		usersByID: map[int64]*user.User{
			1: {ID: 1, Name: "Alice", Email: "alice@crm.example", Department: user.DepartmentCommercial},
			2: {ID: 2, Name: "Bob", Email: "bob@crm.example", Department: user.DepartmentGestion},
		},
	}
}

func (m *mockUserRepository) GetCredentialsByEmail(email string) (*Credentials, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if creds, exists := m.credentials[email]; exists {
		return creds, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUserRepository) GetUserByID(id int64) (*user.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if u, exists := m.usersByID[id]; exists {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockUserRepository
		tokenGen *JWTTokenGenerator
		store    *FileSessionStore
		secret   = "test-secret-key-with-enough-length!!"
		ttl      = time.Hour
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		tokenGen = NewJWTTokenGenerator(secret, ttl)
		store = NewFileSessionStore(filepath.Join(ginkgo.GinkgoT().TempDir(), "session.json"))
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(mockRepo, tokenGen, store, logger, bcrypt.MinCost)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should open a session carrying actor id and department", func() {
				session, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "Correct1password"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(session.ActorID).To(gomega.Equal(int64(1)))
				gomega.Expect(session.Department).To(gomega.Equal(user.DepartmentCommercial))
				gomega.Expect(session.Token).NotTo(gomega.BeEmpty())
				gomega.Expect(session.ExpiresAt).To(gomega.BeTemporally(">", time.Now()))
			})

			ginkgo.It("should persist the session for later lookups", func() {
				_, err := service.Authenticate(LoginDTO{Email: "bob@crm.example", Password: "Correct1password"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				loaded, err := store.Load()
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(loaded).NotTo(gomega.BeNil())
				gomega.Expect(loaded.ActorID).To(gomega.Equal(int64(2)))
			})

			ginkgo.It("should issue distinct tokens for consecutive logins", func() {
				first, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "Correct1password"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				second, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "Correct1password"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(second.Token).NotTo(gomega.Equal(first.Token))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should reject an unknown email", func() {
				_, err := service.Authenticate(LoginDTO{Email: "nobody@crm.example", Password: "Correct1password"})
				gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidCredentials))
			})

			ginkgo.It("should reject a wrong password without persisting a session", func() {
				_, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "wrong"})
				gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidCredentials))

				loaded, err := store.Load()
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(loaded).To(gomega.BeNil())
			})

			ginkgo.It("should report unknown email and wrong password identically", func() {
				_, unknownErr := service.Authenticate(LoginDTO{Email: "nobody@crm.example", Password: "Correct1password"})
				_, wrongErr := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "wrong"})
				gomega.Expect(unknownErr).To(gomega.Equal(wrongErr))
			})
		})

		ginkgo.Context("when input validation fails", func() {
			ginkgo.It("should return a validation error for an empty email", func() {
				_, err := service.Authenticate(LoginDTO{Email: "", Password: "Correct1password"})
				gomega.Expect(internal.IsValidationError(err)).To(gomega.BeTrue())
			})

			ginkgo.It("should return a validation error for a malformed email", func() {
				_, err := service.Authenticate(LoginDTO{Email: "not-an-email", Password: "Correct1password"})
				gomega.Expect(internal.IsValidationError(err)).To(gomega.BeTrue())
			})

			ginkgo.It("should return a validation error for an empty password", func() {
				_, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: ""})
				gomega.Expect(internal.IsValidationError(err)).To(gomega.BeTrue())
			})
		})
	})

	ginkgo.Describe("CurrentActor", func() {
		ginkgo.Context("with an open session", func() {
			ginkgo.It("should resolve the actor", func() {
				_, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "Correct1password"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				actor, err := service.CurrentActor()
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(actor.ID).To(gomega.Equal(int64(1)))
				gomega.Expect(actor.Department).To(gomega.Equal(user.DepartmentCommercial))
			})
		})

		ginkgo.Context("without a session", func() {
			ginkgo.It("should report no session", func() {
				_, err := service.CurrentActor()
				gomega.Expect(err).To(gomega.MatchError(internal.ErrNoSession))
			})
		})

		ginkgo.Context("with an expired session", func() {
			ginkgo.It("should behave like no session and clear the stale record", func() {
				expiredGen := NewJWTTokenGenerator(secret, -time.Minute)
				expiredService := NewService(mockRepo, expiredGen, store,
					slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})), bcrypt.MinCost)

				_, err := expiredService.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "Correct1password"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				_, err = expiredService.CurrentActor()
				gomega.Expect(err).To(gomega.MatchError(internal.ErrNoSession))

				stored, loadErr := store.Load()
				gomega.Expect(loadErr).NotTo(gomega.HaveOccurred())
				gomega.Expect(stored).To(gomega.BeNil())
			})
		})

		ginkgo.Context("when the account was removed after login", func() {
			ginkgo.It("should report no session", func() {
				_, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "Correct1password"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				delete(mockRepo.usersByID, int64(1))

				_, err = service.CurrentActor()
				gomega.Expect(err).To(gomega.MatchError(internal.ErrNoSession))
			})
		})
	})

	ginkgo.Describe("Invalidate", func() {
		ginkgo.It("should close the session and be idempotent", func() {
			_, err := service.Authenticate(LoginDTO{Email: "alice@crm.example", Password: "Correct1password"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(service.Invalidate()).To(gomega.Succeed())
			gomega.Expect(service.Invalidate()).To(gomega.Succeed())

			_, err = service.CurrentActor()
			gomega.Expect(err).To(gomega.MatchError(internal.ErrNoSession))
		})

		ginkgo.It("should succeed when no session was ever opened", func() {
			gomega.Expect(service.Invalidate()).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("token validation", func() {
		ginkgo.It("should reject tokens signed with a different secret", func() {
			otherGen := NewJWTTokenGenerator("another-secret-key-of-sufficient-len", ttl)
			token, _, err := otherGen.Generate(1, user.DepartmentCommercial)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = tokenGen.ValidateToken(token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("should round-trip actor id and department through the claims", func() {
			token, _, err := tokenGen.Generate(42, user.DepartmentSupport)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			claims, err := tokenGen.ValidateToken(token)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(int64(42)))
			gomega.Expect(claims.Department).To(gomega.Equal(string(user.DepartmentSupport)))
		})
	})

	ginkgo.Describe("password hashing", func() {
		ginkgo.It("should produce hashes that verify against the original password", func() {
			hash, err := service.HashPassword("S3curePass")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(hash).NotTo(gomega.Equal("S3curePass"))
			gomega.Expect(VerifyPassword(hash, "S3curePass")).To(gomega.Succeed())
			gomega.Expect(VerifyPassword(hash, "other")).NotTo(gomega.Succeed())
		})
	})
})
