package client

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	clientmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/client"
	usermodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
	"github.com/ldelorme/crm-backoffice/internal/policy"
	"github.com/ldelorme/crm-backoffice/internal/telemetry"
)

func TestClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Client Module Suite")
}

type mockClientRepository struct {
	clients map[int64]*clientmodel.Client
	nextID  int64
}

func newMockClientRepository() *mockClientRepository {
	return &mockClientRepository{clients: make(map[int64]*clientmodel.Client), nextID: 1}
}

func (m *mockClientRepository) add(c clientmodel.Client) *clientmodel.Client {
	c.ID = m.nextID
	m.nextID++
	stored := c
	m.clients[stored.ID] = &stored
	return &stored
}

func (m *mockClientRepository) WithTx(tx *gorm.DB) RepositoryAPI { return m }

func (m *mockClientRepository) Create(c *clientmodel.Client) error {
	c.ID = m.nextID
	m.nextID++
	stored := *c
	m.clients[stored.ID] = &stored
	return nil
}

func (m *mockClientRepository) GetByID(id int64) (*clientmodel.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, internal.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockClientRepository) GetByEmail(email string) (*clientmodel.Client, error) {
	for _, c := range m.clients {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockClientRepository) List() ([]*clientmodel.Client, error) {
	out := make([]*clientmodel.Client, 0, len(m.clients))
	for _, c := range m.clients {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockClientRepository) ListBySalesContact(userID int64) ([]*clientmodel.Client, error) {
	var out []*clientmodel.Client
	for _, c := range m.clients {
		if c.SalesContactID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockClientRepository) Update(c *clientmodel.Client) error {
	if _, ok := m.clients[c.ID]; !ok {
		return internal.ErrClientNotFound
	}
	stored := *c
	m.clients[stored.ID] = &stored
	return nil
}

type mockUserDirectory struct {
	users map[int64]*usermodel.User
}

func (m *mockUserDirectory) GetByID(id int64) (*usermodel.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type mockTransactor struct{}

func (mockTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordedEvent struct {
	Action  string
	Outcome telemetry.Outcome
	Fields  map[string]interface{}
}

type mockSink struct {
	events []recordedEvent
}

func (m *mockSink) Record(ctx context.Context, action string, outcome telemetry.Outcome, fields map[string]interface{}) {
	m.events = append(m.events, recordedEvent{Action: action, Outcome: outcome, Fields: fields})
}

var _ = Describe("ClientService", func() {
	var (
		repo    *mockClientRepository
		users   *mockUserDirectory
		sink    *mockSink
		service *Service
		ctx     context.Context

		carol policy.Actor
		dave  policy.Actor
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	support := policy.Actor{ID: 30, Department: usermodel.DepartmentSupport}
	gestion := policy.Actor{ID: 40, Department: usermodel.DepartmentGestion}

	validDTO := func() CreateClientDTO {
		return CreateClientDTO{
			FullName:    "Kevin Casey",
			Email:       "kevin@startup.io",
			Phone:       "0678912345",
			CompanyName: "Cool Startup LLC",
		}
	}

	BeforeEach(func() {
		repo = newMockClientRepository()
		users = &mockUserDirectory{users: map[int64]*usermodel.User{
			10: {ID: 10, Name: "Carol", Department: usermodel.DepartmentCommercial},
			20: {ID: 20, Name: "Dave", Department: usermodel.DepartmentCommercial},
			30: {ID: 30, Name: "Sofia", Department: usermodel.DepartmentSupport},
		}}
		sink = &mockSink{}
		service = NewService(repo, users, mockTransactor{}, policy.NewEvaluator(), sink, logger)
		ctx = context.Background()

		carol = policy.Actor{ID: 10, Department: usermodel.DepartmentCommercial}
		dave = policy.Actor{ID: 20, Department: usermodel.DepartmentCommercial}
	})

	Describe("CreateClient", func() {
		It("makes the creating commercial the sales contact", func() {
			before := time.Now()
			created, err := service.CreateClient(ctx, carol, validDTO())

			Expect(err).To(BeNil())
			Expect(created.SalesContactID).To(Equal(carol.ID))
			Expect(created.LastContactDate).To(BeTemporally(">=", before))
		})

		It("denies creation to support users", func() {
			_, err := service.CreateClient(ctx, support, validDTO())

			Expect(internal.IsPermissionDeniedError(err)).To(BeTrue())
			Expect(repo.clients).To(BeEmpty())
		})

		It("denies creation to gestion users", func() {
			_, err := service.CreateClient(ctx, gestion, validDTO())

			Expect(internal.IsPermissionDeniedError(err)).To(BeTrue())
		})

		It("rejects a phone number that is not ten digits", func() {
			dto := validDTO()
			dto.Phone = "123"

			_, err := service.CreateClient(ctx, carol, dto)

			Expect(internal.IsValidationError(err)).To(BeTrue())
		})

		It("rejects a duplicate client email", func() {
			dto := validDTO()
			repo.add(clientmodel.Client{
				FullName:       "Existing",
				Email:          dto.Email,
				Phone:          "0611111111",
				CompanyName:    "Elsewhere",
				SalesContactID: dave.ID,
			})

			_, err := service.CreateClient(ctx, carol, dto)

			Expect(internal.IsValidationError(err)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("email"))
		})
	})

	Describe("UpdateClient", func() {
		var owned *clientmodel.Client

		BeforeEach(func() {
			owned = repo.add(clientmodel.Client{
				FullName:        "Kevin Casey",
				Email:           "kevin@startup.io",
				Phone:           "0678912345",
				CompanyName:     "Cool Startup LLC",
				SalesContactID:  carol.ID,
				LastContactDate: time.Now().Add(-24 * time.Hour),
			})
		})

		It("lets the owning commercial update and refreshes the contact date", func() {
			phone := "0698765432"
			updated, err := service.UpdateClient(ctx, carol, owned.ID, UpdateClientPatch{Phone: &phone})

			Expect(err).To(BeNil())
			Expect(updated.Phone).To(Equal("0698765432"))
			Expect(updated.LastContactDate).To(BeTemporally(">", owned.LastContactDate))
		})

		It("denies another commercial with the policy reason", func() {
			phone := "0698765432"
			_, err := service.UpdateClient(ctx, dave, owned.ID, UpdateClientPatch{Phone: &phone})

			Expect(internal.IsPermissionDeniedError(err)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Message).To(ContainSubstring("sales contact"))

			stored, _ := repo.GetByID(owned.ID)
			Expect(stored.Phone).To(Equal("0678912345"))
		})

		It("denies gestion users", func() {
			phone := "0698765432"
			_, err := service.UpdateClient(ctx, gestion, owned.ID, UpdateClientPatch{Phone: &phone})

			Expect(internal.IsPermissionDeniedError(err)).To(BeTrue())
		})

		It("denies support users", func() {
			phone := "0698765432"
			_, err := service.UpdateClient(ctx, support, owned.ID, UpdateClientPatch{Phone: &phone})

			Expect(internal.IsPermissionDeniedError(err)).To(BeTrue())
		})

		It("rejects an empty patch", func() {
			_, err := service.UpdateClient(ctx, carol, owned.ID, UpdateClientPatch{})

			Expect(internal.IsValidationError(err)).To(BeTrue())
		})

		It("rejects a malformed replacement email", func() {
			email := "not-an-email"
			_, err := service.UpdateClient(ctx, carol, owned.ID, UpdateClientPatch{Email: &email})

			Expect(internal.IsValidationError(err)).To(BeTrue())
		})

		It("rejects an email already used by another client", func() {
			other := repo.add(clientmodel.Client{
				FullName:       "Other",
				Email:          "other@corp.com",
				Phone:          "0622222222",
				CompanyName:    "Other Corp",
				SalesContactID: carol.ID,
			})

			email := other.Email
			_, err := service.UpdateClient(ctx, carol, owned.ID, UpdateClientPatch{Email: &email})

			Expect(internal.IsValidationError(err)).To(BeTrue())
		})

		It("allows keeping the same email on the same client", func() {
			email := owned.Email
			_, err := service.UpdateClient(ctx, carol, owned.ID, UpdateClientPatch{Email: &email})

			Expect(err).To(BeNil())
		})

		It("returns not found for a missing client", func() {
			phone := "0698765432"
			_, err := service.UpdateClient(ctx, carol, 4242, UpdateClientPatch{Phone: &phone})

			Expect(internal.IsNotFoundError(err)).To(BeTrue())
		})
	})

	Describe("ReassignClient", func() {
		var owned *clientmodel.Client

		BeforeEach(func() {
			owned = repo.add(clientmodel.Client{
				FullName:       "Kevin Casey",
				Email:          "kevin@startup.io",
				Phone:          "0678912345",
				CompanyName:    "Cool Startup LLC",
				SalesContactID: carol.ID,
			})
		})

		It("lets gestion hand the client to another commercial", func() {
			updated, err := service.ReassignClient(ctx, gestion, owned.ID, dave.ID)

			Expect(err).To(BeNil())
			Expect(updated.SalesContactID).To(Equal(dave.ID))

			last := sink.events[len(sink.events)-1]
			Expect(last.Action).To(Equal(string(policy.ActionReassignClient)))
			Expect(last.Fields).To(HaveKeyWithValue("from_sales_contact_id", carol.ID))
			Expect(last.Fields).To(HaveKeyWithValue("to_sales_contact_id", dave.ID))
		})

		It("denies the owning commercial", func() {
			_, err := service.ReassignClient(ctx, carol, owned.ID, dave.ID)

			Expect(internal.IsPermissionDeniedError(err)).To(BeTrue())
			stored, _ := repo.GetByID(owned.ID)
			Expect(stored.SalesContactID).To(Equal(carol.ID))
		})

		It("refuses a support user as the new sales contact", func() {
			_, err := service.ReassignClient(ctx, gestion, owned.ID, 30)

			Expect(internal.IsInvariantViolationError(err)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotCommercialUser))

			stored, _ := repo.GetByID(owned.ID)
			Expect(stored.SalesContactID).To(Equal(carol.ID))
		})

		It("returns not found for a missing target user", func() {
			_, err := service.ReassignClient(ctx, gestion, owned.ID, 4242)

			Expect(internal.IsNotFoundError(err)).To(BeTrue())
		})

		It("returns not found for a missing client", func() {
			_, err := service.ReassignClient(ctx, gestion, 4242, dave.ID)

			Expect(internal.IsNotFoundError(err)).To(BeTrue())
		})
	})

	Describe("ListClients and GetClient", func() {
		BeforeEach(func() {
			repo.add(clientmodel.Client{FullName: "A", Email: "a@x.com", Phone: "0600000001", CompanyName: "A Corp", SalesContactID: carol.ID})
			repo.add(clientmodel.Client{FullName: "B", Email: "b@x.com", Phone: "0600000002", CompanyName: "B Corp", SalesContactID: dave.ID})
		})

		It("narrows the mine scope to the actor's own clients", func() {
			clients, err := service.ListClients(ctx, carol, policy.ScopeMine)

			Expect(err).To(BeNil())
			Expect(clients).To(HaveLen(1))
			Expect(clients[0].SalesContactID).To(Equal(carol.ID))
		})

		It("returns everything for the all scope", func() {
			clients, err := service.ListClients(ctx, support, policy.ScopeAll)

			Expect(err).To(BeNil())
			Expect(clients).To(HaveLen(2))
		})

		It("denies the mine scope to support users", func() {
			_, err := service.ListClients(ctx, support, policy.ScopeMine)

			Expect(internal.IsPermissionDeniedError(err)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Message).To(ContainSubstring("commercial"))
		})

		It("lets any department read a single client", func() {
			clients, _ := repo.List()
			got, err := service.GetClient(ctx, support, clients[0].ID)

			Expect(err).To(BeNil())
			Expect(got.ID).To(Equal(clients[0].ID))
		})

		It("filters the book by sales contact", func() {
			clients, err := service.ListClientsBySalesContact(ctx, gestion, dave.ID)

			Expect(err).To(BeNil())
			Expect(clients).To(HaveLen(1))
			Expect(clients[0].SalesContactID).To(Equal(dave.ID))
		})
	})
})
