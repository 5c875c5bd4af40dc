package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/client"
	clientmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/client"
)

func TestClientRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ClientRepository Suite")
}

var _ = Describe("ClientRepository", func() {
	var (
		db   *gorm.DB
		repo client.RepositoryAPI
	)

	newClient := func(name, email, company string, salesContactID int64) *clientmodel.Client {
		return &clientmodel.Client{
			FullName:        name,
			Email:           email,
			Phone:           "0612345678",
			CompanyName:     company,
			SalesContactID:  salesContactID,
			LastContactDate: time.Now(),
		}
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&clientmodel.Client{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewClientRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create", func() {
		It("assigns an id", func() {
			c := newClient("Kevin Casey", "kevin@coolstartup.io", "Cool Startup LLC", 10)
			Expect(repo.Create(c)).To(Succeed())
			Expect(c.ID).To(BeNumerically(">", 0))
		})

		It("maps a duplicate email to a conflict", func() {
			Expect(repo.Create(newClient("Kevin Casey", "kevin@coolstartup.io", "Cool Startup LLC", 10))).To(Succeed())

			err := repo.Create(newClient("Kevin Copy", "kevin@coolstartup.io", "Other Corp", 20))
			Expect(err).To(HaveOccurred())
			Expect(internal.IsConflictError(err)).To(BeTrue())
		})
	})

	Describe("GetByID", func() {
		It("returns ErrClientNotFound for an unknown id", func() {
			got, err := repo.GetByID(404)
			Expect(err).To(MatchError(internal.ErrClientNotFound))
			Expect(got).To(BeNil())
		})
	})

	Describe("GetByEmail", func() {
		It("returns nil without error when the email is unused", func() {
			got, err := repo.GetByEmail("nobody@crm.test")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})

	Describe("listing", func() {
		BeforeEach(func() {
			Expect(repo.Create(newClient("Kevin Casey", "kevin@coolstartup.io", "Cool Startup LLC", 10))).To(Succeed())
			Expect(repo.Create(newClient("Lou Armand", "lou@acme.test", "Acme", 20))).To(Succeed())
			Expect(repo.Create(newClient("Mia Chen", "mia@zenith.test", "Zenith", 10))).To(Succeed())
		})

		It("orders the full list by company name", func() {
			clients, err := repo.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(clients).To(HaveLen(3))
			Expect(clients[0].CompanyName).To(Equal("Acme"))
			Expect(clients[1].CompanyName).To(Equal("Cool Startup LLC"))
			Expect(clients[2].CompanyName).To(Equal("Zenith"))
		})

		It("filters by sales contact", func() {
			clients, err := repo.ListBySalesContact(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(clients).To(HaveLen(2))
			for _, c := range clients {
				Expect(c.SalesContactID).To(Equal(int64(10)))
			}
		})
	})

	Describe("Update", func() {
		It("persists the changed fields", func() {
			c := newClient("Kevin Casey", "kevin@coolstartup.io", "Cool Startup LLC", 10)
			Expect(repo.Create(c)).To(Succeed())

			c.Phone = "0699887766"
			c.SalesContactID = 20
			Expect(repo.Update(c)).To(Succeed())

			got, err := repo.GetByID(c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Phone).To(Equal("0699887766"))
			Expect(got.SalesContactID).To(Equal(int64(20)))
		})
	})
})
