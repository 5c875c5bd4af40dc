package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/client"
	clientmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/client"
	"github.com/ldelorme/crm-backoffice/internal/storage"
)

// ClientRepository implements the client.RepositoryAPI interface using GORM
type ClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) client.RepositoryAPI {
	return &ClientRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ClientRepository) WithTx(tx *gorm.DB) client.RepositoryAPI {
	return &ClientRepository{db: tx}
}

// Create saves a new client to the database
func (r *ClientRepository) Create(c *clientmodel.Client) error {
	if err := r.db.Create(c).Error; err != nil {
		return storage.WrapError("create client", err)
	}
	return nil
}

// GetByID retrieves a client by its ID
func (r *ClientRepository) GetByID(id int64) (*clientmodel.Client, error) {
	var c clientmodel.Client
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrClientNotFound
		}
		return nil, storage.WrapError("get client", err)
	}
	return &c, nil
}

// GetByEmail looks a client up by email for uniqueness checks
func (r *ClientRepository) GetByEmail(email string) (*clientmodel.Client, error) {
	var c clientmodel.Client
	err := r.db.Where("email = ?", email).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storage.WrapError("get client by email", err)
	}
	return &c, nil
}

// List retrieves all clients ordered by company name
func (r *ClientRepository) List() ([]*clientmodel.Client, error) {
	var clients []*clientmodel.Client
	err := r.db.Order("company_name ASC").Find(&clients).Error
	if err != nil {
		return nil, storage.WrapError("list clients", err)
	}
	return clients, nil
}

// ListBySalesContact retrieves the clients owned by one commercial user
func (r *ClientRepository) ListBySalesContact(userID int64) ([]*clientmodel.Client, error) {
	var clients []*clientmodel.Client
	err := r.db.Where("sales_contact_id = ?", userID).
		Order("company_name ASC").
		Find(&clients).Error
	if err != nil {
		return nil, storage.WrapError("list clients by sales contact", err)
	}
	return clients, nil
}

// Update saves changes to an existing client
func (r *ClientRepository) Update(c *clientmodel.Client) error {
	if err := r.db.Save(c).Error; err != nil {
		return storage.WrapError("update client", err)
	}
	return nil
}
