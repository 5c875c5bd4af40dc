package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/contract"
	contractmodel "github.com/ldelorme/crm-backoffice/internal/core/datamodel/contract"
	"github.com/ldelorme/crm-backoffice/internal/storage"
)

// ContractRepository implements the contract.RepositoryAPI interface using GORM
type ContractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) contract.RepositoryAPI {
	return &ContractRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ContractRepository) WithTx(tx *gorm.DB) contract.RepositoryAPI {
	return &ContractRepository{db: tx}
}

// Create saves a new contract to the database
func (r *ContractRepository) Create(c *contractmodel.Contract) error {
	if err := r.db.Create(c).Error; err != nil {
		return storage.WrapError("create contract", err)
	}
	return nil
}

// GetByID retrieves a contract by its ID
func (r *ContractRepository) GetByID(id int64) (*contractmodel.Contract, error) {
	var c contractmodel.Contract
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrContractNotFound
		}
		return nil, storage.WrapError("get contract", err)
	}
	return &c, nil
}

// List retrieves all contracts, newest first
func (r *ContractRepository) List() ([]*contractmodel.Contract, error) {
	var contracts []*contractmodel.Contract
	err := r.db.Order("creation_date DESC").Find(&contracts).Error
	if err != nil {
		return nil, storage.WrapError("list contracts", err)
	}
	return contracts, nil
}

// ListBySalesContact retrieves contracts handled by one commercial user
func (r *ContractRepository) ListBySalesContact(userID int64) ([]*contractmodel.Contract, error) {
	var contracts []*contractmodel.Contract
	err := r.db.Where("sales_contact_id = ?", userID).
		Order("creation_date DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, storage.WrapError("list contracts by sales contact", err)
	}
	return contracts, nil
}

// ListByClient retrieves the contracts of one client
func (r *ContractRepository) ListByClient(clientID int64) ([]*contractmodel.Contract, error) {
	var contracts []*contractmodel.Contract
	err := r.db.Where("client_id = ?", clientID).
		Order("creation_date DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, storage.WrapError("list contracts by client", err)
	}
	return contracts, nil
}

// ListUnsigned retrieves contracts that have not been signed yet
func (r *ContractRepository) ListUnsigned() ([]*contractmodel.Contract, error) {
	var contracts []*contractmodel.Contract
	err := r.db.Where("is_signed = ?", false).
		Order("creation_date DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, storage.WrapError("list unsigned contracts", err)
	}
	return contracts, nil
}

// ListUnpaid retrieves contracts with a positive remaining amount
func (r *ContractRepository) ListUnpaid() ([]*contractmodel.Contract, error) {
	var contracts []*contractmodel.Contract
	err := r.db.Where("remaining_amount > 0").
		Order("creation_date DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, storage.WrapError("list unpaid contracts", err)
	}
	return contracts, nil
}

// Update saves changes to an existing contract
func (r *ContractRepository) Update(c *contractmodel.Contract) error {
	if err := r.db.Save(c).Error; err != nil {
		return storage.WrapError("update contract", err)
	}
	return nil
}

// Delete removes a contract by ID
func (r *ContractRepository) Delete(id int64) error {
	res := r.db.Delete(&contractmodel.Contract{}, id)
	if res.Error != nil {
		return storage.WrapError("delete contract", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrContractNotFound
	}
	return nil
}

// CountEvents counts the events that reference a contract
func (r *ContractRepository) CountEvents(contractID int64) (int64, error) {
	var count int64
	err := r.db.Table("events").Where("contract_id = ?", contractID).Count(&count).Error
	if err != nil {
		return 0, storage.WrapError("count contract events", err)
	}
	return count, nil
}
