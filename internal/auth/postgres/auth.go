package postgres

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/ldelorme/crm-backoffice/internal"
	"github.com/ldelorme/crm-backoffice/internal/auth"
	"github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
	"github.com/ldelorme/crm-backoffice/internal/storage"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCredentialsByEmail(email string) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := `SELECT id, password_hash, department FROM users WHERE email = ?`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&creds.UserID, &creds.PasswordHash, &creds.Department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, storage.WrapError("load credentials", err)
	}
	return &creds, nil
}

func (r *Repository) GetUserByID(id int64) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, id).Error; err != nil {
		if storage.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, storage.WrapError("load user", err)
	}
	return &u, nil
}
