package users

import (
	"context"
	"errors"

	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is the subset of an account used to reach its owner.
type Contact struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// Repository exposes read-only user lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindContact returns the email contact for id, or ok=false when no account exists.
func (r *Repository) FindContact(ctx context.Context, id uuid.UUID) (Contact, bool, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Contact{}, false, nil
		}
		return Contact{}, false, err
	}
	return Contact{ID: user.ID, Email: user.Email, Name: user.Name}, true, nil
}
