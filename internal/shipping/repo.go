package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
)

// Repository exposes shipping profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shipping repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByUserID loads the user's shipping profile.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ShippingProfile, error) {
	var profile models.ShippingProfile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert inserts or overwrites the single profile kept per user.
func (r *Repository) Upsert(ctx context.Context, profile *models.ShippingProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
}
