package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/khetihal/khetihal-backend/pkg/types"
)

// ShippingProfile holds the single shipping address kept per user. Saving a
// profile overwrites the previous one in place; no history is kept.
type ShippingProfile struct {
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;primaryKey"`
	Address   types.ShippingAddress `gorm:"embedded"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
