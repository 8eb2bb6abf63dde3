package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem maps one (user, product) pair to a quantity. The composite primary
// key enforces at most one line per pair; adding an existing pair merges
// quantities at the repository layer.
type CartItem struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
