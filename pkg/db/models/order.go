package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khetihal/khetihal-backend/pkg/enums"
	"github.com/khetihal/khetihal-backend/pkg/types"
)

// Order is the authoritative ledger record of one checkout. The shipping
// address is a verbatim copy of the profile at purchase time, so later profile
// edits never rewrite history.
type Order struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	OrderDate     time.Time             `gorm:"column:order_date;autoCreateTime"`
	TotalAmount   decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status        enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod string                `gorm:"column:payment_method;not null"`
	Shipping      types.ShippingAddress `gorm:"embedded"`
	Items         []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
