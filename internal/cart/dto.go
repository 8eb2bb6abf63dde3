package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds quantity of a product to the caller's cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// AdjustRequest bumps a cart line by one in either direction.
type AdjustRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Change    string    `json:"change" validate:"required,oneof=increase decrease"`
}

// LineDTO is one cart line joined with its live catalog data.
type LineDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartDTO is the full cart view returned to the client.
type CartDTO struct {
	Items []LineDTO       `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// QuantityResult reports the post-mutation quantity of a cart line. A zero
// quantity means the line was removed.
type QuantityResult struct {
	ProductID   uuid.UUID `json:"product_id"`
	NewQuantity int       `json:"new_quantity"`
}
