package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khetihal/khetihal-backend/internal/cart"
	"github.com/khetihal/khetihal-backend/pkg/db/models"
	"github.com/khetihal/khetihal-backend/pkg/enums"
	"github.com/khetihal/khetihal-backend/pkg/pagination"
	"github.com/khetihal/khetihal-backend/pkg/types"
)

// PlaceOrderRequest is the checkout payload. The payment method is a
// free-form tag recorded on the order; blank falls back to "unknown".
type PlaceOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"omitempty,max=32"`
}

// UpdateStatusRequest moves an order to a new lifecycle status.
type UpdateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// StatusResult reports whether an admin status update changed anything.
type StatusResult struct {
	OrderID uuid.UUID         `json:"order_id"`
	Status  enums.OrderStatus `json:"status"`
	Changed bool              `json:"changed"`
}

// OrderItemDTO is one snapshotted line of a placed order.
type OrderItemDTO struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// OrderDTO is the API shape of one order with its items.
type OrderDTO struct {
	ID            uuid.UUID             `json:"id"`
	UserID        uuid.UUID             `json:"user_id"`
	OrderDate     time.Time             `json:"order_date"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Status        enums.OrderStatus     `json:"status"`
	PaymentMethod string                `json:"payment_method"`
	Shipping      types.ShippingAddress `json:"shipping"`
	Items         []OrderItemDTO        `json:"items"`
}

// AdminOrderDTO extends OrderDTO with the owning customer's identity.
type AdminOrderDTO struct {
	OrderDTO
	CustomerUsername string `json:"customer_username"`
	CustomerEmail    string `json:"customer_email"`
}

// ListInput carries pagination for order history queries.
type ListInput struct {
	Pagination pagination.Params
}

// ListResult is one page of a customer's order history.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// AdminListResult is one page of the storewide order ledger.
type AdminListResult struct {
	Orders     []AdminOrderDTO `json:"orders"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// PlaceOrderResult summarizes a freshly placed order.
type PlaceOrderResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// FromModel maps an order and its preloaded items to the API shape.
func FromModel(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items = append(items, OrderItemDTO{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return OrderDTO{
		ID:            order.ID,
		UserID:        order.UserID,
		OrderDate:     order.OrderDate,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Shipping:      order.Shipping,
		Items:         items,
	}
}

func buildOrderItems(orderID uuid.UUID, lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:      orderID,
			ProductID:    line.ProductID,
			ProductName:  line.Name,
			ProductPrice: line.Price,
			Quantity:     line.Quantity,
		})
	}
	return items
}
