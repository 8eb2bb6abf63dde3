package mirror

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is one row of the products sheet. Sheets are hand-edited, so
// malformed cells parse to zero values instead of failing the whole read.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Stock       int64           `json:"stock"`
}

// ProductInput is the payload for adding or updating a sheet product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	ImageURL    string          `json:"image_url"`
	Stock       int64           `json:"stock" validate:"gte=0"`
}

// OrderItem is one snapshotted line inside an order row's items column.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is one row of the orders sheet.
type Order struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"user_id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	OrderDate     string          `json:"order_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	FullName      string          `json:"full_name"`
	AddressLine1  string          `json:"address_line1"`
	AddressLine2  string          `json:"address_line2"`
	AddressLine3  string          `json:"address_line3"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	ZipCode       string          `json:"zip_code"`
	Phone         string          `json:"phone"`
	Items         []OrderItem     `json:"items"`
}

// headerIndex maps lowercased header names to their column position.
func headerIndex(header []any) map[string]int {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(fmt.Sprint(cell)))
		if name != "" {
			index[name] = i
		}
	}
	return index
}

func cellString(row []any, index map[string]int, column string) string {
	pos, ok := index[column]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[pos]))
}

func cellInt(row []any, index map[string]int, column string) int64 {
	value, err := strconv.ParseInt(cellString(row, index, column), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

func cellDecimal(row []any, index map[string]int, column string) decimal.Decimal {
	value, err := decimal.NewFromString(cellString(row, index, column))
	if err != nil {
		return decimal.Zero
	}
	return value
}
