package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khetihal/khetihal-backend/pkg/config"
	"github.com/khetihal/khetihal-backend/pkg/db/models"
	"github.com/khetihal/khetihal-backend/pkg/enums"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
	"github.com/khetihal/khetihal-backend/pkg/logger"
	"github.com/khetihal/khetihal-backend/pkg/metrics"
	"github.com/khetihal/khetihal-backend/pkg/sheets"
)

type sheetClient interface {
	ReadAll(ctx context.Context, sheet string) ([][]any, error)
	AppendRow(ctx context.Context, sheet string, row []any) error
	FindRowByID(ctx context.Context, sheet string, id int64) (int64, []any, error)
	UpdateRow(ctx context.Context, sheet string, rowIndex int64, row []any) error
	UpdateCell(ctx context.Context, sheet string, rowIndex, colIndex int64, value any) error
	DeleteRow(ctx context.Context, sheet string, rowIndex int64) error
	NextID(ctx context.Context, sheet string) (int64, error)
}

// Service manages the spreadsheet mirror of the catalog and order ledger.
type Service interface {
	ListProducts(ctx context.Context, query string) ([]Product, error)
	AddProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status enums.OrderStatus) error
	AppendOrder(ctx context.Context, order *models.Order, user *models.User) error
}

type service struct {
	client        sheetClient
	productsSheet string
	ordersSheet   string
	logg          *logger.Logger
	metrics       *metrics.MirrorMetrics
}

// NewService builds a mirror service over the configured sheets.
func NewService(client sheetClient, cfg config.SheetsConfig, logg *logger.Logger, m *metrics.MirrorMetrics) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("sheet client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if m == nil {
		m = metrics.NewMirrorMetrics(nil)
	}
	return &service{
		client:        client,
		productsSheet: cfg.ProductsSheet,
		ordersSheet:   cfg.OrdersSheet,
		logg:          logg,
		metrics:       m,
	}, nil
}

// observe wraps one sheet call with duration and outcome metrics.
func (s *service) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveDuration(op, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(op)
		return err
	}
	s.metrics.IncSuccess(op)
	return nil
}

func (s *service) ListProducts(ctx context.Context, query string) ([]Product, error) {
	var rows [][]any
	err := s.observe("products_read", func() error {
		var readErr error
		rows, readErr = s.client.ReadAll(ctx, s.productsSheet)
		return readErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read products sheet")
	}
	if len(rows) == 0 {
		return []Product{}, nil
	}

	index := headerIndex(rows[0])
	needle := strings.ToLower(strings.TrimSpace(query))

	products := make([]Product, 0, len(rows)-1)
	for _, row := range rows[1:] {
		product := Product{
			ID:          cellInt(row, index, "id"),
			Name:        cellString(row, index, "name"),
			Description: cellString(row, index, "description"),
			Price:       cellDecimal(row, index, "price"),
			ImageURL:    cellString(row, index, "image_url"),
			Stock:       cellInt(row, index, "stock"),
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(product.Name), needle) &&
			!strings.Contains(strings.ToLower(product.Description), needle) {
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

func (s *service) AddProduct(ctx context.Context, input ProductInput) (*Product, error) {
	product := &Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Stock:       input.Stock,
	}

	err := s.observe("products_append", func() error {
		id, err := s.client.NextID(ctx, s.productsSheet)
		if err != nil {
			return err
		}
		product.ID = id
		return s.client.AppendRow(ctx, s.productsSheet, productRow(product))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append product to sheet")
	}

	s.logg.Info(s.logg.WithField(ctx, "sheet_product_id", product.ID), "mirror.product_added")
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, input ProductInput) error {
	err := s.observe("products_update", func() error {
		rowIndex, _, err := s.client.FindRowByID(ctx, s.productsSheet, id)
		if err != nil {
			return err
		}
		product := &Product{
			ID:          id,
			Name:        input.Name,
			Description: input.Description,
			Price:       input.Price,
			ImageURL:    input.ImageURL,
			Stock:       input.Stock,
		}
		return s.client.UpdateRow(ctx, s.productsSheet, rowIndex, productRow(product))
	})
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found in sheet")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product in sheet")
	}
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	err := s.observe("products_delete", func() error {
		rowIndex, _, err := s.client.FindRowByID(ctx, s.productsSheet, id)
		if err != nil {
			return err
		}
		return s.client.DeleteRow(ctx, s.productsSheet, rowIndex)
	})
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found in sheet")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product from sheet")
	}
	return nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	var rows [][]any
	err := s.observe("orders_read", func() error {
		var readErr error
		rows, readErr = s.client.ReadAll(ctx, s.ordersSheet)
		return readErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read orders sheet")
	}
	if len(rows) == 0 {
		return []Order{}, nil
	}

	index := headerIndex(rows[0])
	orders := make([]Order, 0, len(rows)-1)
	for _, row := range rows[1:] {
		order := Order{
			ID:            cellInt(row, index, "id"),
			UserID:        cellString(row, index, "user_id"),
			Username:      cellString(row, index, "username"),
			Email:         cellString(row, index, "email"),
			OrderDate:     cellString(row, index, "order_date"),
			TotalAmount:   cellDecimal(row, index, "total_amount"),
			Status:        cellString(row, index, "status"),
			PaymentMethod: cellString(row, index, "payment_method"),
			FullName:      cellString(row, index, "full_name"),
			AddressLine1:  cellString(row, index, "address_line1"),
			AddressLine2:  cellString(row, index, "address_line2"),
			AddressLine3:  cellString(row, index, "address_line3"),
			City:          cellString(row, index, "city"),
			State:         cellString(row, index, "state"),
			ZipCode:       cellString(row, index, "zip_code"),
			Phone:         cellString(row, index, "phone"),
			Items:         []OrderItem{},
		}
		if raw := cellString(row, index, "items_json"); raw != "" {
			var items []OrderItem
			if err := json.Unmarshal([]byte(raw), &items); err == nil {
				order.Items = items
			}
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, id int64, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status provided")
	}

	err := s.observe("orders_status_update", func() error {
		rows, err := s.client.ReadAll(ctx, s.ordersSheet)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return sheets.ErrRowNotFound
		}

		index := headerIndex(rows[0])
		statusCol, ok := index["status"]
		if !ok {
			return fmt.Errorf("status column not found in sheet %q", s.ordersSheet)
		}

		rowIndex, _, err := s.client.FindRowByID(ctx, s.ordersSheet, id)
		if err != nil {
			return err
		}
		return s.client.UpdateCell(ctx, s.ordersSheet, rowIndex, int64(statusCol+1), status.String())
	})
	if err != nil {
		if errors.Is(err, sheets.ErrRowNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found in sheet")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status in sheet")
	}
	return nil
}

// AppendOrder records a freshly placed order in the orders sheet. The item
// snapshot is serialized into a single JSON column.
func (s *service) AppendOrder(ctx context.Context, order *models.Order, user *models.User) error {
	if order == nil || user == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order and user are required")
	}

	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItem{
			ProductID: item.ProductID.String(),
			Name:      item.ProductName,
			Price:     item.ProductPrice,
			Quantity:  item.Quantity,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order items")
	}

	line3 := ""
	if order.Shipping.AddressLine3 != nil {
		line3 = *order.Shipping.AddressLine3
	}

	err = s.observe("orders_append", func() error {
		id, err := s.client.NextID(ctx, s.ordersSheet)
		if err != nil {
			return err
		}
		row := []any{
			id,
			order.UserID.String(),
			user.Username,
			user.Email,
			order.OrderDate.UTC().Format(time.RFC3339),
			order.TotalAmount.StringFixed(2),
			order.Status.String(),
			order.PaymentMethod,
			order.Shipping.FullName,
			order.Shipping.AddressLine1,
			order.Shipping.AddressLine2,
			line3,
			order.Shipping.City,
			order.Shipping.State,
			order.Shipping.ZipCode,
			order.Shipping.Phone,
			string(itemsJSON),
		}
		return s.client.AppendRow(ctx, s.ordersSheet, row)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order to sheet")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "mirror.order_appended")
	return nil
}

func productRow(product *Product) []any {
	return []any{
		product.ID,
		product.Name,
		product.Description,
		product.Price.StringFixed(2),
		product.ImageURL,
		product.Stock,
	}
}
