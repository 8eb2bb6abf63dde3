package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/internal/cart"
	"github.com/khetihal/khetihal-backend/internal/catalog"
	"github.com/khetihal/khetihal-backend/pkg/db/models"
	"github.com/khetihal/khetihal-backend/pkg/enums"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
	"github.com/khetihal/khetihal-backend/pkg/logger"
	"github.com/khetihal/khetihal-backend/pkg/pagination"
)

const defaultPaymentMethod = "unknown"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]cart.Line, error)
	ClearForUser(ctx context.Context, userID uuid.UUID) error
}

type shippingLoader interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ShippingProfile, error)
}

type stockReserver interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) (int64, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// OrderMirror appends a placed order to the external spreadsheet ledger.
type OrderMirror interface {
	AppendOrder(ctx context.Context, order *models.Order, user *models.User) error
}

type stockEngine struct {
	repo *catalog.Repository
}

func (e stockEngine) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) (int64, error) {
	return e.repo.WithTx(tx).DecrementStock(ctx, productID, quantity)
}

// Service executes order placement and order history queries.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*PlaceOrderResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListAll(ctx context.Context, input ListInput) (*AdminListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*StatusResult, error)
}

// ServiceParams bundles the dependencies of the orders service. Stock
// defaults to a reserver backed by CatalogRepo when left nil.
type ServiceParams struct {
	Tx            txRunner
	Repo          Repository
	CartRepo      cartReader
	ShippingRepo  shippingLoader
	CatalogRepo   *catalog.Repository
	Stock         stockReserver
	Users         userLoader
	Mirror        OrderMirror
	Logger        *logger.Logger
	MirrorTimeout time.Duration
}

type service struct {
	tx            txRunner
	repo          Repository
	cartRepo      cartReader
	shippingRepo  shippingLoader
	stock         stockReserver
	users         userLoader
	mirror        OrderMirror
	logg          *logger.Logger
	mirrorTimeout time.Duration
}

// NewService builds the orders service. Mirror may be nil when the
// spreadsheet integration is disabled.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.ShippingRepo == nil {
		return nil, fmt.Errorf("shipping repository is required")
	}
	if params.Stock == nil {
		if params.CatalogRepo == nil {
			return nil, fmt.Errorf("stock reserver is required")
		}
		params.Stock = stockEngine{repo: params.CatalogRepo}
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user loader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	timeout := params.MirrorTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		tx:            params.Tx,
		repo:          params.Repo,
		cartRepo:      params.CartRepo,
		shippingRepo:  params.ShippingRepo,
		stock:         params.Stock,
		users:         params.Users,
		mirror:        params.Mirror,
		logg:          params.Logger,
		mirrorTimeout: timeout,
	}, nil
}

// PlaceOrder converts the user's cart into an order. The order row, its
// item snapshots, and the stock decrements commit in one transaction; the
// spreadsheet append and the cart clear happen after commit and never fail
// the placement. Retrying after a failure places a second order.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	lines, err := s.cartRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}

	profile, err := s.shippingRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "please save your shipping information before placing an order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipping profile")
	}

	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	var placed *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order := &models.Order{
			UserID:        userID,
			TotalAmount:   total,
			Status:        enums.OrderStatusPending,
			PaymentMethod: paymentMethod,
			Shipping:      profile.Address,
		}
		created, err := repo.Create(ctx, order)
		if err != nil {
			return err
		}

		items := buildOrderItems(created.ID, lines)
		if err := repo.CreateItems(ctx, items); err != nil {
			return err
		}
		created.Items = items

		for _, line := range lines {
			affected, err := s.stock.Decrement(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("not enough stock for %s", line.Name))
			}
		}

		placed = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, placed.ID.String())
	s.mirrorPlacedOrder(ctx, placed, userID)

	if err := s.cartRepo.ClearForUser(ctx, userID); err != nil {
		s.logg.Error(ctx, "order.cart_clear_failed", err)
	}

	s.logg.Info(ctx, "order.placed")
	return &PlaceOrderResult{OrderID: placed.ID, TotalAmount: placed.TotalAmount}, nil
}

// mirrorPlacedOrder appends the order to the spreadsheet on a best-effort
// basis. Failures are logged and swallowed so a slow or broken sheet never
// voids a committed order.
func (s *service) mirrorPlacedOrder(ctx context.Context, order *models.Order, userID uuid.UUID) {
	if s.mirror == nil {
		return
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logg.Error(ctx, "order.mirror_append_failed", err)
		return
	}

	mirrorCtx, cancel := context.WithTimeout(ctx, s.mirrorTimeout)
	defer cancel()
	if err := s.mirror.AppendOrder(mirrorCtx, order, user); err != nil {
		s.logg.Error(ctx, "order.mirror_append_failed", err)
	}
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error) {
	rows, err := s.repo.ListForUser(ctx, userID, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	rows, next := s.paginate(rows, input.Pagination)
	result := &ListResult{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Orders = append(result.Orders, FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) ListAll(ctx context.Context, input ListInput) (*AdminListResult, error) {
	rows, err := s.repo.ListAll(ctx, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	rows, next := s.paginate(rows, input.Pagination)
	result := &AdminListResult{Orders: make([]AdminOrderDTO, 0, len(rows)), NextCursor: next}

	userCache := map[uuid.UUID]*models.User{}
	for i := range rows {
		dto := AdminOrderDTO{OrderDTO: FromModel(&rows[i])}
		user, err := s.loadUser(ctx, rows[i].UserID, userCache)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order customer")
		}
		dto.CustomerUsername = user.Username
		dto.CustomerEmail = user.Email
		result.Orders = append(result.Orders, dto)
	}
	return result, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*StatusResult, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status provided")
	}

	current, err := s.repo.FindStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order status")
	}
	if current == req.Status {
		return &StatusResult{OrderID: orderID, Status: current, Changed: false}, nil
	}

	if err := s.repo.UpdateStatus(ctx, orderID, req.Status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(ctx, "order.status_updated")
	return &StatusResult{OrderID: orderID, Status: req.Status, Changed: true}, nil
}

func (s *service) paginate(rows []models.Order, params pagination.Params) ([]models.Order, *string) {
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	cursor := pagination.EncodeCursor(pagination.ScopeOrders, pagination.Cursor{
		CreatedAt: last.CreatedAt,
		ID:        last.ID,
	})
	return rows, &cursor
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]*models.User) (*models.User, error) {
	if user, ok := cache[id]; ok {
		return user, nil
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = user
	return user, nil
}
