package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/internal/cart"
	"github.com/khetihal/khetihal-backend/pkg/db/models"
	"github.com/khetihal/khetihal-backend/pkg/enums"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
	"github.com/khetihal/khetihal-backend/pkg/logger"
	"github.com/khetihal/khetihal-backend/pkg/pagination"
	"github.com/khetihal/khetihal-backend/pkg/types"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	created []*models.Order
	items   map[uuid.UUID][]models.OrderItem
	status  map[uuid.UUID]enums.OrderStatus
	updated map[uuid.UUID]enums.OrderStatus
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		items:   map[uuid.UUID][]models.OrderItem{},
		status:  map[uuid.UUID]enums.OrderStatus{},
		updated: map[uuid.UUID]enums.OrderStatus{},
	}
}

func (r *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	order.OrderDate = time.Now().UTC()
	r.created = append(r.created, order)
	r.status[order.ID] = order.Status
	return order, nil
}

func (r *stubOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) > 0 {
		r.items[items[0].OrderID] = items
	}
	return nil
}

func (r *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	for _, order := range r.created {
		if order.ID == id {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrdersRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := r.FindByID(ctx, id)
	if err != nil || order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *stubOrdersRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	var out []models.Order
	for _, order := range r.created {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (r *stubOrdersRepo) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, error) {
	var out []models.Order
	for _, order := range r.created {
		out = append(out, *order)
	}
	return out, nil
}

func (r *stubOrdersRepo) FindStatus(ctx context.Context, id uuid.UUID) (enums.OrderStatus, error) {
	status, ok := r.status[id]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return status, nil
}

func (r *stubOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	r.status[id] = status
	r.updated[id] = status
	return nil
}

type stubCartRepo struct {
	lines    []cart.Line
	clearErr error
	cleared  bool
}

func (r *stubCartRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	return r.lines, nil
}

func (r *stubCartRepo) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	r.cleared = true
	return nil
}

type stubShippingRepo struct {
	profile *models.ShippingProfile
}

func (r *stubShippingRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ShippingProfile, error) {
	if r.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.profile, nil
}

type stubStock struct {
	levels map[uuid.UUID]int
}

func (s *stubStock) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) (int64, error) {
	if s.levels[productID] < quantity {
		return 0, nil
	}
	s.levels[productID] -= quantity
	return 1, nil
}

type stubUserRepo struct {
	user *models.User
}

func (r *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return r.user, nil
}

type stubMirror struct {
	err       error
	calls     int
	lastOrder *models.Order
}

func (m *stubMirror) AppendOrder(ctx context.Context, order *models.Order, user *models.User) error {
	m.calls++
	m.lastOrder = order
	if m.err != nil {
		return m.err
	}
	return nil
}

type placeOrderFixture struct {
	svc      Service
	repo     *stubOrdersRepo
	cartRepo *stubCartRepo
	stock    *stubStock
	mirror   *stubMirror
	user     *models.User
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
}

func testAddress() types.ShippingAddress {
	return types.ShippingAddress{
		FullName:     "Asha Patel",
		AddressLine1: "14 Ridge Road",
		City:         "Pune",
		State:        "MH",
		ZipCode:      "411001",
		Phone:        "9876543210",
	}
}

func testCartLines() ([]cart.Line, map[uuid.UUID]int) {
	tomatoes := uuid.New()
	rice := uuid.New()
	lines := []cart.Line{
		{ProductID: tomatoes, Name: "Organic Tomatoes", Price: decimal.RequireFromString("2.50"), Quantity: 2},
		{ProductID: rice, Name: "Brown Rice", Price: decimal.RequireFromString("3.00"), Quantity: 1},
	}
	levels := map[uuid.UUID]int{tomatoes: 100, rice: 110}
	return lines, levels
}

func buildPlaceOrderFixture(t *testing.T, lines []cart.Line, levels map[uuid.UUID]int) *placeOrderFixture {
	t.Helper()

	user := &models.User{ID: uuid.New(), Username: "shopper", Email: "shopper@example.com"}
	repo := newStubOrdersRepo()
	cartRepo := &stubCartRepo{lines: lines}
	stock := &stubStock{levels: levels}
	mirror := &stubMirror{}

	svc, err := NewService(ServiceParams{
		Tx:           stubTx{},
		Repo:         repo,
		CartRepo:     cartRepo,
		ShippingRepo: &stubShippingRepo{profile: &models.ShippingProfile{UserID: user.ID, Address: testAddress()}},
		Stock:        stock,
		Users:        &stubUserRepo{user: user},
		Mirror:       mirror,
		Logger:       testLogger(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &placeOrderFixture{svc: svc, repo: repo, cartRepo: cartRepo, stock: stock, mirror: mirror, user: user}
}

func TestPlaceOrderSnapshotsCartAndShipping(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	result, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if !result.TotalAmount.Equal(decimal.RequireFromString("8.00")) {
		t.Fatalf("expected total 8.00, got %s", result.TotalAmount)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected one order, got %d", len(f.repo.created))
	}

	order := f.repo.created[0]
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.PaymentMethod != "unknown" {
		t.Fatalf("expected default payment method, got %q", order.PaymentMethod)
	}
	if order.Shipping.City != "Pune" {
		t.Fatalf("expected shipping snapshot, got %+v", order.Shipping)
	}
	if len(f.repo.items[order.ID]) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(f.repo.items[order.ID]))
	}
	if f.stock.levels[lines[0].ProductID] != 98 {
		t.Fatalf("expected stock 98 after decrement, got %d", f.stock.levels[lines[0].ProductID])
	}
	if !f.cartRepo.cleared {
		t.Fatalf("expected cart to be cleared")
	}
	if f.mirror.calls != 1 {
		t.Fatalf("expected one mirror append, got %d", f.mirror.calls)
	}
	if f.mirror.lastOrder == nil || len(f.mirror.lastOrder.Items) != 2 {
		t.Fatalf("expected mirror order to carry 2 item snapshots, got %+v", f.mirror.lastOrder)
	}
	if f.mirror.lastOrder.Items[0].ProductName != "Organic Tomatoes" {
		t.Fatalf("expected item snapshot names, got %q", f.mirror.lastOrder.Items[0].ProductName)
	}
}

func TestPlaceOrderRecordsPaymentMethod(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	if _, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{PaymentMethod: "upi"}); err != nil {
		t.Fatalf("place order: %v", err)
	}
	if f.repo.created[0].PaymentMethod != "upi" {
		t.Fatalf("expected upi payment method, got %q", f.repo.created[0].PaymentMethod)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := buildPlaceOrderFixture(t, nil, map[uuid.UUID]int{})

	_, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
	if len(f.repo.created) != 0 {
		t.Fatalf("expected no order to be created")
	}
}

func TestPlaceOrderMissingShipping(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	svc, err := NewService(ServiceParams{
		Tx:           stubTx{},
		Repo:         f.repo,
		CartRepo:     f.cartRepo,
		ShippingRepo: &stubShippingRepo{},
		Stock:        f.stock,
		Users:        &stubUserRepo{user: f.user},
		Mirror:       f.mirror,
		Logger:       testLogger(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing shipping, got %v", err)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	lines, levels := testCartLines()
	levels[lines[1].ProductID] = 0
	f := buildPlaceOrderFixture(t, lines, levels)

	_, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error for insufficient stock, got %v", err)
	}
	if f.cartRepo.cleared {
		t.Fatalf("cart must stay intact when placement fails")
	}
	if f.mirror.calls != 0 {
		t.Fatalf("mirror must not be called when placement fails")
	}
}

func TestPlaceOrderMirrorFailureStillSucceeds(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)
	f.mirror.err = errors.New("sheet unavailable")

	result, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	if err != nil {
		t.Fatalf("place order must survive mirror failure: %v", err)
	}
	if result.OrderID == uuid.Nil {
		t.Fatalf("expected order id")
	}
	if !f.cartRepo.cleared {
		t.Fatalf("expected cart to be cleared despite mirror failure")
	}
}

func TestPlaceOrderCartClearFailureStillSucceeds(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)
	f.cartRepo.clearErr = errors.New("db unavailable")

	result, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	if err != nil {
		t.Fatalf("place order must survive cart clear failure: %v", err)
	}
	if result == nil || result.OrderID == uuid.Nil {
		t.Fatalf("expected placed order to be returned")
	}
}

func TestPlaceOrderTwiceCreatesTwoOrders(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	first, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}
	second, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	if err != nil {
		t.Fatalf("second placement: %v", err)
	}

	if first.OrderID == second.OrderID {
		t.Fatalf("expected two distinct orders")
	}
	if len(f.repo.created) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(f.repo.created))
	}
}

func TestUpdateStatusNoChange(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	placed, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	result, err := f.svc.UpdateStatus(context.Background(), placed.OrderID, UpdateStatusRequest{Status: enums.OrderStatusPending})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.Changed {
		t.Fatalf("expected no-op for same status")
	}
	if _, ok := f.repo.updated[placed.OrderID]; ok {
		t.Fatalf("expected no write for same status")
	}

	result, err = f.svc.UpdateStatus(context.Background(), placed.OrderID, UpdateStatusRequest{Status: enums.OrderStatusShipped})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !result.Changed || result.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped status, got %+v", result)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), UpdateStatusRequest{Status: "returned"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), UpdateStatusRequest{Status: enums.OrderStatusShipped})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetForUserScopesOwnership(t *testing.T) {
	lines, levels := testCartLines()
	f := buildPlaceOrderFixture(t, lines, levels)

	placed, err := f.svc.PlaceOrder(context.Background(), f.user.ID, PlaceOrderRequest{})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	dto, err := f.svc.GetForUser(context.Background(), f.user.ID, placed.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if dto.ID != placed.OrderID {
		t.Fatalf("expected order %s, got %s", placed.OrderID, dto.ID)
	}

	_, err = f.svc.GetForUser(context.Background(), uuid.New(), placed.OrderID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}
}
