package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

type stubRepo struct {
	items map[uuid.UUID]*models.CartItem
	lines []Line
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: make(map[uuid.UUID]*models.CartItem)}
}

func (s *stubRepo) FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubRepo) Create(ctx context.Context, item *models.CartItem) error {
	s.items[item.ProductID] = item
	return nil
}

func (s *stubRepo) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if item, ok := s.items[productID]; ok {
		item.Quantity = quantity
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if _, ok := s.items[productID]; !ok {
		return false, nil
	}
	delete(s.items, productID)
	return true, nil
}

func (s *stubRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	return s.lines, nil
}

func (s *stubRepo) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	for _, item := range s.items {
		total += int64(item.Quantity)
	}
	return total, nil
}

type stubProductFinder struct {
	known map[uuid.UUID]*models.Product
}

func (s stubProductFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.known[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func buildCartService(t *testing.T, repo *stubRepo, products map[uuid.UUID]*models.Product) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Products: stubProductFinder{known: products},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddItemMergesQuantities(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	repo := newStubRepo()
	svc := buildCartService(t, repo, map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Organic Tomatoes"},
	})

	first, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: productID, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.NewQuantity != 2 {
		t.Fatalf("expected quantity 2, got %d", first.NewQuantity)
	}

	second, err := svc.AddItem(context.Background(), userID, AddItemRequest{ProductID: productID, Quantity: 3})
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if second.NewQuantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", second.NewQuantity)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(repo.items))
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc := buildCartService(t, newStubRepo(), nil)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdjustDecreaseRemovesAtZero(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	repo := newStubRepo()
	repo.items[productID] = &models.CartItem{UserID: userID, ProductID: productID, Quantity: 1}
	svc := buildCartService(t, repo, nil)

	result, err := svc.Adjust(context.Background(), userID, AdjustRequest{ProductID: productID, Change: "decrease"})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if result.NewQuantity != 0 {
		t.Fatalf("expected quantity 0, got %d", result.NewQuantity)
	}
	if len(repo.items) != 0 {
		t.Fatalf("expected line removed")
	}
}

func TestAdjustMissingLine(t *testing.T) {
	svc := buildCartService(t, newStubRepo(), nil)

	_, err := svc.Adjust(context.Background(), uuid.New(), AdjustRequest{ProductID: uuid.New(), Change: "increase"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveMissingLine(t *testing.T) {
	svc := buildCartService(t, newStubRepo(), nil)

	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListComputesTotals(t *testing.T) {
	repo := newStubRepo()
	repo.lines = []Line{
		{ProductID: uuid.New(), Name: "Organic Tomatoes", Price: decimal.NewFromFloat(2.50), Quantity: 2},
		{ProductID: uuid.New(), Name: "Farm Fresh Eggs", Price: decimal.NewFromFloat(3.00), Quantity: 1},
	}
	svc := buildCartService(t, repo, nil)

	dto, err := svc.List(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(dto.Items))
	}
	if !dto.Total.Equal(decimal.NewFromFloat(8.00)) {
		t.Fatalf("expected total 8.00, got %s", dto.Total)
	}
	if !dto.Items[0].LineTotal.Equal(decimal.NewFromFloat(5.00)) {
		t.Fatalf("expected line total 5.00, got %s", dto.Items[0].LineTotal)
	}
}
