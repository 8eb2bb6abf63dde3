package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

type stubAdminRepo struct {
	byID    map[uuid.UUID]*models.Product
	created []*models.Product
	updated []*models.Product
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{byID: map[uuid.UUID]*models.Product{}}
}

func (s *stubAdminRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.byID[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAdminRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	s.created = append(s.created, product)
	s.byID[product.ID] = product
	return product, nil
}

func (s *stubAdminRepo) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.updated = append(s.updated, product)
	s.byID[product.ID] = product
	return product, nil
}

func TestAdminCreateProduct(t *testing.T) {
	repo := newStubAdminRepo()
	svc, err := NewAdminService(repo)
	if err != nil {
		t.Fatalf("new admin service: %v", err)
	}

	desc := "Fresh produce"
	dto, err := svc.Create(context.Background(), ProductUpsertRequest{
		Name:        "  Organic Tomatoes  ",
		Description: &desc,
		Price:       mustDecimal(t, "2.50"),
		Stock:       100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Name != "Organic Tomatoes" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if len(repo.created) != 1 || repo.created[0].Stock != 100 {
		t.Fatalf("unexpected created rows %+v", repo.created)
	}
}

func TestAdminCreateRejectsNegativePrice(t *testing.T) {
	svc, _ := NewAdminService(newStubAdminRepo())

	_, err := svc.Create(context.Background(), ProductUpsertRequest{
		Name:  "Eggs",
		Price: decimal.RequireFromString("-1"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminUpdateUnknownProduct(t *testing.T) {
	svc, _ := NewAdminService(newStubAdminRepo())

	_, err := svc.Update(context.Background(), uuid.New(), ProductUpsertRequest{
		Name:  "Eggs",
		Price: mustDecimal(t, "3.00"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdminUpdateOverwritesFields(t *testing.T) {
	repo := newStubAdminRepo()
	svc, _ := NewAdminService(repo)

	existing := &models.Product{ID: uuid.New(), Name: "Eggs", Price: mustDecimal(t, "3.00"), Stock: 5}
	repo.byID[existing.ID] = existing

	dto, err := svc.Update(context.Background(), existing.ID, ProductUpsertRequest{
		Name:  "Free Range Eggs",
		Price: mustDecimal(t, "4.25"),
		Stock: 12,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Name != "Free Range Eggs" || dto.Stock != 12 {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if !dto.Price.Equal(mustDecimal(t, "4.25")) {
		t.Fatalf("unexpected price %s", dto.Price)
	}
}

