package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
)

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		Name:  fmt.Sprintf("Test Product %s", uuid.NewString()),
		Price: decimal.NewFromFloat(2.50),
		Stock: stock,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestDecrementStockConditional(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	product := mustCreateTestProduct(t, tx, 5)
	ctx := context.Background()

	affected, err := repo.DecrementStock(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	updated, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if updated.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", updated.Stock)
	}

	affected, err = repo.DecrementStock(ctx, product.ID, 3)
	if err != nil {
		t.Fatalf("decrement past stock: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows when stock insufficient, got %d", affected)
	}

	updated, err = repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload after failed decrement: %v", err)
	}
	if updated.Stock != 2 {
		t.Fatalf("stock must be unchanged after failed decrement, got %d", updated.Stock)
	}
}

func TestListFiltersByQuery(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	ctx := context.Background()

	needle := uuid.NewString()
	match := &models.Product{
		ID:    uuid.New(),
		Name:  fmt.Sprintf("Heirloom %s Beans", needle),
		Price: decimal.NewFromFloat(1.20),
		Stock: 10,
	}
	if err := tx.Create(match).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	mustCreateTestProduct(t, tx, 10)

	rows, err := repo.List(ctx, ListInput{Filters: ListFilters{Query: needle}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != match.ID {
		t.Fatalf("expected only matching product, got %d rows", len(rows))
	}
}
