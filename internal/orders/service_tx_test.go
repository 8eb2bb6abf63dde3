package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/internal/cart"
	"github.com/khetihal/khetihal-backend/internal/catalog"
	"github.com/khetihal/khetihal-backend/pkg/config"
	"github.com/khetihal/khetihal-backend/pkg/db"
	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

// setupCheckoutDB boots a real db.Client over in-memory sqlite so PlaceOrder
// runs through Client.WithTx instead of a stub. Each test gets its own named
// database to keep row-count assertions isolated.
func setupCheckoutDB(t *testing.T, name string) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(),
		config.DBConfig{DSN: "file:" + name + "?mode=memory&cache=shared"},
		config.FeatureFlagsConfig{UseSQLite: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	conn := client.DB()
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_date DATETIME,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  full_name TEXT NOT NULL,
  address_line1 TEXT NOT NULL,
  address_line2 TEXT NOT NULL,
  address_line3 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  zip_code TEXT NOT NULL,
  phone TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (order_id, product_id)
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  image_url TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return client
}

// clientIDRepo assigns order ids client-side; sqlite has no gen_random_uuid.
type clientIDRepo struct {
	Repository
}

func (r clientIDRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.Repository.Create(ctx, order)
}

func (r clientIDRepo) WithTx(tx *gorm.DB) Repository {
	return clientIDRepo{Repository: r.Repository.WithTx(tx)}
}

// failingItemsRepo breaks the transaction between the order insert and the
// line insert.
type failingItemsRepo struct {
	Repository
	itemsErr error
}

func (r failingItemsRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return r.itemsErr
}

func (r failingItemsRepo) WithTx(tx *gorm.DB) Repository {
	return failingItemsRepo{Repository: r.Repository.WithTx(tx), itemsErr: r.itemsErr}
}

func seedCheckoutProducts(t *testing.T, conn *gorm.DB, lines []cart.Line, levels map[uuid.UUID]int) {
	t.Helper()
	for _, line := range lines {
		product := models.Product{ID: line.ProductID, Name: line.Name, Price: line.Price, Stock: levels[line.ProductID]}
		require.NoError(t, conn.Create(&product).Error)
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(model).Count(&count).Error)
	return count
}

func TestPlaceOrderRollsBackWhenItemInsertFails(t *testing.T) {
	client := setupCheckoutDB(t, "orders_item_insert_rollback")
	conn := client.DB()

	lines, levels := testCartLines()
	user := &models.User{ID: uuid.New(), Username: "shopper", Email: "shopper@example.com"}

	repo := failingItemsRepo{
		Repository: clientIDRepo{Repository: NewRepository(conn)},
		itemsErr:   errors.New("order_items insert failed"),
	}
	svc, err := NewService(ServiceParams{
		Tx:           client,
		Repo:         repo,
		CartRepo:     &stubCartRepo{lines: lines},
		ShippingRepo: &stubShippingRepo{profile: &models.ShippingProfile{UserID: user.ID, Address: testAddress()}},
		Stock:        &stubStock{levels: levels},
		Users:        &stubUserRepo{user: user},
		Logger:       testLogger(),
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), user.ID, PlaceOrderRequest{})
	require.Error(t, err)

	assert.Zero(t, countRows(t, conn, &models.Order{}))
	assert.Zero(t, countRows(t, conn, &models.OrderItem{}))
}

func TestPlaceOrderRollsBackWhenStockRunsOut(t *testing.T) {
	client := setupCheckoutDB(t, "orders_stock_rollback")
	conn := client.DB()

	lines, levels := testCartLines()
	levels[lines[1].ProductID] = 0
	user := &models.User{ID: uuid.New(), Username: "shopper", Email: "shopper@example.com"}

	seedCheckoutProducts(t, conn, lines, levels)

	svc, err := NewService(ServiceParams{
		Tx:           client,
		Repo:         clientIDRepo{Repository: NewRepository(conn)},
		CartRepo:     &stubCartRepo{lines: lines},
		ShippingRepo: &stubShippingRepo{profile: &models.ShippingProfile{UserID: user.ID, Address: testAddress()}},
		CatalogRepo:  catalog.NewRepository(conn),
		Users:        &stubUserRepo{user: user},
		Logger:       testLogger(),
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), user.ID, PlaceOrderRequest{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	assert.Zero(t, countRows(t, conn, &models.Order{}))
	assert.Zero(t, countRows(t, conn, &models.OrderItem{}))

	var first models.Product
	require.NoError(t, conn.First(&first, "id = ?", lines[0].ProductID).Error)
	assert.Equal(t, 100, first.Stock)
}
