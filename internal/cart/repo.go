package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
)

// Line is one cart row joined with its product.
type Line struct {
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	ImageURL  *string
	Quantity  int
}

// Repository exposes cart persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindItem loads one cart line for the (user, product) pair.
func (r *Repository) FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new cart line.
func (r *Repository) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SetQuantity overwrites the quantity of an existing line.
func (r *Repository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		UpdateColumn("quantity", quantity).Error
}

// Delete removes the line and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListForUser returns the user's cart joined with live product data.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).
		Table("cart_items ci").
		Select("ci.product_id, ci.quantity, p.name, p.price, p.image_url").
		Joins("JOIN products p ON ci.product_id = p.id").
		Where("ci.user_id = ?", userID).
		Order("ci.created_at ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ClearForUser drops every cart line belonging to the user.
func (r *Repository) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// Count sums the quantities across the user's cart.
func (r *Repository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("SUM(quantity)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
