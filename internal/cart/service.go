package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

// Service defines the cart behavior needed by the controllers.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*QuantityResult, error)
	Adjust(ctx context.Context, userID uuid.UUID, req AdjustRequest) (*QuantityResult, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

type repository interface {
	FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Line, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     repository
	products productFinder
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	Repo     repository
	Products productFinder
}

// NewService constructs a cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	return &service{repo: params.Repo, products: params.Products}, nil
}

// AddItem merges the requested quantity into an existing line or creates one.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*QuantityResult, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.products.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	existing, err := s.repo.FindItem(ctx, userID, req.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}

	newQuantity := req.Quantity
	if existing != nil {
		newQuantity = existing.Quantity + req.Quantity
		if err := s.repo.SetQuantity(ctx, userID, req.ProductID, newQuantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
	} else {
		if err := s.repo.Create(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
		}
	}

	return &QuantityResult{ProductID: req.ProductID, NewQuantity: newQuantity}, nil
}

// Adjust bumps the line by one. Decreasing to zero removes the line.
func (s *service) Adjust(ctx context.Context, userID uuid.UUID, req AdjustRequest) (*QuantityResult, error) {
	if req.Change != "increase" && req.Change != "decrease" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change must be increase or decrease")
	}

	existing, err := s.repo.FindItem(ctx, userID, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}

	newQuantity := existing.Quantity
	if req.Change == "increase" {
		newQuantity++
	} else {
		newQuantity--
	}

	if newQuantity <= 0 {
		if _, err := s.repo.Delete(ctx, userID, req.ProductID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
		}
		return &QuantityResult{ProductID: req.ProductID, NewQuantity: 0}, nil
	}

	if err := s.repo.SetQuantity(ctx, userID, req.ProductID, newQuantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	return &QuantityResult{ProductID: req.ProductID, NewQuantity: newQuantity}, nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found in cart")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	lines, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}

	dto := &CartDTO{Items: make([]LineDTO, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		lineTotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		dto.Items = append(dto.Items, LineDTO{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			ImageURL:  line.ImageURL,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
		dto.Total = dto.Total.Add(lineTotal)
	}
	return dto, nil
}

func (s *service) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count cart")
	}
	return count, nil
}
