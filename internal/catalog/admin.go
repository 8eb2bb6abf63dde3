package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db"
	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

// ProductUpsertRequest carries the writable product fields for the admin CRUD
// endpoints.
type ProductUpsertRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// AdminService exposes the back-office write surface of the catalog. Local
// products are never hard-deleted; removal is only exposed on the sheet
// mirror copy.
type AdminService interface {
	Create(ctx context.Context, req ProductUpsertRequest) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, req ProductUpsertRequest) (*ProductDTO, error)
}

type adminRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
}

type adminService struct {
	repo adminRepository
}

// NewAdminService constructs the catalog write service.
func NewAdminService(repo adminRepository) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &adminService{repo: repo}, nil
}

func (s *adminService) Create(ctx context.Context, req ProductUpsertRequest) (*ProductDTO, error) {
	product, err := buildProduct(req)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	dto := FromModel(created)
	return &dto, nil
}

func (s *adminService) Update(ctx context.Context, id uuid.UUID, req ProductUpsertRequest) (*ProductDTO, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	fields, err := buildProduct(req)
	if err != nil {
		return nil, err
	}
	existing.Name = fields.Name
	existing.Description = fields.Description
	existing.Price = fields.Price
	existing.ImageURL = fields.ImageURL
	existing.Stock = fields.Stock

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	dto := FromModel(updated)
	return &dto, nil
}

func buildProduct(req ProductUpsertRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return &models.Product{
		Name:        name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}, nil
}
