package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

// Service defines the shipping profile behavior needed by the controllers.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Save(ctx context.Context, userID uuid.UUID, req SaveRequest) (*ProfileDTO, error)
}

type repository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ShippingProfile, error)
	Upsert(ctx context.Context, profile *models.ShippingProfile) error
}

type service struct {
	repo repository
}

// NewService constructs a shipping profile service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shipping info saved")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipping profile")
	}
	return fromModel(profile), nil
}

func (s *service) Save(ctx context.Context, userID uuid.UUID, req SaveRequest) (*ProfileDTO, error) {
	if err := validateRequired(req); err != nil {
		return nil, err
	}

	profile := &models.ShippingProfile{
		UserID:  userID,
		Address: req.toAddress(),
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save shipping profile")
	}
	return fromModel(profile), nil
}

func validateRequired(req SaveRequest) error {
	required := map[string]string{
		"full_name":     req.FullName,
		"address_line1": req.AddressLine1,
		"address_line2": req.AddressLine2,
		"city":          req.City,
		"state":         req.State,
		"zip_code":      req.ZipCode,
		"phone":         req.Phone,
	}
	missing := []string{}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "all required shipping fields must be filled").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}
