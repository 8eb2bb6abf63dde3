package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

type stubRepo struct {
	profile *models.ShippingProfile
	saved   *models.ShippingProfile
}

func (s *stubRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ShippingProfile, error) {
	if s.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.profile, nil
}

func (s *stubRepo) Upsert(ctx context.Context, profile *models.ShippingProfile) error {
	s.saved = profile
	return nil
}

func validSaveRequest() SaveRequest {
	return SaveRequest{
		FullName:     "Asha Patel",
		AddressLine1: "14 Market Road",
		AddressLine2: "Near Clock Tower",
		City:         "Pune",
		State:        "MH",
		ZipCode:      "411001",
		Phone:        "9123456780",
	}
}

func TestSaveRejectsMissingFields(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	req := validSaveRequest()
	req.City = ""
	_, err = svc.Save(context.Background(), uuid.New(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.saved != nil {
		t.Fatalf("invalid request must not be persisted")
	}
}

func TestSaveAllowsMissingLine3(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Save(context.Background(), uuid.New(), validSaveRequest())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if dto.AddressLine3 != nil {
		t.Fatalf("expected nil address_line3")
	}
	if repo.saved == nil || repo.saved.Address.City != "Pune" {
		t.Fatalf("expected profile persisted")
	}
}

func TestGetMissingProfile(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
