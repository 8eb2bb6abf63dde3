package shipping

import (
	"time"

	"github.com/khetihal/khetihal-backend/pkg/db/models"
	"github.com/khetihal/khetihal-backend/pkg/types"
)

// SaveRequest is the shipping profile payload. AddressLine3 is the only
// optional field.
type SaveRequest struct {
	FullName     string  `json:"full_name" validate:"required"`
	AddressLine1 string  `json:"address_line1" validate:"required"`
	AddressLine2 string  `json:"address_line2" validate:"required"`
	AddressLine3 *string `json:"address_line3,omitempty"`
	City         string  `json:"city" validate:"required"`
	State        string  `json:"state" validate:"required"`
	ZipCode      string  `json:"zip_code" validate:"required"`
	Phone        string  `json:"phone" validate:"required"`
}

// ProfileDTO is the stored shipping profile returned to the client.
type ProfileDTO struct {
	types.ShippingAddress
	UpdatedAt time.Time `json:"updated_at"`
}

func (r SaveRequest) toAddress() types.ShippingAddress {
	return types.ShippingAddress{
		FullName:     r.FullName,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		AddressLine3: r.AddressLine3,
		City:         r.City,
		State:        r.State,
		ZipCode:      r.ZipCode,
		Phone:        r.Phone,
	}
}

func fromModel(p *models.ShippingProfile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		ShippingAddress: p.Address,
		UpdatedAt:       p.UpdatedAt,
	}
}
