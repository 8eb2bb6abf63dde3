package types

// ShippingAddress carries the postal fields captured for a shipping profile and
// copied verbatim onto orders at purchase time. AddressLine3 is the only
// optional field.
type ShippingAddress struct {
	FullName     string  `gorm:"column:full_name;not null" json:"full_name"`
	AddressLine1 string  `gorm:"column:address_line1;not null" json:"address_line1"`
	AddressLine2 string  `gorm:"column:address_line2;not null" json:"address_line2"`
	AddressLine3 *string `gorm:"column:address_line3" json:"address_line3,omitempty"`
	City         string  `gorm:"column:city;not null" json:"city"`
	State        string  `gorm:"column:state;not null" json:"state"`
	ZipCode      string  `gorm:"column:zip_code;not null" json:"zip_code"`
	Phone        string  `gorm:"column:phone;not null" json:"phone"`
}
