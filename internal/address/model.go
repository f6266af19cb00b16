package address

import (
	"github.com/google/uuid"
)

type Address struct {
	ID           uuid.UUID
	BuyerID      *uint
	SessionToken *string

	Name  string
	Phone string
	Label *string

	Street  string
	Street2 *string

	City     string
	Province string
	Postal   string
	Country  string

	IsDefault bool
	IsActive  bool
}

type SaveAddressInput struct {
	// nil creates a new address, otherwise updates the identified one
	AddressID *uuid.UUID

	Name  string
	Phone string
	Label *string

	Street  string
	Street2 *string

	City     string
	Province string
	Postal   string
	Country  string

	SetAsDefault bool
}

// ShippabilityReport lists the cart products that cannot reach a
// destination. Any restricted product makes the whole cart unshippable.
type ShippabilityReport struct {
	CanShip                bool     `json:"can_ship"`
	RestrictedProductNames []string `json:"restricted_product_names,omitempty"`
}
