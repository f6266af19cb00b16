package shipping

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method is one way a seller can ship to a destination. Cost already
// includes any destination surcharge.
type Method struct {
	ID       uuid.UUID       `json:"id"`
	SellerID uuid.UUID       `json:"seller_id"`
	Carrier  string          `json:"carrier"`
	Name     string          `json:"name"`
	Cost     decimal.Decimal `json:"cost"`
	ETADays  int             `json:"eta_days"`
}

// SellerOptions groups the offered methods for one seller in the cart.
// Every seller group needs exactly one selection before checkout proceeds.
type SellerOptions struct {
	SellerID   uuid.UUID `json:"seller_id"`
	SellerName string    `json:"seller_name"`
	Methods    []Method  `json:"methods"`
}

// Selections maps seller id to the chosen method id.
type Selections map[uuid.UUID]uuid.UUID

// SellerFee is a re-resolved selection with its current cost, used when the
// payment step recomputes amounts instead of trusting session state.
type SellerFee struct {
	SellerID uuid.UUID
	MethodID uuid.UUID
	Carrier  string
	Name     string
	Cost     decimal.Decimal
}
