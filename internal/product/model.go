package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type Product struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	SellerID   uuid.UUID       `json:"seller_id"`
	SellerName string          `json:"seller_name"`
	CategoryID uuid.UUID       `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Status     string          `json:"status"`
	ImageURL   *string         `json:"image_url,omitempty"`
}

// Pricing is the fresh stock/price pair read immediately before payment.
type Pricing struct {
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	Stock     int
}

type GetOptions struct {
	ProductID  uuid.UUID
	OnlyActive bool
}
