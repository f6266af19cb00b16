package checkout

import (
	"time"

	"lokapasar-be/internal/shipping"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Step is the furthest page the buyer may be on. It is derived from the
// stored state, never stored itself.
type Step string

const (
	StepAddress  Step = "ADDRESS"
	StepShipping Step = "SHIPPING"
	StepPayment  Step = "PAYMENT"
)

// State is the buyer's in-progress checkout: the chosen address, the
// per-seller shipping selections and the payment method. One row per
// identity; totals are never stored here.
type State struct {
	BuyerID      *uint
	SessionToken *string

	AddressID     *uuid.UUID
	Selections    shipping.Selections
	PaymentMethod *string

	UpdatedAt time.Time
}

// CurrentStep reports the first step whose input is still missing.
func (s *State) CurrentStep() Step {
	if s == nil || s.AddressID == nil {
		return StepAddress
	}
	if len(s.Selections) == 0 {
		return StepShipping
	}
	return StepPayment
}

// RevalidationLine reports one cart line checked against live stock and
// pricing just before placement.
type RevalidationLine struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Requested     int             `json:"requested"`
	Available     int             `json:"available"`
	CapturedPrice decimal.Decimal `json:"captured_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StockIssue    bool            `json:"stock_issue"`
	PriceChanged  bool            `json:"price_changed"`
}

type RevalidationReport struct {
	HasStockIssues  bool               `json:"has_stock_issues"`
	HasPriceChanges bool               `json:"has_price_changes"`
	Lines           []RevalidationLine `json:"lines"`
}

func (r *RevalidationReport) Clean() bool {
	return !r.HasStockIssues && !r.HasPriceChanges
}

type PlaceOrderInput struct {
	BuyerName     string
	BuyerEmail    *string
	BuyerPhone    string
	PaymentMethod string
}

// PaymentInfo is what the buyer needs to settle a non-COD order: a redirect
// URL or a payment code, plus channel instructions.
type PaymentInfo struct {
	InvoiceURL   string     `json:"invoice_url,omitempty"`
	PaymentCode  string     `json:"payment_code,omitempty"`
	Instructions []string   `json:"instructions"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}
