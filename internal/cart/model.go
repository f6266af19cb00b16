package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Item struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	CapturedPrice decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Line is one cart row joined with current product data. UnitPrice is the
// price right now; CapturedPrice is the price when the item entered the cart.
// Totals always use UnitPrice, the captured value only feeds the price-drift
// check at order placement.
type Line struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	SellerID      uuid.UUID       `json:"seller_id"`
	SellerName    string          `json:"seller_name"`
	CategoryID    uuid.UUID       `json:"category_id"`
	ImageURL      *string         `json:"image_url,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CapturedPrice decimal.Decimal `json:"captured_price"`
	Stock         int             `json:"stock"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

type SellerGroup struct {
	SellerID   uuid.UUID       `json:"seller_id"`
	SellerName string          `json:"seller_name"`
	Lines      []Line          `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Snapshot is the derived view of a cart. Nothing in it is persisted: seller
// subtotals and the item subtotal are recomputed from current product prices
// on every read.
type Snapshot struct {
	Groups        []SellerGroup   `json:"groups"`
	ItemSubtotal  decimal.Decimal `json:"item_subtotal"`
	TotalQuantity int             `json:"total_quantity"`
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Groups) == 0
}

func (s *Snapshot) ProductIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, g := range s.Groups {
		for _, l := range g.Lines {
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

func (s *Snapshot) SellerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Groups))
	for _, g := range s.Groups {
		ids = append(ids, g.SellerID)
	}
	return ids
}

func (s *Snapshot) Lines() []Line {
	var lines []Line
	for _, g := range s.Groups {
		lines = append(lines, g.Lines...)
	}
	return lines
}

type AddItemParams struct {
	ProductID uuid.UUID
	Quantity  int
}

type UpdateQuantityParams struct {
	ProductID uuid.UUID
	Quantity  int
}
