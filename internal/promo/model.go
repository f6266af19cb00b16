package promo

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	KindPercent DiscountKind = "PERCENT"
	KindFixed   DiscountKind = "FIXED"
)

type Code struct {
	ID          uuid.UUID
	Code        string
	Description string

	Kind  DiscountKind
	Value decimal.Decimal

	MinSubtotal      decimal.Decimal
	EligibleCategory *uuid.UUID

	StartsAt time.Time
	EndsAt   time.Time

	// 0 means unlimited
	MaxUsesTotal    int
	MaxUsesPerBuyer int

	Active bool
}

// InWindow reports whether the validity window contains t.
func (c *Code) InWindow(t time.Time) bool {
	return !t.Before(c.StartsAt) && !t.After(c.EndsAt)
}

// DiscountFor computes the point-in-time discount against a subtotal. A fixed
// discount never exceeds the subtotal.
func (c *Code) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Kind {
	case KindPercent:
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	case KindFixed:
		if c.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return c.Value
	default:
		return decimal.Zero
	}
}

// Applied is the promo as carried on a cart: the stored code plus the
// discount recomputed against the current subtotal.
type Applied struct {
	ID          uuid.UUID       `json:"-"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Discount    decimal.Decimal `json:"discount"`
}
