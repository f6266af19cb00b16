package promo

import "errors"

// Application failures map one-to-one to the reasons shown to the buyer.
// A code is applied fully or not at all.
var (
	ErrNotFound         = errors.New("promo code not found")
	ErrExpired          = errors.New("promo code expired")
	ErrMinimumNotMet    = errors.New("cart subtotal below promo minimum")
	ErrUsageCapExceeded = errors.New("promo usage cap exceeded")
	ErrNotApplicable    = errors.New("promo not applicable to cart contents")

	ErrNoPromoApplied = errors.New("no promo code applied")
)
