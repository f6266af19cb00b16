package cart

import "errors"

var (
	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("invalid cart quantity")
	ErrProductNotFound = errors.New("product not found")

	// -- Resource State --
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrCartEmpty         = errors.New("cart is empty")

	// -- Database & Operation Failures --
	ErrFailedGetCartRows = errors.New("failed to get cart rows")
	ErrFailedUpdateCart  = errors.New("failed to update cart item")

	// -- Constants (External Systems) --
	PgUniqueViolation = "23505"
)
