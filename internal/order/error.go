package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrStockConflict = errors.New("insufficient stock at placement")
	ErrUnauthorized  = errors.New("unauthorized")

	// only orders still waiting on payment can be canceled by the buyer
	ErrNotCancelable = errors.New("order is not awaiting payment")
)
