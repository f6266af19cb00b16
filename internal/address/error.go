package address

import "errors"

var (
	ErrNotFound     = errors.New("address not found")
	ErrInvalidInput = errors.New("invalid address input")
	ErrNotShippable = errors.New("cart contents cannot ship to this address")
	ErrUnauthorized = errors.New("address does not belong to this identity")
)
