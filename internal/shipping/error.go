package shipping

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrIncompleteSelection = errors.New("every seller group needs a shipping selection")
	ErrMethodNotOffered    = errors.New("shipping method not offered for this seller")
	ErrAddressRequired     = errors.New("delivery address must be chosen first")
)
