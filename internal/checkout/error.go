package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrAddressNotShippable  = errors.New("address cannot receive every item in the cart")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
)

// IncompleteStateError is returned when a later step is attempted before an
// earlier one is done. Step names the page the buyer must return to.
type IncompleteStateError struct {
	Step Step
}

func (e *IncompleteStateError) Error() string {
	return fmt.Sprintf("checkout state incomplete, return to step %s", e.Step)
}

// RevalidationError carries the pre-placement report when stock or pricing
// moved under the buyer.
type RevalidationError struct {
	Report *RevalidationReport
}

func (e *RevalidationError) Error() string {
	switch {
	case e.Report.HasStockIssues && e.Report.HasPriceChanges:
		return "stock and prices changed since the cart was built"
	case e.Report.HasStockIssues:
		return "insufficient stock for one or more cart lines"
	default:
		return "prices changed since the cart was built"
	}
}
