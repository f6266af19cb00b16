package api

import (
	"errors"
	"net/http"

	"lokapasar-be/internal/address"
	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/checkout"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/promo"
	"lokapasar-be/internal/shipping"
	"lokapasar-be/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// apiError is the uniform error body. Code is a stable machine-readable
// string; Step and Report appear only on checkout conflicts so the frontend
// knows which page to send the buyer back to.
type apiError struct {
	Code    string                       `json:"code"`
	Message string                       `json:"message"`
	Step    checkout.Step                `json:"step,omitempty"`
	Report  *checkout.RevalidationReport `json:"report,omitempty"`
}

func respondError(c *gin.Context, err error) {
	var incomplete *checkout.IncompleteStateError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusConflict, gin.H{"error": apiError{
			Code:    "IncompleteCheckoutState",
			Message: err.Error(),
			Step:    incomplete.Step,
		}})
		return
	}

	var reval *checkout.RevalidationError
	if errors.As(err, &reval) {
		c.JSON(http.StatusConflict, gin.H{"error": apiError{
			Code:    "RevalidationFailed",
			Message: err.Error(),
			Report:  reval.Report,
		}})
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed", zap.Error(err))
		// internal detail stays out of the response
		c.JSON(status, gin.H{"error": apiError{Code: code, Message: "internal server error"}})
		return
	}

	c.JSON(status, gin.H{"error": apiError{Code: code, Message: err.Error()}})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": apiError{
		Code:    "InvalidInput",
		Message: message,
	}})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, address.ErrInvalidInput),
		errors.Is(err, shipping.ErrAddressRequired):
		return http.StatusBadRequest, "InvalidInput"

	case errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, promo.ErrNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, "NotFound"

	case errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, order.ErrStockConflict):
		return http.StatusConflict, "InsufficientStock"

	case errors.Is(err, cart.ErrCartEmpty),
		errors.Is(err, shipping.ErrEmptyCart):
		return http.StatusConflict, "CartEmpty"

	case errors.Is(err, order.ErrNotCancelable):
		return http.StatusConflict, "NotCancelable"

	case errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrMinimumNotMet),
		errors.Is(err, promo.ErrUsageCapExceeded),
		errors.Is(err, promo.ErrNotApplicable),
		errors.Is(err, promo.ErrNoPromoApplied):
		return http.StatusUnprocessableEntity, "InvalidPromo"

	case errors.Is(err, checkout.ErrAddressNotShippable):
		return http.StatusUnprocessableEntity, "AddressNotShippable"

	case errors.Is(err, shipping.ErrIncompleteSelection),
		errors.Is(err, shipping.ErrMethodNotOffered):
		return http.StatusUnprocessableEntity, "InvalidShippingSelection"

	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity, "InvalidPaymentMethod"

	case errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict, "EmailExists"

	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, "InvalidCredentials"

	case errors.Is(err, address.ErrUnauthorized),
		errors.Is(err, order.ErrUnauthorized):
		return http.StatusForbidden, "Forbidden"
	}

	return http.StatusInternalServerError, "Internal"
}
