package api

import (
	"net/http"

	"lokapasar-be/internal/checkout"
	"lokapasar-be/internal/shipping"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type checkoutHandler struct {
	checkouts checkout.Service
	shipments shipping.Service
}

type checkoutStateView struct {
	Step  checkout.Step   `json:"step"`
	State *checkout.State `json:"state,omitempty"`
}

func (h *checkoutHandler) GetState(c *gin.Context) {
	st, step, err := h.checkouts.GetState(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutStateView{Step: step, State: st})
}

type setAddressRequest struct {
	AddressID uuid.UUID `json:"address_id" binding:"required"`
}

func (h *checkoutHandler) SetAddress(c *gin.Context) {
	var req setAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.checkouts.SetAddress(c.Request.Context(), identityFrom(c), req.AddressID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ShippingOptions lists each seller group's offered methods for the address
// already pinned on the checkout state.
func (h *checkoutHandler) ShippingOptions(c *gin.Context) {
	id := identityFrom(c)

	st, step, err := h.checkouts.GetState(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if step == checkout.StepAddress {
		respondError(c, &checkout.IncompleteStateError{Step: checkout.StepAddress})
		return
	}

	options, err := h.shipments.GetOptions(c.Request.Context(), id, *st.AddressID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, options)
}

type selectShippingRequest struct {
	// seller id -> chosen method id
	Selections map[uuid.UUID]uuid.UUID `json:"selections" binding:"required"`
}

func (h *checkoutHandler) SelectShipping(c *gin.Context) {
	var req selectShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	id := identityFrom(c)
	st, step, err := h.checkouts.GetState(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if step == checkout.StepAddress {
		respondError(c, &checkout.IncompleteStateError{Step: checkout.StepAddress})
		return
	}

	err = h.shipments.Select(c.Request.Context(), id, *st.AddressID, shipping.Selections(req.Selections))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type setPaymentMethodRequest struct {
	Method string `json:"method" binding:"required"`
}

func (h *checkoutHandler) SetPaymentMethod(c *gin.Context) {
	var req setPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.checkouts.SetPaymentMethod(c.Request.Context(), identityFrom(c), req.Method); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *checkoutHandler) Revalidate(c *gin.Context) {
	report, err := h.checkouts.Revalidate(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type placeOrderRequest struct {
	BuyerName     string  `json:"buyer_name" binding:"required"`
	BuyerEmail    *string `json:"buyer_email"`
	BuyerPhone    string  `json:"buyer_phone" binding:"required"`
	PaymentMethod string  `json:"payment_method"`
}

type placeOrderResponse struct {
	OrderID     uuid.UUID             `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	Status      string                `json:"status"`
	Total       string                `json:"total"`
	Payment     *checkout.PaymentInfo `json:"payment,omitempty"`
}

func (h *checkoutHandler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.checkouts.PlaceOrder(c.Request.Context(), identityFrom(c), checkout.PlaceOrderInput{
		BuyerName:     req.BuyerName,
		BuyerEmail:    req.BuyerEmail,
		BuyerPhone:    req.BuyerPhone,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, placeOrderResponse{
		OrderID:     result.Order.ID,
		OrderNumber: result.Order.OrderNumber,
		Status:      string(result.Order.Status),
		Total:       result.Order.Total.StringFixed(2),
		Payment:     result.Payment,
	})
}
