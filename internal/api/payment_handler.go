package api

import (
	"context"
	"net/http"
	"time"

	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type paymentHandler struct {
	orders   order.Service
	payments payment.Repository
	gateway  payment.Gateway
}

type paymentStatusResponse struct {
	OrderNumber   string     `json:"order_number"`
	OrderStatus   string     `json:"order_status"`
	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	InvoiceURL    string     `json:"invoice_url,omitempty"`
	PaymentCode   string     `json:"payment_code,omitempty"`
	Instructions  []string   `json:"instructions,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Status returns the pending payment for an order so the buyer can re-open
// the instructions page. While the payment is not settled it also polls the
// provider, so a missed webhook does not strand the order.
func (h *paymentHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	o, p, err := h.loadOwnedPayment(c)
	if err != nil {
		respondError(c, err)
		return
	}

	status := p.Status
	if !settled(status) {
		if fresh, err := h.gateway.GetPaymentStatus(ctx, p.ExternalReference); err == nil {
			status = h.reconcile(ctx, o, p, fresh.Status)
		} else {
			logger.FromCtx(ctx).Warn("payment status poll failed",
				zap.String("external_reference", p.ExternalReference),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusOK, paymentStatusResponse{
		OrderNumber:   o.OrderNumber,
		OrderStatus:   string(o.Status),
		PaymentMethod: p.PaymentMethod,
		PaymentStatus: status,
		InvoiceURL:    p.InvoiceURL,
		PaymentCode:   p.PaymentCode,
		Instructions: payment.InjectVariables(
			payment.GetInstructions(p.PaymentMethod),
			payment.InstructionVars{
				"amount":       payment.FormatIDR(p.Amount),
				"payment_code": p.PaymentCode,
			},
		),
		ExpiresAt: p.ExpireAt,
	})
}

// Cancel voids a pending invoice and marks the order canceled. Only orders
// still waiting on payment qualify.
func (h *paymentHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	o, p, err := h.loadOwnedPayment(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if o.Status != order.StatusPendingPayment {
		respondError(c, order.ErrNotCancelable)
		return
	}

	if err := h.gateway.CancelPayment(ctx, p.ExternalReference); err != nil {
		// the invoice may already be expired on the provider side; canceling
		// the order locally is still the right outcome
		logger.FromCtx(ctx).Warn("provider cancel failed",
			zap.String("external_reference", p.ExternalReference),
			zap.Error(err),
		)
	}

	if err := h.orders.MarkCanceled(ctx, o.OrderNumber); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_number": o.OrderNumber,
		"status":       string(order.StatusCanceled),
	})
}

func (h *paymentHandler) loadOwnedPayment(c *gin.Context) (*order.Order, *payment.Payment, error) {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return nil, nil, order.ErrOrderNotFound
	}

	o, err := h.orders.GetDetail(c.Request.Context(), identityFrom(c), orderID)
	if err != nil {
		return nil, nil, err
	}

	p, err := h.payments.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		return nil, nil, err
	}

	return o, p, nil
}

// reconcile folds a freshly polled provider status into local state and
// returns the status to report. Terminal transitions go through the order
// service so orders and payments move together, same as the webhook path.
func (h *paymentHandler) reconcile(ctx context.Context, o *order.Order, p *payment.Payment, fresh string) string {
	if fresh == "" || fresh == p.Status {
		return p.Status
	}

	log := logger.FromCtx(ctx).With(
		zap.String("order_number", o.OrderNumber),
		zap.String("from", p.Status),
		zap.String("to", fresh),
	)

	var err error
	switch fresh {
	case "PAID", "SETTLED", "SUCCEEDED":
		err = h.orders.MarkPaid(ctx, o.OrderNumber)
		o.Status = order.StatusPaid
	case "EXPIRED", "FAILED":
		err = h.orders.MarkFailed(ctx, o.OrderNumber)
		o.Status = order.StatusFailed
	default:
		err = h.payments.UpdateStatusByReference(ctx, p.ExternalReference, fresh)
	}
	if err != nil {
		log.Error("failed to reconcile payment status", zap.Error(err))
		return p.Status
	}

	log.Info("payment status reconciled from poll")
	return fresh
}

func settled(status string) bool {
	switch status {
	case "PAID", "SETTLED", "SUCCEEDED", "EXPIRED", "FAILED", "CANCELED":
		return true
	}
	return false
}
