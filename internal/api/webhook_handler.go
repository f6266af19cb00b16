package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type webhookHandler struct {
	orders   order.Service
	payments payment.Repository
	gateway  payment.Gateway
}

// webhookPayload is the JSON the provider sends on payment events.
type webhookPayload struct {
	ID         string  `json:"id"`
	Event      string  `json:"event"`
	ExternalID string  `json:"external_id"`
	Status     string  `json:"status"`
	Amount     float64 `json:"amount"`
	PaidAt     string  `json:"paid_at,omitempty"`
}

// HandleXendit processes payment callbacks. Events are stored first for
// idempotency: a redelivered event id is acknowledged without touching the
// order again.
func (h *webhookHandler) HandleXendit(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "XenditWebhook"))

	sigErr := h.gateway.VerifySignature(c.Request)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBadRequest(c, "failed to read body")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondBadRequest(c, "invalid JSON payload")
		return
	}

	webhookID, duplicate, err := h.payments.SaveWebhook(
		ctx, "XENDIT", payload.ID, payload.Event, payload.ExternalID,
		json.RawMessage(body), sigErr == nil,
	)
	if err != nil {
		log.Error("failed to store webhook", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	if duplicate {
		log.Info("duplicate webhook acknowledged", zap.String("event_id", payload.ID))
		c.Status(http.StatusOK)
		return
	}

	if sigErr != nil {
		log.Warn("webhook signature rejected", zap.Error(sigErr))
		_ = h.payments.MarkWebhookFailed(ctx, webhookID, "invalid signature")
		c.Status(http.StatusUnauthorized)
		return
	}

	log.Info("webhook received",
		zap.String("event_id", payload.ID),
		zap.String("external_id", payload.ExternalID),
		zap.String("status", payload.Status),
	)

	o, err := h.orders.GetByNumber(ctx, payload.ExternalID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			// acknowledged so the provider stops retrying; the stored event
			// keeps the mismatch diagnosable
			log.Warn("webhook references unknown order")
			_ = h.payments.MarkWebhookFailed(ctx, webhookID, "unknown order")
			c.Status(http.StatusOK)
			return
		}
		log.Error("failed to load order for webhook", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}

	if payload.Amount > 0 && !o.Total.Round(0).Equal(decimal.NewFromFloat(payload.Amount).Round(0)) {
		log.Warn("webhook amount does not match order total",
			zap.Float64("webhook_amount", payload.Amount),
			zap.String("order_total", o.Total.String()),
		)
		_ = h.payments.MarkWebhookFailed(ctx, webhookID, "amount mismatch")
		c.Status(http.StatusOK)
		return
	}

	switch payload.Status {
	case "PAID", "SUCCEEDED":
		err = h.orders.MarkPaid(ctx, payload.ExternalID)
	case "EXPIRED", "FAILED":
		err = h.orders.MarkFailed(ctx, payload.ExternalID)
	default:
		// other statuses are stored but not acted on
		_ = h.payments.MarkWebhookProcessed(ctx, webhookID)
		c.Status(http.StatusOK)
		return
	}

	if err != nil {
		log.Error("failed to update order from webhook", zap.Error(err))
		_ = h.payments.MarkWebhookFailed(ctx, webhookID, err.Error())
		c.Status(http.StatusInternalServerError)
		return
	}

	if err := h.payments.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}

	c.String(http.StatusOK, "ok")
}
