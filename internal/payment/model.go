package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID                uint
	OrderID           uuid.UUID
	ExternalReference string
	ProviderPaymentID string
	InvoiceURL        string
	Amount            decimal.Decimal
	Status            string
	PaymentMethod     string
	ChannelCode       string
	PaymentCode       string
	ExpireAt          *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BuyerInfo is the customer detail forwarded to the provider. Email is
// optional for guest checkouts.
type BuyerInfo struct {
	Name  string
	Email *string
	Phone string
}

type InvoiceItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type PaymentResponse struct {
	ProviderPaymentID string
	ReferenceID       string
	Amount            decimal.Decimal
	Status            string
	PaymentMethod     ChannelCode
	PaymentCode       string
	InvoiceURL        string
	ChannelCode       string
	ExpirationTime    time.Time
	RawResponse       *json.RawMessage
}

type PaymentStatus struct {
	Status string
	PaidAt *time.Time
}

type ChannelCode string

type xenditPaymentResponse struct {
	PaymentRequestID  string          `json:"payment_request_id"`
	ReferenceID       string          `json:"reference_id"`
	RequestAmount     decimal.Decimal `json:"request_amount"`
	Status            string          `json:"status"`
	ChannelCode       string          `json:"channel_code"`
	ChannelProperties struct {
		ExpiresAt *time.Time `json:"expires_at"`
	} `json:"channel_properties"`
	Actions []struct {
		Descriptor string `json:"descriptor"`
		Value      string `json:"value"`
	} `json:"actions"`
}
