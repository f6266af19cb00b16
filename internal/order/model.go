package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPlaced         Status = "PLACED"
	StatusPaid           Status = "PAID"
	StatusFailed         Status = "FAILED"
	StatusCanceled       Status = "CANCELED"
)

type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "PENDING"
	ShipmentPacked    ShipmentStatus = "PACKED"
	ShipmentShipped   ShipmentStatus = "SHIPPED"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
)

// Order is the placed result of a checkout. Totals are frozen at placement;
// one shipment exists per seller whose items were in the cart.
type Order struct {
	ID           uuid.UUID
	OrderNumber  string
	BuyerID      *uint
	SessionToken *string

	AddressID uuid.UUID

	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	ShippingTotal decimal.Decimal
	Total         decimal.Decimal
	PromoCode     *string

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	Shipments []Shipment
}

// Shipment groups one seller's items under the shipping method chosen for
// that seller.
type Shipment struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	SellerID   uuid.UUID
	SellerName string

	Carrier    string
	MethodName string
	Cost       decimal.Decimal
	ETADays    int

	Status ShipmentStatus
	Items  []Item
}

type Item struct {
	ID          uuid.UUID
	ShipmentID  uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

type ListFilter struct {
	Status *Status
	Limit  int32
	Page   int32
}
