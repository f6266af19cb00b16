package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lokapasar-be/internal/address"
	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/product"
	"lokapasar-be/internal/promo"
	"lokapasar-be/internal/shipping"
	"lokapasar-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service walks the buyer through address, shipping and payment, then turns
// the cart into an order. Steps are gated: a later step fails with
// IncompleteStateError until the earlier ones are done.
type Service interface {
	GetState(ctx context.Context, id identity.Identity) (*State, Step, error)
	SetAddress(ctx context.Context, id identity.Identity, addressID uuid.UUID) error
	SetPaymentMethod(ctx context.Context, id identity.Identity, method string) error
	Revalidate(ctx context.Context, id identity.Identity) (*RevalidationReport, error)
	PlaceOrder(ctx context.Context, id identity.Identity, input PlaceOrderInput) (*PlaceOrderResult, error)
}

type PlaceOrderResult struct {
	Order   *order.Order
	Payment *PaymentInfo
}

type service struct {
	repo      Repository
	carts     cart.Service
	promos    promo.Service
	addresses address.Service
	shipments shipping.Service
	orders    order.Service
	products  product.Repository
	payments  payment.Repository
	gateway   payment.Gateway
}

func NewService(
	repo Repository,
	carts cart.Service,
	promos promo.Service,
	addresses address.Service,
	shipments shipping.Service,
	orders order.Service,
	products product.Repository,
	payments payment.Repository,
	gateway payment.Gateway,
) Service {
	return &service{
		repo:      repo,
		carts:     carts,
		promos:    promos,
		addresses: addresses,
		shipments: shipments,
		orders:    orders,
		products:  products,
		payments:  payments,
		gateway:   gateway,
	}
}

func (s *service) GetState(ctx context.Context, id identity.Identity) (*State, Step, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return st, st.CurrentStep(), nil
}

// SetAddress pins the delivery address after checking the buyer owns it and
// every cart item can ship there. Changing the address resets the shipping
// and payment steps.
func (s *service) SetAddress(ctx context.Context, id identity.Identity, addressID uuid.UUID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Checkout"),
		zap.String("method", "SetAddress"),
		zap.String("identity", id.Key()),
		zap.String("address_id", addressID.String()),
	)

	addr, err := s.addresses.Get(ctx, id, addressID)
	if err != nil {
		return err
	}

	report, err := s.addresses.ValidateShipping(ctx, id, addr.Country, addr.Province, addr.Postal)
	if err != nil {
		return err
	}
	if !report.CanShip {
		log.Warn("address rejected",
			zap.Strings("restricted_products", report.RestrictedProductNames),
		)
		return fmt.Errorf("%w: %s", ErrAddressNotShippable,
			strings.Join(report.RestrictedProductNames, ", "))
	}

	if err := s.repo.SetAddress(ctx, id, addressID); err != nil {
		log.Error("failed to store address step", zap.Error(err))
		return err
	}

	log.Info("checkout address set")
	return nil
}

// SetPaymentMethod records the chosen channel. Requires the address and
// shipping steps to be complete.
func (s *service) SetPaymentMethod(ctx context.Context, id identity.Identity, method string) error {
	if !payment.IsValidMethod(method) {
		return ErrInvalidPaymentMethod
	}

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if step := st.CurrentStep(); step != StepPayment {
		return &IncompleteStateError{Step: step}
	}

	return s.repo.SetPaymentMethod(ctx, id, method)
}

// Revalidate checks every cart line against live stock and pricing. Price
// drift is measured against the captured price, the one the buyer saw when
// the line went into the cart.
func (s *service) Revalidate(ctx context.Context, id identity.Identity) (*RevalidationReport, error) {
	snap, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}
	return s.revalidate(ctx, snap)
}

func (s *service) revalidate(ctx context.Context, snap *cart.Snapshot) (*RevalidationReport, error) {
	pricing, err := s.products.GetPricing(ctx, snap.ProductIDs())
	if err != nil {
		return nil, err
	}

	report := &RevalidationReport{}
	for _, line := range snap.Lines() {
		p, ok := pricing[line.ProductID]

		rl := RevalidationLine{
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Requested:     line.Quantity,
			CapturedPrice: line.CapturedPrice,
		}

		if !ok {
			// product pulled since the cart was read
			rl.StockIssue = true
		} else {
			rl.Available = p.Stock
			rl.CurrentPrice = p.Price
			rl.StockIssue = p.Stock < line.Quantity
			rl.PriceChanged = !p.Price.Equal(line.CapturedPrice)
		}

		if rl.StockIssue {
			report.HasStockIssues = true
		}
		if rl.PriceChanged {
			report.HasPriceChanges = true
		}
		report.Lines = append(report.Lines, rl)
	}

	return report, nil
}

// PlaceOrder is the final gate. It re-derives every amount from live data:
// the subtotal from current prices, the discount from the promo evaluator,
// the shipping fees from the stored selections re-resolved against current
// offers. Nothing remembered from earlier steps is trusted as a price.
func (s *service) PlaceOrder(ctx context.Context, id identity.Identity, input PlaceOrderInput) (*PlaceOrderResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Checkout"),
		zap.String("method", "PlaceOrder"),
		zap.String("identity", id.Key()),
	)

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if step := st.CurrentStep(); step != StepPayment {
		return nil, &IncompleteStateError{Step: step}
	}

	method := input.PaymentMethod
	if method == "" && st.PaymentMethod != nil {
		method = *st.PaymentMethod
	}
	if !payment.IsValidMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}

	snap, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}

	report, err := s.revalidate(ctx, snap)
	if err != nil {
		return nil, err
	}
	if !report.Clean() {
		log.Warn("placement blocked by revalidation",
			zap.Bool("stock_issues", report.HasStockIssues),
			zap.Bool("price_changes", report.HasPriceChanges),
		)
		return nil, &RevalidationError{Report: report}
	}

	fees, err := s.shipments.ResolveSelected(ctx, id, *st.AddressID, st.Selections)
	if err != nil {
		// cart composition changed since the shipping step
		if errors.Is(err, shipping.ErrIncompleteSelection) || errors.Is(err, shipping.ErrMethodNotOffered) {
			return nil, &IncompleteStateError{Step: StepShipping}
		}
		return nil, err
	}

	applied, err := s.promos.Evaluate(ctx, id)
	if err != nil {
		return nil, err
	}

	o, promoID := s.buildOrder(id, st, snap, fees, applied, method)

	if err := s.orders.Place(ctx, id, o, promoID); err != nil {
		log.Error("failed to place order", zap.Error(err))
		return nil, err
	}

	log.Info("order placed",
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Total.String()),
		zap.String("payment_method", method),
	)

	if payment.IsOffline(method) {
		return &PlaceOrderResult{
			Order: o,
			Payment: &PaymentInfo{
				Instructions: payment.InjectVariables(
					payment.GetInstructions(method),
					payment.InstructionVars{"amount": payment.FormatIDR(o.Total)},
				),
			},
		}, nil
	}

	info, err := s.createInvoice(ctx, o, snap, input, method)
	if err != nil {
		// order row exists; flag it so the buyer can retry from history
		if markErr := s.orders.MarkFailed(ctx, o.OrderNumber); markErr != nil {
			log.Error("failed to flag order after invoice error", zap.Error(markErr))
		}
		return nil, err
	}

	return &PlaceOrderResult{Order: o, Payment: info}, nil
}

func (s *service) buildOrder(
	id identity.Identity,
	st *State,
	snap *cart.Snapshot,
	fees []shipping.SellerFee,
	applied *promo.Applied,
	method string,
) (*order.Order, *uuid.UUID) {

	feeBySeller := make(map[uuid.UUID]shipping.SellerFee, len(fees))
	shippingTotal := decimal.Zero
	for _, fee := range fees {
		feeBySeller[fee.SellerID] = fee
		shippingTotal = shippingTotal.Add(fee.Cost)
	}

	discount := decimal.Zero
	var promoCode *string
	var promoID *uuid.UUID
	if applied != nil {
		discount = applied.Discount
		promoCode = &applied.Code
		pid := applied.ID
		promoID = &pid
	}

	status := order.StatusPendingPayment
	if payment.IsOffline(method) {
		status = order.StatusPlaced
	}

	o := &order.Order{
		ID:            uuid.New(),
		OrderNumber:   utils.GenerateOrderNumber(),
		BuyerID:       st.BuyerID,
		SessionToken:  st.SessionToken,
		AddressID:     *st.AddressID,
		Subtotal:      snap.ItemSubtotal,
		Discount:      discount,
		ShippingTotal: shippingTotal,
		Total:         snap.ItemSubtotal.Sub(discount).Add(shippingTotal),
		PromoCode:     promoCode,
		Status:        status,
	}

	for _, g := range snap.Groups {
		fee := feeBySeller[g.SellerID]
		sh := order.Shipment{
			ID:         uuid.New(),
			OrderID:    o.ID,
			SellerID:   g.SellerID,
			SellerName: g.SellerName,
			Carrier:    fee.Carrier,
			MethodName: fee.Name,
			Cost:       fee.Cost,
			Status:     order.ShipmentPending,
		}
		for _, line := range g.Lines {
			sh.Items = append(sh.Items, order.Item{
				ID:          uuid.New(),
				ShipmentID:  sh.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Subtotal:    line.LineTotal,
			})
		}
		o.Shipments = append(o.Shipments, sh)
	}

	return o, promoID
}

func (s *service) createInvoice(
	ctx context.Context,
	o *order.Order,
	snap *cart.Snapshot,
	input PlaceOrderInput,
	method string,
) (*PaymentInfo, error) {

	items := make([]payment.InvoiceItem, 0, len(snap.Lines()))
	for _, line := range snap.Lines() {
		items = append(items, payment.InvoiceItem{
			Name:     line.ProductName,
			Price:    line.UnitPrice,
			Quantity: line.Quantity,
		})
	}

	resp, err := s.gateway.CreateInvoice(
		ctx,
		o.OrderNumber,
		payment.BuyerInfo{
			Name:  input.BuyerName,
			Email: input.BuyerEmail,
			Phone: input.BuyerPhone,
		},
		o.Total,
		items,
		payment.ChannelCode(method),
	)
	if err != nil {
		return nil, err
	}

	expire := resp.ExpirationTime
	if err := s.payments.SavePayment(ctx, &payment.Payment{
		OrderID:           o.ID,
		ExternalReference: o.OrderNumber,
		ProviderPaymentID: resp.ProviderPaymentID,
		InvoiceURL:        resp.InvoiceURL,
		Amount:            o.Total,
		Status:            resp.Status,
		PaymentMethod:     method,
		ChannelCode:       resp.ChannelCode,
		PaymentCode:       resp.PaymentCode,
		ExpireAt:          &expire,
	}); err != nil {
		return nil, err
	}

	return &PaymentInfo{
		InvoiceURL:  resp.InvoiceURL,
		PaymentCode: resp.PaymentCode,
		Instructions: payment.InjectVariables(
			payment.GetInstructions(method),
			payment.InstructionVars{
				"amount":       payment.FormatIDR(o.Total),
				"payment_code": resp.PaymentCode,
			},
		),
		ExpiresAt: &expire,
	}, nil
}

