package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lokapasar-be/internal/auth"
	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/checkout"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/middleware"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/promo"
	"lokapasar-be/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, id identity.Identity) (*cart.Snapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Snapshot), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, id identity.Identity, params cart.AddItemParams) (*cart.Item, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Item), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, id identity.Identity, params cart.UpdateQuantityParams) error {
	return m.Called(ctx, id, params).Error(0)
}

func (m *MockCartService) Remove(ctx context.Context, id identity.Identity, productID uuid.UUID) error {
	return m.Called(ctx, id, productID).Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, id identity.Identity) error {
	return m.Called(ctx, id).Error(0)
}

type MockPromoService struct {
	mock.Mock
}

func (m *MockPromoService) Apply(ctx context.Context, id identity.Identity, code string) (*promo.Applied, error) {
	args := m.Called(ctx, id, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promo.Applied), args.Error(1)
}

func (m *MockPromoService) Remove(ctx context.Context, id identity.Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPromoService) Evaluate(ctx context.Context, id identity.Identity) (*promo.Applied, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promo.Applied), args.Error(1)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) GetState(ctx context.Context, id identity.Identity) (*checkout.State, checkout.Step, error) {
	args := m.Called(ctx, id)
	st, _ := args.Get(0).(*checkout.State)
	return st, args.Get(1).(checkout.Step), args.Error(2)
}

func (m *MockCheckoutService) SetAddress(ctx context.Context, id identity.Identity, addressID uuid.UUID) error {
	return m.Called(ctx, id, addressID).Error(0)
}

func (m *MockCheckoutService) SetPaymentMethod(ctx context.Context, id identity.Identity, method string) error {
	return m.Called(ctx, id, method).Error(0)
}

func (m *MockCheckoutService) Revalidate(ctx context.Context, id identity.Identity) (*checkout.RevalidationReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.RevalidationReport), args.Error(1)
}

func (m *MockCheckoutService) PlaceOrder(ctx context.Context, id identity.Identity, input checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PlaceOrderResult), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Place(ctx context.Context, id identity.Identity, o *order.Order, promoID *uuid.UUID) error {
	return m.Called(ctx, id, o, promoID).Error(0)
}

func (m *MockOrderService) List(ctx context.Context, id identity.Identity, filter order.ListFilter) ([]*order.Order, error) {
	args := m.Called(ctx, id, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) GetDetail(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) MarkPaid(ctx context.Context, orderNumber string) error {
	return m.Called(ctx, orderNumber).Error(0)
}

func (m *MockOrderService) MarkCanceled(ctx context.Context, orderNumber string) error {
	return m.Called(ctx, orderNumber).Error(0)
}

func (m *MockOrderService) MarkFailed(ctx context.Context, orderNumber string) error {
	return m.Called(ctx, orderNumber).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) UpdateStatusByReference(ctx context.Context, ref, status string) error {
	return m.Called(ctx, ref, status).Error(0)
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SaveWebhook(ctx context.Context, provider, eventID, eventType, externalID string, payload json.RawMessage, signatureValid bool) (int64, bool, error) {
	args := m.Called(ctx, provider, eventID, eventType, externalID, payload, signatureValid)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	return m.Called(ctx, webhookID).Error(0)
}

func (m *MockPaymentRepository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	return m.Called(ctx, webhookID, reason).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateInvoice(ctx context.Context, externalID string, buyer payment.BuyerInfo, amount decimal.Decimal, items []payment.InvoiceItem, channelCode payment.ChannelCode) (*payment.PaymentResponse, error) {
	args := m.Called(ctx, externalID, buyer, amount, items, channelCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentResponse), args.Error(1)
}

func (m *MockGateway) GetPaymentStatus(ctx context.Context, externalID string) (*payment.PaymentStatus, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentStatus), args.Error(1)
}

func (m *MockGateway) CancelPayment(ctx context.Context, externalID string) error {
	return m.Called(ctx, externalID).Error(0)
}

func (m *MockGateway) VerifySignature(r *http.Request) error {
	return m.Called(r).Error(0)
}

type testServer struct {
	router    *gin.Engine
	carts     *MockCartService
	promos    *MockPromoService
	checkouts *MockCheckoutService
	orders    *MockOrderService
	payments  *MockPaymentRepository
	gateway   *MockGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tokens, err := auth.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	sessions := session.NewManager(time.Hour)
	t.Cleanup(sessions.Close)
	limiter := middleware.NewRateLimiter()
	t.Cleanup(limiter.Close)

	ts := &testServer{
		carts:     new(MockCartService),
		promos:    new(MockPromoService),
		checkouts: new(MockCheckoutService),
		orders:    new(MockOrderService),
		payments:  new(MockPaymentRepository),
		gateway:   new(MockGateway),
	}

	ts.router = NewRouter(Deps{
		Carts:     ts.carts,
		Promos:    ts.promos,
		Checkouts: ts.checkouts,
		Orders:    ts.orders,
		Payments:  ts.payments,
		Gateway:   ts.gateway,
		Tokens:    tokens,
		Sessions:  sessions,
		Limiter:   limiter,
	})

	return ts
}

func TestGetCart(t *testing.T) {
	ts := newTestServer(t)

	snap := &cart.Snapshot{ItemSubtotal: decimal.NewFromInt(100)}
	ts.carts.On("GetCart", mock.Anything, mock.Anything).Return(snap, nil)
	ts.promos.On("Evaluate", mock.Anything, mock.Anything).Return((*promo.Applied)(nil), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/cart", nil)
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// anonymous caller gets a session token to carry forward
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderSessionToken))
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	body := `{"buyer_name":"Sari","buyer_phone":"08123456789"}`

	t.Run("IncompleteStateConflict", func(t *testing.T) {
		ts := newTestServer(t)
		ts.checkouts.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &checkout.IncompleteStateError{Step: checkout.StepShipping})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/checkout/place-order", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp struct {
			Error apiError `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "IncompleteCheckoutState", resp.Error.Code)
		assert.Equal(t, checkout.StepShipping, resp.Error.Step)
	})

	t.Run("RevalidationConflictCarriesReport", func(t *testing.T) {
		ts := newTestServer(t)
		report := &checkout.RevalidationReport{
			HasPriceChanges: true,
			Lines: []checkout.RevalidationLine{
				{ProductName: "Kopi Gayo 250g", PriceChanged: true},
			},
		}
		ts.checkouts.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &checkout.RevalidationError{Report: report})

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/checkout/place-order", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp struct {
			Error apiError `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "RevalidationFailed", resp.Error.Code)
		require.NotNil(t, resp.Error.Report)
		assert.True(t, resp.Error.Report.HasPriceChanges)
	})

	t.Run("InsufficientStockConflict", func(t *testing.T) {
		ts := newTestServer(t)
		ts.checkouts.On("PlaceOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, order.ErrStockConflict)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/checkout/place-order", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp struct {
			Error apiError `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "InsufficientStock", resp.Error.Code)
	})
}

func TestApplyPromo_ValidationMapping(t *testing.T) {
	ts := newTestServer(t)
	ts.promos.On("Apply", mock.Anything, mock.Anything, "EXPIRED10").
		Return(nil, promo.ErrExpired)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/cart/promo", bytes.NewBufferString(`{"code":"EXPIRED10"}`))
	req.Header.Set("Content-Type", "application/json")
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Error apiError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "InvalidPromo", resp.Error.Code)
}

func TestWebhook(t *testing.T) {
	payload := `{"id":"evt-1","event":"payment.succeeded","external_id":"ORD-1","status":"PAID"}`

	t.Run("PaidEventMarksOrder", func(t *testing.T) {
		ts := newTestServer(t)
		ts.gateway.On("VerifySignature", mock.Anything).Return(nil)
		ts.payments.On("SaveWebhook",
			mock.Anything, "XENDIT", "evt-1", "payment.succeeded", "ORD-1", mock.Anything, true).
			Return(int64(1), false, nil)
		ts.orders.On("GetByNumber", mock.Anything, "ORD-1").
			Return(&order.Order{OrderNumber: "ORD-1", Total: decimal.NewFromInt(92), Status: order.StatusPendingPayment}, nil)
		ts.orders.On("MarkPaid", mock.Anything, "ORD-1").Return(nil)
		ts.payments.On("MarkWebhookProcessed", mock.Anything, int64(1)).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/webhooks/xendit", bytes.NewBufferString(payload))
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertExpectations(t)
	})

	t.Run("UnknownOrderIsStoredAndAcknowledged", func(t *testing.T) {
		ts := newTestServer(t)
		ts.gateway.On("VerifySignature", mock.Anything).Return(nil)
		ts.payments.On("SaveWebhook",
			mock.Anything, "XENDIT", "evt-1", "payment.succeeded", "ORD-1", mock.Anything, true).
			Return(int64(3), false, nil)
		ts.orders.On("GetByNumber", mock.Anything, "ORD-1").Return(nil, order.ErrOrderNotFound)
		ts.payments.On("MarkWebhookFailed", mock.Anything, int64(3), "unknown order").Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/webhooks/xendit", bytes.NewBufferString(payload))
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
		ts.payments.AssertExpectations(t)
	})

	t.Run("AmountMismatchIsRecordedNotApplied", func(t *testing.T) {
		ts := newTestServer(t)
		mismatched := `{"id":"evt-1","event":"payment.succeeded","external_id":"ORD-1","status":"PAID","amount":50}`
		ts.gateway.On("VerifySignature", mock.Anything).Return(nil)
		ts.payments.On("SaveWebhook",
			mock.Anything, "XENDIT", "evt-1", "payment.succeeded", "ORD-1", mock.Anything, true).
			Return(int64(4), false, nil)
		ts.orders.On("GetByNumber", mock.Anything, "ORD-1").
			Return(&order.Order{OrderNumber: "ORD-1", Total: decimal.NewFromInt(92), Status: order.StatusPendingPayment}, nil)
		ts.payments.On("MarkWebhookFailed", mock.Anything, int64(4), "amount mismatch").Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/webhooks/xendit", bytes.NewBufferString(mismatched))
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
		ts.payments.AssertExpectations(t)
	})

	t.Run("DuplicateEventAcknowledgedOnce", func(t *testing.T) {
		ts := newTestServer(t)
		ts.gateway.On("VerifySignature", mock.Anything).Return(nil)
		ts.payments.On("SaveWebhook",
			mock.Anything, "XENDIT", "evt-1", "payment.succeeded", "ORD-1", mock.Anything, true).
			Return(int64(0), true, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/webhooks/xendit", bytes.NewBufferString(payload))
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	})

	t.Run("BadSignatureRejected", func(t *testing.T) {
		ts := newTestServer(t)
		ts.gateway.On("VerifySignature", mock.Anything).Return(assert.AnError)
		ts.payments.On("SaveWebhook",
			mock.Anything, "XENDIT", "evt-1", "payment.succeeded", "ORD-1", mock.Anything, false).
			Return(int64(2), false, nil)
		ts.payments.On("MarkWebhookFailed", mock.Anything, int64(2), "invalid signature").Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/webhooks/xendit", bytes.NewBufferString(payload))
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		ts.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	})
}

func TestPaymentStatus(t *testing.T) {
	orderID := uuid.New()
	pending := func() (*order.Order, *payment.Payment) {
		return &order.Order{
				ID:          orderID,
				OrderNumber: "ORD-7",
				Status:      order.StatusPendingPayment,
				Total:       decimal.NewFromInt(92),
			}, &payment.Payment{
				OrderID:           orderID,
				ExternalReference: "ORD-7",
				Status:            "PENDING",
				PaymentMethod:     "BCA_VA",
				PaymentCode:       "8808123456",
				Amount:            decimal.NewFromInt(92),
			}
	}

	t.Run("SettledPaymentSkipsProviderPoll", func(t *testing.T) {
		ts := newTestServer(t)
		o, p := pending()
		o.Status = order.StatusPaid
		p.Status = "PAID"
		ts.orders.On("GetDetail", mock.Anything, mock.Anything, orderID).Return(o, nil)
		ts.payments.On("GetByOrderID", mock.Anything, orderID).Return(p, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/orders/"+orderID.String()+"/payment", nil)
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.gateway.AssertNotCalled(t, "GetPaymentStatus", mock.Anything, mock.Anything)

		var resp paymentStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PAID", resp.PaymentStatus)
		assert.Equal(t, "ORD-7", resp.OrderNumber)
	})

	t.Run("PendingPaymentPollsAndReconcilesToPaid", func(t *testing.T) {
		ts := newTestServer(t)
		o, p := pending()
		ts.orders.On("GetDetail", mock.Anything, mock.Anything, orderID).Return(o, nil)
		ts.payments.On("GetByOrderID", mock.Anything, orderID).Return(p, nil)
		ts.gateway.On("GetPaymentStatus", mock.Anything, "ORD-7").
			Return(&payment.PaymentStatus{Status: "PAID"}, nil)
		ts.orders.On("MarkPaid", mock.Anything, "ORD-7").Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/orders/"+orderID.String()+"/payment", nil)
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertExpectations(t)

		var resp paymentStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PAID", resp.PaymentStatus)
		assert.Equal(t, string(order.StatusPaid), resp.OrderStatus)
	})

	t.Run("NonTerminalDriftUpdatesPaymentOnly", func(t *testing.T) {
		ts := newTestServer(t)
		o, p := pending()
		ts.orders.On("GetDetail", mock.Anything, mock.Anything, orderID).Return(o, nil)
		ts.payments.On("GetByOrderID", mock.Anything, orderID).Return(p, nil)
		ts.gateway.On("GetPaymentStatus", mock.Anything, "ORD-7").
			Return(&payment.PaymentStatus{Status: "REQUIRES_ACTION"}, nil)
		ts.payments.On("UpdateStatusByReference", mock.Anything, "ORD-7", "REQUIRES_ACTION").Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/orders/"+orderID.String()+"/payment", nil)
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
		ts.payments.AssertExpectations(t)
	})

	t.Run("MalformedIDReadsAsNotFound", func(t *testing.T) {
		ts := newTestServer(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/orders/not-a-uuid/payment", nil)
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPaymentCancel(t *testing.T) {
	orderID := uuid.New()

	t.Run("PendingOrderIsCanceled", func(t *testing.T) {
		ts := newTestServer(t)
		ts.orders.On("GetDetail", mock.Anything, mock.Anything, orderID).
			Return(&order.Order{ID: orderID, OrderNumber: "ORD-7", Status: order.StatusPendingPayment}, nil)
		ts.payments.On("GetByOrderID", mock.Anything, orderID).
			Return(&payment.Payment{OrderID: orderID, ExternalReference: "ORD-7", Status: "PENDING"}, nil)
		ts.gateway.On("CancelPayment", mock.Anything, "ORD-7").Return(nil)
		ts.orders.On("MarkCanceled", mock.Anything, "ORD-7").Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/orders/"+orderID.String()+"/payment/cancel", nil)
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertExpectations(t)
	})

	t.Run("ProviderCancelFailureStillCancelsLocally", func(t *testing.T) {
		ts := newTestServer(t)
		ts.orders.On("GetDetail", mock.Anything, mock.Anything, orderID).
			Return(&order.Order{ID: orderID, OrderNumber: "ORD-7", Status: order.StatusPendingPayment}, nil)
		ts.payments.On("GetByOrderID", mock.Anything, orderID).
			Return(&payment.Payment{OrderID: orderID, ExternalReference: "ORD-7", Status: "PENDING"}, nil)
		ts.gateway.On("CancelPayment", mock.Anything, "ORD-7").Return(assert.AnError)
		ts.orders.On("MarkCanceled", mock.Anything, "ORD-7").Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/orders/"+orderID.String()+"/payment/cancel", nil)
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.orders.AssertExpectations(t)
	})

	t.Run("PaidOrderConflicts", func(t *testing.T) {
		ts := newTestServer(t)
		ts.orders.On("GetDetail", mock.Anything, mock.Anything, orderID).
			Return(&order.Order{ID: orderID, OrderNumber: "ORD-7", Status: order.StatusPaid}, nil)
		ts.payments.On("GetByOrderID", mock.Anything, orderID).
			Return(&payment.Payment{OrderID: orderID, ExternalReference: "ORD-7", Status: "PAID"}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/orders/"+orderID.String()+"/payment/cancel", nil)
		ts.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		ts.orders.AssertNotCalled(t, "MarkCanceled", mock.Anything, mock.Anything)

		var resp struct {
			Error apiError `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "NotCancelable", resp.Error.Code)
	})
}
