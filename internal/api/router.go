package api

import (
	"net/http"
	"time"

	"lokapasar-be/internal/address"
	"lokapasar-be/internal/auth"
	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/checkout"
	"lokapasar-be/internal/middleware"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/promo"
	"lokapasar-be/internal/session"
	"lokapasar-be/internal/shipping"
	"lokapasar-be/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries everything the router needs. All services are interfaces so
// tests can swap them out.
type Deps struct {
	Carts     cart.Service
	Promos    promo.Service
	Addresses address.Service
	Shipments shipping.Service
	Checkouts checkout.Service
	Orders    order.Service
	Users     user.Service

	Payments payment.Repository
	Gateway  payment.Gateway

	Tokens   *auth.Manager
	Sessions *session.Manager
	Limiter  *middleware.RateLimiter

	AllowedOrigins []string
	Env            string
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())

	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderSessionToken},
			ExposeHeaders:    []string{middleware.HeaderSessionToken, middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	carts := &cartHandler{carts: deps.Carts, promos: deps.Promos}
	addresses := &addressHandler{addresses: deps.Addresses}
	checkouts := &checkoutHandler{checkouts: deps.Checkouts, shipments: deps.Shipments}
	orders := &orderHandler{orders: deps.Orders}
	users := &authHandler{users: deps.Users}
	payments := &paymentHandler{orders: deps.Orders, payments: deps.Payments, gateway: deps.Gateway}
	webhooks := &webhookHandler{orders: deps.Orders, payments: deps.Payments, gateway: deps.Gateway}

	// provider callbacks carry their own signature, not a session
	router.POST("/webhooks/xendit", webhooks.HandleXendit)

	api := router.Group("/api")
	api.Use(middleware.Identify(deps.Tokens, deps.Sessions))
	api.Use(deps.Limiter.General())

	authGroup := api.Group("/auth")
	authGroup.Use(deps.Limiter.Strict())
	{
		authGroup.POST("/register", users.Register)
		authGroup.POST("/login", users.Login)
	}

	cartGroup := api.Group("/cart")
	{
		cartGroup.GET("", carts.GetCart)
		cartGroup.DELETE("", carts.Clear)
		cartGroup.POST("/items", carts.AddItem)
		cartGroup.PATCH("/items/:productID", carts.UpdateQuantity)
		cartGroup.DELETE("/items/:productID", carts.RemoveItem)
		cartGroup.POST("/promo", carts.ApplyPromo)
		cartGroup.DELETE("/promo", carts.RemovePromo)
	}

	addressGroup := api.Group("/addresses")
	{
		addressGroup.GET("", addresses.List)
		addressGroup.POST("", addresses.Save)
		addressGroup.DELETE("/:addressID", addresses.Delete)
		addressGroup.POST("/:addressID/default", addresses.SetDefault)
	}

	checkoutGroup := api.Group("/checkout")
	{
		checkoutGroup.GET("", checkouts.GetState)
		checkoutGroup.POST("/address", checkouts.SetAddress)
		checkoutGroup.GET("/shipping-options", checkouts.ShippingOptions)
		checkoutGroup.POST("/shipping", checkouts.SelectShipping)
		checkoutGroup.POST("/payment-method", checkouts.SetPaymentMethod)
		checkoutGroup.GET("/revalidate", checkouts.Revalidate)
		checkoutGroup.POST("/place-order", deps.Limiter.Strict(), checkouts.PlaceOrder)
	}

	orderGroup := api.Group("/orders")
	{
		orderGroup.GET("", orders.List)
		orderGroup.GET("/:orderID", orders.Detail)
		orderGroup.GET("/:orderID/payment", payments.Status)
		orderGroup.POST("/:orderID/payment/cancel", payments.Cancel)
	}

	return router
}
