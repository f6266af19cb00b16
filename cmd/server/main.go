package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lokapasar-be/internal/address"
	"lokapasar-be/internal/api"
	"lokapasar-be/internal/auth"
	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/checkout"
	"lokapasar-be/internal/config"
	"lokapasar-be/internal/db"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/middleware"
	"lokapasar-be/internal/order"
	"lokapasar-be/internal/payment"
	"lokapasar-be/internal/product"
	"lokapasar-be/internal/promo"
	"lokapasar-be/internal/session"
	"lokapasar-be/internal/shipping"
	"lokapasar-be/internal/user"

	"go.uber.org/zap"
)

const (
	tokenTTL   = 24 * time.Hour
	sessionTTL = 7 * 24 * time.Hour
)

// Indirections for testing without a real database or listener.
var (
	initDBFunc      = db.InitDB
	startServerFunc = listenAndServe
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	router, closeFn, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer closeFn()

	addr := ":" + cfg.AppPort
	logger.L().Info("server listening", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(addr, router)
}

// newServer wires repositories, services and the HTTP router. The returned
// close function stops background goroutines (session sweeper, rate limiter).
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, func(), error) {
	tokens, err := auth.NewManager(cfg.JWTSecret, tokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("auth manager: %w", err)
	}

	sessions := session.NewManager(sessionTTL)
	limiter := middleware.NewRateLimiter()

	gateway := payment.NewXenditGateway(payment.GatewayConfig{
		APIKey:        cfg.XenditSecretKey,
		CallbackToken: cfg.XenditCallbackToken,
		SuccessURL:    cfg.PaymentSuccessURL,
		FailureURL:    cfg.PaymentFailureURL,
		CancelURL:     cfg.PaymentCancelURL,
	})

	productRepo := product.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	promoRepo := promo.NewRepository(database)
	addressRepo := address.NewRepository(database)
	shippingRepo := shipping.NewRepository(database)
	checkoutRepo := checkout.NewRepository(database)
	orderRepo := order.NewRepository(database)
	userRepo := user.NewRepository(database)
	paymentRepo := payment.NewRepository(database)

	cartSvc := cart.NewService(cartRepo, productRepo)
	promoSvc := promo.NewService(promoRepo, cartSvc)
	addressSvc := address.NewService(addressRepo, cartSvc, productRepo)
	// checkout state rows double as the shipping selection store
	shippingSvc := shipping.NewService(shippingRepo, cartSvc, addressSvc, checkoutRepo)
	orderSvc := order.NewService(orderRepo)
	userSvc := user.NewService(userRepo, tokens)
	checkoutSvc := checkout.NewService(
		checkoutRepo, cartSvc, promoSvc, addressSvc, shippingSvc,
		orderSvc, productRepo, paymentRepo, gateway,
	)

	router := api.NewRouter(api.Deps{
		Carts:     cartSvc,
		Promos:    promoSvc,
		Addresses: addressSvc,
		Shipments: shippingSvc,
		Checkouts: checkoutSvc,
		Orders:    orderSvc,
		Users:     userSvc,

		Payments: paymentRepo,
		Gateway:  gateway,

		Tokens:   tokens,
		Sessions: sessions,
		Limiter:  limiter,

		AllowedOrigins: cfg.AllowedOrigins,
		Env:            cfg.AppEnv,
	})

	closeFn := func() {
		sessions.Close()
		limiter.Close()
	}
	return router, closeFn, nil
}

// listenAndServe runs the server until SIGINT/SIGTERM, then drains in-flight
// requests before returning.
func listenAndServe(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
