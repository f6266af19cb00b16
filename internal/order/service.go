package order

import (
	"context"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// Place writes the fully priced order. The caller has already
	// revalidated stock and pricing; Place still relies on the guarded
	// decrement to catch races.
	Place(ctx context.Context, id identity.Identity, o *Order, promoID *uuid.UUID) error

	List(ctx context.Context, id identity.Identity, filter ListFilter) ([]*Order, error)
	GetDetail(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*Order, error)

	// GetByNumber is the webhook-side lookup; it carries no identity scope
	// because provider callbacks authenticate by signature, not session.
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)

	MarkPaid(ctx context.Context, orderNumber string) error
	MarkFailed(ctx context.Context, orderNumber string) error
	MarkCanceled(ctx context.Context, orderNumber string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Place(ctx context.Context, id identity.Identity, o *Order, promoID *uuid.UUID) error {
	return s.repo.CreatePlacedOrder(ctx, id, o, promoID)
}

func (s *service) List(ctx context.Context, id identity.Identity, filter ListFilter) ([]*Order, error) {
	return s.repo.GetOrders(ctx, id, filter)
}

func (s *service) GetDetail(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*Order, error) {
	return s.repo.GetOrderDetail(ctx, id, orderID)
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.repo.GetByOrderNumber(ctx, orderNumber)
}

func (s *service) MarkPaid(ctx context.Context, orderNumber string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Order"),
		zap.String("method", "MarkPaid"),
		zap.String("order_number", orderNumber),
	)

	if err := s.repo.UpdateStatusByOrderNumber(ctx, orderNumber, StatusPaid); err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return err
	}

	log.Info("order marked paid")
	return nil
}

func (s *service) MarkFailed(ctx context.Context, orderNumber string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Order"),
		zap.String("method", "MarkFailed"),
		zap.String("order_number", orderNumber),
	)

	if err := s.repo.UpdateStatusByOrderNumber(ctx, orderNumber, StatusFailed); err != nil {
		log.Error("failed to mark order failed", zap.Error(err))
		return err
	}

	log.Info("order marked failed")
	return nil
}

func (s *service) MarkCanceled(ctx context.Context, orderNumber string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Order"),
		zap.String("method", "MarkCanceled"),
		zap.String("order_number", orderNumber),
	)

	if err := s.repo.UpdateStatusByOrderNumber(ctx, orderNumber, StatusCanceled); err != nil {
		log.Error("failed to mark order canceled", zap.Error(err))
		return err
	}

	log.Info("order canceled")
	return nil
}
