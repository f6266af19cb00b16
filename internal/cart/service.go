package cart

import (
	"context"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	GetCart(ctx context.Context, id identity.Identity) (*Snapshot, error)
	AddItem(ctx context.Context, id identity.Identity, params AddItemParams) (*Item, error)
	UpdateQuantity(ctx context.Context, id identity.Identity, params UpdateQuantityParams) error
	Remove(ctx context.Context, id identity.Identity, productID uuid.UUID) error
	Clear(ctx context.Context, id identity.Identity) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

// NewService creates a new cart service
func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

// GetCart builds the derived snapshot: rows grouped per seller with seller
// subtotals and the overall item subtotal computed from current prices. An
// identity with no rows gets an empty snapshot, not an error.
func (s *service) GetCart(ctx context.Context, id identity.Identity) (*Snapshot, error) {
	rows, err := s.repo.GetRows(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{ItemSubtotal: decimal.Zero}

	var group *SellerGroup
	for _, l := range rows {
		l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))

		if group == nil || group.SellerID != l.SellerID {
			snap.Groups = append(snap.Groups, SellerGroup{
				SellerID:   l.SellerID,
				SellerName: l.SellerName,
				Subtotal:   decimal.Zero,
			})
			group = &snap.Groups[len(snap.Groups)-1]
		}

		group.Lines = append(group.Lines, l)
		group.Subtotal = group.Subtotal.Add(l.LineTotal)
		snap.ItemSubtotal = snap.ItemSubtotal.Add(l.LineTotal)
		snap.TotalQuantity += l.Quantity
	}

	return snap, nil
}

// AddItem puts a product in the cart or tops up an existing row, capturing
// the current price on first add.
func (s *service) AddItem(ctx context.Context, id identity.Identity, params AddItemParams) (*Item, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Cart"),
		zap.String("method", "AddItem"),
		zap.String("identity", id.Key()),
		zap.String("product_id", params.ProductID.String()),
	)

	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	prod, err := s.productRepo.GetByID(ctx, product.GetOptions{
		ProductID:  params.ProductID,
		OnlyActive: true,
	})
	if err != nil {
		return nil, err
	}
	if prod == nil {
		return nil, ErrProductNotFound
	}

	existing, err := s.repo.GetItem(ctx, id, params.ProductID)
	if err != nil {
		return nil, err
	}

	finalQty := params.Quantity
	if existing != nil {
		finalQty += existing.Quantity
	}

	if prod.Stock < finalQty {
		log.Warn("insufficient stock",
			zap.Int("requested", finalQty),
			zap.Int("stock", prod.Stock),
		)
		return nil, ErrInsufficientStock
	}

	if existing == nil {
		return s.repo.CreateItem(ctx, id, params.ProductID, params.Quantity, prod.Price)
	}

	if err := s.repo.UpdateQuantity(ctx, id, params.ProductID, finalQty); err != nil {
		return nil, err
	}
	existing.Quantity = finalQty
	return existing, nil
}

// UpdateQuantity sets the absolute quantity for a product. Zero or negative
// removes the row; a quantity above current stock fails and leaves the row
// unchanged.
func (s *service) UpdateQuantity(ctx context.Context, id identity.Identity, params UpdateQuantityParams) error {
	if params.Quantity <= 0 {
		return s.repo.Remove(ctx, id, params.ProductID)
	}

	prod, err := s.productRepo.GetByID(ctx, product.GetOptions{
		ProductID:  params.ProductID,
		OnlyActive: true,
	})
	if err != nil {
		return err
	}
	if prod == nil {
		return ErrProductNotFound
	}

	if prod.Stock < params.Quantity {
		return ErrInsufficientStock
	}

	return s.repo.UpdateQuantity(ctx, id, params.ProductID, params.Quantity)
}

// Remove deletes a product from the cart
func (s *service) Remove(ctx context.Context, id identity.Identity, productID uuid.UUID) error {
	return s.repo.Remove(ctx, id, productID)
}

// Clear removes all items for the identity
func (s *service) Clear(ctx context.Context, id identity.Identity) error {
	return s.repo.Clear(ctx, id)
}
