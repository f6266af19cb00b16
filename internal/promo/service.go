package promo

import (
	"context"
	"time"

	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service validates promo codes against the current cart and computes their
// discount. The discount amount is never stored: Evaluate recomputes it from
// the live subtotal on every read, so a cart mutation silently changes the
// effective discount on the next fetch.
type Service interface {
	Apply(ctx context.Context, id identity.Identity, code string) (*Applied, error)
	Remove(ctx context.Context, id identity.Identity) error
	Evaluate(ctx context.Context, id identity.Identity) (*Applied, error)
}

type service struct {
	repo  Repository
	carts cart.Service
	now   func() time.Time
}

func NewService(repo Repository, carts cart.Service) Service {
	return &service{repo: repo, carts: carts, now: time.Now}
}

// Apply validates a code and attaches it to the cart. Validation order:
// existence/active, validity window, minimum subtotal and category
// eligibility, then usage caps. The first failure is the reported reason;
// a failing code is never partially applied.
func (s *service) Apply(ctx context.Context, id identity.Identity, codeStr string) (*Applied, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Promo"),
		zap.String("method", "Apply"),
		zap.String("identity", id.Key()),
		zap.String("code", codeStr),
	)

	code, err := s.repo.GetByCode(ctx, codeStr)
	if err != nil {
		return nil, err
	}
	if code == nil || !code.Active {
		return nil, ErrNotFound
	}

	if !code.InWindow(s.now()) {
		return nil, ErrExpired
	}

	snap, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	if snap.ItemSubtotal.LessThan(code.MinSubtotal) {
		return nil, ErrMinimumNotMet
	}

	if code.EligibleCategory != nil && !cartHasCategory(snap, *code.EligibleCategory) {
		return nil, ErrNotApplicable
	}

	if err := s.checkUsageCaps(ctx, id, code); err != nil {
		return nil, err
	}

	if err := s.repo.SaveApplied(ctx, id, code.ID); err != nil {
		return nil, err
	}

	applied := &Applied{
		ID:          code.ID,
		Code:        code.Code,
		Description: code.Description,
		Discount:    code.DiscountFor(snap.ItemSubtotal),
	}

	log.Info("promo applied", zap.String("discount", applied.Discount.String()))
	return applied, nil
}

// Remove detaches the applied code, if any.
func (s *service) Remove(ctx context.Context, id identity.Identity) error {
	return s.repo.RemoveApplied(ctx, id)
}

// Evaluate recomputes the discount for whatever code is stored on the cart.
// It does not re-run validation: the stored code stays attached and only the
// amount tracks the current subtotal. Returns nil when no code is applied.
func (s *service) Evaluate(ctx context.Context, id identity.Identity) (*Applied, error) {
	code, err := s.repo.GetAppliedCode(ctx, id)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, nil
	}

	snap, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Applied{
		ID:          code.ID,
		Code:        code.Code,
		Description: code.Description,
		Discount:    code.DiscountFor(snap.ItemSubtotal),
	}, nil
}

func (s *service) checkUsageCaps(ctx context.Context, id identity.Identity, code *Code) error {
	if code.MaxUsesTotal > 0 {
		used, err := s.repo.CountUsage(ctx, code.ID)
		if err != nil {
			return err
		}
		if used >= code.MaxUsesTotal {
			return ErrUsageCapExceeded
		}
	}

	// per-buyer cap only enforceable for authenticated buyers
	buyerID, ok := id.BuyerID()
	if ok && code.MaxUsesPerBuyer > 0 {
		used, err := s.repo.CountUsageByBuyer(ctx, code.ID, buyerID)
		if err != nil {
			return err
		}
		if used >= code.MaxUsesPerBuyer {
			return ErrUsageCapExceeded
		}
	}

	return nil
}

func cartHasCategory(snap *cart.Snapshot, categoryID uuid.UUID) bool {
	for _, l := range snap.Lines() {
		if l.CategoryID == categoryID {
			return true
		}
	}
	return false
}
