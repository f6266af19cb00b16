package shipping

import (
	"context"

	"lokapasar-be/internal/address"
	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SelectionStore persists the buyer's per-seller method choices across
// checkout steps. Implemented by the checkout state repository.
type SelectionStore interface {
	SaveSelections(ctx context.Context, id identity.Identity, selections Selections) error
}

// Service resolves shipping options per seller group and records the buyer's
// selection. Stored selections are opaque until the payment step re-resolves
// their costs.
type Service interface {
	GetOptions(ctx context.Context, id identity.Identity, addressID uuid.UUID) ([]SellerOptions, error)
	Select(ctx context.Context, id identity.Identity, addressID uuid.UUID, selections Selections) error
	ResolveSelected(ctx context.Context, id identity.Identity, addressID uuid.UUID, selections Selections) ([]SellerFee, error)
}

type service struct {
	repo      Repository
	carts     cart.Service
	addresses address.Service
	store     SelectionStore
}

func NewService(repo Repository, carts cart.Service, addresses address.Service, store SelectionStore) Service {
	return &service{repo: repo, carts: carts, addresses: addresses, store: store}
}

// GetOptions returns the offered methods for every seller group in the cart,
// resolved against the chosen address. Different sellers may quote different
// carriers and costs for the same destination.
func (s *service) GetOptions(ctx context.Context, id identity.Identity, addressID uuid.UUID) ([]SellerOptions, error) {
	snap, addr, err := s.loadCartAndAddress(ctx, id, addressID)
	if err != nil {
		return nil, err
	}

	methods, err := s.repo.GetMethodsForSellers(ctx, snap.SellerIDs(), addr.Country, addr.Province)
	if err != nil {
		return nil, err
	}

	bySeller := make(map[uuid.UUID][]Method)
	for _, m := range methods {
		bySeller[m.SellerID] = append(bySeller[m.SellerID], m)
	}

	options := make([]SellerOptions, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		options = append(options, SellerOptions{
			SellerID:   g.SellerID,
			SellerName: g.SellerName,
			Methods:    bySeller[g.SellerID],
		})
	}

	return options, nil
}

// Select validates the submitted selections against the offered sets and the
// cart's seller groups, then persists them. All-or-nothing: one bad or
// missing entry fails the call and leaves previously stored selections
// exactly as they were.
func (s *service) Select(ctx context.Context, id identity.Identity, addressID uuid.UUID, selections Selections) error {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Shipping"),
		zap.String("method", "Select"),
		zap.String("identity", id.Key()),
		zap.Int("selection_count", len(selections)),
	)

	if _, err := s.validate(ctx, id, addressID, selections); err != nil {
		log.Warn("selection rejected", zap.Error(err))
		return err
	}

	if err := s.store.SaveSelections(ctx, id, selections); err != nil {
		log.Error("failed to persist selections", zap.Error(err))
		return err
	}

	log.Info("shipping selections saved")
	return nil
}

// ResolveSelected re-validates stored selections against the current offers
// and returns their present costs. The payment step uses this instead of any
// amount remembered at selection time.
func (s *service) ResolveSelected(ctx context.Context, id identity.Identity, addressID uuid.UUID, selections Selections) ([]SellerFee, error) {
	offered, err := s.validate(ctx, id, addressID, selections)
	if err != nil {
		return nil, err
	}

	fees := make([]SellerFee, 0, len(selections))
	for sellerID, methodID := range selections {
		m := offered[sellerID][methodID]
		fees = append(fees, SellerFee{
			SellerID: sellerID,
			MethodID: methodID,
			Carrier:  m.Carrier,
			Name:     m.Name,
			Cost:     m.Cost,
		})
	}

	return fees, nil
}

// validate checks coverage (every seller group selected, no stray sellers)
// and membership (every method belongs to its seller's offered set), and
// returns the offered methods indexed by seller and method id.
func (s *service) validate(ctx context.Context, id identity.Identity, addressID uuid.UUID, selections Selections) (map[uuid.UUID]map[uuid.UUID]Method, error) {
	snap, addr, err := s.loadCartAndAddress(ctx, id, addressID)
	if err != nil {
		return nil, err
	}

	if len(selections) != len(snap.Groups) {
		return nil, ErrIncompleteSelection
	}

	methods, err := s.repo.GetMethodsForSellers(ctx, snap.SellerIDs(), addr.Country, addr.Province)
	if err != nil {
		return nil, err
	}

	offered := make(map[uuid.UUID]map[uuid.UUID]Method)
	for _, m := range methods {
		if offered[m.SellerID] == nil {
			offered[m.SellerID] = make(map[uuid.UUID]Method)
		}
		offered[m.SellerID][m.ID] = m
	}

	for _, g := range snap.Groups {
		methodID, ok := selections[g.SellerID]
		if !ok {
			return nil, ErrIncompleteSelection
		}
		if _, ok := offered[g.SellerID][methodID]; !ok {
			return nil, ErrMethodNotOffered
		}
	}

	return offered, nil
}

func (s *service) loadCartAndAddress(ctx context.Context, id identity.Identity, addressID uuid.UUID) (*cart.Snapshot, *address.Address, error) {
	if addressID == uuid.Nil {
		return nil, nil, ErrAddressRequired
	}

	snap, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if snap.IsEmpty() {
		return nil, nil, ErrEmptyCart
	}

	addr, err := s.addresses.Get(ctx, id, addressID)
	if err != nil {
		return nil, nil, err
	}

	return snap, addr, nil
}
