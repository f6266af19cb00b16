package address

import (
	"context"
	"strings"

	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/product"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the business logic for delivery addresses.
type Service interface {
	List(ctx context.Context, id identity.Identity) ([]*Address, error)
	Get(ctx context.Context, id identity.Identity, addressID uuid.UUID) (*Address, error)

	Save(ctx context.Context, id identity.Identity, input SaveAddressInput) (*Address, error)
	Delete(ctx context.Context, id identity.Identity, addressID uuid.UUID) error
	SetDefault(ctx context.Context, id identity.Identity, addressID uuid.UUID) error

	ValidateShipping(ctx context.Context, id identity.Identity, country, province, postal string) (*ShippabilityReport, error)
}

type service struct {
	repo        Repository
	carts       cart.Service
	productRepo product.Repository
}

func NewService(repo Repository, carts cart.Service, productRepo product.Repository) Service {
	return &service{repo: repo, carts: carts, productRepo: productRepo}
}

func (s *service) List(ctx context.Context, id identity.Identity) ([]*Address, error) {
	return s.repo.GetByIdentity(ctx, id)
}

func (s *service) Get(ctx context.Context, id identity.Identity, addressID uuid.UUID) (*Address, error) {
	addr, err := s.repo.GetByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if !ownedBy(addr, id) {
		return nil, ErrNotFound
	}
	return addr, nil
}

// Save creates a new address or updates the one named by input.AddressID.
// Authenticated buyers persist to their profile; anonymous buyers get a
// session-scoped row that dies with the session. Setting the default clears
// any previous default in the same transaction.
func (s *service) Save(ctx context.Context, id identity.Identity, input SaveAddressInput) (*Address, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "Save"),
		zap.String("identity", id.Key()),
	)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	var buyerID *uint
	if b, ok := id.BuyerID(); ok {
		buyerID = &b
	}

	// default flag is meaningless outside a profile
	setDefault := input.SetAsDefault && buyerID != nil

	if input.AddressID != nil {
		existing, err := s.repo.GetByID(ctx, *input.AddressID)
		if err != nil {
			return nil, err
		}
		if !ownedBy(existing, id) {
			return nil, ErrNotFound
		}

		existing.Name = input.Name
		existing.Phone = input.Phone
		existing.Label = input.Label
		existing.Street = input.Street
		existing.Street2 = input.Street2
		existing.City = input.City
		existing.Province = input.Province
		existing.Postal = input.Postal
		existing.Country = input.Country
		if setDefault {
			existing.IsDefault = true
		}

		if err := s.repo.Update(ctx, id, existing); err != nil {
			log.Error("failed to update address", zap.Error(err))
			return nil, err
		}

		log.Info("address updated", zap.String("address_id", existing.ID.String()))
		return existing, nil
	}

	addr := &Address{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		Name:      input.Name,
		Phone:     input.Phone,
		Label:     input.Label,
		Street:    input.Street,
		Street2:   input.Street2,
		City:      input.City,
		Province:  input.Province,
		Postal:    input.Postal,
		Country:   input.Country,
		IsDefault: setDefault,
		IsActive:  true,
	}

	if err := s.repo.Create(ctx, id, addr); err != nil {
		log.Error("failed to create address", zap.Error(err))
		return nil, err
	}

	log.Info("address created", zap.String("address_id", addr.ID.String()))
	return addr, nil
}

func (s *service) Delete(ctx context.Context, id identity.Identity, addressID uuid.UUID) error {
	addr, err := s.repo.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if !ownedBy(addr, id) {
		return ErrNotFound
	}

	return s.repo.Deactivate(ctx, addressID)
}

func (s *service) SetDefault(ctx context.Context, id identity.Identity, addressID uuid.UUID) error {
	buyerID, ok := id.BuyerID()
	if !ok {
		return ErrUnauthorized
	}

	return s.repo.SetDefault(ctx, buyerID, addressID)
}

// ValidateShipping checks every distinct product in the cart against region
// restrictions for the destination. Any restricted product makes the report
// unshippable; callers must run this before persisting an address selection.
func (s *service) ValidateShipping(ctx context.Context, id identity.Identity, country, province, postal string) (*ShippabilityReport, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "ValidateShipping"),
		zap.String("identity", id.Key()),
		zap.String("country", country),
		zap.String("province", province),
	)

	snap, err := s.carts.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.IsEmpty() {
		return &ShippabilityReport{CanShip: true}, nil
	}

	names, err := s.productRepo.GetRestrictedNames(ctx, snap.ProductIDs(), country, province)
	if err != nil {
		return nil, err
	}

	if len(names) > 0 {
		log.Info("cart has restricted products", zap.Strings("products", names))
		return &ShippabilityReport{CanShip: false, RestrictedProductNames: names}, nil
	}

	return &ShippabilityReport{CanShip: true}, nil
}

func ownedBy(addr *Address, id identity.Identity) bool {
	if addr == nil {
		return false
	}
	if buyerID, ok := id.BuyerID(); ok {
		return addr.BuyerID != nil && *addr.BuyerID == buyerID
	}
	// anonymous ownership is scoped to the exact session token; another
	// guest holding the address id must not see or touch the row
	if token, ok := id.SessionToken(); ok {
		return addr.BuyerID == nil && addr.SessionToken != nil && *addr.SessionToken == token
	}
	return false
}

func validateInput(input SaveAddressInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "",
		strings.TrimSpace(input.Phone) == "",
		strings.TrimSpace(input.Street) == "",
		strings.TrimSpace(input.City) == "",
		strings.TrimSpace(input.Country) == "":
		return ErrInvalidInput
	}
	return nil
}
