package address

import (
	"context"
	"testing"

	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByIdentity(ctx context.Context, id identity.Identity) ([]*Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Address), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, addressID uuid.UUID) (*Address, error) {
	args := m.Called(ctx, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Address), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, id identity.Identity, addr *Address) error {
	args := m.Called(ctx, id, addr)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, id identity.Identity, addr *Address) error {
	args := m.Called(ctx, id, addr)
	return args.Error(0)
}

func (m *MockRepository) Deactivate(ctx context.Context, addressID uuid.UUID) error {
	args := m.Called(ctx, addressID)
	return args.Error(0)
}

func (m *MockRepository) SetDefault(ctx context.Context, buyerID uint, addressID uuid.UUID) error {
	args := m.Called(ctx, buyerID, addressID)
	return args.Error(0)
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
	args := m.Called(ctx, id, params)
	return args.Error(0)
}

func (m *MockCartService) Remove(ctx context.Context, id identity.Identity, productID uuid.UUID) error {
	args := m.Called(ctx, id, productID)
	return args.Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, id identity.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, opts product.GetOptions) (*product.Product, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) GetPricing(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]product.Pricing, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]product.Pricing), args.Error(1)
}

func (m *MockProductRepository) GetRestrictedNames(ctx context.Context, productIDs []uuid.UUID, country, province string) ([]string, error) {
	args := m.Called(ctx, productIDs, country, province)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func validInput() SaveAddressInput {
	return SaveAddressInput{
		Name:     "Budi",
		Phone:    "08123",
		Street:   "Jl. Sudirman 1",
		City:     "Jakarta",
		Province: "DKI Jakarta",
		Postal:   "10110",
		Country:  "ID",
	}
}

func newSvc() (*MockRepository, *MockCartService, *MockProductRepository, Service) {
	repo := new(MockRepository)
	carts := new(MockCartService)
	products := new(MockProductRepository)
	return repo, carts, products, NewService(repo, carts, products)
}

func TestSave_CreateForBuyer(t *testing.T) {
	repo, _, _, svc := newSvc()
	buyer := identity.Buyer(1)

	repo.On("Create", mock.Anything, buyer, mock.MatchedBy(func(a *Address) bool {
		return a.BuyerID != nil && *a.BuyerID == 1 && a.IsActive && !a.IsDefault
	})).Return(nil)

	addr, err := svc.Save(context.Background(), buyer, validInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, addr.ID)
	repo.AssertExpectations(t)
}

func TestSave_AnonymousNeverGetsProfileOrDefault(t *testing.T) {
	repo, _, _, svc := newSvc()
	anon := identity.Anonymous("tok")

	input := validInput()
	input.SetAsDefault = true

	repo.On("Create", mock.Anything, anon, mock.MatchedBy(func(a *Address) bool {
		return a.BuyerID == nil && !a.IsDefault
	})).Return(nil)

	_, err := svc.Save(context.Background(), anon, input)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSave_UpdateRejectsForeignAddress(t *testing.T) {
	repo, _, _, svc := newSvc()

	otherBuyer := uint(99)
	addrID := uuid.New()
	repo.On("GetByID", mock.Anything, addrID).
		Return(&Address{ID: addrID, BuyerID: &otherBuyer}, nil)

	input := validInput()
	input.AddressID = &addrID

	_, err := svc.Save(context.Background(), identity.Buyer(1), input)
	assert.ErrorIs(t, err, ErrNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnonymousAddressScopedToOwningSession(t *testing.T) {
	ownerToken := "owner-session"
	addrID := uuid.New()
	owned := &Address{ID: addrID, SessionToken: &ownerToken, Name: "Budi", Phone: "08123",
		Street: "Jl. Sudirman 1", City: "Jakarta", Province: "DKI Jakarta",
		Postal: "10110", Country: "ID", IsActive: true}

	t.Run("OtherSessionCannotRead", func(t *testing.T) {
		repo, _, _, svc := newSvc()
		repo.On("GetByID", mock.Anything, addrID).Return(owned, nil)

		_, err := svc.Get(context.Background(), identity.Anonymous("other-session"), addrID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OtherSessionCannotUpdate", func(t *testing.T) {
		repo, _, _, svc := newSvc()
		repo.On("GetByID", mock.Anything, addrID).Return(owned, nil)

		input := validInput()
		input.AddressID = &addrID

		_, err := svc.Save(context.Background(), identity.Anonymous("other-session"), input)
		assert.ErrorIs(t, err, ErrNotFound)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OtherSessionCannotDelete", func(t *testing.T) {
		repo, _, _, svc := newSvc()
		repo.On("GetByID", mock.Anything, addrID).Return(owned, nil)

		err := svc.Delete(context.Background(), identity.Anonymous("other-session"), addrID)
		assert.ErrorIs(t, err, ErrNotFound)
		repo.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
	})

	t.Run("BuyerCannotClaimSessionAddress", func(t *testing.T) {
		repo, _, _, svc := newSvc()
		repo.On("GetByID", mock.Anything, addrID).Return(owned, nil)

		_, err := svc.Get(context.Background(), identity.Buyer(1), addrID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OwningSessionReads", func(t *testing.T) {
		repo, _, _, svc := newSvc()
		repo.On("GetByID", mock.Anything, addrID).Return(owned, nil)

		got, err := svc.Get(context.Background(), identity.Anonymous(ownerToken), addrID)
		require.NoError(t, err)
		assert.Equal(t, addrID, got.ID)
	})
}

func TestSave_InvalidInput(t *testing.T) {
	_, _, _, svc := newSvc()

	input := validInput()
	input.Name = "  "

	_, err := svc.Save(context.Background(), identity.Buyer(1), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetDefault_RequiresAuthenticatedBuyer(t *testing.T) {
	repo, _, _, svc := newSvc()

	err := svc.SetDefault(context.Background(), identity.Anonymous("tok"), uuid.New())
	assert.ErrorIs(t, err, ErrUnauthorized)
	repo.AssertNotCalled(t, "SetDefault", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateShipping_RestrictedProductsBlockShipping(t *testing.T) {
	_, carts, products, svc := newSvc()
	buyer := identity.Buyer(1)

	p1, p2 := uuid.New(), uuid.New()
	snap := &cart.Snapshot{
		Groups: []cart.SellerGroup{{
			SellerID: uuid.New(),
			Lines: []cart.Line{
				{ProductID: p1, ProductName: "Durian Beku", Quantity: 1, LineTotal: decimal.Zero},
				{ProductID: p2, ProductName: "Teh Melati", Quantity: 2, LineTotal: decimal.Zero},
			},
		}},
	}

	carts.On("GetCart", mock.Anything, buyer).Return(snap, nil)
	products.On("GetRestrictedNames", mock.Anything, []uuid.UUID{p1, p2}, "ID", "Papua").
		Return([]string{"Durian Beku"}, nil)

	report, err := svc.ValidateShipping(context.Background(), buyer, "ID", "Papua", "99111")
	require.NoError(t, err)
	assert.False(t, report.CanShip)
	assert.Equal(t, []string{"Durian Beku"}, report.RestrictedProductNames)
}

func TestValidateShipping_CleanCartCanShip(t *testing.T) {
	_, carts, products, svc := newSvc()
	buyer := identity.Buyer(1)

	p1 := uuid.New()
	snap := &cart.Snapshot{
		Groups: []cart.SellerGroup{{
			SellerID: uuid.New(),
			Lines:    []cart.Line{{ProductID: p1, Quantity: 1}},
		}},
	}

	carts.On("GetCart", mock.Anything, buyer).Return(snap, nil)
	products.On("GetRestrictedNames", mock.Anything, []uuid.UUID{p1}, "ID", "DKI Jakarta").
		Return([]string{}, nil)

	report, err := svc.ValidateShipping(context.Background(), buyer, "ID", "DKI Jakarta", "10110")
	require.NoError(t, err)
	assert.True(t, report.CanShip)
	assert.Empty(t, report.RestrictedProductNames)
}

func TestValidateShipping_EmptyCartShipsAnywhere(t *testing.T) {
	_, carts, products, svc := newSvc()

	carts.On("GetCart", mock.Anything, mock.Anything).Return(&cart.Snapshot{}, nil)

	report, err := svc.ValidateShipping(context.Background(), identity.Buyer(1), "ID", "Bali", "80111")
	require.NoError(t, err)
	assert.True(t, report.CanShip)
	products.AssertNotCalled(t, "GetRestrictedNames", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
