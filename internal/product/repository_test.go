package product

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	productID := uuid.New()
	sellerID := uuid.New()
	categoryID := uuid.New()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "seller_id", "seller_name",
			"category_id", "price", "stock", "status", "image_url",
		}).AddRow(
			productID, "Kopi Gayo 250g", sellerID, "Toko Aceh",
			categoryID, "50.00", 12, StatusActive, nil,
		)

		mock.ExpectQuery("SELECT(.|\n)+FROM products p").
			WithArgs(productID).
			WillReturnRows(rows)

		p, err := repo.GetByID(context.Background(), GetOptions{ProductID: productID, OnlyActive: true})
		require.NoError(t, err)
		assert.Equal(t, "Kopi Gayo 250g", p.Name)
		assert.Equal(t, "Toko Aceh", p.SellerName)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("50.00")))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT(.|\n)+FROM products p").
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		p, err := repo.GetByID(context.Background(), GetOptions{ProductID: productID})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetPricing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	idA := uuid.New()
	idB := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "name", "price", "stock"}).
		AddRow(idA, "Kopi Gayo 250g", "50.00", 12).
		AddRow(idB, "Teh Melati", "15.50", 0)

	mock.ExpectQuery("SELECT id, name, price, stock(.|\n)+FROM products").
		WillReturnRows(rows)

	pricing, err := repo.GetPricing(context.Background(), []uuid.UUID{idA, idB})
	require.NoError(t, err)
	require.Len(t, pricing, 2)
	assert.Equal(t, 12, pricing[idA].Stock)
	assert.Equal(t, 0, pricing[idB].Stock)
	assert.True(t, pricing[idB].Price.Equal(decimal.RequireFromString("15.50")))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetRestrictedNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	productID := uuid.New()

	mock.ExpectQuery("SELECT DISTINCT p.name(.|\n)+FROM shipping_restrictions sr").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Durian Beku"))

	names, err := repo.GetRestrictedNames(context.Background(), []uuid.UUID{productID}, "ID", "Papua")
	require.NoError(t, err)
	assert.Equal(t, []string{"Durian Beku"}, names)

	require.NoError(t, mock.ExpectationsWereMet())
}
