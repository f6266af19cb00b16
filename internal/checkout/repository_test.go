package checkout

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/shipping"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	buyer := identity.Buyer(1)

	t.Run("WithSelections", func(t *testing.T) {
		sellerID := uuid.New()
		methodID := uuid.New()
		payload, _ := json.Marshal(shipping.Selections{sellerID: methodID})
		addrID := uuid.New()
		buyerID := uint(1)

		rows := sqlmock.NewRows([]string{
			"buyer_id", "session_token", "address_id", "selections", "payment_method", "updated_at",
		}).AddRow(buyerID, nil, addrID, payload, "QRIS", time.Now())

		mock.ExpectQuery(`SELECT buyer_id, session_token, address_id, selections, payment_method, updated_at\s+FROM checkout_states\s+WHERE buyer_id = \$1`).
			WithArgs(buyerID).
			WillReturnRows(rows)

		st, err := repo.Get(context.Background(), buyer)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, &addrID, st.AddressID)
		assert.Equal(t, methodID, st.Selections[sellerID])
		assert.Equal(t, StepPayment, st.CurrentStep())
	})

	t.Run("NoState", func(t *testing.T) {
		mock.ExpectQuery(`SELECT buyer_id, session_token`).
			WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{
				"buyer_id", "session_token", "address_id", "selections", "payment_method", "updated_at",
			}))

		st, err := repo.Get(context.Background(), buyer)
		assert.NoError(t, err)
		assert.Nil(t, st)
		assert.Equal(t, StepAddress, st.CurrentStep())
	})

	t.Run("AnonymousScopedBySessionToken", func(t *testing.T) {
		anon := identity.Anonymous("tok-abc")

		mock.ExpectQuery(`WHERE session_token = \$1`).
			WithArgs("tok-abc").
			WillReturnRows(sqlmock.NewRows([]string{
				"buyer_id", "session_token", "address_id", "selections", "payment_method", "updated_at",
			}))

		_, err := repo.Get(context.Background(), anon)
		assert.NoError(t, err)
	})
}

func TestRepository_SetAddress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	buyer := identity.Buyer(1)
	addrID := uuid.New()

	t.Run("UpdateResetsLaterSteps", func(t *testing.T) {
		mock.ExpectExec(`UPDATE checkout_states\s+SET address_id = \$1, selections = NULL, payment_method = NULL`).
			WithArgs(addrID, uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetAddress(context.Background(), buyer, addrID)
		assert.NoError(t, err)
	})

	t.Run("InsertWhenNoRow", func(t *testing.T) {
		mock.ExpectExec(`UPDATE checkout_states`).
			WithArgs(addrID, uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO checkout_states`).
			WithArgs(sqlmock.AnyArg(), nil, addrID).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SetAddress(context.Background(), buyer, addrID)
		assert.NoError(t, err)
	})
}

func TestRepository_SetPaymentMethod(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	buyer := identity.Buyer(1)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE checkout_states\s+SET payment_method = \$1`).
			WithArgs("QRIS", uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetPaymentMethod(context.Background(), buyer, "QRIS")
		assert.NoError(t, err)
	})

	t.Run("NoStateMeansStartOver", func(t *testing.T) {
		mock.ExpectExec(`UPDATE checkout_states`).
			WithArgs("QRIS", uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetPaymentMethod(context.Background(), buyer, "QRIS")
		var incomplete *IncompleteStateError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, StepAddress, incomplete.Step)
	})
}

func TestRepository_Clear(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(`DELETE FROM checkout_states WHERE buyer_id = \$1`).
		WithArgs(uint(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Clear(context.Background(), identity.Buyer(9)))
}
