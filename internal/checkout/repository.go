package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/shipping"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository stores one checkout state row per identity. Selections live in
// a jsonb column keyed by seller id. It doubles as the shipping package's
// SelectionStore.
type Repository interface {
	Get(ctx context.Context, id identity.Identity) (*State, error)
	SetAddress(ctx context.Context, id identity.Identity, addressID uuid.UUID) error
	SaveSelections(ctx context.Context, id identity.Identity, selections shipping.Selections) error
	SetPaymentMethod(ctx context.Context, id identity.Identity, method string) error
	Clear(ctx context.Context, id identity.Identity) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id identity.Identity) (*State, error) {
	col, val := id.Predicate()
	query := fmt.Sprintf(`
	SELECT buyer_id, session_token, address_id, selections, payment_method, updated_at
	FROM checkout_states
	WHERE %s = $1
	`, col)

	var st State
	var selectionsRaw []byte
	err := r.db.QueryRowContext(ctx, query, val).Scan(
		&st.BuyerID,
		&st.SessionToken,
		&st.AddressID,
		&selectionsRaw,
		&st.PaymentMethod,
		&st.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(selectionsRaw) > 0 {
		if err := json.Unmarshal(selectionsRaw, &st.Selections); err != nil {
			return nil, fmt.Errorf("corrupt selections payload: %w", err)
		}
	}

	return &st, nil
}

// SetAddress upserts the state row with the new address and wipes the
// stored selections: shipping offers depend on the destination, so a new
// address invalidates any earlier choice.
func (r *repository) SetAddress(ctx context.Context, id identity.Identity, addressID uuid.UUID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "SetAddress"),
		zap.String("identity", id.Key()),
	)

	col, val := id.Predicate()

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE checkout_states
		SET address_id = $1, selections = NULL, payment_method = NULL, updated_at = now()
		WHERE %s = $2
	`, col), addressID, val)
	if err != nil {
		log.Error("failed to update checkout state", zap.Error(err))
		return err
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return nil
	}

	buyerID, token := columns(id)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checkout_states (buyer_id, session_token, address_id)
		VALUES ($1, $2, $3)
	`, buyerID, token, addressID)
	if err != nil {
		log.Error("failed to insert checkout state", zap.Error(err))
	}
	return err
}

func (r *repository) SaveSelections(ctx context.Context, id identity.Identity, selections shipping.Selections) error {
	payload, err := json.Marshal(selections)
	if err != nil {
		return err
	}

	col, val := id.Predicate()
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE checkout_states
		SET selections = $1, updated_at = now()
		WHERE %s = $2
	`, col), payload, val)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return nil
	}

	buyerID, token := columns(id)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checkout_states (buyer_id, session_token, selections)
		VALUES ($1, $2, $3)
	`, buyerID, token, payload)
	return err
}

func (r *repository) SetPaymentMethod(ctx context.Context, id identity.Identity, method string) error {
	col, val := id.Predicate()
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE checkout_states
		SET payment_method = $1, updated_at = now()
		WHERE %s = $2
	`, col), method, val)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &IncompleteStateError{Step: StepAddress}
	}
	return nil
}

func (r *repository) Clear(ctx context.Context, id identity.Identity) error {
	col, val := id.Predicate()
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM checkout_states WHERE %s = $1`, col), val)
	return err
}

func columns(id identity.Identity) (buyerID *uint, token *string) {
	if b, ok := id.BuyerID(); ok {
		buyerID = &b
	} else if t, ok := id.SessionToken(); ok {
		token = &t
	}
	return
}
