package promo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Code, error)
	GetAppliedCode(ctx context.Context, id identity.Identity) (*Code, error)
	SaveApplied(ctx context.Context, id identity.Identity, codeID uuid.UUID) error
	RemoveApplied(ctx context.Context, id identity.Identity) error
	CountUsage(ctx context.Context, codeID uuid.UUID) (int, error)
	CountUsageByBuyer(ctx context.Context, codeID uuid.UUID, buyerID uint) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const codeColumns = `
	id, code, description, kind, value,
	min_subtotal, eligible_category,
	starts_at, ends_at,
	max_uses_total, max_uses_per_buyer,
	active
`

// Same list qualified for the cart_promos join, where both sides carry an id.
const joinedCodeColumns = `
	pc.id, pc.code, pc.description, pc.kind, pc.value,
	pc.min_subtotal, pc.eligible_category,
	pc.starts_at, pc.ends_at,
	pc.max_uses_total, pc.max_uses_per_buyer,
	pc.active
`

func scanCode(row *sql.Row) (*Code, error) {
	var c Code
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.Kind, &c.Value,
		&c.MinSubtotal, &c.EligibleCategory,
		&c.StartsAt, &c.EndsAt,
		&c.MaxUsesTotal, &c.MaxUsesPerBuyer,
		&c.Active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Code, error) {
	query := `
	SELECT ` + codeColumns + `
	FROM promo_codes
	WHERE UPPER(code) = UPPER($1)
	LIMIT 1
	`

	c, err := scanCode(r.db.QueryRowContext(ctx, query, strings.TrimSpace(code)))
	if err != nil {
		logger.FromCtx(ctx).Error("promo code query failed",
			zap.String("code", code),
			zap.Error(err),
		)
	}
	return c, err
}

// GetAppliedCode loads the code row currently attached to the identity's
// cart, if any. Only the code is stored; nothing about the discount amount.
func (r *repository) GetAppliedCode(ctx context.Context, id identity.Identity) (*Code, error) {
	col, val := id.Predicate()
	query := fmt.Sprintf(`
	SELECT `+joinedCodeColumns+`
	FROM cart_promos cp
	JOIN promo_codes pc ON pc.id = cp.promo_code_id
	WHERE cp.%s = $1
	LIMIT 1
	`, col)

	c, err := scanCode(r.db.QueryRowContext(ctx, query, val))
	if err != nil {
		logger.FromCtx(ctx).Error("applied promo query failed",
			zap.String("identity", id.Key()),
			zap.Error(err),
		)
	}
	return c, err
}

// SaveApplied fills the single promo slot for the identity, replacing any
// code already there.
func (r *repository) SaveApplied(ctx context.Context, id identity.Identity, codeID uuid.UUID) error {
	col, val := id.Predicate()

	update := fmt.Sprintf(`
	UPDATE cart_promos
	SET promo_code_id = $1, applied_at = NOW()
	WHERE %s = $2
	`, col)

	res, err := r.db.ExecContext(ctx, update, codeID, val)
	if err == nil {
		if affected, aerr := res.RowsAffected(); aerr == nil && affected > 0 {
			return nil
		}
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update applied promo",
			zap.String("identity", id.Key()),
			zap.Error(err),
		)
		return err
	}

	var buyerID *uint
	var token *string
	if b, ok := id.BuyerID(); ok {
		buyerID = &b
	} else if t, ok := id.SessionToken(); ok {
		token = &t
	}

	const insert = `
	INSERT INTO cart_promos (buyer_id, session_token, promo_code_id)
	VALUES ($1, $2, $3)
	`

	_, err = r.db.ExecContext(ctx, insert, buyerID, token, codeID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to save applied promo",
			zap.String("identity", id.Key()),
			zap.Error(err),
		)
	}
	return err
}

func (r *repository) RemoveApplied(ctx context.Context, id identity.Identity) error {
	col, val := id.Predicate()
	query := fmt.Sprintf(`DELETE FROM cart_promos WHERE %s = $1`, col)

	res, err := r.db.ExecContext(ctx, query, val)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoPromoApplied
	}

	return nil
}

func (r *repository) CountUsage(ctx context.Context, codeID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM promo_usages WHERE promo_code_id = $1`

	var n int
	err := r.db.QueryRowContext(ctx, query, codeID).Scan(&n)
	return n, err
}

func (r *repository) CountUsageByBuyer(ctx context.Context, codeID uuid.UUID, buyerID uint) (int, error) {
	const query = `SELECT COUNT(*) FROM promo_usages WHERE promo_code_id = $1 AND buyer_id = $2`

	var n int
	err := r.db.QueryRowContext(ctx, query, codeID, buyerID).Scan(&n)
	return n, err
}
