package address

import (
	"context"
	"database/sql"
	"fmt"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	GetByIdentity(ctx context.Context, id identity.Identity) ([]*Address, error)
	GetByID(ctx context.Context, addressID uuid.UUID) (*Address, error)

	Create(ctx context.Context, id identity.Identity, addr *Address) error
	Update(ctx context.Context, id identity.Identity, addr *Address) error
	Deactivate(ctx context.Context, addressID uuid.UUID) error

	SetDefault(ctx context.Context, buyerID uint, addressID uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const addrColumns = `
	id, buyer_id, session_token,
	name, phone, label,
	street, street2,
	city, province, postal_code, country,
	is_default, is_active
`

func scanAddress(scan func(dest ...any) error) (*Address, error) {
	var a Address
	err := scan(
		&a.ID, &a.BuyerID, &a.SessionToken,
		&a.Name, &a.Phone, &a.Label,
		&a.Street, &a.Street2,
		&a.City, &a.Province, &a.Postal, &a.Country,
		&a.IsDefault, &a.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) GetByIdentity(ctx context.Context, id identity.Identity) ([]*Address, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "GetByIdentity"),
		zap.String("identity", id.Key()),
	)

	col, val := id.Predicate()
	query := fmt.Sprintf(`
		SELECT `+addrColumns+`
		FROM addresses
		WHERE %s = $1
		  AND is_active = true
		ORDER BY is_default DESC, created_at DESC
	`, col)

	rows, err := r.db.QueryContext(ctx, query, val)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*Address
	for rows.Next() {
		a, err := scanAddress(rows.Scan)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, a)
	}

	return res, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, addressID uuid.UUID) (*Address, error) {
	const query = `
		SELECT ` + addrColumns + `
		FROM addresses
		WHERE id = $1 AND is_active = true
		LIMIT 1
	`

	a, err := scanAddress(r.db.QueryRowContext(ctx, query, addressID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("address query failed",
			zap.String("address_id", addressID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return a, nil
}

// Create inserts the address; when it is flagged default the previous default
// for the same buyer is cleared in the same transaction.
func (r *repository) Create(ctx context.Context, id identity.Identity, addr *Address) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "Create"),
		zap.String("address_id", addr.ID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if addr.IsDefault && addr.BuyerID != nil {
		if err := clearDefaultTx(ctx, tx, *addr.BuyerID); err != nil {
			log.Error("failed to clear previous default", zap.Error(err))
			return err
		}
	}

	if t, ok := id.SessionToken(); ok {
		addr.SessionToken = &t
	}

	const query = `
		INSERT INTO addresses (
			id, buyer_id, session_token,
			name, phone, label,
			street, street2,
			city, province, postal_code, country,
			is_default, is_active
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8,
			$9, $10, $11, $12,
			$13, $14
		)
	`

	_, err = tx.ExecContext(
		ctx, query,
		addr.ID, addr.BuyerID, addr.SessionToken,
		addr.Name, addr.Phone, addr.Label,
		addr.Street, addr.Street2,
		addr.City, addr.Province, addr.Postal, addr.Country,
		addr.IsDefault, addr.IsActive,
	)
	if err != nil {
		log.Error("insert failed", zap.Error(err))
		return err
	}

	return tx.Commit()
}

// Update rewrites the mutable fields, clearing the previous default in the
// same transaction when the updated address becomes the default.
func (r *repository) Update(ctx context.Context, id identity.Identity, addr *Address) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "Update"),
		zap.String("address_id", addr.ID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if addr.IsDefault && addr.BuyerID != nil {
		if err := clearDefaultTx(ctx, tx, *addr.BuyerID); err != nil {
			log.Error("failed to clear previous default", zap.Error(err))
			return err
		}
	}

	const query = `
		UPDATE addresses
		SET name = $1, phone = $2, label = $3,
		    street = $4, street2 = $5,
		    city = $6, province = $7, postal_code = $8, country = $9,
		    is_default = $10,
		    updated_at = NOW()
		WHERE id = $11 AND is_active = true
	`

	res, err := tx.ExecContext(
		ctx, query,
		addr.Name, addr.Phone, addr.Label,
		addr.Street, addr.Street2,
		addr.City, addr.Province, addr.Postal, addr.Country,
		addr.IsDefault,
		addr.ID,
	)
	if err != nil {
		log.Error("update failed", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *repository) Deactivate(ctx context.Context, addressID uuid.UUID) error {
	const query = `
		UPDATE addresses
		SET is_active = false,
		    is_default = false
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, addressID)
	return err
}

// SetDefault atomically moves the default flag to the given address.
func (r *repository) SetDefault(ctx context.Context, buyerID uint, addressID uuid.UUID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "SetDefault"),
		zap.Uint("buyer_id", buyerID),
		zap.String("address_id", addressID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearDefaultTx(ctx, tx, buyerID); err != nil {
		log.Error("failed to clear previous default", zap.Error(err))
		return err
	}

	const query = `
		UPDATE addresses
		SET is_default = true
		WHERE buyer_id = $1
		  AND id = $2
		  AND is_active = true
	`

	res, err := tx.ExecContext(ctx, query, buyerID, addressID)
	if err != nil {
		log.Error("set default failed", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func clearDefaultTx(ctx context.Context, tx *sql.Tx, buyerID uint) error {
	const query = `
		UPDATE addresses
		SET is_default = false
		WHERE buyer_id = $1
		  AND is_default = true
	`

	_, err := tx.ExecContext(ctx, query, buyerID)
	return err
}
