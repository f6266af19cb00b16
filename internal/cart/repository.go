package cart

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	GetItem(ctx context.Context, id identity.Identity, productID uuid.UUID) (*Item, error)
	CreateItem(ctx context.Context, id identity.Identity, productID uuid.UUID, quantity int, capturedPrice decimal.Decimal) (*Item, error)
	UpdateQuantity(ctx context.Context, id identity.Identity, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, id identity.Identity, productID uuid.UUID) error
	Clear(ctx context.Context, id identity.Identity) error
	GetRows(ctx context.Context, id identity.Identity) ([]Line, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetItem(
	ctx context.Context,
	id identity.Identity,
	productID uuid.UUID,
) (*Item, error) {

	col, val := id.Predicate()
	query := fmt.Sprintf(`
	SELECT id, product_id, quantity, captured_price, created_at, updated_at
	FROM cart_items
	WHERE %s = $1 AND product_id = $2
	`, col)

	var item Item
	err := r.db.QueryRowContext(ctx, query, val, productID).Scan(
		&item.ID,
		&item.ProductID,
		&item.Quantity,
		&item.CapturedPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *repository) CreateItem(
	ctx context.Context,
	id identity.Identity,
	productID uuid.UUID,
	quantity int,
	capturedPrice decimal.Decimal,
) (*Item, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateItem"),
		zap.String("identity", id.Key()),
		zap.String("product_id", productID.String()),
	)

	var buyerID *uint
	var token *string
	if b, ok := id.BuyerID(); ok {
		buyerID = &b
	} else if t, ok := id.SessionToken(); ok {
		token = &t
	}

	const query = `
	INSERT INTO cart_items (id, buyer_id, session_token, product_id, quantity, captured_price)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, product_id, quantity, captured_price, created_at, updated_at
	`

	var item Item
	err := r.db.QueryRowContext(
		ctx, query,
		uuid.New(), buyerID, token, productID, quantity, capturedPrice,
	).Scan(
		&item.ID,
		&item.ProductID,
		&item.Quantity,
		&item.CapturedPrice,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create cart item", zap.Error(err))
		return nil, err
	}

	log.Info("cart item created", zap.String("cart_item_id", item.ID.String()))
	return &item, nil
}

func (r *repository) UpdateQuantity(
	ctx context.Context,
	id identity.Identity,
	productID uuid.UUID,
	quantity int,
) error {

	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	col, val := id.Predicate()
	query := fmt.Sprintf(`
	UPDATE cart_items
	SET quantity = $1, updated_at = NOW()
	WHERE %s = $2 AND product_id = $3
	`, col)

	res, err := r.db.ExecContext(ctx, query, quantity, val, productID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *repository) Remove(
	ctx context.Context,
	id identity.Identity,
	productID uuid.UUID,
) error {

	col, val := id.Predicate()
	query := fmt.Sprintf(`
	DELETE FROM cart_items
	WHERE %s = $1 AND product_id = $2
	`, col)

	res, err := r.db.ExecContext(ctx, query, val, productID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *repository) Clear(ctx context.Context, id identity.Identity) error {
	col, val := id.Predicate()
	query := fmt.Sprintf(`DELETE FROM cart_items WHERE %s = $1`, col)

	_, err := r.db.ExecContext(ctx, query, val)
	return err
}

// GetRows joins cart items with current product and seller data, ordered by
// seller then insertion time so snapshot grouping is stable.
func (r *repository) GetRows(ctx context.Context, id identity.Identity) ([]Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetRows"),
		zap.String("identity", id.Key()),
	)

	start := time.Now()

	col, val := id.Predicate()
	query := fmt.Sprintf(`
	SELECT
		c.product_id,
		p.name,
		p.seller_id,
		COALESCE(s.name, 'UNKNOWN'),
		p.category_id,
		p.image_url,
		c.quantity,
		p.price,
		c.captured_price,
		p.stock
	FROM cart_items c
	JOIN products p ON c.product_id = p.id
	LEFT JOIN sellers s ON p.seller_id = s.id
	WHERE c.%s = $1
	ORDER BY p.seller_id, c.created_at
	`, col)

	rows, err := r.db.QueryContext(ctx, query, val)
	if err != nil {
		log.Error("query failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}
	defer rows.Close()

	var result []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ProductID,
			&l.ProductName,
			&l.SellerID,
			&l.SellerName,
			&l.CategoryID,
			&l.ImageURL,
			&l.Quantity,
			&l.UnitPrice,
			&l.CapturedPrice,
			&l.Stock,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, err
		}
		result = append(result, l)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	log.Debug("query success",
		zap.Int("rows", len(result)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}
