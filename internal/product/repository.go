package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetByID(ctx context.Context, opts GetOptions) (*Product, error)
	GetPricing(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]Pricing, error)
	GetRestrictedNames(ctx context.Context, productIDs []uuid.UUID, country, province string) ([]string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, opts GetOptions) (*Product, error) {
	where := []string{"p.id = $1"}
	if opts.OnlyActive {
		where = append(where, fmt.Sprintf("p.status = '%s'", StatusActive))
	}

	query := `
	SELECT
		p.id, p.name, p.seller_id, COALESCE(s.name, 'UNKNOWN'),
		p.category_id, p.price, p.stock, p.status, p.image_url
	FROM products p
	LEFT JOIN sellers s ON p.seller_id = s.id
	WHERE ` + strings.Join(where, " AND ")

	var p Product
	err := r.db.QueryRowContext(ctx, query, opts.ProductID).Scan(
		&p.ID, &p.Name, &p.SellerID, &p.SellerName,
		&p.CategoryID, &p.Price, &p.Stock, &p.Status, &p.ImageURL,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.FromCtx(ctx).Error("product query failed",
			zap.String("product_id", opts.ProductID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return &p, nil
}

// GetPricing reads the current price and stock for the given products in one
// round trip. Used by checkout revalidation, so it must never serve cached
// values.
func (r *repository) GetPricing(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]Pricing, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]Pricing{}, nil
	}

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Product"),
		zap.String("method", "GetPricing"),
		zap.Int("product_count", len(productIDs)),
	)

	const q = `
		SELECT id, name, price, stock
		FROM products
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(productIDs))
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	res := make(map[uuid.UUID]Pricing, len(productIDs))
	for rows.Next() {
		var p Pricing
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Price, &p.Stock); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res[p.ProductID] = p
	}

	return res, rows.Err()
}

// GetRestrictedNames returns the names of the given products that cannot ship
// to the destination. A restriction row with an empty province blocks the
// whole country.
func (r *repository) GetRestrictedNames(ctx context.Context, productIDs []uuid.UUID, country, province string) ([]string, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Product"),
		zap.String("method", "GetRestrictedNames"),
		zap.String("country", country),
		zap.String("province", province),
	)

	const q = `
		SELECT DISTINCT p.name
		FROM shipping_restrictions sr
		JOIN products p ON p.id = sr.product_id
		WHERE sr.product_id = ANY($1)
		  AND sr.country = $2
		  AND (sr.province = '' OR sr.province = $3)
		ORDER BY p.name
	`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(productIDs), country, province)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
