package shipping

import (
	"context"
	"database/sql"

	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetMethodsForSellers(ctx context.Context, sellerIDs []uuid.UUID, country, province string) ([]Method, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetMethodsForSellers loads the active methods each seller offers to the
// destination. The cost folds in any province surcharge, so callers get the
// final per-method amount.
func (r *repository) GetMethodsForSellers(ctx context.Context, sellerIDs []uuid.UUID, country, province string) ([]Method, error) {
	if len(sellerIDs) == 0 {
		return nil, nil
	}

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Shipping"),
		zap.String("method", "GetMethodsForSellers"),
		zap.Int("seller_count", len(sellerIDs)),
		zap.String("country", country),
		zap.String("province", province),
	)

	const q = `
		SELECT
			m.id, m.seller_id, m.carrier, m.name,
			m.base_cost + COALESCE(z.surcharge, 0),
			m.eta_days + COALESCE(z.extra_days, 0)
		FROM seller_shipping_methods m
		LEFT JOIN shipping_zone_surcharges z
			ON z.method_id = m.id
			AND z.country = $2
			AND z.province = $3
		WHERE m.seller_id = ANY($1)
		  AND m.active = true
		ORDER BY m.seller_id, m.base_cost
	`

	rows, err := r.db.QueryContext(ctx, q, pq.Array(sellerIDs), country, province)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var methods []Method
	for rows.Next() {
		var m Method
		if err := rows.Scan(&m.ID, &m.SellerID, &m.Carrier, &m.Name, &m.Cost, &m.ETADays); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		methods = append(methods, m)
	}

	return methods, rows.Err()
}
