package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	// CreatePlacedOrder persists the order, its shipments and items, burns
	// the promo usage, decrements stock and clears the cart and checkout
	// state, all in one transaction. A concurrent stock shortfall fails the
	// whole transaction with ErrStockConflict.
	CreatePlacedOrder(ctx context.Context, id identity.Identity, o *Order, promoID *uuid.UUID) error

	GetOrders(ctx context.Context, id identity.Identity, filter ListFilter) ([]*Order, error)
	GetOrderDetail(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	UpdateStatusByOrderNumber(ctx context.Context, orderNumber string, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePlacedOrder(
	ctx context.Context,
	id identity.Identity,
	o *Order,
	promoID *uuid.UUID,
) error {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreatePlacedOrder"),
		zap.String("identity", id.Key()),
		zap.String("order_number", o.OrderNumber),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, buyer_id, session_token, address_id,
			subtotal, discount, shipping_total, total, promo_code, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		o.ID, o.OrderNumber, o.BuyerID, o.SessionToken, o.AddressID,
		o.Subtotal, o.Discount, o.ShippingTotal, o.Total, o.PromoCode, o.Status,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for _, sh := range o.Shipments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_shipments (
				id, order_id, seller_id, carrier, method_name, cost, eta_days, status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			sh.ID, o.ID, sh.SellerID, sh.Carrier, sh.MethodName, sh.Cost, sh.ETADays, sh.Status,
		)
		if err != nil {
			log.Error("failed to insert shipment",
				zap.String("seller_id", sh.SellerID.String()),
				zap.Error(err),
			)
			return err
		}

		for _, item := range sh.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (
					id, shipment_id, product_id, product_name, quantity, unit_price, subtotal
				) VALUES ($1,$2,$3,$4,$5,$6,$7)
			`,
				item.ID, sh.ID, item.ProductID, item.ProductName,
				item.Quantity, item.UnitPrice, item.Subtotal,
			)
			if err != nil {
				log.Error("failed to insert order item",
					zap.String("product_id", item.ProductID.String()),
					zap.Error(err),
				)
				return err
			}

			// Guarded decrement: a concurrent order that drained the stock
			// makes this touch zero rows.
			res, err := tx.ExecContext(ctx, `
				UPDATE products
				SET stock = stock - $1
				WHERE id = $2 AND stock >= $1
			`, item.Quantity, item.ProductID)
			if err != nil {
				log.Error("failed to decrement stock", zap.Error(err))
				return err
			}
			if affected, _ := res.RowsAffected(); affected == 0 {
				log.Warn("stock drained under transaction",
					zap.String("product_id", item.ProductID.String()),
					zap.Int("quantity", item.Quantity),
				)
				return ErrStockConflict
			}
		}
	}

	col, val := id.Predicate()

	if promoID != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO promo_usages (id, promo_code_id, order_id, buyer_id, session_token)
			VALUES ($1,$2,$3,$4,$5)
		`, uuid.New(), *promoID, o.ID, o.BuyerID, o.SessionToken)
		if err != nil {
			log.Error("failed to record promo usage", zap.Error(err))
			return err
		}

		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM cart_promos WHERE %s = $1`, col), val)
		if err != nil {
			log.Error("failed to clear applied promo", zap.Error(err))
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM cart_items WHERE %s = $1`, col), val)
	if err != nil {
		log.Error("failed to clear cart", zap.Error(err))
		return err
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM checkout_states WHERE %s = $1`, col), val)
	if err != nil {
		log.Error("failed to clear checkout state", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("order placed", zap.String("order_id", o.ID.String()))
	return nil
}

func (r *repository) GetOrders(
	ctx context.Context,
	id identity.Identity,
	filter ListFilter,
) ([]*Order, error) {

	limit := int32(20)
	page := int32(1)
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	if limit > 100 {
		limit = 100
	}
	if filter.Page > 0 {
		page = filter.Page
	}
	offset := (page - 1) * limit

	log := logger.FromCtx(ctx).With(
		zap.String("method", "GetOrders"),
		zap.String("identity", id.Key()),
		zap.Int32("limit", limit),
		zap.Int32("page", page),
	)

	col, val := id.Predicate()
	query := fmt.Sprintf(`
		SELECT id, order_number, subtotal, discount, shipping_total, total,
		       promo_code, status, created_at, updated_at
		FROM orders
		WHERE %s = $1
	`, col)

	args := []any{val}
	argIndex := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.Subtotal, &o.Discount, &o.ShippingTotal,
			&o.Total, &o.PromoCode, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("get orders success", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) GetOrderDetail(
	ctx context.Context,
	id identity.Identity,
	orderID uuid.UUID,
) (*Order, error) {

	col, val := id.Predicate()
	query := fmt.Sprintf(`
		SELECT id, order_number, address_id, subtotal, discount, shipping_total,
		       total, promo_code, status, created_at, updated_at
		FROM orders
		WHERE id = $1 AND %s = $2
	`, col)

	var o Order
	err := r.db.QueryRowContext(ctx, query, orderID, val).Scan(
		&o.ID, &o.OrderNumber, &o.AddressID, &o.Subtotal, &o.Discount,
		&o.ShippingTotal, &o.Total, &o.PromoCode, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	shipRows, err := r.db.QueryContext(ctx, `
		SELECT sh.id, sh.seller_id, s.name, sh.carrier, sh.method_name,
		       sh.cost, sh.eta_days, sh.status
		FROM order_shipments sh
		JOIN sellers s ON s.id = sh.seller_id
		WHERE sh.order_id = $1
		ORDER BY s.name
	`, o.ID)
	if err != nil {
		return nil, err
	}
	defer shipRows.Close()

	byID := make(map[uuid.UUID]int)
	for shipRows.Next() {
		var sh Shipment
		if err := shipRows.Scan(
			&sh.ID, &sh.SellerID, &sh.SellerName, &sh.Carrier, &sh.MethodName,
			&sh.Cost, &sh.ETADays, &sh.Status,
		); err != nil {
			return nil, err
		}
		sh.OrderID = o.ID
		byID[sh.ID] = len(o.Shipments)
		o.Shipments = append(o.Shipments, sh)
	}
	if err := shipRows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.shipment_id, oi.product_id, oi.product_name,
		       oi.quantity, oi.unit_price, oi.subtotal
		FROM order_items oi
		JOIN order_shipments sh ON sh.id = oi.shipment_id
		WHERE sh.order_id = $1
	`, o.ID)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		if err := itemRows.Scan(
			&item.ID, &item.ShipmentID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal,
		); err != nil {
			return nil, err
		}
		if idx, ok := byID[item.ShipmentID]; ok {
			o.Shipments[idx].Items = append(o.Shipments[idx].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, total, status
		FROM orders
		WHERE order_number = $1
	`, orderNumber).Scan(&o.ID, &o.OrderNumber, &o.Total, &o.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatusByOrderNumber moves the order and its payment row together so
// a webhook retry cannot leave them out of sync.
func (r *repository) UpdateStatusByOrderNumber(
	ctx context.Context,
	orderNumber string,
	status Status,
) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = now() WHERE order_number = $2
	`, status, orderNumber)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		tx.Rollback()
		return ErrOrderNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = now() WHERE external_reference = $2
	`, status, orderNumber)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
