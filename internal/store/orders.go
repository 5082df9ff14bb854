package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/safar/store-dashboard/internal/models"
)

const orderColumns = `id, order_number, status, billing_name, total_amount, created_at, updated_at`

func scanOrder(row rowScanner) (models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.Status,
		&order.BillingName,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}

// ListOrders returns a page of orders, newest first, with their line items
// and the cost metadata of each line's product.
func (s *Store) ListOrders(ctx context.Context, page, perPage int) (*Page[models.Order], error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	orders, err := s.queryOrders(ctx, query, perPage, Offset(page, perPage))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return NewPage(orders, total, page, perPage), nil
}

// ListOrdersCreatedBetween returns orders created in [from, to], without
// line items.
func (s *Store) ListOrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC, id DESC`

	orders, err := s.queryOrders(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders in range: %w", err)
	}
	return orders, nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func (s *Store) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity,
		       p.id IS NOT NULL,
		       COALESCE(cog.meta_value, ''), COALESCE(op.meta_value, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		LEFT JOIN product_meta cog ON cog.product_id = p.id AND cog.meta_key = 'wc_cog_cost'
		LEFT JOIN product_meta op ON op.product_id = p.id AND op.meta_key = 'op_cost'
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var productID sql.NullInt64
		var productExists bool
		var cogCost, opCost string

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&productID,
			&item.Quantity,
			&productExists,
			&cogCost,
			&opCost,
		)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}

		item.ProductID = productID.Int64
		if productExists {
			item.Product = &models.ProductCost{
				CogCost: models.ParseMetaDecimal(cogCost),
				OpCost:  models.ParseMetaDecimal(opCost),
			}
		}

		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}
