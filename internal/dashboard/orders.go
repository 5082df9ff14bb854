package dashboard

import (
	"context"
	"fmt"

	"github.com/safar/store-dashboard/internal/models"
	"github.com/safar/store-dashboard/internal/store"
	"go.uber.org/zap"
)

const orderDateLayout = "2006-01-02 15:04"

// OrderView is an order row with its computed profit.
type OrderView struct {
	ID       int64  `json:"id"`
	Number   string `json:"number"`
	Date     string `json:"date"`
	Customer string `json:"customer"`
	Total    Money  `json:"total"`
	Profit   Money  `json:"profit"`
	Status   string `json:"status"`
}

type OrderCalculator struct {
	orders         OrderStore
	defaultPerPage int
	log            *zap.Logger
}

func NewOrderCalculator(orders OrderStore, defaultPerPage int, log *zap.Logger) *OrderCalculator {
	if defaultPerPage < 1 {
		defaultPerPage = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderCalculator{orders: orders, defaultPerPage: defaultPerPage, log: log}
}

// ListOrders returns one page of orders, newest first, each with profit.
func (c *OrderCalculator) ListOrders(ctx context.Context, page, perPage int) (*store.Page[OrderView], error) {
	page, perPage = normalizePage(page, perPage, c.defaultPerPage)

	orders, err := c.orders.ListOrders(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return store.MapPage(orders, func(o models.Order) OrderView {
		return OrderView{
			ID:       o.ID,
			Number:   o.OrderNumber,
			Date:     o.CreatedAt.Format(orderDateLayout),
			Customer: o.BillingName,
			Total:    Money(o.TotalAmount),
			Profit:   Money(OrderProfit(&o)),
			Status:   o.Status,
		}
	}), nil
}
