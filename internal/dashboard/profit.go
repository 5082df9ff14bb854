package dashboard

import (
	"github.com/safar/store-dashboard/internal/models"
	"github.com/shopspring/decimal"
)

// OrderCost sums unit cost times quantity over the order's line items.
// Lines whose product is gone contribute nothing.
func OrderCost(o *models.Order) decimal.Decimal {
	cost := decimal.Zero
	for _, item := range o.Items {
		if item.Product == nil {
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		cost = cost.Add(item.Product.UnitCost().Mul(qty))
	}
	return cost
}

// OrderProfit is the stored order total minus OrderCost.
func OrderProfit(o *models.Order) decimal.Decimal {
	return o.TotalAmount.Sub(OrderCost(o))
}
