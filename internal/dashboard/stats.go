package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/safar/store-dashboard/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// salesStatuses are the order statuses that count as a sale.
var salesStatuses = map[string]bool{
	models.OrderStatusCompleted:  true,
	models.OrderStatusProcessing: true,
	models.OrderStatusOnHold:     true,
}

type Stats struct {
	SalesTotal    Money `json:"sales_today"`
	SalesCount    int   `json:"sales_count"`
	ActiveMembers int64 `json:"active_members"`
	LowStockCount int   `json:"low_stock_count"`
}

type StatsOptions struct {
	// LowStockThreshold nil means DefaultLowStockThreshold. Zero is a valid
	// threshold.
	LowStockThreshold *int
	Now               func() time.Time
}

type StatsAggregator struct {
	products  ProductStore
	orders    OrderStore
	members   MembershipSource
	threshold int
	now       func() time.Time
	log       *zap.Logger
}

// NewStatsAggregator wires the aggregator. members may be nil.
func NewStatsAggregator(products ProductStore, orders OrderStore, members MembershipSource, opts StatsOptions, log *zap.Logger) *StatsAggregator {
	threshold := DefaultLowStockThreshold
	if opts.LowStockThreshold != nil {
		threshold = *opts.LowStockThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsAggregator{
		products:  products,
		orders:    orders,
		members:   members,
		threshold: threshold,
		now:       opts.Now,
		log:       log,
	}
}

// Stats recomputes the dashboard summary from scratch.
func (a *StatsAggregator) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	total, count, err := a.monthlySales(ctx)
	if err != nil {
		return nil, err
	}
	stats.SalesTotal = total
	stats.SalesCount = count

	stats.ActiveMembers = a.activeMembers(ctx)

	lowStock, err := a.lowStockCount(ctx)
	if err != nil {
		return nil, err
	}
	stats.LowStockCount = lowStock

	return stats, nil
}

func (a *StatsAggregator) monthlySales(ctx context.Context) (total Money, count int, err error) {
	now := a.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	orders, err := a.orders.ListOrdersCreatedBetween(ctx, monthStart, now)
	if err != nil {
		return Money{}, 0, fmt.Errorf("load monthly orders: %w", err)
	}

	sum := decimal.Zero
	for _, o := range orders {
		if !salesStatuses[o.Status] {
			continue
		}
		sum = sum.Add(o.TotalAmount)
		count++
	}
	return Money(sum), count, nil
}

func (a *StatsAggregator) activeMembers(ctx context.Context) int64 {
	if a.members == nil {
		return 0
	}
	n, err := a.members.CountActiveMemberships(ctx)
	if err != nil {
		a.log.Warn("membership count unavailable", zap.Error(err))
		return 0
	}
	return n
}

func (a *StatsAggregator) lowStockCount(ctx context.Context) (int, error) {
	products, err := a.products.ListAllProducts(ctx, models.ProductStatusPublish)
	if err != nil {
		return 0, fmt.Errorf("load products: %w", err)
	}

	count := 0
	for i := range products {
		if IsLowStock(&products[i], a.threshold) {
			count++
		}
	}
	return count, nil
}
