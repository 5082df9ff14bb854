package dashboard

import "github.com/safar/store-dashboard/internal/models"

const DefaultLowStockThreshold = 5

// IsLowStock reports whether a product needs restocking. The stored stock
// status may lag behind the quantity, so either signal counts. Quantities
// of products that do not manage stock are ignored.
func IsLowStock(p *models.Product, threshold int) bool {
	if p.StockStatus == models.StockStatusLowStock {
		return true
	}
	return p.ManageStock && p.StockQuantity != nil && *p.StockQuantity <= threshold
}
