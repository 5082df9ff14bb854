package dashboard

import (
	"context"
	"time"

	"github.com/safar/store-dashboard/internal/models"
	"github.com/safar/store-dashboard/internal/store"
)

// ProductStore is the product side of the record store.
type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, status string, page, perPage int) (*store.Page[models.Product], error)
	ListAllProducts(ctx context.Context, status string) ([]models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
	CreateProduct(ctx context.Context, product *models.Product) error
}

// OrderStore is the read-only order side of the record store.
type OrderStore interface {
	ListOrders(ctx context.Context, page, perPage int) (*store.Page[models.Order], error)
	ListOrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

// MembershipSource is optional. A nil source means memberships are not
// available in this installation.
type MembershipSource interface {
	CountActiveMemberships(ctx context.Context) (int64, error)
	ListActiveMemberships(ctx context.Context, limit int) ([]models.Membership, error)
}

// InvoiceProvider is optional. It returns an empty URL when the order has
// no invoice.
type InvoiceProvider interface {
	InvoiceURL(ctx context.Context, orderID int64) (string, error)
}

// ThumbnailResolver builds the thumbnail URL for a product image. It
// returns an empty string when the product has no image.
type ThumbnailResolver interface {
	Thumbnail(product *models.Product) string
}

func normalizePage(page, perPage, defaultPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}
