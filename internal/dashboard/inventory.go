package dashboard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/safar/store-dashboard/internal/database"
	"github.com/safar/store-dashboard/internal/models"
	"github.com/safar/store-dashboard/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryItem is one row of the inventory grid.
type InventoryItem struct {
	ID      int64               `json:"id"`
	Name    string              `json:"name"`
	SKU     string              `json:"sku"`
	Price   decimal.NullDecimal `json:"price"`
	Stock   *int                `json:"stock"`
	CogCost decimal.NullDecimal `json:"wc_cog_cost"`
	OpCost  decimal.NullDecimal `json:"op_cost"`
	Image   string              `json:"image"`
}

// Patch is a partial update of one product. Nil fields are left
// untouched. For the cost fields a non-nil value with Valid=false clears
// the stored cost.
type Patch struct {
	ID      int64
	Stock   *int
	Price   *decimal.Decimal
	CogCost *decimal.NullDecimal
	OpCost  *decimal.NullDecimal
}

// ApplyTo copies the fields present in the patch onto product.
func (p Patch) ApplyTo(product *models.Product) {
	if p.Stock != nil {
		stock := *p.Stock
		product.StockQuantity = &stock
	}
	if p.Price != nil {
		product.RegularPrice = decimal.NewNullDecimal(*p.Price)
	}
	if p.CogCost != nil {
		product.CogCost = *p.CogCost
	}
	if p.OpCost != nil {
		product.OpCost = *p.OpCost
	}
}

// NewProduct is the input of the product creation form.
type NewProduct struct {
	Name          string           `json:"name" validate:"required,max=200"`
	SKU           string           `json:"sku" validate:"max=100"`
	Description   string           `json:"description"`
	RegularPrice  *decimal.Decimal `json:"regular_price"`
	StockQuantity *int             `json:"stock_quantity"`
	ManageStock   *bool            `json:"manage_stock"`
	StockStatus   string           `json:"stock_status" validate:"omitempty,oneof=instock lowstock outofstock onbackorder"`
	Status        string           `json:"status" validate:"omitempty,oneof=publish draft private"`
	CogCost       *decimal.Decimal `json:"wc_cog_cost"`
	OpCost        *decimal.Decimal `json:"op_cost"`
	ImageURL      string           `json:"image_url" validate:"omitempty,url"`
	ImagePublicID string           `json:"image_public_id" validate:"max=255"`
}

type InventoryOptions struct {
	DefaultPerPage int
}

type InventoryEngine struct {
	products       ProductStore
	thumbnails     ThumbnailResolver
	validate       *validator.Validate
	defaultPerPage int
	log            *zap.Logger
}

// NewInventoryEngine wires the engine. thumbnails may be nil, in which
// case the stored image URL is used as is.
func NewInventoryEngine(products ProductStore, thumbnails ThumbnailResolver, opts InventoryOptions, log *zap.Logger) *InventoryEngine {
	if opts.DefaultPerPage < 1 {
		opts.DefaultPerPage = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryEngine{
		products:       products,
		thumbnails:     thumbnails,
		validate:       newValidator(),
		defaultPerPage: opts.DefaultPerPage,
		log:            log,
	}
}

func (e *InventoryEngine) item(p *models.Product) InventoryItem {
	image := p.ImageURL
	if e.thumbnails != nil {
		image = e.thumbnails.Thumbnail(p)
	}
	return InventoryItem{
		ID:      p.ID,
		Name:    p.Name,
		SKU:     p.SKU,
		Price:   p.RegularPrice,
		Stock:   p.StockQuantity,
		CogCost: p.CogCost,
		OpCost:  p.OpCost,
		Image:   image,
	}
}

// ListInventory returns one page of published products.
func (e *InventoryEngine) ListInventory(ctx context.Context, page, perPage int) (*store.Page[InventoryItem], error) {
	page, perPage = normalizePage(page, perPage, e.defaultPerPage)

	products, err := e.products.ListProducts(ctx, models.ProductStatusPublish, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	return store.MapPage(products, func(p models.Product) InventoryItem {
		return e.item(&p)
	}), nil
}

// UpdateInventory applies patches in order and returns the ids of the
// products it saved. Unknown ids are skipped. Each product is saved on its
// own; on a store failure the ids saved so far are returned with the
// error and those saves stay in place.
func (e *InventoryEngine) UpdateInventory(ctx context.Context, patches []Patch) ([]int64, error) {
	updated := make([]int64, 0, len(patches))

	for _, patch := range patches {
		product, err := e.products.GetProduct(ctx, patch.ID)
		if errors.Is(err, database.ErrProductNotFound) {
			e.log.Debug("skipping patch for unknown product", zap.Int64("product_id", patch.ID))
			continue
		}
		if err != nil {
			return updated, fmt.Errorf("load product %d: %w", patch.ID, err)
		}

		patch.ApplyTo(product)

		if err := e.products.SaveProduct(ctx, product); err != nil {
			if errors.Is(err, database.ErrProductNotFound) {
				e.log.Debug("product removed before save", zap.Int64("product_id", patch.ID))
				continue
			}
			return updated, fmt.Errorf("save product %d: %w", patch.ID, err)
		}

		updated = append(updated, product.ID)
	}

	e.log.Info("inventory updated",
		zap.Int("patches", len(patches)),
		zap.Int("updated", len(updated)))

	return updated, nil
}

var csvHeader = []string{"id", "name", "sku", "price", "stock", "wc_cog_cost", "op_cost"}

// ExportInventoryCSV writes every published product to w as CSV.
func (e *InventoryEngine) ExportInventoryCSV(ctx context.Context, w io.Writer) error {
	products, err := e.products.ListAllProducts(ctx, models.ProductStatusPublish)
	if err != nil {
		return fmt.Errorf("export inventory: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range products {
		stock := ""
		if p.StockQuantity != nil {
			stock = strconv.Itoa(*p.StockQuantity)
		}
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.SKU,
			models.FormatMetaDecimal(p.RegularPrice),
			stock,
			models.FormatMetaDecimal(p.CogCost),
			models.FormatMetaDecimal(p.OpCost),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// CreateProduct validates the form input and stores a new product.
func (e *InventoryEngine) CreateProduct(ctx context.Context, in NewProduct) (*InventoryItem, error) {
	if err := e.validate.Struct(in); err != nil {
		return nil, newValidationError(err)
	}
	amounts := []struct {
		field string
		value *decimal.Decimal
	}{
		{"regular_price", in.RegularPrice},
		{"wc_cog_cost", in.CogCost},
		{"op_cost", in.OpCost},
	}
	for _, a := range amounts {
		if a.value != nil && a.value.IsNegative() {
			return nil, &ValidationError{Field: a.field, Message: "must not be negative"}
		}
	}

	product := &models.Product{
		SKU:           in.SKU,
		Name:          in.Name,
		Description:   in.Description,
		Status:        in.Status,
		StockQuantity: in.StockQuantity,
		ManageStock:   true,
		StockStatus:   in.StockStatus,
		ImageURL:      in.ImageURL,
		ImagePublicID: in.ImagePublicID,
	}
	if product.Status == "" {
		product.Status = models.ProductStatusPublish
	}
	if product.StockStatus == "" {
		product.StockStatus = models.StockStatusInStock
	}
	if in.ManageStock != nil {
		product.ManageStock = *in.ManageStock
	}
	if in.RegularPrice != nil {
		product.RegularPrice = decimal.NewNullDecimal(*in.RegularPrice)
	}
	if in.CogCost != nil {
		product.CogCost = decimal.NewNullDecimal(*in.CogCost)
	}
	if in.OpCost != nil {
		product.OpCost = decimal.NewNullDecimal(*in.OpCost)
	}

	if err := e.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	e.log.Info("product created", zap.Int64("product_id", product.ID), zap.String("sku", product.SKU))

	item := e.item(product)
	return &item, nil
}
