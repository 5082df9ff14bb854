package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product metadata keys for the cost fields.
const (
	MetaCogCost = "wc_cog_cost"
	MetaOpCost  = "op_cost"
)

const (
	ProductStatusPublish = "publish"
	ProductStatusDraft   = "draft"
	ProductStatusPrivate = "private"
	ProductStatusTrash   = "trash"
)

const (
	StockStatusInStock     = "instock"
	StockStatusLowStock    = "lowstock"
	StockStatusOutOfStock  = "outofstock"
	StockStatusOnBackorder = "onbackorder"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusOnHold     = "on-hold"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
	OrderStatusFailed     = "failed"
)

const MembershipStatusActive = "active"

type Product struct {
	ID            int64
	SKU           string
	Name          string
	Description   string
	Status        string
	RegularPrice  decimal.NullDecimal
	StockQuantity *int
	ManageStock   bool
	StockStatus   string
	CogCost       decimal.NullDecimal
	OpCost        decimal.NullDecimal
	ImageURL      string
	ImagePublicID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int
}

// UnitCost is the per-unit cost used for margins: wc_cog_cost when set and
// non-zero, otherwise op_cost, otherwise zero.
func (p *Product) UnitCost() decimal.Decimal {
	if p.CogCost.Valid && !p.CogCost.Decimal.IsZero() {
		return p.CogCost.Decimal
	}
	if p.OpCost.Valid {
		return p.OpCost.Decimal
	}
	return decimal.Zero
}

// Clone returns a deep copy so callers can mutate it without touching
// the original.
func (p *Product) Clone() *Product {
	cp := *p
	if p.StockQuantity != nil {
		q := *p.StockQuantity
		cp.StockQuantity = &q
	}
	return &cp
}

type Order struct {
	ID          int64
	OrderNumber string
	Status      string
	BillingName string
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []OrderItem
}

// OrderItem is a line item joined with the cost metadata of its product.
// Product is nil when the product no longer exists.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	Product   *ProductCost
}

type ProductCost struct {
	CogCost decimal.NullDecimal
	OpCost  decimal.NullDecimal
}

func (c *ProductCost) UnitCost() decimal.Decimal {
	p := Product{CogCost: c.CogCost, OpCost: c.OpCost}
	return p.UnitCost()
}

type Membership struct {
	ID        int64
	UserID    int64
	Name      string
	PlanName  string
	Status    string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// ParseMetaDecimal reads a stored metadata value. Blank or non-numeric
// values read as absent.
func ParseMetaDecimal(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatMetaDecimal is the inverse of ParseMetaDecimal.
func FormatMetaDecimal(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
