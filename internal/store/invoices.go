package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Invoices resolves order ids to stored invoice URLs.
type Invoices struct {
	db *sql.DB
}

func NewInvoices(db *sql.DB) *Invoices {
	return &Invoices{db: db}
}

// InvoiceURL returns an empty string when the order has no invoice.
func (i *Invoices) InvoiceURL(ctx context.Context, orderID int64) (string, error) {
	var url string
	err := i.db.QueryRowContext(ctx,
		`SELECT url FROM invoices WHERE order_id = $1`, orderID).Scan(&url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get invoice url: %w", err)
	}
	return url, nil
}
