package dashboard

import (
	"context"

	"go.uber.org/zap"
)

const DefaultInvoicePlaceholder = "#"

type InvoiceLocator struct {
	provider    InvoiceProvider
	placeholder string
	log         *zap.Logger
}

// NewInvoiceLocator wires the locator. provider may be nil.
func NewInvoiceLocator(provider InvoiceProvider, placeholder string, log *zap.Logger) *InvoiceLocator {
	if placeholder == "" {
		placeholder = DefaultInvoicePlaceholder
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceLocator{provider: provider, placeholder: placeholder, log: log}
}

func (l *InvoiceLocator) Placeholder() string {
	return l.placeholder
}

// InvoiceURL never fails: any missing or broken invoice source yields the
// placeholder.
func (l *InvoiceLocator) InvoiceURL(ctx context.Context, orderID int64) string {
	if l.provider == nil {
		return l.placeholder
	}

	url, err := l.provider.InvoiceURL(ctx, orderID)
	if err != nil {
		l.log.Warn("invoice lookup failed", zap.Int64("order_id", orderID), zap.Error(err))
		return l.placeholder
	}
	if url == "" {
		return l.placeholder
	}
	return url
}
