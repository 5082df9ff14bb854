package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/safar/store-dashboard/internal/database"
	"github.com/safar/store-dashboard/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{
	"id", "sku", "name", "description", "status", "regular_price", "stock_quantity",
	"manage_stock", "stock_status", "image_url", "image_public_id",
	"created_at", "updated_at", "version", "cog", "op",
}

var createdAt = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

func productRow(id int64, price, stock any, cog, op string) []driver.Value {
	return []driver.Value{
		id, "SKU-1", "Mug", "", "publish", price, stock,
		true, "instock", "", "",
		createdAt, createdAt, int64(1), cog, op,
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGetProduct(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(productRow(7, "19.99", int64(4), "3.10", "")...))

	p, err := s.GetProduct(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "19.99", p.RegularPrice.Decimal.String())
	require.NotNil(t, p.StockQuantity)
	assert.Equal(t, 4, *p.StockQuantity)
	assert.True(t, p.CogCost.Valid)
	assert.Equal(t, "3.1", p.CogCost.Decimal.String())
	assert.False(t, p.OpCost.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductNullableColumns(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(productRow(7, nil, nil, "not-a-number", "")...))

	p, err := s.GetProduct(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, p.RegularPrice.Valid)
	assert.Nil(t, p.StockQuantity)
	assert.False(t, p.CogCost.Valid)
}

func TestGetProductNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	_, err := s.GetProduct(context.Background(), 99)
	assert.ErrorIs(t, err, database.ErrProductNotFound)
}

func TestListProducts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products WHERE status = $1")).
		WithArgs("publish").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(25)))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("publish", 10, 10).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(productRow(15, "1", int64(1), "", "")...).
			AddRow(productRow(14, "1", int64(1), "", "")...))

	page, err := s.ListProducts(context.Background(), models.ProductStatusPublish, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(15), page.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsQueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))

	_, err := s.ListProducts(context.Background(), models.ProductStatusPublish, 1, 10)
	assert.ErrorContains(t, err, "count products")
}

func TestSaveProduct(t *testing.T) {
	s, mock := newMockStore(t)
	stock := 8
	product := &models.Product{
		ID:            3,
		SKU:           "SKU-3",
		Name:          "Lamp",
		Status:        models.ProductStatusPublish,
		RegularPrice:  decimal.NewNullDecimal(decimal.RequireFromString("25")),
		StockQuantity: &stock,
		StockStatus:   models.StockStatusInStock,
		CogCost:       decimal.NewNullDecimal(decimal.RequireFromString("7.5")),
	}
	updatedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "version"}).AddRow(updatedAt, int64(4)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_meta")).
		WithArgs(int64(3), models.MetaCogCost, "7.5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_meta")).
		WithArgs(int64(3), models.MetaOpCost).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, s.SaveProduct(context.Background(), product))
	assert.Equal(t, 4, product.Version)
	assert.Equal(t, updatedAt, product.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProductNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "version"}))
	mock.ExpectRollback()

	err := s.SaveProduct(context.Background(), &models.Product{ID: 404})
	assert.ErrorIs(t, err, database.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProductMetaFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at", "version"}).AddRow(createdAt, int64(2)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_meta")).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := s.SaveProduct(context.Background(), &models.Product{ID: 1})
	assert.ErrorContains(t, err, "delete meta wc_cog_cost")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProduct(t *testing.T) {
	s, mock := newMockStore(t)
	product := &models.Product{
		Name:   "Pen",
		Status: models.ProductStatusPublish,
		OpCost: decimal.NewNullDecimal(decimal.RequireFromString("0.4")),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "version"}).
			AddRow(int64(11), createdAt, createdAt, int64(1)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_meta")).
		WithArgs(int64(11), models.MetaCogCost).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_meta")).
		WithArgs(int64(11), models.MetaOpCost, "0.4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.CreateProduct(context.Background(), product))
	assert.Equal(t, int64(11), product.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrders(t *testing.T) {
	s, mock := newMockStore(t)
	orderColumns := []string{"id", "order_number", "status", "billing_name", "total_amount", "created_at", "updated_at"}
	itemColumns := []string{"id", "order_id", "product_id", "quantity", "exists", "cog", "op"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(int64(2), "1002", "completed", "Ann", "20.00", createdAt, createdAt).
			AddRow(int64(1), "1001", "processing", "Bo", "5.00", createdAt, createdAt))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow(int64(1), int64(1), nil, 1, false, "", "").
			AddRow(int64(2), int64(2), int64(9), 2, true, "3", "").
			AddRow(int64(3), int64(2), int64(10), 1, true, "", "2.5"))

	page, err := s.ListOrders(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	newest := page.Items[0]
	assert.Equal(t, "1002", newest.OrderNumber)
	require.Len(t, newest.Items, 2)
	assert.Equal(t, "3", newest.Items[0].Product.UnitCost().String())
	assert.Equal(t, "2.5", newest.Items[1].Product.UnitCost().String())

	oldest := page.Items[1]
	require.Len(t, oldest.Items, 1)
	assert.Nil(t, oldest.Items[0].Product)
	assert.Zero(t, oldest.Items[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersEmptySkipsItems(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	page, err := s.ListOrders(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersCreatedBetween(t *testing.T) {
	s, mock := newMockStore(t)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(72 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE created_at >= $1 AND created_at <= $2")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "billing_name", "total_amount", "created_at", "updated_at"}).
			AddRow(int64(5), "1005", "on-hold", "", "9.99", from, from))

	orders, err := s.ListOrdersCreatedBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "9.99", orders[0].TotalAmount.String())
	assert.Nil(t, orders[0].Items)
}

func TestMemberships(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	m := NewMemberships(db)
	expires := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM memberships WHERE status = $1")).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = m.user_id")).
		WithArgs("active", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "plan", "status", "expires_at", "created_at"}).
			AddRow(int64(1), int64(4), "Ada", "Gold", "active", expires, createdAt).
			AddRow(int64(2), int64(0), "", "Basic", "active", nil, createdAt))

	count, err := m.CountActiveMemberships(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := m.ListActiveMemberships(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].ExpiresAt)
	assert.True(t, expires.Equal(*list[0].ExpiresAt))
	assert.Nil(t, list[1].ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	inv := NewInvoices(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT url FROM invoices WHERE order_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("https://example.com/1.pdf"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT url FROM invoices WHERE order_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"url"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT url FROM invoices WHERE order_id = $1")).
		WithArgs(int64(3)).
		WillReturnError(errors.New("relation \"invoices\" does not exist"))

	url, err := inv.InvoiceURL(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/1.pdf", url)

	url, err = inv.InvoiceURL(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, url)

	_, err = inv.InvoiceURL(context.Background(), 3)
	assert.Error(t, err)
}
