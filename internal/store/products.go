package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/store-dashboard/internal/database"
	"github.com/safar/store-dashboard/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `
	p.id, p.sku, p.name, p.description, p.status, p.regular_price, p.stock_quantity,
	p.manage_stock, p.stock_status, p.image_url, p.image_public_id,
	p.created_at, p.updated_at, p.version,
	COALESCE(cog.meta_value, ''), COALESCE(op.meta_value, '')`

const productJoins = `
	FROM products p
	LEFT JOIN product_meta cog ON cog.product_id = p.id AND cog.meta_key = 'wc_cog_cost'
	LEFT JOIN product_meta op ON op.product_id = p.id AND op.meta_key = 'op_cost'`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var stock sql.NullInt64
	var cogCost, opCost string

	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.Status,
		&product.RegularPrice,
		&stock,
		&product.ManageStock,
		&product.StockStatus,
		&product.ImageURL,
		&product.ImagePublicID,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
		&cogCost,
		&opCost,
	)
	if err != nil {
		return nil, err
	}

	if stock.Valid {
		q := int(stock.Int64)
		product.StockQuantity = &q
	}
	product.CogCost = models.ParseMetaDecimal(cogCost)
	product.OpCost = models.ParseMetaDecimal(opCost)

	return product, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT` + productColumns + productJoins + `
		WHERE p.id = $1`

	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (s *Store) ListProducts(ctx context.Context, status string, page, perPage int) (*Page[models.Product], error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE status = $1`, status).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT` + productColumns + productJoins + `
		WHERE p.status = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3`

	products, err := s.queryProducts(ctx, query, status, perPage, Offset(page, perPage))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return NewPage(products, total, page, perPage), nil
}

func (s *Store) ListAllProducts(ctx context.Context, status string) ([]models.Product, error) {
	query := `SELECT` + productColumns + productJoins + `
		WHERE p.status = $1
		ORDER BY p.created_at DESC, p.id DESC`

	products, err := s.queryProducts(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	return products, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// SaveProduct persists every field of the product and its cost metadata in
// one transaction. There is no version check: the last save wins.
func (s *Store) SaveProduct(ctx context.Context, product *models.Product) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`UPDATE products
			 SET sku = $1, name = $2, description = $3, status = $4,
			     regular_price = $5, stock_quantity = $6, manage_stock = $7,
			     stock_status = $8, image_url = $9, image_public_id = $10,
			     updated_at = NOW(), version = version + 1
			 WHERE id = $11
			 RETURNING updated_at, version`,
			product.SKU, product.Name, product.Description, product.Status,
			product.RegularPrice, nullableInt(product.StockQuantity), product.ManageStock,
			product.StockStatus, product.ImageURL, product.ImagePublicID,
			product.ID).Scan(&product.UpdatedAt, &product.Version)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("update product %d: %w", product.ID, err)
		}

		return writeCostMeta(ctx, tx, product)
	})
}

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO products (sku, name, description, status, regular_price, stock_quantity,
			                       manage_stock, stock_status, image_url, image_public_id,
			                       created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW(), 1)
			 RETURNING id, created_at, updated_at, version`,
			product.SKU, product.Name, product.Description, product.Status,
			product.RegularPrice, nullableInt(product.StockQuantity), product.ManageStock,
			product.StockStatus, product.ImageURL, product.ImagePublicID,
		).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt, &product.Version)
		if err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		return writeCostMeta(ctx, tx, product)
	})
}

func writeCostMeta(ctx context.Context, tx *sql.Tx, product *models.Product) error {
	if err := writeMeta(ctx, tx, product.ID, models.MetaCogCost, product.CogCost); err != nil {
		return err
	}
	return writeMeta(ctx, tx, product.ID, models.MetaOpCost, product.OpCost)
}

// writeMeta upserts a decimal metadata value, or deletes the row when the
// value is absent.
func writeMeta(ctx context.Context, tx *sql.Tx, productID int64, key string, value decimal.NullDecimal) error {
	if !value.Valid {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM product_meta WHERE product_id = $1 AND meta_key = $2`,
			productID, key)
		if err != nil {
			return fmt.Errorf("delete meta %s: %w", key, err)
		}
		return nil
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO product_meta (product_id, meta_key, meta_value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (product_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`,
		productID, key, models.FormatMetaDecimal(value))
	if err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
