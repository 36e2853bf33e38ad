package repository

import (
	"context"
	"errors"
	"fmt"

	"divyashree/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `
	id, name, description, sku, price, original_price, category, fabric,
	occasions, sizes, colors, images, stock_quantity, in_stock, sold_count,
	view_count, on_sale, sale_percentage, is_bestseller, is_new_arrival,
	rating, reviews, is_active, created_at, updated_at`

var productSorts = map[model.ProductSort]string{
	model.SortNewest:    "created_at DESC",
	model.SortPriceAsc:  "price ASC",
	model.SortPriceDesc: "price DESC",
	model.SortRating:    "rating DESC, reviews DESC",
	model.SortPopular:   "sold_count DESC, view_count DESC",
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.SKU, &p.Price, &p.OriginalPrice, &p.Category, &p.Fabric,
		&p.Occasions, &p.Sizes, &p.Colors, &p.Images, &p.StockQuantity, &p.InStock, &p.SoldCount,
		&p.ViewCount, &p.OnSale, &p.SalePercentage, &p.IsBestseller, &p.IsNewArrival,
		&p.Rating, &p.Reviews, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func productWhere(f model.ProductFilter) *where {
	w := &where{}
	if !f.IncludeInactive {
		w.add("is_active")
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		w.add("(name ILIKE ? OR description ILIKE ? OR fabric ILIKE ?)", pattern, pattern, pattern)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if f.Occasion != "" {
		w.add("? = ANY(occasions)", f.Occasion)
	}
	if f.MinPrice != nil {
		w.add("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price <= ?", *f.MaxPrice)
	}
	if f.InStock != nil {
		w.add("in_stock = ?", *f.InStock)
	}
	if f.OnSale {
		w.add("on_sale")
	}
	if f.Bestseller {
		w.add("is_bestseller")
	}
	if f.NewArrival {
		w.add("is_new_arrival")
	}
	return w
}

// List returns one page of products matching the filter plus the total match count.
func (r *productRepository) List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	page, limit := model.ClampPage(f.Page, f.Limit)
	w := productWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products"+w.sql(), w.args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts[model.SortNewest]
	}

	query := "SELECT " + productColumns + " FROM products" + w.sql() +
		" ORDER BY " + order + ", id" +
		" LIMIT " + w.next(limit) + " OFFSET " + w.next(model.Offset(page, limit))

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("page", page).
			Int("limit", limit).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read product rows")
		return nil, 0, err
	}

	return products, total, nil
}

// GetByID retrieves a single product regardless of its active flag.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// IncrementViews bumps the view counter of an active product and returns it.
func (r *productRepository) IncrementViews(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `
		UPDATE products SET view_count = view_count + 1
		WHERE id = $1 AND is_active
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to increment product views")
		return nil, fmt.Errorf("failed to increment product views: %w", err)
	}
	return p, nil
}

type featuredCollection struct {
	name      string
	predicate string
	dest      *[]model.Product
}

// Featured returns up to limit active products for each home page collection.
func (r *productRepository) Featured(ctx context.Context, limit int) (*model.FeaturedProducts, error) {
	featured := &model.FeaturedProducts{}
	collections := []featuredCollection{
		{"bestsellers", "is_active AND is_bestseller ORDER BY sold_count DESC, created_at DESC", &featured.Bestsellers},
		{"new_arrivals", "is_active AND is_new_arrival ORDER BY created_at DESC", &featured.NewArrivals},
		{"on_sale", "is_active AND on_sale ORDER BY sale_percentage DESC, created_at DESC", &featured.OnSale},
	}

	for _, c := range collections {
		rows, err := r.pool.Query(ctx, "SELECT "+productColumns+" FROM products WHERE "+c.predicate+" LIMIT $1", limit)
		if err != nil {
			r.logger.Error().Err(err).Str("collection", c.name).Msg("failed to query featured products")
			return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
		}
		products, err := collectProducts(rows)
		if err != nil {
			return nil, err
		}
		*c.dest = products
	}

	return featured, nil
}

// Related returns active products of the same category or sharing an
// occasion, excluding the product itself.
func (r *productRepository) Related(ctx context.Context, p *model.Product, limit int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active AND id <> $1 AND (category = $2 OR occasions && $3)
		ORDER BY (category = $2) DESC, rating DESC, created_at DESC
		LIMIT $4
	`

	occasions := p.Occasions
	if occasions == nil {
		occasions = []string{}
	}

	rows, err := r.pool.Query(ctx, query, p.ID, p.Category, occasions, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to query related products")
		return nil, fmt.Errorf("failed to query related products: %w", err)
	}
	return collectProducts(rows)
}

// Create inserts a new product. Derived fields must already be normalised.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (
			id, name, description, sku, price, original_price, category, fabric,
			occasions, sizes, colors, images, stock_quantity, in_stock, sold_count,
			view_count, on_sale, sale_percentage, is_bestseller, is_new_arrival,
			rating, reviews, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.SKU, p.Price, p.OriginalPrice, p.Category, p.Fabric,
		p.Occasions, p.Sizes, p.Colors, p.Images, p.StockQuantity, p.InStock, p.SoldCount,
		p.ViewCount, p.OnSale, p.SalePercentage, p.IsBestseller, p.IsNewArrival,
		p.Rating, p.Reviews, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return model.ErrSKUTaken
		}
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID.String()).Msg("product created successfully")
	return nil
}

// Update writes the editable and price-derived columns of p. Stock, sold
// count and rating are owned by inventory, orders and reviews, so they are
// read back rather than written.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, sku = $4, price = $5, original_price = $6,
			category = $7, fabric = $8, occasions = $9, sizes = $10, colors = $11,
			images = $12, on_sale = $13, sale_percentage = $14, is_bestseller = $15,
			is_new_arrival = $16, is_active = $17, updated_at = $18
		WHERE id = $1
		RETURNING stock_quantity, in_stock, sold_count, rating, reviews
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.SKU, p.Price, p.OriginalPrice,
		p.Category, p.Fabric, p.Occasions, p.Sizes, p.Colors,
		p.Images, p.OnSale, p.SalePercentage, p.IsBestseller,
		p.IsNewArrival, p.IsActive, p.UpdatedAt,
	).Scan(&p.StockQuantity, &p.InStock, &p.SoldCount, &p.Rating, &p.Reviews)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound
		}
		if isUniqueViolation(err, "products_sku_key") {
			return model.ErrSKUTaken
		}
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete removes a product permanently.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AdjustStock locks the product row, applies the action and writes the
// floored result together with the derived in_stock flag.
func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, action model.StockAction, quantity int) (*model.StockChange, error) {
	var change *model.StockChange

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var name string
		var before int
		err := tx.QueryRow(ctx, "SELECT name, stock_quantity FROM products WHERE id = $1 FOR UPDATE", id).Scan(&name, &before)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		after := model.NextStock(before, action, quantity)
		_, err = tx.Exec(ctx, `
			UPDATE products SET stock_quantity = $2, in_stock = $3, updated_at = NOW()
			WHERE id = $1
		`, id, after, after > 0)
		if err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		change = &model.StockChange{ProductID: id, Name: name, Before: before, After: after, InStock: after > 0}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).
			Str("product_id", id.String()).
			Str("action", string(action)).
			Int("quantity", quantity).
			Msg("failed to adjust stock")
		return nil, err
	}

	if change != nil {
		r.logger.Debug().
			Str("product_id", id.String()).
			Int("before", change.Before).
			Int("after", change.After).
			Msg("stock adjusted")
	}
	return change, nil
}

// ReserveStock decrements stock floored at zero and increments the sold count.
// It returns the product's current name for the order line snapshot.
func (r *productRepository) ReserveStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (string, bool, error) {
	query := `
		UPDATE products SET
			stock_quantity = GREATEST(stock_quantity - $2, 0),
			in_stock = GREATEST(stock_quantity - $2, 0) > 0,
			sold_count = sold_count + $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING name
	`

	var name string
	err := tx.QueryRow(ctx, query, id, quantity).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Int("quantity", quantity).Msg("failed to reserve stock")
		return "", false, fmt.Errorf("failed to reserve stock: %w", err)
	}
	return name, true, nil
}

// ReleaseStock restores stock and decrements the sold count floored at zero.
func (r *productRepository) ReleaseStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE products SET
			stock_quantity = stock_quantity + $2,
			in_stock = stock_quantity + $2 > 0,
			sold_count = GREATEST(sold_count - $2, 0),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Int("quantity", quantity).Msg("failed to release stock")
		return false, fmt.Errorf("failed to release stock: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LowStock lists active products with stock at or below threshold, lowest first.
func (r *productRepository) LowStock(ctx context.Context, threshold, limit int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active AND stock_quantity <= $1
		ORDER BY stock_quantity ASC, name
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, threshold, limit)
	if err != nil {
		r.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to query low stock products")
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	return collectProducts(rows)
}

// Counts returns the number of active products and how many are low on stock.
func (r *productRepository) Counts(ctx context.Context, threshold int) (int, int, error) {
	var total, low int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE stock_quantity <= $1)
		FROM products
		WHERE is_active
	`, threshold).Scan(&total, &low)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, low, nil
}
