package repository

import (
	"context"
	"fmt"

	"divyashree/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart and wishlist repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// ListCart returns cart lines joined with their products, oldest first.
func (r *cartRepository) ListCart(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.size, c.color,
			p.id, p.name, p.description, p.sku, p.price, p.original_price, p.category, p.fabric,
			p.occasions, p.sizes, p.colors, p.images, p.stock_quantity, p.in_stock, p.sold_count,
			p.view_count, p.on_sale, p.sale_percentage, p.is_bestseller, p.is_new_arrival,
			p.rating, p.reviews, p.is_active, p.created_at, p.updated_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		var p model.Product
		err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.Size, &item.Color,
			&p.ID, &p.Name, &p.Description, &p.SKU, &p.Price, &p.OriginalPrice, &p.Category, &p.Fabric,
			&p.Occasions, &p.Sizes, &p.Colors, &p.Images, &p.StockQuantity, &p.InStock, &p.SoldCount,
			&p.ViewCount, &p.OnSale, &p.SalePercentage, &p.IsBestseller, &p.IsNewArrival,
			&p.Rating, &p.Reviews, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart: %w", err)
	}
	return items, nil
}

// AddCartItem merges into the existing (product, size, color) line or inserts
// a new one. item.ID and item.Quantity are set to the stored values.
func (r *cartRepository) AddCartItem(ctx context.Context, item *model.CartItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, size, color)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, product_id, size, color)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity
	`

	err := r.pool.QueryRow(ctx, query, item.ID, item.UserID, item.ProductID, item.Quantity, item.Size, item.Color).
		Scan(&item.ID, &item.Quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Str("user_id", item.UserID.String()).
			Str("product_id", item.ProductID.String()).
			Msg("failed to add cart item")
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error) {
	tag, err := r.pool.Exec(ctx, "UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2", itemID, userID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to update cart item")
		return false, fmt.Errorf("failed to update cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *cartRepository) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM cart_items WHERE id = $1 AND user_id = $2", itemID, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to remove cart item")
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *cartRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ListWishlist returns wishlisted products, most recently added first.
func (r *cartRepository) ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.sku, p.price, p.original_price, p.category, p.fabric,
			p.occasions, p.sizes, p.colors, p.images, p.stock_quantity, p.in_stock, p.sold_count,
			p.view_count, p.on_sale, p.sale_percentage, p.is_bestseller, p.is_new_arrival,
			p.rating, p.reviews, p.is_active, p.created_at, p.updated_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query wishlist")
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	return collectProducts(rows)
}

// AddWishlist is idempotent.
func (r *cartRepository) AddWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to add wishlist item")
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

func (r *cartRepository) RemoveWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to remove wishlist item")
		return false, fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
