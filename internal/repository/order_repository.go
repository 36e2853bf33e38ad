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

// ErrOrderNumberTaken is returned by CreateOrder when the generated order
// number collides with an existing one. The transaction is aborted.
var ErrOrderNumberTaken = errors.New("order number already exists")

const orderColumns = `
	id, user_id, order_number, shipping_address, payment_method, payment_details,
	subtotal, shipping, tax, total, status, notes, cancellation, return_exchange,
	delivered_at, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.ShippingAddress, &o.PaymentMethod, &o.PaymentDetails,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.Status, &o.Notes, &o.Cancellation, &o.ReturnExchange,
		&o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []model.OrderItem{}
	return &o, nil
}

// CreateOrder inserts the order and its items within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.OrderNumber, order.ShippingAddress, order.PaymentMethod, order.PaymentDetails,
		order.Subtotal, order.Shipping, order.Tax, order.Total, order.Status, order.Notes, order.Cancellation, order.ReturnExchange,
		order.DeliveredAt, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			r.logger.Warn().Str("order_number", order.OrderNumber).Msg("order number collision")
			return ErrOrderNumberTaken
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err := r.createOrderItems(ctx, tx, order.Items); err != nil {
		return err
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

func (r *orderRepository) createOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, name, price, quantity, size, color, image, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Name, item.Price,
			item.Quantity, item.Size, item.Color, item.Image, i)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, r.pool, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

// GetForUpdate retrieves and row-locks an order within tx.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, tx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
}

// GetByNumber retrieves an order by its human readable number.
func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.getOne(ctx, r.pool, "SELECT "+orderColumns+" FROM orders WHERE order_number = $1", number)
}

func (r *orderRepository) getOne(ctx context.Context, db DBTX, query string, arg any) (*model.Order, error) {
	order, err := scanOrder(db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Interface("key", arg).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := r.loadItems(ctx, db, []*model.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// loadItems attaches items to every order in one query.
func (r *orderRepository) loadItems(ctx context.Context, db DBTX, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	query := `
		SELECT id, order_id, product_id, name, price, quantity, size, color, image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price,
			&item.Quantity, &item.Size, &item.Color, &item.Image)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

// List returns one page of orders, newest first.
func (r *orderRepository) List(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	page, limit := model.ClampPage(f.Page, f.Limit)

	w := &where{}
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Search != "" {
		w.add("order_number ILIKE ?", "%"+f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+w.sql(), w.args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders" + w.sql() +
		" ORDER BY created_at DESC, id" +
		" LIMIT " + w.next(limit) + " OFFSET " + w.next(model.Offset(page, limit))

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}

	var refs []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		refs = append(refs, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.loadItems(ctx, r.pool, refs); err != nil {
		return nil, 0, err
	}

	orders := make([]model.Order, len(refs))
	for i, o := range refs {
		orders[i] = *o
	}
	return orders, total, nil
}

// UpdateState persists status, cancellation, return and delivery fields within tx.
func (r *orderRepository) UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders SET
			status = $2, cancellation = $3, return_exchange = $4,
			delivered_at = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, order.ID, order.Status, order.Cancellation, order.ReturnExchange,
		order.DeliveredAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Msg("order updated")
	return nil
}

// HasDeliveredPurchase reports whether the user owns a delivered order containing the product.
func (r *orderRepository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items i ON i.order_id = o.id
			WHERE o.user_id = $1 AND i.product_id = $2 AND o.status IN ($3, $4)
		)
	`

	var ok bool
	err := r.pool.QueryRow(ctx, query, userID, productID, model.StatusDelivered, model.StatusCompleted).Scan(&ok)
	if err != nil {
		r.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("product_id", productID.String()).
			Msg("failed to check purchase")
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return ok, nil
}

// Stats aggregates order counters. User and product totals are filled by the caller.
func (r *orderRepository) Stats(ctx context.Context) (*model.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE return_exchange->>'status' = 'requested'),
			COALESCE(SUM(total) FILTER (WHERE status <> 'cancelled'), 0)::float8
		FROM orders
	`

	var s model.DashboardStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalOrders, &s.PendingOrders, &s.ConfirmedOrders, &s.DeliveredOrders,
		&s.CancelledOrders, &s.OpenReturns, &s.Revenue,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to aggregate order stats")
		return nil, fmt.Errorf("failed to aggregate order stats: %w", err)
	}
	return &s, nil
}
