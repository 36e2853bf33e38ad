package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"divyashree/internal/model"
	"divyashree/internal/notify"
	"divyashree/internal/repository"
	"divyashree/internal/tasks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const maxOrderNumberAttempts = 3

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	cartRepo    repository.CartRepository
	notifier    notify.Notifier
	tasks       tasks.Submitter
	audit       Auditor
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	cartRepo repository.CartRepository,
	notifier notify.Notifier,
	submitter tasks.Submitter,
	auditor Auditor,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cartRepo:    cartRepo,
		notifier:    notifier,
		tasks:       submitter,
		audit:       auditor,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// CreateOrder validates the request, then reserves stock for every line and
// persists the order in one transaction. A missing product rolls the whole
// order back.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	order := newOrder(userID, req, s.now().UTC())

	var err error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = model.FormatOrderNumber(s.now())
		err = s.placeOrder(ctx, order)
		if !errors.Is(err, repository.ErrOrderNumberTaken) {
			break
		}
		s.logger.Warn().
			Int("attempt", attempt).
			Str("order_number", order.OrderNumber).
			Msg("order number taken, retrying")
	}
	if err != nil {
		if errors.Is(err, repository.ErrOrderNumberTaken) {
			return nil, fmt.Errorf("failed to allocate order number: %w", err)
		}
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Float64("total", order.Total).
		Msg("order created successfully")

	if err := s.cartRepo.ClearCart(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart after order")
	}

	s.notifyCustomer("notify.order_placed", order, func(ctx context.Context, to notify.Recipient) error {
		return s.notifier.OrderPlaced(ctx, to, order)
	})

	return order, nil
}

// placeOrder reserves stock before inserting the order so each line's name
// is snapshotted from the catalogue row it reserved against.
func (s *orderService) placeOrder(ctx context.Context, order *model.Order) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		for i := range order.Items {
			item := &order.Items[i]
			name, found, err := s.productRepo.ReserveStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to reserve stock: %w", err)
			}
			if !found {
				s.logger.Warn().
					Str("order_number", order.OrderNumber).
					Str("product_id", item.ProductID.String()).
					Msg("order references missing product")
				return model.NewNotFound(model.ErrCodeProductNotFound, "Product %s not found", item.ProductID)
			}
			item.Name = name
		}

		return s.orderRepo.CreateOrder(ctx, tx, order)
	})
}

// CancelOrder cancels an order owned by userID while it is still pending or
// confirmed, restoring stock and sold counts.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID, reason string) (*model.Order, error) {
	var order *model.Order
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.lockOwned(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}

		if !order.Status.UserCancellable() {
			return model.NewInvalidState(model.ErrCodeNotCancellable,
				"Order cannot be cancelled as it is already %s", order.Status)
		}

		now := s.now().UTC()
		order.Status = model.StatusCancelled
		order.Cancellation = &model.Cancellation{
			Reason:      strings.TrimSpace(reason),
			CancelledAt: now,
			CancelledBy: "user",
		}
		order.UpdatedAt = now

		if err := s.orderRepo.UpdateState(ctx, tx, order); err != nil {
			return err
		}
		return s.releaseStock(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order cancelled by customer")

	s.notifyCustomer("notify.order_cancelled", order, func(ctx context.Context, to notify.Recipient) error {
		return s.notifier.OrderCancelled(ctx, to, order)
	})

	return order, nil
}

// RequestReturnExchange opens a return or exchange within the return window
// of a delivered order. Only one request per order is allowed.
func (s *orderService) RequestReturnExchange(ctx context.Context, orderID, userID uuid.UUID, req *model.ReturnRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.NewValidation("Request body is required")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.lockOwned(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}

		if order.Status != model.StatusDelivered {
			return model.NewInvalidState(model.ErrCodeReturnNotEligible,
				"Return/exchange can only be requested for delivered orders")
		}
		if order.ReturnExchange != nil {
			return model.NewConflict(model.ErrCodeReturnExists, "Return/exchange request already exists")
		}

		now := s.now().UTC()
		if now.Sub(order.ReturnWindowStart()) > model.ReturnWindow {
			return model.NewInvalidState(model.ErrCodeReturnWindow, "Return/exchange window has expired")
		}

		order.ReturnExchange = &model.ReturnExchange{
			Type:        req.Type,
			Reason:      req.Reason,
			Status:      model.ReturnRequested,
			RequestedAt: now,
		}
		order.UpdatedAt = now
		return s.orderRepo.UpdateState(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("type", string(req.Type)).
		Msg("return/exchange requested")

	return order, nil
}

// GetOrder returns an order owned by userID.
func (s *orderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// TrackOrder looks an order up by its public number.
func (s *orderService) TrackOrder(ctx context.Context, orderNumber string, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to track order")
		return nil, fmt.Errorf("failed to track order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*model.Page[model.Order], error) {
	return s.ListOrders(ctx, model.OrderFilter{UserID: &userID, Page: page, Limit: limit})
}

func (s *orderService) GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter model.OrderFilter) (*model.Page[model.Order], error) {
	if filter.Status != "" && !filter.Status.Valid() && filter.Status != model.StatusCompleted {
		return nil, model.NewValidation("Invalid status filter: %s", filter.Status)
	}
	filter.Page, filter.Limit = model.ClampPage(filter.Page, filter.Limit)

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return pageOf(orders, filter.Page, filter.Limit, total), nil
}

// UpdateStatus moves an order along its lifecycle. Delivered and cancelled
// orders are final. Cancelling through this path restores stock the same way
// a customer cancellation does.
func (s *orderService) UpdateStatus(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error) {
	if req == nil || !req.Status.Valid() {
		return nil, model.NewValidation("Invalid status")
	}

	var (
		order    *model.Order
		previous model.OrderStatus
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		previous = order.Status
		if !previous.CanTransition(req.Status) {
			return model.NewInvalidState(model.ErrCodeInvalidTransition,
				"Cannot change order status from %s to %s", previous, req.Status)
		}
		if previous == req.Status {
			return nil
		}

		now := s.now().UTC()
		order.Status = req.Status
		order.UpdatedAt = now

		switch req.Status {
		case model.StatusDelivered:
			if order.DeliveredAt == nil {
				order.DeliveredAt = &now
			}
		case model.StatusCancelled:
			if order.Cancellation == nil {
				reason := strings.TrimSpace(req.Note)
				if reason == "" {
					reason = "Cancelled by store"
				}
				order.Cancellation = &model.Cancellation{Reason: reason, CancelledAt: now, CancelledBy: "admin"}
			}
		}

		if err := s.orderRepo.UpdateState(ctx, tx, order); err != nil {
			return err
		}
		if req.Status == model.StatusCancelled {
			return s.releaseStock(ctx, tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous == order.Status {
		return order, nil
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(previous)).
		Str("to", string(order.Status)).
		Str("actor_id", actor.ID.String()).
		Msg("order status updated")

	s.audit.Record(actor, model.AuditStatusChange, "orders", order.ID.String(),
		map[string]any{"status": previous},
		map[string]any{"status": order.Status})

	s.notifyCustomer("notify.order_status", order, func(ctx context.Context, to notify.Recipient) error {
		return s.notifier.OrderStatusChanged(ctx, to, order, previous)
	})

	return order, nil
}

// ProcessReturnExchange approves or rejects an open return/exchange request.
func (s *orderService) ProcessReturnExchange(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.ProcessReturnRequest) (*model.Order, error) {
	if req == nil || (req.Action != model.ReturnApproved && req.Action != model.ReturnRejected) {
		return nil, model.NewValidation("Action must be approved or rejected")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var (
		order  *model.Order
		before model.ReturnExchange
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		rx := order.ReturnExchange
		if rx == nil {
			return model.NewInvalidState(model.ErrCodeReturnMissing, "No return/exchange request found")
		}
		if rx.Status != model.ReturnRequested {
			return model.NewInvalidState(model.ErrCodeReturnProcessed, "Return/exchange request has already been processed")
		}
		before = *rx

		now := s.now().UTC()
		processedBy := actor.ID
		rx.Status = req.Action
		rx.ProcessedAt = &now
		rx.ProcessedBy = &processedBy
		rx.AdminNotes = strings.TrimSpace(req.AdminNotes)
		order.UpdatedAt = now

		return s.orderRepo.UpdateState(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("decision", string(req.Action)).
		Str("actor_id", actor.ID.String()).
		Msg("return/exchange processed")

	s.audit.Record(actor, model.AuditReturnProcessed, "orders", order.ID.String(), before, order.ReturnExchange)

	return order, nil
}

// DashboardStats gathers order, user and product counters concurrently.
func (s *orderService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var (
		stats         *model.DashboardStats
		users         int
		products, low int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.orderRepo.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, low, err = s.productRepo.Counts(gctx, DefaultLowStockThreshold)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to load dashboard stats")
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	stats.TotalUsers = users
	stats.TotalProducts = products
	stats.LowStock = low
	return stats, nil
}

// inTx runs fn in a transaction, rolling back when fn or the commit fails.
func (s *orderService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *orderService) lockOwned(ctx context.Context, tx pgx.Tx, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// releaseStock returns every line's quantity to stock. Products deleted
// since the order was placed are skipped.
func (s *orderService) releaseStock(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	for _, item := range order.Items {
		found, err := s.productRepo.ReleaseStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
		if !found {
			s.logger.Warn().
				Str("order_id", order.ID.String()).
				Str("product_id", item.ProductID.String()).
				Msg("cancelled order references deleted product")
		}
	}
	return nil
}

// notifyCustomer looks up the order's owner and sends on the dispatcher.
func (s *orderService) notifyCustomer(name string, order *model.Order, send func(ctx context.Context, to notify.Recipient) error) {
	userID := order.UserID
	s.tasks.Submit(name, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			s.logger.Warn().Str("user_id", userID.String()).Msg("skipping notification for missing user")
			return nil
		}
		return send(ctx, notify.Recipient{Name: user.Name, Email: user.Email})
	})
}

// validateOrderRequest checks required fields and that the totals add up.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewValidation("Order request is required")
	}
	if len(req.Items) == 0 {
		return model.NewValidation("Order must contain at least one item")
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	if !req.PaymentMethod.Valid() {
		return model.NewValidation("Invalid payment method: %s", req.PaymentMethod)
	}
	return checkTotals(req)
}

// checkTotals requires subtotal to equal the line sum and total to equal
// subtotal plus shipping and tax, to the paisa.
func checkTotals(req *model.OrderRequest) error {
	lines := decimal.Zero
	for _, item := range req.Items {
		lines = lines.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	subtotal := decimal.NewFromFloat(*req.Subtotal).Round(2)
	if !lines.Round(2).Equal(subtotal) {
		return model.NewValidation("Subtotal %s does not match item total %s", subtotal.StringFixed(2), lines.StringFixed(2))
	}

	expected := subtotal.Add(decimal.NewFromFloat(req.Shipping)).Add(decimal.NewFromFloat(req.Tax)).Round(2)
	total := decimal.NewFromFloat(*req.Total).Round(2)
	if !expected.Equal(total) {
		return model.NewValidation("Total %s does not match subtotal plus shipping and tax %s", total.StringFixed(2), expected.StringFixed(2))
	}
	return nil
}

func newOrder(userID uuid.UUID, req *model.OrderRequest, now time.Time) *model.Order {
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          userID,
		ShippingAddress: *req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        *req.Subtotal,
		Shipping:        req.Shipping,
		Tax:             req.Tax,
		Total:           *req.Total,
		Status:          model.StatusConfirmed,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if req.PaymentDetails != nil {
		details := *req.PaymentDetails
		details.Mask()
		order.PaymentDetails = &details
	}

	order.Items = make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		order.Items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			Image:     item.Image,
		}
	}
	return order
}
