package service

import (
	"context"
	"fmt"
	"strings"

	"divyashree/internal/inventoryfeed"
	"divyashree/internal/model"
	"divyashree/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const lowStockListLimit = 100

// inventoryService implements InventoryService.
type inventoryService struct {
	productRepo repository.ProductRepository
	feeds       inventoryfeed.Loader
	audit       Auditor
	logger      zerolog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(productRepo repository.ProductRepository, feeds inventoryfeed.Loader, auditor Auditor, logger zerolog.Logger) InventoryService {
	return &inventoryService{
		productRepo: productRepo,
		feeds:       feeds,
		audit:       auditor,
		logger:      logger.With().Str("service", "inventory").Logger(),
	}
}

// Adjust applies one stock action. Subtracting more than is in stock floors at zero.
func (s *inventoryService) Adjust(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.StockAdjustRequest) (*model.StockChange, error) {
	if req == nil {
		return nil, model.NewValidation("Request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	change, err := s.apply(ctx, model.StockUpdate{ProductID: id, Action: req.Action, Quantity: *req.Quantity})
	if err != nil {
		return nil, err
	}

	s.recordChange(actor, req.Action, change)
	return change, nil
}

// Bulk applies each update independently and reports per-item outcomes.
func (s *inventoryService) Bulk(ctx context.Context, actor model.Actor, req *model.BulkStockRequest) (*model.BulkStockResult, error) {
	if req == nil {
		return nil, model.NewValidation("Request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	result := s.applyAll(ctx, req.Updates, func(u model.StockUpdate, change *model.StockChange) {
		s.recordChange(actor, u.Action, change)
	})
	return result, nil
}

func (s *inventoryService) LowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	products, err := s.productRepo.LowStock(ctx, threshold, lowStockListLimit)
	if err != nil {
		s.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to list low stock products")
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// Import loads a stock feed and applies its rows through the bulk path. Rows
// the feed parser rejected are reported alongside the per-item results.
func (s *inventoryService) Import(ctx context.Context, actor model.Actor, name string) (*ImportResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidation("name is required")
	}

	feed, err := s.feeds.Load(ctx, name)
	if err != nil {
		s.logger.Error().Err(err).Str("feed", name).Msg("failed to load inventory feed")
		return nil, model.NewValidation("Could not load inventory feed %s", name)
	}

	result := &ImportResult{
		Feed:            feed.Name,
		Rejected:        feed.Rejected,
		BulkStockResult: *s.applyAll(ctx, feed.Updates, nil),
	}
	if result.Rejected == nil {
		result.Rejected = []inventoryfeed.Rejected{}
	}

	s.logger.Info().
		Str("feed", feed.Name).
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Int("rejected", len(result.Rejected)).
		Str("actor_id", actor.ID.String()).
		Msg("inventory feed imported")

	s.audit.Record(actor, model.AuditInventoryImport, "inventory", feed.Name, nil, map[string]int{
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
		"rejected":  len(result.Rejected),
	})

	return result, nil
}

func (s *inventoryService) applyAll(ctx context.Context, updates []model.StockUpdate, onSuccess func(model.StockUpdate, *model.StockChange)) *model.BulkStockResult {
	result := &model.BulkStockResult{
		Succeeded: []model.StockChange{},
		Failed:    []model.BulkStockFailed{},
	}

	for _, u := range updates {
		change, err := s.apply(ctx, u)
		if err != nil {
			result.Failed = append(result.Failed, model.BulkStockFailed{ProductID: u.ProductID, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, *change)
		if onSuccess != nil {
			onSuccess(u, change)
		}
	}
	return result
}

func (s *inventoryService) apply(ctx context.Context, u model.StockUpdate) (*model.StockChange, error) {
	if !u.Action.Valid() {
		return nil, model.NewValidation("Invalid stock action: %s", u.Action)
	}
	if u.Quantity < 0 {
		return nil, model.NewValidation("quantity must be at least 0")
	}

	change, err := s.productRepo.AdjustStock(ctx, u.ProductID, u.Action, u.Quantity)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", u.ProductID.String()).Msg("failed to adjust stock")
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	if change == nil {
		return nil, model.ErrProductNotFound
	}

	s.logger.Debug().
		Str("product_id", u.ProductID.String()).
		Str("action", string(u.Action)).
		Int("before", change.Before).
		Int("after", change.After).
		Msg("stock adjusted")

	return change, nil
}

func (s *inventoryService) recordChange(actor model.Actor, action model.StockAction, change *model.StockChange) {
	s.audit.Record(actor, model.AuditStockUpdate, "inventory", change.ProductID.String(),
		map[string]any{"stockQuantity": change.Before},
		map[string]any{"stockQuantity": change.After, "action": action})
}
