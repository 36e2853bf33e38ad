package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"divyashree/internal/model"
	"divyashree/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	featuredLimit = 8
	relatedLimit  = 4
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	audit       Auditor
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, auditor Auditor, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		audit:       auditor,
		logger:      logger.With().Str("service", "product").Logger(),
		now:         time.Now,
	}
}

func (s *productService) List(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	filter.IncludeInactive = false
	return s.list(ctx, filter)
}

func (s *productService) ListAll(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	filter.IncludeInactive = true
	return s.list(ctx, filter)
}

func (s *productService) list(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, model.NewValidation("Invalid category: %s", filter.Category)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, model.NewValidation("minPrice cannot exceed maxPrice")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.Limit = model.ClampPage(filter.Page, filter.Limit)

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", filter.Page).
			Int("limit", filter.Limit).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Msg("retrieved products")

	return pageOf(products, filter.Page, filter.Limit, total), nil
}

// Get retrieves an active product and increments its view count.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.IncrementViews(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

func (s *productService) Featured(ctx context.Context) (*model.FeaturedProducts, error) {
	featured, err := s.productRepo.Featured(ctx, featuredLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get featured products")
		return nil, fmt.Errorf("failed to get featured products: %w", err)
	}
	return featured, nil
}

// Related returns products sharing the category or an occasion.
func (s *productService) Related(ctx context.Context, id uuid.UUID) ([]model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, model.ErrProductNotFound
	}

	related, err := s.productRepo.Related(ctx, product, relatedLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get related products")
		return nil, fmt.Errorf("failed to get related products: %w", err)
	}
	if related == nil {
		related = []model.Product{}
	}
	return related, nil
}

func (s *productService) Create(ctx context.Context, actor model.Actor, input *model.ProductInput) (*model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &model.Product{ID: uuid.New(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	input.Apply(product)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Str("actor_id", actor.ID.String()).
		Msg("product created")

	s.audit.Record(actor, model.AuditCreate, "products", product.ID.String(), nil, product)
	return product, nil
}

func (s *productService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, patch *model.ProductPatch) (*model.Product, error) {
	if err := validateProductPatch(patch); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	before := *product
	patch.Apply(product)
	if product.OriginalPrice < product.Price {
		return nil, model.NewValidation("originalPrice cannot be lower than price")
	}
	product.UpdatedAt = s.now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("actor_id", actor.ID.String()).
		Msg("product updated")

	s.audit.Record(actor, model.AuditUpdate, "products", product.ID.String(), before, product)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return model.ErrProductNotFound
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrProductNotFound
	}

	s.logger.Info().
		Str("product_id", id.String()).
		Str("actor_id", actor.ID.String()).
		Msg("product deleted")

	s.audit.Record(actor, model.AuditDelete, "products", id.String(), product, nil)
	return nil
}

func validateProductPatch(patch *model.ProductPatch) error {
	if patch == nil {
		return model.NewValidation("Request body is required")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return model.NewValidation("name cannot be empty")
		}
		patch.Name = &name
	}
	if err := validateStruct(patch); err != nil {
		return err
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return model.NewValidation("price must be greater than 0")
	}
	if patch.OriginalPrice != nil && *patch.OriginalPrice < 0 {
		return model.NewValidation("originalPrice cannot be negative")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return model.NewValidation("Invalid category: %s", *patch.Category)
	}
	if patch.SKU != nil {
		sku := strings.TrimSpace(*patch.SKU)
		patch.SKU = &sku
	}
	return nil
}

func validateProductInput(input *model.ProductInput) error {
	if input == nil {
		return model.NewValidation("Request body is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return err
	}
	if !input.Category.Valid() {
		return model.NewValidation("Invalid category: %s", input.Category)
	}
	if input.OriginalPrice > 0 && input.OriginalPrice < input.Price {
		return model.NewValidation("originalPrice cannot be lower than price")
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			input.SKU = nil
		} else {
			input.SKU = &sku
		}
	}
	return nil
}
