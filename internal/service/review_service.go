package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"divyashree/internal/model"
	"divyashree/internal/repository"
	"divyashree/internal/tasks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// reviewService implements ReviewService.
type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	tasks       tasks.Submitter
	audit       Auditor
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	submitter tasks.Submitter,
	auditor Auditor,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		tasks:       submitter,
		audit:       auditor,
		logger:      logger.With().Str("service", "review").Logger(),
		now:         time.Now,
	}
}

// Create adds a review and refreshes the product's rating. Signed-in users
// may review a product once; their name and email come from the account.
func (s *reviewService) Create(ctx context.Context, productID uuid.UUID, userID *uuid.UUID, input *model.ReviewInput) (*model.Review, error) {
	if err := validateReviewInput(input, userID == nil); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, model.ErrProductNotFound
	}

	now := s.now().UTC()
	review := &model.Review{
		ID:         uuid.New(),
		ProductID:  productID,
		UserID:     userID,
		Name:       input.Name,
		Email:      input.Email,
		Rating:     input.Rating,
		Comment:    input.Comment,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if userID != nil {
		exists, err := s.reviewRepo.ExistsForUser(ctx, productID, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing review: %w", err)
		}
		if exists {
			return nil, model.ErrDuplicateReview
		}

		user, err := s.userRepo.GetByID(ctx, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return nil, model.ErrUserNotFound
		}
		review.Name = user.Name
		review.Email = user.Email

		verified, err := s.orderRepo.HasDeliveredPurchase(ctx, *userID, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to check purchase: %w", err)
		}
		review.IsVerifiedPurchase = verified
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("review_id", review.ID.String()).
		Str("product_id", productID.String()).
		Int("rating", review.Rating).
		Bool("verified", review.IsVerifiedPurchase).
		Msg("review created")

	s.refreshRating(ctx, productID)
	return review, nil
}

// Update edits the caller's own review.
func (s *reviewService) Update(ctx context.Context, id, userID uuid.UUID, input *model.ReviewInput) (*model.Review, error) {
	if err := validateReviewInput(input, false); err != nil {
		return nil, err
	}

	review, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID == nil || *review.UserID != userID {
		return nil, model.ErrForbidden
	}

	review.Rating = input.Rating
	review.Comment = input.Comment
	review.UpdatedAt = s.now().UTC()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	s.refreshRating(ctx, review.ProductID)
	return review, nil
}

// Delete removes a review written by the actor.
func (s *reviewService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	review, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID == nil || *review.UserID != actor.ID {
		return model.ErrForbidden
	}
	return s.remove(ctx, review)
}

// DeleteAsAdmin removes any review and records it in the audit trail.
// Callers must have checked the reviews.delete permission.
func (s *reviewService) DeleteAsAdmin(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	review, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, review); err != nil {
		return err
	}
	s.audit.Record(actor, model.AuditDelete, "reviews", id.String(), review, nil)
	return nil
}

func (s *reviewService) remove(ctx context.Context, review *model.Review) error {
	deleted, err := s.reviewRepo.Delete(ctx, review.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrReviewNotFound
	}

	s.refreshRating(ctx, review.ProductID)
	return nil
}

// List returns one page of approved reviews with the rating breakdown.
func (s *reviewService) List(ctx context.Context, productID uuid.UUID, page, limit int) (*model.ReviewList, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, model.ErrProductNotFound
	}

	page, limit = model.ClampPage(page, limit)
	reviews, total, err := s.reviewRepo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	dist, err := s.reviewRepo.Distribution(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating distribution: %w", err)
	}

	return &model.ReviewList{
		Reviews:      reviews,
		Summary:      model.RatingSummary{Average: product.Rating, Count: product.Reviews},
		Distribution: dist,
		Pagination:   model.NewPagination(page, limit, total),
	}, nil
}

// MarkHelpful increments a review's helpful counter.
func (s *reviewService) MarkHelpful(ctx context.Context, id uuid.UUID) (int, error) {
	helpful, found, err := s.reviewRepo.IncrementHelpful(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to mark review helpful: %w", err)
	}
	if !found {
		return 0, model.ErrReviewNotFound
	}
	return helpful, nil
}

func (s *reviewService) get(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, model.ErrReviewNotFound
	}
	return review, nil
}

// refreshRating recomputes the product aggregate. A failure is handed to the
// dispatcher to retry; the review write itself has already succeeded.
func (s *reviewService) refreshRating(ctx context.Context, productID uuid.UUID) {
	summary, err := s.reviewRepo.RecomputeProductRating(ctx, productID)
	if err == nil {
		s.logger.Debug().
			Str("product_id", productID.String()).
			Float64("rating", summary.Average).
			Int("reviews", summary.Count).
			Msg("product rating recomputed")
		return
	}

	s.logger.Warn().Err(err).Str("product_id", productID.String()).Msg("rating recompute failed, retrying in background")
	s.tasks.Submit("review.recompute_rating", func(ctx context.Context) error {
		_, err := s.reviewRepo.RecomputeProductRating(ctx, productID)
		return err
	})
}

func validateReviewInput(input *model.ReviewInput, anonymous bool) error {
	if input == nil {
		return model.NewValidation("Request body is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Comment = strings.TrimSpace(input.Comment)

	if input.Rating < model.MinReviewRating || input.Rating > model.MaxReviewRating {
		return model.NewValidation("Rating must be between %d and %d", model.MinReviewRating, model.MaxReviewRating)
	}
	n := utf8.RuneCountInString(input.Comment)
	if n < model.MinReviewComment || n > model.MaxReviewComment {
		return model.NewValidation("Comment must be between %d and %d characters", model.MinReviewComment, model.MaxReviewComment)
	}
	if anonymous && (input.Name == "" || input.Email == "") {
		return model.NewValidation("Name and email are required")
	}
	return validateStruct(input)
}
