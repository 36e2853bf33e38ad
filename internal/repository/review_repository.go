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

const reviewColumns = `
	id, product_id, user_id, name, email, rating, comment, is_verified_purchase,
	helpful, is_approved, created_at, updated_at`

// reviewRepository implements the ReviewRepository interface using PostgreSQL.
type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

func scanReview(row rowScanner) (*model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Name, &rv.Email, &rv.Rating, &rv.Comment,
		&rv.IsVerifiedPurchase, &rv.Helpful, &rv.IsApproved, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) Create(ctx context.Context, rv *model.Review) error {
	query := `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.pool.Exec(ctx, query, rv.ID, rv.ProductID, rv.UserID, rv.Name, rv.Email, rv.Rating, rv.Comment,
		rv.IsVerifiedPurchase, rv.Helpful, rv.IsApproved, rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "reviews_product_id_user_id_key") {
			return model.ErrDuplicateReview
		}
		r.logger.Error().Err(err).Str("product_id", rv.ProductID.String()).Msg("failed to create review")
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	rv, err := scanReview(r.pool.QueryRow(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to query review")
		return nil, fmt.Errorf("failed to query review: %w", err)
	}
	return rv, nil
}

func (r *reviewRepository) Update(ctx context.Context, rv *model.Review) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reviews SET rating = $2, comment = $3, updated_at = $4 WHERE id = $1
	`, rv.ID, rv.Rating, rv.Comment, rv.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", rv.ID.String()).Msg("failed to update review")
		return fmt.Errorf("failed to update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to delete review")
		return false, fmt.Errorf("failed to delete review: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *reviewRepository) ExistsForUser(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)
	`, productID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return exists, nil
}

// ListByProduct returns approved reviews, newest first.
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Review, int, error) {
	page, limit = model.ClampPage(page, limit)

	var total int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reviews WHERE product_id = $1 AND is_approved", productID).Scan(&total)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to count reviews")
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE product_id = $1 AND is_approved
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, productID, limit, model.Offset(page, limit))
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query reviews")
		return nil, 0, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating reviews: %w", err)
	}
	return reviews, total, nil
}

// Distribution counts approved reviews per star. Every star from 1 to 5 is present.
func (r *reviewRepository) Distribution(ctx context.Context, productID uuid.UUID) (map[int]int, error) {
	dist := make(map[int]int, model.MaxReviewRating)
	for star := model.MinReviewRating; star <= model.MaxReviewRating; star++ {
		dist[star] = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT rating, COUNT(*) FROM reviews
		WHERE product_id = $1 AND is_approved
		GROUP BY rating
	`, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query rating distribution")
		return nil, fmt.Errorf("failed to query rating distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var star, n int
		if err := rows.Scan(&star, &n); err != nil {
			return nil, fmt.Errorf("failed to scan rating distribution: %w", err)
		}
		dist[star] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating distribution: %w", err)
	}
	return dist, nil
}

// IncrementHelpful bumps the helpful counter and returns the new value.
func (r *reviewRepository) IncrementHelpful(ctx context.Context, id uuid.UUID) (int, bool, error) {
	var helpful int
	err := r.pool.QueryRow(ctx, "UPDATE reviews SET helpful = helpful + 1 WHERE id = $1 RETURNING helpful", id).Scan(&helpful)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to mark review helpful")
		return 0, false, fmt.Errorf("failed to mark review helpful: %w", err)
	}
	return helpful, true, nil
}

// RecomputeProductRating writes the rounded average and count of approved
// reviews onto the product in a single statement.
func (r *reviewRepository) RecomputeProductRating(ctx context.Context, productID uuid.UUID) (model.RatingSummary, error) {
	query := `
		UPDATE products p SET rating = s.avg, reviews = s.cnt, updated_at = NOW()
		FROM (
			SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS avg, COUNT(*) AS cnt
			FROM reviews
			WHERE product_id = $1 AND is_approved
		) s
		WHERE p.id = $1
		RETURNING p.rating::float8, p.reviews
	`

	var summary model.RatingSummary
	err := r.pool.QueryRow(ctx, query, productID).Scan(&summary.Average, &summary.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary, model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to recompute rating")
		return summary, fmt.Errorf("failed to recompute rating: %w", err)
	}

	r.logger.Debug().
		Str("product_id", productID.String()).
		Float64("rating", summary.Average).
		Int("reviews", summary.Count).
		Msg("product rating recomputed")
	return summary, nil
}
