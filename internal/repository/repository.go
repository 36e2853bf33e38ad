package repository

import (
	"context"

	"divyashree/internal/model"
	"divyashree/internal/permission"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue data access operations.
// Lookups return (nil, nil) when the product does not exist.
type ProductRepository interface {
	// List returns one page of products matching the filter plus the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a single product regardless of its active flag.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// IncrementViews bumps the view counter of an active product and returns it.
	IncrementViews(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Featured returns up to limit active products for each home page collection.
	Featured(ctx context.Context, limit int) (*model.FeaturedProducts, error)

	// Related returns active products sharing the category or an occasion, excluding the product itself.
	Related(ctx context.Context, product *model.Product, limit int) ([]model.Product, error)

	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// AdjustStock applies a single stock action atomically, flooring at zero.
	AdjustStock(ctx context.Context, id uuid.UUID, action model.StockAction, quantity int) (*model.StockChange, error)

	// ReserveStock decrements stock and increments sold count for an order line
	// within tx, returning the product name. It reports false when the product
	// does not exist.
	ReserveStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (string, bool, error)

	// ReleaseStock reverses ReserveStock for a cancelled order line within tx.
	ReleaseStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (bool, error)

	// LowStock lists active products with stock at or below threshold.
	LowStock(ctx context.Context, threshold, limit int) ([]model.Product, error)

	// Counts returns the number of active products and how many are low on stock.
	Counts(ctx context.Context, threshold int) (total int, low int, err error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts the order and its items within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate retrieves and row-locks an order within tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// GetByNumber retrieves an order by its human readable number.
	GetByNumber(ctx context.Context, number string) (*model.Order, error)

	// List returns one page of orders, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)

	// UpdateState persists status, cancellation, return and delivery fields within tx.
	UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// HasDeliveredPurchase reports whether the user owns a delivered order containing the product.
	HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error)

	// Stats aggregates order counters for the admin dashboard.
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

// UserRepository defines the interface for account and address data access.
type UserRepository interface {
	// Create inserts a user. A taken email yields model.ErrEmailTaken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error)
	Count(ctx context.Context) (int, error)

	ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error)

	// AddAddress inserts an address. The first address of a user, or one
	// flagged as default, becomes the only default.
	AddAddress(ctx context.Context, address *model.Address) error

	// UpdateAddress edits an address owned by the user.
	UpdateAddress(ctx context.Context, address *model.Address) (bool, error)

	// DeleteAddress removes an address. Deleting the default promotes the newest remaining one.
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error)

	// SetDefaultAddress makes one address the default and clears all others.
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
}

// CartRepository defines the interface for cart and wishlist data access.
type CartRepository interface {
	// ListCart returns cart lines joined with their products.
	ListCart(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)

	// AddCartItem merges the line into an existing one with the same product,
	// size and color, or inserts it.
	AddCartItem(ctx context.Context, item *model.CartItem) error

	UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error)
	RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error

	ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	AddWishlist(ctx context.Context, userID, productID uuid.UUID) error
	RemoveWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// Create inserts a review. A second review by the same user yields model.ErrDuplicateReview.
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsForUser(ctx context.Context, productID, userID uuid.UUID) (bool, error)

	// ListByProduct returns approved reviews, newest first.
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Review, int, error)

	// Distribution counts approved reviews per star.
	Distribution(ctx context.Context, productID uuid.UUID) (map[int]int, error)

	// IncrementHelpful bumps the helpful counter and returns the new value.
	IncrementHelpful(ctx context.Context, id uuid.UUID) (int, bool, error)

	// RecomputeProductRating writes the approved review aggregate onto the product.
	RecomputeProductRating(ctx context.Context, productID uuid.UUID) (model.RatingSummary, error)
}

// PermissionRepository defines the interface for role permission matrices.
type PermissionRepository interface {
	List(ctx context.Context) ([]permission.RolePermission, error)
	Get(ctx context.Context, role model.Role) (*permission.RolePermission, error)
	Upsert(ctx context.Context, rp *permission.RolePermission) error
}
