package service

import (
	"context"

	"divyashree/internal/auth"
	"divyashree/internal/inventoryfeed"
	"divyashree/internal/model"
	"divyashree/internal/permission"

	"github.com/google/uuid"
)

// DefaultLowStockThreshold is the stock level at or below which a product is
// reported as low on stock.
const DefaultLowStockThreshold = 5

// OrderService defines the order workflow.
type OrderService interface {
	// CreateOrder validates and places an order, reserving stock in the same transaction.
	CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error)

	// CancelOrder cancels a customer's own order and restores its stock.
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID, reason string) (*model.Order, error)

	// RequestReturnExchange opens a return or exchange on a delivered order.
	RequestReturnExchange(ctx context.Context, orderID, userID uuid.UUID, req *model.ReturnRequest) (*model.Order, error)

	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)
	TrackOrder(ctx context.Context, orderNumber string, userID uuid.UUID) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*model.Page[model.Order], error)

	// Admin operations.
	GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) (*model.Page[model.Order], error)
	UpdateStatus(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error)
	ProcessReturnExchange(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.ProcessReturnRequest) (*model.Order, error)
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

// ProductService defines catalogue reads and admin product management.
type ProductService interface {
	// List returns active products only.
	List(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error)

	// ListAll includes inactive products for the admin panel.
	ListAll(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error)

	// Get returns an active product and counts the view.
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)

	Featured(ctx context.Context) (*model.FeaturedProducts, error)
	Related(ctx context.Context, id uuid.UUID) ([]model.Product, error)

	Create(ctx context.Context, actor model.Actor, input *model.ProductInput) (*model.Product, error)
	// Update applies a partial edit. Stock is left untouched.
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, patch *model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

// InventoryService defines admin stock management.
type InventoryService interface {
	Adjust(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.StockAdjustRequest) (*model.StockChange, error)

	// Bulk applies every update independently; one failure never aborts the batch.
	Bulk(ctx context.Context, actor model.Actor, req *model.BulkStockRequest) (*model.BulkStockResult, error)

	LowStock(ctx context.Context, threshold int) ([]model.Product, error)

	// Import loads a named stock feed and applies it through the bulk path.
	Import(ctx context.Context, actor model.Actor, name string) (*ImportResult, error)
}

// ImportResult is the outcome of an inventory feed import.
type ImportResult struct {
	Feed     string                   `json:"feed"`
	Rejected []inventoryfeed.Rejected `json:"rejected"`
	model.BulkStockResult
}

// ReviewService defines product reviews and rating aggregation.
type ReviewService interface {
	// Create adds a review. userID is nil for anonymous reviews.
	Create(ctx context.Context, productID uuid.UUID, userID *uuid.UUID, input *model.ReviewInput) (*model.Review, error)
	Update(ctx context.Context, id, userID uuid.UUID, input *model.ReviewInput) (*model.Review, error)

	// Delete removes a review owned by the actor.
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error

	// DeleteAsAdmin removes any review. It is reachable only behind the
	// reviews.delete permission.
	DeleteAsAdmin(ctx context.Context, actor model.Actor, id uuid.UUID) error

	List(ctx context.Context, productID uuid.UUID, page, limit int) (*model.ReviewList, error)
	MarkHelpful(ctx context.Context, id uuid.UUID) (int, error)
}

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// UserService defines a customer's profile, addresses, wishlist and cart.
type UserService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.ProfileUpdate) (*model.User, error)

	Addresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	AddAddress(ctx context.Context, userID uuid.UUID, in *model.AddressInput) ([]model.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, in *model.AddressInput) ([]model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) ([]model.Address, error)
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) ([]model.Address, error)

	Wishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error)
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error)

	Cart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddToCart(ctx context.Context, userID uuid.UUID, in *model.CartItemInput) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error)
	RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
}

// AdminService defines user administration and the audit trail.
type AdminService interface {
	ListUsers(ctx context.Context, filter model.UserFilter) (*model.Page[model.User], error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ChangeRole(ctx context.Context, actor model.Actor, id uuid.UUID, role model.Role) (*model.User, error)

	// DeactivateUser disables login for a user. Orders keep referencing the row.
	DeactivateUser(ctx context.Context, actor model.Actor, id uuid.UUID) error

	AuditLogs(ctx context.Context, filter model.AuditFilter) (*model.Page[model.AuditLog], error)
}

// PermissionService defines the role-permission matrix.
type PermissionService interface {
	List(ctx context.Context) ([]permission.RolePermission, error)
	Get(ctx context.Context, role model.Role) (*permission.RolePermission, error)
	Update(ctx context.Context, actor model.Actor, role model.Role, matrix permission.Matrix) (*permission.RolePermission, error)

	// SetFor returns the capability set of role. Unknown roles get an empty set.
	SetFor(ctx context.Context, role model.Role) (*permission.Set, error)
}

// Auditor records admin mutations. Recording never fails the caller.
type Auditor interface {
	Record(actor model.Actor, action model.AuditAction, resource, resourceID string, before, after any)
}

// AuditTrail is an Auditor that can also list what it recorded.
type AuditTrail interface {
	Auditor
	List(ctx context.Context, filter model.AuditFilter) ([]model.AuditLog, int, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role model.Role) (string, error)
}

var _ TokenIssuer = (*auth.TokenManager)(nil)
