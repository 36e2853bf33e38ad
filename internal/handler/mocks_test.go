package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"divyashree/internal/auth"
	"divyashree/internal/model"
	"divyashree/internal/permission"
	"divyashree/internal/service"
	"divyashree/internal/tasks"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, userID, req))
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID, reason string) (*model.Order, error) {
	return m.order(m.Called(ctx, orderID, userID, reason))
}

func (m *MockOrderService) RequestReturnExchange(ctx context.Context, orderID, userID uuid.UUID, req *model.ReturnRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, orderID, userID, req))
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, orderID, userID))
}

func (m *MockOrderService) TrackOrder(ctx context.Context, orderNumber string, userID uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, orderNumber, userID))
}

func (m *MockOrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*model.Page[model.Order], error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.Order]), args.Error(1)
}

func (m *MockOrderService) GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter model.OrderFilter) (*model.Page[model.Order], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.Order]), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, actor, orderID, req))
}

func (m *MockOrderService) ProcessReturnExchange(ctx context.Context, actor model.Actor, orderID uuid.UUID, req *model.ProcessReturnRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, actor, orderID, req))
}

func (m *MockOrderService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardStats), args.Error(1)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) page(args mock.Arguments) (*model.Page[model.Product], error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.Product]), args.Error(1)
}

func (m *MockProductService) product(args mock.Arguments) (*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	return m.page(m.Called(ctx, filter))
}

func (m *MockProductService) ListAll(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	return m.page(m.Called(ctx, filter))
}

func (m *MockProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return m.product(m.Called(ctx, id))
}

func (m *MockProductService) Featured(ctx context.Context) (*model.FeaturedProducts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FeaturedProducts), args.Error(1)
}

func (m *MockProductService) Related(ctx context.Context, id uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, actor model.Actor, input *model.ProductInput) (*model.Product, error) {
	return m.product(m.Called(ctx, actor, input))
}

func (m *MockProductService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, patch *model.ProductPatch) (*model.Product, error) {
	return m.product(m.Called(ctx, actor, id, patch))
}

func (m *MockProductService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockInventoryService is a mock implementation of InventoryService.
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Adjust(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.StockAdjustRequest) (*model.StockChange, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockChange), args.Error(1)
}

func (m *MockInventoryService) Bulk(ctx context.Context, actor model.Actor, req *model.BulkStockRequest) (*model.BulkStockResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BulkStockResult), args.Error(1)
}

func (m *MockInventoryService) LowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockInventoryService) Import(ctx context.Context, actor model.Actor, name string) (*service.ImportResult, error) {
	args := m.Called(ctx, actor, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

// MockReviewService is a mock implementation of ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) review(args mock.Arguments) (*model.Review, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, productID uuid.UUID, userID *uuid.UUID, input *model.ReviewInput) (*model.Review, error) {
	return m.review(m.Called(ctx, productID, userID, input))
}

func (m *MockReviewService) Update(ctx context.Context, id, userID uuid.UUID, input *model.ReviewInput) (*model.Review, error) {
	return m.review(m.Called(ctx, id, userID, input))
}

func (m *MockReviewService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockReviewService) DeleteAsAdmin(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockReviewService) List(ctx context.Context, productID uuid.UUID, page, limit int) (*model.ReviewList, error) {
	args := m.Called(ctx, productID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewList), args.Error(1)
}

func (m *MockReviewService) MarkHelpful(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) user(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) addresses(args mock.Arguments) ([]model.Address, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockUserService) products(args mock.Arguments) ([]model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockUserService) cart(args mock.Arguments) (*model.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockUserService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.ProfileUpdate) (*model.User, error) {
	return m.user(m.Called(ctx, userID, req))
}

func (m *MockUserService) Addresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, userID))
}

func (m *MockUserService) AddAddress(ctx context.Context, userID uuid.UUID, in *model.AddressInput) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, userID, in))
}

func (m *MockUserService) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, in *model.AddressInput) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, userID, addressID, in))
}

func (m *MockUserService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, userID, addressID))
}

func (m *MockUserService) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) ([]model.Address, error) {
	return m.addresses(m.Called(ctx, userID, addressID))
}

func (m *MockUserService) Wishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	return m.products(m.Called(ctx, userID))
}

func (m *MockUserService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error) {
	return m.products(m.Called(ctx, userID, productID))
}

func (m *MockUserService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]model.Product, error) {
	return m.products(m.Called(ctx, userID, productID))
}

func (m *MockUserService) Cart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *MockUserService) AddToCart(ctx context.Context, userID uuid.UUID, in *model.CartItemInput) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID, in))
}

func (m *MockUserService) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID, itemID, quantity))
}

func (m *MockUserService) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID, itemID))
}

func (m *MockUserService) ClearCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

// MockAdminService is a mock implementation of AdminService.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListUsers(ctx context.Context, filter model.UserFilter) (*model.Page[model.User], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.User]), args.Error(1)
}

func (m *MockAdminService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAdminService) ChangeRole(ctx context.Context, actor model.Actor, id uuid.UUID, role model.Role) (*model.User, error) {
	args := m.Called(ctx, actor, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAdminService) DeactivateUser(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockAdminService) AuditLogs(ctx context.Context, filter model.AuditFilter) (*model.Page[model.AuditLog], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[model.AuditLog]), args.Error(1)
}

// MockPermissionService is a mock implementation of PermissionService.
type MockPermissionService struct {
	mock.Mock
}

func (m *MockPermissionService) List(ctx context.Context) ([]permission.RolePermission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]permission.RolePermission), args.Error(1)
}

func (m *MockPermissionService) Get(ctx context.Context, role model.Role) (*permission.RolePermission, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*permission.RolePermission), args.Error(1)
}

func (m *MockPermissionService) Update(ctx context.Context, actor model.Actor, role model.Role, matrix permission.Matrix) (*permission.RolePermission, error) {
	args := m.Called(ctx, actor, role, matrix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*permission.RolePermission), args.Error(1)
}

func (m *MockPermissionService) SetFor(ctx context.Context, role model.Role) (*permission.Set, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*permission.Set), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubStats struct{ stats tasks.Stats }

func (s stubStats) Stats() tasks.Stats { return s.stats }

// newRequest builds a request carrying chi route params and, when user is
// non-nil, an authenticated user.
func newRequest(t *testing.T, method, target string, body any, user *model.User, params map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "handler-test")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = auth.WithUser(ctx, user)
	}
	return req.WithContext(ctx)
}

// decodeResponse parses the envelope and returns it with the raw data.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (Response, json.RawMessage) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
		Code    string          `json:"code"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	return Response{Success: envelope.Success, Message: envelope.Message, Code: envelope.Code}, envelope.Data
}

func customer() *model.User {
	return &model.User{ID: uuid.MustParse("6f1c0a3e-2b1d-4c55-9a7e-1f0e4d2c3b10"), Name: "Meera Iyer", Email: "meera@example.com", Role: model.RoleUser, IsActive: true}
}

func staff(role model.Role) *model.User {
	return &model.User{ID: uuid.MustParse("0b7e5f2a-9c44-4e0d-8a61-3d2f1b6c7e89"), Name: "Store Admin", Email: "admin@divyashree.in", Role: role, IsActive: true}
}

func actorOf(user *model.User) model.Actor {
	return model.Actor{ID: user.ID, Role: user.Role, IP: "203.0.113.7", UserAgent: "handler-test"}
}
