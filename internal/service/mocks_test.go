package service

import (
	"context"

	"divyashree/internal/inventoryfeed"
	"divyashree/internal/model"
	"divyashree/internal/notify"
	"divyashree/internal/permission"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, f model.ProductFilter) ([]model.Product, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) IncrementViews(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Featured(ctx context.Context, limit int) (*model.FeaturedProducts, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FeaturedProducts), args.Error(1)
}

func (m *MockProductRepository) Related(ctx context.Context, p *model.Product, limit int) ([]model.Product, error) {
	args := m.Called(ctx, p, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, action model.StockAction, qty int) (*model.StockChange, error) {
	args := m.Called(ctx, id, action, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockChange), args.Error(1)
}

func (m *MockProductRepository) ReserveStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (string, bool, error) {
	args := m.Called(ctx, tx, id, qty)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockProductRepository) ReleaseStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (bool, error) {
	args := m.Called(ctx, tx, id, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) LowStock(ctx context.Context, threshold, limit int) ([]model.Product, error) {
	args := m.Called(ctx, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Counts(ctx context.Context, threshold int) (int, int, error) {
	args := m.Called(ctx, threshold)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Stats(ctx context.Context) (*model.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardStats), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	args := m.Called(ctx, id, active)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, f model.UserFilter) ([]model.User, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockUserRepository) AddAddress(ctx context.Context, a *model.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockUserRepository) UpdateAddress(ctx context.Context, a *model.Address) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, addressID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, addressID)
	return args.Bool(0), args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) ListCart(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartRepository) AddCartItem(ctx context.Context, item *model.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (bool, error) {
	args := m.Called(ctx, userID, itemID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartRepository) ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockCartRepository) AddWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockCartRepository) RemoveWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

// MockReviewRepository is a mock implementation of ReviewRepository.
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, rv *model.Review) error {
	return m.Called(ctx, rv).Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, rv *model.Review) error {
	return m.Called(ctx, rv).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) ExistsForUser(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Review, int, error) {
	args := m.Called(ctx, productID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) Distribution(ctx context.Context, productID uuid.UUID) (map[int]int, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *MockReviewRepository) IncrementHelpful(ctx context.Context, id uuid.UUID) (int, bool, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockReviewRepository) RecomputeProductRating(ctx context.Context, productID uuid.UUID) (model.RatingSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(model.RatingSummary), args.Error(1)
}

// MockPermissionRepository is a mock implementation of PermissionRepository.
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) List(ctx context.Context) ([]permission.RolePermission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]permission.RolePermission), args.Error(1)
}

func (m *MockPermissionRepository) Get(ctx context.Context, role model.Role) (*permission.RolePermission, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*permission.RolePermission), args.Error(1)
}

func (m *MockPermissionRepository) Upsert(ctx context.Context, rp *permission.RolePermission) error {
	return m.Called(ctx, rp).Error(0)
}

// MockAuditor captures audit records.
type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) Record(actor model.Actor, action model.AuditAction, resource, resourceID string, before, after any) {
	m.Called(actor, action, resource, resourceID, before, after)
}

func (m *MockAuditor) List(ctx context.Context, f model.AuditFilter) ([]model.AuditLog, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.AuditLog), args.Int(1), args.Error(2)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderPlaced(ctx context.Context, to notify.Recipient, o *model.Order) error {
	return m.Called(ctx, to, o).Error(0)
}

func (m *MockNotifier) OrderCancelled(ctx context.Context, to notify.Recipient, o *model.Order) error {
	return m.Called(ctx, to, o).Error(0)
}

func (m *MockNotifier) OrderStatusChanged(ctx context.Context, to notify.Recipient, o *model.Order, previous model.OrderStatus) error {
	return m.Called(ctx, to, o, previous).Error(0)
}

// MockFeedLoader is a mock implementation of inventoryfeed.Loader.
type MockFeedLoader struct {
	mock.Mock
}

func (m *MockFeedLoader) Load(ctx context.Context, name string) (*inventoryfeed.Feed, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryfeed.Feed), args.Error(1)
}

// MockTokenIssuer is a mock implementation of TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(userID uuid.UUID, role model.Role) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
