package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"divyashree/internal/database"
	"divyashree/internal/model"
	"divyashree/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container and applies the application
// schema through the same migration the server runs at startup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("divyashree_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProduct inserts an active product with the given stock.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name string, category model.Category, price float64, stock int) *model.Product {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &model.Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   "Handwoven " + name,
		Price:         price,
		Category:      category,
		Fabric:        "silk",
		Occasions:     []string{"wedding"},
		Sizes:         []string{"free"},
		Colors:        []string{"maroon"},
		Images:        []string{},
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.Normalize()

	repo := repository.NewProductRepository(pool, zerolog.Nop())
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return p
}

// SeedProducts inserts a small catalogue spread over a few categories.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) []*model.Product {
	t.Helper()

	return []*model.Product{
		SeedProduct(t, pool, "Kanjivaram Silk Saree", model.CategorySarees, 12500, 5),
		SeedProduct(t, pool, "Banarasi Lehenga", model.CategoryLehengas, 28999, 3),
		SeedProduct(t, pool, "Chikankari Kurti", model.CategoryKurtis, 1899, 20),
		SeedProduct(t, pool, "Phulkari Dupatta", model.CategoryDupattas, 999, 0),
	}
}

// SetRole changes a user's role directly, for promoting a registered
// account to staff.
func SetRole(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, role model.Role) {
	t.Helper()

	if _, err := pool.Exec(context.Background(),
		"UPDATE users SET role = $1 WHERE id = $2", string(role), userID); err != nil {
		t.Fatalf("failed to set role: %v", err)
	}
}

// StockOf reads a product's current stock.
func StockOf(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(),
		"SELECT stock_quantity FROM products WHERE id = $1", productID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

// CleanupDB removes all rows except the seeded role permissions.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"audit_logs", "reviews", "order_items", "orders",
		"cart_items", "wishlist_items", "addresses", "products", "users",
	}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
