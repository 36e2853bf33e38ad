package repository

import (
	"context"
	"testing"
	"time"

	"divyashree/internal/database"
	"divyashree/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema
// applied and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedUser inserts a customer and returns it.
func seedUser(t *testing.T, repo UserRepository, email string) *model.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &model.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

// seedProduct inserts a product with the given stock and returns it.
func seedProduct(t *testing.T, repo ProductRepository, name string, category model.Category, price float64, stock int) *model.Product {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &model.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         price,
		Category:      category,
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.Normalize()
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestWhere(t *testing.T) {
	tests := []struct {
		name     string
		build    func(w *where)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "empty",
			build:    func(w *where) {},
			wantSQL:  "",
			wantArgs: nil,
		},
		{
			name: "single clause without args",
			build: func(w *where) {
				w.add("is_active")
			},
			wantSQL:  " WHERE is_active",
			wantArgs: nil,
		},
		{
			name: "placeholders numbered across clauses",
			build: func(w *where) {
				w.add("is_active")
				w.add("(name ILIKE ? OR fabric ILIKE ?)", "%silk%", "%silk%")
				w.add("price >= ?", 100.0)
			},
			wantSQL:  " WHERE is_active AND (name ILIKE $1 OR fabric ILIKE $2) AND price >= $3",
			wantArgs: []any{"%silk%", "%silk%", 100.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &where{}
			tt.build(w)
			assert.Equal(t, tt.wantSQL, w.sql())
			assert.Equal(t, tt.wantArgs, w.args)
		})
	}
}

func TestWhere_Next(t *testing.T) {
	w := &where{}
	w.add("category = ?", "sarees")

	assert.Equal(t, "$2", w.next(12))
	assert.Equal(t, "$3", w.next(0))
	assert.Len(t, w.args, 3)
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	other := &pgconn.PgError{Code: "23503", ConstraintName: "orders_user_id_fkey"}

	assert.True(t, isUniqueViolation(dup, ""))
	assert.True(t, isUniqueViolation(dup, "users_email_key"))
	assert.False(t, isUniqueViolation(dup, "products_sku_key"))
	assert.False(t, isUniqueViolation(other, ""))
	assert.False(t, isUniqueViolation(assert.AnError, ""))
}

func TestMigrate_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	var roles int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM role_permissions").Scan(&roles))
	assert.Equal(t, 4, roles)
}
