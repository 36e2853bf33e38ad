package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"divyashree/internal/auth"
	"divyashree/internal/handler"
	"divyashree/internal/model"
	"divyashree/internal/permission"
	"divyashree/internal/service"
	"divyashree/internal/tasks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var (
	customerID = uuid.MustParse("6f1c0a3e-2b1d-4c55-9a7e-1f0e4d2c3b10")
	subAdminID = uuid.MustParse("0b7e5f2a-9c44-4e0d-8a61-3d2f1b6c7e89")
)

// stubTokens treats the bearer token as the user id.
type stubTokens struct{}

func (stubTokens) Parse(token string) (*auth.Claims, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: id}, nil
}

type stubUsers struct{}

func (stubUsers) Me(_ context.Context, id uuid.UUID) (*model.User, error) {
	switch id {
	case customerID:
		return &model.User{ID: id, Role: model.RoleUser, IsActive: true}, nil
	case subAdminID:
		return &model.User{ID: id, Role: model.RoleSubAdmin, IsActive: true}, nil
	}
	return nil, model.ErrUserNotFound
}

type stubPermissions struct{}

func (stubPermissions) SetFor(context.Context, model.Role) (*permission.Set, error) {
	return permission.NewSet(permission.Capability{Resource: permission.ResourceOrders, Action: permission.ActionView}), nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return errors.New("not connected") }

type stubStats struct{}

func (stubStats) Stats() tasks.Stats { return tasks.Stats{} }

// stubReviews enforces ownership the way the service does and records
// which delete path ran.
type stubReviews struct {
	service.ReviewService
	owner        uuid.UUID
	deleted      int
	adminDeleted int
}

func (s *stubReviews) Delete(_ context.Context, actor model.Actor, _ uuid.UUID) error {
	if actor.ID != s.owner {
		return model.ErrForbidden
	}
	s.deleted++
	return nil
}

func (s *stubReviews) DeleteAsAdmin(context.Context, model.Actor, uuid.UUID) error {
	s.adminDeleted++
	return nil
}

func newTestRouter() http.Handler {
	return newTestRouterWith(handler.NewReviewHandler(nil, zerolog.Nop()))
}

func newTestRouterWith(reviews *handler.ReviewHandler) http.Handler {
	logger := zerolog.Nop()
	h := Handlers{
		Health:    handler.NewHealthHandler(stubPinger{}, stubStats{}, logger),
		Auth:      handler.NewAuthHandler(nil, logger),
		Product:   handler.NewProductHandler(nil, logger),
		Inventory: handler.NewInventoryHandler(nil, logger),
		Review:    reviews,
		User:      handler.NewUserHandler(nil, logger),
		Order:     handler.NewOrderHandler(nil, logger),
		Admin:     handler.NewAdminHandler(nil, nil, logger),
	}
	deps := Deps{
		Tokens:      stubTokens{},
		Users:       stubUsers{},
		Permissions: stubPermissions{},
		FrontendURL: "http://localhost:3000",
	}
	return New(h, deps, logger)
}

// These cases are all rejected before a service is reached.
func TestRouter_Gating(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		token          uuid.UUID
		expectedStatus int
	}{
		{"health reports database state", http.MethodGet, "/health", uuid.Nil, http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/api/gift-cards", uuid.Nil, http.StatusNotFound},
		{"cart requires auth", http.MethodGet, "/api/cart", uuid.Nil, http.StatusUnauthorized},
		{"orders require auth", http.MethodPost, "/api/orders", uuid.Nil, http.StatusUnauthorized},
		{"review edit requires auth", http.MethodPut, "/api/reviews/" + uuid.NewString(), uuid.Nil, http.StatusUnauthorized},
		{"me requires auth", http.MethodGet, "/api/auth/me", uuid.Nil, http.StatusUnauthorized},
		{"unknown account", http.MethodGet, "/api/cart", uuid.New(), http.StatusUnauthorized},
		{"customer kept out of admin", http.MethodGet, "/api/admin/orders", customerID, http.StatusForbidden},
		{"subadmin lacks product create", http.MethodPost, "/api/admin/products", subAdminID, http.StatusForbidden},
		{"subadmin lacks user delete", http.MethodDelete, "/api/admin/users/" + uuid.NewString(), subAdminID, http.StatusForbidden},
		{"subadmin reaches order detail", http.MethodGet, "/api/admin/orders/not-a-uuid", subAdminID, http.StatusBadRequest},
		{"trailing slash stripped", http.MethodGet, "/api/products/not-a-uuid/", uuid.Nil, http.StatusBadRequest},
		{"preflight", http.MethodOptions, "/api/orders", uuid.Nil, http.StatusNoContent},
	}

	r := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != uuid.Nil {
				req.Header.Set("Authorization", "Bearer "+tt.token.String())
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRouter_ReviewDeletion(t *testing.T) {
	reviews := &stubReviews{owner: customerID}
	r := newTestRouterWith(handler.NewReviewHandler(reviews, zerolog.Nop()))

	send := func(path string, user uuid.UUID) int {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("Authorization", "Bearer "+user.String())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	id := uuid.NewString()

	// A subadmin has reviews.view only, so neither route removes the review.
	assert.Equal(t, http.StatusForbidden, send("/api/admin/reviews/"+id, subAdminID))
	assert.Equal(t, http.StatusForbidden, send("/api/reviews/"+id, subAdminID))
	assert.Zero(t, reviews.deleted)
	assert.Zero(t, reviews.adminDeleted)

	assert.Equal(t, http.StatusOK, send("/api/reviews/"+id, customerID))
	assert.Equal(t, 1, reviews.deleted)
	assert.Zero(t, reviews.adminDeleted)
}
