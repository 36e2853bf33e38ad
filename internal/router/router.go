package router

import (
	"net/http"

	"divyashree/internal/handler"
	"divyashree/internal/middleware"
	"divyashree/internal/model"
	"divyashree/internal/permission"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router dispatches to.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Product   *handler.ProductHandler
	Inventory *handler.InventoryHandler
	Review    *handler.ReviewHandler
	User      *handler.UserHandler
	Order     *handler.OrderHandler
	Admin     *handler.AdminHandler
}

// Deps are the collaborators the auth middleware needs.
type Deps struct {
	Tokens      middleware.TokenParser
	Users       middleware.UserLoader
	Permissions middleware.PermissionSource
	FrontendURL string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, deps Deps, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied outermost first: Recovery -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(deps.FrontendURL))
	r.Use(chimiddleware.StripSlashes)

	authenticate := middleware.Authenticate(deps.Tokens, deps.Users, logger)
	optionalAuth := middleware.OptionalAuth(deps.Tokens, deps.Users, logger)
	can := func(resource permission.Resource, action permission.Action) func(http.Handler) http.Handler {
		return middleware.RequirePermission(deps.Permissions, resource, action, logger)
	}

	r.Get("/health", h.Health.Check)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(authenticate).Get("/me", h.Auth.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Get("/featured", h.Product.Featured)
			r.Get("/{id}", h.Product.Get)
			r.Get("/{id}/related", h.Product.Related)
			r.Get("/{id}/reviews", h.Review.List)
			r.With(optionalAuth).Post("/{id}/reviews", h.Review.Create)
		})

		r.Route("/reviews/{id}", func(r chi.Router) {
			r.Post("/helpful", h.Review.MarkHelpful)
			r.With(authenticate).Put("/", h.Review.Update)
			r.With(authenticate).Delete("/", h.Review.Delete)
		})

		// Signed-in customers
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", h.User.Profile)
				r.Put("/profile", h.User.UpdateProfile)

				r.Get("/addresses", h.User.Addresses)
				r.Post("/addresses", h.User.AddAddress)
				r.Put("/addresses/{id}", h.User.UpdateAddress)
				r.Delete("/addresses/{id}", h.User.DeleteAddress)
				r.Patch("/addresses/{id}/default", h.User.SetDefaultAddress)

				r.Get("/wishlist", h.User.Wishlist)
				r.Post("/wishlist/{productId}", h.User.AddToWishlist)
				r.Delete("/wishlist/{productId}", h.User.RemoveFromWishlist)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.User.Cart)
				r.Post("/", h.User.AddToCart)
				r.Delete("/", h.User.ClearCart)
				r.Put("/{itemId}", h.User.UpdateCartItem)
				r.Delete("/{itemId}", h.User.RemoveCartItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Order.Create)
				r.Get("/", h.Order.ListMine)
				r.Get("/track/{orderNumber}", h.Order.Track)
				r.Get("/{orderId}", h.Order.Get)
				r.Patch("/{orderId}/cancel", h.Order.Cancel)
				r.Post("/{orderId}/return-exchange", h.Order.RequestReturn)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(model.AdminRoles...))

			r.With(can(permission.ResourceDashboard, permission.ActionView)).Get("/dashboard", h.Order.Dashboard)

			r.Route("/orders", func(r chi.Router) {
				r.With(can(permission.ResourceOrders, permission.ActionView)).Get("/", h.Order.List)
				r.With(can(permission.ResourceOrders, permission.ActionView)).Get("/{orderId}", h.Order.GetAdmin)
				r.With(can(permission.ResourceOrders, permission.ActionUpdate)).Patch("/{orderId}/status", h.Order.UpdateStatus)
				r.With(can(permission.ResourceOrders, permission.ActionUpdate)).Patch("/{orderId}/return-exchange", h.Order.ProcessReturn)
			})

			r.Route("/products", func(r chi.Router) {
				r.With(can(permission.ResourceProducts, permission.ActionView)).Get("/", h.Product.ListAll)
				r.With(can(permission.ResourceProducts, permission.ActionCreate)).Post("/", h.Product.Create)
				r.With(can(permission.ResourceProducts, permission.ActionUpdate)).Put("/{id}", h.Product.Update)
				r.With(can(permission.ResourceProducts, permission.ActionDelete)).Delete("/{id}", h.Product.Delete)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.With(can(permission.ResourceInventory, permission.ActionView)).Get("/low-stock", h.Inventory.LowStock)
				r.With(can(permission.ResourceInventory, permission.ActionUpdate)).Post("/bulk", h.Inventory.Bulk)
				r.With(can(permission.ResourceInventory, permission.ActionUpdate)).Post("/import", h.Inventory.Import)
				r.With(can(permission.ResourceInventory, permission.ActionUpdate)).Patch("/{id}", h.Inventory.Adjust)
			})

			r.Route("/users", func(r chi.Router) {
				r.With(can(permission.ResourceUsers, permission.ActionView)).Get("/", h.Admin.ListUsers)
				r.With(can(permission.ResourceUsers, permission.ActionView)).Get("/{id}", h.Admin.GetUser)
				r.With(can(permission.ResourceUsers, permission.ActionUpdate)).Patch("/{id}/role", h.Admin.ChangeRole)
				r.With(can(permission.ResourceUsers, permission.ActionDelete)).Delete("/{id}", h.Admin.DeactivateUser)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.With(can(permission.ResourcePermissions, permission.ActionView)).Get("/", h.Admin.ListPermissions)
				r.With(can(permission.ResourcePermissions, permission.ActionView)).Get("/{role}", h.Admin.GetPermissions)
				r.With(can(permission.ResourcePermissions, permission.ActionUpdate)).Put("/{role}", h.Admin.UpdatePermissions)
			})

			r.With(can(permission.ResourceAudit, permission.ActionView)).Get("/audit-logs", h.Admin.AuditLogs)
			r.With(can(permission.ResourceReviews, permission.ActionDelete)).Delete("/reviews/{id}", h.Review.AdminDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Route not found","code":"NOT_FOUND"}`))
	})

	return r
}
