package handler

import (
	"net/http"
	"strconv"

	"divyashree/internal/model"
	"divyashree/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalogue requests, public and admin.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, page)
}

// ListAll handles GET /api/admin/products.
func (h *ProductHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	page, err := h.service.ListAll(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, page)
}

// Featured handles GET /api/products/featured.
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	featured, err := h.service.Featured(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, featured)
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, product)
}

// Related handles GET /api/products/{id}/related.
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	related, err := h.service.Related(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, related)
}

// Create handles POST /api/admin/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var input model.ProductInput
	if err := decode(w, r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), actorFrom(r, user), &input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusCreated, product)
}

// Update handles PUT /api/admin/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var patch model.ProductPatch
	if err := decode(w, r, &patch); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), actorFrom(r, user), id, &patch)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respond(w, http.StatusOK, product)
}

// Delete handles DELETE /api/admin/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), actorFrom(r, user), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	respondMessage(w, "Product deleted")
}

// productFilter reads catalogue listing criteria from the query string.
func productFilter(r *http.Request) (model.ProductFilter, error) {
	q := r.URL.Query()
	filter := model.ProductFilter{
		Search:     q.Get("search"),
		Category:   model.Category(q.Get("category")),
		Occasion:   q.Get("occasion"),
		OnSale:     q.Get("onSale") == "true",
		Bestseller: q.Get("bestseller") == "true",
		NewArrival: q.Get("newArrival") == "true",
		Sort:       model.ProductSort(q.Get("sort")),
	}

	var err error
	if filter.Page, filter.Limit, err = pageParams(r); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = queryFloat(r, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = queryFloat(r, "maxPrice"); err != nil {
		return filter, err
	}
	if raw := q.Get("inStock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, model.NewValidation("invalid inStock parameter")
		}
		filter.InStock = &inStock
	}

	switch filter.Sort {
	case "", model.SortNewest, model.SortPriceAsc, model.SortPriceDesc, model.SortRating, model.SortPopular:
	default:
		return filter, model.NewValidation("invalid sort parameter")
	}
	return filter, nil
}

func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, model.NewValidation("invalid %s parameter", name)
	}
	return &v, nil
}
