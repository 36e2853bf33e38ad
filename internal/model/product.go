package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the closed set of catalogue categories.
type Category string

const (
	CategorySarees      Category = "sarees"
	CategoryLehengas    Category = "lehengas"
	CategorySalwarSuits Category = "salwar-suits"
	CategoryKurtis      Category = "kurtis"
	CategoryGowns       Category = "gowns"
	CategoryDupattas    Category = "dupattas"
	CategoryBlouses     Category = "blouses"
	CategoryAccessories Category = "accessories"
)

// Categories lists every valid category.
var Categories = []Category{
	CategorySarees,
	CategoryLehengas,
	CategorySalwarSuits,
	CategoryKurtis,
	CategoryGowns,
	CategoryDupattas,
	CategoryBlouses,
	CategoryAccessories,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Product represents an item in the catalogue.
type Product struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	SKU            *string   `json:"sku,omitempty"`
	Price          float64   `json:"price"`
	OriginalPrice  float64   `json:"originalPrice"`
	Category       Category  `json:"category"`
	Fabric         string    `json:"fabric"`
	Occasions      []string  `json:"occasions"`
	Sizes          []string  `json:"sizes"`
	Colors         []string  `json:"colors"`
	Images         []string  `json:"images"`
	StockQuantity  int       `json:"stockQuantity"`
	InStock        bool      `json:"inStock"`
	SoldCount      int       `json:"soldCount"`
	ViewCount      int       `json:"viewCount"`
	OnSale         bool      `json:"onSale"`
	SalePercentage int       `json:"salePercentage"`
	IsBestseller   bool      `json:"isBestseller"`
	IsNewArrival   bool      `json:"isNewArrival"`
	Rating         float64   `json:"rating"`
	Reviews        int       `json:"reviews"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Normalize recomputes the derived fields. It must run before every save.
func (p *Product) Normalize() {
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}
	p.InStock = p.StockQuantity > 0

	if p.OriginalPrice <= 0 {
		p.OriginalPrice = p.Price
	}
	p.OnSale = p.OriginalPrice > p.Price
	p.SalePercentage = 0
	if p.OnSale {
		orig := decimal.NewFromFloat(p.OriginalPrice)
		discount := orig.Sub(decimal.NewFromFloat(p.Price)).Div(orig).Mul(decimal.NewFromInt(100))
		p.SalePercentage = int(discount.Round(0).IntPart())
	}

	if p.Occasions == nil {
		p.Occasions = []string{}
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
}

// ProductInput is the admin create payload.
type ProductInput struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	SKU           *string  `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price         float64  `json:"price" validate:"gt=0"`
	OriginalPrice float64  `json:"originalPrice" validate:"gte=0"`
	Category      Category `json:"category" validate:"required"`
	Fabric        string   `json:"fabric" validate:"max=100"`
	Occasions     []string `json:"occasions"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Images        []string `json:"images"`
	StockQuantity int      `json:"stockQuantity" validate:"gte=0"`
	IsBestseller  bool     `json:"isBestseller"`
	IsNewArrival  bool     `json:"isNewArrival"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

// Apply copies the input onto p and recomputes derived fields.
func (in *ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.SKU = in.SKU
	p.Price = in.Price
	p.OriginalPrice = in.OriginalPrice
	p.Category = in.Category
	p.Fabric = in.Fabric
	p.Occasions = in.Occasions
	p.Sizes = in.Sizes
	p.Colors = in.Colors
	p.Images = in.Images
	p.StockQuantity = in.StockQuantity
	p.IsBestseller = in.IsBestseller
	p.IsNewArrival = in.IsNewArrival
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.Normalize()
}

// ProductPatch is the admin edit payload. Nil fields keep their stored
// value. Stock is not editable here; it moves only through inventory
// adjustments and orders.
type ProductPatch struct {
	Name          *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	SKU           *string   `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price         *float64  `json:"price,omitempty"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	Category      *Category `json:"category,omitempty"`
	Fabric        *string   `json:"fabric,omitempty" validate:"omitempty,max=100"`
	Occasions     []string  `json:"occasions,omitempty"`
	Sizes         []string  `json:"sizes,omitempty"`
	Colors        []string  `json:"colors,omitempty"`
	Images        []string  `json:"images,omitempty"`
	IsBestseller  *bool     `json:"isBestseller,omitempty"`
	IsNewArrival  *bool     `json:"isNewArrival,omitempty"`
	IsActive      *bool     `json:"isActive,omitempty"`
}

// Apply copies the fields present in the patch onto p and recomputes
// derived fields. An empty SKU clears it.
func (in *ProductPatch) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.SKU != nil {
		if *in.SKU == "" {
			p.SKU = nil
		} else {
			sku := *in.SKU
			p.SKU = &sku
		}
	}
	if in.Price != nil {
		// A product not on sale keeps original price in step with price.
		if in.OriginalPrice == nil && !p.OnSale {
			p.OriginalPrice = 0
		}
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Fabric != nil {
		p.Fabric = *in.Fabric
	}
	if in.Occasions != nil {
		p.Occasions = in.Occasions
	}
	if in.Sizes != nil {
		p.Sizes = in.Sizes
	}
	if in.Colors != nil {
		p.Colors = in.Colors
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.IsBestseller != nil {
		p.IsBestseller = *in.IsBestseller
	}
	if in.IsNewArrival != nil {
		p.IsNewArrival = *in.IsNewArrival
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.Normalize()
}

// ProductSort enumerates listing orders.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
	SortPopular   ProductSort = "popular"
)

// ProductFilter holds catalogue listing criteria.
type ProductFilter struct {
	Search          string
	Category        Category
	Occasion        string
	MinPrice        *float64
	MaxPrice        *float64
	InStock         *bool
	OnSale          bool
	Bestseller      bool
	NewArrival      bool
	IncludeInactive bool
	Sort            ProductSort
	Page            int
	Limit           int
}

// FeaturedProducts groups the storefront home page collections.
type FeaturedProducts struct {
	Bestsellers []Product `json:"bestsellers"`
	NewArrivals []Product `json:"newArrivals"`
	OnSale      []Product `json:"onSale"`
}

// StockAction is one of the supported stock adjustment modes.
type StockAction string

const (
	StockSet      StockAction = "set"
	StockAdd      StockAction = "add"
	StockSubtract StockAction = "subtract"
)

// Valid reports whether a is a known stock action.
func (a StockAction) Valid() bool {
	return a == StockSet || a == StockAdd || a == StockSubtract
}

// StockUpdate is a single stock adjustment request.
type StockUpdate struct {
	ProductID uuid.UUID   `json:"productId"`
	Action    StockAction `json:"action"`
	Quantity  int         `json:"quantity"`
}

// StockAdjustRequest is the body of a single-product stock change.
type StockAdjustRequest struct {
	Action   StockAction `json:"action" validate:"required"`
	Quantity *int        `json:"quantity" validate:"required,gte=0"`
}

// BulkStockRequest adjusts many products at once.
type BulkStockRequest struct {
	Updates []StockUpdate `json:"updates" validate:"required,min=1,max=500"`
}

// StockChange reports the effect of one adjustment.
type StockChange struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	InStock   bool      `json:"inStock"`
}

// BulkStockResult is the per-item outcome of a bulk adjustment.
type BulkStockResult struct {
	Succeeded []StockChange     `json:"succeeded"`
	Failed    []BulkStockFailed `json:"failed"`
}

// BulkStockFailed records why one item of a bulk adjustment was skipped.
type BulkStockFailed struct {
	ProductID uuid.UUID `json:"productId"`
	Error     string    `json:"error"`
}

// NextStock applies action to current, flooring the result at zero.
func NextStock(current int, action StockAction, qty int) int {
	var next int
	switch action {
	case StockSet:
		next = qty
	case StockAdd:
		next = current + qty
	case StockSubtract:
		next = current - qty
	default:
		next = current
	}
	if next < 0 {
		return 0
	}
	return next
}
