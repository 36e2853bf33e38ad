package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"divyashree/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestProductService() (*productService, *MockProductRepository, *MockAuditor) {
	repo := new(MockProductRepository)
	auditor := new(MockAuditor)
	svc := NewProductService(repo, auditor, zerolog.Nop()).(*productService)
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }
	return svc, repo, auditor
}

func TestProductService_List_Success(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestProductService()

	testProducts := []model.Product{
		{ID: uuid.New(), Name: "Kanjivaram Saree", Price: 8999, Category: model.CategorySarees, IsActive: true},
		{ID: uuid.New(), Name: "Chikankari Kurti", Price: 1299, Category: model.CategoryKurtis, IsActive: true},
	}

	want := model.ProductFilter{Search: "silk", Page: 2, Limit: 12}
	repo.On("List", ctx, want).Return(testProducts, 14, nil)

	page, err := svc.List(ctx, model.ProductFilter{Search: "  silk ", Page: 2, IncludeInactive: true})

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, model.Pagination{Page: 2, Limit: 12, Total: 14, Pages: 2}, page.Pagination)
	repo.AssertExpectations(t)
}

func TestProductService_ListAll_IncludesInactive(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestProductService()

	repo.On("List", ctx, mock.MatchedBy(func(f model.ProductFilter) bool {
		return f.IncludeInactive
	})).Return([]model.Product{}, 0, nil)

	page, err := svc.ListAll(ctx, model.ProductFilter{})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	repo.AssertExpectations(t)
}

func TestProductService_List_Validation(t *testing.T) {
	low, high := 5000.0, 1000.0

	tests := []struct {
		name   string
		filter model.ProductFilter
	}{
		{"unknown category", model.ProductFilter{Category: "jeans"}},
		{"inverted price range", model.ProductFilter{MinPrice: &low, MaxPrice: &high}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestProductService()

			page, err := svc.List(context.Background(), tt.filter)

			assert.Nil(t, page)
			assert.Equal(t, model.KindValidation, model.KindOf(err))
			repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_List_RepositoryError(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestProductService()

	repo.On("List", ctx, mock.Anything).Return(nil, 0, errors.New("database connection failed"))

	page, err := svc.List(ctx, model.ProductFilter{})

	require.Error(t, err)
	assert.Nil(t, page)
	assert.Contains(t, err.Error(), "failed to get products")
}

func TestProductService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, repo, _ := newTestProductService()
		id := uuid.New()
		repo.On("IncrementViews", ctx, id).Return(&model.Product{ID: id, Name: "Lehenga", ViewCount: 11}, nil)

		product, err := svc.Get(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, 11, product.ViewCount)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _ := newTestProductService()
		id := uuid.New()
		repo.On("IncrementViews", ctx, id).Return(nil, nil)

		product, err := svc.Get(ctx, id)

		assert.Nil(t, product)
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})
}

func TestProductService_Related(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive product", func(t *testing.T) {
		svc, repo, _ := newTestProductService()
		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(&model.Product{ID: id, IsActive: false}, nil)

		_, err := svc.Related(ctx, id)

		assert.ErrorIs(t, err, model.ErrProductNotFound)
		repo.AssertNotCalled(t, "Related", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("uses limit", func(t *testing.T) {
		svc, repo, _ := newTestProductService()
		product := &model.Product{ID: uuid.New(), Category: model.CategoryGowns, IsActive: true}
		repo.On("GetByID", ctx, product.ID).Return(product, nil)
		repo.On("Related", ctx, product, relatedLimit).Return(nil, nil)

		related, err := svc.Related(ctx, product.ID)

		require.NoError(t, err)
		assert.NotNil(t, related)
		assert.Empty(t, related)
	})
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo, auditor := newTestProductService()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	sku := "  DS-SAR-001 "
	input := &model.ProductInput{
		Name:          " Paithani Saree ",
		SKU:           &sku,
		Price:         6000,
		OriginalPrice: 8000,
		Category:      model.CategorySarees,
		StockQuantity: 4,
	}

	repo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(nil)
	auditor.On("Record", actor, model.AuditCreate, "products", mock.AnythingOfType("string"), nil, mock.AnythingOfType("*model.Product")).Return()

	product, err := svc.Create(ctx, actor, input)

	require.NoError(t, err)
	assert.Equal(t, "Paithani Saree", product.Name)
	require.NotNil(t, product.SKU)
	assert.Equal(t, "DS-SAR-001", *product.SKU)
	assert.True(t, product.IsActive)
	assert.True(t, product.InStock)
	assert.True(t, product.OnSale)
	assert.Equal(t, 25, product.SalePercentage)
	assert.Equal(t, []string{}, product.Sizes)

	repo.AssertExpectations(t)
	auditor.AssertExpectations(t)
}

func TestProductService_Create_Validation(t *testing.T) {
	blank := "   "

	tests := []struct {
		name  string
		input *model.ProductInput
	}{
		{"nil input", nil},
		{"missing name", &model.ProductInput{Price: 100, Category: model.CategoryKurtis}},
		{"zero price", &model.ProductInput{Name: "Kurti", Category: model.CategoryKurtis}},
		{"unknown category", &model.ProductInput{Name: "Jeans", Price: 999, Category: "denim"}},
		{"original below price", &model.ProductInput{Name: "Gown", Price: 999, OriginalPrice: 500, Category: model.CategoryGowns}},
		{"negative stock", &model.ProductInput{Name: "Gown", Price: 999, Category: model.CategoryGowns, StockQuantity: -1, SKU: &blank}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestProductService()

			product, err := svc.Create(context.Background(), model.Actor{}, tt.input)

			assert.Nil(t, product)
			assert.Equal(t, model.KindValidation, model.KindOf(err))
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_Create_DuplicateSKU(t *testing.T) {
	ctx := context.Background()
	svc, repo, auditor := newTestProductService()

	repo.On("Create", ctx, mock.Anything).Return(model.ErrSKUTaken)

	_, err := svc.Create(ctx, model.Actor{}, &model.ProductInput{Name: "Dupatta", Price: 499, Category: model.CategoryDupattas})

	assert.ErrorIs(t, err, model.ErrSKUTaken)
	auditor.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo, auditor := newTestProductService()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleSubAdmin}

	existing := &model.Product{ID: uuid.New(), Name: "Old Name", Price: 1000, Category: model.CategoryBlouses, IsActive: true}
	name := " New Name "
	inactive := false

	repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	repo.On("Update", ctx, existing).Return(nil)
	auditor.On("Record", actor, model.AuditUpdate, "products", existing.ID.String(),
		mock.AnythingOfType("model.Product"), existing).Return()

	product, err := svc.Update(ctx, actor, existing.ID, &model.ProductPatch{Name: &name, IsActive: &inactive})

	require.NoError(t, err)
	assert.Equal(t, "New Name", product.Name)
	assert.Equal(t, 1000.0, product.Price)
	assert.False(t, product.IsActive)
	auditor.AssertExpectations(t)
}

func TestProductService_Update_PriceOnly(t *testing.T) {
	ctx := context.Background()
	svc, repo, auditor := newTestProductService()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	existing := &model.Product{
		ID:            uuid.New(),
		Name:          "Organza Saree",
		Description:   "Hand embroidered",
		Price:         1000,
		Category:      model.CategorySarees,
		Occasions:     []string{"festive"},
		Images:        []string{"a.jpg"},
		StockQuantity: 40,
		IsBestseller:  true,
		IsNewArrival:  true,
		IsActive:      true,
	}
	existing.Normalize()

	repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	repo.On("Update", ctx, existing).Return(nil)
	auditor.On("Record", actor, model.AuditUpdate, "products", existing.ID.String(), mock.Anything, mock.Anything).Return()

	price := 900.0
	product, err := svc.Update(ctx, actor, existing.ID, &model.ProductPatch{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, 900.0, product.Price)
	assert.Equal(t, 900.0, product.OriginalPrice)
	assert.False(t, product.OnSale)
	assert.Equal(t, 40, product.StockQuantity)
	assert.True(t, product.InStock)
	assert.Equal(t, []string{"a.jpg"}, product.Images)
	assert.Equal(t, []string{"festive"}, product.Occasions)
	assert.Equal(t, "Hand embroidered", product.Description)
	assert.True(t, product.IsBestseller)
	assert.True(t, product.IsNewArrival)
	assert.True(t, product.IsActive)
}

func TestProductService_Update_Validation(t *testing.T) {
	blank := "  "
	zero := 0.0
	low := 500.0
	denim := model.Category("denim")

	tests := []struct {
		name  string
		patch *model.ProductPatch
	}{
		{"nil patch", nil},
		{"blank name", &model.ProductPatch{Name: &blank}},
		{"zero price", &model.ProductPatch{Price: &zero}},
		{"unknown category", &model.ProductPatch{Category: &denim}},
		{"original below price", &model.ProductPatch{OriginalPrice: &low}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, repo, _ := newTestProductService()
			existing := &model.Product{ID: uuid.New(), Name: "Gown", Price: 999, Category: model.CategoryGowns}
			existing.Normalize()
			repo.On("GetByID", ctx, existing.ID).Return(existing, nil).Maybe()

			product, err := svc.Update(ctx, model.Actor{}, existing.ID, tt.patch)

			assert.Nil(t, product)
			assert.Equal(t, model.KindValidation, model.KindOf(err))
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestProductService()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(nil, nil)

	name := "X"
	_, err := svc.Update(ctx, model.Actor{}, id, &model.ProductPatch{Name: &name})

	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo, auditor := newTestProductService()
	actor := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	existing := &model.Product{ID: uuid.New(), Name: "Anarkali Gown"}
	repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
	repo.On("Delete", ctx, existing.ID).Return(true, nil)
	auditor.On("Record", actor, model.AuditDelete, "products", existing.ID.String(), existing, nil).Return()

	require.NoError(t, svc.Delete(ctx, actor, existing.ID))
	auditor.AssertExpectations(t)
}

func TestProductService_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestProductService()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(nil, nil)

	assert.ErrorIs(t, svc.Delete(ctx, model.Actor{}, id), model.ErrProductNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
