package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newStorefrontUsecase() (*usecase.StorefrontUsecase, *ProductRepoMock, *CategoryRepoMock, *InventoryRepoMock) {
	productRepo := new(ProductRepoMock)
	categoryRepo := new(CategoryRepoMock)
	invRepo := new(InventoryRepoMock)
	uc := usecase.NewStorefrontUsecase(productRepo, categoryRepo, invRepo)
	return uc, productRepo, categoryRepo, invRepo
}

func TestStorefrontUsecase_ListProducts_InvalidPage(t *testing.T) {
	uc, _, _, _ := newStorefrontUsecase()

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestStorefrontUsecase_ListProducts_MinOverMax(t *testing.T) {
	uc, _, _, _ := newStorefrontUsecase()

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{
		Page: 1, Limit: 20,
		MinPrice: ptr(dec("100")),
		MaxPrice: ptr(dec("50")),
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestStorefrontUsecase_ListProducts_InvalidSort(t *testing.T) {
	uc, _, _, _ := newStorefrontUsecase()

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Sort: "name"})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestStorefrontUsecase_ListProducts_Success(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _, _ := newStorefrontUsecase()

	productRepo.On("ListPublic", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.Q == "coffee" && q.Sort == "price_asc"
	})).Return([]model.Product{
		{ID: 1, Name: "Coffee", Slug: "coffee", BasePrice: dec("9.90"), IsActive: true},
	}, int64(1), nil)

	out, err := uc.ListProducts(ctx, usecase.ListProductsInput{Page: 1, Limit: 20, Q: " coffee ", Sort: "price_asc"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, "9.90", out.Items[0].BasePrice)

	productRepo.AssertExpectations(t)
}

func TestStorefrontUsecase_GetProductBySlug_InactiveIs404(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _, _ := newStorefrontUsecase()

	productRepo.On("FindBySlug", mock.Anything, "mug").Return(model.Product{ID: 1, Slug: "mug", IsActive: false}, nil)

	_, err := uc.GetProductBySlug(ctx, "mug")
	assertHTTPStatus(t, err, http.StatusNotFound)
}

// 非公開バリエーションは出さず、在庫レコードが無ければavailable=0
func TestStorefrontUsecase_GetProductBySlug_Variants(t *testing.T) {
	ctx := context.Background()
	uc, productRepo, _, invRepo := newStorefrontUsecase()

	variantPrice := dec("12.50")
	productRepo.On("FindBySlug", mock.Anything, "mug").Return(model.Product{
		ID: 1, Name: "Mug", Slug: "mug", BasePrice: dec("10.00"), IsActive: true,
	}, nil)
	productRepo.On("ListVariantsByProductID", mock.Anything, int64(1)).Return([]model.ProductVariant{
		{ID: 100, ProductID: 1, Name: "Blue", SKU: "MUG-B", Price: &variantPrice, IsActive: true},
		{ID: 101, ProductID: 1, Name: "Red", SKU: "MUG-R", IsActive: true},
		{ID: 102, ProductID: 1, Name: "Old", SKU: "MUG-O", IsActive: false},
	}, nil)
	invRepo.On("FindByVariantID", mock.Anything, int64(100)).Return(model.Inventory{VariantID: 100, Quantity: 5, Reserved: 1}, nil)
	invRepo.On("FindByVariantID", mock.Anything, int64(101)).Return(model.Inventory{}, repo.ErrNotFound)

	out, err := uc.GetProductBySlug(ctx, "mug")
	assert.NoError(t, err)
	assert.Len(t, out.Variants, 2)
	assert.Equal(t, "12.50", out.Variants[0].Price)
	assert.Equal(t, int64(4), out.Variants[0].Available)
	assert.Equal(t, "10.00", out.Variants[1].Price) // Price無しはBasePrice
	assert.Equal(t, int64(0), out.Variants[1].Available)
}
