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

func newCartUsecase() (*usecase.CartUsecase, *CartRepoMock, *CartItemRepoMock, *ProductRepoMock, *InventoryRepoMock) {
	cartRepo := new(CartRepoMock)
	itemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	invRepo := new(InventoryRepoMock)
	uc := usecase.NewCartUsecase(cartRepo, itemRepo, productRepo, invRepo)
	return uc, cartRepo, itemRepo, productRepo, invRepo
}

func TestCartUsecase_GetCart_RequiresOwner(t *testing.T) {
	uc, _, _, _, _ := newCartUsecase()

	_, err := uc.GetCart(context.Background(), "", 0)
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestCartUsecase_GetCart_EmptyCart(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _, _ := newCartUsecase()

	cartRepo.On("GetOrCreateByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 7}, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil)

	view, err := uc.GetCart(ctx, "sess-1", 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), view.CartID)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Subtotal)

	cartRepo.AssertExpectations(t)
}

func TestCartUsecase_AddToCart_InvalidQuantity(t *testing.T) {
	uc, _, _, _, _ := newCartUsecase()

	_, err := uc.AddToCart(context.Background(), "sess-1", 0, usecase.AddCartInput{ProductID: 1, Quantity: 0})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestCartUsecase_AddToCart_InactiveProduct(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, _, productRepo, _ := newCartUsecase()

	cartRepo.On("GetOrCreateByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, IsActive: false}, nil)

	_, err := uc.AddToCart(ctx, "sess-1", 0, usecase.AddCartInput{ProductID: 10, Quantity: 1})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

// バリエーション価格があればそちらをスナップショットにする
func TestCartUsecase_AddToCart_VariantPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, productRepo, _ := newCartUsecase()

	variantPrice := dec("24.50")
	cartRepo.On("GetOrCreateByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", BasePrice: dec("19.99"), IsActive: true}, nil)
	productRepo.On("FindVariantByID", mock.Anything, int64(100)).Return(model.ProductVariant{ID: 100, ProductID: 10, Price: &variantPrice, IsActive: true}, nil)

	itemRepo.On("UpsertLine", mock.Anything, int64(1), int64(10), ptr(int64(100)), int64(2), variantPrice).Return(nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 5, CartID: 1, ProductID: 10, VariantID: ptr(int64(100)), Quantity: 2, PriceSnapshot: variantPrice},
	}, nil)

	view, err := uc.AddToCart(ctx, "sess-1", 0, usecase.AddCartInput{ProductID: 10, VariantID: ptr(int64(100)), Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, "24.50", view.Items[0].Price)
	assert.Equal(t, "49.00", view.Items[0].LineTotal)
	assert.Equal(t, "49.00", view.Subtotal)

	itemRepo.AssertExpectations(t)
}

// 他商品のバリエーションIDを渡しても通らない
func TestCartUsecase_AddToCart_VariantOfOtherProduct(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, _, productRepo, _ := newCartUsecase()

	cartRepo.On("GetOrCreateByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, BasePrice: dec("19.99"), IsActive: true}, nil)
	productRepo.On("FindVariantByID", mock.Anything, int64(200)).Return(model.ProductVariant{ID: 200, ProductID: 99, IsActive: true}, nil)

	_, err := uc.AddToCart(ctx, "sess-1", 0, usecase.AddCartInput{ProductID: 10, VariantID: ptr(int64(200)), Quantity: 1})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

// 他人のカートの明細IDを触ると404
func TestCartUsecase_UpdateCartItem_NotOwned(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _, _ := newCartUsecase()

	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	itemRepo.On("FindByID", mock.Anything, int64(50)).Return(model.CartItem{ID: 50, CartID: 999}, nil)

	_, err := uc.UpdateCartItem(ctx, "sess-1", 0, 50, usecase.UpdateCartItemInput{Quantity: 3})
	assertHTTPStatus(t, err, http.StatusNotFound)

	itemRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_ClearCart_NoCart(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, _, _, _ := newCartUsecase()

	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{}, repo.ErrNotFound)

	view, err := uc.ClearCart(ctx, "sess-1", 0)
	assert.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.Subtotal)
}

func TestCartUsecase_MergeCart_RequiresBothOwners(t *testing.T) {
	uc, _, _, _, _ := newCartUsecase()

	_, err := uc.MergeCart(context.Background(), "sess-1", 0)
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

// ゲストカートが無ければユーザーカートをそのまま返す
func TestCartUsecase_MergeCart_NoGuestCart(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _, _ := newCartUsecase()

	cartRepo.On("GetOrCreateByOwner", mock.Anything, "", int64(3)).Return(model.Cart{ID: 30}, nil)
	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{}, repo.ErrNotFound)
	itemRepo.On("ListByCartID", mock.Anything, int64(30)).Return([]model.CartItem{}, nil)

	view, err := uc.MergeCart(ctx, "sess-1", 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(30), view.CartID)

	cartRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ゲストの明細をスナップショット価格ごと引き継ぎ、ゲストカートは消す
func TestCartUsecase_MergeCart_MovesGuestLines(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, productRepo, _ := newCartUsecase()

	guestPrice := dec("12.00")

	cartRepo.On("GetOrCreateByOwner", mock.Anything, "", int64(3)).Return(model.Cart{ID: 30}, nil)
	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 20}, nil)

	itemRepo.On("ListByCartID", mock.Anything, int64(20)).Return([]model.CartItem{
		{ID: 1, CartID: 20, ProductID: 10, Quantity: 2, PriceSnapshot: guestPrice},
	}, nil)
	itemRepo.On("UpsertLine", mock.Anything, int64(30), int64(10), (*int64)(nil), int64(2), guestPrice).Return(nil)
	cartRepo.On("Delete", mock.Anything, int64(20)).Return(nil)

	itemRepo.On("ListByCartID", mock.Anything, int64(30)).Return([]model.CartItem{
		{ID: 9, CartID: 30, ProductID: 10, Quantity: 2, PriceSnapshot: guestPrice},
	}, nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", IsActive: true}, nil)

	view, err := uc.MergeCart(ctx, "sess-1", 3)
	assert.NoError(t, err)
	assert.Equal(t, "24.00", view.Subtotal)
	assert.Equal(t, int64(2), view.ItemCount)

	cartRepo.AssertExpectations(t)
	itemRepo.AssertExpectations(t)
}

// 在庫不足はエラーではなく結果に積む
func TestCartUsecase_ValidateInventory_ReportsShortage(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, itemRepo, _, invRepo := newCartUsecase()

	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	itemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, VariantID: ptr(int64(100)), Quantity: 5},
		{ID: 2, CartID: 1, ProductID: 11, Quantity: 1}, // バリエーション無しは対象外
	}, nil)
	invRepo.On("FindByVariantID", mock.Anything, int64(100)).Return(model.Inventory{VariantID: 100, Quantity: 4, Reserved: 2}, nil)

	result, err := uc.ValidateInventory(ctx, "sess-1", 0)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Len(t, result.Issues, 1)
	assert.Equal(t, int64(5), result.Issues[0].Requested)
	assert.Equal(t, int64(2), result.Issues[0].Available)
}

func TestCartUsecase_ValidateInventory_NoCartIsValid(t *testing.T) {
	ctx := context.Background()
	uc, cartRepo, _, _, _ := newCartUsecase()

	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{}, repo.ErrNotFound)

	result, err := uc.ValidateInventory(ctx, "sess-1", 0)
	assert.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Issues)
}
