package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase はカートの業務ロジックです。
// ゲストは session_id、ログイン済みは user_id でカートを持ちます。
type CartUsecase struct {
	cartRepo      repo.CartRepository
	cartItemRepo  repo.CartItemRepository
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:      cartRepo,
		cartItemRepo:  cartItemRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
	}
}

// 金額はStringFixed(2)の文字列で返す（JSONのfloat事故を避ける）
type CartItemView struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type CartView struct {
	CartID    int64          `json:"cart_id"`
	Items     []CartItemView `json:"items"`
	Subtotal  string         `json:"subtotal"`
	ItemCount int64          `json:"item_count"`
}

type AddCartInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// 所有者の識別。sessionIDとuserIDのどちらか片方が必須。
func ownerValid(sessionID string, userID int64) bool {
	return sessionID != "" || userID > 0
}

// GetCart はカート取得（無ければ作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string, userID int64) (CartView, error) {
	if !ownerValid(sessionID, userID) {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}

	cart, err := u.cartRepo.GetOrCreateByOwner(ctx, sessionID, userID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// AddToCart はカートに追加。同一(product, variant)は数量加算。
// 価格は追加時点のスナップショットを保存する。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, userID int64, in AddCartInput) (CartView, error) {
	if !ownerValid(sessionID, userID) {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}
	if in.ProductID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.GetOrCreateByOwner(ctx, sessionID, userID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	price := p.BasePrice
	if in.VariantID != nil {
		v, err := u.productRepo.FindVariantByID(ctx, *in.VariantID)
		if err == repo.ErrNotFound {
			return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
		}
		if err != nil {
			return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if v.ProductID != in.ProductID || !v.IsActive {
			return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
		}
		price = v.EffectivePrice(p.BasePrice)
	}

	if err := u.cartItemRepo.UpsertLine(ctx, cart.ID, in.ProductID, in.VariantID, in.Quantity, price); err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// 数量変更（所有チェックつき）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, sessionID string, userID int64, cartItemID int64, in UpdateCartItemInput) (CartView, error) {
	if !ownerValid(sessionID, userID) {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}
	if cartItemID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, item, err := u.findOwnedItem(ctx, sessionID, userID, cartItemID)
	if err != nil {
		return CartView{}, err
	}
	_ = item

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartView{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// 明細削除
func (u *CartUsecase) RemoveCartItem(ctx context.Context, sessionID string, userID int64, cartItemID int64) (CartView, error) {
	if !ownerValid(sessionID, userID) {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}
	if cartItemID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	cart, _, err := u.findOwnedItem(ctx, sessionID, userID, cartItemID)
	if err != nil {
		return CartView{}, err
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartView{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// 全明細削除
func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string, userID int64) (CartView, error) {
	if !ownerValid(sessionID, userID) {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}

	cart, err := u.cartRepo.FindByOwner(ctx, sessionID, userID)
	if err == repo.ErrNotFound {
		//カートが無ければ空を返すだけ
		return CartView{Items: []CartItemView{}, Subtotal: "0.00"}, nil
	}
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, cart.ID)
}

// MergeCart はログイン時にゲストカートをユーザーカートへ統合する。
// 同一(product, variant)は数量加算、スナップショット価格はゲスト側を引き継ぐ。
// ゲストカートが無い/空なら何もしないでユーザーカートを返す。
func (u *CartUsecase) MergeCart(ctx context.Context, sessionID string, userID int64) (CartView, error) {
	if sessionID == "" || userID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "session and login required")
	}

	userCart, err := u.cartRepo.GetOrCreateByOwner(ctx, "", userID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	guestCart, err := u.cartRepo.FindByOwner(ctx, sessionID, 0)
	if err == repo.ErrNotFound {
		return u.buildCartView(ctx, userCart.ID)
	}
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	guestItems, err := u.cartItemRepo.ListByCartID(ctx, guestCart.ID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	for _, it := range guestItems {
		if err := u.cartItemRepo.UpsertLine(ctx, userCart.ID, it.ProductID, it.VariantID, it.Quantity, it.PriceSnapshot); err != nil {
			return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	// ゲストカートは本体ごと削除
	if err := u.cartRepo.Delete(ctx, guestCart.ID); err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartView(ctx, userCart.ID)
}

type InventoryIssue struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

type InventoryCheckResult struct {
	Valid  bool             `json:"valid"`
	Issues []InventoryIssue `json:"issues"`
}

// ValidateInventory は明細ごとの在庫充足を調べる。
// 不足は戻り値に積むだけで、エラーにはしない。
func (u *CartUsecase) ValidateInventory(ctx context.Context, sessionID string, userID int64) (InventoryCheckResult, error) {
	if !ownerValid(sessionID, userID) {
		return InventoryCheckResult{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}

	cart, err := u.cartRepo.FindByOwner(ctx, sessionID, userID)
	if err == repo.ErrNotFound {
		return InventoryCheckResult{Valid: true, Issues: []InventoryIssue{}}, nil
	}
	if err != nil {
		return InventoryCheckResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return InventoryCheckResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	result := InventoryCheckResult{Valid: true, Issues: []InventoryIssue{}}
	for _, it := range items {
		//バリエーション無し明細は在庫管理外として扱う
		if it.VariantID == nil {
			continue
		}

		inv, err := u.inventoryRepo.FindByVariantID(ctx, *it.VariantID)
		if err == repo.ErrNotFound {
			result.Valid = false
			result.Issues = append(result.Issues, InventoryIssue{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Requested: it.Quantity,
				Available: 0,
			})
			continue
		}
		if err != nil {
			return InventoryCheckResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if inv.Available() < it.Quantity {
			result.Valid = false
			result.Issues = append(result.Issues, InventoryIssue{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Requested: it.Quantity,
				Available: inv.Available(),
			})
		}
	}

	return result, nil
}

// 所有チェック込みで明細を引く
func (u *CartUsecase) findOwnedItem(ctx context.Context, sessionID string, userID int64, cartItemID int64) (model.Cart, model.CartItem, error) {
	cart, err := u.cartRepo.FindByOwner(ctx, sessionID, userID)
	if err == repo.ErrNotFound {
		return model.Cart{}, model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Cart{}, model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return model.Cart{}, model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Cart{}, model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if item.CartID != cart.ID {
		return model.Cart{}, model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return cart, item, nil
}

// cartIDの明細をまとめてCartViewを作る。
func (u *CartUsecase) buildCartView(ctx context.Context, cartID int64) (CartView, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	views := make([]CartItemView, 0, len(items))
	subtotal := decimal.Zero
	var count int64

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsActive {
			continue
		}

		lineTotal := it.PriceSnapshot.Mul(decimal.NewFromInt(it.Quantity))

		views = append(views, CartItemView{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      p.Name,
			Price:     it.PriceSnapshot.StringFixed(2),
			Quantity:  it.Quantity,
			LineTotal: lineTotal.StringFixed(2),
		})

		subtotal = subtotal.Add(lineTotal)
		count += it.Quantity
	}

	return CartView{
		CartID:    cartID,
		Items:     views,
		Subtotal:  subtotal.StringFixed(2),
		ItemCount: count,
	}, nil
}
