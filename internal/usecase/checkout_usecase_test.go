package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type checkoutMocks struct {
	cartRepo     *CartRepoMock
	cartItemRepo *CartItemRepoMock
	productRepo  *ProductRepoMock
	invRepo      *InventoryRepoMock
	customerRepo *CustomerRepoMock
	addressRepo  *AddressRepoMock
	shippingRepo *ShippingRepoMock
	paymentRepo  *PaymentRepoMock
}

func newCheckoutUsecase(cfg config.Config) (*usecase.CheckoutUsecase, checkoutMocks) {
	m := checkoutMocks{
		cartRepo:     new(CartRepoMock),
		cartItemRepo: new(CartItemRepoMock),
		productRepo:  new(ProductRepoMock),
		invRepo:      new(InventoryRepoMock),
		customerRepo: new(CustomerRepoMock),
		addressRepo:  new(AddressRepoMock),
		shippingRepo: new(ShippingRepoMock),
		paymentRepo:  new(PaymentRepoMock),
	}

	// Txの中でも同じモック束を使う
	tx := &TxManagerStub{repos: &TxReposStub{
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		carts:      m.cartRepo,
		cartItems:  m.cartItemRepo,
		inventory:  m.invRepo,
		products:   m.productRepo,
		customers:  m.customerRepo,
	}}

	uc := usecase.NewCheckoutUsecase(
		cfg, tx,
		m.cartRepo, m.cartItemRepo, m.productRepo, m.invRepo,
		m.customerRepo, m.addressRepo, m.shippingRepo, m.paymentRepo,
	)
	return uc, m
}

func checkoutConfig() config.Config {
	return config.Config{
		TaxRatePercent:    dec("10"),
		OrderNumberPrefix: "ORD",
		CODEnabled:        true,
		CODFee:            dec("5.00"),
		CODMinSubtotal:    dec("0"),
		CODMaxSubtotal:    dec("0"),
	}
}

func validAddress() usecase.AddressInput {
	return usecase.AddressInput{
		FirstName:  "Taro",
		LastName:   "Yamada",
		Address1:   "1-2-3 Ginza",
		City:       "Tokyo",
		State:      "Tokyo",
		PostalCode: "104-0061",
		Country:    "JP",
		Phone:      "03-1234-5678",
	}
}

// 直せるエラーは全部まとめて返す
func TestCheckoutUsecase_ValidateCheckout_AggregatesErrors(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecase(checkoutConfig())

	m.cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{}, repo.ErrNotFound)

	result, err := uc.ValidateCheckout(ctx, usecase.CheckoutInput{SessionID: "sess-1"})
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "cart is empty")
	assert.Contains(t, result.Errors, "shipping method is required")
	assert.Contains(t, result.Errors, "payment method is required")
	assert.Contains(t, result.Errors, "shipping address is required")
	assert.Contains(t, result.Errors, "billing address is required")
	// emailは無くてもよい（ゲストはプレースホルダを合成する）
	assert.NotContains(t, result.Errors, "email is required")
}

func TestCheckoutUsecase_ValidateCheckout_CODCountryNotAllowed(t *testing.T) {
	ctx := context.Background()
	cfg := checkoutConfig()
	cfg.CODCountries = []string{"US"}
	uc, m := newCheckoutUsecase(cfg)

	m.cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, Quantity: 1, PriceSnapshot: dec("30.00")},
	}, nil)
	m.shippingRepo.On("FindByID", mock.Anything, int64(1)).Return(model.ShippingMethod{ID: 1, Price: dec("5.00"), IsActive: true}, nil)
	m.paymentRepo.On("FindByID", mock.Anything, int64(2)).Return(model.PaymentMethod{ID: 2, Type: model.PaymentTypeCOD, IsActive: true}, nil)

	addr := validAddress()
	result, err := uc.ValidateCheckout(ctx, usecase.CheckoutInput{
		SessionID:             "sess-1",
		Email:                 "guest@example.com",
		ShippingMethodID:      1,
		PaymentMethodID:       2,
		ShippingAddress:       &addr,
		BillingSameAsShipping: true,
	})
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "cash on delivery is not available for this country")
}

func TestCheckoutUsecase_CalculateOrderTotals(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecase(checkoutConfig())

	m.cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, Quantity: 2, PriceSnapshot: dec("19.99")},
	}, nil)
	m.shippingRepo.On("FindByID", mock.Anything, int64(1)).Return(model.ShippingMethod{ID: 1, Price: dec("5.00"), IsActive: true}, nil)
	m.paymentRepo.On("FindByID", mock.Anything, int64(2)).Return(model.PaymentMethod{ID: 2, Type: model.PaymentTypeCard, IsActive: true}, nil)

	totals, err := uc.CalculateOrderTotals(ctx, usecase.CheckoutInput{
		SessionID:        "sess-1",
		ShippingMethodID: 1,
		PaymentMethodID:  2,
	})
	assert.NoError(t, err)
	assert.Equal(t, "39.98", totals.Subtotal)
	assert.Equal(t, "5.00", totals.ShippingFee)
	assert.Equal(t, "4.00", totals.Tax) // 39.98の10%を2桁丸め
	assert.Equal(t, "0.00", totals.CODFee)
	assert.Equal(t, "48.98", totals.Total)
}

// COD手数料は支払いがCODのときだけ乗る
func TestCheckoutUsecase_CalculateOrderTotals_CODFee(t *testing.T) {
	ctx := context.Background()
	uc, m := newCheckoutUsecase(checkoutConfig())

	m.cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, Quantity: 1, PriceSnapshot: dec("10.00")},
	}, nil)
	m.shippingRepo.On("FindByID", mock.Anything, int64(1)).Return(model.ShippingMethod{ID: 1, Price: dec("5.00"), IsActive: true}, nil)
	m.paymentRepo.On("FindByID", mock.Anything, int64(2)).Return(model.PaymentMethod{ID: 2, Type: model.PaymentTypeCOD, IsActive: true}, nil)

	totals, err := uc.CalculateOrderTotals(ctx, usecase.CheckoutInput{
		SessionID:        "sess-1",
		ShippingMethodID: 1,
		PaymentMethodID:  2,
	})
	assert.NoError(t, err)
	assert.Equal(t, "5.00", totals.CODFee)
	assert.Equal(t, "21.00", totals.Total) // 10.00 + 5.00 + 税1.00 + COD 5.00
}

func TestCheckoutUsecase_CreateOrderFromCart_Success(t *testing.T) {
	ctx := context.Background()

	m := checkoutMocks{
		cartRepo:     new(CartRepoMock),
		cartItemRepo: new(CartItemRepoMock),
		productRepo:  new(ProductRepoMock),
		invRepo:      new(InventoryRepoMock),
		customerRepo: new(CustomerRepoMock),
		addressRepo:  new(AddressRepoMock),
		shippingRepo: new(ShippingRepoMock),
		paymentRepo:  new(PaymentRepoMock),
	}
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	txStub := &TxManagerStub{repos: &TxReposStub{
		orders:     orders,
		orderItems: orderItems,
		carts:      m.cartRepo,
		cartItems:  m.cartItemRepo,
		inventory:  m.invRepo,
		products:   m.productRepo,
		customers:  m.customerRepo,
	}}
	uc := usecase.NewCheckoutUsecase(
		checkoutConfig(), txStub,
		m.cartRepo, m.cartItemRepo, m.productRepo, m.invRepo,
		m.customerRepo, m.addressRepo, m.shippingRepo, m.paymentRepo,
	)

	m.cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, VariantID: ptr(int64(100)), Quantity: 2, PriceSnapshot: dec("19.99")},
	}, nil)
	m.invRepo.On("FindByVariantID", mock.Anything, int64(100)).Return(model.Inventory{VariantID: 100, Quantity: 10}, nil)
	m.shippingRepo.On("FindByID", mock.Anything, int64(1)).Return(model.ShippingMethod{ID: 1, Price: dec("5.00"), IsActive: true}, nil)
	m.paymentRepo.On("FindByID", mock.Anything, int64(2)).Return(model.PaymentMethod{ID: 2, Type: model.PaymentTypeCard, IsActive: true}, nil)

	// ゲスト顧客は新規作成
	m.customerRepo.On("FindByEmail", mock.Anything, "guest@example.com").Return(model.Customer{}, repo.ErrNotFound)
	m.customerRepo.On("Create", mock.Anything, mock.MatchedBy(func(c model.Customer) bool {
		return c.Email == "guest@example.com" && c.FirstName == "Taro"
	})).Return(model.Customer{ID: 55, Email: "guest@example.com"}, nil)

	orders.On("FindByOrderNumber", mock.Anything, mock.AnythingOfType("string")).Return(model.Order{}, repo.ErrNotFound)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.CustomerID == 55 &&
			o.Status == model.OrderStatusPending &&
			o.Subtotal.StringFixed(2) == "39.98" &&
			o.Tax.StringFixed(2) == "4.00" &&
			o.Total.StringFixed(2) == "48.98"
	})).Return(int64(900), nil)

	m.productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", IsActive: true}, nil)
	m.productRepo.On("FindVariantByID", mock.Anything, int64(100)).Return(model.ProductVariant{ID: 100, ProductID: 10, Name: "Blue", IsActive: true}, nil)

	orderItems.On("CreateBulk", mock.Anything, int64(900), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 && items[0].ProductNameSnapshot == "Mug" && items[0].VariantNameSnapshot == "Blue"
	})).Return(nil)

	m.invRepo.On("ReserveIfAvailable", mock.Anything, int64(100), int64(2)).Return(true, nil)
	m.cartRepo.On("Clear", mock.Anything, int64(1)).Return(nil)
	orders.On("AppendStatusHistory", mock.Anything, mock.MatchedBy(func(h model.OrderStatusHistory) bool {
		return h.OrderID == 900 && h.Status == model.OrderStatusPending
	})).Return(nil)

	addr := validAddress()
	out, err := uc.CreateOrderFromCart(ctx, usecase.CheckoutInput{
		SessionID:             "sess-1",
		Email:                 "guest@example.com",
		ShippingMethodID:      1,
		PaymentMethodID:       2,
		ShippingAddress:       &addr,
		BillingSameAsShipping: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(900), out.OrderID)
	assert.Contains(t, out.OrderNumber, "ORD-")
	assert.Equal(t, "48.98", out.Totals.Total)

	orders.AssertExpectations(t)
	orderItems.AssertExpectations(t)
	m.cartRepo.AssertExpectations(t)
}

// email未入力のゲストはsession単位のプレースホルダで顧客を作る
func TestCheckoutUsecase_CreateOrderFromCart_GuestPlaceholderEmail(t *testing.T) {
	ctx := context.Background()

	m := checkoutMocks{
		cartRepo:     new(CartRepoMock),
		cartItemRepo: new(CartItemRepoMock),
		productRepo:  new(ProductRepoMock),
		invRepo:      new(InventoryRepoMock),
		customerRepo: new(CustomerRepoMock),
		addressRepo:  new(AddressRepoMock),
		shippingRepo: new(ShippingRepoMock),
		paymentRepo:  new(PaymentRepoMock),
	}
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	txStub := &TxManagerStub{repos: &TxReposStub{
		orders:     orders,
		orderItems: orderItems,
		carts:      m.cartRepo,
		cartItems:  m.cartItemRepo,
		inventory:  m.invRepo,
		products:   m.productRepo,
		customers:  m.customerRepo,
	}}
	uc := usecase.NewCheckoutUsecase(
		checkoutConfig(), txStub,
		m.cartRepo, m.cartItemRepo, m.productRepo, m.invRepo,
		m.customerRepo, m.addressRepo, m.shippingRepo, m.paymentRepo,
	)

	m.cartRepo.On("FindByOwner", mock.Anything, "Sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	m.cartItemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, Quantity: 1, PriceSnapshot: dec("10.00")},
	}, nil)
	m.shippingRepo.On("FindByID", mock.Anything, int64(1)).Return(model.ShippingMethod{ID: 1, Price: dec("5.00"), IsActive: true}, nil)
	m.paymentRepo.On("FindByID", mock.Anything, int64(2)).Return(model.PaymentMethod{ID: 2, Type: model.PaymentTypeCard, IsActive: true}, nil)

	m.customerRepo.On("FindByEmail", mock.Anything, "guest-sess-1@accounts.local").Return(model.Customer{}, repo.ErrNotFound)
	m.customerRepo.On("Create", mock.Anything, mock.MatchedBy(func(c model.Customer) bool {
		return c.Email == "guest-sess-1@accounts.local" && c.UserID == nil
	})).Return(model.Customer{ID: 56, Email: "guest-sess-1@accounts.local"}, nil)

	orders.On("FindByOrderNumber", mock.Anything, mock.AnythingOfType("string")).Return(model.Order{}, repo.ErrNotFound)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.CustomerID == 56
	})).Return(int64(902), nil)
	m.productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", IsActive: true}, nil)
	orderItems.On("CreateBulk", mock.Anything, int64(902), mock.Anything).Return(nil)
	m.cartRepo.On("Clear", mock.Anything, int64(1)).Return(nil)
	orders.On("AppendStatusHistory", mock.Anything, mock.Anything).Return(nil)

	addr := validAddress()
	out, err := uc.CreateOrderFromCart(ctx, usecase.CheckoutInput{
		SessionID:             "Sess-1",
		ShippingMethodID:      1,
		PaymentMethodID:       2,
		ShippingAddress:       &addr,
		BillingSameAsShipping: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(902), out.OrderID)

	m.customerRepo.AssertExpectations(t)
}

// 在庫予約に失敗したら409で、カートはクリアされない
func TestCheckoutUsecase_CreateOrderFromCart_ReserveFails(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	invRepo := new(InventoryRepoMock)
	customerRepo := new(CustomerRepoMock)
	addressRepo := new(AddressRepoMock)
	shippingRepo := new(ShippingRepoMock)
	paymentRepo := new(PaymentRepoMock)
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)

	txStub := &TxManagerStub{repos: &TxReposStub{
		orders:     orders,
		orderItems: orderItems,
		carts:      cartRepo,
		cartItems:  cartItemRepo,
		inventory:  invRepo,
		products:   productRepo,
		customers:  customerRepo,
	}}
	uc := usecase.NewCheckoutUsecase(
		checkoutConfig(), txStub,
		cartRepo, cartItemRepo, productRepo, invRepo,
		customerRepo, addressRepo, shippingRepo, paymentRepo,
	)

	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	cartItemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, VariantID: ptr(int64(100)), Quantity: 2, PriceSnapshot: dec("19.99")},
	}, nil)
	invRepo.On("FindByVariantID", mock.Anything, int64(100)).Return(model.Inventory{VariantID: 100, Quantity: 10}, nil)
	shippingRepo.On("FindByID", mock.Anything, int64(1)).Return(model.ShippingMethod{ID: 1, Price: dec("5.00"), IsActive: true}, nil)
	paymentRepo.On("FindByID", mock.Anything, int64(2)).Return(model.PaymentMethod{ID: 2, Type: model.PaymentTypeCard, IsActive: true}, nil)

	customerRepo.On("FindByEmail", mock.Anything, "guest@example.com").Return(model.Customer{ID: 55}, nil)

	orders.On("FindByOrderNumber", mock.Anything, mock.AnythingOfType("string")).Return(model.Order{}, repo.ErrNotFound)
	orders.On("Create", mock.Anything, mock.AnythingOfType("model.Order")).Return(int64(900), nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", IsActive: true}, nil)
	productRepo.On("FindVariantByID", mock.Anything, int64(100)).Return(model.ProductVariant{ID: 100, ProductID: 10, Name: "Blue", IsActive: true}, nil)
	orderItems.On("CreateBulk", mock.Anything, int64(900), mock.Anything).Return(nil)

	// 同時購入で在庫が尽きたケース
	invRepo.On("ReserveIfAvailable", mock.Anything, int64(100), int64(2)).Return(false, nil)

	addr := validAddress()
	_, err := uc.CreateOrderFromCart(ctx, usecase.CheckoutInput{
		SessionID:             "sess-1",
		Email:                 "guest@example.com",
		ShippingMethodID:      1,
		PaymentMethodID:       2,
		ShippingAddress:       &addr,
		BillingSameAsShipping: true,
	})
	assertHTTPStatus(t, err, http.StatusConflict)

	cartRepo.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "AppendStatusHistory", mock.Anything, mock.Anything)
}

// 注文番号が衝突したら振り直す
func TestCheckoutUsecase_OrderNumberRetriesOnCollision(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	invRepo := new(InventoryRepoMock)
	customerRepo := new(CustomerRepoMock)
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)

	shippingRepo := new(ShippingRepoMock)
	paymentRepo := new(PaymentRepoMock)

	txStub := &TxManagerStub{repos: &TxReposStub{
		orders:     orders,
		orderItems: orderItems,
		carts:      cartRepo,
		cartItems:  cartItemRepo,
		inventory:  invRepo,
		products:   productRepo,
		customers:  customerRepo,
	}}
	uc := usecase.NewCheckoutUsecase(
		checkoutConfig(), txStub,
		cartRepo, cartItemRepo, productRepo, invRepo,
		customerRepo, new(AddressRepoMock), shippingRepo, paymentRepo,
	)

	cartRepo.On("FindByOwner", mock.Anything, "sess-1", int64(0)).Return(model.Cart{ID: 1}, nil)
	cartItemRepo.On("ListByCartID", mock.Anything, int64(1)).Return([]model.CartItem{
		{ID: 1, CartID: 1, ProductID: 10, Quantity: 1, PriceSnapshot: dec("10.00")},
	}, nil)
	shippingRepo.On("FindByID", mock.Anything, int64(1)).Return(model.ShippingMethod{ID: 1, Price: dec("5.00"), IsActive: true}, nil)
	paymentRepo.On("FindByID", mock.Anything, int64(2)).Return(model.PaymentMethod{ID: 2, Type: model.PaymentTypeCard, IsActive: true}, nil)
	customerRepo.On("FindByEmail", mock.Anything, "guest@example.com").Return(model.Customer{ID: 55}, nil)

	// 1回目は衝突、2回目で空き番号
	orders.On("FindByOrderNumber", mock.Anything, mock.AnythingOfType("string")).Return(model.Order{ID: 1}, nil).Once()
	orders.On("FindByOrderNumber", mock.Anything, mock.AnythingOfType("string")).Return(model.Order{}, repo.ErrNotFound).Once()

	orders.On("Create", mock.Anything, mock.AnythingOfType("model.Order")).Return(int64(901), nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", IsActive: true}, nil)
	orderItems.On("CreateBulk", mock.Anything, int64(901), mock.Anything).Return(nil)
	cartRepo.On("Clear", mock.Anything, int64(1)).Return(nil)
	orders.On("AppendStatusHistory", mock.Anything, mock.Anything).Return(nil)

	addr := validAddress()
	out, err := uc.CreateOrderFromCart(ctx, usecase.CheckoutInput{
		SessionID:             "sess-1",
		Email:                 "guest@example.com",
		ShippingMethodID:      1,
		PaymentMethodID:       2,
		ShippingAddress:       &addr,
		BillingSameAsShipping: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(901), out.OrderID)

	orders.AssertExpectations(t)
}
