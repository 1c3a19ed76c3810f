package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

// =====================
// 共有モック
// =====================

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) FindByOwner(ctx context.Context, sessionID string, userID int64) (model.Cart, error) {
	args := m.Called(ctx, sessionID, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) GetOrCreateByOwner(ctx context.Context, sessionID string, userID int64) (model.Cart, error) {
	args := m.Called(ctx, sessionID, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	args := m.Called(ctx, cartID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Delete(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertLine(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64, priceSnapshot decimal.Decimal) error {
	args := m.Called(ctx, cartID, productID, variantID, addQty, priceSnapshot)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	args := m.Called(ctx, variantID)
	v, _ := args.Get(0).(model.ProductVariant)
	return v, args.Error(1)
}

func (m *ProductRepoMock) ListVariantsByProductID(ctx context.Context, productID int64) ([]model.ProductVariant, error) {
	args := m.Called(ctx, productID)
	vs, _ := args.Get(0).([]model.ProductVariant)
	return vs, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) ListActive(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Category)
	return items, args.Error(1)
}

func (m *CategoryRepoMock) FindBySlug(ctx context.Context, slug string) (model.Category, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) FindByVariantID(ctx context.Context, variantID int64) (model.Inventory, error) {
	args := m.Called(ctx, variantID)
	inv, _ := args.Get(0).(model.Inventory)
	return inv, args.Error(1)
}

func (m *InventoryRepoMock) ReserveIfAvailable(ctx context.Context, variantID int64, qty int64) (bool, error) {
	args := m.Called(ctx, variantID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) Release(ctx context.Context, variantID int64, qty int64) error {
	args := m.Called(ctx, variantID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) SetQuantity(ctx context.Context, variantID int64, qty int64) error {
	args := m.Called(ctx, variantID, qty)
	return args.Error(0)
}

type CustomerRepoMock struct{ mock.Mock }

func (m *CustomerRepoMock) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	args := m.Called(ctx, c)
	created, _ := args.Get(0).(model.Customer)
	return created, args.Error(1)
}

func (m *CustomerRepoMock) FindByID(ctx context.Context, customerID int64) (model.Customer, error) {
	args := m.Called(ctx, customerID)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *CustomerRepoMock) FindByEmail(ctx context.Context, email string) (model.Customer, error) {
	args := m.Called(ctx, email)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *CustomerRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Customer, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *CustomerRepoMock) Update(ctx context.Context, c model.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CustomerRepoMock) SoftDelete(ctx context.Context, customerID int64) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *CustomerRepoMock) List(ctx context.Context, f repo.CustomerListFilter) ([]model.Customer, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.Customer)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *CustomerRepoMock) SetPortalToken(ctx context.Context, customerID int64, token string, expiresAt time.Time) error {
	args := m.Called(ctx, customerID, token, expiresAt)
	return args.Error(0)
}

func (m *CustomerRepoMock) FindByPortalToken(ctx context.Context, token string) (model.Customer, error) {
	args := m.Called(ctx, token)
	c, _ := args.Get(0).(model.Customer)
	return c, args.Error(1)
}

func (m *CustomerRepoMock) MarkPortalTokenUsed(ctx context.Context, customerID int64) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, address model.CustomerAddress) (model.CustomerAddress, error) {
	args := m.Called(ctx, address)
	created, _ := args.Get(0).(model.CustomerAddress)
	return created, args.Error(1)
}

func (m *AddressRepoMock) ListByCustomerID(ctx context.Context, customerID int64) ([]model.CustomerAddress, error) {
	args := m.Called(ctx, customerID)
	items, _ := args.Get(0).([]model.CustomerAddress)
	return items, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, addressID int64) (model.CustomerAddress, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.CustomerAddress)
	return a, args.Error(1)
}

func (m *AddressRepoMock) Update(ctx context.Context, address model.CustomerAddress) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *AddressRepoMock) Delete(ctx context.Context, addressID int64) error {
	args := m.Called(ctx, addressID)
	return args.Error(0)
}

func (m *AddressRepoMock) IsOwnedByCustomer(ctx context.Context, addressID, customerID int64) (bool, error) {
	args := m.Called(ctx, addressID, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *AddressRepoMock) SetDefault(ctx context.Context, customerID, addressID int64) error {
	args := m.Called(ctx, customerID, addressID)
	return args.Error(0)
}

type ShippingRepoMock struct{ mock.Mock }

func (m *ShippingRepoMock) ListActive(ctx context.Context) ([]model.ShippingMethod, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.ShippingMethod)
	return items, args.Error(1)
}

func (m *ShippingRepoMock) FindByID(ctx context.Context, id int64) (model.ShippingMethod, error) {
	args := m.Called(ctx, id)
	sm, _ := args.Get(0).(model.ShippingMethod)
	return sm, args.Error(1)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) ListActive(ctx context.Context) ([]model.PaymentMethod, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.PaymentMethod)
	return items, args.Error(1)
}

func (m *PaymentRepoMock) FindByID(ctx context.Context, id int64) (model.PaymentMethod, error) {
	args := m.Called(ctx, id)
	pm, _ := args.Get(0).(model.PaymentMethod)
	return pm, args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error) {
	args := m.Called(ctx, orderNumber)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByCustomerID(ctx context.Context, customerID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, customerID, page, limit)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) AppendStatusHistory(ctx context.Context, h model.OrderStatusHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *OrderRepoMock) ListStatusHistory(ctx context.Context, orderID int64) ([]model.OrderStatusHistory, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderStatusHistory)
	return items, args.Error(1)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]model.AuditLog)
	return items, args.Error(1)
}

type LandingRepoMock struct{ mock.Mock }

func (m *LandingRepoMock) FindActive(ctx context.Context) (model.LandingPageContent, error) {
	args := m.Called(ctx)
	doc, _ := args.Get(0).(model.LandingPageContent)
	return doc, args.Error(1)
}

func (m *LandingRepoMock) FindByID(ctx context.Context, id int64) (model.LandingPageContent, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(model.LandingPageContent)
	return doc, args.Error(1)
}

func (m *LandingRepoMock) List(ctx context.Context) ([]model.LandingPageContent, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.LandingPageContent)
	return items, args.Error(1)
}

func (m *LandingRepoMock) Create(ctx context.Context, doc model.LandingPageContent) (model.LandingPageContent, error) {
	args := m.Called(ctx, doc)
	created, _ := args.Get(0).(model.LandingPageContent)
	return created, args.Error(1)
}

func (m *LandingRepoMock) ReplaceDocument(ctx context.Context, id int64, sections datatypes.JSON, settings datatypes.JSON) error {
	args := m.Called(ctx, id, sections, settings)
	return args.Error(0)
}

type UploadRepoMock struct{ mock.Mock }

func (m *UploadRepoMock) Create(ctx context.Context, up model.Upload) (model.Upload, error) {
	args := m.Called(ctx, up)
	created, _ := args.Get(0).(model.Upload)
	return created, args.Error(1)
}

func (m *UploadRepoMock) FindByID(ctx context.Context, id int64) (model.Upload, error) {
	args := m.Called(ctx, id)
	up, _ := args.Get(0).(model.Upload)
	return up, args.Error(1)
}

func (m *UploadRepoMock) List(ctx context.Context, f repo.UploadListFilter) ([]model.Upload, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.Upload)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *UploadRepoMock) Update(ctx context.Context, up model.Upload) error {
	args := m.Called(ctx, up)
	return args.Error(0)
}

func (m *UploadRepoMock) SoftDelete(ctx context.Context, id int64, actorID int64, at time.Time) error {
	args := m.Called(ctx, id, actorID, at)
	return args.Error(0)
}

type FileStoreMock struct{ mock.Mock }

func (m *FileStoreMock) Save(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

func (m *FileStoreMock) Open(ctx context.Context, storedPath string) ([]byte, error) {
	args := m.Called(ctx, storedPath)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *FileStoreMock) Remove(ctx context.Context, storedPath string) error {
	args := m.Called(ctx, storedPath)
	return args.Error(0)
}

// =====================
// Txまわり
// =====================

// WithinTxは渡されたリポジトリ束でそのままfnを実行する。
// commit/rollbackの検証は「エラー時に後続が呼ばれないこと」で代替する。
type TxReposStub struct {
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	carts      *CartRepoMock
	cartItems  *CartItemRepoMock
	inventory  *InventoryRepoMock
	products   *ProductRepoMock
	customers  *CustomerRepoMock
}

func (s *TxReposStub) Orders() repo.OrderRepository         { return s.orders }
func (s *TxReposStub) OrderItems() repo.OrderItemRepository { return s.orderItems }
func (s *TxReposStub) Carts() repo.CartRepository           { return s.carts }
func (s *TxReposStub) CartItems() repo.CartItemRepository   { return s.cartItems }
func (s *TxReposStub) Inventory() repo.InventoryRepository  { return s.inventory }
func (s *TxReposStub) Products() repo.ProductRepository     { return s.products }
func (s *TxReposStub) Customers() repo.CustomerRepository   { return s.customers }

type TxManagerStub struct {
	repos *TxReposStub
}

func (t *TxManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(t.repos)
}

// =====================
// アサーションヘルパー
// =====================

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status)
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }
