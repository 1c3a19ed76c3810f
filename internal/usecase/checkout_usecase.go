package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// CheckoutUsecase はカートから注文を作るまでの業務ロジックです。
// 検証→金額計算→注文作成の3段階。注文作成は全体を1トランザクションで行う。
type CheckoutUsecase struct {
	cfg            config.Config
	tx             repo.TransactionManager
	cartRepo       repo.CartRepository
	cartItemRepo   repo.CartItemRepository
	productRepo    repo.ProductRepository
	inventoryRepo  repo.InventoryRepository
	customerRepo   repo.CustomerRepository
	addressRepo    repo.CustomerAddressRepository
	shippingRepo   repo.ShippingMethodRepository
	paymentRepo    repo.PaymentMethodRepository
}

func NewCheckoutUsecase(
	cfg config.Config,
	tx repo.TransactionManager,
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	customerRepo repo.CustomerRepository,
	addressRepo repo.CustomerAddressRepository,
	shippingRepo repo.ShippingMethodRepository,
	paymentRepo repo.PaymentMethodRepository,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		cfg:           cfg,
		tx:            tx,
		cartRepo:      cartRepo,
		cartItemRepo:  cartItemRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		customerRepo:  customerRepo,
		addressRepo:   addressRepo,
		shippingRepo:  shippingRepo,
		paymentRepo:   paymentRepo,
	}
}

// 配送・請求に使う住所。保存時はこの形のままJSONスナップショットにする。
type AddressInput struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type CheckoutInput struct {
	SessionID string
	UserID    int64

	Email string

	ShippingMethodID int64
	PaymentMethodID  int64

	// 直接入力か保存済み住所IDのどちらか
	ShippingAddress   *AddressInput
	ShippingAddressID *int64
	BillingAddress    *AddressInput
	BillingAddressID  *int64
	BillingSameAsShipping bool
}

type CheckoutValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type OrderTotals struct {
	Subtotal    string `json:"subtotal"`
	ShippingFee string `json:"shipping_fee"`
	Tax         string `json:"tax"`
	CODFee      string `json:"cod_fee"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
}

// ValidateCheckout はチェックアウト前の検証。
// エラーは最初の1件で止めず、直せるものを全部まとめて返す。
func (u *CheckoutUsecase) ValidateCheckout(ctx context.Context, in CheckoutInput) (CheckoutValidationResult, error) {
	if !ownerValid(in.SessionID, in.UserID) {
		return CheckoutValidationResult{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}

	var errs []string

	cart, items, err := u.loadCart(ctx, in.SessionID, in.UserID)
	if err != nil {
		return CheckoutValidationResult{}, err
	}
	_ = cart

	if len(items) == 0 {
		errs = append(errs, "cart is empty")
	}

	// 在庫
	for _, it := range items {
		if it.VariantID == nil {
			continue
		}
		inv, err := u.inventoryRepo.FindByVariantID(ctx, *it.VariantID)
		if err == repo.ErrNotFound {
			errs = append(errs, fmt.Sprintf("variant %d is out of stock", *it.VariantID))
			continue
		}
		if err != nil {
			return CheckoutValidationResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if inv.Available() < it.Quantity {
			errs = append(errs, fmt.Sprintf("variant %d has only %d available", *it.VariantID, inv.Available()))
		}
	}

	// 配送方法
	var shipping model.ShippingMethod
	if in.ShippingMethodID <= 0 {
		errs = append(errs, "shipping method is required")
	} else {
		sm, err := u.shippingRepo.FindByID(ctx, in.ShippingMethodID)
		if err == repo.ErrNotFound {
			errs = append(errs, "shipping method not found")
		} else if err != nil {
			return CheckoutValidationResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
		} else if !sm.IsActive {
			errs = append(errs, "shipping method is not available")
		} else {
			shipping = sm
		}
	}
	_ = shipping

	// 支払い方法
	var payment model.PaymentMethod
	if in.PaymentMethodID <= 0 {
		errs = append(errs, "payment method is required")
	} else {
		pm, err := u.paymentRepo.FindByID(ctx, in.PaymentMethodID)
		if err == repo.ErrNotFound {
			errs = append(errs, "payment method not found")
		} else if err != nil {
			return CheckoutValidationResult{}, NewHTTPError(http.StatusInternalServerError, "db error")
		} else if !pm.IsActive {
			errs = append(errs, "payment method is not available")
		} else {
			payment = pm
		}
	}

	// 住所
	shipAddr, addrErrs, err := u.resolveShippingAddress(ctx, in)
	if err != nil {
		return CheckoutValidationResult{}, err
	}
	errs = append(errs, addrErrs...)

	billErrs, err := u.validateBillingAddress(ctx, in)
	if err != nil {
		return CheckoutValidationResult{}, err
	}
	errs = append(errs, billErrs...)

	// CODの適用条件は支払いがCODのときだけ見る
	if payment.Type == model.PaymentTypeCOD {
		subtotal := subtotalOf(items)
		errs = append(errs, u.validateCOD(subtotal, shipAddr)...)
	}

	return CheckoutValidationResult{
		Valid:  len(errs) == 0,
		Errors: append([]string{}, errs...),
	}, nil
}

// CalculateOrderTotals は金額の内訳を返す。
// 税はsubtotalに対して設定税率で計算、COD手数料は支払いがCODのときだけ乗る。
func (u *CheckoutUsecase) CalculateOrderTotals(ctx context.Context, in CheckoutInput) (OrderTotals, error) {
	if !ownerValid(in.SessionID, in.UserID) {
		return OrderTotals{}, NewHTTPError(http.StatusBadRequest, "session or login required")
	}

	_, items, err := u.loadCart(ctx, in.SessionID, in.UserID)
	if err != nil {
		return OrderTotals{}, err
	}
	if len(items) == 0 {
		return OrderTotals{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	shipping, err := u.shippingRepo.FindByID(ctx, in.ShippingMethodID)
	if err == repo.ErrNotFound {
		return OrderTotals{}, NewHTTPError(http.StatusBadRequest, "shipping method not found")
	}
	if err != nil {
		return OrderTotals{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	codFee := decimal.Zero
	if in.PaymentMethodID > 0 {
		pm, err := u.paymentRepo.FindByID(ctx, in.PaymentMethodID)
		if err == repo.ErrNotFound {
			return OrderTotals{}, NewHTTPError(http.StatusBadRequest, "payment method not found")
		}
		if err != nil {
			return OrderTotals{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if pm.Type == model.PaymentTypeCOD {
			codFee = u.cfg.CODFee
		}
	}

	t := u.calcTotals(items, shipping.Price, codFee)
	return t.view(), nil
}

type OrderCreatedOutput struct {
	OrderID     int64       `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Totals      OrderTotals `json:"totals"`
}

// CreateOrderFromCart は注文を確定する。
// 再検証→顧客解決→注文番号採番→注文+明細作成→在庫予約→カートクリア
// をすべて1トランザクションで行う。途中で失敗したら全部巻き戻る。
func (u *CheckoutUsecase) CreateOrderFromCart(ctx context.Context, in CheckoutInput) (OrderCreatedOutput, error) {
	check, err := u.ValidateCheckout(ctx, in)
	if err != nil {
		return OrderCreatedOutput{}, err
	}
	if !check.Valid {
		return OrderCreatedOutput{}, NewHTTPError(http.StatusBadRequest, strings.Join(check.Errors, "; "))
	}

	shipAddr, _, err := u.resolveShippingAddress(ctx, in)
	if err != nil {
		return OrderCreatedOutput{}, err
	}
	billAddr := shipAddr
	if !in.BillingSameAsShipping {
		billAddr, err = u.resolveBillingAddress(ctx, in)
		if err != nil {
			return OrderCreatedOutput{}, err
		}
	}

	shipping, err := u.shippingRepo.FindByID(ctx, in.ShippingMethodID)
	if err != nil {
		return OrderCreatedOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	payment, err := u.paymentRepo.FindByID(ctx, in.PaymentMethodID)
	if err != nil {
		return OrderCreatedOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var out OrderCreatedOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByOwner(ctx, in.SessionID, in.UserID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		customer, err := u.resolveCustomer(ctx, r, in, shipAddr)
		if err != nil {
			return err
		}

		codFee := decimal.Zero
		if payment.Type == model.PaymentTypeCOD {
			codFee = u.cfg.CODFee
		}
		totals := u.calcTotals(items, shipping.Price, codFee)

		orderNumber, err := u.newOrderNumber(ctx, r)
		if err != nil {
			return err
		}

		shipJSON, err := json.Marshal(shipAddr)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		billJSON, err := json.Marshal(billAddr)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		orderID, err := r.Orders().Create(ctx, model.Order{
			OrderNumber:      orderNumber,
			CustomerID:       customer.ID,
			Status:           model.OrderStatusPending,
			PaymentStatus:    model.PaymentStatusPending,
			Fulfillment:      model.FulfillmentStatusUnfulfilled,
			ShippingMethodID: shipping.ID,
			PaymentMethodID:  payment.ID,
			ShippingAddress:  shipJSON,
			BillingAddress:   billJSON,
			Subtotal:         totals.subtotal,
			ShippingFee:      totals.shippingFee,
			Tax:              totals.tax,
			CODFee:           totals.codFee,
			Discount:         decimal.Zero,
			Total:            totals.total,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 明細スナップショット
		orderItems := make([]model.OrderItem, 0, len(items))
		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			var variantName string
			if it.VariantID != nil {
				v, err := r.Products().FindVariantByID(ctx, *it.VariantID)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				variantName = v.Name
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				VariantID:           it.VariantID,
				ProductNameSnapshot: p.Name,
				VariantNameSnapshot: variantName,
				UnitPriceSnapshot:   it.PriceSnapshot,
				Quantity:            it.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 在庫予約。足りなければここで失敗してロールバック。
		for _, it := range items {
			if it.VariantID == nil {
				continue
			}
			ok, err := r.Inventory().ReserveIfAvailable(ctx, *it.VariantID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, fmt.Sprintf("variant %d is out of stock", *it.VariantID))
			}
		}

		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().AppendStatusHistory(ctx, model.OrderStatusHistory{
			OrderID: orderID,
			Status:  model.OrderStatusPending,
			Note:    "order created",
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = OrderCreatedOutput{
			OrderID:     orderID,
			OrderNumber: orderNumber,
			Totals:      totals.view(),
		}
		return nil
	})
	if err != nil {
		return OrderCreatedOutput{}, err
	}

	return out, nil
}

// ---- 内部ヘルパー ----

type totals struct {
	subtotal    decimal.Decimal
	shippingFee decimal.Decimal
	tax         decimal.Decimal
	codFee      decimal.Decimal
	total       decimal.Decimal
}

func (t totals) view() OrderTotals {
	return OrderTotals{
		Subtotal:    t.subtotal.StringFixed(2),
		ShippingFee: t.shippingFee.StringFixed(2),
		Tax:         t.tax.StringFixed(2),
		CODFee:      t.codFee.StringFixed(2),
		Discount:    "0.00",
		Total:       t.total.StringFixed(2),
	}
}

func subtotalOf(items []model.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.PriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return sum
}

// 税はsubtotal×税率/100を小数2桁に丸める
func (u *CheckoutUsecase) calcTotals(items []model.CartItem, shippingFee decimal.Decimal, codFee decimal.Decimal) totals {
	subtotal := subtotalOf(items)
	tax := subtotal.Mul(u.cfg.TaxRatePercent).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(shippingFee).Add(tax).Add(codFee)

	return totals{
		subtotal:    subtotal,
		shippingFee: shippingFee,
		tax:         tax,
		codFee:      codFee,
		total:       total,
	}
}

func (u *CheckoutUsecase) loadCart(ctx context.Context, sessionID string, userID int64) (model.Cart, []model.CartItem, error) {
	cart, err := u.cartRepo.FindByOwner(ctx, sessionID, userID)
	if err == repo.ErrNotFound {
		return model.Cart{}, []model.CartItem{}, nil
	}
	if err != nil {
		return model.Cart{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return model.Cart{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cart, items, nil
}

func addressComplete(a AddressInput) []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address1", a.Address1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, "shipping address: "+f.name+" is required")
		}
	}
	return missing
}

func addressFromSaved(a model.CustomerAddress) AddressInput {
	return AddressInput{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Address1:   a.Address1,
		Address2:   a.Address2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

// 保存済み住所IDが指定されていれば解決して使う。所有チェックつき。
func (u *CheckoutUsecase) resolveShippingAddress(ctx context.Context, in CheckoutInput) (AddressInput, []string, error) {
	if in.ShippingAddressID != nil {
		addr, errs, err := u.resolveSavedAddress(ctx, in.UserID, *in.ShippingAddressID)
		return addr, errs, err
	}
	if in.ShippingAddress == nil {
		return AddressInput{}, []string{"shipping address is required"}, nil
	}
	return *in.ShippingAddress, addressComplete(*in.ShippingAddress), nil
}

func (u *CheckoutUsecase) validateBillingAddress(ctx context.Context, in CheckoutInput) ([]string, error) {
	if in.BillingSameAsShipping {
		return nil, nil
	}
	if in.BillingAddressID != nil {
		_, errs, err := u.resolveSavedAddress(ctx, in.UserID, *in.BillingAddressID)
		return errs, err
	}
	if in.BillingAddress == nil {
		return []string{"billing address is required"}, nil
	}
	var errs []string
	for _, m := range addressComplete(*in.BillingAddress) {
		errs = append(errs, strings.Replace(m, "shipping address", "billing address", 1))
	}
	return errs, nil
}

func (u *CheckoutUsecase) resolveBillingAddress(ctx context.Context, in CheckoutInput) (AddressInput, error) {
	if in.BillingAddressID != nil {
		addr, errs, err := u.resolveSavedAddress(ctx, in.UserID, *in.BillingAddressID)
		if err != nil {
			return AddressInput{}, err
		}
		if len(errs) > 0 {
			return AddressInput{}, NewHTTPError(http.StatusBadRequest, strings.Join(errs, "; "))
		}
		return addr, nil
	}
	if in.BillingAddress == nil {
		return AddressInput{}, NewHTTPError(http.StatusBadRequest, "billing address is required")
	}
	return *in.BillingAddress, nil
}

func (u *CheckoutUsecase) resolveSavedAddress(ctx context.Context, userID int64, addressID int64) (AddressInput, []string, error) {
	if userID <= 0 {
		return AddressInput{}, []string{"saved address requires login"}, nil
	}

	customer, err := u.customerRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return AddressInput{}, []string{"saved address not found"}, nil
	}
	if err != nil {
		return AddressInput{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	owned, err := u.addressRepo.IsOwnedByCustomer(ctx, addressID, customer.ID)
	if err != nil {
		return AddressInput{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return AddressInput{}, []string{"saved address not found"}, nil
	}

	saved, err := u.addressRepo.FindByID(ctx, addressID)
	if err == repo.ErrNotFound {
		return AddressInput{}, []string{"saved address not found"}, nil
	}
	if err != nil {
		return AddressInput{}, nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return addressFromSaved(saved), nil, nil
}

// COD適用条件（有効フラグ、金額帯、国の許可リスト）
func (u *CheckoutUsecase) validateCOD(subtotal decimal.Decimal, addr AddressInput) []string {
	var errs []string

	if !u.cfg.CODEnabled {
		errs = append(errs, "cash on delivery is not available")
		return errs
	}
	if subtotal.LessThan(u.cfg.CODMinSubtotal) {
		errs = append(errs, fmt.Sprintf("cash on delivery requires subtotal >= %s", u.cfg.CODMinSubtotal.StringFixed(2)))
	}
	if u.cfg.CODMaxSubtotal.IsPositive() && subtotal.GreaterThan(u.cfg.CODMaxSubtotal) {
		errs = append(errs, fmt.Sprintf("cash on delivery requires subtotal <= %s", u.cfg.CODMaxSubtotal.StringFixed(2)))
	}
	if len(u.cfg.CODCountries) > 0 {
		country := strings.ToUpper(strings.TrimSpace(addr.Country))
		allowed := false
		for _, c := range u.cfg.CODCountries {
			if c == country {
				allowed = true
				break
			}
		}
		if !allowed {
			errs = append(errs, "cash on delivery is not available for this country")
		}
	}

	return errs
}

// 注文に紐づく顧客を解決する。
// ログイン済みならuser_id、ゲストはemailで引き当て、無ければ作る。
// emailが無ければプレースホルダを合成する（ゲストはsession単位）。
func (u *CheckoutUsecase) resolveCustomer(ctx context.Context, r repo.TxRepos, in CheckoutInput, shipAddr AddressInput) (model.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if in.UserID > 0 {
		c, err := r.Customers().FindByUserID(ctx, in.UserID)
		if err == nil {
			return c, nil
		}
		if err != repo.ErrNotFound {
			return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//顧客レコードが無いログインユーザー（旧データ）は作る
		if email == "" {
			email = fmt.Sprintf("user-%d@accounts.local", in.UserID)
		}
	} else if email == "" {
		email = fmt.Sprintf("guest-%s@accounts.local", strings.ToLower(in.SessionID))
	}

	if c, err := r.Customers().FindByEmail(ctx, email); err == nil {
		return c, nil
	} else if err != repo.ErrNotFound {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var userID *int64
	if in.UserID > 0 {
		userID = &in.UserID
	}

	c, err := r.Customers().Create(ctx, model.Customer{
		Email:     email,
		UserID:    userID,
		FirstName: shipAddr.FirstName,
		LastName:  shipAddr.LastName,
		Phone:     shipAddr.Phone,
	})
	if err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 注文番号: {prefix}-{時刻8桁}-{乱数3桁}。
// uniqueIndexで最終的に守られるが、衝突時は3回まで振り直す。
func (u *CheckoutUsecase) newOrderNumber(ctx context.Context, r repo.TxRepos) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		ts := time.Now().Unix() % 100000000
		n := fmt.Sprintf("%s-%08d-%03d", u.cfg.OrderNumberPrefix, ts, rand.Intn(1000))

		_, err := r.Orders().FindByOrderNumber(ctx, n)
		if err == repo.ErrNotFound {
			return n, nil
		}
		if err != nil {
			return "", NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//衝突。振り直し
	}
	return "", NewHTTPError(http.StatusInternalServerError, "could not allocate order number")
}
