package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ポータルトークンの有効期限（発行から24時間・単回）
const portalTokenTTL = 24 * time.Hour

// CustomerUsecase は顧客管理（管理側CRUD・統計）と
// ゲスト向け注文ポータルです。
type CustomerUsecase struct {
	customerRepo  repo.CustomerRepository
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
}

func NewCustomerUsecase(
	customerRepo repo.CustomerRepository,
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
) *CustomerUsecase {
	return &CustomerUsecase{
		customerRepo:  customerRepo,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
	}
}

type CustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Tags      []string
}

type CustomerListInput struct {
	Page  int
	Limit int
	Q     string
	Tag   string
}

type CustomerListOutput struct {
	Items []model.Customer `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *CustomerUsecase) List(ctx context.Context, in CustomerListInput) (CustomerListOutput, error) {
	if in.Page < 1 {
		return CustomerListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return CustomerListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.customerRepo.List(ctx, repo.CustomerListFilter{
		Page:  in.Page,
		Limit: in.Limit,
		Q:     strings.TrimSpace(in.Q),
		Tag:   strings.TrimSpace(in.Tag),
	})
	if err != nil {
		return CustomerListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return CustomerListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *CustomerUsecase) Get(ctx context.Context, customerID int64) (model.Customer, error) {
	if customerID <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	c, err := u.customerRepo.FindByID(ctx, customerID)
	if err == repo.ErrNotFound {
		return model.Customer{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CustomerUsecase) Create(ctx context.Context, in CustomerInput) (model.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	// email重複は409
	if _, err := u.customerRepo.FindByEmail(ctx, email); err == nil {
		return model.Customer{}, NewHTTPError(http.StatusConflict, "email already exists")
	} else if err != repo.ErrNotFound {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	tags, err := tagsJSON(in.Tags)
	if err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c, err := u.customerRepo.Create(ctx, model.Customer{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Tags:      tags,
	})
	if err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CustomerUsecase) Update(ctx context.Context, customerID int64, in CustomerInput) (model.Customer, error) {
	c, err := u.Get(ctx, customerID)
	if err != nil {
		return model.Customer{}, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return model.Customer{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	// 別の顧客が同じemailを使っていたら409
	if email != c.Email {
		if other, err := u.customerRepo.FindByEmail(ctx, email); err == nil && other.ID != c.ID {
			return model.Customer{}, NewHTTPError(http.StatusConflict, "email already exists")
		} else if err != nil && err != repo.ErrNotFound {
			return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	tags, err := tagsJSON(in.Tags)
	if err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.Email = email
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Tags = tags

	if err := u.customerRepo.Update(ctx, c); err != nil {
		if err == repo.ErrNotFound {
			return model.Customer{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CustomerUsecase) Delete(ctx context.Context, customerID int64) error {
	if customerID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.customerRepo.SoftDelete(ctx, customerID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type CustomerStats struct {
	OrderCount        int64  `json:"order_count"`
	LifetimeSpend     string `json:"lifetime_spend"`
	AverageOrderValue string `json:"average_order_value"`
	LastOrderAt       string `json:"last_order_at,omitempty"`
}

// 顧客の購買統計。金額はStringFixed(2)。
func (u *CustomerUsecase) Stats(ctx context.Context, customerID int64) (CustomerStats, error) {
	if _, err := u.Get(ctx, customerID); err != nil {
		return CustomerStats{}, err
	}

	// 全件なめる。顧客単位の注文数なので実用上は問題ない
	orders, _, err := u.orderRepo.ListByCustomerID(ctx, customerID, 1, 1000)
	if err != nil {
		return CustomerStats{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 3指標ともキャンセル済みを除いた同じ母集団で数える
	var count int64
	spend := decimal.Zero
	var lastOrderAt string
	for _, o := range orders {
		if o.Status == model.OrderStatusCanceled {
			continue
		}
		count++
		spend = spend.Add(o.Total)
		if lastOrderAt == "" {
			lastOrderAt = o.CreatedAt.Format(time.RFC3339)
		}
	}

	aov := decimal.Zero
	if count > 0 {
		aov = spend.Div(decimal.NewFromInt(count)).Round(2)
	}

	return CustomerStats{
		OrderCount:        count,
		LifetimeSpend:     spend.StringFixed(2),
		AverageOrderValue: aov.StringFixed(2),
		LastOrderAt:       lastOrderAt,
	}, nil
}

type PortalTokenOutput struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// IssuePortalToken はゲスト顧客向けの単回トークンを発行する。
// 再発行すると前のトークンは上書きで無効になる。
func (u *CustomerUsecase) IssuePortalToken(ctx context.Context, customerID int64) (PortalTokenOutput, error) {
	if _, err := u.Get(ctx, customerID); err != nil {
		return PortalTokenOutput{}, err
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(portalTokenTTL)

	if err := u.customerRepo.SetPortalToken(ctx, customerID, token, expiresAt); err != nil {
		if err == repo.ErrNotFound {
			return PortalTokenOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return PortalTokenOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return PortalTokenOutput{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

type PortalOrdersOutput struct {
	CustomerEmail string        `json:"customer_email"`
	Orders        []model.Order `json:"orders"`
}

// PortalOrders はトークンで注文履歴を見せる。
// 期限切れ・使用済みは401。成功したら使用済みにする。
func (u *CustomerUsecase) PortalOrders(ctx context.Context, token string) (PortalOrdersOutput, error) {
	if strings.TrimSpace(token) == "" {
		return PortalOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	c, err := u.customerRepo.FindByPortalToken(ctx, token)
	if err == repo.ErrNotFound {
		return PortalOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	if err != nil {
		return PortalOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if c.PortalTokenUsed {
		return PortalOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "token already used")
	}
	if c.PortalTokenExpAt == nil || c.PortalTokenExpAt.Before(time.Now()) {
		return PortalOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "token expired")
	}

	orders, _, err := u.orderRepo.ListByCustomerID(ctx, c.ID, 1, 100)
	if err != nil {
		return PortalOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.customerRepo.MarkPortalTokenUsed(ctx, c.ID); err != nil {
		return PortalOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return PortalOrdersOutput{
		CustomerEmail: c.Email,
		Orders:        orders,
	}, nil
}

func tagsJSON(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
