package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// OrderUsecase はログインユーザー自身の注文閲覧です。
type OrderUsecase struct {
	customerRepo  repo.CustomerRepository
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
}

func NewOrderUsecase(
	customerRepo repo.CustomerRepository,
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
) *OrderUsecase {
	return &OrderUsecase{
		customerRepo:  customerRepo,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
	}
}

type OrderOutput struct {
	Order   model.Order              `json:"order"`
	Items   []model.OrderItem        `json:"items"`
	History []model.OrderStatusHistory `json:"history,omitempty"`
}

type MyOrdersOutput struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (MyOrdersOutput, error) {
	if userID <= 0 {
		return MyOrdersOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return MyOrdersOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return MyOrdersOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	c, err := u.customerRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		// 一度も買っていないユーザー
		return MyOrdersOutput{Items: []model.Order{}, Page: page, Limit: limit}, nil
	}
	if err != nil {
		return MyOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	orders, total, err := u.orderRepo.ListByCustomerID(ctx, c.ID, page, limit)
	if err != nil {
		return MyOrdersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return MyOrdersOutput{Items: orders, Total: total, Page: page, Limit: limit}, nil
}

// 自分の注文詳細。他人の注文は404。
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	c, err := u.customerRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.CustomerID != c.ID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	history, err := u.orderRepo.ListStatusHistory(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return OrderOutput{Order: o, Items: items, History: history}, nil
}
