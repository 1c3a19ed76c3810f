package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type CustomerListFilter struct {
	Page  int
	Limit int
	Q     string
	Tag   string
}

// 顧客の保存・取得を約束
type CustomerRepository interface {
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	FindByID(ctx context.Context, customerID int64) (model.Customer, error)
	FindByEmail(ctx context.Context, email string) (model.Customer, error)
	FindByUserID(ctx context.Context, userID int64) (model.Customer, error)
	Update(ctx context.Context, c model.Customer) error
	SoftDelete(ctx context.Context, customerID int64) error
	List(ctx context.Context, f CustomerListFilter) ([]model.Customer, int64, error)

	//ポータルトークン（単回・期限付き）
	SetPortalToken(ctx context.Context, customerID int64, token string, expiresAt time.Time) error
	FindByPortalToken(ctx context.Context, token string) (model.Customer, error)
	MarkPortalTokenUsed(ctx context.Context, customerID int64) error
}

// 住所帳（Address）を保存・取得する窓口
type CustomerAddressRepository interface {
	Create(ctx context.Context, address model.CustomerAddress) (model.CustomerAddress, error)
	ListByCustomerID(ctx context.Context, customerID int64) ([]model.CustomerAddress, error)
	FindByID(ctx context.Context, addressID int64) (model.CustomerAddress, error)
	Update(ctx context.Context, address model.CustomerAddress) error
	Delete(ctx context.Context, addressID int64) error
	IsOwnedByCustomer(ctx context.Context, addressID, customerID int64) (bool, error)
	SetDefault(ctx context.Context, customerID, addressID int64) error
}
