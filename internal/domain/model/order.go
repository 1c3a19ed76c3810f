package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled FulfillmentStatus = "UNFULFILLED"
	FulfillmentStatusPartial     FulfillmentStatus = "PARTIAL"
	FulfillmentStatusFulfilled   FulfillmentStatus = "FULFILLED"
)

// チェックアウト完了で1件作成。
// 金額・住所はすべて作成時点のスナップショット。
type Order struct {
	ID               int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber      string            `gorm:"type:varchar(50);not null;uniqueIndex" json:"order_number"`
	CustomerID       int64             `gorm:"not null;index" json:"customer_id"`
	Status           OrderStatus       `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus    PaymentStatus     `gorm:"type:varchar(20);not null" json:"payment_status"`
	Fulfillment      FulfillmentStatus `gorm:"type:varchar(20);not null;column:fulfillment_status" json:"fulfillment_status"`
	ShippingMethodID int64             `gorm:"not null" json:"shipping_method_id"`
	PaymentMethodID  int64             `gorm:"not null" json:"payment_method_id"`
	ShippingAddress  datatypes.JSON    `gorm:"type:jsonb" json:"shipping_address"`
	BillingAddress   datatypes.JSON    `gorm:"type:jsonb" json:"billing_address"`
	Subtotal         decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingFee      decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"shipping_fee"`
	Tax              decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"tax"`
	CODFee           decimal.Decimal   `gorm:"type:numeric(12,2);not null;column:cod_fee" json:"cod_fee"`
	Discount         decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"discount"`
	Total            decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"total"`
	CreatedAt        time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ステータス遷移の追記専用履歴
type OrderStatusHistory struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64       `gorm:"not null;index" json:"order_id"`
	Status      OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Note        string      `gorm:"type:varchar(255)" json:"note"`
	ActorUserID *int64      `json:"actor_user_id,omitempty"`
	CreatedAt   time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}
