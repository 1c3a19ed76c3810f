package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// (cart, product, variant) の組で1行。追加時点の価格を必ず保存。
type CartItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID        int64           `gorm:"not null;index" json:"cart_id"`
	ProductID     int64           `gorm:"not null;index" json:"product_id"`
	VariantID     *int64          `gorm:"index" json:"variant_id,omitempty"`
	Quantity      int64           `gorm:"not null" json:"quantity"`
	PriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null;column:price_snapshot" json:"price_snapshot"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
