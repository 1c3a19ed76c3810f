package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品バリエーション（サイズ・色など）。
// Priceがnilなら商品のBasePriceを使う。
type ProductVariant struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64            `gorm:"not null;index" json:"product_id"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	SKU       string           `gorm:"type:varchar(100);not null;uniqueIndex" json:"sku"`
	Price     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price,omitempty"`
	IsActive  bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

// 実効価格（バリエーション価格があればそちら）
func (v ProductVariant) EffectivePrice(base decimal.Decimal) decimal.Decimal {
	if v.Price != nil {
		return *v.Price
	}
	return base
}
