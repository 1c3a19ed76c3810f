package model

import "time"

// バリエーション単位の在庫。
// available = quantity - reserved。注文確定時にreservedを増やす。
type Inventory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	VariantID int64     `gorm:"not null;uniqueIndex" json:"variant_id"`
	Quantity  int64     `gorm:"not null;default:0" json:"quantity"`
	Reserved  int64     `gorm:"not null;default:0" json:"reserved"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (i Inventory) Available() int64 {
	return i.Quantity - i.Reserved
}
