package model

import "time"

type PaymentType string

const (
	PaymentTypeCOD          PaymentType = "COD"
	PaymentTypeCard         PaymentType = "CARD"
	PaymentTypeBankTransfer PaymentType = "BANK_TRANSFER"
)

type PaymentMethod struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string      `gorm:"type:varchar(255);not null" json:"name"`
	Type      PaymentType `gorm:"type:varchar(20);not null" json:"type"`
	IsActive  bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
