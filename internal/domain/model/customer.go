package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 顧客レコード。emailで一意。
// ユーザーアカウントとの紐付けは任意（ゲスト購入があるため）。
type Customer struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	UserID          *int64         `gorm:"index" json:"user_id,omitempty"`
	FirstName       string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName        string         `gorm:"type:varchar(100)" json:"last_name"`
	Phone           string         `gorm:"type:varchar(30)" json:"phone"`
	ShippingAddress datatypes.JSON `gorm:"type:jsonb" json:"shipping_address,omitempty"`
	BillingAddress  datatypes.JSON `gorm:"type:jsonb" json:"billing_address,omitempty"`
	Tags            datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`

	// ポータルトークン（単回・期限付き）。ゲストが注文履歴を見るために使う。
	PortalToken      *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	PortalTokenExpAt *time.Time `json:"-"`
	PortalTokenUsed  bool       `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
