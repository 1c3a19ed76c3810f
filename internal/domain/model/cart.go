package model

import "time"

// カートの有効期限（作成から30日）
const CartTTL = 30 * 24 * time.Hour

// session_id か user_id のどちらか片方で一意。
// ゲストは session_id、ログイン済みは user_id。
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID *string   `gorm:"type:varchar(64);index" json:"session_id,omitempty"`
	UserID    *int64    `gorm:"index" json:"user_id,omitempty"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
