package model

import (
	"time"

	"gorm.io/datatypes"
)

type UploadVisibility string

const (
	VisibilityPublic    UploadVisibility = "PUBLIC"
	VisibilityPrivate   UploadVisibility = "PRIVATE"
	VisibilityRoleBased UploadVisibility = "ROLE_BASED"
)

// アップロードファイルのメタデータ。
// 物理削除はしない（deleted_at + 実行者を残すソフトデリート）。
type Upload struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename     string           `gorm:"type:varchar(255);not null" json:"filename"`
	StoredPath   string           `gorm:"type:varchar(512);not null" json:"stored_path"`
	MimeType     string           `gorm:"type:varchar(100);not null" json:"mime_type"`
	SizeBytes    int64            `gorm:"not null" json:"size_bytes"`
	Visibility   UploadVisibility `gorm:"type:varchar(20);not null;index" json:"visibility"`
	UploaderID   int64            `gorm:"not null;index" json:"uploader_id"`
	AllowedRoles datatypes.JSON   `gorm:"type:jsonb" json:"allowed_roles,omitempty"`

	// 参照カウント（どこから使われているか）
	UsageCount int64          `gorm:"not null;default:0" json:"usage_count"`
	UsageMap   datatypes.JSON `gorm:"type:jsonb" json:"usage_map,omitempty"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy *int64     `json:"deleted_by,omitempty"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
