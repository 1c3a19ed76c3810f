package model

import (
	"time"

	"gorm.io/datatypes"
)

// セクション種別（ランディングページの構成ブロック）
const (
	SectionTypeHero         = "hero"
	SectionTypeFeatures     = "features"
	SectionTypeFooter       = "footer"
	SectionTypeCTA          = "cta"
	SectionTypeTestimonials = "testimonials"
	SectionTypeStats        = "stats"
	SectionTypeContent      = "content"
	SectionTypeBlogPosts    = "blog-posts"
	SectionTypePages        = "pages"
	SectionTypeProducts     = "products"
)

// 型付きセクション。Dataは種別ごとのペイロード。
type Section struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Enabled bool           `json:"enabled"`
	Order   int            `json:"order"`
	Data    map[string]any `json:"data"`
}

// ランディングページの単一ドキュメント。
// isActive=true は同時に1行だけ。更新は全置換。
type LandingPageContent struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	IsActive  bool           `gorm:"not null;default:false;index" json:"is_active"`
	Sections  datatypes.JSON `gorm:"type:jsonb" json:"sections"`
	Settings  datatypes.JSON `gorm:"type:jsonb" json:"settings"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index" json:"updated_at"`
}
