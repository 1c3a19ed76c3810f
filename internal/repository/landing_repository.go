package repository

import (
	"context"

	"app/internal/domain/model"

	"gorm.io/datatypes"
)

// ランディングページの単一ドキュメント
type LandingRepository interface {
	// isActive=trueの1件（複数あれば最新更新）
	FindActive(ctx context.Context) (model.LandingPageContent, error)
	FindByID(ctx context.Context, id int64) (model.LandingPageContent, error)
	List(ctx context.Context) ([]model.LandingPageContent, error)
	Create(ctx context.Context, doc model.LandingPageContent) (model.LandingPageContent, error)
	// sections/settingsを全置換してupdated_atを更新
	ReplaceDocument(ctx context.Context, id int64, sections datatypes.JSON, settings datatypes.JSON) error
}
