package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LandingGormRepository struct {
	db *gorm.DB
}

func NewLandingGormRepository(db *gorm.DB) *LandingGormRepository {
	return &LandingGormRepository{db: db}
}

// isActive=trueの1件（複数あれば最新更新を採用）
func (r *LandingGormRepository) FindActive(ctx context.Context) (model.LandingPageContent, error) {
	var doc model.LandingPageContent
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at desc").
		First(&doc).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.LandingPageContent{}, repo.ErrNotFound
	}
	if err != nil {
		return model.LandingPageContent{}, err
	}
	return doc, nil
}

func (r *LandingGormRepository) FindByID(ctx context.Context, id int64) (model.LandingPageContent, error) {
	var doc model.LandingPageContent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.LandingPageContent{}, repo.ErrNotFound
	}
	if err != nil {
		return model.LandingPageContent{}, err
	}
	return doc, nil
}

func (r *LandingGormRepository) List(ctx context.Context) ([]model.LandingPageContent, error) {
	var docs []model.LandingPageContent
	if err := r.db.WithContext(ctx).Order("id asc").Find(&docs).Error; err != nil {
		return []model.LandingPageContent{}, err
	}
	return docs, nil
}

func (r *LandingGormRepository) Create(ctx context.Context, doc model.LandingPageContent) (model.LandingPageContent, error) {
	if err := r.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return model.LandingPageContent{}, err
	}
	return doc, nil
}

// sections/settingsを全置換（フィールドマージはしない）
func (r *LandingGormRepository) ReplaceDocument(ctx context.Context, id int64, sections datatypes.JSON, settings datatypes.JSON) error {
	res := r.db.WithContext(ctx).Model(&model.LandingPageContent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sections":   sections,
			"settings":   settings,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
