package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type UploadGormRepository struct {
	db *gorm.DB
}

func NewUploadGormRepository(db *gorm.DB) *UploadGormRepository {
	return &UploadGormRepository{db: db}
}

func (r *UploadGormRepository) Create(ctx context.Context, up model.Upload) (model.Upload, error) {
	if err := r.db.WithContext(ctx).Create(&up).Error; err != nil {
		return model.Upload{}, err
	}
	return up, nil
}

func (r *UploadGormRepository) FindByID(ctx context.Context, id int64) (model.Upload, error) {
	var up model.Upload
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&up).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Upload{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Upload{}, err
	}
	return up, nil
}

func (r *UploadGormRepository) List(ctx context.Context, f repo.UploadListFilter) ([]model.Upload, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Upload{}).Where("deleted_at IS NULL")

	if f.Visibility != nil {
		q = q.Where("visibility = ?", *f.Visibility)
	}
	if f.UploaderID != nil {
		q = q.Where("uploader_id = ?", *f.UploaderID)
	}

	//admin/media:view:all以外は「見えるものだけ」に絞る
	if !f.Unrestricted {
		q = q.Where(
			"visibility = ? OR uploader_id = ? OR (visibility = ? AND allowed_roles @> ?)",
			model.VisibilityPublic,
			f.ViewerID,
			model.VisibilityRoleBased,
			`["`+string(f.ViewerRole)+`"]`,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Upload{}, 0, err
	}

	var items []model.Upload
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Upload{}, 0, err
	}

	return items, total, nil
}

func (r *UploadGormRepository) Update(ctx context.Context, up model.Upload) error {
	res := r.db.WithContext(ctx).Model(&model.Upload{}).
		Where("id = ? AND deleted_at IS NULL", up.ID).
		Updates(map[string]interface{}{
			"filename":      up.Filename,
			"visibility":    up.Visibility,
			"allowed_roles": up.AllowedRoles,
			"usage_count":   up.UsageCount,
			"usage_map":     up.UsageMap,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ソフトデリート（タイムスタンプ＋実行者を残す）
func (r *UploadGormRepository) SoftDelete(ctx context.Context, id int64, actorID int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Upload{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": at,
			"deleted_by": actorID,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
