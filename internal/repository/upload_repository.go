package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 一覧の絞り込み。Unrestrictedでなければ
// 「PUBLIC or 自分がowner or ロール一致のROLE_BASED」のOR条件で絞る。
type UploadListFilter struct {
	Page       int
	Limit      int
	Visibility *model.UploadVisibility
	UploaderID *int64

	ViewerID     int64
	ViewerRole   model.Role
	Unrestricted bool
}

type UploadRepository interface {
	Create(ctx context.Context, up model.Upload) (model.Upload, error)
	FindByID(ctx context.Context, id int64) (model.Upload, error)
	List(ctx context.Context, f UploadListFilter) ([]model.Upload, int64, error)
	Update(ctx context.Context, up model.Upload) error
	SoftDelete(ctx context.Context, id int64, actorID int64, at time.Time) error
}
