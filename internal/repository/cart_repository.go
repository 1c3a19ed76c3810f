package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartRepository interface {
	// session_id / user_id のどちらかで検索（ORで一意）
	FindByOwner(ctx context.Context, sessionID string, userID int64) (model.Cart, error)
	// 無ければ30日期限で作成
	GetOrCreateByOwner(ctx context.Context, sessionID string, userID int64) (model.Cart, error)
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)
	// カート本体ごと削除（マージ後のゲストカート用）
	Delete(ctx context.Context, cartID int64) error
	// 明細を全削除
	Clear(ctx context.Context, cartID int64) error
}
