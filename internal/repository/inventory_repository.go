package repository

import (
	"app/internal/domain/model"
	"context"
)

type InventoryRepository interface {
	FindByVariantID(ctx context.Context, variantID int64) (model.Inventory, error)

	// available(quantity - reserved)が足りるときだけreservedを増やす
	ReserveIfAvailable(ctx context.Context, variantID int64, qty int64) (bool, error)

	// 予約戻し（キャンセルなど）
	Release(ctx context.Context, variantID int64, qty int64) error

	// 在庫の現在値を設定（管理者）
	SetQuantity(ctx context.Context, variantID int64, qty int64) error
}
