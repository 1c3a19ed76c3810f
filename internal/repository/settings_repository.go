package repository

import (
	"context"

	"app/internal/domain/model"
)

type ShippingMethodRepository interface {
	ListActive(ctx context.Context) ([]model.ShippingMethod, error)
	FindByID(ctx context.Context, id int64) (model.ShippingMethod, error)
}

type PaymentMethodRepository interface {
	ListActive(ctx context.Context) ([]model.PaymentMethod, error)
	FindByID(ctx context.Context, id int64) (model.PaymentMethod, error)
}
