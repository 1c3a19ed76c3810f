package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CustomerAddressGormRepository struct {
	db *gorm.DB
}

func NewCustomerAddressGormRepository(db *gorm.DB) *CustomerAddressGormRepository {
	return &CustomerAddressGormRepository{db: db}
}

func (r *CustomerAddressGormRepository) Create(ctx context.Context, address model.CustomerAddress) (model.CustomerAddress, error) {
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.CustomerAddress{}, err
	}
	return address, nil
}

func (r *CustomerAddressGormRepository) ListByCustomerID(ctx context.Context, customerID int64) ([]model.CustomerAddress, error) {
	var items []model.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default desc, id asc").
		Find(&items).Error
	if err != nil {
		return []model.CustomerAddress{}, err
	}
	return items, nil
}

func (r *CustomerAddressGormRepository) FindByID(ctx context.Context, addressID int64) (model.CustomerAddress, error) {
	var a model.CustomerAddress
	err := r.db.WithContext(ctx).Where("id = ?", addressID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CustomerAddress{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CustomerAddress{}, err
	}
	return a, nil
}

func (r *CustomerAddressGormRepository) Update(ctx context.Context, address model.CustomerAddress) error {
	res := r.db.WithContext(ctx).Model(&model.CustomerAddress{}).
		Where("id = ?", address.ID).
		Updates(map[string]interface{}{
			"first_name":  address.FirstName,
			"last_name":   address.LastName,
			"address1":    address.Address1,
			"address2":    address.Address2,
			"city":        address.City,
			"state":       address.State,
			"postal_code": address.PostalCode,
			"country":     address.Country,
			"phone":       address.Phone,
			"updated_at":  address.UpdatedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CustomerAddressGormRepository) Delete(ctx context.Context, addressID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CustomerAddress{}, addressID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 住所がその顧客のものかを確認
func (r *CustomerAddressGormRepository) IsOwnedByCustomer(ctx context.Context, addressID, customerID int64) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.CustomerAddress{}).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// デフォルト住所の切り替えを行う。
func (r *CustomerAddressGormRepository) SetDefault(ctx context.Context, customerID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CustomerAddress{}).
			Where("customer_id = ?", customerID).
			Update("is_default", false).Error; err != nil {
			return err
		}

		res := tx.Model(&model.CustomerAddress{}).
			Where("id = ? AND customer_id = ?", addressID, customerID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
