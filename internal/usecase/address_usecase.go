package usecase

import (
	"context"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// AddressUsecase はログインユーザーの住所帳です。
// userID→customerの解決を挟んでから所有チェックする。
type AddressUsecase struct {
	customerRepo repo.CustomerRepository
	addressRepo  repo.CustomerAddressRepository
}

func NewAddressUsecase(
	customerRepo repo.CustomerRepository,
	addressRepo repo.CustomerAddressRepository,
) *AddressUsecase {
	return &AddressUsecase{
		customerRepo: customerRepo,
		addressRepo:  addressRepo,
	}
}

type AddressBookInput struct {
	FirstName  string
	LastName   string
	Address1   string
	Address2   string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	IsDefault  bool
}

func (in AddressBookInput) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"address1", in.Address1},
		{"city", in.City},
		{"state", in.State},
		{"postal_code", in.PostalCode},
		{"country", in.Country},
		{"phone", in.Phone},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return NewHTTPError(http.StatusBadRequest, f.name+" is required")
		}
	}
	if len(strings.TrimSpace(in.Country)) != 2 {
		return NewHTTPError(http.StatusBadRequest, "country must be ISO 3166-1 alpha-2")
	}
	return nil
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.CustomerAddress, error) {
	c, err := u.customerOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	addrs, err := u.addressRepo.ListByCustomerID(ctx, c.ID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return addrs, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressBookInput) (model.CustomerAddress, error) {
	if err := in.validate(); err != nil {
		return model.CustomerAddress{}, err
	}

	c, err := u.customerOf(ctx, userID)
	if err != nil {
		return model.CustomerAddress{}, err
	}

	addr, err := u.addressRepo.Create(ctx, model.CustomerAddress{
		CustomerID: c.ID,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Address1:   strings.TrimSpace(in.Address1),
		Address2:   strings.TrimSpace(in.Address2),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(in.Country)),
		Phone:      strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return model.CustomerAddress{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.IsDefault {
		if err := u.addressRepo.SetDefault(ctx, c.ID, addr.ID); err != nil {
			return model.CustomerAddress{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		addr.IsDefault = true
	}

	return addr, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressBookInput) (model.CustomerAddress, error) {
	if err := in.validate(); err != nil {
		return model.CustomerAddress{}, err
	}

	c, addr, err := u.findOwned(ctx, userID, addressID)
	if err != nil {
		return model.CustomerAddress{}, err
	}

	addr.FirstName = strings.TrimSpace(in.FirstName)
	addr.LastName = strings.TrimSpace(in.LastName)
	addr.Address1 = strings.TrimSpace(in.Address1)
	addr.Address2 = strings.TrimSpace(in.Address2)
	addr.City = strings.TrimSpace(in.City)
	addr.State = strings.TrimSpace(in.State)
	addr.PostalCode = strings.TrimSpace(in.PostalCode)
	addr.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	addr.Phone = strings.TrimSpace(in.Phone)

	if err := u.addressRepo.Update(ctx, addr); err != nil {
		if err == repo.ErrNotFound {
			return model.CustomerAddress{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.CustomerAddress{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.IsDefault && !addr.IsDefault {
		if err := u.addressRepo.SetDefault(ctx, c.ID, addr.ID); err != nil {
			return model.CustomerAddress{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		addr.IsDefault = true
	}

	return addr, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if _, _, err := u.findOwned(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addressRepo.Delete(ctx, addressID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	c, _, err := u.findOwned(ctx, userID, addressID)
	if err != nil {
		return err
	}

	if err := u.addressRepo.SetDefault(ctx, c.ID, addressID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) customerOf(ctx context.Context, userID int64) (model.Customer, error) {
	if userID <= 0 {
		return model.Customer{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	c, err := u.customerRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return model.Customer{}, NewHTTPError(http.StatusNotFound, "customer not found")
	}
	if err != nil {
		return model.Customer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *AddressUsecase) findOwned(ctx context.Context, userID int64, addressID int64) (model.Customer, model.CustomerAddress, error) {
	if addressID <= 0 {
		return model.Customer{}, model.CustomerAddress{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	c, err := u.customerOf(ctx, userID)
	if err != nil {
		return model.Customer{}, model.CustomerAddress{}, err
	}

	owned, err := u.addressRepo.IsOwnedByCustomer(ctx, addressID, c.ID)
	if err != nil {
		return model.Customer{}, model.CustomerAddress{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return model.Customer{}, model.CustomerAddress{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	addr, err := u.addressRepo.FindByID(ctx, addressID)
	if err == repo.ErrNotFound {
		return model.Customer{}, model.CustomerAddress{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Customer{}, model.CustomerAddress{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return c, addr, nil
}
