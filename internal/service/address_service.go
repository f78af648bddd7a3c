package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

type IAddressService interface {
	// GetAddress 尚未設定時回傳 nil
	GetAddress(ctx context.Context, caller *model.Identity) (*model.Address, error)
	// UpsertAddress address 與 contact 皆必填
	UpsertAddress(ctx context.Context, caller *model.Identity, address, contact string) (*model.Address, error)
}

type AddressService struct {
	store db.IStore
}

func NewAddressService(store db.IStore) *AddressService {
	if store == nil {
		panic("store cannot be nil")
	}
	return &AddressService{store: store}
}

func (s *AddressService) GetAddress(ctx context.Context, caller *model.Identity) (*model.Address, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var address *model.Address
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		address, err = q.GetAddress(ctx, caller.ID)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return address, nil
}

func (s *AddressService) UpsertAddress(ctx context.Context, caller *model.Identity, address, contact string) (*model.Address, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(address) == "" || strings.TrimSpace(contact) == "" {
		return nil, apperr.New(apperr.InvalidInput, "address and contact are required")
	}

	row := &model.Address{UserID: caller.ID, Address: address, Contact: contact}
	err := s.store.Do(ctx, func(q db.Querier) error {
		return q.UpsertAddress(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}
