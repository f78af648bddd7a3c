package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/model"
)

func (q *Queries) CreateUser(ctx context.Context, user *model.User) error {
	return q.conn(ctx).Create(user).Error
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := q.conn(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := q.conn(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (q *Queries) CountUsersByRole(ctx context.Context, role constants.Role) (int64, error) {
	var count int64
	err := q.conn(ctx).Model(&model.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
