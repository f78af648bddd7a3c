package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/token"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	// Register 建立一般使用者並回傳 session token
	//
	// 錯誤:
	//   - apperr.InvalidInput 400: username 或 password 為空
	//   - apperr.Conflict 409 (UsernameTaken): username 已存在
	Register(ctx context.Context, username, password string) (*model.AuthResult, error)
	// Login 帳號密碼登入
	//
	// 錯誤:
	//   - apperr.InvalidInput 400: username 或 password 為空
	//   - apperr.Unauthorized 401 (InvalidCredentials): 帳號不存在或密碼錯誤
	Login(ctx context.Context, username, password string) (*model.AuthResult, error)
	// Me 取得當前登入user資訊
	// 錯誤:
	//   - apperr.Unauthorized 401: 未登入
	//   - apperr.NotFound 404: user 已不存在
	Me(ctx context.Context, caller *model.Identity) (*model.User, error)
}

type AuthService struct {
	store         db.IStore
	tokenMaker    token.Maker
	tokenDuration time.Duration
	bcryptCost    int
}

type AuthOption func(*AuthService)

// WithBcryptCost 測試使用 bcrypt.MinCost 加速
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) {
		s.bcryptCost = cost
	}
}

func NewAuthService(store db.IStore, tokenMaker token.Maker, tokenDuration time.Duration, opts ...AuthOption) *AuthService {
	if store == nil {
		panic("store cannot be nil")
	}
	if tokenMaker == nil {
		panic("tokenMaker cannot be nil")
	}
	s := &AuthService{
		store:         store,
		tokenMaker:    tokenMaker,
		tokenDuration: tokenDuration,
		bcryptCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*model.AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.New(apperr.InvalidInput, "username and password are required")
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         constants.RoleUser,
	}
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		_, err := q.GetUserByUsername(ctx, username)
		if err == nil {
			return apperr.UsernameTaken(username)
		}
		if !isNotFound(err) {
			return err
		}
		if err := q.CreateUser(ctx, user); err != nil {
			// 同時註冊時由 unique index 擋下
			if errors.Is(err, db.ErrDuplicatedKey) {
				return apperr.UsernameTaken(username)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.New(apperr.InvalidInput, "username and password are required")
	}

	var user *model.User
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		user, err = q.GetUserByUsername(ctx, username)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.InvalidCredentials()
	}

	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, caller *model.Identity) (*model.User, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		user, err = q.GetUserByID(ctx, caller.ID)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*model.AuthResult, error) {
	tokenStr, payload, err := s.tokenMaker.CreateToken(user.ID, user.Username, user.Role, s.tokenDuration)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create token failed", err)
	}
	return &model.AuthResult{
		User:      user,
		Token:     tokenStr,
		ExpiresAt: payload.ExpiredAt.UnixMilli(),
	}, nil
}

// HashPassword bcrypt 雜湊，超過 72 bytes 視為輸入錯誤
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.New(apperr.InvalidInput, "password is too long")
		}
		return "", apperr.Wrap(apperr.Internal, "hash password failed", err)
	}
	return string(hash), nil
}
