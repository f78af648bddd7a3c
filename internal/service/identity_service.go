package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/token"
	"github.com/RoyceAzure/lab/storefront/internal/model"
)

// IIdentityResolver 由 request 解析呼叫者
//
// 沒有身分時回傳 (nil, nil)，只有 store 錯誤才回傳 error
type IIdentityResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*model.Identity, error)
}

type IdentityResolver struct {
	store             db.IStore
	tokenMaker        token.Maker
	allowLegacyHeader bool
}

// NewIdentityResolver allowLegacyHeader 開啟後接受舊版 X-User-Id header，不安全
func NewIdentityResolver(store db.IStore, tokenMaker token.Maker, allowLegacyHeader bool) *IdentityResolver {
	if store == nil {
		panic("store cannot be nil")
	}
	if tokenMaker == nil {
		panic("tokenMaker cannot be nil")
	}
	return &IdentityResolver{store: store, tokenMaker: tokenMaker, allowLegacyHeader: allowLegacyHeader}
}

func (s *IdentityResolver) Resolve(ctx context.Context, r *http.Request) (*model.Identity, error) {
	if accessToken, ok := bearerToken(r); ok {
		payload, err := s.tokenMaker.VerifyToken(accessToken)
		if err != nil {
			return nil, nil
		}
		return s.loadIdentity(ctx, payload.UserID)
	}

	if s.allowLegacyHeader {
		if userID := strings.TrimSpace(r.Header.Get(constants.LegacyUserIDHeader)); userID != "" {
			return s.loadIdentity(ctx, userID)
		}
	}
	return nil, nil
}

// role 以 db 為準，token 內的 role 只做參考
func (s *IdentityResolver) loadIdentity(ctx context.Context, userID string) (*model.Identity, error) {
	var user *model.User
	err := s.store.Do(ctx, func(q db.Querier) error {
		var err error
		user, err = q.GetUserByID(ctx, userID)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &model.Identity{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(string(constants.AuthorizationHeaderKey))
	if header == "" {
		return "", false
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || strings.ToLower(fields[0]) != string(constants.AuthorizationTypeBearer) {
		return "", false
	}
	return fields[1], true
}
