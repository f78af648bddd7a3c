package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

// Maker 建立與驗證 session token
type Maker interface {
	CreateToken(userID, username string, role constants.Role, duration time.Duration) (string, *Payload, error)
	VerifyToken(token string) (*Payload, error)
}

type Payload struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	Role      constants.Role `json:"role"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiredAt time.Time      `json:"expired_at"`
}

func NewPayload(userID, username string, role constants.Role, duration time.Duration) (*Payload, error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Payload{
		ID:        tokenID,
		UserID:    userID,
		Username:  username,
		Role:      role,
		IssuedAt:  now,
		ExpiredAt: now.Add(duration),
	}, nil
}

func (p *Payload) Valid() error {
	if time.Now().After(p.ExpiredAt) {
		return ErrExpiredToken
	}
	return nil
}

// NewMaker 依 TOKEN_TYPE 建立 maker
func NewMaker(tokenType constants.TokenType, key string) (Maker, error) {
	switch tokenType {
	case constants.TokenTypePaseto, "":
		return NewPasetoMaker(key)
	case constants.TokenTypeJWT:
		return NewJWTMaker(key)
	default:
		return nil, fmt.Errorf("unsupported token type %q", tokenType)
	}
}
