package session

import (
	"commandr/bizerror"
	"errors"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	DefaultIssuer   = "commandr"
	MinSecretLength = 32
)

type Token struct {
	Value     string    `json:"-"`
	ID        string    `json:"-"`
	UserID    types.ID  `json:"userId"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenManager issues and validates HS256 signed session tokens. It keeps no per-token state.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenManager(secret []byte, issuer string, ttl time.Duration, now func() time.Time) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenManager{
		secret: key,
		issuer: issuer,
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(uid types.ID) (*Token, error) {
	if uid == 0 {
		return nil, errors.New("user id is required")
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   uid.String(),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	return &Token{
		Value:     signed,
		ID:        claims.ID,
		UserID:    uid,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Validate checks signature first, then claims. A token is valid strictly before its expiry.
func (m *TokenManager) Validate(token string) (types.ID, error) {
	if token == "" {
		return 0, bizerror.ErrMissingToken
	}
	claims := jwt.RegisteredClaims{}
	_, err := m.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, bizerror.ErrExpiredToken
		}
		return 0, bizerror.ErrMalformedToken
	}
	uid, err := types.ParseID(claims.Subject)
	if err != nil || uid == 0 {
		return 0, bizerror.ErrMalformedToken
	}
	return uid, nil
}
