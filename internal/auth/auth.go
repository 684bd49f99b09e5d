package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/tillpoint/tillpoint/internal/config"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
)

// Claims are the identity fields carried by an access token
type Claims struct {
	UserID  string `json:"user_id"`
	StoreID string `json:"store_id"`
	jwt.RegisteredClaims
}

// Provider issues and validates HMAC signed access tokens
type Provider struct {
	secret []byte
}

func NewProvider(cfg *config.Configuration) *Provider {
	return &Provider{
		secret: []byte(cfg.Auth.Secret),
	}
}

// GenerateToken signs a token for the user scoped to a store
func (p *Provider) GenerateToken(userID, storeID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:  userID,
		StoreID: storeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return token, nil
}

func (p *Provider) ValidateToken(_ context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", t.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	if !parsed.Valid || claims.UserID == "" {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	return claims, nil
}
