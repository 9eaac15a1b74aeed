// Package identity resolves bearer tokens into player identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Claims carries the profile fields a player token vouches for. The player
// id is the standard subject claim.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// JWT verifies and mints HS256 tokens with a shared secret.
type JWT struct {
	secret []byte
	now    func() time.Time
}

func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret), now: time.Now}
}

// Resolve implements core.IdentityResolver.
func (j *JWT) Resolve(_ context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty token", domain.ErrIdentityUnresolved)
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil || !parsed.Valid {
		log.Debug().Str("module", "identity").Err(err).Msg("token rejected")
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrIdentityUnresolved, err)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", domain.ErrIdentityUnresolved)
	}
	return domain.Identity{
		ID:       domain.PlayerID(claims.Subject),
		Name:     claims.Name,
		Email:    claims.Email,
		ImageURL: claims.Picture,
	}, nil
}

// Issue signs a token for id, valid for ttl.
func (j *JWT) Issue(id domain.Identity, ttl time.Duration) (string, error) {
	now := j.now()
	claims := Claims{
		Name:    id.Name,
		Email:   id.Email,
		Picture: id.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(id.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// IssueGuest mints a token for a fresh anonymous player.
func (j *JWT) IssueGuest(name string, ttl time.Duration) (domain.Identity, string, error) {
	id := domain.Identity{ID: domain.PlayerID(uuid.NewString()), Name: name}
	token, err := j.Issue(id, ttl)
	if err != nil {
		return domain.Identity{}, "", err
	}
	return id, token, nil
}
