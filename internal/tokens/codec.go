package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/notevault/notevault/internal/apperr"
)

// Claims is the payload embedded into every signed token. The session id is
// part of the claims, so a token can only be minted after its session row
// exists.
type Claims struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

var signingMethod = jwt.SigningMethodHS256

// Sign produces a signed, expiring token for claims. Issued-at and expiry
// are derived from now; the codec itself holds no state.
func Sign(claims Claims, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret))
}

// Verify parses and validates a signed token. Expiry is reported as
// apperr.ErrTokenExpired; every other failure (bad signature, structural
// corruption, wrong algorithm) collapses to apperr.ErrInvalidToken so the
// error is not usable as an oracle.
func Verify(token, secret string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired.With(err)
		}
		return nil, apperr.ErrInvalidToken.With(err)
	}
	return claims, nil
}
