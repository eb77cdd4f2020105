package tokens

import (
	"time"

	"github.com/notevault/notevault/internal/apperr"
)

// Issuer binds the stateless codec to one secret and TTL. The service runs
// two instances: a short-lived access issuer and a long-lived refresh
// issuer, each with its own secret.
type Issuer struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock replaces the issuer's time source. Used by tests to drive
// expiry deterministically.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// TTL reports the configured lifetime, e.g. for cookie max-age.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Generate signs claims with this issuer's secret and TTL. An unset secret
// or TTL is a startup-class configuration error, not an auth failure.
func (i *Issuer) Generate(claims Claims) (string, error) {
	if i.secret == "" || i.ttl <= 0 {
		return "", apperr.ErrConfiguration
	}
	return Sign(claims, i.secret, i.ttl, i.now())
}

// Verify validates a raw token against this issuer's secret.
func (i *Issuer) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.ErrMissingToken
	}
	if i.secret == "" {
		return nil, apperr.ErrConfiguration
	}
	return Verify(token, i.secret, i.now())
}
