package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	issuerName     = "study-garden"
	gardenKeyClaim = "garden_key"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature or claim
	// validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingGardenKey is returned for valid tokens without a garden claim.
	ErrMissingGardenKey = errors.New("token has no garden key claim")
)

// Issuer mints and verifies the HS256 session tokens handed out at login.
// The token only proves the bearer presented the garden's secret key once;
// the key itself never travels on subsequent requests.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates a token issuer. ttl bounds how long a login stays valid.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a session token bound to one garden.
func (i *Issuer) Issue(gardenKey string) (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(issuerName).
		IssuedAt(now).
		Expiration(now.Add(i.ttl)).
		Claim(gardenKeyClaim, gardenKey).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify validates a session token and returns the garden key it is bound to.
func (i *Issuer) Verify(raw string) (string, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, i.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuerName),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	v, ok := tok.Get(gardenKeyClaim)
	if !ok {
		return "", ErrMissingGardenKey
	}
	gardenKey, ok := v.(string)
	if !ok || gardenKey == "" {
		return "", ErrMissingGardenKey
	}
	return gardenKey, nil
}
