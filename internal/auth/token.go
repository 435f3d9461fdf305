package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/congo-pay/invoice_pool/internal/host"
)

const issuer = "invoice_pool"

var (
	ErrInvalidToken = errors.New("invalid approval token")
	ErrEmptySecret  = errors.New("jwt secret is required")
)

// Gate signs and verifies approval tokens. A verified token proves that its
// subject approved the request carrying it.
type Gate struct {
	secret []byte
	now    func() time.Time
}

// NewGate builds a Gate using HS256 with the given shared secret.
func NewGate(secret string) (*Gate, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	return &Gate{secret: []byte(secret), now: time.Now}, nil
}

// Sign issues an approval token for p valid for ttl. A non-positive ttl
// produces a token without expiry.
func (g *Gate) Sign(p host.Principal, ttl time.Duration) (string, error) {
	if p == "" {
		return "", fmt.Errorf("sign approval: empty principal")
	}
	now := g.now()
	claims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  p.String(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign approval: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of raw and returns the
// approving principal.
func (g *Gate) Verify(raw string) (host.Principal, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return host.Principal(claims.Subject), nil
}
