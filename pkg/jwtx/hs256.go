package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign token claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a token and gives you back the claims if it's legit.
// Expiry is validated separately via Claims.ValidateExpiry so callers can
// distinguish a bad token from a merely stale one.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Keypair is a Signer+Verifier over a shared symmetric secret. Access
// and refresh tokens each get their own keypair with a distinct secret.
type HS256Keypair struct {
	secret []byte
	issuer string
}

// NewHS256 returns a keypair signing and verifying with the given secret.
func NewHS256(secret []byte, issuer string) *HS256Keypair {
	return &HS256Keypair{secret: secret, issuer: issuer}
}

func (k *HS256Keypair) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(k.secret)
}

func (k *HS256Keypair) Verify(raw string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrAlgMismatch
			}
			return k.secret, nil
		},
		// Expiry is checked by the caller so expired-vs-forged is distinguishable.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(k.issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, ErrAlgMismatch):
		return ErrAlgMismatch
	default:
		return ErrInvalidSig
	}
}
