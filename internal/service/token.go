package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/filevault/filevault/internal/domain"
	"github.com/filevault/filevault/internal/store"
	"github.com/filevault/filevault/pkg/cryptox"
	"github.com/filevault/filevault/pkg/jwtx"
)

// Default token lifetimes; overridable via config.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Pair is one access token and one refresh token, issued together.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService owns the session lifecycle: issuing token pairs, gating
// requests on access tokens, rotating refresh tokens and revoking sessions.
// A user has at most one live refresh token; issuing a new pair supersedes
// the previous one.
type TokenService struct {
	Store      store.Store
	Access     *jwtx.HS256Keypair
	Refresh    *jwtx.HS256Keypair
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuePair signs a fresh access/refresh pair for the user and persists the
// refresh token's fingerprint, invalidating any prior refresh token.
func (s *TokenService) IssuePair(ctx context.Context, user domain.User) (Pair, error) {
	return s.issuePair(ctx, s.Store, user)
}

// issuePair is IssuePair against an explicit store so rotation can run it
// inside a transaction.
func (s *TokenService) issuePair(ctx context.Context, st store.Store, user domain.User) (Pair, error) {
	now := time.Now().UTC()

	access, err := s.Access.Sign(jwtx.NewClaims(user.ID, user.Username, s.Issuer, s.AccessTTL, now))
	if err != nil {
		return Pair{}, fmt.Errorf("signing access token: %w", err)
	}

	refresh, err := s.Refresh.Sign(jwtx.NewClaims(user.ID, user.Username, s.Issuer, s.RefreshTTL, now))
	if err != nil {
		return Pair{}, fmt.Errorf("signing refresh token: %w", err)
	}

	fp := cryptox.FingerprintToken(refresh)
	if err := st.Users().UpdateRefreshFingerprint(ctx, user.ID, &fp); err != nil {
		return Pair{}, fmt.Errorf("storing refresh fingerprint: %w", err)
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess checks an access token's signature and expiry and returns
// the user id it was issued to.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.Access.Verify(token)
	if err != nil {
		return "", err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token must
// be the one currently on record for the user; anything older was superseded
// and is rejected, which also surfaces replay of stolen tokens.
func (s *TokenService) Rotate(ctx context.Context, presented string) (Pair, error) {
	claims, err := s.Refresh.Verify(presented)
	if err != nil {
		return Pair{}, ErrInvalidRefresh
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Pair{}, ErrInvalidRefresh
	}

	var pair Pair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, claims.Subject)
		if err != nil {
			return ErrInvalidRefresh
		}

		if user.RefreshTokenFP == nil {
			return ErrInvalidRefresh
		}
		fp := cryptox.FingerprintToken(presented)
		if subtle.ConstantTimeCompare([]byte(fp), []byte(*user.RefreshTokenFP)) != 1 {
			return ErrInvalidRefresh
		}

		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		return Pair{}, err
	}

	return pair, nil
}

// Revoke clears the stored refresh fingerprint, ending the session. The
// access token keeps working until it expires.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	return s.Store.Users().UpdateRefreshFingerprint(ctx, userID, nil)
}
