// Package session implements the credential lifecycle: login, authenticated
// request resolution, refresh with time-based rotation, and logout. The
// model is deliberately simple: the auth row stores only the most recently
// issued access/refresh pair, and every authenticated request compares the
// presented token against the stored one. Issuing a new pair therefore
// invalidates every older token at once, and an account can hold exactly
// one active session. That is a product constraint, not a missing session
// table.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/utils"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a failed
	// password check; the two causes are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSubjectMismatch is returned when an authenticated caller presents
	// a refresh token minted for a different account.
	ErrSubjectMismatch = errors.New("token subject mismatch")
	// ErrInvalidUser is returned when a token's subject no longer resolves
	// to an account.
	ErrInvalidUser = errors.New("invalid user")
	// ErrSessionReplaced is returned for a well-signed token that is no
	// longer the account's stored token: a newer login, refresh or logout
	// has superseded it.
	ErrSessionReplaced = errors.New("session replaced")
)

// RotateWindow is the remaining-lifetime threshold at or below which a
// refresh call rotates the refresh token instead of returning it unchanged.
const RotateWindow = 24 * time.Hour

// Store is the slice of the user repository the guard needs.
type Store interface {
	GetByUsername(ctx context.Context, username string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	UpdateTokens(ctx context.Context, id uint64, access, refresh string) error
}

// Config carries the signing material. Access and refresh tokens use
// different secrets and different ttl classes.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Guard binds the token configuration to the account store.
type Guard struct {
	cfg   Config
	store Store
	now   func() time.Time
}

func NewGuard(cfg Config, store Store) *Guard {
	return &Guard{cfg: cfg, store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	AccountID uint64
	Role      string
}

// Session is a freshly issued credential pair.
type Session struct {
	AccountID uint64
	Role      string
	Access    string
	Refresh   string
}

// Login verifies the password against the stored digest and, on success,
// issues a fresh pair and persists it as the account's only valid pair.
// Any previously issued tokens stop working immediately, expired or not.
func (g *Guard) Login(ctx context.Context, username, password string) (Session, error) {
	acct, err := g.store.GetByUsername(ctx, username)
	if err != nil {
		// Unknown user and bad password report the same failure.
		return Session{}, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(acct.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return g.issuePair(ctx, acct.ID, acct.Role)
}

// Authenticate resolves a bearer access token into an identity. Beyond
// signature and expiry, the token must string-equal the account's stored
// access token; this is the single-session replacement check.
func (g *Guard) Authenticate(ctx context.Context, raw string) (Identity, error) {
	claims, err := utils.VerifyToken(raw, g.cfg.AccessSecret, g.cfg.Issuer, g.cfg.Audience)
	if err != nil {
		return Identity{}, err
	}
	id, err := claims.AccountID()
	if err != nil {
		return Identity{}, err
	}
	acct, err := g.store.GetByID(ctx, id)
	if err != nil {
		return Identity{}, ErrInvalidUser
	}
	if acct.AccessToken != raw {
		return Identity{}, ErrSessionReplaced
	}
	return Identity{AccountID: acct.ID, Role: acct.Role}, nil
}

// RefreshResult reports the outcome of a refresh: the pair now stored for
// the account, whether the refresh token was rotated, and the formatted
// remaining lifetime the old refresh token had at the time of the call.
type RefreshResult struct {
	AccountID        uint64
	Role             string
	Access           string
	Refresh          string
	Rotated          bool
	RefreshRemaining string
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is rotated only when its remaining lifetime is inside
// RotateWindow; otherwise the same token is returned and re-persisted.
// authedID is the identity already attached to the request, or zero for an
// anonymous call; when present it must match the token's subject.
func (g *Guard) Refresh(ctx context.Context, raw string, authedID uint64) (RefreshResult, error) {
	claims, err := utils.VerifyToken(raw, g.cfg.RefreshSecret, g.cfg.Issuer, g.cfg.Audience)
	if err != nil {
		return RefreshResult{}, err
	}
	sub, err := claims.AccountID()
	if err != nil {
		return RefreshResult{}, err
	}
	if authedID != 0 && authedID != sub {
		return RefreshResult{}, ErrSubjectMismatch
	}
	acct, err := g.store.GetByID(ctx, sub)
	if err != nil {
		return RefreshResult{}, ErrInvalidUser
	}
	if acct.RefreshToken != raw {
		return RefreshResult{}, ErrSessionReplaced
	}

	access, err := utils.SignToken(sub, acct.Role, g.cfg.AccessSecret, g.cfg.Issuer, g.cfg.Audience, g.cfg.AccessTTL)
	if err != nil {
		return RefreshResult{}, err
	}

	now := g.now()
	remaining := claims.ExpiresAt.Time.Sub(now)
	rotate := ShouldRotate(claims.ExpiresAt.Time, now)
	refresh := raw
	if rotate {
		refresh, err = utils.SignToken(sub, acct.Role, g.cfg.RefreshSecret, g.cfg.Issuer, g.cfg.Audience, g.cfg.RefreshTTL)
		if err != nil {
			return RefreshResult{}, err
		}
	}
	if err := g.store.UpdateTokens(ctx, sub, access, refresh); err != nil {
		return RefreshResult{}, err
	}
	return RefreshResult{
		AccountID:        sub,
		Role:             acct.Role,
		Access:           access,
		Refresh:          refresh,
		Rotated:          rotate,
		RefreshRemaining: utils.FormatRemaining(remaining),
	}, nil
}

// Logout blanks the stored pair, making every token ever issued for the
// account permanently unusable regardless of signature validity.
func (g *Guard) Logout(ctx context.Context, accountID uint64) error {
	return g.store.UpdateTokens(ctx, accountID, "", "")
}

// ShouldRotate reports whether a refresh token expiring at exp should be
// rotated when refreshed at now: rotation happens once 24 hours or less
// remain.
func ShouldRotate(exp, now time.Time) bool {
	return exp.Sub(now) <= RotateWindow
}

func (g *Guard) issuePair(ctx context.Context, accountID uint64, role string) (Session, error) {
	access, err := utils.SignToken(accountID, role, g.cfg.AccessSecret, g.cfg.Issuer, g.cfg.Audience, g.cfg.AccessTTL)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.SignToken(accountID, role, g.cfg.RefreshSecret, g.cfg.Issuer, g.cfg.Audience, g.cfg.RefreshTTL)
	if err != nil {
		return Session{}, err
	}
	if err := g.store.UpdateTokens(ctx, accountID, access, refresh); err != nil {
		return Session{}, err
	}
	return Session{AccountID: accountID, Role: role, Access: access, Refresh: refresh}, nil
}
