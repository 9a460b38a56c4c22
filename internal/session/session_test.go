package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/service-marketplace-api/internal/model"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
	"github.com/iliyamo/service-marketplace-api/internal/utils"
)

var testCfg = Config{
	AccessSecret:  "access-secret",
	RefreshSecret: "refresh-secret",
	Issuer:        "auth-service",
	Audience:      "web-client",
	AccessTTL:     15 * time.Minute,
	RefreshTTL:    7 * 24 * time.Hour,
}

// fakeStore is an in-memory account store keyed by id.
type fakeStore struct {
	accounts map[uint64]*model.Account
}

func newFakeStore(accounts ...*model.Account) *fakeStore {
	s := &fakeStore{accounts: make(map[uint64]*model.Account)}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *fakeStore) GetByUsername(_ context.Context, username string) (model.Account, error) {
	for _, a := range s.accounts {
		if a.Username == username {
			return *a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (model.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return *a, nil
	}
	return model.Account{}, repository.ErrNotFound
}

func (s *fakeStore) UpdateTokens(_ context.Context, id uint64, access, refresh string) error {
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.AccessToken = access
	a.RefreshToken = refresh
	return nil
}

func testAccount(t *testing.T, id uint64, username, password, role string) *model.Account {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return &model.Account{ID: id, Username: username, PasswordHash: hash, Role: role}
}

func TestLogin(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)

	sess, err := g.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), sess.AccountID)
	assert.Equal(t, model.RoleConsumer, sess.Role)
	assert.NotEmpty(t, sess.Access)
	assert.NotEmpty(t, sess.Refresh)

	// The issued pair is now the stored pair.
	assert.Equal(t, sess.Access, store.accounts[1].AccessToken)
	assert.Equal(t, sess.Refresh, store.accounts[1].RefreshToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)

	_, err := g.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = g.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)

	first, err := g.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	second, err := g.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	// The first pair still has a valid signature but no longer matches the
	// stored tokens, so it stops authenticating.
	_, err = g.Authenticate(context.Background(), first.Access)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	ident, err := g.Authenticate(context.Background(), second.Access)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ident.AccountID)
	assert.Equal(t, model.RoleConsumer, ident.Role)
}

func TestAuthenticate_UnknownAccount(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)

	sess, err := g.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	delete(store.accounts, 1)
	_, err = g.Authenticate(context.Background(), sess.Access)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestAuthenticate_RefreshTokenRejected(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)

	sess, err := g.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	// A refresh token is signed with the other secret and must not pass the
	// access-token gate.
	_, err = g.Authenticate(context.Background(), sess.Refresh)
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)
}

// storedRefresh signs a refresh token with the given remaining lifetime and
// installs it as the account's stored token.
func storedRefresh(t *testing.T, store *fakeStore, id uint64, role string, ttl time.Duration) string {
	t.Helper()
	raw, err := utils.SignToken(id, role, testCfg.RefreshSecret, testCfg.Issuer, testCfg.Audience, ttl)
	require.NoError(t, err)
	store.accounts[id].RefreshToken = raw
	return raw
}

func TestRefresh_NoRotationOutsideWindow(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)
	raw := storedRefresh(t, store, 1, model.RoleConsumer, 25*time.Hour)

	res, err := g.Refresh(context.Background(), raw, 0)
	require.NoError(t, err)

	assert.False(t, res.Rotated)
	assert.Equal(t, raw, res.Refresh)
	assert.NotEmpty(t, res.Access)
	assert.Equal(t, "1d 0h", res.RefreshRemaining)

	// Access token always renews and is re-persisted with the old refresh.
	assert.Equal(t, res.Access, store.accounts[1].AccessToken)
	assert.Equal(t, raw, store.accounts[1].RefreshToken)
}

func TestRefresh_RotatesInsideWindow(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)
	raw := storedRefresh(t, store, 1, model.RoleConsumer, 23*time.Hour)

	res, err := g.Refresh(context.Background(), raw, 0)
	require.NoError(t, err)

	assert.True(t, res.Rotated)
	assert.NotEqual(t, raw, res.Refresh)
	assert.Equal(t, res.Refresh, store.accounts[1].RefreshToken)
	assert.Equal(t, "22h 59m", res.RefreshRemaining)
}

func TestRefresh_StoredMismatch(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)
	storedRefresh(t, store, 1, model.RoleConsumer, 48*time.Hour)

	// Valid signature, but not the token on record.
	other, err := utils.SignToken(1, model.RoleConsumer, testCfg.RefreshSecret, testCfg.Issuer, testCfg.Audience, 48*time.Hour)
	require.NoError(t, err)

	_, err = g.Refresh(context.Background(), other, 0)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}

func TestRefresh_SubjectMismatch(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)
	raw := storedRefresh(t, store, 1, model.RoleConsumer, 48*time.Hour)

	_, err := g.Refresh(context.Background(), raw, 2)
	assert.ErrorIs(t, err, ErrSubjectMismatch)

	// The matching identity and the anonymous path both pass.
	_, err = g.Refresh(context.Background(), raw, 1)
	assert.NoError(t, err)
}

func TestRefresh_UnknownSubject(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)

	raw, err := utils.SignToken(99, model.RoleConsumer, testCfg.RefreshSecret, testCfg.Issuer, testCfg.Audience, 48*time.Hour)
	require.NoError(t, err)

	_, err = g.Refresh(context.Background(), raw, 0)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestLogout(t *testing.T) {
	store := newFakeStore(testAccount(t, 1, "alice", "s3cret", model.RoleConsumer))
	g := NewGuard(testCfg, store)

	sess, err := g.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, g.Logout(context.Background(), 1))
	assert.Empty(t, store.accounts[1].AccessToken)
	assert.Empty(t, store.accounts[1].RefreshToken)

	_, err = g.Authenticate(context.Background(), sess.Access)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}

func TestShouldRotate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"well outside window", now.Add(48 * time.Hour), false},
		{"just outside window", now.Add(RotateWindow + time.Second), false},
		{"exactly at window", now.Add(RotateWindow), true},
		{"inside window", now.Add(time.Hour), true},
		{"already expired", now.Add(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRotate(tt.exp, now))
		})
	}
}
