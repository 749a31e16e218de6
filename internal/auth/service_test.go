package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

type memoryAccounts struct {
	byEmail map[string]Account
	err     error
}

func (m *memoryAccounts) FindByEmail(_ context.Context, email string) (Account, error) {
	if m.err != nil {
		return Account{}, m.err
	}
	acc, ok := m.byEmail[shared.NormalizeEmail(email)]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return acc, nil
}

func newTestSessions(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, "sid", "secret", 72*time.Hour, false), mr
}

func newTestService(t *testing.T, accounts *memoryAccounts) (*Service, *shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	sessions, mr := newTestSessions(t)
	return NewService(accounts, newTestHasher(t, "server-secret"), sessions, nil), sessions, mr
}

func seedAccount(t *testing.T, svc *Service, id int64, email, password string) Account {
	t.Helper()
	digest, err := svc.hasher.Hash(password)
	require.NoError(t, err)
	return Account{ID: id, Email: email, PasswordHash: digest}
}

func TestLoginSuccessSetsClaim(t *testing.T) {
	ctx := context.Background()
	accounts := &memoryAccounts{byEmail: map[string]Account{}}
	svc, sessions, mr := newTestService(t, accounts)
	accounts.byEmail["admin@localhost"] = seedAccount(t, svc, 7, "admin@localhost", "hunter2")

	sess, err := sessions.LoadToken(ctx, "")
	require.NoError(t, err)
	preLoginID := sess.ID

	id, err := svc.Login(ctx, sess, "Admin@Localhost", "hunter2")
	require.NoError(t, err)
	userID, ok := id.UserID()
	require.True(t, ok)
	require.Equal(t, int64(7), userID)
	require.Equal(t, "7", sess.User())
	require.NotEqual(t, preLoginID, sess.ID)

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, rec, httptest.NewRequest("POST", "/auth/login", nil), sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	reloaded, err := sessions.LoadToken(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "7", reloaded.User())
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	ctx := context.Background()
	accounts := &memoryAccounts{byEmail: map[string]Account{}}
	svc, sessions, _ := newTestService(t, accounts)
	accounts.byEmail["a@example.com"] = seedAccount(t, svc, 1, "a@example.com", "right")

	for _, tc := range []struct{ email, password string }{
		{"a@example.com", "wrong"},
		{"nobody@example.com", "right"},
	} {
		sess, err := sessions.LoadToken(ctx, "")
		require.NoError(t, err)
		id, err := svc.Login(ctx, sess, tc.email, tc.password)
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
		require.Equal(t, "invalid credentials", shared.UserSafeMessage(err))
		require.False(t, id.IsAuthenticated())
		require.Empty(t, sess.User())
	}
}

func TestLoginStorageFailureIsNotInvalidCredentials(t *testing.T) {
	storeErr := errors.New("db down")
	svc, sessions, _ := newTestService(t, &memoryAccounts{err: storeErr})
	sess, err := sessions.LoadToken(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), sess, "a@example.com", "pw")
	require.ErrorIs(t, err, storeErr)
	require.NotErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginMalformedStoredDigest(t *testing.T) {
	accounts := &memoryAccounts{byEmail: map[string]Account{
		"a@example.com": {ID: 1, Email: "a@example.com", PasswordHash: "garbage"},
	}}
	svc, sessions, _ := newTestService(t, accounts)
	sess, err := sessions.LoadToken(context.Background(), "")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), sess, "a@example.com", "pw")
	require.ErrorIs(t, err, shared.ErrHashing)
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	accounts := &memoryAccounts{byEmail: map[string]Account{}}
	svc, sessions, mr := newTestService(t, accounts)
	accounts.byEmail["a@example.com"] = seedAccount(t, svc, 1, "a@example.com", "pw")

	sess, err := sessions.LoadToken(ctx, "")
	require.NoError(t, err)
	_, err = svc.Login(ctx, sess, "a@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), httptest.NewRequest("POST", "/", nil), sess))
	token := sess.ID

	svc.Logout(sess)
	require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), httptest.NewRequest("POST", "/", nil), sess))
	require.False(t, mr.Exists("session:"+token))

	reloaded, err := sessions.LoadToken(ctx, token)
	require.NoError(t, err)
	require.Empty(t, reloaded.User())
}

type outcomes []string

func (o *outcomes) ObserveLogin(outcome string) { *o = append(*o, outcome) }

func TestLoginReportsOutcomes(t *testing.T) {
	ctx := context.Background()
	accounts := &memoryAccounts{byEmail: map[string]Account{}}
	svc, sessions, _ := newTestService(t, accounts)
	accounts.byEmail["admin@localhost"] = seedAccount(t, svc, 7, "admin@localhost", "hunter2")
	var seen outcomes
	svc.SetObserver(&seen)

	sess, err := sessions.LoadToken(ctx, "")
	require.NoError(t, err)
	_, err = svc.Login(ctx, sess, "admin@localhost", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, sess, "admin@localhost", "hunter2")
	require.NoError(t, err)

	accounts.err = errors.New("connection reset")
	_, err = svc.Login(ctx, sess, "admin@localhost", "hunter2")
	require.Error(t, err)

	require.Equal(t, outcomes{"invalid", "success", "error"}, seen)
}
