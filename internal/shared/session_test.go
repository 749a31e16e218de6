package shared

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSessionManager(t *testing.T, ttl time.Duration) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sid", "secret", ttl, false), mr
}

func TestSessionSlidingExpiry(t *testing.T) {
	ctx := context.Background()
	sm, mr := newSessionManager(t, 72*time.Hour)

	sess, err := sm.LoadToken(ctx, "")
	require.NoError(t, err)
	sess.SetUser("5")
	require.NoError(t, sm.Save(ctx, sess))
	token := sess.ID

	mr.FastForward(48 * time.Hour)
	again, err := sm.LoadToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "5", again.User())
	require.NoError(t, sm.Save(ctx, again))
	require.Equal(t, 72*time.Hour, mr.TTL("session:"+token))

	mr.FastForward(48 * time.Hour)
	again, err = sm.LoadToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "5", again.User())

	mr.FastForward(73 * time.Hour)
	expired, err := sm.LoadToken(ctx, token)
	require.NoError(t, err)
	require.Empty(t, expired.User())
	require.NotEqual(t, token, expired.ID)
}

func TestSessionCommitSetsCookie(t *testing.T) {
	ctx := context.Background()
	sm, _ := newSessionManager(t, time.Hour)

	req := httptest.NewRequest("GET", "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, req, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
	require.Equal(t, sess.ID, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	ctx := context.Background()
	sm, mr := newSessionManager(t, time.Hour)

	sess, err := sm.LoadToken(ctx, "")
	require.NoError(t, err)
	sess.SetUser("1")
	require.NoError(t, sm.Save(ctx, sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest("POST", "/", nil), sess))
	require.False(t, mr.Exists("session:"+sess.ID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestSessionRenewDropsOldKey(t *testing.T) {
	ctx := context.Background()
	sm, mr := newSessionManager(t, time.Hour)

	sess, err := sm.LoadToken(ctx, "")
	require.NoError(t, err)
	require.NoError(t, sm.Save(ctx, sess))
	old := sess.ID

	loaded, err := sm.LoadToken(ctx, old)
	require.NoError(t, err)
	require.NoError(t, sm.Renew(ctx, loaded))
	require.NotEqual(t, old, loaded.ID)
	require.False(t, mr.Exists("session:"+old))
}
