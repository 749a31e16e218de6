package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

type stubRepo struct {
	accounts map[string]auth.Account
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (auth.Account, error) {
	acc, ok := s.accounts[shared.NormalizeEmail(email)]
	if !ok {
		return auth.Account{}, shared.ErrNotFound
	}
	return acc, nil
}

func newAuthRouter(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")

	hasher, err := auth.NewHasherWithParams("server-secret", auth.Params{Memory: 64, Time: 1, Threads: 1, SaltLen: 8, KeyLen: 16})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	digest, err := hasher.Hash("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{accounts: map[string]auth.Account{
		"admin@localhost": {ID: 1, Email: "admin@localhost", PasswordHash: digest},
	}}

	handler := auth.NewHandler(nil, auth.NewService(repo, hasher, sessionManager, nil), csrfManager)
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

func postLogin(t *testing.T, router http.Handler, sessionManager *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res, sess
}

func TestLoginWithSeedAdminEmail(t *testing.T) {
	router, sessionManager := newAuthRouter(t)

	res, sess := postLogin(t, router, sessionManager, `{"email":"Admin@Localhost","password":"hunter22"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != 1 {
		t.Fatalf("expected user 1, got %d", body.UserID)
	}
	if sess.User() != "1" {
		t.Fatalf("expected session claim for user 1, got %q", sess.User())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, sessionManager := newAuthRouter(t)

	for _, body := range []string{
		`{"email":"admin@localhost","password":"wrong"}`,
		`{"email":"nobody@localhost","password":"hunter22"}`,
		`{"email":"","password":"hunter22"}`,
	} {
		res, sess := postLogin(t, router, sessionManager, body)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", body, res.Code)
		}
		if !strings.Contains(res.Body.String(), "invalid credentials") {
			t.Fatalf("%s: expected generic message, got %s", body, res.Body.String())
		}
		if sess.User() != "" {
			t.Fatalf("%s: session must stay anonymous", body)
		}
	}
}
