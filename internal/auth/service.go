package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// LoginObserver receives the outcome of every login attempt: "success",
// "invalid" or "error".
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	hasher   *Hasher
	sessions *shared.SessionManager
	logger   *slog.Logger
	observer LoginObserver

	decoyOnce sync.Once
	decoy     string
}

// NewService constructs a new Service.
func NewService(repo Repository, hasher *Hasher, sessions *shared.SessionManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, sessions: sessions, logger: logger}
}

// SetObserver installs a LoginObserver. Passing nil disables observation.
func (s *Service) SetObserver(o LoginObserver) {
	s.observer = o
}

// Login validates email/password credentials and writes the user id claim
// into sess. Unknown email and wrong password both return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, sess *shared.Session, email, password string) (id Identity, err error) {
	if s.observer != nil {
		defer func() {
			switch {
			case err == nil:
				s.observer.ObserveLogin("success")
			case errors.Is(err, shared.ErrInvalidCredentials):
				s.observer.ObserveLogin("invalid")
			default:
				s.observer.ObserveLogin("error")
			}
		}()
	}
	if sess == nil {
		return Anonymous(), errors.New("auth: session missing")
	}
	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.burnVerify(password)
			return Anonymous(), shared.ErrInvalidCredentials
		}
		return Anonymous(), fmt.Errorf("auth: login: %w", err)
	}
	ok, err := s.hasher.Verify(password, acc.PasswordHash)
	if err != nil {
		s.logger.Error("auth: verify password", slog.Int64("user_id", acc.ID), slog.Any("error", err))
		return Anonymous(), err
	}
	if !ok {
		return Anonymous(), shared.ErrInvalidCredentials
	}
	if s.sessions != nil {
		if err := s.sessions.Renew(ctx, sess); err != nil {
			return Anonymous(), fmt.Errorf("auth: renew session: %w", err)
		}
	}
	sess.SetUser(strconv.FormatInt(acc.ID, 10))
	return Authenticated(acc.ID), nil
}

// Logout destroys the session; the claim is removed from the store on commit.
func (s *Service) Logout(sess *shared.Session) {
	if s.sessions == nil {
		return
	}
	s.sessions.Destroy(sess)
}

// burnVerify spends one hash evaluation so an unknown email costs about as
// much time as a wrong password.
func (s *Service) burnVerify(password string) {
	s.decoyOnce.Do(func() {
		digest, err := s.hasher.Hash("decoy-password")
		if err == nil {
			s.decoy = digest
		}
	})
	if s.decoy != "" {
		_, _ = s.hasher.Verify(password, s.decoy)
	}
}
