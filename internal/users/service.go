package users

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/shared"
)

// Notifier delivers account notifications to a user.
type Notifier interface {
	Push(ctx context.Context, recipientID int64, title, description string) error
}

// Service implements user administration on top of the identity store.
type Service struct {
	repo      Repository
	hasher    *auth.Hasher
	guard     *auth.Guard
	notifier  Notifier
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, hasher *auth.Hasher, guard *auth.Guard, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		hasher:    hasher,
		guard:     guard,
		notifier:  notifier,
		validator: newValidator(),
		logger:    logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// The stock email rule rejects single-label hosts like localhost.
	_ = v.RegisterValidation("account_email", func(fl validator.FieldLevel) bool {
		return shared.ValidEmail(fl.Field().String())
	})
	return v
}

// Create registers a user. Requires Moderate.
func (s *Service) Create(ctx context.Context, actor auth.Identity, in CreateInput) (User, error) {
	if err := s.guard.Require(ctx, actor, shared.PermModerate); err != nil {
		return User{}, err
	}
	in.Username = shared.NormalizeUsername(in.Username)
	in.Email = shared.NormalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return User{}, shared.Validationf("user: %v", err)
	}
	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}
	row, err := s.repo.Insert(ctx, ToRow(User{Username: in.Username, Email: in.Email}, digest))
	if err != nil {
		return User{}, err
	}
	s.logger.Info("users: created", slog.String("actor", actor.String()), slog.Int64("user_id", row.ID))
	return ToUser(row), nil
}

// Get returns one user. Requires an authenticated actor.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id int64) (User, error) {
	if _, err := s.guard.RequireAuthenticated(actor); err != nil {
		return User{}, err
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	return ToUser(row), nil
}

// List returns every user. Requires an authenticated actor.
func (s *Service) List(ctx context.Context, actor auth.Identity) ([]User, error) {
	if _, err := s.guard.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToUser(row))
	}
	return out, nil
}

// Update changes a profile. The actor may edit themself; editing anyone else
// requires Moderate. Username and email changes notify the affected user
// before the write; a failed notification is logged and the update proceeds.
// The password is re-hashed only when a new one is given that does not
// already match.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id int64, in UpdateInput) (User, error) {
	if err := s.guard.RequireSelfOr(ctx, actor, id, shared.PermModerate); err != nil {
		return User{}, err
	}
	if in.Username != "" {
		in.Username = shared.NormalizeUsername(in.Username)
	}
	if in.Email != "" {
		in.Email = shared.NormalizeEmail(in.Email)
	}
	if err := s.validator.Struct(in); err != nil {
		return User{}, shared.Validationf("user: %v", err)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	next := current
	if in.Username != "" {
		next.Username = in.Username
	}
	if in.Email != "" {
		next.Email = in.Email
	}
	if in.Password != "" {
		same, err := s.hasher.Verify(in.Password, current.PasswordHash)
		if err != nil {
			return User{}, err
		}
		if !same {
			if next.PasswordHash, err = s.hasher.Hash(in.Password); err != nil {
				return User{}, err
			}
		}
	}
	if next == current {
		return ToUser(current), nil
	}

	if next.Username != current.Username {
		s.notify(ctx, id, usernameChangedTitle, usernameChangedDescription(current.Username, next.Username))
	}
	if next.Email != current.Email {
		s.notify(ctx, id, emailChangedTitle, emailChangedDescription(current.Email, next.Email))
	}

	saved, err := s.repo.Update(ctx, next)
	if err != nil {
		return User{}, err
	}
	s.logger.Info("users: updated",
		slog.String("actor", actor.String()),
		slog.Int64("user_id", id),
		slog.Bool("password_changed", saved.PasswordHash != current.PasswordHash),
	)
	return ToUser(saved), nil
}

// Delete removes a user and returns it. Self-or-Moderate.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id int64) (User, error) {
	if err := s.guard.RequireSelfOr(ctx, actor, id, shared.PermModerate); err != nil {
		return User{}, err
	}
	row, err := s.repo.Delete(ctx, id)
	if err != nil {
		return User{}, err
	}
	s.logger.Info("users: deleted", slog.String("actor", actor.String()), slog.Int64("user_id", id))
	return ToUser(row), nil
}

func (s *Service) notify(ctx context.Context, recipientID int64, title, description string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, recipientID, title, description); err != nil {
		s.logger.Warn("users: notification push failed",
			slog.Int64("user_id", recipientID),
			slog.String("title", title),
			slog.Any("error", err),
		)
	}
}
