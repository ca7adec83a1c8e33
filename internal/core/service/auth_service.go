package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/core/ports"
)

// AuthService implements registration and login on top of the directory.
type AuthService struct {
	dir ports.Directory
	log zerolog.Logger
}

func NewAuthService(dir ports.Directory, log zerolog.Logger) *AuthService {
	return &AuthService{dir: dir, log: log}
}

// Register creates a new account with the lowest built-in role.
//
// The username and email uniqueness checks run concurrently and are reported
// independently: a taken username and a taken email are distinct failures.
// The account record and the email index record are written as a pair, but
// the directory offers no multi-key transaction — if the second write fails
// the first is not rolled back. The partial failure is surfaced to the
// caller; reconciliation is a known gap.
//
// The duplicate checks are one-shot reads, not reservations: two concurrent
// registrations racing the same key can both pass the check and the later
// write wins. Accepted limitation of the storage model.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return domain.Identity{}, domain.ErrValidation
	}

	userKey := domain.UserKey(username)
	emailKey := domain.EmailKey(email)
	if userKey == "" {
		return domain.Identity{}, domain.ErrValidation
	}

	var userSnap, emailSnap ports.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userSnap, err = s.dir.Get(gctx, ports.UserPath(userKey))
		return err
	})
	g.Go(func() error {
		var err error
		emailSnap, err = s.dir.Get(gctx, ports.EmailPath(emailKey))
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Str("user_key", userKey).Msg("registration lookup failed")
		return domain.Identity{}, err
	}

	if userSnap.Exists {
		return domain.Identity{}, domain.ErrDuplicateUsername
	}
	if emailSnap.Exists {
		return domain.Identity{}, domain.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: domain.HashPassword(password),
		Role:         domain.RoleOrder[0],
		Roles:        []string{domain.RoleOrder[0]},
		CreatedAt:    now,
	}

	if err := s.dir.Set(ctx, ports.UserPath(userKey), domain.AccountRecord(account)); err != nil {
		s.log.Error().Err(err).Str("user_key", userKey).Msg("account write failed")
		return domain.Identity{}, err
	}
	index := &domain.EmailIndex{Username: username, UsernameKey: userKey, CreatedAt: now}
	if err := s.dir.Set(ctx, ports.EmailPath(emailKey), domain.EmailIndexRecord(index)); err != nil {
		// The account record is already in place with no email index.
		s.log.Error().Err(err).Str("user_key", userKey).Msg("email index write failed after account write")
		return domain.Identity{}, err
	}

	s.log.Info().Str("user_key", userKey).Msg("account registered")
	return domain.IdentityFromAccount(userKey, account), nil
}

// Login verifies credentials and returns the identity to establish a session
// with. Unknown users and bad passwords are distinct errors internally; the
// API layer keeps the user-facing messaging equally terse for both.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Identity{}, domain.ErrValidation
	}

	userKey := domain.UserKey(username)
	snap, err := s.dir.Get(ctx, ports.UserPath(userKey))
	if err != nil {
		s.log.Error().Err(err).Str("user_key", userKey).Msg("login lookup failed")
		return domain.Identity{}, err
	}
	if !snap.Exists {
		return domain.Identity{}, domain.ErrUnknownUser
	}

	account := domain.AccountFromRecord(snap.Value)
	if account.PasswordHash != domain.HashPassword(password) {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	s.log.Info().Str("user_key", userKey).Msg("login succeeded")
	return domain.IdentityFromAccount(userKey, account), nil
}
