package services

import (
	"context"
	"errors"
	"time"

	"github.com/jjudge-oj/authsvc/internal/mq"
	"github.com/jjudge-oj/authsvc/internal/store"
	"github.com/jjudge-oj/authsvc/types"
	"github.com/rs/zerolog/log"
)

const (
	EventUserRegistered         = "user.registered"
	EventUserDeleted            = "user.deleted"
	EventPasswordResetRequested = "user.password_reset_requested"
)

// PasswordHasher turns plaintext passwords into stored hashes and back.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(plaintext, storedHash string) bool
	// VerifyDummy burns the same work as Verify and always fails. It keeps
	// unknown-email logins as slow as wrong-password logins.
	VerifyDummy(plaintext string) bool
	NeedsRehash(storedHash string) bool
}

// TokenIssuer mints signed access tokens for a user.
type TokenIssuer interface {
	Issue(user types.User) (string, time.Time, error)
}

// EventPublisher receives account lifecycle events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event mq.Event) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        types.PublicUser
}

// AuthService owns registration, login and profile lookups.
type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	issuer TokenIssuer
	events EventPublisher
	now    func() time.Time
}

// NewAuthService wires the orchestrator. events may be nil.
func NewAuthService(users UserRepository, hasher PasswordHasher, issuer TokenIssuer, events EventPublisher) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		events: events,
		now:    time.Now,
	}
}

// Register creates an account and returns its stripped view.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.PublicUser, error) {
	in, err := in.Validate()
	if err != nil {
		return types.PublicUser{}, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return types.PublicUser{}, ErrDuplicateIdentity
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.PublicUser{}, internalError("failed to check user", err)
	}

	hashed, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return types.PublicUser{}, internalError("failed to hash password", err)
	}

	// A concurrent registration can win between the lookup above and this
	// insert; the directory rejects it atomically.
	user, err := s.users.Create(ctx, types.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.PublicUser{}, ErrDuplicateIdentity
		}
		return types.PublicUser{}, internalError("failed to create user", err)
	}

	publish(ctx, s.events, mq.Event{
		Type:       EventUserRegistered,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	return user.Public(), nil
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords fail with the same ErrInvalidCredential.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in, err := in.Validate()
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyDummy(in.Password)
			return LoginResult{}, ErrInvalidCredential
		}
		return LoginResult{}, internalError("failed to authenticate", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredential
	}
	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, in.Password)
	}

	accessToken, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return LoginResult{}, internalError("failed to create token", err)
	}

	return LoginResult{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        user.Public(),
	}, nil
}

// upgradeHash re-hashes a verified password at the current cost. Failure
// leaves the old hash in place.
func (s *AuthService) upgradeHash(ctx context.Context, id int64, plaintext string) {
	hashed, err := s.hasher.Hash(ctx, plaintext)
	if err == nil {
		_, err = s.users.Update(ctx, id, types.UserPatch{PasswordHash: &hashed})
	}
	if err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("Failed to upgrade password hash")
	}
}

// Profile loads the live record behind a verified identity. A token for a
// deleted account is treated as an invalid credential.
func (s *AuthService) Profile(ctx context.Context, identity types.Identity) (types.PublicUser, error) {
	user, err := s.users.GetByID(ctx, identity.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicUser{}, ErrInvalidCredential
		}
		return types.PublicUser{}, internalError("failed to load user", err)
	}
	return user.Public(), nil
}

// RequestPasswordReset is a stub: it announces the request for registered
// emails and reports nothing either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if msg := checkEmail(email); msg != "" {
		return invalidInput(map[string]string{"email": msg})
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return internalError("failed to look up user", err)
	}

	publish(ctx, s.events, mq.Event{
		Type:       EventPasswordResetRequested,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// publish is best effort; a broker outage never fails the request.
func publish(ctx context.Context, events EventPublisher, event mq.Event) {
	if events == nil {
		return
	}
	if err := events.PublishEvent(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Int64("user_id", event.UserID).Msg("Failed to publish account event")
	}
}
