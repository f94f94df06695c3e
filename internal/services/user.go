package services

import (
	"context"
	"errors"
	"time"

	"github.com/jjudge-oj/authsvc/internal/mq"
	"github.com/jjudge-oj/authsvc/internal/store"
	"github.com/jjudge-oj/authsvc/types"
)

// UserRepository defines persistence operations for users. Create must
// reject a taken email with store.ErrDuplicate atomically; GetByID, Update
// and Delete return store.ErrNotFound for unknown ids.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id int64, patch types.UserPatch) (types.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]types.PublicUser, error)
	Count(ctx context.Context) (int, error)
}

// UserService encapsulates directory administration use-cases.
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
	events EventPublisher
	now    func() time.Time
}

func NewUserService(repo UserRepository, hasher PasswordHasher, events EventPublisher) *UserService {
	return &UserService{repo: repo, hasher: hasher, events: events, now: time.Now}
}

func (s *UserService) List(ctx context.Context) ([]types.PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError("failed to list users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (types.PublicUser, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.PublicUser{}, mapLookupError(err, "failed to load user")
	}
	return user.Public(), nil
}

// Update applies a partial update. A new password is hashed before storage.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateInput) (types.PublicUser, error) {
	in, err := in.Validate()
	if err != nil {
		return types.PublicUser{}, err
	}

	patch := types.UserPatch{Name: in.Name, Email: in.Email}
	if in.Password != nil {
		hashed, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return types.PublicUser{}, internalError("failed to hash password", err)
		}
		patch.PasswordHash = &hashed
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.PublicUser{}, ErrDuplicateIdentity
		}
		return types.PublicUser{}, mapLookupError(err, "failed to update user")
	}
	return user.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapLookupError(err, "failed to load user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err, "failed to delete user")
	}

	publish(ctx, s.events, mq.Event{
		Type:       EventUserDeleted,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, internalError("failed to count users", err)
	}
	return count, nil
}

func mapLookupError(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return internalError(op, err)
}
