package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jjudge-oj/authsvc/types"
)

// MemoryUserRepository keeps users in process memory. One mutex covers both
// maps, so the email uniqueness check and the insert happen as a unit.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[int64]types.User
	byEmail map[string]int64
	lastID  int64
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[int64]types.User),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(user.Email)
	if _, exists := r.byEmail[key]; exists {
		return types.User{}, ErrDuplicate
	}

	r.lastID++
	now := r.now()
	user.ID = r.lastID
	user.Email = key
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = user
	r.byEmail[key] = user.ID
	return user, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, id int64, patch types.UserPatch) (types.User, error) {
	if err := ctx.Err(); err != nil {
		return types.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	if patch.Empty() {
		return user, nil
	}

	oldKey := emailKey(user.Email)
	if patch.Email != nil {
		newKey := emailKey(*patch.Email)
		if owner, exists := r.byEmail[newKey]; exists && owner != user.ID {
			return types.User{}, ErrDuplicate
		}
		user.Email = newKey
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	user.UpdatedAt = r.now()

	if newKey := emailKey(user.Email); newKey != oldKey {
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = user.ID
	}
	r.byID[user.ID] = user
	return user, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, user.ID)
	delete(r.byEmail, emailKey(user.Email))
	return nil
}

// List returns every user in id order, without password hashes.
func (r *MemoryUserRepository) List(ctx context.Context) ([]types.PublicUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]types.PublicUser, 0, len(r.byID))
	for _, user := range r.byID {
		users = append(users, user.Public())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func emailKey(email string) string {
	return normalizeEmail(email)
}
