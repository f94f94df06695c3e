package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jjudge-oj/authsvc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) types.User {
	return types.User{Name: "Test User", Email: email, PasswordHash: "$2a$10$hash"}
}

func TestMemoryCreateAssignsIncreasingIDs(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, newUser("a@example.com"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, newUser("b@example.com"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	require.NoError(t, repo.Delete(ctx, second.ID))
	third, err := repo.Create(ctx, newUser("c@example.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID, "ids are never reused")
}

func TestMemoryCreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("test@example.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("TEST@example.com "))
	assert.ErrorIs(t, err, ErrDuplicate)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryConcurrentCreateSameEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	const attempts = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newUser("race@example.com"))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrDuplicate)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryLookups(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("test@example.com"))
	require.NoError(t, err)

	byEmail, err := repo.GetByEmail(ctx, "Test@Example.com")
	require.NoError(t, err)
	assert.Equal(t, created, byEmail)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdate(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	alice, err := repo.Create(ctx, newUser("alice@example.com"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newUser("bob@example.com"))
	require.NoError(t, err)

	name := "Alice"
	email := "alice@new.example.com"
	updated, err := repo.Update(ctx, alice.ID, types.UserPatch{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, alice.PasswordHash, updated.PasswordHash)
	assert.Equal(t, alice.CreatedAt, updated.CreatedAt)

	_, err = repo.GetByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrNotFound, "old email is released")
	_, err = repo.GetByEmail(ctx, email)
	assert.NoError(t, err)

	taken := "bob@example.com"
	_, err = repo.Update(ctx, alice.ID, types.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicate)

	same := email
	_, err = repo.Update(ctx, alice.ID, types.UserPatch{Email: &same})
	assert.NoError(t, err, "keeping your own email is not a conflict")

	_, err = repo.Update(ctx, 42, types.UserPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdateEmptyPatchChangesNothing(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	alice, err := repo.Create(ctx, newUser("alice@example.com"))
	require.NoError(t, err)
	repo.now = func() time.Time { return alice.UpdatedAt.Add(time.Hour) }

	got, err := repo.Update(ctx, alice.ID, types.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, alice.UpdatedAt, got.UpdatedAt)

	_, err = repo.Update(ctx, 42, types.UserPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Create(ctx, newUser("test@example.com"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), ErrNotFound)

	_, err = repo.GetByEmail(ctx, "test@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Create(ctx, newUser("test@example.com"))
	assert.NoError(t, err, "email is free again after delete")
}

func TestMemoryListOmitsHashAndIsOrdered(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, newUser(fmt.Sprintf("user%d@example.com", i)))
		require.NoError(t, err)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 5)
	for i, user := range users {
		assert.Equal(t, int64(i+1), user.ID)
	}
}
