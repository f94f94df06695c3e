package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserServiceGetAndList(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	alice, err := f.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, RegisterInput{Name: "Bob Smith", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	got, err := f.users.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = f.users.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.Equal(t, "bob@example.com", users[1].Email)
}

func TestUserServiceUpdate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	alice, err := f.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, RegisterInput{Name: "Bob Smith", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	updated, err := f.users.Update(ctx, alice.ID, UpdateInput{Name: strPtr("Alice Liddell"), Password: strPtr("newsecret1")})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	_, err = f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredential, "old password no longer works")
	_, err = f.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "newsecret1"})
	assert.NoError(t, err)

	_, err = f.users.Update(ctx, alice.ID, UpdateInput{Email: strPtr("BOB@example.com")})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = f.users.Update(ctx, 404, UpdateInput{Name: strPtr("Nobody")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.users.Update(ctx, alice.ID, UpdateInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserServiceDelete(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	alice, err := f.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, alice.ID))
	assert.ErrorIs(t, f.users.Delete(ctx, alice.ID), ErrNotFound)

	events := f.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, EventUserDeleted, events[1].Type)
	assert.Equal(t, alice.ID, events[1].UserID)
}
