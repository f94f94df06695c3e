package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jjudge-oj/authsvc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func testUser() types.User {
	return types.User{ID: 7, Email: "test@example.com", Name: "Test User"}
}

func TestIssueThenVerifyRoundTripsClaims(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	svc := NewService(testSecret, time.Hour, WithClock(clock.Now))

	signed, expiresAt, err := svc.Issue(testUser())
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(time.Hour), expiresAt)
	assert.Len(t, strings.Split(signed, "."), 3)

	identity, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.Subject)
	assert.Equal(t, "test@example.com", identity.Email)
	assert.Equal(t, "Test User", identity.Name)
	assert.NotEmpty(t, identity.TokenID)
	assert.True(t, identity.IssuedAt.Equal(clock.now))
	assert.True(t, identity.ExpiresAt.Equal(expiresAt))
}

func TestTokensHaveDistinctIDs(t *testing.T) {
	svc := NewService(testSecret, time.Hour)

	first, _, err := svc.Issue(testUser())
	require.NoError(t, err)
	second, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	a, err := svc.Verify(first)
	require.NoError(t, err)
	b, err := svc.Verify(second)
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestVerifyExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	svc := NewService(testSecret, time.Hour, WithClock(clock.Now))

	signed, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	clock.now = clock.now.Add(59 * time.Minute)
	_, err = svc.Verify(signed)
	require.NoError(t, err, "token must verify before expiry")

	clock.now = clock.now.Add(time.Minute)
	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrExpired)

	clock.now = clock.now.Add(24 * time.Hour)
	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejections(t *testing.T) {
	svc := NewService(testSecret, time.Hour)
	signed, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	other := NewService("another-secret-of-sufficient-len", time.Hour)
	foreign, _, err := other.Issue(testUser())
	require.NoError(t, err)

	otherIssuer := NewService(testSecret, time.Hour, WithIssuer("someone-else"))
	wrongIssuer, _, err := otherIssuer.Issue(testUser())
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	forgedPayload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"8","iss":"authsvc","exp":4102444800}`))
	tampered := parts[0] + "." + forgedPayload + "." + parts[2]

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissing},
		{"whitespace", "   ", ErrMissing},
		{"not a jwt", "not-a-token", ErrMissing},
		{"two segments", "abc.def", ErrMissing},
		{"garbage segments", "a.b.c", ErrMissing},
		{"wrong secret", foreign, ErrInvalid},
		{"wrong issuer", wrongIssuer, ErrInvalid},
		{"tampered payload", tampered, ErrInvalid},
		{"bad signature", parts[0] + "." + parts[1] + ".c2lnbmF0dXJl", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	svc := NewService(testSecret, time.Hour)
	claims := Claims{
		Email: "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	svc := NewService(testSecret, time.Hour)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: defaultIssuer, Subject: "7"},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsBadSubject(t *testing.T) {
	svc := NewService(testSecret, time.Hour)
	for _, subject := range []string{"", "abc", "0", "-3"} {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    defaultIssuer,
				Subject:   subject,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalid, "subject %q", subject)
	}
}

func TestForgedExpiredTokenIsInvalid(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	forger := NewService("another-secret-of-sufficient-len", time.Hour, WithClock(func() time.Time { return past }))
	forged, _, err := forger.Issue(testUser())
	require.NoError(t, err)

	_, err = NewService(testSecret, time.Hour).Verify(forged)
	assert.ErrorIs(t, err, ErrInvalid)
}
