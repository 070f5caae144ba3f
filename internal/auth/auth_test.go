package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	raw, exp, err := m.Issue(42, "leo")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, "leo", claims.Username)
}

func TestTokenRejected(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	raw, _, err := m.Issue(1, "leo")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(1, "leo")
	require.NoError(t, err)
	_, err = m.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestContextUser(t *testing.T) {
	ctx := context.Background()
	_, ok := UserFrom(ctx)
	assert.False(t, ok)
	assert.Zero(t, UserID(ctx))

	ctx = WithUser(ctx, &model.User{ID: 3, Username: "leo"})
	u, ok := UserFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "leo", u.Username)
	assert.EqualValues(t, 3, UserID(ctx))

	_, ok = UserFrom(WithUser(context.Background(), nil))
	assert.False(t, ok)
}
