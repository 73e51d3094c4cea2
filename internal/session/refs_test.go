package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefsRoundTrip(t *testing.T) {
	r := NewRefs(time.Minute, 10)

	key := r.Mint(user, "https://youtu.be/a")
	assert.NotEmpty(t, key)

	got, err := r.Resolve(user, key)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/a", got)

	_, err = r.Resolve(user, key)
	assert.ErrorIs(t, err, ErrRefNotFound)
}

func TestRefsRejectOtherUser(t *testing.T) {
	r := NewRefs(time.Minute, 10)
	key := r.Mint(user, "https://youtu.be/a")

	_, err := r.Resolve(user+1, key)
	assert.ErrorIs(t, err, ErrRefForeign)

	got, err := r.Resolve(user, key)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/a", got)
}

func TestRefsExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRefs(time.Minute, 10)
	r.now = func() time.Time { return now }

	key := r.Mint(user, "https://youtu.be/a")
	now = now.Add(2 * time.Minute)

	_, err := r.Resolve(user, key)
	assert.ErrorIs(t, err, ErrRefNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestRefsEvictOldest(t *testing.T) {
	r := NewRefs(time.Minute, 2)

	first := r.Mint(user, "https://youtu.be/1")
	r.Mint(user, "https://youtu.be/2")
	r.Mint(user, "https://youtu.be/3")

	assert.Equal(t, 2, r.Len())
	_, err := r.Resolve(user, first)
	assert.ErrorIs(t, err, ErrRefNotFound)
}
