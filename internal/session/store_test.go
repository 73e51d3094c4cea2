package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediabot/internal/classifier"
	"mediabot/internal/models"
)

const user models.UserID = 42

func newStore(capacity int) *Store {
	return NewStore(classifier.NewDefault(), capacity, models.QualityBest)
}

func TestAddURLsRequiresBulk(t *testing.T) {
	s := newStore(50)

	_, err := s.AddURLs(user, []string{"https://youtu.be/a"})
	assert.ErrorIs(t, err, ErrNotCollecting)
	assert.False(t, s.IsCollecting(user))
}

func TestDrainPreservesOrder(t *testing.T) {
	s := newStore(50)
	s.BeginBulk(user)

	urls := []string{"https://youtu.be/a", "https://vimeo.com/1", "https://x.com/u/status/2"}
	res, err := s.AddURLs(user, urls)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Accepted)
	assert.Equal(t, 3, res.Total)

	assert.Equal(t, urls, s.DrainBulk(user))
	assert.False(t, s.IsCollecting(user))
	assert.Empty(t, s.DrainBulk(user))
}

func TestAddURLsSkipsUnsupported(t *testing.T) {
	s := newStore(50)
	s.BeginBulk(user)

	res, err := s.AddURLs(user, []string{"https://netflix.com/x", "https://youtu.be/a"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 1, res.Unsupported)
	assert.NoError(t, res.Err())
	assert.Equal(t, []string{"https://youtu.be/a"}, s.DrainBulk(user))
}

func TestCapacityBound(t *testing.T) {
	s := newStore(3)
	s.BeginBulk(user)

	_, err := s.AddURLs(user, []string{"https://youtu.be/1", "https://youtu.be/2"})
	require.NoError(t, err)

	res, err := s.AddURLs(user, []string{"https://youtu.be/3", "https://youtu.be/4", "https://youtu.be/5"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 2, res.OverCapacity)
	assert.Equal(t, 3, res.Total)
	assert.ErrorIs(t, res.Err(), models.ErrCapacityExceeded)
	assert.Equal(t, []string{"https://youtu.be/1", "https://youtu.be/2", "https://youtu.be/3"}, s.DrainBulk(user))
}

func TestBeginBulkResets(t *testing.T) {
	s := newStore(50)
	s.BeginBulk(user)
	_, err := s.AddURLs(user, []string{"https://youtu.be/1"})
	require.NoError(t, err)

	s.BeginBulk(user)

	assert.Empty(t, s.Session(user).PendingURLs)
	assert.Equal(t, models.ModeCollecting, s.Session(user).Mode)
}

func TestCancelKeepsQuality(t *testing.T) {
	s := newStore(50)
	s.SetQuality(user, models.Quality480)
	s.BeginBulk(user)
	s.SetListing(user, []models.ChannelEntry{{ID: "a"}})

	s.Cancel(user)

	assert.False(t, s.IsCollecting(user))
	_, ok := s.Listing(user)
	assert.False(t, ok)
	assert.Equal(t, models.Quality480, s.Quality(user))
	assert.Equal(t, models.ModeIdle, s.Session(user).Mode)
}

func TestDefaultQuality(t *testing.T) {
	s := NewStore(classifier.NewDefault(), 50, models.Quality720)

	assert.Equal(t, models.Quality720, s.Quality(7))
}

func TestListings(t *testing.T) {
	s := newStore(50)
	entries := []models.ChannelEntry{{ID: "a", URL: "https://youtu.be/a"}}

	s.SetListing(user, entries)
	got, ok := s.Listing(user)
	require.True(t, ok)
	assert.Equal(t, entries, got)

	s.DropListing(user)
	_, ok = s.Listing(user)
	assert.False(t, ok)
}

func TestConcurrentAdds(t *testing.T) {
	s := newStore(50)
	s.BeginBulk(user)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.AddURLs(user, []string{fmt.Sprintf("https://youtu.be/%d", i)})
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.DrainBulk(user), 50)
	assert.Equal(t, 0, s.ActiveSessions())
}
