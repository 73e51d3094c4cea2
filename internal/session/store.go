package session

import (
	"errors"
	"sync"

	"mediabot/internal/models"
)

var ErrNotCollecting = errors.New("no bulk session in progress")

// Classifier decides whether a link may enter a bulk session.
type Classifier interface {
	Classify(rawURL string) models.Platform
}

// Store keeps per-user interaction state in memory. Nothing survives a restart.
type Store struct {
	classifier Classifier
	capacity   int
	defaultQ   models.Quality

	mu       sync.RWMutex
	bulk     map[models.UserID][]string
	quality  map[models.UserID]models.Quality
	listings map[models.UserID][]models.ChannelEntry
}

func NewStore(c Classifier, capacity int, defaultQuality models.Quality) *Store {
	if defaultQuality == "" {
		defaultQuality = models.QualityBest
	}

	return &Store{
		classifier: c,
		capacity:   capacity,
		defaultQ:   defaultQuality,
		bulk:       make(map[models.UserID][]string),
		quality:    make(map[models.UserID]models.Quality),
		listings:   make(map[models.UserID][]models.ChannelEntry),
	}
}

func (s *Store) Capacity() int {
	return s.capacity
}

// BeginBulk starts a fresh collection, discarding any previous pending list.
func (s *Store) BeginBulk(user models.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bulk[user] = make([]string, 0, s.capacity)
}

// AddURLs appends supported links in input order until the session is full.
// Links past capacity are counted in OverCapacity and dropped.
func (s *Store) AddURLs(user models.UserID, urls []string) (models.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.bulk[user]
	if !ok {
		return models.AddResult{}, ErrNotCollecting
	}

	var res models.AddResult

	for _, u := range urls {
		if !s.classifier.Classify(u).Supported() {
			res.Unsupported++
			continue
		}

		if len(pending) >= s.capacity {
			res.OverCapacity++
			continue
		}

		pending = append(pending, u)
		res.Accepted++
	}

	s.bulk[user] = pending
	res.Total = len(pending)

	return res, nil
}

// DrainBulk returns the pending links and ends the session.
func (s *Store) DrainBulk(user models.UserID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.bulk[user]
	delete(s.bulk, user)

	return pending
}

func (s *Store) Cancel(user models.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bulk, user)
	delete(s.listings, user)
}

func (s *Store) IsCollecting(user models.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bulk[user]

	return ok
}

// Session returns a snapshot of the user's state.
func (s *Store) Session(user models.UserID) models.UserSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := models.UserSession{Mode: models.ModeIdle, Quality: s.qualityLocked(user)}

	if pending, ok := s.bulk[user]; ok {
		sess.Mode = models.ModeCollecting
		sess.PendingURLs = append([]string(nil), pending...)
	}

	return sess
}

// ActiveSessions counts users currently collecting links.
func (s *Store) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bulk)
}

func (s *Store) SetQuality(user models.UserID, q models.Quality) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quality[user] = q
}

func (s *Store) Quality(user models.UserID) models.Quality {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.qualityLocked(user)
}

func (s *Store) qualityLocked(user models.UserID) models.Quality {
	if q, ok := s.quality[user]; ok {
		return q
	}

	return s.defaultQ
}

func (s *Store) SetListing(user models.UserID, entries []models.ChannelEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings[user] = entries
}

func (s *Store) Listing(user models.UserID) ([]models.ChannelEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.listings[user]

	return entries, ok
}

func (s *Store) DropListing(user models.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listings, user)
}
