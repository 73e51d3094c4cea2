package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediabot/internal/models"
)

var (
	ErrRefNotFound = errors.New("reference not found or expired")
	ErrRefForeign  = errors.New("reference belongs to another user")
)

type refEntry struct {
	url       string
	owner     models.UserID
	expiresAt time.Time
}

// Refs maps short opaque keys to links so button payloads stay small.
// Keys are single-use.
type Refs struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu    sync.Mutex
	items map[string]refEntry
	order []string
}

func NewRefs(ttl time.Duration, capacity int) *Refs {
	return &Refs{
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		items:    make(map[string]refEntry),
	}
}

func (r *Refs) Mint(owner models.UserID, url string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	for len(r.order) >= r.capacity && len(r.order) > 0 {
		delete(r.items, r.order[0])
		r.order = r.order[1:]
	}

	key := uuid.New().String()
	r.items[key] = refEntry{url: url, owner: owner, expiresAt: r.now().Add(r.ttl)}
	r.order = append(r.order, key)

	return key
}

// Resolve returns the link bound to key and consumes it.
// A key presented by another user is left in place.
func (r *Refs) Resolve(owner models.UserID, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[key]
	if !ok || r.now().After(e.expiresAt) {
		r.removeLocked(key)
		return "", ErrRefNotFound
	}

	if e.owner != owner {
		return "", ErrRefForeign
	}

	r.removeLocked(key)

	return e.url, nil
}

func (r *Refs) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.items)
}

func (r *Refs) pruneLocked() {
	now := r.now()

	kept := r.order[:0]
	for _, k := range r.order {
		if now.After(r.items[k].expiresAt) {
			delete(r.items, k)
			continue
		}
		kept = append(kept, k)
	}
	r.order = kept
}

func (r *Refs) removeLocked(key string) {
	if _, ok := r.items[key]; !ok {
		return
	}

	delete(r.items, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
