package dispatcher

import (
	"sync"

	"mediabot/internal/models"
)

type userQueue struct {
	tail    chan struct{}
	pending int
}

// turns orders the events of one user: each turn waits for the previous one to finish.
// The entry is forgotten once no turn is pending.
type turns struct {
	mu     sync.Mutex
	queues map[models.UserID]*userQueue
}

func newTurns() *turns {
	return &turns{queues: make(map[models.UserID]*userQueue)}
}

type turn struct {
	prev    <-chan struct{}
	release func()
}

// wait blocks until every earlier turn of the same user has been released.
func (t turn) wait() {
	if t.prev != nil {
		<-t.prev
	}
}

// Reserve takes the next place in line for user. Order of Reserve calls is the handling order.
func (t *turns) Reserve(user models.UserID) turn {
	done := make(chan struct{})

	t.mu.Lock()
	q, ok := t.queues[user]
	if !ok {
		q = &userQueue{}
		t.queues[user] = q
	}
	prev := q.tail
	q.tail = done
	q.pending++
	t.mu.Unlock()

	return turn{
		prev: prev,
		release: func() {
			close(done)

			t.mu.Lock()
			q.pending--
			if q.pending == 0 {
				delete(t.queues, user)
			}
			t.mu.Unlock()
		},
	}
}

func (t *turns) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.queues)
}
