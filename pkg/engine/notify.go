package engine

import (
	"log/slog"
	"sync"
	"time"
)

// maxNotifications bounds the queue when nobody drains it.
const maxNotifications = 50

// Notification is a non-blocking message for the user.
type Notification struct {
	ID      int       `json:"id"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

type notifications struct {
	mu      sync.Mutex
	nextID  int
	pending []Notification
}

func newNotifications() *notifications {
	return &notifications{nextID: 1}
}

// Notify implements enhance.Notifier.
func (n *notifications) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	slog.Info("[Engine] notification", "message", msg)
	n.pending = append(n.pending, Notification{ID: n.nextID, Time: time.Now(), Message: msg})
	n.nextID++
	if len(n.pending) > maxNotifications {
		n.pending = n.pending[len(n.pending)-maxNotifications:]
	}
}

func (n *notifications) drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}
