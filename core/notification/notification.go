package notification

import (
	"fmt"
	"sync"
	"time"
)

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
	TypeRequest Type = "request"
)

// Notification is one in-memory entry of the notifications screen. Request entries carry the
// requesting student so they can be confirmed or rejected.
type Notification struct {
	ID           string
	Message      string
	Timestamp    time.Time
	Type         Type
	Read         bool
	StudentID    string
	StudentName  string
	StudentEmail string
	Day          string
}

// IsPendingRequest reports whether n still awaits a confirm/reject decision.
func (n Notification) IsPendingRequest() bool {
	return n.Type == TypeRequest
}

// Filter selects notifications by type (empty means all) and read state.
type Filter struct {
	Type       Type
	UnreadOnly bool
}

func (f Filter) match(n Notification) bool {
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	return !f.UnreadOnly || !n.Read
}

// List is an ordered, newest-first, concurrency-safe set of notifications keyed by ID.
type List struct {
	mu    sync.RWMutex
	items []Notification
}

func NewList(items ...Notification) *List {
	l := &List{}
	for i := len(items) - 1; i >= 0; i-- {
		l.Prepend(items[i])
	}
	return l
}

// Prepend inserts n at the top of the list. It returns false, leaving the list untouched,
// when an entry with the same ID already exists.
func (l *List) Prepend(n Notification) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexLocked(n.ID) >= 0 {
		return false
	}
	l.items = append([]Notification{n}, l.items...)
	return true
}

// Update applies fn to the entry with the given ID.
func (l *List) Update(id string, fn func(n *Notification)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return false
	}
	fn(&l.items[i])
	return true
}

func (l *List) Get(id string) (Notification, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexLocked(id)
	if i < 0 {
		return Notification{}, false
	}
	return l.items[i], true
}

func (l *List) MarkAsRead(id string) bool {
	return l.Update(id, func(n *Notification) { n.Read = true })
}

func (l *List) MarkAllAsRead() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		l.items[i].Read = true
	}
}

func (l *List) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

// All returns a copy of every entry, newest first.
func (l *List) All() []Notification {
	return l.Filter(Filter{})
}

func (l *List) Filter(f Filter) []Notification {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res := make([]Notification, 0, len(l.items))
	for _, n := range l.items {
		if f.match(n) {
			res = append(res, n)
		}
	}
	return res
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *List) UnreadCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, n := range l.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (l *List) indexLocked(id string) int {
	for i, n := range l.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Summary is the footer shown under the list.
func Summary(shown, total int) string {
	if shown == 0 {
		return "No notifications"
	}
	return fmt.Sprintf("Showing %d of %d notifications", shown, total)
}
