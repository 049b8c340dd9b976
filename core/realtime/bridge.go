package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
)

type State int

const (
	Unsubscribed State = iota
	Subscribed
)

func (s State) String() string {
	if s == Subscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

type (
	Handler func(evt Event)

	Subscription interface {
		Close() error
	}

	// Subscriber opens a live feed of channels; handler is called from the feed's goroutine.
	Subscriber interface {
		Subscribe(ctx context.Context, channels []string, handler Handler) (Subscription, error)
	}

	// Bridge keeps at most one live subscription for a view and forwards the events its filter
	// accepts. Handlers are never called once the subscription has been torn down.
	Bridge struct {
		sub    Subscriber
		logger core.Logger

		mu       sync.Mutex
		state    State
		gen      uint64
		userID   string
		teardown func()
	}
)

func NewBridge(sub Subscriber, logger core.Logger) *Bridge {
	return &Bridge{sub: sub, logger: logger}
}

// Watch subscribes to the documents channel on behalf of userID, closing any previous
// subscription first. The returned func tears the new subscription down; it is safe to call
// more than once.
func (b *Bridge) Watch(ctx context.Context, userID string, filter Filter, handler Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()

	var active int32 = 1
	s, err := b.sub.Subscribe(ctx, []string{ChannelDocuments}, func(evt Event) {
		if atomic.LoadInt32(&active) == 0 || !filter(evt) {
			return
		}
		handler(evt)
	})
	if err != nil {
		return func() {}, errors.Wrap(err, "subscribing to documents")
	}

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			atomic.StoreInt32(&active, 0)
			if err := s.Close(); err != nil {
				b.logger.Warn("closing realtime subscription", err)
			}
		})
	}
	b.gen++
	gen := b.gen
	b.state = Subscribed
	b.userID = userID
	b.teardown = teardown

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		// a newer Watch owns the state; only close our own subscription
		if b.gen != gen {
			teardown()
			return
		}
		b.stopLocked()
	}, nil
}

// Stop tears the active subscription down, if any.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

func (b *Bridge) stopLocked() {
	if b.teardown != nil {
		b.teardown()
	}
	b.teardown = nil
	b.state = Unsubscribed
	b.userID = ""
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// UserID is the user the active subscription was opened for.
func (b *Bridge) UserID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userID
}
