// Package views holds the headless view models of the client screens. A view is driven by
// its setters and actions; remote responses update it only while it is open.
package views

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/directory"
	"github.com/trezcool/preceptor/core/pairing"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/session"
)

var (
	ErrClosed = errors.New("view closed")
	ErrBusy   = errors.New("already submitting")
)

// Deps are the services shared by every view.
type Deps struct {
	Conf       *core.Config
	Logger     core.Logger
	Router     *Router
	Sessions   *session.Service
	Directory  *directory.Service
	Pairing    *pairing.Service
	Subscriber realtime.Subscriber
	Now        func() time.Time // defaults to time.Now
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// viewState guards a view's fields and drops updates once the view is closed.
type viewState struct {
	mu     sync.Mutex
	closed bool
}

// update runs fn under the view lock unless the view is closed.
func (s *viewState) update(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn()
	return true
}

func (s *viewState) read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// close marks the view closed. It returns false if it already was.
func (s *viewState) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

func (s *viewState) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
