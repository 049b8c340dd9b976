package views_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/preceptor/apps/client/views"
	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/directory"
	"github.com/trezcool/preceptor/core/function"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/pairing"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/session"
	backendsvc "github.com/trezcool/preceptor/services/backend"
)

const waitFor = 2 * time.Second

// wednesday is the fixed "now" of every view under test.
var wednesday = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// client is one installation of the app with its own session and router.
type client struct {
	router *views.Router
	deps   views.Deps
}

func newClient(t *testing.T, conf *core.Config) *client {
	logger := core.NopLogger{}
	bc, err := backendsvc.NewClient(conf, logger)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	fn := function.NewClient(backendsvc.NewFunctions(bc), conf, logger)
	router := views.NewRouter(views.RouteLogin)
	return &client{
		router: router,
		deps: views.Deps{
			Conf:       conf,
			Logger:     logger,
			Router:     router,
			Sessions:   session.NewService(backendsvc.NewAccount(bc), fn, conf, logger),
			Directory:  directory.NewService(fn, conf, logger),
			Pairing:    pairing.NewService(fn, logger),
			Subscriber: backendsvc.NewRealtime(bc, conf, logger),
			Now:        func() time.Time { return wednesday },
		},
	}
}

func (c *client) login(t *testing.T, email, pwd string) {
	if _, err := c.deps.Sessions.Login(context.Background(), session.LoginForm{Email: email, Password: pwd}); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
}

// fakeSubscriber hands the test the handler of the last subscription.
type fakeSubscriber struct {
	mu      sync.Mutex
	handler realtime.Handler
	closed  int
}

var _ realtime.Subscriber = (*fakeSubscriber)(nil)

func (s *fakeSubscriber) Subscribe(_ context.Context, _ []string, handler realtime.Handler) (realtime.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	return fakeSubscription{s}, nil
}

type fakeSubscription struct{ s *fakeSubscriber }

func (sub fakeSubscription) Close() error {
	sub.s.mu.Lock()
	defer sub.s.mu.Unlock()
	sub.s.closed++
	return nil
}

func (s *fakeSubscriber) push(t *testing.T, event string, doc interface{}) {
	payload, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler == nil {
		t.Fatalf("push() before Subscribe()")
	}
	handler(realtime.Event{Events: []string{event}, Channels: []string{realtime.ChannelDocuments}, Payload: payload})
}

func (s *fakeSubscriber) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func requestDoc(id, preceptorID string) notification.RequestDocument {
	return notification.RequestDocument{
		ID:           id,
		StudentID:    "student-1",
		StudentName:  "Sam Lee",
		StudentEmail: "sam.lee@uwa.edu.au",
		PreceptorID:  preceptorID,
		Day:          "Wednesday",
	}
}
