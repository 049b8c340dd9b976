package views

import "sync"

type Route string

const (
	RouteLogin         Route = "login"
	RouteSignup        Route = "signup"
	RouteProfile       Route = "profile"
	RouteNotifications Route = "notifications"
)

// Alert is a blocking message the user has to acknowledge.
type Alert struct {
	Title   string
	Message string
}

// Router tracks the current screen, its back stack and the alerts waiting to be shown.
type Router struct {
	mu      sync.Mutex
	current Route
	stack   []Route
	alerts  []Alert
}

func NewRouter(start Route) *Router {
	return &Router{current: start}
}

func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Push opens to on top of the current screen.
func (r *Router) Push(to Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to == r.current {
		return
	}
	r.stack = append(r.stack, r.current)
	r.current = to
}

// Replace opens to and forgets the history.
func (r *Router) Replace(to Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = nil
	r.current = to
}

// Back returns to the previous screen. It returns false when there is none.
func (r *Router) Back() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) == 0 {
		return false
	}
	r.current = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return true
}

func (r *Router) Alert(title, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{Title: title, Message: msg})
}

// Alerts returns the pending alerts and clears them.
func (r *Router) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	alerts := r.alerts
	r.alerts = nil
	return alerts
}
